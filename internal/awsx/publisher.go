package awsx

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
)

// Publisher wraps an SQS client and the retry queue URL.
type Publisher struct {
	SQS      SQSAPI
	QueueURL string
}

// NewPublisher returns a Publisher bound to a queue URL.
func NewPublisher(sqsClient SQSAPI, queueURL string) *Publisher {
	return &Publisher{
		SQS:      sqsClient,
		QueueURL: queueURL,
	}
}

// Requeue republishes a message body verbatim so the work item gets a fresh
// invocation later. Redelivery and backoff policy live on the queue itself.
func (p *Publisher) Requeue(ctx context.Context, messageBody string) error {
	_, err := p.SQS.SendMessage(ctx, &sqs.SendMessageInput{
		QueueUrl:    &p.QueueURL,
		MessageBody: &messageBody,
	})
	if err != nil {
		return fmt.Errorf("send message: %w", err)
	}
	return nil
}

// Alerter publishes operational alerts to an SNS topic.
type Alerter struct {
	SNS      SNSAPI
	TopicARN string
}

// NewAlerter returns an Alerter bound to a topic.
func NewAlerter(snsClient SNSAPI, topicARN string) *Alerter {
	return &Alerter{
		SNS:      snsClient,
		TopicARN: topicARN,
	}
}

// Alert publishes a subject + free-text message to the alert topic.
func (a *Alerter) Alert(ctx context.Context, subject, message string) error {
	_, err := a.SNS.Publish(ctx, &sns.PublishInput{
		TopicArn: &a.TopicARN,
		Subject:  &subject,
		Message:  &message,
	})
	if err != nil {
		return fmt.Errorf("publish alert: %w", err)
	}
	return nil
}
