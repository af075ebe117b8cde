package main

import (
	"context"
	"os"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/biz-priv/omni-datawarehouse-backend-services/internal/awsx"
	"github.com/biz-priv/omni-datawarehouse-backend-services/internal/cognito"
	"github.com/biz-priv/omni-datawarehouse-backend-services/internal/config"
	"github.com/biz-priv/omni-datawarehouse-backend-services/internal/upload"
)

// cognitoSignerFactory adapts the Cognito authorizer to the processor's
// SignerFactory.
type cognitoSignerFactory struct {
	auth *cognito.Authorizer
}

func (f cognitoSignerFactory) NewSigner(ctx context.Context) (upload.RequestSigner, error) {
	return f.auth.NewSigner(ctx)
}

func newProcessorFromEnv(ctx context.Context) (*Processor, error) {
	cfg := config.MustLoad()

	awsCfg, err := awsx.LoadAWSConfig(ctx)
	if err != nil {
		return nil, err
	}
	clients := awsx.NewClients(awsCfg)

	authorizer := cognito.New(awsCfg, cognito.Config{
		Username:       cfg.AmazonUsername,
		Password:       cfg.AmazonPassword,
		ClientID:       cfg.CognitoClientID,
		IdentityPoolID: cfg.CognitoIdentityPoolID,
		Provider:       cfg.CognitoProvider(),
		Region:         cfg.CognitoRegion,
		Service:        cfg.AttachmentService,
		SigningRegion:  cfg.AttachmentRegion,
	})

	return NewProcessor(cfg, clients, cognitoSignerFactory{auth: authorizer}), nil
}

func main() {
	logrus.SetFormatter(&logrus.JSONFormatter{})

	// If RUN_LOCAL=true, simulate a single SQS event for local testing.
	if os.Getenv("RUN_LOCAL") == "true" {
		_ = godotenv.Load()
		testBody := os.Getenv("LOCAL_SQS_BODY")
		if testBody == "" {
			testBody = `{"Client":"amazon","Item":{"PK_OrderNo":"local-order-1","Housebill":"local-hb-1","UserId":"local-user"},"FileHeaderTableData":{"FK_DocType":"POD","FileName":"doc.pdf"}}`
		}
		ctx := context.Background()
		p, err := newProcessorFromEnv(ctx)
		if err != nil {
			logrus.WithError(err).Fatal("local setup failed")
		}
		event := events.SQSEvent{
			Records: []events.SQSMessage{
				{Body: testBody},
			},
		}
		if err := p.Handle(ctx, event); err != nil {
			logrus.WithError(err).Fatal("local handler error")
		}
		return
	}

	p, err := newProcessorFromEnv(context.Background())
	if err != nil {
		logrus.WithError(err).Fatal("startup failed")
	}
	lambda.Start(p.Handle)
}
