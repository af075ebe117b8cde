package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/smithy-go"
	validatorv10 "github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/biz-priv/omni-datawarehouse-backend-services/internal/auditlog"
	"github.com/biz-priv/omni-datawarehouse-backend-services/internal/awsx"
	"github.com/biz-priv/omni-datawarehouse-backend-services/internal/config"
	"github.com/biz-priv/omni-datawarehouse-backend-services/internal/references"
	"github.com/biz-priv/omni-datawarehouse-backend-services/internal/shippeo"
	"github.com/biz-priv/omni-datawarehouse-backend-services/internal/transactions"
	"github.com/biz-priv/omni-datawarehouse-backend-services/internal/upload"
	"github.com/biz-priv/omni-datawarehouse-backend-services/internal/validation"
	"github.com/biz-priv/omni-datawarehouse-backend-services/internal/websli"
)

const (
	alertSubject     = "Error on pod-upload-doc lambda"
	metricsNamespace = "OmniDW/PodDocUpload"
)

// SignerFactory produces a fresh request signer per workflow run.
type SignerFactory interface {
	NewSigner(ctx context.Context) (upload.RequestSigner, error)
}

// Processor handles SQS messages and runs the document-upload workflow.
type Processor struct {
	cfg      config.Config
	validate *validatorv10.Validate

	transactions *transactions.Store
	auditLog     *auditlog.Store
	references   *references.Store
	websli       *websli.Client
	uploader     *upload.Client
	shippeo      *shippeo.Client
	signers      SignerFactory

	publisher *awsx.Publisher
	alerter   *awsx.Alerter
	metrics   *awsx.Metrics
}

// NewProcessor wires the workflow with AWS clients injected.
func NewProcessor(cfg config.Config, clients *awsx.Clients, signers SignerFactory) *Processor {
	return &Processor{
		cfg:          cfg,
		validate:     validation.New(),
		transactions: transactions.NewStore(clients.DynamoDB, cfg.TransactionTable),
		auditLog:     auditlog.NewStore(clients.DynamoDB, cfg.LogTable, cfg.TokenExpirationDays),
		references:   references.NewStore(clients.DynamoDB, cfg.ReferenceTable, cfg.ReferenceTableOrderNoIndex),
		websli:       websli.New(cfg.WebsliBaseURL),
		uploader:     upload.NewClient(cfg.AttachmentEndpoint()),
		shippeo:      shippeo.New(cfg.ShippeoTokenURL, cfg.ShippeoUploadURL, cfg.ShippeoUsername, cfg.ShippeoPassword),
		signers:      signers,
		publisher:    awsx.NewPublisher(clients.SQS, cfg.RetryQueueURL),
		alerter:      awsx.NewAlerter(clients.SNS, cfg.AlertTopicARN),
		metrics:      awsx.NewMetrics(clients.CloudWatch, metricsNamespace),
	}
}

// Handle receives an SQS batch event and processes each message. Failures
// never propagate to the runtime: the failure branch requeues the work item
// itself, so returning an error would double-deliver.
func (p *Processor) Handle(ctx context.Context, ev events.SQSEvent) error {
	logrus.Infof("received %d SQS messages", len(ev.Records))
	for _, rec := range ev.Records {
		p.processRecord(ctx, rec)
	}
	return nil
}

func (p *Processor) processRecord(ctx context.Context, rec events.SQSMessage) {
	logger := logrus.WithField("correlation_id", uuid.NewString())

	var item validation.WorkItem
	var orderNo, housebill string

	err := func() error {
		if err := json.Unmarshal([]byte(rec.Body), &item); err != nil {
			return fmt.Errorf("parse work item: %w", err)
		}
		orderNo = item.Item.OrderNo
		housebill = item.Item.Housebill
		logger = logger.WithFields(logrus.Fields{
			"order_no":     orderNo,
			"housebill_no": housebill,
			"client":       item.Client,
		})

		if err := p.validate.Struct(item); err != nil {
			return fmt.Errorf("invalid work item: %w", err)
		}

		switch item.Client {
		case validation.ClientAmazon:
			if err := p.processAmazon(ctx, logger, item); err != nil {
				return err
			}
		case validation.ClientShippeo:
			if p.cfg.PartnerUploadEnabled {
				if err := p.processShippeo(ctx, logger, item); err != nil {
					return err
				}
			} else {
				logger.Info("partner upload disabled, skipping")
			}
		default:
			logger.Warn("unknown client, skipping")
		}

		return p.transactions.UpdateStatus(ctx, orderNo, housebill, transactions.StatusSuccess)
	}()

	if err != nil {
		if code := apiErrorCode(err); code != "" {
			logger = logger.WithField("aws_error_code", code)
		}
		logger.WithError(err).Error("work item failed")
		res := p.recoverFailure(ctx, logger, rec.Body, orderNo, housebill, err)
		logger.WithFields(logrus.Fields{
			"status_recorded": res.StatusRecorded,
			"audit_logged":    res.AuditLogged,
			"requeued":        res.Requeued,
			"alerted":         res.Alerted,
		}).Info("failure recovery finished")
		if merr := p.metrics.Count(ctx, awsx.MetricUploadFailures, p.cfg.Environment); merr != nil {
			logger.WithError(merr).Warn("publish failure metric")
		}
		return
	}

	if merr := p.metrics.Count(ctx, awsx.MetricDocumentsUploaded, p.cfg.Environment); merr != nil {
		logger.WithError(merr).Warn("publish success metric")
	}
	logger.Info("work item completed")
}

// apiErrorCode surfaces the AWS error code when a collaborator failure came
// out of the SDK, for the failure-branch log context.
func apiErrorCode(err error) string {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		return apiErr.ErrorCode()
	}
	return ""
}

// recoverFailure runs the failure branch: FAILED status upsert, audit entry,
// verbatim requeue, and a prod-only alert. Each sub-step failure is logged
// and the remaining sub-steps still run; nothing re-raises.
func (p *Processor) recoverFailure(ctx context.Context, logger *logrus.Entry, body, orderNo, housebill string, cause error) RecoveryResult {
	var res RecoveryResult

	if err := p.transactions.UpdateStatus(ctx, orderNo, housebill, transactions.StatusFailed); err != nil {
		logger.WithError(err).Error("recovery: record FAILED status")
	} else {
		res.StatusRecorded = true
	}

	if err := p.auditLog.Insert(ctx, housebill, body, cause.Error()); err != nil {
		logger.WithError(err).Error("recovery: write audit entry")
	} else {
		res.AuditLogged = true
	}

	if err := p.publisher.Requeue(ctx, body); err != nil {
		logger.WithError(err).Error("recovery: requeue work item")
	} else {
		res.Requeued = true
	}

	if p.cfg.Environment == "prod" {
		msg := fmt.Sprintf("Error in pod-upload-doc lambda: %v", cause)
		if err := p.alerter.Alert(ctx, alertSubject, msg); err != nil {
			logger.WithError(err).Error("recovery: publish alert")
		} else {
			res.Alerted = true
		}
	}

	return res
}

// processAmazon runs the primary workflow: fetch document, resolve a pro
// number, request a presigned upload URL with a signed request, and transfer
// the bytes.
func (p *Processor) processAmazon(ctx context.Context, logger *logrus.Entry, item validation.WorkItem) error {
	housebill := item.Item.Housebill
	docType := ""
	if item.FileHeaderTableData.DocType != nil {
		docType = *item.FileHeaderTableData.DocType
	}

	// A fetch failure is not fatal: the upload-target request still goes out
	// and an empty payload is transferred.
	b64Data := ""
	doc, err := p.websli.FetchDocument(ctx, p.cfg.AmazonWebsliToken, housebill, docType)
	if err != nil {
		logger.WithError(err).Warn("document fetch failed, continuing with empty payload")
	} else {
		b64Data = doc.B64Data
	}

	refNo, found, err := p.references.Lookup(ctx, item.Item.OrderNo)
	if err != nil {
		return fmt.Errorf("reference lookup: %w", err)
	}
	proNumber := housebill
	if found {
		proNumber = refNo
	}
	logger.Infof("pro number resolved to %s", proNumber)

	attReq := upload.NewAttachmentRequest(proNumber, item.FileHeaderTableData.FileName, item.Item.UserID)

	signer, err := p.signers.NewSigner(ctx)
	if err != nil {
		return fmt.Errorf("authorize upload request: %w", err)
	}

	presignedURL, err := p.uploader.RequestUploadURL(ctx, signer, attReq)
	if err != nil {
		return err
	}

	if err := p.uploader.Transfer(ctx, presignedURL, b64Data); err != nil {
		return err
	}

	return p.auditLog.Insert(ctx, housebill, "File uploaded to s3 successfully.", "")
}

// processShippeo runs the partner workflow: cached bearer token (or a fresh
// Basic-auth exchange), document fetch with the partner token, multipart
// upload to the per-housebill URL.
func (p *Processor) processShippeo(ctx context.Context, logger *logrus.Entry, item validation.WorkItem) error {
	housebill := item.Item.Housebill

	token, err := p.auditLog.GetCachedToken(ctx)
	if err == auditlog.ErrTokenNotFound {
		token, err = p.shippeo.FetchToken(ctx)
		if err != nil {
			return fmt.Errorf("partner token exchange: %w", err)
		}
		if err := p.auditLog.PutCachedToken(ctx, token); err != nil {
			return fmt.Errorf("cache partner token: %w", err)
		}
	} else if err != nil {
		return fmt.Errorf("read cached token: %w", err)
	}

	if item.FileHeaderTableData.DocType == nil {
		logger.Warnf("housebill %s with order no %s is not valid", housebill, item.Item.OrderNo)
		return nil
	}

	b64Data := ""
	filename := ""
	doc, err := p.websli.FetchDocument(ctx, p.cfg.ShippeoWebsliToken, housebill, *item.FileHeaderTableData.DocType)
	if err != nil {
		logger.WithError(err).Warn("document fetch failed, continuing with empty payload")
	} else {
		b64Data = doc.B64Data
		filename = doc.FileName
	}

	data, err := upload.Decode(b64Data)
	if err != nil {
		return err
	}

	respBody, err := p.shippeo.UploadDocument(ctx, token, housebill, filename, data)
	if err != nil {
		return err
	}

	if err := p.auditLog.Insert(ctx, housebill, respBody, ""); err != nil {
		return err
	}
	// The workflow records SUCCESS itself and the orchestrator upserts it
	// again on return; the second write is an idempotent overwrite.
	return p.transactions.UpdateStatus(ctx, item.Item.OrderNo, housebill, transactions.StatusSuccess)
}
