// Package config loads the worker configuration from environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"
)

// Config holds every endpoint, table, and credential the worker needs.
// Loaded once at startup and passed into each component; never mutated.
type Config struct {
	// Queue + alerting
	RetryQueueURL string
	AlertTopicARN string
	Environment   string

	// DynamoDB tables
	LogTable                   string
	TransactionTable           string
	ReferenceTable             string
	ReferenceTableOrderNoIndex string

	// Document-repository (websli) API
	WebsliBaseURL      string
	AmazonWebsliToken  string
	ShippeoWebsliToken string

	// Internal upload-target endpoint + Cognito federation
	AmazonUsername        string
	AmazonPassword        string
	AttachmentHost        string
	AttachmentStage       string
	AttachmentRegion      string
	AttachmentService     string
	CognitoClientID       string
	CognitoUserPoolID     string
	CognitoIdentityPoolID string
	CognitoRegion         string

	// Partner (Shippeo) flow
	ShippeoUsername      string
	ShippeoPassword      string
	ShippeoTokenURL      string
	ShippeoUploadURL     string
	TokenExpirationDays  float64
	PartnerUploadEnabled bool
}

// MustLoad reads the environment and returns a Config. Any missing required
// key is a fatal startup error.
func MustLoad() Config {
	days, err := strconv.ParseFloat(must("TOKEN_EXPIRATION_DAYS"), 64)
	if err != nil {
		panic(fmt.Errorf("invalid TOKEN_EXPIRATION_DAYS: %w", err))
	}

	return Config{
		RetryQueueURL: must("RETRY_QUEUE_URL"),
		AlertTopicARN: must("SNS_TOPIC_ARN"),
		Environment:   must("STAGE"),

		LogTable:                   must("LOG_TABLE"),
		TransactionTable:           must("TRANSACTION_TABLE"),
		ReferenceTable:             must("REFERENCE_TABLE"),
		ReferenceTableOrderNoIndex: must("REFERENCE_TABLE_ORDER_NO_INDEX"),

		WebsliBaseURL:      must("WT_WEBSLI_API_URL"),
		AmazonWebsliToken:  must("AMAZON_POD_DOC_UPLOAD_WEBSLI_TOKEN"),
		ShippeoWebsliToken: must("SHIPPEO_POD_DOC_UPLOAD_WEBSLI_TOKEN"),

		AmazonUsername:        must("AMAZON_USER_NAME"),
		AmazonPassword:        must("AMAZON_PASSWORD"),
		AttachmentHost:        must("HRPSL_HOST"),
		AttachmentStage:       must("HRPSL_STAGE"),
		AttachmentRegion:      must("HRPSL_REGION"),
		AttachmentService:     must("HRPSL_SERVICE"),
		CognitoClientID:       must("COGNITO_CLIENT_ID"),
		CognitoUserPoolID:     must("COGNITO_USER_POOL_ID"),
		CognitoIdentityPoolID: must("COGNITO_IDENTITY_POOL_ID"),
		CognitoRegion:         must("COGNITO_REGION"),

		ShippeoUsername:      must("SHIPPEO_USERNAME"),
		ShippeoPassword:      must("SHIPPEO_PASSWORD"),
		ShippeoTokenURL:      must("SHIPPEO_GET_TOKEN_URL"),
		ShippeoUploadURL:     must("SHIPPEO_UPLOAD_DOC_URL"),
		TokenExpirationDays:  days,
		PartnerUploadEnabled: get("PARTNER_UPLOAD_ENABLED", "") == "true",
	}
}

// AttachmentEndpoint is the fixed internal endpoint that issues presigned
// upload URLs.
func (c Config) AttachmentEndpoint() string {
	return fmt.Sprintf("https://%s/%s/requestShipmentAttachmentUrl", c.AttachmentHost, c.AttachmentStage)
}

// CognitoProvider is the identity-pool login provider name for the user pool.
func (c Config) CognitoProvider() string {
	return fmt.Sprintf("cognito-idp.%s.amazonaws.com/%s", c.CognitoRegion, c.CognitoUserPoolID)
}

// get returns the value of the environment variable k or def if not set.
func get(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

// must returns the value of the environment variable k or panics if not set.
func must(k string) string {
	v := os.Getenv(k)
	if v == "" {
		panic(fmt.Errorf("missing env %s", k))
	}
	return v
}
