package transactions

// Transaction statuses. Every invocation ends by upserting exactly one of
// these for the work item's identifiers.
const (
	StatusSuccess = "SUCCESS"
	StatusFailed  = "FAILED"
)

// Record is the item stored in the transaction-status DynamoDB table.
type Record struct {
	OrderNumber     string `dynamodbav:"orderNumber"`     // PK
	HouseBillNumber string `dynamodbav:"houseBillNumber"` // SK
	Status          string `dynamodbav:"status"`
	LastUpdateTime  string `dynamodbav:"lastUpdateTime"` // ISO8601 UTC
}
