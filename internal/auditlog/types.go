package auditlog

// TokenKey is the reserved pKey slot the partner flow uses to cache its
// bearer token in the same table as the audit entries.
const TokenKey = "token"

// Entry is the shape persisted in the log DynamoDB table. Later writes for
// the same pKey overwrite; there is no deduplication.
type Entry struct {
	PKey           string `dynamodbav:"pKey"` // housebill number, or TokenKey
	Data           string `dynamodbav:"data"`
	Error          string `dynamodbav:"error"`
	LastUpdateTime string `dynamodbav:"lastUpdateTime"` // ISO8601 UTC
}

// CachedToken is the token variant stored under TokenKey. The expiration is
// advisory only: the read path never checks it.
type CachedToken struct {
	PKey       string `dynamodbav:"pKey"`
	Data       string `dynamodbav:"data"`
	Expiration string `dynamodbav:"expiration"` // ISO8601 UTC
}
