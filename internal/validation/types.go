package validation

// Client discriminator values carried on queued messages.
const (
	ClientAmazon  = "amazon"
	ClientShippeo = "shippeo"
)

// FileHeaderRecord is the file-header snapshot embedded in a work item.
// DocType is nullable upstream.
type FileHeaderRecord struct {
	DocType  *string `json:"FK_DocType"`
	FileName string  `json:"FileName"`
}

// ItemRecord carries the shipment identifiers for one work item.
type ItemRecord struct {
	OrderNo   string `json:"PK_OrderNo" validate:"required"`
	Housebill string `json:"Housebill" validate:"required"`
	UserID    string `json:"UserId"`
}

// WorkItem is one queued unit of work describing a shipment document to
// upload. Immutable within the invocation.
type WorkItem struct {
	Item                ItemRecord       `json:"Item" validate:"required"`
	Client              string           `json:"Client" validate:"required"`
	FileHeaderTableData FileHeaderRecord `json:"FileHeaderTableData"`
}
