package shared

// PostingType names a business event accepted by the posting orchestrator
type PostingType string

const (
	PostingTypePurchase       PostingType = "PURCHASE"
	PostingTypeSale           PostingType = "SALE"
	PostingTypePayment        PostingType = "PAYMENT"
	PostingTypeExpense        PostingType = "EXPENSE"
	PostingTypeAdjustment     PostingType = "ADJUSTMENT"
	PostingTypePurchaseReturn PostingType = "PURCHASE_RETURN"
	PostingTypeSaleReturn     PostingType = "SALE_RETURN"
	PostingTypeManualJournal  PostingType = "MANUAL_JOURNAL"
	PostingTypeReversal       PostingType = "REVERSAL"
)

func (t PostingType) IsValid() bool {
	switch t {
	case PostingTypePurchase, PostingTypeSale, PostingTypePayment, PostingTypeExpense,
		PostingTypeAdjustment, PostingTypePurchaseReturn, PostingTypeSaleReturn,
		PostingTypeManualJournal, PostingTypeReversal:
		return true
	}
	return false
}

// PostingStatus is the externally visible state of an asynchronous posting request
type PostingStatus string

const (
	PostingStatusPending   PostingStatus = "PENDING"
	PostingStatusCommitted PostingStatus = "COMMITTED"
	PostingStatusRejected  PostingStatus = "REJECTED"
)

// OutboxStatus defines message publishing states
type OutboxStatus string

const (
	OutboxStatusPending         OutboxStatus = "PENDING"
	OutboxStatusProcessed       OutboxStatus = "PROCESSED"
	OutboxStatusFailedToPublish OutboxStatus = "FAILED_TO_PUBLISH"
)
