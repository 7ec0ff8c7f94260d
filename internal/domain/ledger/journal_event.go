package ledger

import (
	"time"

	"github.com/shopspring/decimal"
)

// JournalEvent is the committed journal published to read models
type JournalEvent struct {
	TransactionRef string       `json:"transaction_ref"`
	SourceType     SourceType   `json:"source_type"`
	SourceID       int64        `json:"source_id"`
	EntryDate      time.Time    `json:"entry_date"`
	ReversalOf     string       `json:"reversal_of,omitempty"`
	Entries        []EventEntry `json:"entries"`
	AccountIDs     []int64      `json:"account_ids"`
	Actor          string       `json:"actor"`
	CorrelationID  string       `json:"correlation_id,omitempty"`
	RequestID      string       `json:"request_id,omitempty"`
	PostedAt       time.Time    `json:"posted_at"`
}

// EventEntry is one line of a JournalEvent
type EventEntry struct {
	AccountID   int64           `json:"account_id"`
	Debit       decimal.Decimal `json:"debit"`
	Credit      decimal.Decimal `json:"credit"`
	Description string          `json:"description,omitempty"`
}

// NewJournalEvent describes j as committed at postedAt
func NewJournalEvent(j *Journal, actor, correlationID, requestID string, postedAt time.Time) *JournalEvent {
	entries := make([]EventEntry, len(j.Lines))
	for i, l := range j.Lines {
		entries[i] = EventEntry{AccountID: l.AccountID, Debit: l.Debit, Credit: l.Credit, Description: l.Description}
	}
	return &JournalEvent{
		TransactionRef: j.Ref,
		SourceType:     j.SourceType,
		SourceID:       j.SourceID,
		EntryDate:      j.Date,
		ReversalOf:     j.ReversalOf,
		Entries:        entries,
		AccountIDs:     j.AccountIDs(),
		Actor:          actor,
		CorrelationID:  correlationID,
		RequestID:      requestID,
		PostedAt:       postedAt,
	}
}
