package ledger

import (
	"time"

	"github.com/shopspring/decimal"
)

// SourceType tags every entry with the kind of business record that produced it
type SourceType string

const (
	SourceTypePurchase   SourceType = "PURCHASE"
	SourceTypeSale       SourceType = "SALE"
	SourceTypePayment    SourceType = "PAYMENT"
	SourceTypeExpense    SourceType = "EXPENSE"
	SourceTypeAdjustment SourceType = "ADJUSTMENT"
	SourceTypeManual     SourceType = "MANUAL"
	SourceTypeReturn     SourceType = "RETURN"
)

func (s SourceType) IsValid() bool {
	switch s {
	case SourceTypePurchase, SourceTypeSale, SourceTypePayment, SourceTypeExpense,
		SourceTypeAdjustment, SourceTypeManual, SourceTypeReturn:
		return true
	}
	return false
}

// Entry is one immutable debit or credit line of a posted journal
type Entry struct {
	ID             int64           `json:"id"`
	TransactionRef string          `json:"transaction_ref"`
	EntryDate      time.Time       `json:"entry_date"`
	AccountID      int64           `json:"account_id"`
	Debit          decimal.Decimal `json:"debit"`
	Credit         decimal.Decimal `json:"credit"`
	Description    string          `json:"description,omitempty"`
	SourceType     SourceType      `json:"source_type"`
	SourceID       int64           `json:"source_id"`
	ReversalOf     string          `json:"reversal_of,omitempty"`
	Deleted        bool            `json:"is_deleted"`
	CreatedAt      time.Time       `json:"created_at"`
}

// Net returns debit minus credit, the signed effect of the entry on its account
func (e *Entry) Net() decimal.Decimal {
	return e.Debit.Sub(e.Credit)
}

// Line is one requested posting before it becomes an Entry
type Line struct {
	AccountID   int64
	Debit       decimal.Decimal
	Credit      decimal.Decimal
	Description string
}

// Debit builds a debit line
func Debit(accountID int64, amount decimal.Decimal, description string) Line {
	return Line{AccountID: accountID, Debit: amount, Credit: decimal.Zero, Description: description}
}

// Credit builds a credit line
func Credit(accountID int64, amount decimal.Decimal, description string) Line {
	return Line{AccountID: accountID, Debit: decimal.Zero, Credit: amount, Description: description}
}

// DateOf truncates t to its calendar day in UTC.
func DateOf(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// AccountActivity aggregates the live entries of one account
type AccountActivity struct {
	AccountID int64           `json:"account_id"`
	Debit     decimal.Decimal `json:"debit"`
	Credit    decimal.Decimal `json:"credit"`
}

// Range bounds a query by entry date; nil ends are open
type Range struct {
	From *time.Time
	To   *time.Time
}

// Contains reports whether date falls inside the range, inclusive on both ends
func (r Range) Contains(date time.Time) bool {
	d := DateOf(date)
	if r.From != nil && d.Before(DateOf(*r.From)) {
		return false
	}
	if r.To != nil && d.After(DateOf(*r.To)) {
		return false
	}
	return true
}
