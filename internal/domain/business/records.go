package business

import (
	"fmt"
	"time"

	"github.com/crop-trade-ledger/internal/domain/inventory"
	"github.com/crop-trade-ledger/internal/domain/ledger"
	"github.com/shopspring/decimal"
)

// Record is implemented by every business event that triggers a posting
type Record interface {
	Source() ledger.SourceType
	RecordID() int64
	// Entity names the record kind in the audit trail
	Entity() string
	TransactionRef() string
	Settlement() Settlement
	IsReversed() bool
}

// Meta holds the bookkeeping fields shared by every record
type Meta struct {
	ID         int64      `json:"id"`
	ReversedAt *time.Time `json:"reversed_at,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
}

func (m Meta) RecordID() int64 { return m.ID }

// IsReversed reports whether the record has been voided
func (m Meta) IsReversed() bool { return m.ReversedAt != nil }

func ref(prefix string, id int64) string { return fmt.Sprintf("%s-%d", prefix, id) }

// Purchase of stock from a supplier
type Purchase struct {
	Meta
	ContactID        int64           `json:"contact_id"`
	ItemID           int64           `json:"item_id"`
	Quantity         decimal.Decimal `json:"quantity"`
	UnitPrice        decimal.Decimal `json:"unit_price"`
	Total            decimal.Decimal `json:"total"`
	AmountPaid       decimal.Decimal `json:"amount_paid"`
	PaymentAccountID *int64          `json:"payment_account_id,omitempty"`
	PurchaseDate     time.Time       `json:"purchase_date"`
	SeasonID         *int64          `json:"season_id,omitempty"`
	InvoiceNumber    string          `json:"invoice_number,omitempty"`
	Notes            string          `json:"notes,omitempty"`
}

func (p *Purchase) Source() ledger.SourceType { return ledger.SourceTypePurchase }
func (p *Purchase) Entity() string            { return "purchases" }
func (p *Purchase) TransactionRef() string    { return ref("PUR", p.ID) }
func (p *Purchase) Settlement() Settlement    { return Settlement{Total: p.Total, Paid: p.AmountPaid} }

// Sale of stock to a customer. UnitCost and COGS are frozen at posting time.
type Sale struct {
	Meta
	ContactID        int64           `json:"contact_id"`
	ItemID           int64           `json:"item_id"`
	Quantity         decimal.Decimal `json:"quantity"`
	UnitPrice        decimal.Decimal `json:"unit_price"`
	Total            decimal.Decimal `json:"total"`
	AmountReceived   decimal.Decimal `json:"amount_received"`
	PaymentAccountID *int64          `json:"payment_account_id,omitempty"`
	UnitCost         decimal.Decimal `json:"unit_cost"`
	COGS             decimal.Decimal `json:"cogs"`
	SaleDate         time.Time       `json:"sale_date"`
	SeasonID         *int64          `json:"season_id,omitempty"`
	InvoiceNumber    string          `json:"invoice_number,omitempty"`
	Notes            string          `json:"notes,omitempty"`
}

func (s *Sale) Source() ledger.SourceType { return ledger.SourceTypeSale }
func (s *Sale) Entity() string            { return "sales" }
func (s *Sale) TransactionRef() string    { return ref("SAL", s.ID) }
func (s *Sale) Settlement() Settlement    { return Settlement{Total: s.Total, Paid: s.AmountReceived} }

// PaymentDirection says whether money leaves (PAY) or arrives (RECEIVE)
type PaymentDirection string

const (
	PaymentDirectionPay     PaymentDirection = "PAY"
	PaymentDirectionReceive PaymentDirection = "RECEIVE"
)

func (d PaymentDirection) IsValid() bool {
	return d == PaymentDirectionPay || d == PaymentDirectionReceive
}

// Payment settles a supplier payable or a customer receivable
type Payment struct {
	Meta
	ContactID        int64            `json:"contact_id"`
	Direction        PaymentDirection `json:"direction"`
	Amount           decimal.Decimal  `json:"amount"`
	PaymentAccountID int64            `json:"payment_account_id"`
	PaymentDate      time.Time        `json:"payment_date"`
	Notes            string           `json:"notes,omitempty"`
}

func (p *Payment) Source() ledger.SourceType { return ledger.SourceTypePayment }
func (p *Payment) Entity() string            { return "payments" }
func (p *Payment) TransactionRef() string    { return ref("PAY", p.ID) }
func (p *Payment) Settlement() Settlement    { return settled(p.Amount) }

// Expense paid out of a cash or bank account
type Expense struct {
	Meta
	ExpenseAccountID int64           `json:"expense_account_id"`
	PaymentAccountID int64           `json:"payment_account_id"`
	Amount           decimal.Decimal `json:"amount"`
	ExpenseDate      time.Time       `json:"expense_date"`
	SeasonID         *int64          `json:"season_id,omitempty"`
	Description      string          `json:"description,omitempty"`
}

func (e *Expense) Source() ledger.SourceType { return ledger.SourceTypeExpense }
func (e *Expense) Entity() string            { return "expenses" }
func (e *Expense) TransactionRef() string    { return ref("EXP", e.ID) }
func (e *Expense) Settlement() Settlement    { return settled(e.Amount) }

// Adjustment corrects stock after a count; Cost is quantity times the average at posting time
type Adjustment struct {
	Meta
	ItemID         int64                    `json:"item_id"`
	Type           inventory.AdjustmentType `json:"adjustment_type"`
	Quantity       decimal.Decimal          `json:"quantity"`
	UnitCost       decimal.Decimal          `json:"unit_cost"`
	Cost           decimal.Decimal          `json:"cost"`
	AdjustmentDate time.Time                `json:"adjustment_date"`
	Reason         string                   `json:"reason,omitempty"`
}

func (a *Adjustment) Source() ledger.SourceType { return ledger.SourceTypeAdjustment }
func (a *Adjustment) Entity() string            { return "inventory_adjustments" }
func (a *Adjustment) TransactionRef() string    { return ref("ADJ", a.ID) }
func (a *Adjustment) Settlement() Settlement    { return settled(a.Cost) }

// ReturnKind distinguishes goods sent back to a supplier from goods a customer sends back
type ReturnKind string

const (
	ReturnKindPurchase ReturnKind = "PURCHASE_RETURN"
	ReturnKindSale     ReturnKind = "SALE_RETURN"
)

func (k ReturnKind) IsValid() bool {
	return k == ReturnKindPurchase || k == ReturnKindSale
}

// Return of part of an earlier purchase or sale. Amount is the pro-rata value
// at the original unit price; UnitCost is the inventory cost moved per unit.
type Return struct {
	Meta
	Kind       ReturnKind      `json:"kind"`
	OriginalID int64           `json:"original_id"`
	ContactID  int64           `json:"contact_id"`
	ItemID     int64           `json:"item_id"`
	Quantity   decimal.Decimal `json:"quantity"`
	UnitPrice  decimal.Decimal `json:"unit_price"`
	Amount     decimal.Decimal `json:"amount"`
	UnitCost   decimal.Decimal `json:"unit_cost"`
	Cost       decimal.Decimal `json:"cost"`
	ReturnDate time.Time       `json:"return_date"`
	Reason     string          `json:"reason,omitempty"`
}

func (r *Return) Source() ledger.SourceType { return ledger.SourceTypeReturn }
func (r *Return) Entity() string            { return "returns" }
func (r *Return) Settlement() Settlement    { return settled(r.Amount) }

func (r *Return) TransactionRef() string {
	if r.Kind == ReturnKindSale {
		return ref("SRT", r.ID)
	}
	return ref("PRT", r.ID)
}

// ManualJournal debits one account and credits another
type ManualJournal struct {
	Meta
	DebitAccountID  int64           `json:"debit_account_id"`
	CreditAccountID int64           `json:"credit_account_id"`
	Amount          decimal.Decimal `json:"amount"`
	EntryDate       time.Time       `json:"entry_date"`
	Description     string          `json:"description,omitempty"`
}

func (m *ManualJournal) Source() ledger.SourceType { return ledger.SourceTypeManual }
func (m *ManualJournal) Entity() string            { return "manual_journals" }
func (m *ManualJournal) TransactionRef() string    { return ref("MAN", m.ID) }
func (m *ManualJournal) Settlement() Settlement    { return settled(m.Amount) }

var (
	_ Record = (*Purchase)(nil)
	_ Record = (*Sale)(nil)
	_ Record = (*Payment)(nil)
	_ Record = (*Expense)(nil)
	_ Record = (*Adjustment)(nil)
	_ Record = (*Return)(nil)
	_ Record = (*ManualJournal)(nil)
)
