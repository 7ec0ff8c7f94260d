package business

import (
	"context"
	"fmt"
	"time"

	"github.com/crop-trade-ledger/internal/domain/ledger"
	"github.com/shopspring/decimal"
)

// Repository persists business records. Create methods assign the record id.
type Repository interface {
	CreatePurchase(ctx context.Context, p *Purchase) error
	GetPurchase(ctx context.Context, id int64) (*Purchase, error)
	CreateSale(ctx context.Context, s *Sale) error
	GetSale(ctx context.Context, id int64) (*Sale, error)
	CreatePayment(ctx context.Context, p *Payment) error
	GetPayment(ctx context.Context, id int64) (*Payment, error)
	CreateExpense(ctx context.Context, e *Expense) error
	GetExpense(ctx context.Context, id int64) (*Expense, error)
	CreateAdjustment(ctx context.Context, a *Adjustment) error
	GetAdjustment(ctx context.Context, id int64) (*Adjustment, error)
	CreateReturn(ctx context.Context, r *Return) error
	GetReturn(ctx context.Context, id int64) (*Return, error)
	CreateManualJournal(ctx context.Context, m *ManualJournal) error
	GetManualJournal(ctx context.Context, id int64) (*ManualJournal, error)

	// ReturnedQuantity sums the quantity of live returns of kind against originalID
	ReturnedQuantity(ctx context.Context, kind ReturnKind, originalID int64) (decimal.Decimal, error)
	// MarkReversed stamps the record as voided
	MarkReversed(ctx context.Context, source ledger.SourceType, id int64, at time.Time) error
	// ContactActivity lists the live records of one contact ordered by date then ref
	ContactActivity(ctx context.Context, contactID int64, r ledger.Range) ([]*ContactLine, error)

	// SeasonTotals sums the live records tagged with seasonID, net of live returns
	SeasonTotals(ctx context.Context, seasonID int64) (*SeasonTotals, error)
	// ItemSales sums live sales per item net of live sale returns, ordered by item id.
	// A nil seasonID covers every sale.
	ItemSales(ctx context.Context, seasonID *int64) ([]*ItemSales, error)
}

// SeasonTotals are the trading figures of one season. Revenue and COGS come from
// sales, PurchaseCost from purchases and Expenses from expenses tagged with it.
type SeasonTotals struct {
	Revenue      decimal.Decimal `json:"revenue"`
	COGS         decimal.Decimal `json:"cogs"`
	PurchaseCost decimal.Decimal `json:"purchase_cost"`
	Expenses     decimal.Decimal `json:"expenses"`
}

// ItemSales is what one item sold for and what it cost at the frozen unit cost
type ItemSales struct {
	ItemID   int64           `json:"item_id"`
	Quantity decimal.Decimal `json:"quantity"`
	Revenue  decimal.Decimal `json:"revenue"`
	COGS     decimal.Decimal `json:"cogs"`
}

// ContactLine is one record in a contact statement. Debit increases what the
// contact owes; Credit decreases it.
type ContactLine struct {
	Date           time.Time         `json:"date"`
	Source         ledger.SourceType `json:"source_type"`
	RecordID       int64             `json:"record_id"`
	TransactionRef string            `json:"transaction_ref"`
	Description    string            `json:"description"`
	Debit          decimal.Decimal   `json:"debit"`
	Credit         decimal.Decimal   `json:"credit"`
}

// ErrRecordNotFound indicates an unknown business record
type ErrRecordNotFound struct {
	Source ledger.SourceType
	ID     int64
}

func (e ErrRecordNotFound) Error() string {
	return fmt.Sprintf("%s record not found: %d", e.Source, e.ID)
}

// ErrAlreadyReversed indicates the record was voided earlier
type ErrAlreadyReversed struct {
	Source ledger.SourceType
	ID     int64
}

func (e ErrAlreadyReversed) Error() string {
	return fmt.Sprintf("%s record already reversed: %d", e.Source, e.ID)
}
