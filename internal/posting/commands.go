package posting

import (
	"time"

	"github.com/crop-trade-ledger/internal/domain/business"
	"github.com/crop-trade-ledger/internal/domain/inventory"
	"github.com/crop-trade-ledger/internal/domain/ledger"
	"github.com/shopspring/decimal"
)

// PurchaseCommand buys quantity units of an item from a supplier
type PurchaseCommand struct {
	ContactID        int64           `json:"contact_id" validate:"required,gt=0"`
	ItemID           int64           `json:"item_id" validate:"required,gt=0"`
	Quantity         decimal.Decimal `json:"quantity" validate:"gt=0"`
	UnitPrice        decimal.Decimal `json:"unit_price" validate:"gt=0"`
	AmountPaid       decimal.Decimal `json:"amount_paid" validate:"gte=0"`
	PaymentAccountID *int64          `json:"payment_account_id,omitempty" validate:"omitempty,gt=0"`
	Date             time.Time       `json:"date"`
	SeasonID         *int64          `json:"season_id,omitempty" validate:"omitempty,gt=0"`
	InvoiceNumber    string          `json:"invoice_number,omitempty" validate:"max=64"`
	Notes            string          `json:"notes,omitempty" validate:"max=500"`
}

// SaleCommand sells quantity units of an item to a customer
type SaleCommand struct {
	ContactID        int64           `json:"contact_id" validate:"required,gt=0"`
	ItemID           int64           `json:"item_id" validate:"required,gt=0"`
	Quantity         decimal.Decimal `json:"quantity" validate:"gt=0"`
	UnitPrice        decimal.Decimal `json:"unit_price" validate:"gt=0"`
	AmountReceived   decimal.Decimal `json:"amount_received" validate:"gte=0"`
	PaymentAccountID *int64          `json:"payment_account_id,omitempty" validate:"omitempty,gt=0"`
	Date             time.Time       `json:"date"`
	SeasonID         *int64          `json:"season_id,omitempty" validate:"omitempty,gt=0"`
	InvoiceNumber    string          `json:"invoice_number,omitempty" validate:"max=64"`
	Notes            string          `json:"notes,omitempty" validate:"max=500"`
}

// PaymentCommand settles part of a supplier or customer balance
type PaymentCommand struct {
	ContactID        int64                     `json:"contact_id" validate:"required,gt=0"`
	Direction        business.PaymentDirection `json:"direction" validate:"required,oneof=PAY RECEIVE"`
	Amount           decimal.Decimal           `json:"amount" validate:"gt=0"`
	PaymentAccountID int64                     `json:"payment_account_id" validate:"required,gt=0"`
	Date             time.Time                 `json:"date"`
	Notes            string                    `json:"notes,omitempty" validate:"max=500"`
}

type ExpenseCommand struct {
	ExpenseAccountID int64           `json:"expense_account_id" validate:"required,gt=0"`
	PaymentAccountID int64           `json:"payment_account_id" validate:"required,gt=0"`
	Amount           decimal.Decimal `json:"amount" validate:"gt=0"`
	Date             time.Time       `json:"date"`
	SeasonID         *int64          `json:"season_id,omitempty" validate:"omitempty,gt=0"`
	Description      string          `json:"description,omitempty" validate:"max=500"`
}

type AdjustmentCommand struct {
	ItemID   int64                    `json:"item_id" validate:"required,gt=0"`
	Type     inventory.AdjustmentType `json:"adjustment_type" validate:"required,oneof=DAMAGE SHORTAGE SURPLUS"`
	Quantity decimal.Decimal          `json:"quantity" validate:"gt=0"`
	Date     time.Time                `json:"date"`
	Reason   string                   `json:"reason,omitempty" validate:"max=500"`
}

// ReturnCommand sends back part of an earlier purchase or sale
type ReturnCommand struct {
	OriginalID int64           `json:"original_id" validate:"required,gt=0"`
	Quantity   decimal.Decimal `json:"quantity" validate:"gt=0"`
	Date       time.Time       `json:"date"`
	Reason     string          `json:"reason,omitempty" validate:"max=500"`
}

type ManualJournalCommand struct {
	DebitAccountID  int64           `json:"debit_account_id" validate:"required,gt=0"`
	CreditAccountID int64           `json:"credit_account_id" validate:"required,gt=0,nefield=DebitAccountID"`
	Amount          decimal.Decimal `json:"amount" validate:"gt=0"`
	Date            time.Time       `json:"date"`
	Description     string          `json:"description,omitempty" validate:"max=500"`
}

// ReversalCommand voids a posted business record
type ReversalCommand struct {
	SourceType ledger.SourceType `json:"source_type" validate:"required,oneof=PURCHASE SALE PAYMENT EXPENSE ADJUSTMENT MANUAL RETURN"`
	SourceID   int64             `json:"source_id" validate:"required,gt=0"`
	Date       time.Time         `json:"date"`
}
