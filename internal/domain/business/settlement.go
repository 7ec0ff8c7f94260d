package business

import (
	"github.com/crop-trade-ledger/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// PaymentStatus is derived from a record's total and paid amount
type PaymentStatus string

const (
	PaymentStatusPaid    PaymentStatus = "PAID"
	PaymentStatusPartial PaymentStatus = "PARTIAL"
	PaymentStatusPending PaymentStatus = "PENDING"
)

// Settlement is the monetary state every business record owns
type Settlement struct {
	Total decimal.Decimal `json:"total"`
	Paid  decimal.Decimal `json:"paid"`
}

// Balance is total minus paid
func (s Settlement) Balance() decimal.Decimal {
	return s.Total.Sub(s.Paid)
}

// Status is PAID when nothing is outstanding, PARTIAL when something but not
// everything has been paid, and PENDING otherwise.
func (s Settlement) Status() PaymentStatus {
	if shared.NearlyEqual(s.Balance(), decimal.Zero) {
		return PaymentStatusPaid
	}
	if s.Paid.IsPositive() && s.Paid.LessThan(s.Total) {
		return PaymentStatusPartial
	}
	return PaymentStatusPending
}

// settled is the settlement of records that carry no outstanding balance
func settled(amount decimal.Decimal) Settlement {
	return Settlement{Total: amount, Paid: amount}
}
