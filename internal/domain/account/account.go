package account

import (
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Common errors
var (
	ErrEmptyName              = errors.New("account name cannot be empty")
	ErrInvalidCategory        = errors.New("invalid account category")
	ErrOpeningBalanceNotAllow = errors.New("opening balance is only allowed on balance sheet accounts")
)

// Category classifies an account in the chart of accounts
type Category string

const (
	CategoryCash               Category = "CASH"
	CategoryBank               Category = "BANK"
	CategoryCurrentAsset       Category = "CURRENT_ASSET"
	CategoryAccountsReceivable Category = "ACCOUNTS_RECEIVABLE"
	CategoryCurrentLiability   Category = "CURRENT_LIABILITY"
	CategoryAccountsPayable    Category = "ACCOUNTS_PAYABLE"
	CategoryEquity             Category = "EQUITY"
	CategoryRevenue            Category = "REVENUE"
	CategoryExpense            Category = "EXPENSE"
	CategoryHeader             Category = "HEADER"
)

func (c Category) IsValid() bool {
	switch c {
	case CategoryCash, CategoryBank, CategoryCurrentAsset, CategoryAccountsReceivable,
		CategoryCurrentLiability, CategoryAccountsPayable, CategoryEquity,
		CategoryRevenue, CategoryExpense, CategoryHeader:
		return true
	}
	return false
}

// IsPostable reports whether ledger entries may reference the category.
func (c Category) IsPostable() bool { return c.IsValid() && c != CategoryHeader }

func (c Category) IsAsset() bool {
	return c == CategoryCash || c == CategoryBank || c == CategoryCurrentAsset || c == CategoryAccountsReceivable
}

func (c Category) IsLiability() bool {
	return c == CategoryCurrentLiability || c == CategoryAccountsPayable
}

func (c Category) IsEquity() bool { return c == CategoryEquity }

// IsCashEquivalent reports whether money can be paid from or received into the category.
func (c Category) IsCashEquivalent() bool { return c == CategoryCash || c == CategoryBank }

func (c Category) IsBalanceSheet() bool { return c.IsAsset() || c.IsLiability() || c.IsEquity() }

// Account is a node of the chart of accounts. Balances are debit-positive:
// CurrentBalance always equals OpeningBalance plus the sum of debit minus credit
// over the account's live ledger entries.
type Account struct {
	ID                 int64           `json:"id"`
	Name               string          `json:"name"`
	Category           Category        `json:"category"`
	ParentID           *int64          `json:"parent_id,omitempty"`
	OpeningBalance     decimal.Decimal `json:"opening_balance"`
	OpeningBalanceDate time.Time       `json:"opening_balance_date"`
	CurrentBalance     decimal.Decimal `json:"current_balance"`
	CreatedAt          time.Time       `json:"created_at"`
	UpdatedAt          time.Time       `json:"updated_at"`
}

// NewAccount creates an account whose current balance starts at the opening balance
func NewAccount(name string, category Category, parentID *int64, opening decimal.Decimal, openingDate time.Time) (*Account, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrEmptyName
	}
	if !category.IsValid() {
		return nil, ErrInvalidCategory
	}
	if !opening.IsZero() && !category.IsBalanceSheet() {
		return nil, ErrOpeningBalanceNotAllow
	}

	now := time.Now().UTC()
	if openingDate.IsZero() {
		openingDate = now
	}

	return &Account{
		Name:               name,
		Category:           category,
		ParentID:           parentID,
		OpeningBalance:     opening,
		OpeningBalanceDate: openingDate,
		CurrentBalance:     opening,
		CreatedAt:          now,
		UpdatedAt:          now,
	}, nil
}

// ApplyDelta adds a signed debit-minus-credit amount to the current balance
func (a *Account) ApplyDelta(amount decimal.Decimal) {
	a.CurrentBalance = a.CurrentBalance.Add(amount)
	a.UpdatedAt = time.Now().UTC()
}

// NaturalBalance returns the balance signed the way the account is normally read:
// debit-positive for assets and expenses, credit-positive otherwise.
func (a *Account) NaturalBalance() decimal.Decimal {
	switch a.Category {
	case CategoryCurrentLiability, CategoryAccountsPayable, CategoryEquity, CategoryRevenue:
		return a.CurrentBalance.Neg()
	}
	return a.CurrentBalance
}
