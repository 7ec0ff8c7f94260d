package account

import (
	"context"
	"strconv"

	"github.com/shopspring/decimal"
)

// Filter narrows List results; an empty filter returns every account
type Filter struct {
	Categories []Category
}

// Matches reports whether acc passes the filter.
func (f Filter) Matches(acc *Account) bool {
	if len(f.Categories) == 0 {
		return true
	}
	for _, c := range f.Categories {
		if acc.Category == c {
			return true
		}
	}
	return false
}

// Repository defines account persistence operations
type Repository interface {
	// Create assigns a new id when acc.ID is zero
	Create(ctx context.Context, acc *Account) error
	// CreateIfNotExists inserts acc with its explicit id unless the id is taken
	CreateIfNotExists(ctx context.Context, acc *Account) (bool, error)
	GetByID(ctx context.Context, id int64) (*Account, error)
	List(ctx context.Context, filter Filter) ([]*Account, error)

	// ApplyDelta adds a signed amount to current_balance. Only called inside a posting unit of work.
	ApplyDelta(ctx context.Context, id int64, amount decimal.Decimal) error
	// ApplyOpeningDelta moves opening and current balance together
	ApplyOpeningDelta(ctx context.Context, id int64, amount decimal.Decimal) error

	HasActivity(ctx context.Context, id int64) (bool, error)
	Delete(ctx context.Context, id int64) error
}

// ErrAccountNotFound indicates an unknown account id
type ErrAccountNotFound struct {
	AccountID int64
}

func (e ErrAccountNotFound) Error() string {
	return "account not found: " + strconv.FormatInt(e.AccountID, 10)
}

// Is matches any ErrAccountNotFound when the target id is zero
func (e ErrAccountNotFound) Is(target error) bool {
	t, ok := target.(ErrAccountNotFound)
	if !ok {
		return false
	}
	return t.AccountID == 0 || t.AccountID == e.AccountID
}

// ErrHasActivity indicates an account cannot be deleted because entries reference it
type ErrHasActivity struct {
	AccountID int64
}

func (e ErrHasActivity) Error() string {
	return "account has ledger activity: " + strconv.FormatInt(e.AccountID, 10)
}

// ErrNotPostable indicates an attempt to post against a header account
type ErrNotPostable struct {
	AccountID int64
}

func (e ErrNotPostable) Error() string {
	return "account is a header and cannot be posted to: " + strconv.FormatInt(e.AccountID, 10)
}
