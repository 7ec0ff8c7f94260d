package ledger

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
)

// Repository manages ledger entry persistence
type Repository interface {
	// Insert stores every entry and assigns their ids
	Insert(ctx context.Context, entries []*Entry) error
	// EntriesForRef returns all entries of ref, voided ones included
	EntriesForRef(ctx context.Context, ref string) ([]*Entry, error)
	// EntriesForAccount returns live entries ordered by date then id
	EntriesForAccount(ctx context.Context, accountID int64, r Range) ([]*Entry, error)
	// MarkDeleted voids every entry of ref
	MarkDeleted(ctx context.Context, ref string) error
	// Activity sums live entries per account inside r
	Activity(ctx context.Context, r Range) ([]AccountActivity, error)
}

// ErrUnbalancedPosting indicates a posting formula produced debits that differ from credits.
// It is a defect, never a user error.
type ErrUnbalancedPosting struct {
	Ref    string
	Debit  decimal.Decimal
	Credit decimal.Decimal
}

func (e ErrUnbalancedPosting) Error() string {
	return fmt.Sprintf("unbalanced posting %s: debit %s credit %s", e.Ref, e.Debit.String(), e.Credit.String())
}

// ErrReferenceNotFound indicates no entries exist for a transaction ref
type ErrReferenceNotFound struct {
	Ref string
}

func (e ErrReferenceNotFound) Error() string {
	return "ledger reference not found: " + e.Ref
}

// ErrAlreadyReversed indicates the entries of a ref are already voided
type ErrAlreadyReversed struct {
	Ref string
}

func (e ErrAlreadyReversed) Error() string {
	return "ledger reference already reversed: " + e.Ref
}
