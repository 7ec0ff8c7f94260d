package ledger

import (
	"sort"
	"strings"
	"time"

	"github.com/crop-trade-ledger/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// ReversalPrefix starts the transaction ref of every reversing journal
const ReversalPrefix = "REV-"

// Journal is a balanced set of lines sharing one transaction ref and date
type Journal struct {
	Ref        string
	Date       time.Time
	SourceType SourceType
	SourceID   int64
	ReversalOf string
	Lines      []Line
}

// NewJournal validates the lines and returns a journal ready to be stored.
// An unbalanced set fails with ErrUnbalancedPosting.
func NewJournal(ref string, date time.Time, source SourceType, sourceID int64, lines []Line) (*Journal, error) {
	if strings.TrimSpace(ref) == "" {
		return nil, shared.NewValidationError("transaction_ref", "is required")
	}
	if !source.IsValid() {
		return nil, shared.NewValidationError("source_type", "unknown source type "+string(source))
	}
	if len(lines) == 0 {
		return nil, shared.NewValidationError("entries", "at least one entry is required")
	}
	for _, l := range lines {
		if l.Debit.IsNegative() || l.Credit.IsNegative() {
			return nil, shared.NewValidationError("entries", "debit and credit must not be negative")
		}
		if l.AccountID <= 0 {
			return nil, shared.NewValidationError("account_id", "must be positive")
		}
	}

	j := &Journal{
		Ref:        ref,
		Date:       DateOf(date),
		SourceType: source,
		SourceID:   sourceID,
		Lines:      lines,
	}
	debit, credit := j.Totals()
	if !shared.NearlyEqual(debit, credit) {
		return nil, ErrUnbalancedPosting{Ref: ref, Debit: debit, Credit: credit}
	}
	return j, nil
}

// Totals returns the sum of debits and the sum of credits
func (j *Journal) Totals() (decimal.Decimal, decimal.Decimal) {
	debit, credit := decimal.Zero, decimal.Zero
	for _, l := range j.Lines {
		debit = debit.Add(l.Debit)
		credit = credit.Add(l.Credit)
	}
	return debit, credit
}

// Deltas returns the debit-minus-credit change per account, ordered by account id
// so balance updates always lock rows in the same order.
func (j *Journal) Deltas() []AccountDelta {
	sums := make(map[int64]decimal.Decimal)
	for _, l := range j.Lines {
		sums[l.AccountID] = sums[l.AccountID].Add(l.Debit).Sub(l.Credit)
	}
	deltas := make([]AccountDelta, 0, len(sums))
	for id, amount := range sums {
		deltas = append(deltas, AccountDelta{AccountID: id, Amount: amount})
	}
	sort.Slice(deltas, func(i, k int) bool { return deltas[i].AccountID < deltas[k].AccountID })
	return deltas
}

// AccountIDs returns the distinct accounts touched, ascending
func (j *Journal) AccountIDs() []int64 {
	deltas := j.Deltas()
	ids := make([]int64, len(deltas))
	for i, d := range deltas {
		ids[i] = d.AccountID
	}
	return ids
}

// Entries materialises the lines as entries. Reversing journals are stored already voided.
func (j *Journal) Entries(now time.Time) []*Entry {
	entries := make([]*Entry, len(j.Lines))
	for i, l := range j.Lines {
		entries[i] = &Entry{
			TransactionRef: j.Ref,
			EntryDate:      j.Date,
			AccountID:      l.AccountID,
			Debit:          l.Debit,
			Credit:         l.Credit,
			Description:    l.Description,
			SourceType:     j.SourceType,
			SourceID:       j.SourceID,
			ReversalOf:     j.ReversalOf,
			Deleted:        j.ReversalOf != "",
			CreatedAt:      now,
		}
	}
	return entries
}

// AccountDelta is a signed balance change for one account
type AccountDelta struct {
	AccountID int64
	Amount    decimal.Decimal
}

// NewReversal builds the journal that voids the entries of ref by swapping debit and credit.
func NewReversal(ref string, originals []*Entry, date time.Time) (*Journal, error) {
	if len(originals) == 0 {
		return nil, ErrReferenceNotFound{Ref: ref}
	}
	if strings.HasPrefix(ref, ReversalPrefix) {
		return nil, shared.NewValidationError("transaction_ref", "a reversal cannot itself be reversed")
	}

	lines := make([]Line, 0, len(originals))
	for _, e := range originals {
		if e.Deleted {
			return nil, ErrAlreadyReversed{Ref: ref}
		}
		lines = append(lines, Line{
			AccountID:   e.AccountID,
			Debit:       e.Credit,
			Credit:      e.Debit,
			Description: "Reversal of " + ref,
		})
	}

	j, err := NewJournal(ReversalPrefix+ref, date, originals[0].SourceType, originals[0].SourceID, lines)
	if err != nil {
		return nil, err
	}
	j.ReversalOf = ref
	return j, nil
}
