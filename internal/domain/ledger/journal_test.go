package ledger

import (
	"testing"
	"time"

	"github.com/crop-trade-ledger/internal/domain/shared"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestNewJournal(t *testing.T) {
	date := time.Date(2024, 3, 5, 15, 30, 0, 0, time.UTC)

	t.Run("balanced", func(t *testing.T) {
		j, err := NewJournal("PUR-1", date, SourceTypePurchase, 1, []Line{
			Debit(10103, d("1000"), "stock"),
			Credit(20101, d("1000"), "payable"),
		})
		require.NoError(t, err)
		assert.Equal(t, time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC), j.Date)
		debit, credit := j.Totals()
		assert.True(t, debit.Equal(credit))
	})

	t.Run("within epsilon", func(t *testing.T) {
		_, err := NewJournal("MAN-1", date, SourceTypeManual, 1, []Line{
			Debit(1, d("0.1000000000001"), ""),
			Credit(2, d("0.1"), ""),
		})
		assert.NoError(t, err)
	})

	t.Run("unbalanced", func(t *testing.T) {
		_, err := NewJournal("SAL-1", date, SourceTypeSale, 1, []Line{
			Debit(10104, d("600"), ""),
			Credit(40101, d("599.99"), ""),
		})
		var unbalanced ErrUnbalancedPosting
		require.ErrorAs(t, err, &unbalanced)
		assert.Equal(t, "SAL-1", unbalanced.Ref)
		assert.True(t, unbalanced.Debit.Equal(d("600")))
	})

	invalid := []struct {
		name   string
		ref    string
		source SourceType
		lines  []Line
	}{
		{"empty ref", " ", SourceTypeManual, []Line{Debit(1, d("1"), ""), Credit(2, d("1"), "")}},
		{"bad source", "X-1", SourceType("TRANSFER"), []Line{Debit(1, d("1"), ""), Credit(2, d("1"), "")}},
		{"no lines", "X-1", SourceTypeManual, nil},
		{"negative debit", "X-1", SourceTypeManual, []Line{{AccountID: 1, Debit: d("-1"), Credit: decimal.Zero}, {AccountID: 2, Debit: d("-1"), Credit: decimal.Zero}}},
		{"missing account", "X-1", SourceTypeManual, []Line{Debit(0, d("1"), ""), Credit(2, d("1"), "")}},
	}
	for _, tt := range invalid {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewJournal(tt.ref, date, tt.source, 1, tt.lines)
			var verr shared.ValidationError
			assert.ErrorAs(t, err, &verr)
		})
	}
}

func TestJournal_Deltas(t *testing.T) {
	j, err := NewJournal("SAL-7", time.Now(), SourceTypeSale, 7, []Line{
		Debit(10104, d("600"), ""),
		Credit(40101, d("600"), ""),
		Debit(50101, d("400"), ""),
		Credit(10103, d("400"), ""),
		Debit(10101, d("600"), ""),
		Credit(10104, d("600"), ""),
	})
	require.NoError(t, err)

	deltas := j.Deltas()
	require.Len(t, deltas, 5)
	assert.Equal(t, []int64{10101, 10103, 10104, 40101, 50101}, j.AccountIDs())

	byAccount := make(map[int64]decimal.Decimal)
	for _, delta := range deltas {
		byAccount[delta.AccountID] = delta.Amount
	}
	assert.True(t, byAccount[10104].IsZero(), "receivable fully settled")
	assert.True(t, byAccount[10101].Equal(d("600")))
	assert.True(t, byAccount[40101].Equal(d("-600")))
	assert.True(t, byAccount[10103].Equal(d("-400")))
}

func TestNewReversal(t *testing.T) {
	originals := []*Entry{
		{TransactionRef: "PUR-3", AccountID: 10103, Debit: d("250"), Credit: decimal.Zero, SourceType: SourceTypePurchase, SourceID: 3},
		{TransactionRef: "PUR-3", AccountID: 20101, Debit: decimal.Zero, Credit: d("250"), SourceType: SourceTypePurchase, SourceID: 3},
	}

	t.Run("swaps sides", func(t *testing.T) {
		j, err := NewReversal("PUR-3", originals, time.Now())
		require.NoError(t, err)
		assert.Equal(t, "REV-PUR-3", j.Ref)
		assert.Equal(t, "PUR-3", j.ReversalOf)
		assert.Equal(t, SourceTypePurchase, j.SourceType)
		assert.True(t, j.Lines[0].Credit.Equal(d("250")))
		assert.True(t, j.Lines[1].Debit.Equal(d("250")))

		for _, e := range j.Entries(time.Now()) {
			assert.True(t, e.Deleted, "reversing rows are stored voided")
			assert.Equal(t, "PUR-3", e.ReversalOf)
		}
	})

	t.Run("not found", func(t *testing.T) {
		_, err := NewReversal("PUR-404", nil, time.Now())
		assert.ErrorIs(t, err, ErrReferenceNotFound{Ref: "PUR-404"})
	})

	t.Run("already reversed", func(t *testing.T) {
		voided := []*Entry{{TransactionRef: "PUR-3", AccountID: 10103, Debit: d("1"), Credit: decimal.Zero, Deleted: true}}
		_, err := NewReversal("PUR-3", voided, time.Now())
		assert.ErrorIs(t, err, ErrAlreadyReversed{Ref: "PUR-3"})
	})

	t.Run("reversal of reversal", func(t *testing.T) {
		_, err := NewReversal("REV-PUR-3", originals, time.Now())
		var verr shared.ValidationError
		assert.ErrorAs(t, err, &verr)
	})
}

func TestRange_Contains(t *testing.T) {
	from := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC)
	r := Range{From: &from, To: &to}

	assert.True(t, r.Contains(time.Date(2024, 1, 31, 23, 59, 0, 0, time.UTC)))
	assert.False(t, r.Contains(time.Date(2023, 12, 31, 12, 0, 0, 0, time.UTC)))
	assert.False(t, r.Contains(time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)))
	assert.True(t, Range{}.Contains(time.Now()))
}
