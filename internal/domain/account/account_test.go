package account

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewAccount(t *testing.T) {
	t.Run("SuccessfulCreation", func(t *testing.T) {
		opening := decimal.NewFromInt(500)
		date := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

		acc, err := NewAccount("  Petty Cash ", CategoryCash, nil, opening, date)

		require.NoError(t, err)
		assert.Equal(t, "Petty Cash", acc.Name)
		assert.Equal(t, CategoryCash, acc.Category)
		assert.True(t, acc.CurrentBalance.Equal(opening), "current balance should start at the opening balance")
		assert.Equal(t, date, acc.OpeningBalanceDate)
		assert.False(t, acc.CreatedAt.IsZero())
	})

	t.Run("DefaultsOpeningDate", func(t *testing.T) {
		acc, err := NewAccount("Rent", CategoryExpense, nil, decimal.Zero, time.Time{})
		require.NoError(t, err)
		assert.False(t, acc.OpeningBalanceDate.IsZero())
	})

	tests := []struct {
		name     string
		accName  string
		category Category
		opening  decimal.Decimal
		wantErr  error
	}{
		{"EmptyName", " ", CategoryCash, decimal.Zero, ErrEmptyName},
		{"InvalidCategory", "Misc", Category("ASSET"), decimal.Zero, ErrInvalidCategory},
		{"OpeningOnRevenue", "Sales", CategoryRevenue, decimal.NewFromInt(1), ErrOpeningBalanceNotAllow},
		{"OpeningOnHeader", "Assets", CategoryHeader, decimal.NewFromInt(1), ErrOpeningBalanceNotAllow},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			acc, err := NewAccount(tt.accName, tt.category, nil, tt.opening, time.Time{})
			assert.Nil(t, acc)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestAccount_ApplyDelta(t *testing.T) {
	acc := &Account{ID: AccountsPayable, Category: CategoryAccountsPayable, CurrentBalance: decimal.Zero}

	acc.ApplyDelta(decimal.NewFromInt(-1000))
	acc.ApplyDelta(decimal.NewFromInt(400))

	assert.True(t, acc.CurrentBalance.Equal(decimal.NewFromInt(-600)))
	assert.True(t, acc.NaturalBalance().Equal(decimal.NewFromInt(600)), "payables read credit-positive")
}

func TestCategory_Classification(t *testing.T) {
	assert.True(t, CategoryBank.IsCashEquivalent())
	assert.False(t, CategoryCurrentAsset.IsCashEquivalent())
	assert.True(t, CategoryAccountsReceivable.IsAsset())
	assert.True(t, CategoryAccountsPayable.IsLiability())
	assert.False(t, CategoryHeader.IsPostable())
	assert.False(t, CategoryRevenue.IsBalanceSheet())
}

func TestErrAccountNotFound_Is(t *testing.T) {
	err := fmt.Errorf("wrap: %w", ErrAccountNotFound{AccountID: 42})

	assert.True(t, errors.Is(err, ErrAccountNotFound{}))
	assert.True(t, errors.Is(err, ErrAccountNotFound{AccountID: 42}))
	assert.False(t, errors.Is(err, ErrAccountNotFound{AccountID: 7}))
}

func TestDefaultChart(t *testing.T) {
	chart := DefaultChart()
	seen := make(map[int64]bool)
	for _, acc := range chart {
		if acc.ParentID != nil {
			assert.True(t, seen[*acc.ParentID], "parent %d must precede %d", *acc.ParentID, acc.ID)
		}
		seen[acc.ID] = true
	}

	sys := DefaultSystemAccounts()
	for _, id := range []int64{sys.Inventory, sys.AccountsReceivable, sys.AccountsPayable, sys.SalesRevenue,
		sys.SalesReturns, sys.InventoryGain, sys.CostOfGoodsSold, sys.InventoryLoss} {
		assert.True(t, seen[id], "system account %d must be seeded", id)
	}
}

func TestFilter_Matches(t *testing.T) {
	cash := &Account{Category: CategoryCash}
	assert.True(t, Filter{}.Matches(cash))
	assert.True(t, Filter{Categories: []Category{CategoryBank, CategoryCash}}.Matches(cash))
	assert.False(t, Filter{Categories: []Category{CategoryExpense}}.Matches(cash))
}
