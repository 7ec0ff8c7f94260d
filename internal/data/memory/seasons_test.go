package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crop-trade-ledger/internal/domain/business"
	"github.com/crop-trade-ledger/internal/domain/ledger"
	"github.com/crop-trade-ledger/internal/domain/season"
)

func TestSeasonRepo_SingleActive(t *testing.T) {
	repo := seasonRepo{newState()}
	ctx := context.Background()
	start := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	first := &season.Season{Name: "A", StartDate: start, EndDate: start.AddDate(0, 3, 0), Status: season.StatusActive}
	require.NoError(t, repo.Create(ctx, first))
	second := &season.Season{Name: "B", StartDate: start.AddDate(0, 4, 0), EndDate: start.AddDate(0, 7, 0), Status: season.StatusUpcoming}
	require.NoError(t, repo.Create(ctx, second))

	second.Status = season.StatusActive
	assert.ErrorIs(t, repo.Update(ctx, second), season.ErrActiveSeasonExists{ActiveID: first.ID})

	first.Status = season.StatusCompleted
	require.NoError(t, repo.Update(ctx, first))
	require.NoError(t, repo.Update(ctx, second))

	active, err := repo.GetActive(ctx)
	require.NoError(t, err)
	assert.Equal(t, second.ID, active.ID)

	list, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, second.ID, list[0].ID)

	require.NoError(t, repo.Delete(ctx, second.ID))
	_, err = repo.GetActive(ctx)
	assert.ErrorIs(t, err, season.ErrNoActiveSeason)
	assert.ErrorIs(t, repo.Delete(ctx, second.ID), season.ErrSeasonNotFound{SeasonID: second.ID})
}

func TestRecordRepo_SeasonFigures(t *testing.T) {
	st := newState()
	records, seasons := recordRepo{st}, seasonRepo{st}
	ctx := context.Background()
	at := time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)
	tag := int64(1)

	require.NoError(t, records.CreatePurchase(ctx, &business.Purchase{ItemID: 1, Quantity: dec("100"), Total: dec("1000"), PurchaseDate: at, SeasonID: &tag}))
	require.NoError(t, records.CreatePurchase(ctx, &business.Purchase{ItemID: 1, Quantity: dec("10"), Total: dec("90"), PurchaseDate: at}))

	sales := []*business.Sale{
		{ItemID: 1, Quantity: dec("40"), Total: dec("600"), UnitCost: dec("10"), COGS: dec("400"), SaleDate: at, SeasonID: &tag},
		{ItemID: 2, Quantity: dec("5"), Total: dec("50"), UnitCost: dec("4"), COGS: dec("20"), SaleDate: at, SeasonID: &tag},
		{ItemID: 1, Quantity: dec("10"), Total: dec("200"), UnitCost: dec("10"), COGS: dec("100"), SaleDate: at},
		{ItemID: 2, Quantity: dec("1"), Total: dec("9"), UnitCost: dec("4"), COGS: dec("4"), SaleDate: at, SeasonID: &tag},
	}
	for _, s := range sales {
		require.NoError(t, records.CreateSale(ctx, s))
	}
	require.NoError(t, records.MarkReversed(ctx, ledger.SourceTypeSale, sales[3].ID, at))

	for _, ret := range []*business.Return{
		{Kind: business.ReturnKindSale, OriginalID: sales[0].ID, ItemID: 1, Quantity: dec("4"), Amount: dec("60"), Cost: dec("40"), ReturnDate: at},
		{Kind: business.ReturnKindPurchase, OriginalID: 1, ItemID: 1, Quantity: dec("10"), Amount: dec("100"), Cost: dec("100"), ReturnDate: at},
		{Kind: business.ReturnKindSale, OriginalID: sales[0].ID, ItemID: 1, Quantity: dec("1"), Amount: dec("15"), Cost: dec("10"), ReturnDate: at},
	} {
		require.NoError(t, records.CreateReturn(ctx, ret))
	}
	require.NoError(t, records.MarkReversed(ctx, ledger.SourceTypeReturn, 3, at))

	require.NoError(t, records.CreateExpense(ctx, &business.Expense{Amount: dec("25"), ExpenseDate: at, SeasonID: &tag}))

	totals, err := records.SeasonTotals(ctx, tag)
	require.NoError(t, err)
	assert.True(t, totals.Revenue.Equal(dec("590")), totals.Revenue.String())
	assert.True(t, totals.COGS.Equal(dec("380")), totals.COGS.String())
	assert.True(t, totals.PurchaseCost.Equal(dec("900")), totals.PurchaseCost.String())
	assert.True(t, totals.Expenses.Equal(dec("25")))

	tagged, err := records.ItemSales(ctx, &tag)
	require.NoError(t, err)
	require.Len(t, tagged, 2)
	assert.Equal(t, int64(1), tagged[0].ItemID)
	assert.True(t, tagged[0].Quantity.Equal(dec("36")))
	assert.True(t, tagged[0].Revenue.Equal(dec("540")))
	assert.True(t, tagged[1].COGS.Equal(dec("20")))

	all, err := records.ItemSales(ctx, nil)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.True(t, all[0].Quantity.Equal(dec("46")))
	assert.True(t, all[0].COGS.Equal(dec("460")))

	used, err := seasons.InUse(ctx, tag)
	require.NoError(t, err)
	assert.True(t, used)
	used, err = seasons.InUse(ctx, 2)
	require.NoError(t, err)
	assert.False(t, used)
}
