//go:build integration

package postgres

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"runtime"
	"sync"
	"testing"
	"time"

	"github.com/crop-trade-ledger/internal/config"
	"github.com/crop-trade-ledger/internal/domain/ledger"
	"github.com/crop-trade-ledger/internal/domain/season"
	"github.com/crop-trade-ledger/internal/platform/persistence"
	"github.com/crop-trade-ledger/internal/posting"
	"github.com/crop-trade-ledger/internal/registry"
	"github.com/crop-trade-ledger/internal/reporting"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

func migrationsDir(t *testing.T) string {
	t.Helper()
	_, filename, _, ok := runtime.Caller(0)
	require.True(t, ok, "failed to get current file path")
	return filepath.Join(filepath.Dir(filename), "..", "..", "..", "migrations", "postgres")
}

// startDatabase runs a throwaway PostgreSQL and returns a migrated connection to it
func startDatabase(t *testing.T) *persistence.PostgresDB {
	t.Helper()
	ctx := context.Background()

	container, err := tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("ledger_test"),
		tcpostgres.WithUsername("test"),
		tcpostgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(120*time.Second),
		),
	)
	require.NoError(t, err, "failed to start postgres container")
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	connStr, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	db, err := persistence.NewPostgresDB(ctx, slog.New(slog.NewTextHandler(io.Discard, nil)), &config.PostgresConfig{
		URL:            connStr,
		MaxConns:       10,
		MinConns:       1,
		MigrationsPath: migrationsDir(t),
	})
	require.NoError(t, err)
	t.Cleanup(db.Close)
	return db
}

func TestIntegration_PostingOverPostgres(t *testing.T) {
	if testing.Short() {
		t.Skip("integration test")
	}

	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	uow := NewUnitOfWork(logger, startDatabase(t))

	reg := registry.NewService(uow, logger)
	seeded, err := reg.SeedChart(ctx)
	require.NoError(t, err)
	assert.Positive(t, seeded)

	again, err := reg.SeedChart(ctx)
	require.NoError(t, err)
	assert.Zero(t, again, "seeding twice creates nothing")

	item, err := reg.CreateItem(ctx, "Sorghum", "kg")
	require.NoError(t, err)
	supplier, err := reg.CreateContact(ctx, registry.CreateContactCommand{Name: "Valley Growers", IsSupplier: true, IsCustomer: true})
	require.NoError(t, err)

	orch := posting.NewOrchestrator(uow, logger)
	reports := reporting.NewService(uow, nil, logger)

	t.Run("PurchaseAndSaleBalance", func(t *testing.T) {
		purchase, err := orch.PostPurchase(ctx, posting.PurchaseCommand{
			ContactID: supplier.ID,
			ItemID:    item.ID,
			Quantity:  decimal.NewFromInt(100),
			UnitPrice: decimal.NewFromInt(8),
		})
		require.NoError(t, err)
		assert.Equal(t, "PUR-1", purchase.TransactionRef())

		_, err = orch.PostPurchase(ctx, posting.PurchaseCommand{
			ContactID: supplier.ID,
			ItemID:    item.ID,
			Quantity:  decimal.NewFromInt(100),
			UnitPrice: decimal.NewFromInt(12),
		})
		require.NoError(t, err)

		pos, err := reports.Position(ctx, item.ID)
		require.NoError(t, err)
		assert.True(t, pos.Quantity.Equal(decimal.NewFromInt(200)))
		assert.True(t, pos.AverageCost.Equal(decimal.NewFromInt(10)), "got %s", pos.AverageCost)

		sale, err := orch.PostSale(ctx, posting.SaleCommand{
			ContactID: supplier.ID,
			ItemID:    item.ID,
			Quantity:  decimal.NewFromInt(50),
			UnitPrice: decimal.NewFromInt(15),
		})
		require.NoError(t, err)

		entries, err := reports.EntriesForRef(ctx, sale.TransactionRef())
		require.NoError(t, err)
		debit, credit := decimal.Zero, decimal.Zero
		for _, e := range entries {
			debit = debit.Add(e.Debit)
			credit = credit.Add(e.Credit)
		}
		assert.True(t, debit.Equal(credit))
		assert.True(t, debit.Equal(decimal.NewFromInt(1250)), "revenue 750 plus cost 500, got %s", debit)

		tb, err := reports.TrialBalance(ctx, time.Time{})
		require.NoError(t, err)
		assert.True(t, tb.Balanced)

		valuation, err := reports.InventoryValuation(ctx)
		require.NoError(t, err)
		assert.True(t, valuation.Reconciled)
		assert.True(t, valuation.TotalValue.Equal(decimal.NewFromInt(1500)))
	})

	t.Run("ConcurrentSalesNeverOversell", func(t *testing.T) {
		before, err := reports.Position(ctx, item.ID)
		require.NoError(t, err)

		const workers = 8
		qty := before.Quantity.Div(decimal.NewFromInt(workers - 2)).Floor()
		require.True(t, qty.IsPositive())

		var (
			wg        sync.WaitGroup
			mu        sync.Mutex
			succeeded int
			refused   int
		)
		for i := 0; i < workers; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := orch.PostSale(ctx, posting.SaleCommand{
					ContactID: supplier.ID,
					ItemID:    item.ID,
					Quantity:  qty,
					UnitPrice: decimal.NewFromInt(15),
				})
				mu.Lock()
				defer mu.Unlock()
				if err == nil {
					succeeded++
				} else if posting.ErrorCode(err) == posting.CodeInsufficientStock {
					refused++
				}
			}()
		}
		wg.Wait()

		assert.Equal(t, workers, succeeded+refused)
		assert.Positive(t, refused)

		after, err := reports.Position(ctx, item.ID)
		require.NoError(t, err)
		assert.False(t, after.Quantity.IsNegative())
		assert.True(t, after.Quantity.Equal(before.Quantity.Sub(qty.Mul(decimal.NewFromInt(int64(succeeded))))))
	})

	t.Run("ReversalVoidsEntries", func(t *testing.T) {
		purchase, err := orch.PostPurchase(ctx, posting.PurchaseCommand{
			ContactID: supplier.ID,
			ItemID:    item.ID,
			Quantity:  decimal.NewFromInt(10),
			UnitPrice: decimal.NewFromInt(10),
		})
		require.NoError(t, err)

		rev, err := orch.Reverse(ctx, posting.ReversalCommand{SourceType: ledger.SourceTypePurchase, SourceID: purchase.ID})
		require.NoError(t, err)
		assert.Equal(t, purchase.TransactionRef(), rev.TransactionRef)

		_, err = orch.Reverse(ctx, posting.ReversalCommand{SourceType: ledger.SourceTypePurchase, SourceID: purchase.ID})
		assert.Equal(t, posting.CodeAlreadyReversed, posting.ErrorCode(err))

		tb, err := reports.TrialBalance(ctx, time.Time{})
		require.NoError(t, err)
		assert.True(t, tb.Balanced)
	})

	t.Run("SeasonTagsAndSingleActive", func(t *testing.T) {
		today := time.Now().UTC()
		sn, err := reg.CreateSeason(ctx, registry.SeasonCommand{Name: "Current", StartDate: today.AddDate(0, 0, -7), EndDate: today.AddDate(0, 0, 7), Status: season.StatusActive})
		require.NoError(t, err)

		_, err = reg.CreateSeason(ctx, registry.SeasonCommand{Name: "Next", StartDate: today.AddDate(0, 1, 0), EndDate: today.AddDate(0, 2, 0), Status: season.StatusActive})
		var conflict season.ErrActiveSeasonExists
		assert.ErrorAs(t, err, &conflict)

		purchase, err := orch.PostPurchase(ctx, posting.PurchaseCommand{
			ContactID: supplier.ID,
			ItemID:    item.ID,
			Quantity:  decimal.NewFromInt(5),
			UnitPrice: decimal.NewFromInt(10),
		})
		require.NoError(t, err)
		require.NotNil(t, purchase.SeasonID)
		assert.Equal(t, sn.ID, *purchase.SeasonID)

		perf, err := reports.SeasonPerformance(ctx, sn.ID)
		require.NoError(t, err)
		assert.True(t, perf.PurchaseCost.Equal(decimal.NewFromInt(50)), "got %s", perf.PurchaseCost)

		err = reg.DeleteSeason(ctx, sn.ID)
		assert.Equal(t, posting.CodeSeasonConflict, posting.ErrorCode(err))
	})
}
