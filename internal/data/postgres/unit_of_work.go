package postgres

import (
	"context"
	"log/slog"

	"github.com/crop-trade-ledger/internal/domain/account"
	"github.com/crop-trade-ledger/internal/domain/audit"
	"github.com/crop-trade-ledger/internal/domain/business"
	"github.com/crop-trade-ledger/internal/domain/contact"
	"github.com/crop-trade-ledger/internal/domain/inventory"
	"github.com/crop-trade-ledger/internal/domain/ledger"
	"github.com/crop-trade-ledger/internal/domain/outbox"
	"github.com/crop-trade-ledger/internal/domain/season"
	"github.com/crop-trade-ledger/internal/domain/unitofwork"
	"github.com/crop-trade-ledger/internal/platform/persistence"
	"github.com/jackc/pgx/v5"
)

// txRunner is the part of PostgresDB the unit of work needs
type txRunner interface {
	ExecuteTx(ctx context.Context, fn func(tx pgx.Tx) error) error
	ExecuteReadTx(ctx context.Context, fn func(tx pgx.Tx) error) error
}

// UnitOfWork binds every repository to a single pgx transaction per call
type UnitOfWork struct {
	db        txRunner
	accounts  *AccountRepository
	entries   *LedgerRepository
	inventory *InventoryRepository
	contacts  *ContactRepository
	records   *BusinessRepository
	seasons   *SeasonRepository
	audit     *AuditRepository
	outbox    *OutboxRepository
	requests  *RequestLog
}

func NewUnitOfWork(logger *slog.Logger, db *persistence.PostgresDB) *UnitOfWork {
	return &UnitOfWork{
		db:        db,
		accounts:  NewAccountRepository(logger, db),
		entries:   NewLedgerRepository(logger, db),
		inventory: NewInventoryRepository(logger, db),
		contacts:  NewContactRepository(logger, db),
		records:   NewBusinessRepository(logger, db),
		seasons:   NewSeasonRepository(logger, db),
		audit:     NewAuditRepository(logger, db),
		outbox:    NewOutboxRepository(logger, db),
		requests:  NewRequestLog(logger, db),
	}
}

// Do runs fn inside one read-write transaction
func (u *UnitOfWork) Do(ctx context.Context, fn func(ctx context.Context, s unitofwork.Store) error) error {
	return u.db.ExecuteTx(ctx, func(tx pgx.Tx) error {
		return fn(ctx, u.bind(tx))
	})
}

// Read runs fn on a repeatable-read snapshot
func (u *UnitOfWork) Read(ctx context.Context, fn func(ctx context.Context, s unitofwork.Store) error) error {
	return u.db.ExecuteReadTx(ctx, func(tx pgx.Tx) error {
		return fn(ctx, u.bind(tx))
	})
}

func (u *UnitOfWork) bind(tx pgx.Tx) *txStore {
	return &txStore{
		accounts:  u.accounts.WithTx(tx),
		entries:   u.entries.WithTx(tx),
		inventory: u.inventory.WithTx(tx),
		contacts:  u.contacts.WithTx(tx),
		records:   u.records.WithTx(tx),
		seasons:   u.seasons.WithTx(tx),
		audit:     u.audit.WithTx(tx),
		outbox:    u.outbox.WithTx(tx),
		requests:  u.requests.WithTx(tx),
	}
}

type txStore struct {
	accounts  *AccountRepository
	entries   *LedgerRepository
	inventory *InventoryRepository
	contacts  *ContactRepository
	records   *BusinessRepository
	seasons   *SeasonRepository
	audit     *AuditRepository
	outbox    *OutboxRepository
	requests  *RequestLog
}

func (s *txStore) Accounts() account.Repository    { return s.accounts }
func (s *txStore) Ledger() ledger.Repository       { return s.entries }
func (s *txStore) Inventory() inventory.Repository { return s.inventory }
func (s *txStore) Contacts() contact.Repository    { return s.contacts }
func (s *txStore) Records() business.Repository    { return s.records }
func (s *txStore) Seasons() season.Repository      { return s.seasons }
func (s *txStore) Audit() audit.Repository         { return s.audit }
func (s *txStore) Outbox() outbox.Repository       { return s.outbox }
func (s *txStore) Requests() unitofwork.RequestLog { return s.requests }

var _ unitofwork.UnitOfWork = (*UnitOfWork)(nil)
