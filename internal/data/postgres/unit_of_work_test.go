package postgres

import (
	"context"
	"errors"
	"testing"

	"github.com/crop-trade-ledger/internal/domain/unitofwork"
	"github.com/crop-trade-ledger/internal/platform/persistence"
	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockUnitOfWork(t *testing.T) (*UnitOfWork, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)

	logger := newTestLogger()
	return NewUnitOfWork(logger, persistence.NewPostgresDBFromPool(mock, logger)), mock
}

func TestUnitOfWork_DoCommits(t *testing.T) {
	uow, mock := newMockUnitOfWork(t)

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE accounts SET current_balance`).
		WithArgs(decimalArg{dec("100")}, int64(10101)).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectExec(`UPDATE accounts SET current_balance`).
		WithArgs(decimalArg{dec("-100")}, int64(30101)).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectCommit()

	err := uow.Do(context.Background(), func(ctx context.Context, s unitofwork.Store) error {
		if err := s.Accounts().ApplyDelta(ctx, 10101, dec("100")); err != nil {
			return err
		}
		return s.Accounts().ApplyDelta(ctx, 30101, dec("-100"))
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUnitOfWork_DoRollsBackOnError(t *testing.T) {
	uow, mock := newMockUnitOfWork(t)
	injected := errors.New("inventory write failed")

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE accounts SET current_balance`).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectRollback()

	err := uow.Do(context.Background(), func(ctx context.Context, s unitofwork.Store) error {
		if err := s.Accounts().ApplyDelta(ctx, 10101, dec("100")); err != nil {
			return err
		}
		return injected
	})
	assert.ErrorIs(t, err, injected)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUnitOfWork_ReadUsesSnapshot(t *testing.T) {
	uow, mock := newMockUnitOfWork(t)

	mock.ExpectBeginTx(pgx.TxOptions{IsoLevel: pgx.RepeatableRead, AccessMode: pgx.ReadOnly})
	mock.ExpectQuery(`FROM contacts ORDER BY id`).
		WillReturnRows(pgxmock.NewRows([]string{"id", "name", "phone", "is_supplier", "is_customer", "created_at"}))
	mock.ExpectCommit()

	err := uow.Read(context.Background(), func(ctx context.Context, s unitofwork.Store) error {
		_, err := s.Contacts().List(ctx)
		return err
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
