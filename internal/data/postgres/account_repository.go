// Package postgres provides PostgreSQL implementations of the domain repositories.
// Every repository can be rebound to a transaction so the posting unit of work
// writes records, entries, balances and stock in one commit.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/crop-trade-ledger/internal/domain/account"
	"github.com/crop-trade-ledger/internal/platform/persistence"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// AccountRepository implements the account.Repository interface for PostgreSQL
type AccountRepository struct {
	querier persistence.Querier // Can be *pgxpool.Pool or pgx.Tx
	logger  *slog.Logger
}

// NewAccountRepository creates a new PostgreSQL account repository.
func NewAccountRepository(logger *slog.Logger, db *persistence.PostgresDB) *AccountRepository {
	return &AccountRepository{
		querier: db.Pool(),
		logger:  logger,
	}
}

// WithTx returns a copy of the repository bound to tx.
func (r *AccountRepository) WithTx(tx pgx.Tx) *AccountRepository {
	return &AccountRepository{
		querier: tx,
		logger:  r.logger,
	}
}

const accountColumns = `id, name, category, parent_id, opening_balance, opening_balance_date, current_balance, created_at, updated_at`

func scanAccount(row pgx.Row) (*account.Account, error) {
	var acc account.Account
	err := row.Scan(
		&acc.ID,
		&acc.Name,
		&acc.Category,
		&acc.ParentID,
		&acc.OpeningBalance,
		&acc.OpeningBalanceDate,
		&acc.CurrentBalance,
		&acc.CreatedAt,
		&acc.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &acc, nil
}

// Create stores a new account and assigns its id from the accounts sequence.
func (r *AccountRepository) Create(ctx context.Context, acc *account.Account) error {
	query := `
		INSERT INTO accounts (name, category, parent_id, opening_balance, opening_balance_date, current_balance, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id
	`

	err := r.querier.QueryRow(ctx, query,
		acc.Name,
		acc.Category,
		acc.ParentID,
		acc.OpeningBalance,
		acc.OpeningBalanceDate,
		acc.CurrentBalance,
		acc.CreatedAt,
		acc.UpdatedAt,
	).Scan(&acc.ID)
	if err != nil {
		r.logger.Error("Failed to create account", "name", acc.Name, "error", err)
		return fmt.Errorf("failed to create account: %w", err)
	}

	return nil
}

// CreateIfNotExists inserts a seeded account under its fixed id.
func (r *AccountRepository) CreateIfNotExists(ctx context.Context, acc *account.Account) (bool, error) {
	query := `
		INSERT INTO accounts (id, name, category, parent_id, opening_balance, opening_balance_date, current_balance, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id) DO NOTHING
	`

	tag, err := r.querier.Exec(ctx, query,
		acc.ID,
		acc.Name,
		acc.Category,
		acc.ParentID,
		acc.OpeningBalance,
		acc.OpeningBalanceDate,
		acc.CurrentBalance,
		acc.CreatedAt,
		acc.UpdatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to seed account", "account_id", acc.ID, "error", err)
		return false, fmt.Errorf("failed to seed account: %w", err)
	}

	return tag.RowsAffected() == 1, nil
}

// GetByID retrieves an account by its ID
func (r *AccountRepository) GetByID(ctx context.Context, id int64) (*account.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE id = $1`

	acc, err := scanAccount(r.querier.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, account.ErrAccountNotFound{AccountID: id}
		}
		r.logger.Error("Failed to get account", "account_id", id, "error", err)
		return nil, fmt.Errorf("failed to get account: %w", err)
	}

	return acc, nil
}

// List returns the accounts matching filter ordered by id
func (r *AccountRepository) List(ctx context.Context, filter account.Filter) ([]*account.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts`
	args := []interface{}{}
	if len(filter.Categories) > 0 {
		categories := make([]string, len(filter.Categories))
		for i, c := range filter.Categories {
			categories[i] = string(c)
		}
		query += ` WHERE category = ANY($1)`
		args = append(args, categories)
	}
	query += ` ORDER BY id`

	rows, err := r.querier.Query(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to list accounts", "error", err)
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}
	defer rows.Close()

	var accounts []*account.Account
	for rows.Next() {
		acc, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan account: %w", err)
		}
		accounts = append(accounts, acc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating over accounts: %w", err)
	}

	return accounts, nil
}

// ApplyDelta adds amount to the stored balance in place, so concurrent units of work
// serialize on the row lock instead of overwriting each other.
func (r *AccountRepository) ApplyDelta(ctx context.Context, id int64, amount decimal.Decimal) error {
	query := `
		UPDATE accounts
		SET current_balance = current_balance + $1, updated_at = NOW()
		WHERE id = $2
	`

	result, err := r.querier.Exec(ctx, query, amount, id)
	if err != nil {
		r.logger.Error("Failed to apply account delta",
			"account_id", id,
			"amount", amount.String(),
			"error", err,
		)
		return fmt.Errorf("failed to apply account delta: %w", err)
	}

	if result.RowsAffected() == 0 {
		return account.ErrAccountNotFound{AccountID: id}
	}

	return nil
}

// ApplyOpeningDelta shifts the opening balance and the current balance by the same amount
func (r *AccountRepository) ApplyOpeningDelta(ctx context.Context, id int64, amount decimal.Decimal) error {
	query := `
		UPDATE accounts
		SET opening_balance = opening_balance + $1, current_balance = current_balance + $1, updated_at = NOW()
		WHERE id = $2
	`

	result, err := r.querier.Exec(ctx, query, amount, id)
	if err != nil {
		r.logger.Error("Failed to apply opening balance delta", "account_id", id, "amount", amount.String(), "error", err)
		return fmt.Errorf("failed to apply opening balance delta: %w", err)
	}
	if result.RowsAffected() == 0 {
		return account.ErrAccountNotFound{AccountID: id}
	}
	return nil
}

// HasActivity reports whether any ledger entry, voided or not, references the account
func (r *AccountRepository) HasActivity(ctx context.Context, id int64) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM ledger_entries WHERE account_id = $1)`

	var exists bool
	if err := r.querier.QueryRow(ctx, query, id).Scan(&exists); err != nil {
		r.logger.Error("Failed to check account activity", "account_id", id, "error", err)
		return false, fmt.Errorf("failed to check account activity: %w", err)
	}
	return exists, nil
}

func (r *AccountRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.querier.Exec(ctx, `DELETE FROM accounts WHERE id = $1`, id)
	if err != nil {
		r.logger.Error("Failed to delete account", "account_id", id, "error", err)
		return fmt.Errorf("failed to delete account: %w", err)
	}
	if result.RowsAffected() == 0 {
		return account.ErrAccountNotFound{AccountID: id}
	}
	return nil
}

var _ account.Repository = (*AccountRepository)(nil)
