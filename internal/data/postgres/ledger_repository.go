package postgres

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/crop-trade-ledger/internal/domain/ledger"
	"github.com/crop-trade-ledger/internal/platform/persistence"
	"github.com/jackc/pgx/v5"
)

// LedgerRepository implements ledger.Repository on the ledger_entries table
type LedgerRepository struct {
	querier persistence.Querier
	logger  *slog.Logger
}

func NewLedgerRepository(logger *slog.Logger, db *persistence.PostgresDB) *LedgerRepository {
	return &LedgerRepository{querier: db.Pool(), logger: logger}
}

func (r *LedgerRepository) WithTx(tx pgx.Tx) *LedgerRepository {
	return &LedgerRepository{querier: tx, logger: r.logger}
}

const entryColumns = `id, transaction_ref, entry_date, account_id, debit, credit, description, source_type, source_id, reversal_of, is_deleted, created_at`

func scanEntry(row pgx.Row) (*ledger.Entry, error) {
	var (
		e          ledger.Entry
		reversalOf *string
	)
	err := row.Scan(
		&e.ID,
		&e.TransactionRef,
		&e.EntryDate,
		&e.AccountID,
		&e.Debit,
		&e.Credit,
		&e.Description,
		&e.SourceType,
		&e.SourceID,
		&reversalOf,
		&e.Deleted,
		&e.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	if reversalOf != nil {
		e.ReversalOf = *reversalOf
	}
	return &e, nil
}

func nullableString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// Insert stores the entries of one journal. Entries are inserted one by one inside
// the caller's transaction; a failure aborts the whole journal.
func (r *LedgerRepository) Insert(ctx context.Context, entries []*ledger.Entry) error {
	query := `
		INSERT INTO ledger_entries (transaction_ref, entry_date, account_id, debit, credit, description, source_type, source_id, reversal_of, is_deleted, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id
	`

	for _, e := range entries {
		err := r.querier.QueryRow(ctx, query,
			e.TransactionRef,
			e.EntryDate,
			e.AccountID,
			e.Debit,
			e.Credit,
			e.Description,
			e.SourceType,
			e.SourceID,
			nullableString(e.ReversalOf),
			e.Deleted,
			e.CreatedAt,
		).Scan(&e.ID)
		if err != nil {
			r.logger.Error("Failed to insert ledger entry",
				"transaction_ref", e.TransactionRef,
				"account_id", e.AccountID,
				"error", err,
			)
			return fmt.Errorf("failed to insert ledger entry: %w", err)
		}
	}
	return nil
}

func (r *LedgerRepository) EntriesForRef(ctx context.Context, ref string) ([]*ledger.Entry, error) {
	query := `SELECT ` + entryColumns + ` FROM ledger_entries WHERE transaction_ref = $1 ORDER BY id`
	return r.queryEntries(ctx, query, ref)
}

// EntriesForAccount returns live entries of one account inside r ordered by date then id
func (r *LedgerRepository) EntriesForAccount(ctx context.Context, accountID int64, rng ledger.Range) ([]*ledger.Entry, error) {
	where, args := rangeClause([]string{"account_id = $1", "is_deleted = FALSE"}, []interface{}{accountID}, "entry_date", rng)
	query := `SELECT ` + entryColumns + ` FROM ledger_entries WHERE ` + where + ` ORDER BY entry_date, id`
	return r.queryEntries(ctx, query, args...)
}

func (r *LedgerRepository) queryEntries(ctx context.Context, query string, args ...interface{}) ([]*ledger.Entry, error) {
	rows, err := r.querier.Query(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to query ledger entries", "error", err)
		return nil, fmt.Errorf("failed to query ledger entries: %w", err)
	}
	defer rows.Close()

	var entries []*ledger.Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan ledger entry: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating over ledger entries: %w", err)
	}
	return entries, nil
}

// MarkDeleted voids every live entry of ref
func (r *LedgerRepository) MarkDeleted(ctx context.Context, ref string) error {
	query := `UPDATE ledger_entries SET is_deleted = TRUE WHERE transaction_ref = $1 AND is_deleted = FALSE`

	result, err := r.querier.Exec(ctx, query, ref)
	if err != nil {
		r.logger.Error("Failed to void ledger entries", "transaction_ref", ref, "error", err)
		return fmt.Errorf("failed to void ledger entries: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ledger.ErrAlreadyReversed{Ref: ref}
	}
	return nil
}

// Activity sums debits and credits of live entries per account
func (r *LedgerRepository) Activity(ctx context.Context, rng ledger.Range) ([]ledger.AccountActivity, error) {
	where, args := rangeClause([]string{"is_deleted = FALSE"}, nil, "entry_date", rng)
	query := `
		SELECT account_id, COALESCE(SUM(debit), 0), COALESCE(SUM(credit), 0)
		FROM ledger_entries
		WHERE ` + where + `
		GROUP BY account_id
		ORDER BY account_id
	`

	rows, err := r.querier.Query(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to aggregate ledger activity", "error", err)
		return nil, fmt.Errorf("failed to aggregate ledger activity: %w", err)
	}
	defer rows.Close()

	var activity []ledger.AccountActivity
	for rows.Next() {
		var a ledger.AccountActivity
		if err := rows.Scan(&a.AccountID, &a.Debit, &a.Credit); err != nil {
			return nil, fmt.Errorf("failed to scan ledger activity: %w", err)
		}
		activity = append(activity, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating over ledger activity: %w", err)
	}
	return activity, nil
}

// rangeClause appends inclusive date bounds on column to the given conditions
func rangeClause(conds []string, args []interface{}, column string, rng ledger.Range) (string, []interface{}) {
	if rng.From != nil {
		args = append(args, ledger.DateOf(*rng.From))
		conds = append(conds, fmt.Sprintf("%s >= $%d", column, len(args)))
	}
	if rng.To != nil {
		args = append(args, ledger.DateOf(*rng.To))
		conds = append(conds, fmt.Sprintf("%s <= $%d", column, len(args)))
	}
	if len(conds) == 0 {
		return "TRUE", args
	}
	return strings.Join(conds, " AND "), args
}

var _ ledger.Repository = (*LedgerRepository)(nil)
