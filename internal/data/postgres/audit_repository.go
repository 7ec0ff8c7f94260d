package postgres

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/crop-trade-ledger/internal/domain/audit"
	"github.com/crop-trade-ledger/internal/platform/persistence"
	"github.com/jackc/pgx/v5"
)

// AuditRepository appends to and reads the audit_log table
type AuditRepository struct {
	querier persistence.Querier
	logger  *slog.Logger
}

func NewAuditRepository(logger *slog.Logger, db *persistence.PostgresDB) *AuditRepository {
	return &AuditRepository{querier: db.Pool(), logger: logger}
}

func (r *AuditRepository) WithTx(tx pgx.Tx) *AuditRepository {
	return &AuditRepository{querier: tx, logger: r.logger}
}

func (r *AuditRepository) Append(ctx context.Context, rec *audit.Record) error {
	query := `
		INSERT INTO audit_log (entity, record_id, operation, old_values, new_values, actor, correlation_id, occurred_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id
	`
	err := r.querier.QueryRow(ctx, query,
		rec.Entity,
		rec.RecordID,
		rec.Operation,
		nullableJSON(rec.OldValues),
		nullableJSON(rec.NewValues),
		rec.Actor,
		rec.CorrelationID,
		rec.OccurredAt,
	).Scan(&rec.ID)
	if err != nil {
		r.logger.Error("Failed to append audit record",
			"entity", rec.Entity,
			"record_id", rec.RecordID,
			"error", err,
		)
		return fmt.Errorf("failed to append audit record: %w", err)
	}
	return nil
}

// List returns audit records newest first
func (r *AuditRepository) List(ctx context.Context, filter audit.Filter) ([]*audit.Record, error) {
	query := `
		SELECT id, entity, record_id, operation, old_values, new_values, actor, correlation_id, occurred_at
		FROM audit_log
		WHERE ($1 = '' OR entity = $1) AND ($2 = 0 OR record_id = $2)
		ORDER BY id DESC
		LIMIT $3 OFFSET $4
	`
	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}

	rows, err := r.querier.Query(ctx, query, filter.Entity, filter.RecordID, limit, filter.Offset)
	if err != nil {
		r.logger.Error("Failed to list audit records", "error", err)
		return nil, fmt.Errorf("failed to list audit records: %w", err)
	}
	defer rows.Close()

	var records []*audit.Record
	for rows.Next() {
		var (
			rec            audit.Record
			oldVal, newVal []byte
		)
		err := rows.Scan(&rec.ID, &rec.Entity, &rec.RecordID, &rec.Operation,
			&oldVal, &newVal, &rec.Actor, &rec.CorrelationID, &rec.OccurredAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan audit record: %w", err)
		}
		rec.OldValues = oldVal
		rec.NewValues = newVal
		records = append(records, &rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating over audit records: %w", err)
	}
	return records, nil
}

func nullableJSON(raw []byte) []byte {
	if len(raw) == 0 {
		return nil
	}
	return raw
}

var _ audit.Repository = (*AuditRepository)(nil)
