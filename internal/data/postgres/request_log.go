package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/crop-trade-ledger/internal/domain/unitofwork"
	"github.com/crop-trade-ledger/internal/platform/persistence"
	"github.com/jackc/pgx/v5"
)

// RequestLog implements unitofwork.RequestLog on the processed_requests table
type RequestLog struct {
	querier persistence.Querier
	logger  *slog.Logger
}

func NewRequestLog(logger *slog.Logger, db *persistence.PostgresDB) *RequestLog {
	return &RequestLog{querier: db.Pool(), logger: logger}
}

func (r *RequestLog) WithTx(tx pgx.Tx) *RequestLog {
	return &RequestLog{querier: tx, logger: r.logger}
}

// Record inserts the request id; a conflicting insert means a redelivered request
func (r *RequestLog) Record(ctx context.Context, requestID, transactionRef string) error {
	query := `
		INSERT INTO processed_requests (request_id, transaction_ref, processed_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (request_id) DO NOTHING
	`
	tag, err := r.querier.Exec(ctx, query, requestID, transactionRef, time.Now().UTC())
	if err != nil {
		r.logger.Error("Failed to record processed request", "request_id", requestID, "error", err)
		return fmt.Errorf("failed to record processed request: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return unitofwork.ErrDuplicateRequest{RequestID: requestID}
	}
	return nil
}

func (r *RequestLog) Lookup(ctx context.Context, requestID string) (string, bool, error) {
	var ref string
	err := r.querier.QueryRow(ctx, `SELECT transaction_ref FROM processed_requests WHERE request_id = $1`, requestID).Scan(&ref)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", false, nil
		}
		r.logger.Error("Failed to look up processed request", "request_id", requestID, "error", err)
		return "", false, fmt.Errorf("failed to look up processed request: %w", err)
	}
	return ref, true, nil
}

var _ unitofwork.RequestLog = (*RequestLog)(nil)
