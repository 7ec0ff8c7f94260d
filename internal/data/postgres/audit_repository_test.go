package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/crop-trade-ledger/internal/domain/audit"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuditRepository_Append(t *testing.T) {
	ctx := context.Background()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := &AuditRepository{querier: mock, logger: newTestLogger()}
	now := time.Now().UTC()
	rec, err := audit.NewRecord("sales", 8, audit.OperationCreate, nil, map[string]string{"total": "600"}, "clerk", "corr-1", now)
	require.NoError(t, err)

	mock.ExpectQuery(`INSERT INTO audit_log`).
		WithArgs("sales", int64(8), audit.OperationCreate, []byte(nil), []byte(rec.NewValues), "clerk", "corr-1", now).
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(int64(77)))

	require.NoError(t, repo.Append(ctx, rec))
	assert.Equal(t, int64(77), rec.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAuditRepository_List(t *testing.T) {
	ctx := context.Background()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := &AuditRepository{querier: mock, logger: newTestLogger()}
	now := time.Now().UTC()

	tests := []struct {
		name      string
		filter    audit.Filter
		wantLimit int
	}{
		{name: "default limit", filter: audit.Filter{Entity: "sales"}, wantLimit: 100},
		{name: "explicit page", filter: audit.Filter{Entity: "sales", RecordID: 8, Limit: 5, Offset: 10}, wantLimit: 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock.ExpectQuery(`FROM audit_log`).
				WithArgs(tt.filter.Entity, tt.filter.RecordID, tt.wantLimit, tt.filter.Offset).
				WillReturnRows(pgxmock.NewRows([]string{"id", "entity", "record_id", "operation", "old_values", "new_values", "actor", "correlation_id", "occurred_at"}).
					AddRow(int64(2), "sales", int64(8), audit.OperationReverse, []byte(`{"total":"600"}`), nil, "SYSTEM", "", now))

			records, err := repo.List(ctx, tt.filter)
			require.NoError(t, err)
			require.Len(t, records, 1)
			assert.Equal(t, audit.OperationReverse, records[0].Operation)
			assert.JSONEq(t, `{"total":"600"}`, string(records[0].OldValues))
			assert.Empty(t, records[0].NewValues)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}
