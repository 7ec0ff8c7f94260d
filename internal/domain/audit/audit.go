package audit

import (
	"context"
	"encoding/json"
	"time"
)

// Operation names the kind of change an audit record describes
type Operation string

const (
	OperationCreate  Operation = "CREATE"
	OperationUpdate  Operation = "UPDATE"
	OperationReverse Operation = "REVERSE"
	OperationDelete  Operation = "DELETE"
)

// Record is one append-only audit trail row
type Record struct {
	ID            int64           `json:"id"`
	Entity        string          `json:"entity"`
	RecordID      int64           `json:"record_id"`
	Operation     Operation       `json:"operation"`
	OldValues     json.RawMessage `json:"old_values,omitempty"`
	NewValues     json.RawMessage `json:"new_values,omitempty"`
	Actor         string          `json:"actor"`
	CorrelationID string          `json:"correlation_id,omitempty"`
	OccurredAt    time.Time       `json:"occurred_at"`
}

// NewRecord marshals the before and after states; nil states are omitted
func NewRecord(entity string, recordID int64, op Operation, oldValues, newValues interface{}, actor, correlationID string, at time.Time) (*Record, error) {
	rec := &Record{
		Entity:        entity,
		RecordID:      recordID,
		Operation:     op,
		Actor:         actor,
		CorrelationID: correlationID,
		OccurredAt:    at,
	}
	if oldValues != nil {
		raw, err := json.Marshal(oldValues)
		if err != nil {
			return nil, err
		}
		rec.OldValues = raw
	}
	if newValues != nil {
		raw, err := json.Marshal(newValues)
		if err != nil {
			return nil, err
		}
		rec.NewValues = raw
	}
	return rec, nil
}

// Filter narrows audit queries; zero values match everything
type Filter struct {
	Entity   string
	RecordID int64
	Limit    int
	Offset   int
}

// Repository appends and reads audit records
type Repository interface {
	Append(ctx context.Context, rec *Record) error
	List(ctx context.Context, filter Filter) ([]*Record, error)
}
