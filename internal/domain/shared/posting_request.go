package shared

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrInvalidPostingType = errors.New("invalid posting type")
	ErrMissingRequestID   = errors.New("request id is required")
	ErrEmptyPayload       = errors.New("payload is required")
)

// PostingRequest defines a Kafka message asking the processor to post one business event
type PostingRequest struct {
	RequestID     uuid.UUID       `json:"request_id"`
	Type          PostingType     `json:"type"`
	Payload       json.RawMessage `json:"payload"`
	CorrelationID string          `json:"correlation_id"`
	Actor         string          `json:"actor,omitempty"`
	Timestamp     time.Time       `json:"timestamp"`
}

// Validate checks the envelope only; the payload is validated by the orchestrator.
func (r *PostingRequest) Validate() error {
	if r.RequestID == uuid.Nil {
		return ErrMissingRequestID
	}
	if !r.Type.IsValid() {
		return ErrInvalidPostingType
	}
	if len(r.Payload) == 0 || string(r.Payload) == "null" {
		return ErrEmptyPayload
	}
	return nil
}

// Metadata returns the request identity to thread through the orchestrator.
func (r *PostingRequest) Metadata() Metadata {
	return Metadata{
		Actor:         r.Actor,
		CorrelationID: r.CorrelationID,
		RequestID:     r.RequestID.String(),
	}
}

// PostingRejection records why an asynchronous posting request was refused
type PostingRejection struct {
	RequestID     string      `json:"request_id" bson:"request_id"`
	Type          PostingType `json:"type" bson:"type"`
	Code          string      `json:"code" bson:"code"`
	Reason        string      `json:"reason" bson:"reason"`
	CorrelationID string      `json:"correlation_id,omitempty" bson:"correlation_id,omitempty"`
	Actor         string      `json:"actor,omitempty" bson:"actor,omitempty"`
	RejectedAt    time.Time   `json:"rejected_at" bson:"rejected_at"`
}

// ErrRejectionNotFound indicates no rejection was recorded for a request
type ErrRejectionNotFound struct {
	RequestID string
}

func (e ErrRejectionNotFound) Error() string {
	return "no rejection recorded for request: " + e.RequestID
}
