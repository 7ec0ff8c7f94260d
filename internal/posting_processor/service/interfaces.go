package service

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/crop-trade-ledger/internal/domain/shared"
)

// ProcessingService defines the interface for processing posting requests.
// A nil error means the message may be acknowledged.
type ProcessingService interface {
	ProcessPosting(ctx context.Context, request *shared.PostingRequest) error
}

// Dispatcher runs a decoded posting and returns the transaction ref it wrote
type Dispatcher interface {
	Dispatch(ctx context.Context, typ shared.PostingType, payload json.RawMessage) (string, error)
}

// RejectionRecorder stores why a request was refused so clients can poll for it
type RejectionRecorder interface {
	RecordRejection(ctx context.Context, request *shared.PostingRequest, cause error) error
}

// ErrorClassifier separates rejections the sender caused from failures worth retrying
type ErrorClassifier func(err error) bool

type errPanicked struct {
	value interface{}
}

func (e errPanicked) Error() string {
	return fmt.Sprintf("posting worker panicked: %v", e.value)
}
