package components

import (
	"context"
	"log/slog"
	"time"

	"github.com/crop-trade-ledger/internal/domain/shared"
	"github.com/crop-trade-ledger/internal/posting"
	"github.com/crop-trade-ledger/internal/posting_processor/service"
)

// RejectionStore persists rejected posting requests
type RejectionStore interface {
	Record(ctx context.Context, rejection *shared.PostingRejection) error
}

type RejectionRecorderImpl struct {
	store  RejectionStore
	logger *slog.Logger
	now    func() time.Time
}

func NewRejectionRecorder(store RejectionStore, logger *slog.Logger) service.RejectionRecorder {
	return &RejectionRecorderImpl{
		store:  store,
		logger: logger,
		now:    time.Now,
	}
}

// RecordRejection stores the error code and message of cause against the request id
func (r *RejectionRecorderImpl) RecordRejection(ctx context.Context, request *shared.PostingRequest, cause error) error {
	rejection := &shared.PostingRejection{
		RequestID:     request.RequestID.String(),
		Type:          request.Type,
		Code:          posting.ErrorCode(cause),
		Reason:        cause.Error(),
		CorrelationID: request.CorrelationID,
		Actor:         request.Actor,
		RejectedAt:    r.now().UTC(),
	}

	if err := r.store.Record(ctx, rejection); err != nil {
		return err
	}

	r.logger.Info("Recorded posting rejection",
		"request_id", rejection.RequestID,
		"code", rejection.Code,
	)
	return nil
}
