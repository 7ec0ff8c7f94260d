package service

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/crop-trade-ledger/internal/domain/shared"
	"github.com/crop-trade-ledger/internal/domain/unitofwork"
	"github.com/crop-trade-ledger/internal/platform/messaging/producers"
	"github.com/google/uuid"
)

// RejectionReader looks up why the processor refused a request
type RejectionReader interface {
	Get(ctx context.Context, requestID string) (*shared.PostingRejection, error)
}

// PostingRequestServiceImpl implements the PostingRequestService interface
type PostingRequestServiceImpl struct {
	producer   producers.PostingRequestPublisher
	uow        unitofwork.UnitOfWork
	rejections RejectionReader
	logger     *slog.Logger
	now        func() time.Time
}

func NewPostingRequestService(logger *slog.Logger, producer producers.PostingRequestPublisher, uow unitofwork.UnitOfWork, rejections RejectionReader) PostingRequestService {
	return &PostingRequestServiceImpl{
		producer:   producer,
		uow:        uow,
		rejections: rejections,
		logger:     logger,
		now:        time.Now,
	}
}

// Submit publishes a posting request stamped with the caller's metadata
func (s *PostingRequestServiceImpl) Submit(ctx context.Context, typ shared.PostingType, payload json.RawMessage) (*shared.PostingRequest, error) {
	md := shared.MetadataFrom(ctx)
	req := &shared.PostingRequest{
		RequestID:     uuid.New(),
		Type:          typ,
		Payload:       payload,
		CorrelationID: md.CorrelationID,
		Actor:         md.Actor,
		Timestamp:     s.now().UTC(),
	}

	if err := req.Validate(); err != nil {
		return nil, shared.NewValidationError("request", err.Error())
	}

	if err := s.producer.Publish(ctx, req); err != nil {
		s.logger.Error("Failed to publish posting request",
			"request_id", req.RequestID,
			"posting_type", string(req.Type),
			"error", err,
		)
		return nil, err
	}

	s.logger.Info("Posting request published",
		"request_id", req.RequestID,
		"posting_type", string(req.Type),
		"actor", req.Actor,
	)
	return req, nil
}

// Status checks committed requests first, then recorded rejections; anything else is still pending
func (s *PostingRequestServiceImpl) Status(ctx context.Context, requestID string) (*PostingRequestStatus, error) {
	if _, err := uuid.Parse(requestID); err != nil {
		return nil, shared.NewValidationError("request_id", "must be a UUID")
	}

	var (
		ref       string
		committed bool
	)
	err := s.uow.Read(ctx, func(ctx context.Context, st unitofwork.Store) error {
		var err error
		ref, committed, err = st.Requests().Lookup(ctx, requestID)
		return err
	})
	if err != nil {
		s.logger.Error("Failed to look up processed request", "request_id", requestID, "error", err)
		return nil, err
	}
	if committed {
		return &PostingRequestStatus{
			RequestID:      requestID,
			Status:         shared.PostingStatusCommitted,
			TransactionRef: ref,
		}, nil
	}

	rejection, err := s.rejections.Get(ctx, requestID)
	if err != nil {
		var notFound shared.ErrRejectionNotFound
		if errors.As(err, &notFound) {
			return &PostingRequestStatus{RequestID: requestID, Status: shared.PostingStatusPending}, nil
		}
		s.logger.Error("Failed to look up posting rejection", "request_id", requestID, "error", err)
		return nil, err
	}

	rejectedAt := rejection.RejectedAt
	return &PostingRequestStatus{
		RequestID:  requestID,
		Status:     shared.PostingStatusRejected,
		Code:       rejection.Code,
		Reason:     rejection.Reason,
		RejectedAt: &rejectedAt,
	}, nil
}
