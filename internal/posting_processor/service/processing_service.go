package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/crop-trade-ledger/internal/domain/shared"
	"github.com/crop-trade-ledger/internal/domain/unitofwork"
	"github.com/crop-trade-ledger/internal/logger"
)

type ProcessingServiceImpl struct {
	dispatcher  Dispatcher
	recorder    RejectionRecorder
	isRejection ErrorClassifier
	logger      *slog.Logger
}

func NewProcessingService(
	dispatcher Dispatcher,
	recorder RejectionRecorder,
	isRejection ErrorClassifier,
	logger *slog.Logger,
) ProcessingService {
	return &ProcessingServiceImpl{
		dispatcher:  dispatcher,
		recorder:    recorder,
		isRejection: isRejection,
		logger:      logger,
	}
}

// ProcessPosting runs one request through the orchestrator. Rejections are recorded
// and acknowledged; anything else is returned so the offset stays uncommitted.
func (s *ProcessingServiceImpl) ProcessPosting(ctx context.Context, request *shared.PostingRequest) error {
	ctx = shared.WithMetadata(ctx, request.Metadata())
	log := logger.FromContext(ctx, s.logger).With("type", request.Type)

	log.Info("Processing posting request")

	if err := request.Validate(); err != nil {
		log.Warn("Posting request envelope is invalid", "error", err)
		s.reject(ctx, log, request, shared.NewValidationError("request", err.Error()))
		return nil
	}

	ref, err := s.dispatcher.Dispatch(ctx, request.Type, request.Payload)
	if err != nil {
		var duplicate unitofwork.ErrDuplicateRequest
		if errors.As(err, &duplicate) {
			log.Info("Posting request already committed, skipping")
			return nil
		}
		if s.isRejection(err) {
			s.reject(ctx, log, request, err)
			return nil
		}

		log.Error("Posting request failed, leaving it for redelivery", "error", err)
		return fmt.Errorf("processing posting request %s failed: %w", request.RequestID, err)
	}

	log.Info("Posting request committed", "transaction_ref", ref)
	return nil
}

func (s *ProcessingServiceImpl) reject(ctx context.Context, log *slog.Logger, request *shared.PostingRequest, cause error) {
	log.Warn("Posting request rejected", "reason", cause.Error())
	if err := s.recorder.RecordRejection(ctx, request, cause); err != nil {
		log.Error("Failed to record posting rejection", "error", err)
	}
}
