package consumer

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/crop-trade-ledger/internal/domain/shared"
	"github.com/crop-trade-ledger/internal/platform/messaging/producers"
	"github.com/crop-trade-ledger/internal/posting_processor/service"
)

// PostingRequestHandler decodes posting requests from Kafka and hands them to the processing service
type PostingRequestHandler struct {
	processingService service.ProcessingService
	producer          producers.DeadLetterPublisher
	logger            *slog.Logger
}

func NewPostingRequestHandler(
	logger *slog.Logger,
	processingService service.ProcessingService,
	producer producers.DeadLetterPublisher,
) *PostingRequestHandler {
	return &PostingRequestHandler{
		processingService: processingService,
		producer:          producer,
		logger:            logger,
	}
}

// HandleMessage returns nil when the offset may be committed
func (h *PostingRequestHandler) HandleMessage(ctx context.Context, key []byte, value []byte) error {
	var request shared.PostingRequest
	if err := json.Unmarshal(value, &request); err != nil {
		h.logger.Error("Failed to unmarshal posting request from Kafka message",
			"error", err,
			"message_key", string(key),
		)
		return h.deadLetter(ctx, key, value, fmt.Sprintf("undecodable posting request: %s", err))
	}

	logger := h.logger.With("request_id", request.RequestID.String())
	if request.CorrelationID != "" {
		logger = logger.With("correlation_id", request.CorrelationID)
	}
	logger.Info("Received posting request", "type", request.Type)

	if err := h.processingService.ProcessPosting(ctx, &request); err != nil {
		logger.Error("Failed to process posting request", "error", err)
		return fmt.Errorf("processing posting request %s failed: %w", request.RequestID, err)
	}
	return nil
}

// deadLetter parks value on the DLQ. When that fails too the error is returned so
// Kafka redelivers the message.
func (h *PostingRequestHandler) deadLetter(ctx context.Context, key, value []byte, reason string) error {
	if h.producer == nil {
		return fmt.Errorf("%s and no DLQ is configured", reason)
	}
	if err := h.producer.PublishToDLQ(ctx, string(key), value, reason); err != nil {
		h.logger.Error("Failed to publish message to DLQ",
			"dlq_error", err,
			"message_key", string(key),
		)
		return fmt.Errorf("%s: dead-lettering failed: %w", reason, err)
	}
	h.logger.Info("Published unprocessable message to DLQ", "message_key", string(key), "reason", reason)
	return nil
}
