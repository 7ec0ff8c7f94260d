package producers

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/crop-trade-ledger/internal/config"
	"github.com/crop-trade-ledger/internal/domain/shared"
	"github.com/segmentio/kafka-go"
)

// Header names set on every posting request message
const (
	HeaderCorrelationID = "correlation-id"
	HeaderPostingType   = "posting-type"
)

// PostingRequestProducer publishes posting requests keyed by request id
type PostingRequestProducer struct {
	logger *slog.Logger
	writer KafkaWriter
	topic  string
}

// NewPostingRequestProducer ensures the posting topic exists and opens a synchronous writer.
// Writes wait for all replicas so an accepted request is never lost.
func NewPostingRequestProducer(logger *slog.Logger, cfg *config.KafkaConfig) (*PostingRequestProducer, error) {
	if cfg.PostingTopic == "" {
		return nil, fmt.Errorf("kafka posting topic is not configured")
	}

	if err := dialAndEnsureTopic(cfg, cfg.PostingTopic, logger); err != nil {
		return nil, fmt.Errorf("failed to ensure posting topic %s exists: %w", cfg.PostingTopic, err)
	}

	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers),
		Topic:        cfg.PostingTopic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
		WriteTimeout: cfg.MaxWait,
	}

	return &PostingRequestProducer{
		logger: logger,
		writer: writer,
		topic:  cfg.PostingTopic,
	}, nil
}

func (p *PostingRequestProducer) Publish(ctx context.Context, request *shared.PostingRequest) error {
	value, err := json.Marshal(request)
	if err != nil {
		return fmt.Errorf("failed to marshal posting request: %w", err)
	}

	key := request.RequestID.String()
	msg := kafka.Message{
		Key:   []byte(key),
		Value: value,
		Headers: []kafka.Header{
			{Key: HeaderCorrelationID, Value: []byte(request.CorrelationID)},
			{Key: HeaderPostingType, Value: []byte(request.Type)},
		},
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		p.logger.Error("Failed to publish posting request",
			"topic", p.topic,
			"request_id", key,
			"error", err,
		)
		return fmt.Errorf("failed to publish posting request to %s: %w", p.topic, err)
	}

	p.logger.Debug("Published posting request",
		"topic", p.topic,
		"request_id", key,
		"type", request.Type,
	)
	return nil
}

func (p *PostingRequestProducer) Close() error {
	p.logger.Info("Closing posting request producer", "topic", p.topic)
	if err := p.writer.Close(); err != nil {
		return fmt.Errorf("failed to close kafka writer for topic %s: %w", p.topic, err)
	}
	return nil
}
