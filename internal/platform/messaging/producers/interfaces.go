package producers

import (
	"context"

	"github.com/crop-trade-ledger/internal/domain/shared"
	"github.com/segmentio/kafka-go"
)

// PostingRequestPublisher enqueues posting requests for the processor
type PostingRequestPublisher interface {
	Publish(ctx context.Context, request *shared.PostingRequest) error
	Close() error
}

// DeadLetterPublisher handles publishing messages to a Dead Letter Queue
type DeadLetterPublisher interface {
	PublishToDLQ(ctx context.Context, key string, originalMessageValue []byte, reason string) error
	Close() error
}

// KafkaWriter wraps kafka.Writer methods for testing
type KafkaWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}
