package outbox_poller

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/crop-trade-ledger/internal/domain/ledger"
	"github.com/crop-trade-ledger/internal/domain/outbox"
)

// errUndecodable marks a payload that will never project, so retrying is pointless
var errUndecodable = errors.New("outbox payload is not a journal event")

// JournalProjector writes a committed journal to the read model
type JournalProjector interface {
	Project(ctx context.Context, message *outbox.Message) error
}

// JournalStore is the read model the projector upserts into
type JournalStore interface {
	Upsert(ctx context.Context, event *ledger.JournalEvent) error
}

type JournalProjectorImpl struct {
	journals JournalStore
	logger   *slog.Logger
}

func NewJournalProjector(journals JournalStore, logger *slog.Logger) JournalProjector {
	return &JournalProjectorImpl{
		journals: journals,
		logger:   logger,
	}
}

// Project upserts the message's journal, keyed by transaction ref, so replays are harmless
func (p *JournalProjectorImpl) Project(ctx context.Context, message *outbox.Message) error {
	event, err := message.JournalEvent()
	if err != nil {
		p.logger.Error("Failed to unmarshal journal event from outbox payload",
			"outbox_id", message.ID, "transaction_ref", message.TransactionRef, "error", err,
		)
		return fmt.Errorf("%w: outbox %d: %v", errUndecodable, message.ID, err)
	}

	logger := p.logger
	if event.CorrelationID != "" {
		logger = p.logger.With("correlation_id", event.CorrelationID)
	}

	if err := p.journals.Upsert(ctx, event); err != nil {
		logger.Error("Failed to project journal", "transaction_ref", event.TransactionRef, "error", err)
		return fmt.Errorf("failed to project journal %s: %w", event.TransactionRef, err)
	}

	logger.Debug("Projected journal", "outbox_id", message.ID, "transaction_ref", event.TransactionRef, "entries", len(event.Entries))
	return nil
}
