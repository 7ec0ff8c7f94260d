package outbox_poller

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/crop-trade-ledger/internal/config"
	"github.com/crop-trade-ledger/internal/domain/outbox"
	"github.com/crop-trade-ledger/internal/domain/shared"
	"github.com/crop-trade-ledger/internal/domain/unitofwork"
)

// Poller projects pending outbox messages into the journal read model
type Poller struct {
	uow              unitofwork.UnitOfWork
	projector        JournalProjector
	logger           *slog.Logger
	pollInterval     time.Duration
	batchSize        int
	maxRetryAttempts int
}

func NewPoller(
	cfg *config.OutboxConfig,
	uow unitofwork.UnitOfWork,
	projector JournalProjector,
	logger *slog.Logger,
) *Poller {
	return &Poller{
		uow:              uow,
		projector:        projector,
		logger:           logger,
		pollInterval:     cfg.PollingInterval,
		batchSize:        cfg.BatchSize,
		maxRetryAttempts: cfg.MaxRetryAttempts,
	}
}

// Start begins polling until context is canceled
func (p *Poller) Start(ctx context.Context) {
	p.logger.Info("Starting Outbox Poller",
		"poll_interval", p.pollInterval.String(),
		"batch_size", p.batchSize,
		"max_retry_attempts", p.maxRetryAttempts,
	)
	ticker := time.NewTicker(p.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("Outbox Poller stopping due to context cancellation")
			return
		case <-ticker.C:
			if _, err := p.ProcessPending(ctx); err != nil {
				p.logger.Error("Error during batch processing of pending outbox messages", "error", err)
			}
		}
	}
}

// ProcessPending projects one batch and returns how many messages were marked processed
func (p *Poller) ProcessPending(ctx context.Context) (int, error) {
	var messages []*outbox.Message
	err := p.uow.Read(ctx, func(ctx context.Context, s unitofwork.Store) error {
		var err error
		messages, err = s.Outbox().GetPending(ctx, p.batchSize)
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("failed to get pending outbox messages: %w", err)
	}
	if len(messages) == 0 {
		p.logger.Debug("No pending outbox messages found")
		return 0, nil
	}

	p.logger.Info("Fetched pending outbox messages", "count", len(messages))

	processed := 0
	for _, msg := range messages {
		logger := p.logger.With("outbox_id", msg.ID, "transaction_ref", msg.TransactionRef)

		if err := p.projector.Project(ctx, msg); err != nil {
			p.recordFailure(ctx, logger, msg, err)
			continue
		}

		err := p.uow.Do(ctx, func(ctx context.Context, s unitofwork.Store) error {
			return s.Outbox().UpdateStatus(ctx, msg.ID, shared.OutboxStatusProcessed)
		})
		if err != nil {
			// the next tick projects it again, which the upsert tolerates
			logger.Error("Journal projected but outbox message could not be marked processed", "error", err)
			continue
		}
		processed++
	}
	return processed, nil
}

func (p *Poller) recordFailure(ctx context.Context, logger *slog.Logger, msg *outbox.Message, cause error) {
	attempts := msg.Attempts + 1
	giveUp := attempts >= p.maxRetryAttempts || errors.Is(cause, errUndecodable)

	logger.Error("Failed to project outbox message", "attempts_made", attempts, "error", cause)

	err := p.uow.Do(ctx, func(ctx context.Context, s unitofwork.Store) error {
		if err := s.Outbox().IncrementAttempts(ctx, msg.ID); err != nil {
			return err
		}
		if giveUp {
			return s.Outbox().UpdateStatus(ctx, msg.ID, shared.OutboxStatusFailedToPublish)
		}
		return nil
	})
	if err != nil {
		logger.Error("Failed to record outbox projection failure", "error", err)
		return
	}
	if giveUp {
		logger.Warn("Giving up on outbox message, marked FAILED_TO_PUBLISH", "attempts_made", attempts)
	}
}
