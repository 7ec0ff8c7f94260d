package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/crop-trade-ledger/internal/domain/ledger"
)

// JournalReader is the read side of the journal projection
type JournalReader interface {
	GetByRef(ctx context.Context, ref string) (*ledger.JournalEvent, error)
	ListByAccount(ctx context.Context, accountID int64, limit, offset int) ([]*ledger.JournalEvent, error)
	CountByAccount(ctx context.Context, accountID int64) (int64, error)
}

// JournalServiceImpl implements the JournalService interface
type JournalServiceImpl struct {
	journals JournalReader
	logger   *slog.Logger
}

func NewJournalService(logger *slog.Logger, journals JournalReader) JournalService {
	return &JournalServiceImpl{
		journals: journals,
		logger:   logger,
	}
}

func (s *JournalServiceImpl) GetJournal(ctx context.Context, ref string) (*ledger.JournalEvent, error) {
	event, err := s.journals.GetByRef(ctx, ref)
	if err != nil {
		var notFound ledger.ErrReferenceNotFound
		if errors.As(err, &notFound) {
			s.logger.Info("Journal not projected", "transaction_ref", ref)
			return nil, err
		}
		s.logger.Error("Failed to get journal by ref", "transaction_ref", ref, "error", err)
		return nil, err
	}
	return event, nil
}

// GetJournalsByAccountID retrieves a page of journals for an account, newest first
func (s *JournalServiceImpl) GetJournalsByAccountID(ctx context.Context, accountID int64, page, perPage int) ([]*ledger.JournalEvent, int64, error) {
	offset := (page - 1) * perPage

	events, err := s.journals.ListByAccount(ctx, accountID, perPage, offset)
	if err != nil {
		return nil, 0, err
	}

	total, err := s.journals.CountByAccount(ctx, accountID)
	if err != nil {
		return nil, 0, err
	}

	return events, total, nil
}
