package ledger

import (
	"context"
	"log/slog"
	"time"

	"github.com/crop-trade-ledger/internal/domain/shared"
)

// Store posts and reverses journals on top of a Repository bound to the current unit of work
type Store struct {
	repo   Repository
	logger *slog.Logger
	now    func() time.Time
}

func NewStore(repo Repository, logger *slog.Logger, now func() time.Time) *Store {
	if now == nil {
		now = time.Now
	}
	return &Store{repo: repo, logger: logger, now: now}
}

// Post writes one entry per journal line. Unbalanced journals never reach the store.
func (s *Store) Post(ctx context.Context, j *Journal) ([]*Entry, error) {
	debit, credit := j.Totals()
	if !shared.NearlyEqual(debit, credit) {
		err := ErrUnbalancedPosting{Ref: j.Ref, Debit: debit, Credit: credit}
		s.logger.Error("Refusing unbalanced posting", "transaction_ref", j.Ref, "error", err)
		return nil, err
	}

	entries := j.Entries(s.now().UTC())
	if err := s.repo.Insert(ctx, entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// Reverse voids ref: the swapped copy is written under REV-<ref> and both sets are
// flagged deleted, so the net effect on every account is zero. The reversing journal
// is returned so the caller can apply its balance deltas.
func (s *Store) Reverse(ctx context.Context, ref string, date time.Time) (*Journal, error) {
	originals, err := s.repo.EntriesForRef(ctx, ref)
	if err != nil {
		return nil, err
	}

	j, err := NewReversal(ref, originals, date)
	if err != nil {
		return nil, err
	}

	if _, err := s.Post(ctx, j); err != nil {
		return nil, err
	}
	if err := s.repo.MarkDeleted(ctx, ref); err != nil {
		return nil, err
	}
	return j, nil
}

func (s *Store) EntriesForRef(ctx context.Context, ref string) ([]*Entry, error) {
	entries, err := s.repo.EntriesForRef(ctx, ref)
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, ErrReferenceNotFound{Ref: ref}
	}
	return entries, nil
}

func (s *Store) EntriesForAccount(ctx context.Context, accountID int64, r Range) ([]*Entry, error) {
	return s.repo.EntriesForAccount(ctx, accountID, r)
}
