package reporting

import (
	"context"
	"time"

	"github.com/crop-trade-ledger/internal/domain/audit"
	"github.com/crop-trade-ledger/internal/domain/inventory"
	"github.com/crop-trade-ledger/internal/domain/ledger"
	"github.com/crop-trade-ledger/internal/domain/unitofwork"
)

// EntriesForRef returns every entry of a transaction, voided ones included
func (s *Service) EntriesForRef(ctx context.Context, ref string) ([]*ledger.Entry, error) {
	var entries []*ledger.Entry
	err := s.uow.Read(ctx, func(ctx context.Context, st unitofwork.Store) error {
		var err error
		entries, err = ledger.NewStore(st.Ledger(), s.logger, s.now).EntriesForRef(ctx, ref)
		return err
	})
	return entries, err
}

// Position returns the current stock of an item
func (s *Service) Position(ctx context.Context, itemID int64) (*inventory.Position, error) {
	var pos *inventory.Position
	err := s.uow.Read(ctx, func(ctx context.Context, st unitofwork.Store) error {
		var err error
		pos, err = inventory.NewEngine(st.Inventory(), s.now).CurrentPosition(ctx, itemID)
		return err
	})
	return pos, err
}

func (s *Service) Movements(ctx context.Context, itemID int64, from, to *time.Time) ([]*inventory.Movement, error) {
	var movements []*inventory.Movement
	err := s.uow.Read(ctx, func(ctx context.Context, st unitofwork.Store) error {
		if _, err := st.Inventory().GetItem(ctx, itemID); err != nil {
			return err
		}
		var err error
		movements, err = st.Inventory().Movements(ctx, itemID, from, to)
		return err
	})
	return movements, err
}

func (s *Service) AuditTrail(ctx context.Context, filter audit.Filter) ([]*audit.Record, error) {
	var records []*audit.Record
	err := s.uow.Read(ctx, func(ctx context.Context, st unitofwork.Store) error {
		var err error
		records, err = st.Audit().List(ctx, filter)
		return err
	})
	return records, err
}
