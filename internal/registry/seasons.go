package registry

import (
	"context"
	"time"

	"github.com/crop-trade-ledger/internal/domain/audit"
	"github.com/crop-trade-ledger/internal/domain/season"
	"github.com/crop-trade-ledger/internal/domain/shared"
	"github.com/crop-trade-ledger/internal/domain/unitofwork"
	"github.com/crop-trade-ledger/internal/logger"
)

// SeasonCommand carries the editable fields of a trading season
type SeasonCommand struct {
	Name      string
	StartDate time.Time
	EndDate   time.Time
	Status    season.Status
}

func (s *Service) CreateSeason(ctx context.Context, cmd SeasonCommand) (*season.Season, error) {
	sn, err := season.NewSeason(cmd.Name, cmd.StartDate, cmd.EndDate, cmd.Status)
	if err != nil {
		return nil, shared.NewValidationError("season", err.Error())
	}
	sn.CreatedAt = s.now().UTC()
	sn.UpdatedAt = sn.CreatedAt

	err = s.uow.Do(ctx, func(ctx context.Context, store unitofwork.Store) error {
		if err := store.Seasons().Create(ctx, sn); err != nil {
			return err
		}
		return s.audit(ctx, store, "seasons", sn.ID, audit.OperationCreate, nil, sn)
	})
	if err != nil {
		return nil, err
	}

	logger.FromContext(ctx, s.logger).Info("Season created", "season_id", sn.ID, "status", sn.Status)
	return sn, nil
}

// UpdateSeason replaces the fields of a season. Records keep the season they were
// tagged with even when the new dates no longer cover them.
func (s *Service) UpdateSeason(ctx context.Context, id int64, cmd SeasonCommand) (*season.Season, error) {
	var updated *season.Season
	err := s.uow.Do(ctx, func(ctx context.Context, store unitofwork.Store) error {
		current, err := store.Seasons().GetByID(ctx, id)
		if err != nil {
			return err
		}
		before := *current
		if err := current.Set(cmd.Name, cmd.StartDate, cmd.EndDate, cmd.Status); err != nil {
			return shared.NewValidationError("season", err.Error())
		}
		current.UpdatedAt = s.now().UTC()
		if err := store.Seasons().Update(ctx, current); err != nil {
			return err
		}
		updated = current
		return s.audit(ctx, store, "seasons", id, audit.OperationUpdate, before, current)
	})
	if err != nil {
		return nil, err
	}

	logger.FromContext(ctx, s.logger).Info("Season updated", "season_id", id, "status", updated.Status)
	s.committed(ctx)
	return updated, nil
}

// DeleteSeason removes a season no purchase, sale or expense is tagged with
func (s *Service) DeleteSeason(ctx context.Context, id int64) error {
	err := s.uow.Do(ctx, func(ctx context.Context, store unitofwork.Store) error {
		sn, err := store.Seasons().GetByID(ctx, id)
		if err != nil {
			return err
		}
		used, err := store.Seasons().InUse(ctx, id)
		if err != nil {
			return err
		}
		if used {
			return season.ErrSeasonInUse{SeasonID: id}
		}
		if err := store.Seasons().Delete(ctx, id); err != nil {
			return err
		}
		return s.audit(ctx, store, "seasons", id, audit.OperationDelete, sn, nil)
	})
	if err != nil {
		return err
	}

	logger.FromContext(ctx, s.logger).Info("Season deleted", "season_id", id)
	s.committed(ctx)
	return nil
}

func (s *Service) GetSeason(ctx context.Context, id int64) (*season.Season, error) {
	var sn *season.Season
	err := s.uow.Read(ctx, func(ctx context.Context, store unitofwork.Store) error {
		var err error
		sn, err = store.Seasons().GetByID(ctx, id)
		return err
	})
	return sn, err
}

func (s *Service) ListSeasons(ctx context.Context) ([]*season.Season, error) {
	var seasons []*season.Season
	err := s.uow.Read(ctx, func(ctx context.Context, store unitofwork.Store) error {
		var err error
		seasons, err = store.Seasons().List(ctx)
		return err
	})
	return seasons, err
}

// ActiveSeason returns season.ErrNoActiveSeason when no season is ACTIVE
func (s *Service) ActiveSeason(ctx context.Context) (*season.Season, error) {
	var sn *season.Season
	err := s.uow.Read(ctx, func(ctx context.Context, store unitofwork.Store) error {
		var err error
		sn, err = store.Seasons().GetActive(ctx)
		return err
	})
	return sn, err
}
