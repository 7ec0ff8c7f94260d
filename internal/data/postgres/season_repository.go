package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/crop-trade-ledger/internal/domain/season"
	"github.com/crop-trade-ledger/internal/platform/persistence"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

const (
	seasonColumns = `id, name, start_date, end_date, status, created_at, updated_at`

	uniqueViolation   = "23505"
	singleActiveIndex = "idx_seasons_single_active"
)

// SeasonRepository implements season.Repository
type SeasonRepository struct {
	querier persistence.Querier
	logger  *slog.Logger
}

func NewSeasonRepository(logger *slog.Logger, db *persistence.PostgresDB) *SeasonRepository {
	return &SeasonRepository{querier: db.Pool(), logger: logger}
}

func (r *SeasonRepository) WithTx(tx pgx.Tx) *SeasonRepository {
	return &SeasonRepository{querier: tx, logger: r.logger}
}

// secondActive recognises the partial unique index refusing another ACTIVE season
func secondActive(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation && pgErr.ConstraintName == singleActiveIndex
}

func (r *SeasonRepository) Create(ctx context.Context, s *season.Season) error {
	query := `
		INSERT INTO seasons (name, start_date, end_date, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`
	err := r.querier.QueryRow(ctx, query, s.Name, s.StartDate, s.EndDate, s.Status, s.CreatedAt, s.UpdatedAt).Scan(&s.ID)
	if err != nil {
		if secondActive(err) {
			return season.ErrActiveSeasonExists{}
		}
		r.logger.Error("Failed to create season", "name", s.Name, "error", err)
		return fmt.Errorf("failed to create season: %w", err)
	}
	return nil
}

func (r *SeasonRepository) Update(ctx context.Context, s *season.Season) error {
	query := `
		UPDATE seasons SET name = $1, start_date = $2, end_date = $3, status = $4, updated_at = $5
		WHERE id = $6
	`
	tag, err := r.querier.Exec(ctx, query, s.Name, s.StartDate, s.EndDate, s.Status, s.UpdatedAt, s.ID)
	if err != nil {
		if secondActive(err) {
			return season.ErrActiveSeasonExists{}
		}
		r.logger.Error("Failed to update season", "season_id", s.ID, "error", err)
		return fmt.Errorf("failed to update season: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return season.ErrSeasonNotFound{SeasonID: s.ID}
	}
	return nil
}

func (r *SeasonRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.querier.Exec(ctx, `DELETE FROM seasons WHERE id = $1`, id)
	if err != nil {
		r.logger.Error("Failed to delete season", "season_id", id, "error", err)
		return fmt.Errorf("failed to delete season: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return season.ErrSeasonNotFound{SeasonID: id}
	}
	return nil
}

func (r *SeasonRepository) GetByID(ctx context.Context, id int64) (*season.Season, error) {
	s, err := r.one(ctx, `SELECT `+seasonColumns+` FROM seasons WHERE id = $1`, id)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, season.ErrSeasonNotFound{SeasonID: id}
	}
	if err != nil {
		r.logger.Error("Failed to get season", "season_id", id, "error", err)
		return nil, fmt.Errorf("failed to get season: %w", err)
	}
	return s, nil
}

func (r *SeasonRepository) GetActive(ctx context.Context) (*season.Season, error) {
	s, err := r.one(ctx, `SELECT `+seasonColumns+` FROM seasons WHERE status = $1`, season.StatusActive)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, season.ErrNoActiveSeason
	}
	if err != nil {
		r.logger.Error("Failed to get active season", "error", err)
		return nil, fmt.Errorf("failed to get active season: %w", err)
	}
	return s, nil
}

func (r *SeasonRepository) one(ctx context.Context, query string, arg interface{}) (*season.Season, error) {
	var s season.Season
	err := r.querier.QueryRow(ctx, query, arg).Scan(&s.ID, &s.Name, &s.StartDate, &s.EndDate, &s.Status, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *SeasonRepository) List(ctx context.Context) ([]*season.Season, error) {
	rows, err := r.querier.Query(ctx, `SELECT `+seasonColumns+` FROM seasons ORDER BY start_date DESC, id DESC`)
	if err != nil {
		r.logger.Error("Failed to list seasons", "error", err)
		return nil, fmt.Errorf("failed to list seasons: %w", err)
	}
	defer rows.Close()

	var seasons []*season.Season
	for rows.Next() {
		var s season.Season
		if err := rows.Scan(&s.ID, &s.Name, &s.StartDate, &s.EndDate, &s.Status, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan season: %w", err)
		}
		seasons = append(seasons, &s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating over seasons: %w", err)
	}
	return seasons, nil
}

func (r *SeasonRepository) InUse(ctx context.Context, id int64) (bool, error) {
	query := `
		SELECT EXISTS (SELECT 1 FROM purchases WHERE season_id = $1)
		    OR EXISTS (SELECT 1 FROM sales WHERE season_id = $1)
		    OR EXISTS (SELECT 1 FROM expenses WHERE season_id = $1)
	`
	var used bool
	if err := r.querier.QueryRow(ctx, query, id).Scan(&used); err != nil {
		r.logger.Error("Failed to check season usage", "season_id", id, "error", err)
		return false, fmt.Errorf("failed to check season usage: %w", err)
	}
	return used, nil
}

var _ season.Repository = (*SeasonRepository)(nil)
