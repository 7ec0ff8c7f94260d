package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/crop-trade-ledger/internal/domain/season"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var seasonRowColumns = []string{"id", "name", "start_date", "end_date", "status", "created_at", "updated_at"}

func TestSeasonRepository(t *testing.T) {
	ctx := context.Background()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := &SeasonRepository{querier: mock, logger: newTestLogger()}
	start := time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 9, 30, 0, 0, 0, 0, time.UTC)
	s, err := season.NewSeason("Kharif 2024", start, end, season.StatusActive)
	require.NoError(t, err)

	t.Run("create", func(t *testing.T) {
		mock.ExpectQuery(`INSERT INTO seasons`).
			WithArgs("Kharif 2024", start, end, season.StatusActive, s.CreatedAt, s.UpdatedAt).
			WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(int64(2)))

		require.NoError(t, repo.Create(ctx, s))
		assert.Equal(t, int64(2), s.ID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("second active season", func(t *testing.T) {
		other, err := season.NewSeason("Rabi 2024", end, end.AddDate(0, 6, 0), season.StatusActive)
		require.NoError(t, err)
		mock.ExpectQuery(`INSERT INTO seasons`).
			WithArgs(other.Name, other.StartDate, other.EndDate, season.StatusActive, other.CreatedAt, other.UpdatedAt).
			WillReturnError(&pgconn.PgError{Code: uniqueViolation, ConstraintName: singleActiveIndex})

		err = repo.Create(ctx, other)
		assert.ErrorAs(t, err, &season.ErrActiveSeasonExists{})
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("update unknown", func(t *testing.T) {
		ghost := *s
		ghost.ID = 40
		mock.ExpectExec(`UPDATE seasons SET`).
			WithArgs(ghost.Name, start, end, season.StatusActive, ghost.UpdatedAt, int64(40)).
			WillReturnResult(pgxmock.NewResult("UPDATE", 0))

		err := repo.Update(ctx, &ghost)
		assert.ErrorIs(t, err, season.ErrSeasonNotFound{SeasonID: 40})
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("get active", func(t *testing.T) {
		mock.ExpectQuery(`FROM seasons WHERE status = \$1`).WithArgs(season.StatusActive).
			WillReturnRows(pgxmock.NewRows(seasonRowColumns).
				AddRow(int64(2), s.Name, start, end, season.StatusActive, s.CreatedAt, s.UpdatedAt))

		got, err := repo.GetActive(ctx)
		require.NoError(t, err)
		assert.Equal(t, s, got)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("no active season", func(t *testing.T) {
		mock.ExpectQuery(`FROM seasons WHERE status = \$1`).WithArgs(season.StatusActive).WillReturnError(pgx.ErrNoRows)

		_, err := repo.GetActive(ctx)
		assert.ErrorIs(t, err, season.ErrNoActiveSeason)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("get unknown", func(t *testing.T) {
		mock.ExpectQuery(`FROM seasons WHERE id = \$1`).WithArgs(int64(9)).WillReturnError(pgx.ErrNoRows)

		_, err := repo.GetByID(ctx, 9)
		assert.ErrorIs(t, err, season.ErrSeasonNotFound{SeasonID: 9})
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("list newest first", func(t *testing.T) {
		mock.ExpectQuery(`FROM seasons ORDER BY start_date DESC`).
			WillReturnRows(pgxmock.NewRows(seasonRowColumns).
				AddRow(int64(3), "Rabi 2024", end, end.AddDate(0, 6, 0), season.StatusUpcoming, s.CreatedAt, s.UpdatedAt).
				AddRow(int64(2), s.Name, start, end, season.StatusActive, s.CreatedAt, s.UpdatedAt))

		seasons, err := repo.List(ctx)
		require.NoError(t, err)
		require.Len(t, seasons, 2)
		assert.Equal(t, season.StatusUpcoming, seasons[0].Status)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("in use", func(t *testing.T) {
		mock.ExpectQuery(`SELECT EXISTS`).WithArgs(int64(2)).
			WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(true))

		used, err := repo.InUse(ctx, 2)
		require.NoError(t, err)
		assert.True(t, used)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("delete", func(t *testing.T) {
		mock.ExpectExec(`DELETE FROM seasons WHERE id = \$1`).WithArgs(int64(3)).
			WillReturnResult(pgxmock.NewResult("DELETE", 1))
		mock.ExpectExec(`DELETE FROM seasons WHERE id = \$1`).WithArgs(int64(3)).
			WillReturnError(errors.New("connection reset"))

		require.NoError(t, repo.Delete(ctx, 3))
		assert.ErrorContains(t, repo.Delete(ctx, 3), "failed to delete season")
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
