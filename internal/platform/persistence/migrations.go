package persistence

import (
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres" // PostgreSQL driver
	_ "github.com/golang-migrate/migrate/v4/source/file"       // File source driver
)

// migrator is the part of *migrate.Migrate the schema upgrade drives
type migrator interface {
	Up() error
	Version() (version uint, dirty bool, err error)
	Close() (source error, database error)
}

var newMigrator = func(sourceURL, databaseURL string) (migrator, error) {
	return migrate.New(sourceURL, databaseURL)
}

// ErrDirtySchema means an earlier migration failed halfway and needs manual repair
var ErrDirtySchema = errors.New("database schema is dirty")

// sourceURL accepts either a plain directory or a file:// URL
func sourceURL(migrationsPath string) (string, error) {
	if strings.HasPrefix(migrationsPath, "file://") {
		return migrationsPath, nil
	}
	abs, err := filepath.Abs(migrationsPath)
	if err != nil {
		return "", fmt.Errorf("failed to resolve migrations path %q: %w", migrationsPath, err)
	}
	return "file://" + filepath.ToSlash(abs), nil
}

// RunMigrations brings the schema at databaseURL up to the newest migration under
// migrationsPath and returns the version it ends on
func RunMigrations(logger *slog.Logger, databaseURL string, migrationsPath string) (uint, error) {
	if migrationsPath == "" {
		return 0, errors.New("migrations path cannot be empty")
	}
	if databaseURL == "" {
		return 0, errors.New("database URL cannot be empty")
	}

	source, err := sourceURL(migrationsPath)
	if err != nil {
		return 0, err
	}

	m, err := newMigrator(source, databaseURL)
	if err != nil {
		return 0, fmt.Errorf("failed to create migrate instance: %w", err)
	}

	version, err := upgrade(m)

	sourceErr, dbErr := m.Close()
	if err != nil {
		return 0, err
	}
	if sourceErr != nil {
		return 0, fmt.Errorf("migration source error: %w", sourceErr)
	}
	if dbErr != nil {
		return 0, fmt.Errorf("migration database error: %w", dbErr)
	}

	logger.Info("Database migrations applied", "source", source, "version", version)
	return version, nil
}

func upgrade(m migrator) (uint, error) {
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return 0, fmt.Errorf("failed to apply migrations: %w", err)
	}

	version, dirty, err := m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read schema version: %w", err)
	}
	if dirty {
		return version, fmt.Errorf("%w at version %d", ErrDirtySchema, version)
	}
	return version, nil
}
