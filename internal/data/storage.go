// Package data opens the system of record selected by configuration.
package data

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/crop-trade-ledger/internal/config"
	"github.com/crop-trade-ledger/internal/data/memory"
	"github.com/crop-trade-ledger/internal/data/postgres"
	"github.com/crop-trade-ledger/internal/domain/unitofwork"
	"github.com/crop-trade-ledger/internal/platform/persistence"
)

// Storage is the unit of work both services post and read through
type Storage struct {
	UnitOfWork unitofwork.UnitOfWork
	Driver     string
	close      func()
}

// Open connects to Postgres and applies migrations, or builds an in-memory store
func Open(ctx context.Context, logger *slog.Logger, cfg *config.Config) (*Storage, error) {
	switch cfg.Storage.Driver {
	case config.StorageDriverMemory:
		logger.Warn("Using in-memory storage; nothing survives a restart")
		return &Storage{UnitOfWork: memory.NewStore(), Driver: cfg.Storage.Driver, close: func() {}}, nil

	case config.StorageDriverPostgres:
		db, err := persistence.NewPostgresDB(ctx, logger, &cfg.Postgres)
		if err != nil {
			return nil, err
		}
		return &Storage{UnitOfWork: postgres.NewUnitOfWork(logger, db), Driver: cfg.Storage.Driver, close: db.Close}, nil
	}
	return nil, fmt.Errorf("unsupported storage driver %q", cfg.Storage.Driver)
}

func (s *Storage) Close() {
	s.close()
}
