package backend

import (
	"context"
	"fmt"

	"footprint/internal/core"
	"footprint/internal/factors"
	applog "footprint/internal/log"
	"footprint/internal/storage"
	"footprint/internal/store/memory"
)

type DefaultFactory struct {
	logger *applog.Logger
}

func NewFactory(logger *applog.Logger) Factory {
	if logger == nil {
		logger = applog.New(applog.DefaultConfig())
	}
	return &DefaultFactory{logger: logger.WithComponent(applog.ComponentBackend)}
}

// Create opens the configured store and makes sure it holds reference factors.
func (f *DefaultFactory) Create(ctx context.Context, config Config) (*Result, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	table, err := factors.Load(config.FactorsFile)
	if err != nil {
		return nil, fmt.Errorf("load emission factors: %w", err)
	}

	switch config.Type {
	case SQLiteBackend:
		return f.createSQLite(ctx, config, table)
	case MemoryBackend:
		st := memory.New(table)
		f.logger.InfoContext(ctx, "Initialized memory backend", "factors", len(table))
		return &Result{Store: st, Cleanup: st.Close}, nil
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
}

func (f *DefaultFactory) createSQLite(ctx context.Context, config Config, table []core.EmissionFactor) (*Result, error) {
	repo, err := storage.NewSQLiteRepository(config.SQLiteDBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
	}

	seeded, err := repo.SeedFactors(ctx, table)
	if err != nil {
		repo.Close()
		return nil, fmt.Errorf("seed emission factors: %w", err)
	}

	f.logger.InfoContext(ctx, "Initialized SQLite backend",
		applog.FieldOperation, applog.OpImport,
		"db_path", config.SQLiteDBPath,
		"factors_seeded", seeded)

	return &Result{
		Store:   repo,
		Ready:   repo.Ping,
		Cleanup: repo.Close,
	}, nil
}
