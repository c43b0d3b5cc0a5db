package postgres

import (
	"context"
	"fmt"

	"rsi_bot/internal/modules/config"
	"rsi_bot/internal/store"
	"rsi_bot/internal/store/memory"
	"rsi_bot/internal/store/pg"
	"rsi_bot/pkg/db"
	"rsi_bot/pkg/logger"

	"go.uber.org/fx"
)

// NewTxManager: пул к мастеру с проверкой соединения.
func NewTxManager(ctx context.Context, cfg *config.Config) (*db.PgTxManager, error) {
	poolMaster, err := db.NewPool(ctx, db.PoolConfig{
		DSN:      cfg.DB,
		MaxConns: cfg.Store.MaxConns,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create poolMaster: %w", err)
	}

	tm := db.NewPgTxManager(poolMaster)
	if err := tm.Ping(ctx); err != nil {
		tm.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return tm, nil
}

// NewStore: store.driver=memory: хранилище в памяти (dry run, локальные прогоны).
func NewStore(ctx context.Context, lc fx.Lifecycle, cfg *config.Config) (store.Store, error) {
	if cfg.Store.Driver == config.StoreMemory {
		logger.Warn("[STORE] using in-memory store, data is lost on exit")
		return memory.New(), nil
	}

	tm, err := NewTxManager(ctx, cfg)
	if err != nil {
		return nil, err
	}
	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			tm.Close()
			return nil
		},
	})
	return pg.New(tm), nil
}

func Module() fx.Option {
	return fx.Module("postgres",
		fx.Provide(
			NewStore,
		),
	)
}
