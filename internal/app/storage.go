package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/heartmarshall/study-helper/internal/adapter/memory"
	"github.com/heartmarshall/study-helper/internal/adapter/postgres"
	"github.com/heartmarshall/study-helper/internal/adapter/postgres/kvstore"
	"github.com/heartmarshall/study-helper/internal/adapter/sqlite"
	"github.com/heartmarshall/study-helper/internal/config"
	"github.com/heartmarshall/study-helper/internal/service/gateway"
)

// Store is the key/value store behind the persistence gateway.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Update(ctx context.Context, key string, fn func(current []byte) ([]byte, error)) error
	Delete(ctx context.Context, keys ...string) error
	Keys(ctx context.Context) ([]string, error)
	Usage(ctx context.Context) (int64, int, error)
	Ping(ctx context.Context) error
}

// OpenStore opens the store selected by cfg.Driver. The returned func
// releases it.
func OpenStore(ctx context.Context, cfg config.StorageConfig, logger *slog.Logger) (Store, func(), error) {
	switch cfg.Driver {
	case config.DriverMemory:
		logger.Info("using in-memory storage")
		return memory.New(memory.Options{QuotaBytes: cfg.QuotaBytes, EnforceQuota: cfg.EnforceQuota}), func() {}, nil

	case config.DriverSQLite:
		st, err := sqlite.Open(ctx, cfg.SQLitePath, sqlite.Options{QuotaBytes: cfg.QuotaBytes, EnforceQuota: cfg.EnforceQuota})
		if err != nil {
			return nil, nil, fmt.Errorf("open sqlite store: %w", err)
		}
		logger.Info("sqlite storage opened", slog.String("path", st.Path()))
		return st, func() {
			if err := st.Close(); err != nil {
				logger.Error("close sqlite store", slog.String("error", err.Error()))
			}
		}, nil

	case config.DriverPostgres:
		if err := postgres.Migrate(ctx, cfg.DSN); err != nil {
			return nil, nil, fmt.Errorf("migrate database: %w", err)
		}
		pool, err := postgres.NewPool(ctx, cfg)
		if err != nil {
			return nil, nil, fmt.Errorf("connect to database: %w", err)
		}
		logger.Info("postgres storage connected", slog.Int("max_conns", int(cfg.MaxConns)))
		return kvstore.New(pool), pool.Close, nil
	}
	return nil, nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
}

// NewGateway builds the persistence gateway over st.
func NewGateway(cfg *config.Config, st Store, logger *slog.Logger) *gateway.Service {
	return gateway.NewService(logger, st, cfg.Limits, cfg.Storage.QuotaBytes, cfg.Settings.Defaults(), nil)
}

// Prepare writes default settings when none are stored and, when
// sweepDays > 0, removes records older than that many days.
func Prepare(ctx context.Context, gw *gateway.Service, sweepDays int, logger *slog.Logger) error {
	if _, err := gw.InitSettings(ctx); err != nil {
		return fmt.Errorf("init settings: %w", err)
	}
	if sweepDays <= 0 {
		return nil
	}

	res, err := gw.Sweep(ctx, sweepDays)
	if err != nil {
		return fmt.Errorf("sweep old data: %w", err)
	}
	logger.Info("old data swept",
		slog.Int("days", sweepDays),
		slog.Int("removed", res.Removed),
		slog.Int("keys_deleted", res.KeysDeleted),
		slog.Int("keys_failed", res.KeysFailed),
	)
	return nil
}
