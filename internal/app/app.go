// Package app builds the shared infrastructure of the server and scheduler
// binaries from configuration.
package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/segyhp/lending-engine/internal/cache"
	"github.com/segyhp/lending-engine/internal/config"
	"github.com/segyhp/lending-engine/internal/lock"
	"github.com/segyhp/lending-engine/internal/repository"
	"github.com/segyhp/lending-engine/internal/service"
	"github.com/segyhp/lending-engine/pkg/logger"
	"github.com/segyhp/lending-engine/pkg/tracing"
)

type App struct {
	Config  *config.Config
	DB      *sqlx.DB
	Redis   *redis.Client
	Service *service.LoanService

	shutdownTracing tracing.ShutdownFunc
}

// New connects to postgres and, when enabled, redis, then wires the service.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	shutdown, err := tracing.Setup(ctx, cfg.Tracing.ServiceName, cfg.Tracing.Endpoint)
	if err != nil {
		logger.Warn("tracing disabled", zap.Error(err))
	}

	db, err := initDB(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("initializing database: %w", err)
	}

	a := &App{Config: cfg, DB: db, shutdownTracing: shutdown}

	var (
		loanCache cache.LoanCache = cache.NewNoopLoanCache()
		locker    lock.Locker     = lock.NewLocalLocker()
	)
	if cfg.Redis.Enabled {
		a.Redis = initRedis(cfg)
		if err := a.Redis.Ping(ctx).Err(); err != nil {
			a.Close()
			return nil, fmt.Errorf("connecting to redis: %w", err)
		}
		loanCache = cache.NewRedisLoanCache(a.Redis, cfg.Cache.TTL)
		locker = lock.NewRedisLocker(a.Redis, cfg.Lock.TTL, cfg.Lock.TTL)
	} else {
		logger.Warn("redis disabled, using in-process locks without cache")
	}

	a.Service = service.NewLoanService(
		repository.NewLoanRepository(db),
		repository.NewPaymentRepository(db),
		repository.NewProfileRepository(db),
		loanCache,
		locker,
	)

	return a, nil
}

// Close releases connections and flushes pending spans
func (a *App) Close() {
	var errs []error
	if a.Redis != nil {
		errs = append(errs, a.Redis.Close())
	}
	if a.DB != nil {
		errs = append(errs, a.DB.Close())
	}
	if a.shutdownTracing != nil {
		errs = append(errs, a.shutdownTracing(context.Background()))
	}
	if err := errors.Join(errs...); err != nil {
		logger.Error("closing resources", err)
	}
}

func initDB(ctx context.Context, cfg *config.Config) (*sqlx.DB, error) {
	db, err := sqlx.ConnectContext(ctx, "postgres", cfg.Database.DSN())
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	db.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.Database.ConnMaxLifetime)

	if cfg.Database.AutoMigrate {
		if err := repository.Migrate(ctx, db); err != nil {
			db.Close()
			return nil, fmt.Errorf("applying schema: %w", err)
		}
	}

	return db, nil
}

func initRedis(cfg *config.Config) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
}
