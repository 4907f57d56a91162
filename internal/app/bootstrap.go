package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/odyssey-erp/companydir/internal/company"
	"github.com/odyssey-erp/companydir/internal/observability"
	"github.com/odyssey-erp/companydir/internal/platform/cache"
	"github.com/odyssey-erp/companydir/internal/platform/db"
)

// TagBus publishes invalidated tags and delivers them to listeners.
type TagBus interface {
	Invalidate(ctx context.Context, tags ...string) error
	Listen(ctx context.Context, fn func(tag string)) error
}

// Runtime holds the collaborators shared by the dashboard and the worker.
type Runtime struct {
	Service *company.Service
	Store   company.Store
	Bus     TagBus
	Pool    *pgxpool.Pool
	Redis   *redis.Client

	logger *slog.Logger
}

// Bootstrap connects the configured store and cache and builds the
// repository facade over them.
func Bootstrap(ctx context.Context, cfg *Config, logger *slog.Logger, metrics *observability.Metrics) (*Runtime, error) {
	rt := &Runtime{logger: logger}

	switch cfg.StoreDriver {
	case StoreDriverMemory:
		rt.Store = company.NewMemoryStore()
	case StoreDriverPostgres:
		pool, err := db.New(ctx, cfg.PGDSN, db.Options{})
		if err != nil {
			return nil, fmt.Errorf("connect database: %w", err)
		}
		rt.Pool = pool
		pg := company.NewPGStore(pool)
		if err := pg.Migrate(ctx); err != nil {
			rt.Close()
			return nil, fmt.Errorf("migrate companies: %w", err)
		}
		rt.Store = pg
	default:
		return nil, fmt.Errorf("unknown STORE_DRIVER %q", cfg.StoreDriver)
	}

	svcCfg := company.ServiceConfig{Logger: logger}
	if cfg.CacheEnabled {
		client, err := cache.New(ctx, cfg.RedisAddr)
		if err != nil {
			rt.Close()
			return nil, fmt.Errorf("connect redis: %w", err)
		}
		rt.Redis = client
		tags := cache.NewTagCache(client, cfg.CacheTTL)
		rt.Bus = tags
		svcCfg.Cache = tags
	} else {
		rt.Bus = cache.NewLocalBus()
	}
	svcCfg.Invalidator = observedInvalidator{next: rt.Bus, metrics: metrics}
	rt.Service = company.NewService(rt.Store, svcCfg)

	if cfg.SeedOnStart {
		if err := rt.seed(ctx, cfg.SeedDatasetPath); err != nil {
			rt.Close()
			return nil, err
		}
	}
	return rt, nil
}

func (rt *Runtime) seed(ctx context.Context, path string) error {
	dataset, err := company.LoadDataset(path)
	if err != nil {
		return err
	}
	n, err := rt.Service.Reseed(ctx, dataset)
	if err != nil {
		return fmt.Errorf("seed companies: %w", err)
	}
	rt.logger.Info("seeded companies", slog.Int("count", n))
	return nil
}

// Ready pings the store and cache connections.
func (rt *Runtime) Ready(r *http.Request) error {
	var errs []error
	if rt.Pool != nil {
		errs = append(errs, rt.Pool.Ping(r.Context()))
	}
	if rt.Redis != nil {
		errs = append(errs, rt.Redis.Ping(r.Context()).Err())
	}
	return errors.Join(errs...)
}

// Close releases connections.
func (rt *Runtime) Close() {
	if rt.Redis != nil {
		if err := rt.Redis.Close(); err != nil {
			rt.logger.Warn("redis close", slog.Any("error", err))
		}
	}
	if rt.Pool != nil {
		rt.Pool.Close()
	}
}

// observedInvalidator counts invalidated tags before publishing them.
type observedInvalidator struct {
	next    company.Invalidator
	metrics *observability.Metrics
}

func (o observedInvalidator) Invalidate(ctx context.Context, tags ...string) error {
	for _, tag := range tags {
		o.metrics.ObserveInvalidation(tag)
	}
	return o.next.Invalidate(ctx, tags...)
}
