// Package app wires the ashare components together. The providers here are
// consumed by Wire in cmd/ashare and called directly by the smaller tools.
package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/wire"
	"github.com/jackc/pgx/v5/pgxpool"

	"ashare/internal/config"
	"ashare/internal/export"
	"ashare/internal/fetcher"
	"ashare/internal/httpx"
	"ashare/internal/provider"
	"ashare/internal/provider/eastmoney"
	"ashare/internal/provider/qq"
	"ashare/internal/provider/ratelimit"
	"ashare/internal/retry"
	"ashare/internal/scheduler"
	"ashare/internal/slogx"
	"ashare/internal/storage"
	"ashare/internal/universe"
)

// ConfigPath is the YAML file to load; empty means defaults plus env.
type ConfigPath string

// FetchSet builds everything needed to fetch bars, without a database.
var FetchSet = wire.NewSet(
	ProvideConfig,
	ProvideLogger,
	ProvideHTTPClient,
	ProvideLimiter,
	ProvideRetryPolicy,
	ProvideProviders,
	ProvideFetcher,
)

// StoreSet opens the database.
var StoreSet = wire.NewSet(
	ProvidePool,
	ProvideStore,
)

// LoaderSet adds the scheduler, universe lister and export saver.
var LoaderSet = wire.NewSet(
	FetchSet,
	StoreSet,
	ProvideScheduler,
	ProvideUniverse,
	ProvideSaver,
	wire.Bind(new(scheduler.Store), new(*storage.Postgres)),
	wire.Bind(new(scheduler.Fetcher), new(*fetcher.Fetcher)),
)

// ProvideConfig loads and validates config (for Wire).
func ProvideConfig(path ConfigPath) (config.Config, error) {
	return config.LoadAndValidate(string(path))
}

// ProvideLogger builds the process logger and installs it as the default.
func ProvideLogger(cfg config.Config) *slog.Logger {
	l := slogx.NewDefault(cfg.Log.Level)
	slog.SetDefault(l)
	return l
}

// ProvideHTTPClient builds the client shared by every provider. Providers
// borrow it, so closing a provider leaves it usable.
func ProvideHTTPClient(cfg config.Config) (*httpx.Client, func()) {
	hc := httpx.New(cfg.HTTP.Timeout)
	if cfg.HTTP.UserAgent != "" {
		hc.UserAgent = cfg.HTTP.UserAgent
	}
	return hc, hc.CloseIdleConnections
}

// ProvideLimiter builds the single limiter all providers share.
func ProvideLimiter(cfg config.Config) (*ratelimit.Limiter, error) {
	return ratelimit.New(cfg.RateLimit.MaxRPS, cfg.RateLimit.Per)
}

func ProvideRetryPolicy(cfg config.Config) (*retry.Policy, error) {
	return retry.New(cfg.Retry.Attempts, cfg.Retry.BaseDelay)
}

// ProvideProviders builds the enabled providers.
func ProvideProviders(cfg config.Config, hc *httpx.Client, limiter *ratelimit.Limiter, policy *retry.Policy, logger *slog.Logger) []provider.Provider {
	logger.Debug("outbound limits",
		"permits", limiter.Rate(),
		"per", limiter.Per(),
		"retry_attempts", policy.Attempts(),
		"retry_base_delay", policy.BaseDelay(),
	)
	var ps []provider.Provider
	if c := cfg.Providers.QQ; c.Enabled {
		ps = append(ps, qq.New(qq.Config{
			Endpoint: c.Endpoint,
			Priority: c.Priority,
			Timeout:  cfg.HTTP.Timeout,
		}, hc, limiter, policy, logger))
	}
	if c := cfg.Providers.EastMoney; c.Enabled {
		ps = append(ps, eastmoney.New(eastmoney.Config{
			Endpoint: c.Endpoint,
			Priority: c.Priority,
			Timeout:  cfg.HTTP.Timeout,
		}, hc, limiter, policy, logger))
	}
	return ps
}

// ProvideFetcher builds the fallback fetcher; the cleanup closes providers.
func ProvideFetcher(providers []provider.Provider, logger *slog.Logger) (*fetcher.Fetcher, func()) {
	f := fetcher.New(providers, logger)
	return f, func() {
		if err := f.Close(); err != nil {
			logger.Warn("close providers", "err", err)
		}
	}
}

// ProvidePool connects to Postgres (for Wire).
func ProvidePool(ctx context.Context, cfg config.Config) (*pgxpool.Pool, func(), error) {
	pool, err := storage.Connect(ctx, cfg.Database)
	if err != nil {
		return nil, nil, fmt.Errorf("connect database: %w", err)
	}
	return pool, pool.Close, nil
}

func ProvideStore(pool *pgxpool.Pool, logger *slog.Logger) *storage.Postgres {
	return storage.NewPostgres(pool, logger)
}

func ProvideScheduler(cfg config.Config, store scheduler.Store, f scheduler.Fetcher, logger *slog.Logger) *scheduler.Scheduler {
	return scheduler.New(scheduler.Config{
		Concurrency:  cfg.Scheduler.Concurrency,
		CalendarPath: cfg.Calendar.Path,
	}, store, f, logger)
}

// ProvideUniverse builds the lister. Its page requests share the providers'
// limiter and retry policy.
func ProvideUniverse(cfg config.Config, hc *httpx.Client, limiter *ratelimit.Limiter, policy *retry.Policy, logger *slog.Logger) *universe.Lister {
	return universe.New(universe.Config{
		Endpoint: cfg.Universe.Endpoint,
		PageSize: cfg.Universe.PageSize,
	}, &provider.Requester{Client: hc, Limiter: limiter, Retry: policy}, logger)
}

// ProvideSaver returns the export saver for the configured format.
func ProvideSaver(cfg config.Config) (export.Saver, error) {
	return export.NewSaver(cfg.Export.Format)
}
