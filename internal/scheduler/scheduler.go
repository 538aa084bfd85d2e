// Package scheduler drives the backfill and the incremental daily update.
// Each symbol is one task; tasks run concurrently up to a limit and share
// the providers' rate limiter. A storage failure aborts the run, a fetch
// miss never does.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"ashare/internal/provider"
	"ashare/internal/slogx"
)

// Store is the slice of storage the scheduler needs.
//
//go:generate mockgen -package=scheduler -destination=mock_deps_test.go -source=scheduler.go Store Fetcher
type Store interface {
	ListTrackedSymbols(ctx context.Context) ([]string, error)
	MissingDailyDates(ctx context.Context, symbol string, candidates []time.Time) ([]time.Time, error)
	UpsertDailyBars(ctx context.Context, bars []provider.Bar) error
}

// Fetcher returns a normalized bar or nil when no source has one.
type Fetcher interface {
	Fetch(ctx context.Context, symbol string, day time.Time) *provider.Bar
}

type Config struct {
	// Concurrency caps how many symbols are processed at once.
	Concurrency int
	// CalendarPath optionally names a file of trading days.
	CalendarPath string
}

type Mode string

const (
	ModeInitialLoad Mode = "initial_load"
	ModeDailyUpdate Mode = "daily_update"
)

// Report summarizes one run.
type Report struct {
	RunID    string        `json:"run_id"`
	Mode     Mode          `json:"mode"`
	Symbols  int           `json:"symbols"`
	Dates    int           `json:"dates"`
	Skipped  int64         `json:"skipped"`
	Fetched  int64         `json:"fetched"`
	Missing  int64         `json:"missing"`
	Written  int64         `json:"written"`
	Batches  int64         `json:"batches"`
	Duration time.Duration `json:"duration"`
}

type Scheduler struct {
	cfg     Config
	store   Store
	fetcher Fetcher
	logger  *slog.Logger
}

func New(cfg Config, store Store, fetcher Fetcher, logger *slog.Logger) *Scheduler {
	if cfg.Concurrency < 1 {
		cfg.Concurrency = 1
	}
	return &Scheduler{cfg: cfg, store: store, fetcher: fetcher, logger: slogx.OrDefault(logger)}
}

// counters are shared by the tasks of one run.
type counters struct {
	skipped, fetched, missing, written, batches atomic.Int64
}

func (c *counters) fill(r *Report) {
	r.Skipped = c.skipped.Load()
	r.Fetched = c.fetched.Load()
	r.Missing = c.missing.Load()
	r.Written = c.written.Load()
	r.Batches = c.batches.Load()
}

// forEachSymbol runs task for every symbol with bounded concurrency. The
// first task error cancels the rest and is returned.
func (s *Scheduler) forEachSymbol(ctx context.Context, symbols []string, task func(ctx context.Context, symbol string) error) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.Concurrency)
	for _, sym := range symbols {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error { return task(gctx, sym) })
	}
	if err := g.Wait(); err != nil {
		return err
	}
	return ctx.Err()
}

func (s *Scheduler) summary(r *Report, err error) {
	attrs := []any{
		"run_id", r.RunID,
		"mode", r.Mode,
		"symbols", r.Symbols,
		"dates", r.Dates,
		"skipped", r.Skipped,
		"fetched", r.Fetched,
		"missing", r.Missing,
		"written", r.Written,
		"batches", r.Batches,
		"duration", r.Duration,
	}
	if err != nil {
		s.logger.Error("run aborted", append(attrs, "err", err)...)
		return
	}
	s.logger.Info("run complete", attrs...)
}

func wrapStore(op, symbol string, err error) error {
	return fmt.Errorf("%s %s: %w", op, symbol, err)
}

func newReport(mode Mode) Report {
	return Report{RunID: uuid.NewString(), Mode: mode}
}
