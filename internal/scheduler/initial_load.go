package scheduler

import (
	"context"
	"fmt"
	"time"

	"ashare/internal/calendar"
	"ashare/internal/provider"
)

// InitialLoadRequest describes a backfill.
type InitialLoadRequest struct {
	Symbols []string
	Start   time.Time
	End     time.Time
	// Resume fetches only the days that have no stored bar yet.
	Resume bool
}

// InitialLoad walks the trading calendar between Start and End for each
// symbol and writes every bar found for that symbol in one batch. Symbols
// with no data produce no write.
func (s *Scheduler) InitialLoad(ctx context.Context, req InitialLoadRequest) (Report, error) {
	start := time.Now()
	rep := newReport(ModeInitialLoad)
	rep.Symbols = len(req.Symbols)

	days, err := calendar.Load(s.cfg.CalendarPath, req.Start, req.End)
	if err != nil {
		return rep, fmt.Errorf("load calendar: %w", err)
	}
	rep.Dates = len(days)
	s.logger.Info("initial load started",
		"run_id", rep.RunID,
		"symbols", len(req.Symbols),
		"days", len(days),
		"from", provider.FormatDay(req.Start),
		"to", provider.FormatDay(req.End),
		"resume", req.Resume,
	)

	var c counters
	err = s.forEachSymbol(ctx, req.Symbols, func(ctx context.Context, symbol string) error {
		return s.loadSymbol(ctx, symbol, days, req.Resume, &c)
	})

	c.fill(&rep)
	rep.Duration = time.Since(start)
	s.summary(&rep, err)
	return rep, err
}

func (s *Scheduler) loadSymbol(ctx context.Context, symbol string, days []time.Time, resume bool, c *counters) error {
	todo := days
	if resume {
		missing, err := s.store.MissingDailyDates(ctx, symbol, days)
		if err != nil {
			return wrapStore("missing dates", symbol, err)
		}
		c.skipped.Add(int64(len(days) - len(missing)))
		todo = missing
	}

	bars := make([]provider.Bar, 0, len(todo))
	for _, day := range todo {
		if err := ctx.Err(); err != nil {
			return err
		}
		bar := s.fetcher.Fetch(ctx, symbol, day)
		if bar == nil {
			c.missing.Add(1)
			continue
		}
		c.fetched.Add(1)
		bars = append(bars, *bar)
	}
	// a cancelled run must not persist a partial symbol
	if err := ctx.Err(); err != nil {
		return err
	}
	if len(bars) == 0 {
		s.logger.Debug("no bars", "symbol", symbol, "days", len(todo))
		return nil
	}
	if err := s.store.UpsertDailyBars(ctx, bars); err != nil {
		return wrapStore("upsert bars", symbol, err)
	}
	c.written.Add(int64(len(bars)))
	c.batches.Add(1)
	s.logger.Debug("symbol loaded", "symbol", symbol, "bars", len(bars), "days", len(todo))
	return nil
}
