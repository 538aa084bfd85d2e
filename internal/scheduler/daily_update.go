package scheduler

import (
	"context"
	"fmt"
	"time"

	"ashare/internal/provider"
)

// DailyUpdate fetches day for every symbol that has no bar stored for it.
// A nil symbols slice means the tracked universe; an empty non-nil slice
// updates nothing. Symbols already covered cause no network traffic.
func (s *Scheduler) DailyUpdate(ctx context.Context, day time.Time, symbols []string) (Report, error) {
	start := time.Now()
	day = provider.Day(day)
	rep := newReport(ModeDailyUpdate)
	rep.Dates = 1

	if symbols == nil {
		tracked, err := s.store.ListTrackedSymbols(ctx)
		if err != nil {
			err = fmt.Errorf("list symbols: %w", err)
			rep.Duration = time.Since(start)
			s.summary(&rep, err)
			return rep, err
		}
		s.logger.Debug("loaded tracked symbols", "count", len(tracked))
		symbols = tracked
	}
	rep.Symbols = len(symbols)

	var c counters
	err := s.forEachSymbol(ctx, symbols, func(ctx context.Context, symbol string) error {
		return s.updateSymbol(ctx, symbol, day, &c)
	})

	c.fill(&rep)
	rep.Duration = time.Since(start)
	s.summary(&rep, err)
	return rep, err
}

func (s *Scheduler) updateSymbol(ctx context.Context, symbol string, day time.Time, c *counters) error {
	missing, err := s.store.MissingDailyDates(ctx, symbol, []time.Time{day})
	if err != nil {
		return wrapStore("missing dates", symbol, err)
	}
	if len(missing) == 0 {
		c.skipped.Add(1)
		return nil
	}
	bar := s.fetcher.Fetch(ctx, symbol, day)
	if err := ctx.Err(); err != nil {
		return err
	}
	if bar == nil {
		c.missing.Add(1)
		return nil
	}
	c.fetched.Add(1)
	if err := s.store.UpsertDailyBars(ctx, []provider.Bar{*bar}); err != nil {
		return wrapStore("upsert bars", symbol, err)
	}
	c.written.Add(1)
	c.batches.Add(1)
	s.logger.Debug("updated", "symbol", symbol, "date", provider.FormatDay(day))
	return nil
}
