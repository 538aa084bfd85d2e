// Package fetcher tries providers in priority order and normalizes the
// first bar any of them returns.
package fetcher

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"time"

	"golang.org/x/sync/singleflight"

	"ashare/internal/provider"
	"ashare/internal/slogx"
)

//go:generate mockgen -package=fetcher -destination=mock_provider_test.go ashare/internal/provider Provider

// Fetcher holds providers sorted once by descending priority. Ties keep
// their construction order.
type Fetcher struct {
	providers []provider.Provider
	log       *slog.Logger
	group     singleflight.Group
}

func New(providers []provider.Provider, logger *slog.Logger) *Fetcher {
	ps := make([]provider.Provider, 0, len(providers))
	for _, p := range providers {
		if p != nil {
			ps = append(ps, p)
		}
	}
	sort.SliceStable(ps, func(i, j int) bool { return ps[i].Priority() > ps[j].Priority() })
	return &Fetcher{providers: ps, log: slogx.OrDefault(logger)}
}

// Providers returns the providers in the order they are tried.
func (f *Fetcher) Providers() []provider.Provider {
	out := make([]provider.Provider, len(f.providers))
	copy(out, f.providers)
	return out
}

// Fetch returns the first usable bar for symbol on day, or nil when every
// provider was absent or failed. It never returns an error; provider
// failures are logged and skipped. Concurrent calls for the same key share
// one lookup.
func (f *Fetcher) Fetch(ctx context.Context, symbol string, day time.Time) *provider.Bar {
	day = provider.Day(day)
	key := symbol + "|" + provider.FormatDay(day)
	v, _, _ := f.group.Do(key, func() (any, error) {
		return f.fetch(ctx, symbol, day), nil
	})
	bar, _ := v.(*provider.Bar)
	if bar == nil {
		return nil
	}
	// callers may hold the same shared result
	out := *bar
	return &out
}

func (f *Fetcher) fetch(ctx context.Context, symbol string, day time.Time) *provider.Bar {
	for _, p := range f.providers {
		if ctx.Err() != nil {
			return nil
		}
		bar, err := p.FetchDaily(ctx, symbol, day)
		if err != nil {
			f.log.Warn("provider failed", "provider", p.Name(), "symbol", symbol, "date", provider.FormatDay(day), "err", err)
			continue
		}
		if bar == nil {
			f.log.Debug("provider has no data", "provider", p.Name(), "symbol", symbol, "date", provider.FormatDay(day))
			continue
		}
		if bar.Source == "" {
			bar.Source = p.Name()
		}
		Normalize(bar)
		return bar
	}
	return nil
}

// Normalize fixes up a bar in place: a zero or non-finite open falls back to
// close, high and low are widened to cover open and close (a non-finite raw
// high or low is ignored), and volume and turnover are clamped to
// non-negative values.
func Normalize(b *provider.Bar) {
	if b.Open == 0 || !finite(b.Open) {
		b.Open = b.Close
	}
	high, low := max(b.Open, b.Close), min(b.Open, b.Close)
	if finite(b.High) {
		high = max(high, b.High)
	}
	if finite(b.Low) {
		low = min(low, b.Low)
	}
	b.High, b.Low = high, low
	b.Volume = nonNegative(b.Volume)
	b.Turnover = nonNegative(b.Turnover)
}

func finite(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }

func nonNegative(v float64) float64 {
	if !finite(v) || v < 0 {
		return 0
	}
	return v
}

// Close closes every provider and joins their errors.
func (f *Fetcher) Close() error {
	var errs []error
	for _, p := range f.providers {
		if err := p.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close %s: %w", p.Name(), err))
		}
	}
	return errors.Join(errs...)
}
