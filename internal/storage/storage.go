// Package storage persists securities, daily bars and adjustment factors.
// Every upsert batch is applied atomically and keyed on the natural key, so
// repeating a write converges to the same state.
package storage

import (
	"context"
	"time"

	"ashare/internal/provider"
)

// Security is one tradable instrument in the universe.
type Security struct {
	Symbol       string     `json:"symbol"`
	Name         string     `json:"name"`
	AssetType    string     `json:"asset_type"`
	ListedDate   *time.Time `json:"listed_date,omitempty"`
	DelistedDate *time.Time `json:"delisted_date,omitempty"`
}

// AdjustmentFactor is a multiplicative corporate-action factor for one day.
type AdjustmentFactor struct {
	Symbol    string    `json:"symbol"`
	TradeDate time.Time `json:"trade_date"`
	Factor    float64   `json:"factor"`
}

// Store is the persistence contract used by the loaders and the read API.
type Store interface {
	Migrate(ctx context.Context) error

	UpsertSecurities(ctx context.Context, securities []Security) error
	UpsertDailyBars(ctx context.Context, bars []provider.Bar) error
	UpsertAdjustmentFactors(ctx context.Context, factors []AdjustmentFactor) error

	// ListTrackedSymbols returns every known symbol in lexicographic order.
	ListTrackedSymbols(ctx context.Context) ([]string, error)
	ListSecurities(ctx context.Context) ([]Security, error)
	// MissingDailyDates returns the candidates that have no stored bar for
	// symbol, in input order without duplicates.
	MissingDailyDates(ctx context.Context, symbol string, candidates []time.Time) ([]time.Time, error)
	DailyBars(ctx context.Context, symbol string, from, to time.Time) ([]provider.Bar, error)
	AdjustmentFactors(ctx context.Context, symbol string, from, to time.Time) ([]AdjustmentFactor, error)

	Close()
}

// missingFrom keeps the candidates whose ISO date is not in present.
func missingFrom(candidates []time.Time, present map[string]struct{}) []time.Time {
	out := make([]time.Time, 0, len(candidates))
	seen := make(map[string]struct{}, len(candidates))
	for _, c := range candidates {
		key := provider.FormatDay(c)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		if _, ok := present[key]; ok {
			continue
		}
		out = append(out, provider.Day(c))
	}
	return out
}

func isoDates(ts []time.Time) []string {
	out := make([]string, len(ts))
	for i, t := range ts {
		out[i] = provider.FormatDay(t)
	}
	return out
}

func optionalDate(t *time.Time) *string {
	if t == nil || t.IsZero() {
		return nil
	}
	s := provider.FormatDay(*t)
	return &s
}

func parseOptionalDate(s *string) (*time.Time, error) {
	if s == nil || *s == "" {
		return nil, nil
	}
	t, err := provider.ParseDay(*s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
