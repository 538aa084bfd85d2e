package provider

import (
	"context"
	"encoding/json"
	"strings"
	"time"
)

// DateLayout is the ISO-8601 calendar date layout used on the wire and in storage.
const DateLayout = "2006-01-02"

// Bar is the normalized daily price record returned by all providers.
// TradeDate is always a UTC midnight; Raw keeps the source payload for audit.
type Bar struct {
	Symbol    string          `json:"symbol"`
	TradeDate time.Time       `json:"trade_date"`
	Open      float64         `json:"open"`
	High      float64         `json:"high"`
	Low       float64         `json:"low"`
	Close     float64         `json:"close"`
	Volume    float64         `json:"volume"`
	Turnover  float64         `json:"turnover"`
	Source    string          `json:"source,omitempty"`
	Raw       json.RawMessage `json:"raw,omitempty"`
}

// Provider fetches one (symbol, date) bar from a single external source.
//
// FetchDaily returns (nil, nil) when the source has no usable record for the
// day; an error means the source itself failed after its own retries.
type Provider interface {
	Name() string
	Priority() int
	FetchDaily(ctx context.Context, symbol string, day time.Time) (*Bar, error)
	Close() error
}

// Day truncates t to its calendar date at UTC midnight.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseDay parses an ISO date (YYYY-MM-DD).
func ParseDay(s string) (time.Time, error) {
	return time.ParseInLocation(DateLayout, strings.TrimSpace(s), time.UTC)
}

// FormatDay renders t as YYYY-MM-DD.
func FormatDay(t time.Time) string { return t.Format(DateLayout) }
