// Package qq fetches daily bars from the Tencent quote service.
package qq

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"ashare/internal/httpx"
	"ashare/internal/provider"
	"ashare/internal/provider/ratelimit"
	"ashare/internal/retry"
	"ashare/internal/slogx"
)

const DefaultEndpoint = "https://stockapp.finance.qq.com/mstat/appStockRank/AppStockRank.php"

type Config struct {
	Name     string
	Priority int
	Endpoint string
	Timeout  time.Duration
}

type Provider struct {
	cfg    Config
	req    provider.Requester
	client *httpx.Client
	owns   bool
	log    *slog.Logger
}

// New builds the provider. When hc is nil the provider creates and owns its
// own client; an injected client is never closed by Close.
func New(cfg Config, hc *httpx.Client, limiter *ratelimit.Limiter, policy *retry.Policy, logger *slog.Logger) *Provider {
	if cfg.Name == "" {
		cfg.Name = "qq"
	}
	if cfg.Endpoint == "" {
		cfg.Endpoint = DefaultEndpoint
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	owns := hc == nil
	if owns {
		hc = httpx.New(cfg.Timeout)
	}
	return &Provider{
		cfg:    cfg,
		req:    provider.Requester{Client: hc, Limiter: limiter, Retry: policy},
		client: hc,
		owns:   owns,
		log:    slogx.OrDefault(logger).With("provider", cfg.Name),
	}
}

func (p *Provider) Name() string  { return p.cfg.Name }
func (p *Provider) Priority() int { return p.cfg.Priority }

func (p *Provider) FetchDaily(ctx context.Context, symbol string, day time.Time) (*provider.Bar, error) {
	day = provider.Day(day)
	q := url.Values{}
	q.Set("page", "1")
	q.Set("pageSize", "1")
	q.Set("reqDay", provider.FormatDay(day))
	q.Set("symbol", Symbol(symbol))

	raw, err := p.req.GetJSON(ctx, p.cfg.Endpoint, q)
	if err != nil {
		return nil, fmt.Errorf("%s %s %s: %w", p.cfg.Name, symbol, provider.FormatDay(day), err)
	}
	bar, err := parse(symbol, day, raw)
	if err != nil {
		p.log.Debug("incomplete payload", "symbol", symbol, "date", provider.FormatDay(day), "err", err)
		return nil, nil
	}
	if bar != nil {
		bar.Source = p.cfg.Name
	}
	return bar, nil
}

func (p *Provider) Close() error {
	if p.owns {
		p.client.CloseIdleConnections()
	}
	return nil
}

// Symbol maps "600000.SH" to the source's "sh600000" form.
func Symbol(symbol string) string {
	code, ex := provider.Exchange(symbol)
	return strings.ToLower(ex) + code
}

type envelope struct {
	Data json.RawMessage `json:"data"`
}

// parse returns (nil, nil) when the payload carries no record and an error
// when the record is present but unusable.
func parse(symbol string, day time.Time, raw json.RawMessage) (*provider.Bar, error) {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("decode envelope: %w", err)
	}
	data := strings.TrimSpace(string(env.Data))
	if data == "" || data == "null" || data == "{}" || data == "[]" || data == `""` {
		return nil, nil
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(env.Data, &fields); err != nil {
		return nil, fmt.Errorf("decode data: %w", err)
	}
	if diff, ok := fields["diff"]; ok {
		var rows []map[string]json.RawMessage
		if err := json.Unmarshal(diff, &rows); err == nil && len(rows) > 0 {
			fields = rows[0]
		}
	}

	var prices [4]float64
	for i, keys := range [][]string{
		{"open", "openPrice"},
		{"high", "highest"},
		{"low", "lowest"},
		{"close", "price"},
	} {
		v, ok, err := provider.FirstFloat(fields, keys...)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, fmt.Errorf("missing %s", keys[0])
		}
		prices[i] = v
	}
	volume, _, err := provider.FirstFloat(fields, "volume", "vol")
	if err != nil {
		return nil, err
	}
	turnover, _, err := provider.FirstFloat(fields, "turnover", "turn")
	if err != nil {
		return nil, err
	}

	return &provider.Bar{
		Symbol:    symbol,
		TradeDate: day,
		Open:      prices[0],
		High:      prices[1],
		Low:       prices[2],
		Close:     prices[3],
		Volume:    volume,
		Turnover:  turnover,
		Raw:       raw,
	}, nil
}
