// Package eastmoney fetches daily klines from the EastMoney push2 API.
package eastmoney

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"net/url"
	"strconv"
	"strings"
	"time"

	"ashare/internal/httpx"
	"ashare/internal/provider"
	"ashare/internal/provider/ratelimit"
	"ashare/internal/retry"
	"ashare/internal/slogx"
)

const DefaultEndpoint = "https://push2.eastmoney.com/api/qt/stock/kline/get"

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

// New builds the provider. A nil hc makes the provider own its client.
func New(cfg Config, hc *httpx.Client, limiter *ratelimit.Limiter, policy *retry.Policy, logger *slog.Logger) *Provider {
	if cfg.Name == "" {
		cfg.Name = "eastmoney"
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
	compact := day.Format("20060102")
	q := url.Values{}
	q.Set("fields1", "f1,f2,f3,f4,f5,f6")
	q.Set("fields2", "f51,f52,f53,f54,f55,f56,f57")
	q.Set("klt", "101")
	q.Set("fqt", "1")
	q.Set("secid", SecID(symbol))
	q.Set("beg", compact)
	q.Set("end", compact)

	raw, err := p.req.GetJSON(ctx, p.cfg.Endpoint, q)
	if err != nil {
		return nil, fmt.Errorf("%s %s %s: %w", p.cfg.Name, symbol, provider.FormatDay(day), err)
	}
	bar, err := parse(symbol, day, raw)
	if err != nil {
		p.log.Debug("malformed kline", "symbol", symbol, "date", provider.FormatDay(day), "err", err)
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

// SecID maps an exchange-qualified symbol to "<market>.<code>", where market
// is 1 for Shanghai and 0 for Shenzhen and Beijing.
func SecID(symbol string) string {
	code, ex := provider.Exchange(symbol)
	if ex == "SH" {
		return "1." + code
	}
	return "0." + code
}

type response struct {
	Data *struct {
		Code   string            `json:"code"`
		Klines []json.RawMessage `json:"klines"`
	} `json:"data"`
}

func parse(symbol string, day time.Time, raw json.RawMessage) (*provider.Bar, error) {
	var resp response
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	if resp.Data == nil || len(resp.Data.Klines) == 0 {
		return nil, nil
	}
	prefix := provider.FormatDay(day)
	var row string
	for _, k := range resp.Data.Klines {
		var s string
		if err := json.Unmarshal(k, &s); err != nil {
			continue
		}
		if strings.HasPrefix(s, prefix) {
			row = s
			break
		}
	}
	if row == "" {
		return nil, nil
	}

	// date,open,close,high,low,volume,turnover
	parts := strings.Split(row, ",")
	if len(parts) < 7 {
		return nil, fmt.Errorf("kline has %d fields", len(parts))
	}
	var v [6]float64
	for i := range v {
		f, err := strconv.ParseFloat(strings.TrimSpace(parts[i+1]), 64)
		if err != nil {
			return nil, fmt.Errorf("field %d: %w", i+1, err)
		}
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return nil, fmt.Errorf("field %d: non-finite %q", i+1, parts[i+1])
		}
		v[i] = f
	}
	return &provider.Bar{
		Symbol:    symbol,
		TradeDate: day,
		Open:      v[0],
		Close:     v[1],
		High:      v[2],
		Low:       v[3],
		Volume:    v[4],
		Turnover:  v[5],
		Raw:       raw,
	}, nil
}
