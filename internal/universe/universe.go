// Package universe lists every A-share security from the EastMoney clist
// endpoint so it can be stored as the tracked set.
package universe

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
	"strings"

	"ashare/internal/provider"
	"ashare/internal/slogx"
	"ashare/internal/storage"
)

const (
	DefaultEndpoint = "https://push2.eastmoney.com/api/qt/clist/get"
	DefaultPageSize = 500

	// maxPages stops a misbehaving endpoint that never returns an empty page.
	maxPages = 1000
)

type Config struct {
	Endpoint string
	PageSize int
}

// Lister pages through the listing endpoint until it runs dry.
type Lister struct {
	cfg    Config
	client provider.JSONGetter
	logger *slog.Logger
}

func New(cfg Config, client provider.JSONGetter, logger *slog.Logger) *Lister {
	if cfg.Endpoint == "" {
		cfg.Endpoint = DefaultEndpoint
	}
	if cfg.PageSize <= 0 {
		cfg.PageSize = DefaultPageSize
	}
	return &Lister{cfg: cfg, client: client, logger: slogx.OrDefault(logger)}
}

type page struct {
	Data *struct {
		Total int    `json:"total"`
		Diff  []item `json:"diff"`
	} `json:"data"`
}

type item struct {
	Code   string          `json:"f12"`
	Market json.RawMessage `json:"f13"`
	Name   string          `json:"f14"`
}

// List returns every security across all pages. Entries missing a code,
// name or market are dropped.
func (l *Lister) List(ctx context.Context) ([]storage.Security, error) {
	var out []storage.Security
	for pn := 1; pn <= maxPages; pn++ {
		q := url.Values{}
		q.Set("pn", strconv.Itoa(pn))
		q.Set("pz", strconv.Itoa(l.cfg.PageSize))
		q.Set("po", "1")
		q.Set("np", "1")
		q.Set("ut", "bd1d9ddb04089700cf9c27f6f7426281")
		q.Set("fltt", "2")
		q.Set("invt", "2")
		q.Set("fid", "f62")
		q.Set("fs", "m:1,m:0")
		q.Set("fields", "f12,f13,f14")

		raw, err := l.client.GetJSON(ctx, l.cfg.Endpoint, q)
		if err != nil {
			return nil, fmt.Errorf("list page %d: %w", pn, err)
		}
		var p page
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, fmt.Errorf("decode page %d: %w", pn, err)
		}
		if p.Data == nil || len(p.Data.Diff) == 0 {
			break
		}
		for _, it := range p.Data.Diff {
			if sec, ok := toSecurity(it); ok {
				out = append(out, sec)
			}
		}
		l.logger.Debug("universe page", "page", pn, "items", len(p.Data.Diff), "total", p.Data.Total)
	}
	l.logger.Info("universe listed", "securities", len(out))
	return out, nil
}

func toSecurity(it item) (storage.Security, bool) {
	code := strings.TrimSpace(it.Code)
	name := strings.TrimSpace(it.Name)
	market := strings.Trim(strings.TrimSpace(string(it.Market)), `"`)
	if code == "" || name == "" || market == "" || market == "null" {
		return storage.Security{}, false
	}
	return storage.Security{
		Symbol:    code + "." + exchange(market, code),
		Name:      name,
		AssetType: "stock",
	}, true
}

// exchange maps the clist market id: 1 is Shanghai, 0 covers Shenzhen and
// the Beijing codes listed alongside it.
func exchange(market, code string) string {
	if market == "1" {
		return "SH"
	}
	if provider.InferExchange(code) == "BJ" {
		return "BJ"
	}
	return "SZ"
}
