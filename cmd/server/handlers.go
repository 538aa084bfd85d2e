package main

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"ashare/internal/calendar"
	"ashare/internal/provider"
	"ashare/internal/storage"
)

//go:generate mockgen -package=main -destination=mock_store_test.go -source=handlers.go barStore

// barStore is the read side of storage.Store used by the API.
type barStore interface {
	ListSecurities(ctx context.Context) ([]storage.Security, error)
	DailyBars(ctx context.Context, symbol string, from, to time.Time) ([]provider.Bar, error)
}

const (
	maxSymbols     = 200
	latestLookback = 30 * 24 * time.Hour
)

type handler struct {
	store   barStore
	timeout time.Duration
	logger  *slog.Logger
	today   func() time.Time
}

type securitiesResponse struct {
	Securities []storage.Security `json:"securities"`
}

type barsResponse struct {
	Symbol string         `json:"symbol"`
	Bars   []provider.Bar `json:"bars"`
}

type latestResponse struct {
	Latest []provider.Bar `json:"latest"`
}

func (h *handler) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	mux.HandleFunc("GET /api/securities", h.handleSecurities)
	mux.HandleFunc("GET /api/bars", h.handleBars)
	mux.HandleFunc("GET /api/latest", h.handleLatest)
	return mux
}

func (h *handler) requestContext(r *http.Request) (context.Context, context.CancelFunc) {
	if h.timeout <= 0 {
		return context.WithCancel(r.Context())
	}
	return context.WithTimeout(r.Context(), h.timeout)
}

func (h *handler) now() time.Time {
	if h.today != nil {
		return h.today()
	}
	return calendar.Today()
}

func (h *handler) handleSecurities(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.requestContext(r)
	defer cancel()
	secs, err := h.store.ListSecurities(ctx)
	if err != nil {
		h.fail(w, "list securities", err)
		return
	}
	if secs == nil {
		secs = []storage.Security{}
	}
	writeJSON(w, securitiesResponse{Securities: secs})
}

// handleBars serves /api/bars?symbol=600000.SH&from=2024-01-01&to=2024-01-31.
// from defaults to to minus 30 days and to defaults to today.
func (h *handler) handleBars(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	symbol := strings.TrimSpace(q.Get("symbol"))
	if symbol == "" {
		http.Error(w, "missing symbol query param", http.StatusBadRequest)
		return
	}
	to, err := dayParam(q.Get("to"), h.now())
	if err != nil {
		http.Error(w, "invalid to: "+err.Error(), http.StatusBadRequest)
		return
	}
	from, err := dayParam(q.Get("from"), to.Add(-latestLookback))
	if err != nil {
		http.Error(w, "invalid from: "+err.Error(), http.StatusBadRequest)
		return
	}
	if to.Before(from) {
		http.Error(w, "to is before from", http.StatusBadRequest)
		return
	}

	ctx, cancel := h.requestContext(r)
	defer cancel()
	bars, err := h.store.DailyBars(ctx, symbol, from, to)
	if err != nil {
		h.fail(w, "daily bars", err)
		return
	}
	if bars == nil {
		bars = []provider.Bar{}
	}
	writeJSON(w, barsResponse{Symbol: symbol, Bars: bars})
}

// handleLatest serves /api/latest?symbols=a,b with the newest stored bar
// per symbol. Symbols with nothing in the lookback window are left out.
func (h *handler) handleLatest(w http.ResponseWriter, r *http.Request) {
	symbols := splitCSV(r.URL.Query().Get("symbols"))
	if len(symbols) == 0 {
		http.Error(w, "missing symbols query param", http.StatusBadRequest)
		return
	}
	if len(symbols) > maxSymbols {
		http.Error(w, "too many symbols (max 200)", http.StatusBadRequest)
		return
	}

	ctx, cancel := h.requestContext(r)
	defer cancel()
	to := h.now()
	from := to.Add(-latestLookback)
	latest := make([]*provider.Bar, len(symbols))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(8)
	for i, symbol := range symbols {
		g.Go(func() error {
			bars, err := h.store.DailyBars(gctx, symbol, from, to)
			if err != nil {
				return err
			}
			if n := len(bars); n > 0 {
				latest[i] = &bars[n-1]
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		h.fail(w, "latest bars", err)
		return
	}

	resp := latestResponse{Latest: []provider.Bar{}}
	for _, b := range latest {
		if b != nil {
			resp.Latest = append(resp.Latest, *b)
		}
	}
	writeJSON(w, resp)
}

func (h *handler) fail(w http.ResponseWriter, op string, err error) {
	h.logger.Error("request failed", "op", op, "error", err)
	http.Error(w, op+" failed", http.StatusInternalServerError)
}

func dayParam(s string, def time.Time) (time.Time, error) {
	if strings.TrimSpace(s) == "" {
		return def, nil
	}
	return provider.ParseDay(s)
}

// writeJSON encodes before writing so an unencodable value becomes a 500
// instead of a 200 with a truncated body.
func writeJSON(w http.ResponseWriter, v any) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		http.Error(w, "encode response failed", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

func splitCSV(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
