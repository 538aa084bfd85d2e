// Command fetch pulls one day of bars through the provider fallback chain
// and prints them, without touching the database.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"ashare/internal/app"
	"ashare/internal/calendar"
	"ashare/internal/fetcher"
	"ashare/internal/provider"
)

func main() {
	_ = godotenv.Load()

	var (
		symbolsCSV string
		date       string
		only       string
		configPath string
	)
	flag.StringVar(&symbolsCSV, "symbols", getenv("SYMBOLS", "600000.SH,000001.SZ"), "comma-separated symbols")
	flag.StringVar(&date, "date", "", "trade date (YYYY-MM-DD), default today in Shanghai")
	flag.StringVar(&only, "provider", "", "query only this provider (qq or eastmoney)")
	flag.StringVar(&configPath, "config", getenv("ASHARE_CONFIG", ""), "path to YAML config (optional)")
	flag.Parse()

	day := calendar.Today()
	if date != "" {
		var err error
		if day, err = provider.ParseDay(date); err != nil {
			fatal("invalid -date", err)
		}
	}

	cfg, err := app.ProvideConfig(app.ConfigPath(configPath))
	if err != nil {
		fatal("config", err)
	}
	logger := app.ProvideLogger(cfg)

	hc, closeHTTP := app.ProvideHTTPClient(cfg)
	defer closeHTTP()
	limiter, err := app.ProvideLimiter(cfg)
	if err != nil {
		fatal("rate limit", err)
	}
	policy, err := app.ProvideRetryPolicy(cfg)
	if err != nil {
		fatal("retry", err)
	}
	providers := selectProviders(app.ProvideProviders(cfg, hc, limiter, policy, logger), only)
	if len(providers) == 0 {
		fatal("no providers enabled", fmt.Errorf("provider filter %q", only))
	}
	f, closeFetcher := app.ProvideFetcher(providers, logger)
	defer closeFetcher()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	bars := fetchAll(ctx, f, splitCSV(symbolsCSV), day)
	logger.Info("fetch complete", "date", provider.FormatDay(day), "bars", len(bars))

	out := struct {
		Date string         `json:"date"`
		Bars []provider.Bar `json:"bars"`
	}{Date: provider.FormatDay(day), Bars: bars}
	b, _ := json.MarshalIndent(out, "", "  ")
	fmt.Println(string(b))
}

func fetchAll(ctx context.Context, f *fetcher.Fetcher, symbols []string, day time.Time) []provider.Bar {
	bars := make([]provider.Bar, 0, len(symbols))
	for _, s := range symbols {
		if b := f.Fetch(ctx, s, day); b != nil {
			bars = append(bars, *b)
		}
	}
	return bars
}

func selectProviders(ps []provider.Provider, name string) []provider.Provider {
	if name == "" {
		return ps
	}
	var out []provider.Provider
	for _, p := range ps {
		if strings.EqualFold(p.Name(), name) {
			out = append(out, p)
		} else {
			_ = p.Close()
		}
	}
	return out
}

func fatal(msg string, err error) {
	slog.Error(msg, "error", err)
	os.Exit(1)
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

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
