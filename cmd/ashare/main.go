// Command ashare loads A-share daily bars into Postgres.
//
//	ashare [-config ashare.yaml] <command> [flags]
//
// Commands: migrate, universe, init, daily, export.
package main

import (
	"context"
	"encoding/json"
	"errors"
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
	"ashare/internal/config"
	"ashare/internal/export"
	"ashare/internal/fetcher"
	"ashare/internal/provider"
	"ashare/internal/scheduler"
	"ashare/internal/slogx"
	"ashare/internal/storage"
	"ashare/internal/universe"
)

// App holds application dependencies built by Wire.
type App struct {
	Config    config.Config
	Logger    *slog.Logger
	Store     *storage.Postgres
	Fetcher   *fetcher.Fetcher
	Scheduler *scheduler.Scheduler
	Universe  *universe.Lister
	Saver     export.Saver
}

type command struct {
	name  string
	usage string
	run   func(ctx context.Context, a *App, args []string) error
}

var commands = []command{
	{"migrate", "create tables", runMigrate},
	{"universe", "refresh the securities table from EastMoney", runUniverse},
	{"init", "backfill daily bars over a date range", runInit},
	{"daily", "fetch one day for symbols that are missing it", runDaily},
	{"export", "write stored bars to files", runExport},
}

func init() {
	slog.SetDefault(slogx.NewDefault("info"))
}

func main() {
	_ = godotenv.Load()

	fs := flag.NewFlagSet("ashare", flag.ExitOnError)
	configPath := fs.String("config", os.Getenv("ASHARE_CONFIG"), "path to YAML config (optional)")
	fs.Usage = usage(fs)
	_ = fs.Parse(os.Args[1:])
	if fs.NArg() == 0 {
		fs.Usage()
		os.Exit(2)
	}

	cmd, ok := lookup(fs.Arg(0))
	if !ok {
		fmt.Fprintf(os.Stderr, "unknown command %q\n", fs.Arg(0))
		fs.Usage()
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, cleanup, err := InitializeApp(ctx, app.ConfigPath(*configPath))
	if err != nil {
		slog.Error("failed to initialize app", "error", err)
		os.Exit(1)
	}

	err = cmd.run(ctx, a, fs.Args()[1:])
	cleanup()
	if err != nil {
		if errors.Is(err, context.Canceled) {
			slog.Warn("interrupted", "command", cmd.name)
			os.Exit(130)
		}
		slog.Error("command failed", "command", cmd.name, "error", err)
		os.Exit(1)
	}
}

func lookup(name string) (command, bool) {
	for _, c := range commands {
		if c.name == name {
			return c, true
		}
	}
	return command{}, false
}

func usage(fs *flag.FlagSet) func() {
	return func() {
		fmt.Fprintf(os.Stderr, "usage: ashare [-config path] <command> [flags]\n\ncommands:\n")
		for _, c := range commands {
			fmt.Fprintf(os.Stderr, "  %-9s %s\n", c.name, c.usage)
		}
		fmt.Fprintln(os.Stderr)
		fs.PrintDefaults()
	}
}

func runMigrate(ctx context.Context, a *App, _ []string) error {
	if err := a.Store.Migrate(ctx); err != nil {
		return err
	}
	a.Logger.Info("schema ready")
	return nil
}

func runUniverse(ctx context.Context, a *App, args []string) error {
	fs := flag.NewFlagSet("universe", flag.ExitOnError)
	dryRun := fs.Bool("dry-run", false, "list securities without writing them")
	_ = fs.Parse(args)

	secs, err := a.Universe.List(ctx)
	if err != nil {
		return err
	}
	if *dryRun {
		return printJSON(secs)
	}
	if err := a.Store.UpsertSecurities(ctx, secs); err != nil {
		return err
	}
	a.Logger.Info("universe stored", "securities", len(secs))
	return nil
}

func runInit(ctx context.Context, a *App, args []string) error {
	fs := flag.NewFlagSet("init", flag.ExitOnError)
	start := fs.String("start", a.Config.Scheduler.InitialStart, "first date (YYYY-MM-DD)")
	end := fs.String("end", "", "last date (YYYY-MM-DD), default today")
	symbolsCSV := fs.String("symbols", "", "comma-separated symbols, default all tracked")
	resume := fs.Bool("resume", false, "skip days already stored")
	_ = fs.Parse(args)

	from, err := provider.ParseDay(*start)
	if err != nil {
		return fmt.Errorf("-start: %w", err)
	}
	to, err := parseDayOr(*end, calendar.Today())
	if err != nil {
		return fmt.Errorf("-end: %w", err)
	}
	if to.Before(from) {
		return fmt.Errorf("-end %s is before -start %s", provider.FormatDay(to), provider.FormatDay(from))
	}

	symbols := splitCSV(*symbolsCSV)
	if len(symbols) == 0 {
		if symbols, err = a.Store.ListTrackedSymbols(ctx); err != nil {
			return err
		}
	}
	if len(symbols) == 0 {
		return errors.New("no symbols: run `ashare universe` first or pass -symbols")
	}

	rep, err := a.Scheduler.InitialLoad(ctx, scheduler.InitialLoadRequest{
		Symbols: symbols,
		Start:   from,
		End:     to,
		Resume:  *resume,
	})
	if err != nil {
		return err
	}
	return printJSON(rep)
}

func runDaily(ctx context.Context, a *App, args []string) error {
	fs := flag.NewFlagSet("daily", flag.ExitOnError)
	date := fs.String("date", "", "trade date (YYYY-MM-DD), default today in Shanghai")
	symbolsCSV := fs.String("symbols", "", "comma-separated symbols, default all tracked")
	_ = fs.Parse(args)

	day, err := parseDayOr(*date, calendar.Today())
	if err != nil {
		return fmt.Errorf("-date: %w", err)
	}
	// nil selects every tracked symbol
	var symbols []string
	if list := splitCSV(*symbolsCSV); len(list) > 0 {
		symbols = list
	}
	rep, err := a.Scheduler.DailyUpdate(ctx, day, symbols)
	if err != nil {
		return err
	}
	return printJSON(rep)
}

func runExport(ctx context.Context, a *App, args []string) error {
	fs := flag.NewFlagSet("export", flag.ExitOnError)
	from := fs.String("from", a.Config.Scheduler.InitialStart, "first date (YYYY-MM-DD)")
	to := fs.String("to", "", "last date (YYYY-MM-DD), default today")
	dir := fs.String("dir", a.Config.Export.Dir, "output directory")
	symbolsCSV := fs.String("symbols", "", "comma-separated symbols, default all tracked")
	_ = fs.Parse(args)

	start, err := provider.ParseDay(*from)
	if err != nil {
		return fmt.Errorf("-from: %w", err)
	}
	end, err := parseDayOr(*to, calendar.Today())
	if err != nil {
		return fmt.Errorf("-to: %w", err)
	}
	symbols := splitCSV(*symbolsCSV)
	if len(symbols) == 0 {
		if symbols, err = a.Store.ListTrackedSymbols(ctx); err != nil {
			return err
		}
	}

	e := &export.Exporter{Reader: a.Store, Saver: a.Saver, Dir: *dir, Logger: a.Logger}
	started := time.Now()
	paths, err := e.Export(ctx, symbols, start, end)
	if err != nil {
		return err
	}
	a.Logger.Info("export complete", "files", len(paths), "dir", *dir, "duration", time.Since(started))
	return nil
}

func parseDayOr(s string, def time.Time) (time.Time, error) {
	if strings.TrimSpace(s) == "" {
		return def, nil
	}
	return provider.ParseDay(s)
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
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
