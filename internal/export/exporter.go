package export

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"ashare/internal/provider"
	"ashare/internal/slogx"
)

// BarReader reads stored bars for one symbol.
type BarReader interface {
	DailyBars(ctx context.Context, symbol string, from, to time.Time) ([]provider.Bar, error)
}

// Exporter writes one file per symbol into Dir.
type Exporter struct {
	Reader BarReader
	Saver  Saver
	Dir    string
	Logger *slog.Logger
}

// Export writes <dir>/<symbol>.<ext> for every symbol that has bars in the
// range and returns the paths written.
func (e *Exporter) Export(ctx context.Context, symbols []string, from, to time.Time) ([]string, error) {
	log := slogx.OrDefault(e.Logger)
	if err := os.MkdirAll(e.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("create export dir: %w", err)
	}
	var paths []string
	for _, sym := range symbols {
		if err := ctx.Err(); err != nil {
			return paths, err
		}
		bars, err := e.Reader.DailyBars(ctx, sym, from, to)
		if err != nil {
			return paths, fmt.Errorf("read %s: %w", sym, err)
		}
		if len(bars) == 0 {
			log.Debug("nothing to export", "symbol", sym)
			continue
		}
		path := filepath.Join(e.Dir, sym+"."+e.Saver.Extension())
		if err := e.Saver.Save(RowsFromBars(bars), path); err != nil {
			return paths, fmt.Errorf("save %s: %w", path, err)
		}
		log.Info("exported", "symbol", sym, "bars", len(bars), "path", path)
		paths = append(paths, path)
	}
	return paths, nil
}
