package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/parquet-go/parquet-go"
)

// Saver writes one file of rows.
type Saver interface {
	Save(rows []Row, path string) error
	Extension() string
}

// NewSaver returns the saver for format (csv, json, parquet).
func NewSaver(format string) (Saver, error) {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "csv":
		return CSVSaver{}, nil
	case "json":
		return JSONSaver{}, nil
	case "parquet":
		return ParquetSaver{}, nil
	default:
		return nil, fmt.Errorf("export: unsupported format %q (use csv, json or parquet)", format)
	}
}

type CSVSaver struct{}

func (CSVSaver) Extension() string { return "csv" }

var csvHeader = []string{"symbol", "trade_date", "open", "high", "low", "close", "volume", "turnover"}

func (CSVSaver) Save(rows []Row, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(csvHeader); err != nil {
		return err
	}
	ff := func(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) }
	for _, r := range rows {
		rec := []string{r.Symbol, r.TradeDate, ff(r.Open), ff(r.High), ff(r.Low), ff(r.Close), ff(r.Volume), ff(r.Turnover)}
		if err := w.Write(rec); err != nil {
			return err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return err
	}
	return f.Close()
}

// JSONSaver writes an indented JSON array.
type JSONSaver struct{}

func (JSONSaver) Extension() string { return "json" }

func (JSONSaver) Save(rows []Row, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(rows); err != nil {
		return err
	}
	return f.Close()
}

type ParquetSaver struct{}

func (ParquetSaver) Extension() string { return "parquet" }

func (ParquetSaver) Save(rows []Row, path string) error {
	return parquet.WriteFile(path, rows)
}
