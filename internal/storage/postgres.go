package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"ashare/internal/provider"
	"ashare/internal/slogx"
)

const schema = `
CREATE TABLE IF NOT EXISTS securities (
	symbol        TEXT PRIMARY KEY,
	name          TEXT NOT NULL,
	asset_type    TEXT NOT NULL,
	listed_date   TEXT,
	delisted_date TEXT
);

CREATE TABLE IF NOT EXISTS daily_bars (
	symbol      TEXT NOT NULL,
	trade_date  TEXT NOT NULL,
	open        DOUBLE PRECISION NOT NULL,
	high        DOUBLE PRECISION NOT NULL,
	low         DOUBLE PRECISION NOT NULL,
	close       DOUBLE PRECISION NOT NULL,
	volume      DOUBLE PRECISION NOT NULL,
	turnover    DOUBLE PRECISION NOT NULL,
	raw_payload TEXT,
	PRIMARY KEY (symbol, trade_date)
);

CREATE TABLE IF NOT EXISTS adjustment_factors (
	symbol     TEXT NOT NULL,
	trade_date TEXT NOT NULL,
	factor     DOUBLE PRECISION NOT NULL,
	PRIMARY KEY (symbol, trade_date)
);
`

const (
	upsertSecuritySQL = `
		INSERT INTO securities (symbol, name, asset_type, listed_date, delisted_date)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (symbol) DO UPDATE SET
			name = EXCLUDED.name,
			asset_type = EXCLUDED.asset_type,
			listed_date = EXCLUDED.listed_date,
			delisted_date = EXCLUDED.delisted_date`

	upsertDailyBarSQL = `
		INSERT INTO daily_bars (symbol, trade_date, open, high, low, close, volume, turnover, raw_payload)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (symbol, trade_date) DO UPDATE SET
			open = EXCLUDED.open,
			high = EXCLUDED.high,
			low = EXCLUDED.low,
			close = EXCLUDED.close,
			volume = EXCLUDED.volume,
			turnover = EXCLUDED.turnover,
			raw_payload = EXCLUDED.raw_payload`

	upsertFactorSQL = `
		INSERT INTO adjustment_factors (symbol, trade_date, factor)
		VALUES ($1, $2, $3)
		ON CONFLICT (symbol, trade_date) DO UPDATE SET
			factor = EXCLUDED.factor`
)

// Postgres is the pgx-backed Store.
type Postgres struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

var _ Store = (*Postgres)(nil)

func NewPostgres(pool *pgxpool.Pool, logger *slog.Logger) *Postgres {
	return &Postgres{pool: pool, logger: slogx.OrDefault(logger)}
}

// Migrate creates the tables when they do not exist yet.
func (s *Postgres) Migrate(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

func (s *Postgres) UpsertSecurities(ctx context.Context, securities []Security) error {
	if len(securities) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, sec := range securities {
		batch.Queue(upsertSecuritySQL,
			sec.Symbol, sec.Name, sec.AssetType,
			optionalDate(sec.ListedDate), optionalDate(sec.DelistedDate))
	}
	return s.sendAtomic(ctx, "securities", batch)
}

func (s *Postgres) UpsertDailyBars(ctx context.Context, bars []provider.Bar) error {
	if len(bars) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, b := range bars {
		var raw *string
		if len(b.Raw) > 0 {
			r := string(b.Raw)
			raw = &r
		}
		batch.Queue(upsertDailyBarSQL,
			b.Symbol, provider.FormatDay(b.TradeDate),
			b.Open, b.High, b.Low, b.Close, b.Volume, b.Turnover, raw)
	}
	return s.sendAtomic(ctx, "daily_bars", batch)
}

func (s *Postgres) UpsertAdjustmentFactors(ctx context.Context, factors []AdjustmentFactor) error {
	if len(factors) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, f := range factors {
		batch.Queue(upsertFactorSQL, f.Symbol, provider.FormatDay(f.TradeDate), f.Factor)
	}
	return s.sendAtomic(ctx, "adjustment_factors", batch)
}

// sendAtomic runs the whole batch in one transaction.
func (s *Postgres) sendAtomic(ctx context.Context, table string, batch *pgx.Batch) error {
	start := time.Now()
	n := batch.Len()
	err := pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		return tx.SendBatch(ctx, batch).Close()
	})
	if err != nil {
		return fmt.Errorf("upsert %s (%d rows): %w", table, n, err)
	}
	s.logger.Debug("upserted", "table", table, "count", n, "duration", time.Since(start))
	return nil
}

func (s *Postgres) ListTrackedSymbols(ctx context.Context) ([]string, error) {
	rows, err := s.pool.Query(ctx, `SELECT symbol FROM securities ORDER BY symbol COLLATE "C"`)
	if err != nil {
		return nil, fmt.Errorf("list symbols: %w", err)
	}
	symbols, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("list symbols: %w", err)
	}
	return symbols, nil
}

func (s *Postgres) ListSecurities(ctx context.Context) ([]Security, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT symbol, name, asset_type, listed_date, delisted_date
		FROM securities ORDER BY symbol COLLATE "C"`)
	if err != nil {
		return nil, fmt.Errorf("list securities: %w", err)
	}
	defer rows.Close()

	var out []Security
	for rows.Next() {
		var (
			sec              Security
			listed, delisted *string
		)
		if err := rows.Scan(&sec.Symbol, &sec.Name, &sec.AssetType, &listed, &delisted); err != nil {
			return nil, fmt.Errorf("scan security: %w", err)
		}
		if sec.ListedDate, err = parseOptionalDate(listed); err != nil {
			return nil, fmt.Errorf("security %s listed_date: %w", sec.Symbol, err)
		}
		if sec.DelistedDate, err = parseOptionalDate(delisted); err != nil {
			return nil, fmt.Errorf("security %s delisted_date: %w", sec.Symbol, err)
		}
		out = append(out, sec)
	}
	return out, rows.Err()
}

func (s *Postgres) MissingDailyDates(ctx context.Context, symbol string, candidates []time.Time) ([]time.Time, error) {
	if len(candidates) == 0 {
		return nil, nil
	}
	rows, err := s.pool.Query(ctx,
		`SELECT trade_date FROM daily_bars WHERE symbol = $1 AND trade_date = ANY($2)`,
		symbol, isoDates(candidates))
	if err != nil {
		return nil, fmt.Errorf("missing dates %s: %w", symbol, err)
	}
	have, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("missing dates %s: %w", symbol, err)
	}
	present := make(map[string]struct{}, len(have))
	for _, d := range have {
		present[d] = struct{}{}
	}
	return missingFrom(candidates, present), nil
}

func (s *Postgres) DailyBars(ctx context.Context, symbol string, from, to time.Time) ([]provider.Bar, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT trade_date, open, high, low, close, volume, turnover, raw_payload
		FROM daily_bars
		WHERE symbol = $1 AND trade_date >= $2 AND trade_date <= $3
		ORDER BY trade_date`,
		symbol, provider.FormatDay(from), provider.FormatDay(to))
	if err != nil {
		return nil, fmt.Errorf("daily bars %s: %w", symbol, err)
	}
	defer rows.Close()

	var out []provider.Bar
	for rows.Next() {
		var (
			b    = provider.Bar{Symbol: symbol}
			date string
			raw  *string
		)
		if err := rows.Scan(&date, &b.Open, &b.High, &b.Low, &b.Close, &b.Volume, &b.Turnover, &raw); err != nil {
			return nil, fmt.Errorf("scan bar: %w", err)
		}
		if b.TradeDate, err = provider.ParseDay(date); err != nil {
			return nil, fmt.Errorf("bar %s trade_date: %w", symbol, err)
		}
		if raw != nil && json.Valid([]byte(*raw)) {
			b.Raw = json.RawMessage(*raw)
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func (s *Postgres) AdjustmentFactors(ctx context.Context, symbol string, from, to time.Time) ([]AdjustmentFactor, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT trade_date, factor FROM adjustment_factors
		WHERE symbol = $1 AND trade_date >= $2 AND trade_date <= $3
		ORDER BY trade_date`,
		symbol, provider.FormatDay(from), provider.FormatDay(to))
	if err != nil {
		return nil, fmt.Errorf("adjustment factors %s: %w", symbol, err)
	}
	defer rows.Close()

	var out []AdjustmentFactor
	for rows.Next() {
		var (
			f    = AdjustmentFactor{Symbol: symbol}
			date string
		)
		if err := rows.Scan(&date, &f.Factor); err != nil {
			return nil, fmt.Errorf("scan factor: %w", err)
		}
		if f.TradeDate, err = provider.ParseDay(date); err != nil {
			return nil, fmt.Errorf("factor %s trade_date: %w", symbol, err)
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

func (s *Postgres) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}
