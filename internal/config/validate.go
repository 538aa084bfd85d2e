package config

import (
	"errors"
	"fmt"
	"time"
)

// Validate checks that all required fields are set and values are valid.
func (c *Config) Validate() error {
	if c.HTTP.Timeout <= 0 {
		return errors.New("http.timeout must be > 0")
	}
	if c.RateLimit.MaxRPS < 1 {
		return fmt.Errorf("rate_limit.max_rps must be >= 1, got %d", c.RateLimit.MaxRPS)
	}
	if c.RateLimit.Per <= 0 {
		return errors.New("rate_limit.per must be > 0")
	}
	if c.Retry.Attempts < 1 {
		return fmt.Errorf("retry.attempts must be >= 1, got %d", c.Retry.Attempts)
	}
	if c.Retry.BaseDelay < 0 {
		return errors.New("retry.base_delay must be >= 0")
	}
	if !c.Providers.QQ.Enabled && !c.Providers.EastMoney.Enabled {
		return errors.New("providers: at least one provider must be enabled")
	}
	if c.Scheduler.Concurrency < 1 {
		return errors.New("scheduler.concurrency must be >= 1")
	}
	if c.Scheduler.InitialStart != "" {
		if _, err := time.Parse("2006-01-02", c.Scheduler.InitialStart); err != nil {
			return fmt.Errorf("scheduler.initial_start must be YYYY-MM-DD, got %q", c.Scheduler.InitialStart)
		}
	}
	if c.Universe.PageSize < 1 {
		return errors.New("universe.page_size must be >= 1")
	}
	switch c.Export.Format {
	case "csv", "json", "parquet":
	default:
		return fmt.Errorf("export.format must be csv, json or parquet, got %q", c.Export.Format)
	}
	return c.Database.validate("database")
}

func (db *DBConfig) validate(prefix string) error {
	if db.MaxConns < 1 {
		return fmt.Errorf("%s.max_conns must be >= 1", prefix)
	}
	if db.MinConns < 0 {
		return fmt.Errorf("%s.min_conns must be >= 0", prefix)
	}
	if db.MinConns > db.MaxConns {
		return fmt.Errorf("%s.min_conns (%d) cannot exceed max_conns (%d)", prefix, db.MinConns, db.MaxConns)
	}
	if db.URL != "" {
		return nil
	}
	if db.Host == "" {
		return fmt.Errorf("%s.host is required", prefix)
	}
	if db.Name == "" {
		return fmt.Errorf("%s.name is required", prefix)
	}
	if db.User == "" {
		return fmt.Errorf("%s.user is required", prefix)
	}
	return nil
}
