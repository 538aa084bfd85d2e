package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// applyEnv overrides cfg from ASHARE_* variables. Durations accept Go
// syntax ("750ms") or plain seconds ("0.5").
func applyEnv(cfg *Config) error {
	if v := os.Getenv("ASHARE_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("ASHARE_DATABASE"); v != "" {
		cfg.Database.URL = v
	}
	if v := os.Getenv("ASHARE_DB_PASSWORD"); v != "" {
		cfg.Database.Password = v
	}
	if v := os.Getenv("ASHARE_QQ_ENDPOINT"); v != "" {
		cfg.Providers.QQ.Endpoint = v
	}
	if v := os.Getenv("ASHARE_EASTMONEY_ENDPOINT"); v != "" {
		cfg.Providers.EastMoney.Endpoint = v
	}
	if v := os.Getenv("ASHARE_CALENDAR"); v != "" {
		cfg.Calendar.Path = v
	}
	if v := os.Getenv("PORT"); v != "" {
		cfg.Server.Port = v
	}
	if v := os.Getenv("ASHARE_HTTP_TIMEOUT"); v != "" {
		d, err := parseSeconds(v)
		if err != nil {
			return fmt.Errorf("ASHARE_HTTP_TIMEOUT: %w", err)
		}
		cfg.HTTP.Timeout = d
	}
	if v := os.Getenv("ASHARE_RETRY_BASE_DELAY"); v != "" {
		d, err := parseSeconds(v)
		if err != nil {
			return fmt.Errorf("ASHARE_RETRY_BASE_DELAY: %w", err)
		}
		cfg.Retry.BaseDelay = d
	}
	for name, dst := range map[string]*int{
		"ASHARE_MAX_RPS":            &cfg.RateLimit.MaxRPS,
		"ASHARE_RETRY_ATTEMPTS":     &cfg.Retry.Attempts,
		"ASHARE_CONCURRENCY":        &cfg.Scheduler.Concurrency,
		"ASHARE_QQ_PRIORITY":        &cfg.Providers.QQ.Priority,
		"ASHARE_EASTMONEY_PRIORITY": &cfg.Providers.EastMoney.Priority,
	} {
		v := os.Getenv(name)
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
		*dst = n
	}
	return nil
}

func parseSeconds(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if d, err := time.ParseDuration(s); err == nil {
		return d, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid duration %q", s)
	}
	return time.Duration(f * float64(time.Second)), nil
}
