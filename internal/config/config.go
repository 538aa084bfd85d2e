package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type LogConfig struct {
	Level string `yaml:"level"`
}

type HTTPConfig struct {
	Timeout   time.Duration `yaml:"timeout"`
	UserAgent string        `yaml:"user_agent"`
}

// RateLimitConfig bounds outbound requests across all providers.
type RateLimitConfig struct {
	MaxRPS int           `yaml:"max_rps"`
	Per    time.Duration `yaml:"per"`
}

type RetryConfig struct {
	Attempts  int           `yaml:"attempts"`
	BaseDelay time.Duration `yaml:"base_delay"`
}

type ProviderConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Endpoint string `yaml:"endpoint"`
	Priority int    `yaml:"priority"`
}

type ProvidersConfig struct {
	QQ        ProviderConfig `yaml:"qq"`
	EastMoney ProviderConfig `yaml:"eastmoney"`
}

type UniverseConfig struct {
	Endpoint string `yaml:"endpoint"`
	PageSize int    `yaml:"page_size"`
}

type CalendarConfig struct {
	Path string `yaml:"path"`
}

type SchedulerConfig struct {
	Concurrency int `yaml:"concurrency"`
	// InitialStart is the first date backfilled by an initial load (YYYY-MM-DD).
	InitialStart string `yaml:"initial_start"`
}

// DBConfig holds a Postgres connection. URL, when set, wins over the
// discrete fields.
type DBConfig struct {
	URL      string `yaml:"url"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	SSLMode  string `yaml:"sslmode"`
	MaxConns int    `yaml:"max_conns"`
	MinConns int    `yaml:"min_conns"`
}

type ServerConfig struct {
	Port              string `yaml:"port"`
	RequestTimeoutSec int    `yaml:"request_timeout_sec"`
}

type ExportConfig struct {
	Format string `yaml:"format"`
	Dir    string `yaml:"dir"`
}

type Config struct {
	Log       LogConfig       `yaml:"log"`
	HTTP      HTTPConfig      `yaml:"http"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	Retry     RetryConfig     `yaml:"retry"`
	Providers ProvidersConfig `yaml:"providers"`
	Universe  UniverseConfig  `yaml:"universe"`
	Calendar  CalendarConfig  `yaml:"calendar"`
	Scheduler SchedulerConfig `yaml:"scheduler"`
	Database  DBConfig        `yaml:"database"`
	Server    ServerConfig    `yaml:"server"`
	Export    ExportConfig    `yaml:"export"`
}

func Default() Config {
	return Config{
		Log:       LogConfig{Level: "info"},
		HTTP:      HTTPConfig{Timeout: 10 * time.Second},
		RateLimit: RateLimitConfig{MaxRPS: 5, Per: time.Second},
		Retry:     RetryConfig{Attempts: 3, BaseDelay: 500 * time.Millisecond},
		Providers: ProvidersConfig{
			QQ: ProviderConfig{
				Enabled:  true,
				Endpoint: DefaultQQEndpoint,
				Priority: 10,
			},
			EastMoney: ProviderConfig{
				Enabled:  true,
				Endpoint: DefaultEastMoneyEndpoint,
				Priority: 5,
			},
		},
		Universe:  UniverseConfig{Endpoint: DefaultUniverseEndpoint, PageSize: 500},
		Scheduler: SchedulerConfig{Concurrency: 8, InitialStart: "2015-01-01"},
		Database: DBConfig{
			Host:     "localhost",
			Port:     DefaultDBPort,
			Name:     "ashare",
			User:     "ashare",
			SSLMode:  DefaultDBSSLMode,
			MaxConns: 10,
			MinConns: 1,
		},
		Server: ServerConfig{Port: "8080", RequestTimeoutSec: 10},
		Export: ExportConfig{Format: "csv", Dir: "export"},
	}
}

// Load reads YAML config from path with ${VAR} expansion. If path is empty
// or the file does not exist, it returns defaults. ASHARE_* environment
// variables override the file.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		if _, err := os.Stat("ashare.yaml"); err == nil {
			path = "ashare.yaml"
		}
	}
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return cfg, fmt.Errorf("read config: %w", err)
		}
		if err == nil {
			expanded := os.ExpandEnv(string(b))
			if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
				return cfg, fmt.Errorf("parse config yaml: %w", err)
			}
		}
	}
	if err := applyEnv(&cfg); err != nil {
		return cfg, err
	}
	cfg.applyDefaults()
	return cfg, nil
}

// LoadAndValidate loads config and validates it.
func LoadAndValidate(path string) (Config, error) {
	cfg, err := Load(path)
	if err != nil {
		return cfg, err
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("validate config: %w", err)
	}
	return cfg, nil
}
