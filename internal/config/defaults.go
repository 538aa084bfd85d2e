package config

import "time"

const (
	DefaultQQEndpoint        = "https://stockapp.finance.qq.com/mstat/appStockRank/AppStockRank.php"
	DefaultEastMoneyEndpoint = "https://push2.eastmoney.com/api/qt/stock/kline/get"
	DefaultUniverseEndpoint  = "https://push2.eastmoney.com/api/qt/clist/get"

	DefaultDBPort    = 5432
	DefaultDBSSLMode = "prefer"
)

// applyDefaults fills zero values that a partial YAML file or env override
// may have left behind.
func (c *Config) applyDefaults() {
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.HTTP.Timeout == 0 {
		c.HTTP.Timeout = 10 * time.Second
	}
	if c.RateLimit.Per == 0 {
		c.RateLimit.Per = time.Second
	}
	if c.Providers.QQ.Endpoint == "" {
		c.Providers.QQ.Endpoint = DefaultQQEndpoint
	}
	if c.Providers.EastMoney.Endpoint == "" {
		c.Providers.EastMoney.Endpoint = DefaultEastMoneyEndpoint
	}
	if c.Universe.Endpoint == "" {
		c.Universe.Endpoint = DefaultUniverseEndpoint
	}
	if c.Universe.PageSize == 0 {
		c.Universe.PageSize = 500
	}
	if c.Scheduler.Concurrency == 0 {
		c.Scheduler.Concurrency = 8
	}
	if c.Server.Port == "" {
		c.Server.Port = "8080"
	}
	if c.Server.RequestTimeoutSec == 0 {
		c.Server.RequestTimeoutSec = 10
	}
	if c.Export.Format == "" {
		c.Export.Format = "csv"
	}
	applyDBDefaults(&c.Database)
}

func applyDBDefaults(db *DBConfig) {
	if db.Port == 0 {
		db.Port = DefaultDBPort
	}
	if db.SSLMode == "" {
		db.SSLMode = DefaultDBSSLMode
	}
	if db.MaxConns == 0 {
		db.MaxConns = 10
	}
}
