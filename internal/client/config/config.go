package config

import (
	"time"

	"github.com/circleup/circleup/internal/common"
)

// Config holds runtime settings for the CircleUp client.
type Config struct {
	// BaseURL is the root of the REST API; endpoints are resolved against it.
	BaseURL string
	DBPath  string

	PageSize            int
	OnlineCheckInterval time.Duration
	RequestTimeout      time.Duration
	CacheRetention      time.Duration

	// BreakerFailures is the number of consecutive remote failures that
	// opens the circuit breaker. Zero disables the breaker.
	BreakerFailures int

	LogLevel string
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.BaseURL = "http://127.0.0.1:3000/"
	c.DBPath = "circleup.db"
	c.PageSize = 100
	c.OnlineCheckInterval = 3 * time.Second
	c.RequestTimeout = 10 * time.Second
	c.CacheRetention = common.DefaultCacheRetention
	c.BreakerFailures = 3
	c.LogLevel = "info"
}

// LoadConfig constructs a Config, applies defaults, then overlays values from
// the environment, JSON (if present) and command-line flags (if present).
// Later sources take precedence over earlier ones.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseEnv(cfg)
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}
