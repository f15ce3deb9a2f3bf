package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

const envPrefix = "CIRCLEUP_"

// parseEnv overlays Config with CIRCLEUP_* environment variables. A .env file
// in the working directory is loaded first if it exists; variables already
// set in the process environment win over it. Malformed numbers and
// durations are ignored.
func parseEnv(cfg *Config) {
	_ = godotenv.Load()

	cfg.BaseURL = getEnv("BASE_URL", cfg.BaseURL)
	cfg.DBPath = getEnv("DB_PATH", cfg.DBPath)
	cfg.PageSize = getIntEnv("PAGE_SIZE", cfg.PageSize)
	cfg.OnlineCheckInterval = getDurationEnv("ONLINE_CHECK_INTERVAL", cfg.OnlineCheckInterval)
	cfg.RequestTimeout = getDurationEnv("REQUEST_TIMEOUT", cfg.RequestTimeout)
	cfg.CacheRetention = getDurationEnv("CACHE_RETENTION", cfg.CacheRetention)
	cfg.BreakerFailures = getIntEnv("BREAKER_FAILURES", cfg.BreakerFailures)
	cfg.LogLevel = getEnv("LOG_LEVEL", cfg.LogLevel)
}

func getEnv(key, def string) string {
	if v := os.Getenv(envPrefix + key); v != "" {
		return v
	}
	return def
}

func getIntEnv(key string, def int) int {
	if v := os.Getenv(envPrefix + key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func getDurationEnv(key string, def time.Duration) time.Duration {
	if v := os.Getenv(envPrefix + key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}
