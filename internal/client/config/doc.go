// Package config loads runtime configuration for the CircleUp client.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Environment variables, optionally from a .env file in the working
//     directory (see parseEnv).
//  3. Optional JSON file (see parseJson) selected via flags: -c or -config.
//  4. Command-line flags (see parseFlags), which override earlier values.
//
// Supported flags
//
//	-a string     base URL of the API
//	-d string     path of the local SQLite database
//	-p int        feed page size
//	-i int        online status check interval (seconds)
//	-t duration   per-request timeout
//	-l string     log level (debug, info, warn, error)
//
// # Environment
//
//	CIRCLEUP_BASE_URL, CIRCLEUP_DB_PATH, CIRCLEUP_PAGE_SIZE,
//	CIRCLEUP_ONLINE_CHECK_INTERVAL, CIRCLEUP_REQUEST_TIMEOUT,
//	CIRCLEUP_CACHE_RETENTION, CIRCLEUP_BREAKER_FAILURES, CIRCLEUP_LOG_LEVEL
//
// # JSON schema
//
// Durations use timex.Duration, so values can be strings like "3s" or
// integer nanoseconds:
//
//	{
//	  "base_url": "https://api.circleup.example/",
//	  "db_path": "circleup.db",
//	  "page_size": 100,
//	  "online_check_interval": "3s",
//	  "request_timeout": "10s",
//	  "cache_retention": "24h",
//	  "breaker_failures": 3,
//	  "log_level": "info"
//	}
package config
