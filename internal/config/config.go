// Package config provides configuration loading from environment variables.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Markets scanned by default. Each market has its own endpoint group and
// field set upstream.
var DefaultMarkets = []string{
	"stock", "forex", "crypto", "futures", "cfd", "bonds", "etf", "index", "economics",
}

// Config holds all configuration for the generator.
type Config struct {
	ScannerBaseURL    string        // SCANNER_BASE_URL, default "https://scanner.tradingview.com"
	ServerURL         string        // SPEC_SERVER_URL, server URL written into specs (defaults to base URL)
	HTTPClientTimeout time.Duration // HTTP_CLIENT_TIMEOUT_MS, default 15000ms
	RequestsPerSecond float64       // REQUESTS_PER_SECOND, default 2
	RateBurst         int           // RATE_BURST, default 4
	MaxRetries        int           // MAX_RETRIES, default 3
	RetryDelayMs      time.Duration // RETRY_DELAY_MS, default 1000ms
	FetchWorkers      int           // FETCH_WORKERS, default 4
	ScanSampleRows    int           // SCAN_SAMPLE_ROWS, default 5
	Markets           []string      // MARKETS, comma separated, default DefaultMarkets

	SpecTitle   string // SPEC_TITLE, default "Unofficial TradingView Scanner API"
	SpecVersion string // SPEC_VERSION, default "1.0.0"
	OutputDir   string // OUTPUT_DIR, default "specs"
	DataDir     string // DATA_DIR, default "data"
	Format      string // SPEC_FORMAT, "yaml" or "json", default "yaml"

	// Logging configuration
	LogLevel      string // LOG_LEVEL, default "info"
	LogFile       string // LOG_FILE, default "" (stderr only)
	LogMaxSizeMB  int    // LOG_MAX_SIZE_MB, default 10
	LogMaxBackups int    // LOG_MAX_BACKUPS, default 3
	LogMaxAgeDays int    // LOG_MAX_AGE_DAYS, default 28
	LogCompress   bool   // LOG_COMPRESS, default true
}

// Load reads configuration from environment variables with sensible defaults.
func Load() *Config {
	baseURL := getEnvString("SCANNER_BASE_URL", "https://scanner.tradingview.com")
	return &Config{
		ScannerBaseURL:    baseURL,
		ServerURL:         getEnvString("SPEC_SERVER_URL", baseURL),
		HTTPClientTimeout: getEnvDurationMs("HTTP_CLIENT_TIMEOUT_MS", 15000),
		RequestsPerSecond: getEnvFloat("REQUESTS_PER_SECOND", 2),
		RateBurst:         getEnvInt("RATE_BURST", 4),
		MaxRetries:        getEnvInt("MAX_RETRIES", 3),
		RetryDelayMs:      getEnvDurationMs("RETRY_DELAY_MS", 1000),
		FetchWorkers:      getEnvInt("FETCH_WORKERS", 4),
		ScanSampleRows:    getEnvInt("SCAN_SAMPLE_ROWS", 5),
		Markets:           getEnvStrings("MARKETS", DefaultMarkets),

		SpecTitle:   getEnvString("SPEC_TITLE", "Unofficial TradingView Scanner API"),
		SpecVersion: getEnvString("SPEC_VERSION", "1.0.0"),
		OutputDir:   getEnvString("OUTPUT_DIR", "specs"),
		DataDir:     getEnvString("DATA_DIR", "data"),
		Format:      getEnvString("SPEC_FORMAT", "yaml"),

		LogLevel:      getEnvString("LOG_LEVEL", "info"),
		LogFile:       getEnvString("LOG_FILE", ""),
		LogMaxSizeMB:  getEnvInt("LOG_MAX_SIZE_MB", 10),
		LogMaxBackups: getEnvInt("LOG_MAX_BACKUPS", 3),
		LogMaxAgeDays: getEnvInt("LOG_MAX_AGE_DAYS", 28),
		LogCompress:   getEnvBool("LOG_COMPRESS", true),
	}
}

func getEnvBool(key string, defaultVal bool) bool {
	if v := os.Getenv(key); v != "" {
		switch v {
		case "1", "true", "yes", "on":
			return true
		case "0", "false", "no", "off":
			return false
		}
	}
	return defaultVal
}

func getEnvString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvStrings(key string, defaultVal []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return defaultVal
	}
	return out
}

func getEnvInt(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvFloat(key string, defaultVal float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return defaultVal
}

func getEnvDurationMs(key string, defaultMs int) time.Duration {
	ms := getEnvInt(key, defaultMs)
	return time.Duration(ms) * time.Millisecond
}
