// Package config defines the fetch-run configuration and its loading.
package config

import (
	"time"

	"github.com/brdatalab/sgsfetch/pkg/sgs"
)

// Config contains process configuration. Every constant the fetch
// procedure used to hardcode (date range, group size, processing
// limit, throttle delay) lives here instead.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogPretty enables human-readable console output.
	LogPretty bool `koanf:"log_pretty"`

	// Input is the path of the codes CSV (header row, code column).
	Input string `koanf:"input"`

	// OutputEN and OutputPT are the per-locale metadata CSV paths.
	OutputEN string `koanf:"output_en"`
	OutputPT string `koanf:"output_pt"`

	// OutputSeries is the combined observation CSV path (empty = skip).
	OutputSeries string `koanf:"output_series"`

	// StartDate and EndDate bound the observation range (dd/MM/yyyy).
	StartDate string `koanf:"start_date"`
	EndDate   string `koanf:"end_date"`

	// GroupSize is the number of codes per batched request.
	GroupSize int `koanf:"group_size"`

	// Limit caps how many codes are attempted (0 = all).
	Limit int `koanf:"limit"`

	// ThrottleMS is the delay between individual requests in
	// milliseconds.
	ThrottleMS int `koanf:"throttle_ms"`

	// HTTPTimeoutMS bounds a single HTTP request in milliseconds.
	HTTPTimeoutMS int `koanf:"http_timeout_ms"`

	// BaseURL and MetadataURL override the SGS endpoints.
	BaseURL     string `koanf:"base_url"`
	MetadataURL string `koanf:"metadata_url"`

	// UserAgent identifies this tool to the BCB servers.
	UserAgent string `koanf:"user_agent"`

	// RedisAddr enables the metadata cache when non-empty.
	RedisAddr string `koanf:"redis_addr"`

	// CacheTTLMinutes is how long cached metadata stays fresh.
	CacheTTLMinutes int `koanf:"cache_ttl_minutes"`
}

// New creates a Config with defaults matching the conventional run:
// 2018 calendar year, groups of 10, one-second throttle.
func New() *Config {
	return &Config{
		LogLevel:        "info",
		LogPretty:       false,
		Input:           "data-raw/bacen_codes.csv",
		OutputEN:        "data-raw/bacen_metadata_en.csv",
		OutputPT:        "data-raw/bacen_metadata_pt.csv",
		OutputSeries:    "",
		StartDate:       "02/01/2018",
		EndDate:         "31/12/2018",
		GroupSize:       10,
		Limit:           0,
		ThrottleMS:      1000,
		HTTPTimeoutMS:   30000,
		BaseURL:         sgs.DefaultBaseURL,
		MetadataURL:     sgs.DefaultMetadataURL,
		UserAgent:       "sgsfetch/0.1.0",
		RedisAddr:       "",
		CacheTTLMinutes: 1440,
	}
}

// Start parses the configured start date.
func (c *Config) Start() (time.Time, error) {
	return time.Parse(sgs.DateLayout, c.StartDate)
}

// End parses the configured end date.
func (c *Config) End() (time.Time, error) {
	return time.Parse(sgs.DateLayout, c.EndDate)
}

// Throttle returns the inter-request delay as a duration.
func (c *Config) Throttle() time.Duration {
	return time.Duration(c.ThrottleMS) * time.Millisecond
}

// HTTPTimeout returns the per-request timeout as a duration.
func (c *Config) HTTPTimeout() time.Duration {
	return time.Duration(c.HTTPTimeoutMS) * time.Millisecond
}

// CacheTTL returns the metadata cache lifetime as a duration.
func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.CacheTTLMinutes) * time.Minute
}
