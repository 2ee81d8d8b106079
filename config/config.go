package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/marine-conservation-ph/reef-survey-viewer/pipeline"
)

const (
	defaultPort          = 8080
	defaultGapStart      = "2020-04-01"
	defaultGapEnd        = "2022-03-01"
	defaultTimelineFloor = "2017-01-01"
	defaultMaxComparison = 5
	defaultCacheTTL      = 5 * time.Minute
	defaultCacheSize     = 256
	defaultFetchRetries  = 1
	defaultFetchTimeout  = 10 * time.Second
)

// Config holds environment-driven settings for the REST API.
type Config struct {
	DatabaseURL        string
	Port               int
	BearerToken        string
	GapStart           time.Time
	GapEnd             time.Time
	TimelineFloor      time.Time
	MaxComparisonSites int
	CacheTTL           time.Duration
	CacheSize          int
	FetchRetries       int
	FetchTimeout       time.Duration
}

// Load reads configuration from environment variables (optionally .env).
// A malformed gap interval or timeline floor is fatal here, never handled
// per-request.
func Load() (Config, error) {
	_ = godotenv.Load() // ignore missing file

	cfg := Config{
		Port:               defaultPort,
		MaxComparisonSites: defaultMaxComparison,
		CacheTTL:           defaultCacheTTL,
		CacheSize:          defaultCacheSize,
		FetchRetries:       defaultFetchRetries,
		FetchTimeout:       defaultFetchTimeout,
	}

	cfg.DatabaseURL = strings.TrimSpace(os.Getenv("DATABASE_URL"))
	if cfg.DatabaseURL == "" {
		return cfg, errors.New("DATABASE_URL is required")
	}

	if portStr := os.Getenv("PORT"); portStr != "" {
		if port, err := strconv.Atoi(portStr); err == nil && port > 0 {
			cfg.Port = port
		} else {
			return cfg, fmt.Errorf("invalid PORT: %s", portStr)
		}
	} else if portStr := os.Getenv("API_PORT"); portStr != "" {
		if port, err := strconv.Atoi(portStr); err == nil && port > 0 {
			cfg.Port = port
		} else {
			return cfg, fmt.Errorf("invalid API_PORT: %s", portStr)
		}
	}

	cfg.BearerToken = os.Getenv("API_BEARER_TOKEN")

	var err error
	if cfg.GapStart, err = dateEnv("GAP_START_DATE", defaultGapStart); err != nil {
		return cfg, err
	}
	if cfg.GapEnd, err = dateEnv("GAP_END_DATE", defaultGapEnd); err != nil {
		return cfg, err
	}
	if cfg.TimelineFloor, err = dateEnv("TIMELINE_FLOOR_DATE", defaultTimelineFloor); err != nil {
		return cfg, err
	}

	if v := os.Getenv("MAX_COMPARISON_SITES"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return cfg, fmt.Errorf("invalid MAX_COMPARISON_SITES: %s", v)
		}
		cfg.MaxComparisonSites = n
	}

	if v := os.Getenv("CACHE_TTL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return cfg, fmt.Errorf("invalid CACHE_TTL: %w", err)
		}
		cfg.CacheTTL = d
	}

	if v := os.Getenv("CACHE_SIZE"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return cfg, fmt.Errorf("invalid CACHE_SIZE: %s", v)
		}
		cfg.CacheSize = n
	}

	if v := os.Getenv("FETCH_RETRIES"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return cfg, fmt.Errorf("invalid FETCH_RETRIES: %s", v)
		}
		cfg.FetchRetries = n
	}

	if v := os.Getenv("FETCH_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return cfg, fmt.Errorf("invalid FETCH_TIMEOUT: %w", err)
		}
		cfg.FetchTimeout = d
	}

	if err := cfg.PipelineOptions().Validate(); err != nil {
		return cfg, err
	}

	return cfg, nil
}

// PipelineOptions maps the configuration onto the pipeline's option set.
func (c Config) PipelineOptions() pipeline.Options {
	return pipeline.Options{
		Floor:              c.TimelineFloor,
		Gap:                pipeline.GapInterval{Start: c.GapStart, End: c.GapEnd},
		MaxComparisonSites: c.MaxComparisonSites,
	}
}

// ListenAddr returns the host:port string for the HTTP server.
func (c Config) ListenAddr() string {
	return fmt.Sprintf(":%d", c.Port)
}

func dateEnv(name, fallback string) (time.Time, error) {
	value := strings.TrimSpace(os.Getenv(name))
	if value == "" {
		value = fallback
	}
	t, err := time.Parse("2006-01-02", value)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid %s: %w", name, err)
	}
	return t, nil
}
