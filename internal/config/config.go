package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type Config struct {
	Port string

	// Auth
	APIKey string

	// Rendering oracle. Mode "sim" runs the in-process flow simulator;
	// "http" talks to an external paginator service.
	OracleMode   string
	OracleURL    string
	OracleAPIKey string

	RenderTimeout      time.Duration
	MaxInflightRenders int

	// Worker pool
	WorkerCount  int
	MaxQueueSize int

	// Upload limits
	MaxUploadBytes int64

	// Job state
	JobTTL time.Duration

	// Stats
	StatsWindow time.Duration
}

func Load() Config {
	cfg := Config{
		Port: envOr("PORT", "8090"),

		APIKey: os.Getenv("PAGEPROOF_API_KEY"),

		OracleMode:   envOr("ORACLE_MODE", "sim"),
		OracleURL:    envOr("ORACLE_URL", "http://localhost:8091"),
		OracleAPIKey: os.Getenv("ORACLE_API_KEY"),

		RenderTimeout:      envDuration("RENDER_TIMEOUT", 60*time.Second),
		MaxInflightRenders: envInt("MAX_INFLIGHT_RENDERS", 8),

		WorkerCount:  envInt("WORKER_COUNT", 4),
		MaxQueueSize: envInt("MAX_QUEUE_SIZE", 100),

		MaxUploadBytes: envInt64("MAX_UPLOAD_BYTES", 52428800), // 50MB

		JobTTL: envDuration("JOB_TTL", 1*time.Hour),

		StatsWindow: envDuration("STATS_WINDOW", 15*time.Minute),
	}

	if cfg.WorkerCount <= 0 {
		cfg.WorkerCount = 4
	}
	if cfg.MaxQueueSize <= 0 {
		cfg.MaxQueueSize = 100
	}
	if cfg.MaxInflightRenders <= 0 {
		cfg.MaxInflightRenders = 8
	}
	if cfg.RenderTimeout <= 0 {
		cfg.RenderTimeout = 60 * time.Second
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = 52428800
	}
	if cfg.JobTTL <= 0 {
		cfg.JobTTL = 1 * time.Hour
	}
	if cfg.StatsWindow <= 0 {
		cfg.StatsWindow = 15 * time.Minute
	}

	return cfg
}

func (c Config) Validate() error {
	if c.APIKey == "" {
		return fmt.Errorf("PAGEPROOF_API_KEY is required")
	}
	switch c.OracleMode {
	case "sim":
	case "http":
		if c.OracleURL == "" {
			return fmt.Errorf("ORACLE_URL is required when ORACLE_MODE=http")
		}
	default:
		return fmt.Errorf("ORACLE_MODE must be \"sim\" or \"http\", got %q", c.OracleMode)
	}
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envInt64(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
