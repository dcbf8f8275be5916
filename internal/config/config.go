package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type Config struct {
	Port string

	// Request limits
	MaxBodyBytes int64
	ReadTimeout  time.Duration

	// Loading and checking
	StrictKeys     bool
	StructureCheck bool

	LogLevel string
}

func Load() Config {
	cfg := Config{
		Port: envOr("QSCHEMA_PORT", "8080"),

		MaxBodyBytes: envInt64("QSCHEMA_MAX_BODY_BYTES", 10485760), // 10MB
		ReadTimeout:  envDuration("QSCHEMA_READ_TIMEOUT", 30*time.Second),

		StrictKeys:     envBool("QSCHEMA_STRICT_KEYS", true),
		StructureCheck: envBool("QSCHEMA_STRUCTURE_CHECK", true),

		LogLevel: envOr("QSCHEMA_LOG_LEVEL", "info"),
	}

	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = 10485760
	}
	if cfg.ReadTimeout <= 0 {
		cfg.ReadTimeout = 30 * time.Second
	}

	return cfg
}

func (c Config) Validate() error {
	if _, err := strconv.Atoi(c.Port); err != nil {
		return fmt.Errorf("QSCHEMA_PORT must be numeric, got %q", c.Port)
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("QSCHEMA_LOG_LEVEL must be one of debug, info, warn, error")
	}
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
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

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
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
