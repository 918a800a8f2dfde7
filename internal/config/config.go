// Package config holds server and engine settings, loaded from the
// environment over defaults
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
)

type (
	// Config holds configuration settings for the workflow server
	Config struct {
		// API Server
		APIHost  string
		APIPort  int
		LogLevel string

		// Workflows
		WorkflowDir    string
		MaxConcurrency int

		// Run history
		HistoryLimit int
		RedisAddr    string
		RedisDB      int
		RedisPrefix  string
	}
)

const (
	DefaultAPIHost     = "0.0.0.0"
	DefaultAPIPort     = 8080
	DefaultLogLevel    = "info"
	DefaultWorkflowDir = "workflows"

	DefaultHistoryLimit = 100
	DefaultRedisDB      = 0
	DefaultRedisPrefix  = "weft"

	MaxTCPPort         = 65535
	MaxConcurrencyCap  = 1024
	MaxHistoryLimitCap = 100_000
)

var (
	ErrInvalidAPIPort      = errors.New("invalid API port")
	ErrInvalidHistoryLimit = errors.New("history limit must be positive")
	ErrMissingWorkflowDir  = errors.New("workflow directory not set")
)

// NewDefaultConfig creates a configuration with sensible defaults. The
// Redis address stays empty by default; run history then lives in
// memory only
func NewDefaultConfig() *Config {
	return &Config{
		APIHost:      DefaultAPIHost,
		APIPort:      DefaultAPIPort,
		LogLevel:     DefaultLogLevel,
		WorkflowDir:  DefaultWorkflowDir,
		HistoryLimit: DefaultHistoryLimit,
		RedisDB:      DefaultRedisDB,
		RedisPrefix:  DefaultRedisPrefix,
	}
}

// LoadFromEnv populates configuration values from environment variables.
// Returns an error if any env var cannot be parsed
func (c *Config) LoadFromEnv() error {
	if host := os.Getenv("WEFT_HOST"); host != "" {
		c.APIHost = host
	}
	if level := os.Getenv("LOG_LEVEL"); level != "" {
		c.LogLevel = level
	}
	if dir := os.Getenv("WORKFLOW_DIR"); dir != "" {
		c.WorkflowDir = dir
	}
	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		c.RedisAddr = addr
	}
	if prefix := os.Getenv("REDIS_PREFIX"); prefix != "" {
		c.RedisPrefix = prefix
	}

	if err := loadEnvInt("WEFT_PORT", &c.APIPort, 0, MaxTCPPort); err != nil {
		return err
	}
	if err := loadEnvInt(
		"MAX_CONCURRENCY", &c.MaxConcurrency, 0, MaxConcurrencyCap,
	); err != nil {
		return err
	}
	if err := loadEnvInt(
		"HISTORY_LIMIT", &c.HistoryLimit, 0, MaxHistoryLimitCap,
	); err != nil {
		return err
	}
	if db := os.Getenv("REDIS_DB"); db != "" {
		v, err := strconv.Atoi(db)
		if err != nil {
			return fmt.Errorf("invalid REDIS_DB: %q", db)
		}
		c.RedisDB = v
	}
	return nil
}

// Validate checks that all configuration values are valid
func (c *Config) Validate() error {
	if c.APIPort <= 0 || c.APIPort > MaxTCPPort {
		return fmt.Errorf("%w: %d", ErrInvalidAPIPort, c.APIPort)
	}
	if c.HistoryLimit <= 0 {
		return ErrInvalidHistoryLimit
	}
	if c.WorkflowDir == "" {
		return ErrMissingWorkflowDir
	}
	return nil
}

// loadEnvInt reads key from the environment, parses it as an integer,
// and sets *dst if the value is in the range (min, max). Returns an
// error if the value cannot be parsed or falls outside the valid range
func loadEnvInt(key string, dst *int, min, max int) error {
	s := os.Getenv(key)
	if s == "" {
		return nil
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return fmt.Errorf("invalid %s: %q", key, s)
	}
	if v <= min || v > max {
		return fmt.Errorf("invalid %s: %d out of range [%d, %d]",
			key, v, min+1, max)
	}
	*dst = v
	return nil
}
