// ABOUTME: This file implements configuration management with environment variable support
// ABOUTME: Provides validation and defaults, resolved once at startup and injected into constructors
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Reddit   RedditConfig
	Retry    RetryConfig
	Gemini   GeminiConfig
}

type ServerConfig struct {
	Port            int           `env:"SERVER_PORT" default:"9300"`
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" default:"30s"`
}

type DatabaseConfig struct {
	URL      string `env:"DATABASE_URL"`
	MaxConns int    `env:"DATABASE_MAX_CONNS" default:"10"`
}

type RedditConfig struct {
	// BaseURL is overridable so tests can point the fetcher at a stub.
	BaseURL      string        `env:"REDDIT_BASE_URL" default:"https://www.reddit.com"`
	UserAgent    string        `env:"REDDIT_USER_AGENT"`
	Timeout      time.Duration `env:"REDDIT_TIMEOUT" default:"10s"`
	MinInterval  time.Duration `env:"REDDIT_MIN_INTERVAL" default:"2s"`
	MaxPages     int           `env:"REDDIT_MAX_PAGES" default:"20"`
	MaxBodyBytes int64         `env:"REDDIT_MAX_BODY_BYTES" default:"5242880"`
}

type RetryConfig struct {
	MaxAttempts   int           `env:"RETRY_MAX_ATTEMPTS" default:"3"`
	BaseDelay     time.Duration `env:"RETRY_BASE_DELAY" default:"1s"`
	MaxDelay      time.Duration `env:"RETRY_MAX_DELAY" default:"30s"`
	BackoffFactor float64       `env:"RETRY_BACKOFF_FACTOR" default:"2.0"`
	JitterFactor  float64       `env:"RETRY_JITTER_FACTOR" default:"0.1"`
}

type GeminiConfig struct {
	APIKey        string        `env:"GEMINI_API_KEY"`
	Model         string        `env:"GEMINI_MODEL" default:"gemini-2.0-flash"`
	Timeout       time.Duration `env:"GEMINI_TIMEOUT" default:"60s"`
	MaxConcurrent int           `env:"GEMINI_MAX_CONCURRENT" default:"3"`
}

// Upstream sites reject default Go client identifiers, so the fallback is
// a realistic browser UA (same one the original scraper shipped).
const defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"

// Load reads configuration from the environment with defaults and
// validates it.
func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Port:            getEnvInt("SERVER_PORT", 9300),
			ShutdownTimeout: getEnvDuration("SERVER_SHUTDOWN_TIMEOUT", 30*time.Second),
		},
		Database: DatabaseConfig{
			URL:      os.Getenv("DATABASE_URL"),
			MaxConns: getEnvInt("DATABASE_MAX_CONNS", 10),
		},
		Reddit: RedditConfig{
			BaseURL:      getEnvString("REDDIT_BASE_URL", "https://www.reddit.com"),
			UserAgent:    getEnvString("REDDIT_USER_AGENT", defaultUserAgent),
			Timeout:      getEnvDuration("REDDIT_TIMEOUT", 10*time.Second),
			MinInterval:  getEnvDuration("REDDIT_MIN_INTERVAL", 2*time.Second),
			MaxPages:     getEnvInt("REDDIT_MAX_PAGES", 20),
			MaxBodyBytes: int64(getEnvInt("REDDIT_MAX_BODY_BYTES", 5*1024*1024)),
		},
		Retry: RetryConfig{
			MaxAttempts:   getEnvInt("RETRY_MAX_ATTEMPTS", 3),
			BaseDelay:     getEnvDuration("RETRY_BASE_DELAY", time.Second),
			MaxDelay:      getEnvDuration("RETRY_MAX_DELAY", 30*time.Second),
			BackoffFactor: getEnvFloat("RETRY_BACKOFF_FACTOR", 2.0),
			JitterFactor:  getEnvFloat("RETRY_JITTER_FACTOR", 0.1),
		},
		Gemini: GeminiConfig{
			APIKey:        os.Getenv("GEMINI_API_KEY"),
			Model:         getEnvString("GEMINI_MODEL", "gemini-2.0-flash"),
			Timeout:       getEnvDuration("GEMINI_TIMEOUT", 60*time.Second),
			MaxConcurrent: getEnvInt("GEMINI_MAX_CONCURRENT", 3),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	if c.Reddit.BaseURL == "" {
		return fmt.Errorf("reddit base URL must not be empty")
	}

	if c.Reddit.MaxPages < 1 {
		return fmt.Errorf("reddit max pages must be positive, got %d", c.Reddit.MaxPages)
	}

	if c.Retry.MaxAttempts < 1 {
		return fmt.Errorf("retry max attempts must be positive, got %d", c.Retry.MaxAttempts)
	}

	if c.Retry.BackoffFactor < 1.0 {
		return fmt.Errorf("retry backoff factor must be >= 1.0, got %f", c.Retry.BackoffFactor)
	}

	if c.Gemini.MaxConcurrent < 1 {
		return fmt.Errorf("gemini max concurrent must be positive, got %d", c.Gemini.MaxConcurrent)
	}

	return nil
}

func getEnvString(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}

	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}

	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}

	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}

	return fallback
}
