// Package api provides the HTTP server and JSON endpoints of the damage
// inspector.
package api

import (
	"fmt"
	"strings"
	"time"

	"github.com/youssef-al-mostafa/Hiring-Sprint-2025/internal/conf"
	"github.com/youssef-al-mostafa/Hiring-Sprint-2025/internal/logger"
)

// GetLogger returns the api package logger.
func GetLogger() logger.Logger {
	return logger.Global().Module("api")
}

// Default constants for the HTTP server.
const (
	DefaultReadTimeout     = 60 * time.Second
	DefaultWriteTimeout    = 120 * time.Second // two remote detections plus rendering
	DefaultIdleTimeout     = 120 * time.Second
	DefaultShutdownTimeout = 10 * time.Second
	DefaultBodyLimit       = "50M"
)

// Config holds the HTTP server configuration.
type Config struct {
	Listen string

	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration

	BodyLimit      string   // maximum request body size, e.g. "50M"
	RateLimit      float64  // requests per second per client, 0 disables
	AllowedOrigins []string // CORS

	SessionTTL time.Duration
	Debug      bool
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Listen:          ":8080",
		ReadTimeout:     DefaultReadTimeout,
		WriteTimeout:    DefaultWriteTimeout,
		IdleTimeout:     DefaultIdleTimeout,
		ShutdownTimeout: DefaultShutdownTimeout,
		BodyLimit:       DefaultBodyLimit,
		AllowedOrigins:  []string{"*"},
	}
}

// ConfigFromSettings creates a Config from application settings.
func ConfigFromSettings(settings *conf.Settings) *Config {
	config := DefaultConfig()
	if settings == nil {
		return config
	}

	if settings.WebServer.Listen != "" {
		config.Listen = settings.WebServer.Listen
	}
	if settings.WebServer.BodyLimit != "" {
		config.BodyLimit = settings.WebServer.BodyLimit
	}
	if len(settings.WebServer.AllowedOrigins) > 0 {
		config.AllowedOrigins = settings.WebServer.AllowedOrigins
	}
	config.RateLimit = settings.WebServer.RateLimit
	config.SessionTTL = settings.Sessions.TTL
	config.Debug = settings.WebServer.Debug || settings.Debug

	return config
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Listen) == "" {
		return fmt.Errorf("listen address must not be empty")
	}
	if c.RateLimit < 0 {
		return fmt.Errorf("rate limit must not be negative")
	}
	if c.ShutdownTimeout <= 0 {
		return fmt.Errorf("shutdown timeout must be positive")
	}
	return nil
}
