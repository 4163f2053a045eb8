// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package config loads application settings from OCMS_* environment variables.
package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// knownWeakTokens contains example admin tokens that must never be accepted.
var knownWeakTokens = []string{
	"change-me-to-a-long-admin-token!",
	"REPLACE_WITH_YOUR_OWN_ADMIN_TOKEN",
}

// Config holds the application configuration loaded from environment variables.
type Config struct {
	DBPath     string `env:"OCMS_DB_PATH" envDefault:"./data/ocms-menu.db"`
	ServerHost string `env:"OCMS_SERVER_HOST" envDefault:"localhost"`
	ServerPort int    `env:"OCMS_SERVER_PORT" envDefault:"8080"`
	Env        string `env:"OCMS_ENV" envDefault:"development"`
	LogLevel   string `env:"OCMS_LOG_LEVEL" envDefault:"info"`

	// Admin API. Without a token the admin API is only mounted in development.
	AdminToken string `env:"OCMS_ADMIN_TOKEN"`
	// Requests per second and burst allowed per client address.
	AdminRateLimit float64 `env:"OCMS_ADMIN_RATE_LIMIT" envDefault:"10"`
	AdminRateBurst int     `env:"OCMS_ADMIN_RATE_BURST" envDefault:"20"`

	// Cache configuration. Redis is used when OCMS_REDIS_URL is set.
	RedisURL     string `env:"OCMS_REDIS_URL"`
	CachePrefix  string `env:"OCMS_CACHE_PREFIX" envDefault:"ocms-menu:"`
	CacheTTL     int    `env:"OCMS_CACHE_TTL" envDefault:"3600"`       // seconds
	CacheMaxSize int    `env:"OCMS_CACHE_MAX_SIZE" envDefault:"10000"` // memory cache entries

	// Seeding configuration
	DoSeed bool `env:"OCMS_DO_SEED" envDefault:"false"` // Install demo menus into an empty database
}

// IsDevelopment returns true if the application is running in development mode.
func (c Config) IsDevelopment() bool {
	return c.Env == "development"
}

// ServerAddr returns the full server address in host:port format.
func (c Config) ServerAddr() string {
	return fmt.Sprintf("%s:%d", c.ServerHost, c.ServerPort)
}

// UseRedisCache returns true if Redis caching is configured.
func (c Config) UseRedisCache() bool {
	return c.RedisURL != ""
}

// AdminEnabled reports whether the admin API should be mounted.
func (c Config) AdminEnabled() bool {
	return c.AdminToken != "" || c.IsDevelopment()
}

// CacheTTLDuration returns CacheTTL as a duration.
func (c Config) CacheTTLDuration() time.Duration {
	return time.Duration(c.CacheTTL) * time.Second
}

// SlogLevel maps LogLevel to a slog level.
func (c Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// MinAdminTokenLength is the minimum accepted length for OCMS_ADMIN_TOKEN.
const MinAdminTokenLength = 24

var validLogLevels = []string{"debug", "info", "warn", "warning", "error"}

// Load parses environment variables and returns a Config struct.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.ServerPort < 1 || c.ServerPort > 65535 {
		return fmt.Errorf("OCMS_SERVER_PORT must be between 1 and 65535, got %d", c.ServerPort)
	}
	if !containsFold(validLogLevels, c.LogLevel) {
		return fmt.Errorf("OCMS_LOG_LEVEL must be one of %s, got %q", strings.Join(validLogLevels, ", "), c.LogLevel)
	}
	if c.CacheTTL < 0 {
		return fmt.Errorf("OCMS_CACHE_TTL must not be negative, got %d", c.CacheTTL)
	}
	if c.CacheMaxSize < 0 {
		return fmt.Errorf("OCMS_CACHE_MAX_SIZE must not be negative, got %d", c.CacheMaxSize)
	}
	if c.AdminRateLimit <= 0 || c.AdminRateBurst < 1 {
		return fmt.Errorf("OCMS_ADMIN_RATE_LIMIT and OCMS_ADMIN_RATE_BURST must be positive")
	}

	if c.AdminToken == "" {
		if !c.IsDevelopment() {
			slog.Warn("OCMS_ADMIN_TOKEN is not set; the admin API is disabled")
		}
		return nil
	}

	if len(c.AdminToken) < MinAdminTokenLength {
		return fmt.Errorf("OCMS_ADMIN_TOKEN must be at least %d bytes long, got %d bytes; "+
			"generate a secure token with: openssl rand -base64 32",
			MinAdminTokenLength, len(c.AdminToken))
	}
	for _, weak := range knownWeakTokens {
		if c.AdminToken == weak {
			return fmt.Errorf("OCMS_ADMIN_TOKEN is a known default value and must not be used; " +
				"generate a secure token with: openssl rand -base64 32")
		}
	}
	if !hasMinimumEntropy(c.AdminToken) {
		slog.Warn("OCMS_ADMIN_TOKEN has low character diversity; " +
			"consider generating a random token with: openssl rand -base64 32")
	}
	return nil
}

func containsFold(list []string, s string) bool {
	for _, v := range list {
		if strings.EqualFold(v, s) {
			return true
		}
	}
	return false
}

// hasMinimumEntropy checks that a secret contains at least 3 character classes
// (lowercase, uppercase, digits, special characters).
func hasMinimumEntropy(s string) bool {
	charTypes := 0
	if strings.ContainsAny(s, "abcdefghijklmnopqrstuvwxyz") {
		charTypes++
	}
	if strings.ContainsAny(s, "ABCDEFGHIJKLMNOPQRSTUVWXYZ") {
		charTypes++
	}
	if strings.ContainsAny(s, "0123456789") {
		charTypes++
	}
	if strings.ContainsAny(s, "!@#$%^&*()-_=+[]{}|;:,.<>?/~`'\"\\") {
		charTypes++
	}
	return charTypes >= 3
}
