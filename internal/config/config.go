// Copyright (c) 2026 Karan Bisht
// SPDX-License-Identifier: GPL-3.0-or-later

package config

import (
	"fmt"
	"net/mail"

	"github.com/caarlos0/env/v11"
)

// Config holds the application configuration loaded from environment variables.
type Config struct {
	DBPath     string `env:"KATCHIN_DB_PATH" envDefault:"./data/katchincms.db"`
	ServerHost string `env:"KATCHIN_SERVER_HOST" envDefault:"localhost"`
	ServerPort int    `env:"KATCHIN_SERVER_PORT" envDefault:"8080"`
	Env        string `env:"KATCHIN_ENV" envDefault:"development"`
	LogLevel   string `env:"KATCHIN_LOG_LEVEL" envDefault:"info"`

	// BaseURL is the public URL of this service; uploaded asset URLs are
	// built from it.
	BaseURL    string `env:"KATCHIN_BASE_URL" envDefault:"http://localhost:8080"`
	UploadsDir string `env:"KATCHIN_UPLOADS_DIR" envDefault:"./uploads"`

	// Cache configuration
	RedisURL     string `env:"KATCHIN_REDIS_URL"`                          // Optional Redis URL for distributed caching
	CachePrefix  string `env:"KATCHIN_CACHE_PREFIX" envDefault:"katchin:"` // Redis key prefix
	CacheTTL     int    `env:"KATCHIN_CACHE_TTL" envDefault:"300"`         // Default cache TTL in seconds
	CacheMaxSize int    `env:"KATCHIN_CACHE_MAX_SIZE" envDefault:"10000"`  // Max memory cache entries

	// SMTP configuration for contact notifications. Mail delivery is
	// disabled when host or sender are unset.
	SMTPHost          string `env:"KATCHIN_SMTP_HOST"`
	SMTPPort          int    `env:"KATCHIN_SMTP_PORT" envDefault:"587"`
	SMTPUser          string `env:"KATCHIN_SMTP_USER"`
	SMTPPassword      string `env:"KATCHIN_SMTP_PASSWORD"`
	EmailFrom         string `env:"KATCHIN_EMAIL_FROM"`
	NotificationEmail string `env:"KATCHIN_NOTIFICATION_EMAIL"` // Inbox for contact alerts

	// GeoIP configuration
	GeoIPDBPath string `env:"KATCHIN_GEOIP_DB_PATH"` // Path to GeoLite2-Country.mmdb file

	// Seeding configuration
	DoSeed bool `env:"KATCHIN_DO_SEED" envDefault:"false"` // Enable database seeding
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

// MailEnabled returns true if SMTP delivery is configured.
func (c Config) MailEnabled() bool {
	return c.SMTPHost != "" && c.EmailFrom != ""
}

// GeoIPEnabled returns true if GeoIP database is configured.
func (c Config) GeoIPEnabled() bool {
	return c.GeoIPDBPath != ""
}

// Load parses environment variables and returns a Config struct.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	if cfg.ServerPort < 1 || cfg.ServerPort > 65535 {
		return nil, fmt.Errorf("KATCHIN_SERVER_PORT must be between 1 and 65535, got %d", cfg.ServerPort)
	}

	if cfg.EmailFrom != "" {
		if _, err := mail.ParseAddress(cfg.EmailFrom); err != nil {
			return nil, fmt.Errorf("KATCHIN_EMAIL_FROM is not a valid address: %w", err)
		}
	}
	if cfg.NotificationEmail != "" {
		if _, err := mail.ParseAddress(cfg.NotificationEmail); err != nil {
			return nil, fmt.Errorf("KATCHIN_NOTIFICATION_EMAIL is not a valid address: %w", err)
		}
	}

	return cfg, nil
}
