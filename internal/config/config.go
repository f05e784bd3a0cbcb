// Copyright (c) 2025-2026 Affipub Authors
// SPDX-License-Identifier: GPL-3.0-or-later

package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// Config holds the application configuration loaded from environment variables.
type Config struct {
	DBPath     string `env:"AFFIPUB_DB_PATH" envDefault:"./data/affipub.db"`
	ServerHost string `env:"AFFIPUB_SERVER_HOST" envDefault:"localhost"`
	ServerPort int    `env:"AFFIPUB_SERVER_PORT" envDefault:"8080"`
	Env        string `env:"AFFIPUB_ENV" envDefault:"development"`
	LogLevel   string `env:"AFFIPUB_LOG_LEVEL" envDefault:"info"`
	UploadsDir string `env:"AFFIPUB_UPLOADS_DIR" envDefault:"./uploads"`

	// Claude API configuration
	ClaudeAPIKey    string `env:"AFFIPUB_CLAUDE_API_KEY,required"`
	ClaudeModel     string `env:"AFFIPUB_CLAUDE_MODEL" envDefault:"claude-sonnet-4-20250514"`
	ClaudeMaxTokens int    `env:"AFFIPUB_CLAUDE_MAX_TOKENS" envDefault:"8192"`

	// Generation rate limit, requests per minute per client
	GenerateRateLimit int `env:"AFFIPUB_GENERATE_RATE_LIMIT" envDefault:"5"`

	// Event log retention in days
	EventRetentionDays int `env:"AFFIPUB_EVENT_RETENTION_DAYS" envDefault:"90"`
}

// IsDevelopment returns true if the application is running in development mode.
func (c Config) IsDevelopment() bool {
	return c.Env == "development"
}

// ServerAddr returns the full server address in host:port format.
func (c Config) ServerAddr() string {
	return fmt.Sprintf("%s:%d", c.ServerHost, c.ServerPort)
}

// Load parses environment variables and returns a Config struct.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	if cfg.Env != "development" && cfg.Env != "production" {
		return nil, fmt.Errorf("AFFIPUB_ENV must be development or production, got %q", cfg.Env)
	}
	if cfg.ClaudeMaxTokens <= 0 {
		return nil, fmt.Errorf("AFFIPUB_CLAUDE_MAX_TOKENS must be positive, got %d", cfg.ClaudeMaxTokens)
	}
	if cfg.GenerateRateLimit <= 0 {
		return nil, fmt.Errorf("AFFIPUB_GENERATE_RATE_LIMIT must be positive, got %d", cfg.GenerateRateLimit)
	}
	if cfg.EventRetentionDays <= 0 {
		return nil, fmt.Errorf("AFFIPUB_EVENT_RETENTION_DAYS must be positive, got %d", cfg.EventRetentionDays)
	}

	return cfg, nil
}
