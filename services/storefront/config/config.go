// Copyright (C) 2025 Tidewater Commerce (dev@tidewatercommerce.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package config loads the storefront configuration from a YAML file
// with environment variable overrides. A subset of fields can be hot
// reloaded through the file watcher; see Watcher.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// maxConfigFileSize caps config files at 1 MiB.
const maxConfigFileSize = 1 << 20

// Config is the full storefront configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Cache    CacheConfig    `yaml:"cache"`
	Images   ImagesConfig   `yaml:"images"`
	Webhook  WebhookConfig  `yaml:"webhook"`
	Logging  LoggingConfig  `yaml:"logging"`
	Tracing  TracingConfig  `yaml:"tracing"`
}

// ServerConfig controls the HTTP listener.
type ServerConfig struct {
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// DatabaseConfig controls the postgres connection. When Host is empty
// the service runs on the in-memory store (development mode).
type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Name     string `yaml:"name"`
	SSLMode  string `yaml:"sslmode"`
}

// CacheConfig controls the Badger catalog cache.
type CacheConfig struct {
	Path     string        `yaml:"path"`
	InMemory bool          `yaml:"in_memory"`
	TTL      time.Duration `yaml:"ttl"`
}

// ImagesConfig controls the GCS product image store. When Bucket is
// empty image uploads are disabled.
type ImagesConfig struct {
	Bucket          string `yaml:"bucket"`
	CredentialsFile string `yaml:"credentials_file"`
}

// WebhookConfig controls payment webhook processing. Secret is read
// from the environment, never from the file.
type WebhookConfig struct {
	Provider  string        `yaml:"provider"`
	Tolerance time.Duration `yaml:"tolerance"`
	RateLimit float64       `yaml:"rate_limit"`
	RateBurst int           `yaml:"rate_burst"`
}

// LoggingConfig controls structured logging. Level is hot-reloadable.
type LoggingConfig struct {
	Level string `yaml:"level"`
	Dir   string `yaml:"dir"`
	JSON  bool   `yaml:"json"`
	Quiet bool   `yaml:"quiet"`
}

// TracingConfig controls the OTLP trace exporter.
type TracingConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Endpoint string `yaml:"endpoint"`
	Insecure bool   `yaml:"insecure"`
}

// Default returns the development defaults: memory store, in-memory
// cache, tracing off.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8080,
			ShutdownTimeout: 10 * time.Second,
		},
		Database: DatabaseConfig{
			Port:    5432,
			User:    "tidewater",
			Name:    "tidewater",
			SSLMode: "disable",
		},
		Cache: CacheConfig{
			InMemory: true,
			TTL:      45 * time.Second,
		},
		Webhook: WebhookConfig{
			Provider:  "stripe",
			Tolerance: 5 * time.Minute,
			RateLimit: 20,
			RateBurst: 40,
		},
		Logging: LoggingConfig{
			Level: "info",
			JSON:  true,
		},
		Tracing: TracingConfig{
			Endpoint: "localhost:4317",
			Insecure: true,
		},
	}
}

// Load reads path (when non-empty), applies it over the defaults, and
// then applies environment overrides. A missing file with an empty
// path is not an error; a named file that cannot be read is.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		info, err := os.Stat(path)
		if err != nil {
			return nil, fmt.Errorf("config file: %w", err)
		}
		if info.Size() > maxConfigFileSize {
			return nil, fmt.Errorf("config file %s exceeds %d bytes", path, maxConfigFileSize)
		}
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config: %w", err)
		}
		if err := yaml.Unmarshal(raw, cfg); err != nil {
			return nil, fmt.Errorf("parsing config: %w", err)
		}
	}

	applyEnv(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks value ranges that would otherwise fail at runtime.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server port %d out of range", c.Server.Port)
	}
	if c.Webhook.RateLimit < 0 {
		return fmt.Errorf("webhook rate limit must be non-negative")
	}
	if c.Cache.TTL < 0 {
		return fmt.Errorf("cache ttl must be non-negative")
	}
	return nil
}

// WebhookSecret reads the signing secret from the environment. It is
// deliberately not part of Config so the secret never sits in a YAML
// file or a config dump.
func WebhookSecret() []byte {
	return []byte(os.Getenv("TIDEWATER_WEBHOOK_SECRET"))
}

// applyEnv overlays TIDEWATER_* environment variables.
func applyEnv(cfg *Config) {
	setString(&cfg.Server.Host, "TIDEWATER_HOST")
	setInt(&cfg.Server.Port, "TIDEWATER_PORT")
	setString(&cfg.Database.Host, "TIDEWATER_DB_HOST")
	setInt(&cfg.Database.Port, "TIDEWATER_DB_PORT")
	setString(&cfg.Database.User, "TIDEWATER_DB_USER")
	setString(&cfg.Database.Password, "TIDEWATER_DB_PASSWORD")
	setString(&cfg.Database.Name, "TIDEWATER_DB_NAME")
	setString(&cfg.Database.SSLMode, "TIDEWATER_DB_SSLMODE")
	setString(&cfg.Images.Bucket, "TIDEWATER_IMAGE_BUCKET")
	setString(&cfg.Images.CredentialsFile, "TIDEWATER_GCS_CREDENTIALS")
	setString(&cfg.Webhook.Provider, "TIDEWATER_WEBHOOK_PROVIDER")
	setString(&cfg.Logging.Level, "TIDEWATER_LOG_LEVEL")
	setString(&cfg.Logging.Dir, "TIDEWATER_LOG_DIR")
	setString(&cfg.Tracing.Endpoint, "OTEL_EXPORTER_OTLP_ENDPOINT")
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}
