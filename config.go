// Copyright 2021 The httpq Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package httpq

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/gogama/httpq/transport"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
)

// Defaults applied by LoadConfig and DefaultConfig.
const (
	DefaultWorkers   = 4
	DefaultCacheDir  = "httpq-cache"
	DefaultUserAgent = transport.DefaultUserAgent
	DefaultTimeout   = 2500 * time.Millisecond
)

// Config holds the settings New uses to assemble a Pool.
type Config struct {
	// Workers is the number of dispatch loops.
	Workers int `yaml:"workers" env:"HTTPQ_WORKERS"`
	// CacheDir is the root directory of the disk cache.
	CacheDir string `yaml:"cacheDir" env:"HTTPQ_CACHE_DIR"`
	// UserAgent is sent with every request.
	UserAgent string `yaml:"userAgent" env:"HTTPQ_USER_AGENT"`
	// Timeout applies to requests which declare none.
	Timeout time.Duration `yaml:"timeout" env:"HTTPQ_TIMEOUT"`
	// LogLevel is a zerolog level name: trace, debug, info, warn,
	// error, fatal, panic or disabled.
	LogLevel string `yaml:"logLevel" env:"HTTPQ_LOG_LEVEL"`
	// LogFormat is console or json.
	LogFormat string `yaml:"logFormat" env:"HTTPQ_LOG_FORMAT"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		Workers:   DefaultWorkers,
		CacheDir:  DefaultCacheDir,
		UserAgent: DefaultUserAgent,
		Timeout:   DefaultTimeout,
		LogLevel:  "info",
		LogFormat: "console",
	}
}

// LoadConfig reads the YAML file at path over the defaults and applies
// HTTPQ_* environment variable overrides. An empty path skips the file.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return Config{}, err
		}
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return Config{}, fmt.Errorf("httpq: config %s: %w", path, err)
		}
	}
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("httpq: config environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks that every setting is usable.
func (c *Config) Validate() error {
	if c.Workers < 1 {
		return fmt.Errorf("httpq: config workers must be at least 1, got %d", c.Workers)
	}
	if strings.TrimSpace(c.CacheDir) == "" {
		return fmt.Errorf("httpq: config cacheDir is required")
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("httpq: config timeout must be positive, got %s", c.Timeout)
	}
	if _, err := zerolog.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("httpq: config logLevel: %w", err)
	}
	switch c.LogFormat {
	case "console", "json":
	default:
		return fmt.Errorf("httpq: config logFormat must be console or json, got %q", c.LogFormat)
	}
	return nil
}

// Logger returns a logger writing to stderr in the configured format
// and level.
func (c *Config) Logger() zerolog.Logger {
	return c.newLogger(os.Stderr)
}

func (c *Config) newLogger(w io.Writer) zerolog.Logger {
	level, err := zerolog.ParseLevel(c.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	if c.LogFormat == "console" {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	}
	return zerolog.New(w).Level(level).With().Timestamp().Logger()
}
