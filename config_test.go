// Copyright 2021 The httpq Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package httpq

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	path := filepath.Join(t.TempDir(), "httpq.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadConfig(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		cfg, err := LoadConfig("")
		require.NoError(t, err)
		assert.Equal(t, DefaultConfig(), cfg)
		assert.Equal(t, 4, cfg.Workers)
		assert.Equal(t, "httpq-cache", cfg.CacheDir)
		assert.Equal(t, "httpq/0", cfg.UserAgent)
		assert.Equal(t, 2500*time.Millisecond, cfg.Timeout)
	})
	t.Run("file", func(t *testing.T) {
		path := writeConfig(t, `
workers: 8
cacheDir: /var/cache/httpq
userAgent: spam/1
timeout: 10s
logLevel: debug
logFormat: json
`)
		cfg, err := LoadConfig(path)
		require.NoError(t, err)
		assert.Equal(t, Config{
			Workers:   8,
			CacheDir:  "/var/cache/httpq",
			UserAgent: "spam/1",
			Timeout:   10 * time.Second,
			LogLevel:  "debug",
			LogFormat: "json",
		}, cfg)
	})
	t.Run("partial file keeps defaults", func(t *testing.T) {
		cfg, err := LoadConfig(writeConfig(t, "workers: 2\n"))
		require.NoError(t, err)
		assert.Equal(t, 2, cfg.Workers)
		assert.Equal(t, DefaultCacheDir, cfg.CacheDir)
	})
	t.Run("environment overrides file", func(t *testing.T) {
		t.Setenv("HTTPQ_WORKERS", "3")
		t.Setenv("HTTPQ_TIMEOUT", "750ms")
		t.Setenv("HTTPQ_USER_AGENT", "eggs/2")
		cfg, err := LoadConfig(writeConfig(t, "workers: 8\nuserAgent: spam/1\n"))
		require.NoError(t, err)
		assert.Equal(t, 3, cfg.Workers)
		assert.Equal(t, 750*time.Millisecond, cfg.Timeout)
		assert.Equal(t, "eggs/2", cfg.UserAgent)
	})
	t.Run("missing file", func(t *testing.T) {
		_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
		assert.True(t, os.IsNotExist(err))
	})
	t.Run("bad YAML", func(t *testing.T) {
		_, err := LoadConfig(writeConfig(t, "workers: [1"))
		assert.Error(t, err)
	})
	t.Run("bad environment", func(t *testing.T) {
		t.Setenv("HTTPQ_WORKERS", "many")
		_, err := LoadConfig("")
		assert.Error(t, err)
	})
}

func TestConfigValidate(t *testing.T) {
	testCases := []struct {
		name   string
		modify func(*Config)
		errMsg string
	}{
		{"workers", func(c *Config) { c.Workers = 0 }, "httpq: config workers must be at least 1, got 0"},
		{"cacheDir", func(c *Config) { c.CacheDir = " " }, "httpq: config cacheDir is required"},
		{"timeout", func(c *Config) { c.Timeout = 0 }, "httpq: config timeout must be positive, got 0s"},
		{"logFormat", func(c *Config) { c.LogFormat = "xml" }, `httpq: config logFormat must be console or json, got "xml"`},
	}
	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			cfg := DefaultConfig()
			testCase.modify(&cfg)
			assert.EqualError(t, cfg.Validate(), testCase.errMsg)
		})
	}
	t.Run("logLevel", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.LogLevel = "loud"
		assert.ErrorContains(t, cfg.Validate(), "logLevel")
	})
	t.Run("valid", func(t *testing.T) {
		cfg := DefaultConfig()
		assert.NoError(t, cfg.Validate())
	})
}

func TestConfigLogger(t *testing.T) {
	var buf bytes.Buffer
	cfg := DefaultConfig()
	cfg.LogFormat = "json"
	cfg.LogLevel = "warn"
	logger := cfg.newLogger(&buf)
	logger.Info().Msg("hidden")
	assert.Empty(t, buf.String())
	logger.Warn().Msg("shown")
	assert.Contains(t, buf.String(), `"message":"shown"`)
	assert.Contains(t, buf.String(), `"level":"warn"`)

	buf.Reset()
	cfg.LogFormat = "console"
	logger = cfg.newLogger(&buf)
	logger.Error().Msg("pretty")
	assert.Contains(t, buf.String(), "pretty")
	assert.NotContains(t, buf.String(), `"message"`)
}
