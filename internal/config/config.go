package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix is the prefix for environment overrides, e.g. HORIZON_BACKEND_URL.
const EnvPrefix = "HORIZON_"

// Config holds application configuration.
type Config struct {
	// BackendURL is the Apps Script endpoint. Empty means mock-data mode.
	BackendURL string `json:"backend_url,omitempty" koanf:"backend_url"`

	// HTTPTimeoutSeconds bounds each backend request. 0 disables the timeout.
	HTTPTimeoutSeconds int `json:"http_timeout_seconds,omitempty" koanf:"http_timeout_seconds"`

	// GeminiAPIKey enables local analysis; without it analysis goes through the backend.
	GeminiAPIKey string `json:"gemini_api_key,omitempty" koanf:"gemini_api_key"`
	GeminiModel  string `json:"gemini_model,omitempty" koanf:"gemini_model"`

	// DefaultPersona is the analysis persona used when none is given.
	DefaultPersona string `json:"default_persona,omitempty" koanf:"default_persona"`

	LogLevel  string `json:"log_level,omitempty" koanf:"log_level"`
	LogFormat string `json:"log_format,omitempty" koanf:"log_format"`

	// ConnectionLogCap is the number of request events kept for diagnostics.
	ConnectionLogCap int `json:"connection_log_cap,omitempty" koanf:"connection_log_cap"`

	// HTTPAddr is the dashboard listen address for `horizon serve`.
	HTTPAddr string `json:"http_addr,omitempty" koanf:"http_addr"`

	// IngestChunkSize and IngestIntervalMS pace bulk ACR uploads.
	IngestChunkSize  int `json:"ingest_chunk_size,omitempty" koanf:"ingest_chunk_size"`
	IngestIntervalMS int `json:"ingest_interval_ms,omitempty" koanf:"ingest_interval_ms"`

	// ACRWatchDir is a drop folder for call-recorder HTML exports. Empty disables watching.
	ACRWatchDir string `json:"acr_watch_dir,omitempty" koanf:"acr_watch_dir"`

	// DBMaxOpenConns limits the maximum number of open database connections.
	// 0 means use sql.DB default (unlimited).
	DBMaxOpenConns int `json:"db_max_open_conns,omitempty" koanf:"db_max_open_conns"`

	// DBMaxIdleConns limits the maximum number of idle database connections.
	DBMaxIdleConns int `json:"db_max_idle_conns,omitempty" koanf:"db_max_idle_conns"`

	// DisabledTools is a list of MCP tool names to exclude from registration.
	// Unknown tool names are logged as warnings.
	DisabledTools []string `json:"disabled_tools,omitempty" koanf:"-"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		GeminiModel:      "gemini-2.5-flash",
		DefaultPersona:   "consultant",
		LogLevel:         "info",
		LogFormat:        "json",
		ConnectionLogCap: 50,
		HTTPAddr:         "127.0.0.1:8787",
		IngestChunkSize:  50,
		IngestIntervalMS: 1000,
	}
}

// HTTPTimeout returns the per-request timeout, zero when disabled.
func (c *Config) HTTPTimeout() time.Duration {
	if c.HTTPTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(c.HTTPTimeoutSeconds) * time.Second
}

// IngestInterval returns the pause between ingest chunks.
func (c *Config) IngestInterval() time.Duration {
	return time.Duration(c.IngestIntervalMS) * time.Millisecond
}

// Load loads configuration from baseDir/config.json, then applies HORIZON_*
// environment overrides. A missing file yields defaults.
// The baseDir parameter allows tests to use t.TempDir() instead of ~/.horizon.
func Load(baseDir string) (*Config, error) {
	cfg, err := loadFile(filepath.Join(baseDir, "config.json"))
	if err != nil {
		return nil, err
	}

	overlay, err := loadEnv()
	if err != nil {
		return nil, err
	}

	merged := Merge(cfg, overlay)
	if err := merged.Validate(); err != nil {
		return nil, err
	}
	return merged, nil
}

// Validate rejects values no component can work with.
func (c *Config) Validate() error {
	if c.HTTPTimeoutSeconds < 0 {
		return fmt.Errorf("http_timeout_seconds must be >= 0, got %d", c.HTTPTimeoutSeconds)
	}
	if c.ConnectionLogCap < 0 {
		return fmt.Errorf("connection_log_cap must be >= 0, got %d", c.ConnectionLogCap)
	}
	if c.IngestChunkSize < 0 {
		return fmt.Errorf("ingest_chunk_size must be >= 0, got %d", c.IngestChunkSize)
	}
	if c.BackendURL != "" && !strings.HasPrefix(c.BackendURL, "http://") && !strings.HasPrefix(c.BackendURL, "https://") {
		return fmt.Errorf("backend_url must be an http(s) URL, got %q", c.BackendURL)
	}
	return nil
}

// loadEnv reads HORIZON_* variables into a zero-valued Config.
// HORIZON_BACKEND_URL maps to backend_url.
func loadEnv() (*Config, error) {
	k := koanf.New(".")
	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal environment config: %w", err)
	}
	return cfg, nil
}

// loadFileRaw loads configuration from a specific file path.
// Returns zero-valued config if the file doesn't exist (not defaults).
func loadFileRaw(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &Config{}, nil
		}
		return nil, err
	}

	cfg := &Config{}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", configPath, err)
	}

	return cfg, nil
}

// loadFile loads configuration from a specific file path.
// Returns default config if the file doesn't exist.
func loadFile(configPath string) (*Config, error) {
	cfg, err := loadFileRaw(configPath)
	if err != nil {
		return nil, err
	}
	return Merge(DefaultConfig(), cfg), nil
}

// Merge combines base and overlay configs.
// Overlay values take precedence for scalars; arrays are merged and deduplicated.
func Merge(base, overlay *Config) *Config {
	return &Config{
		BackendURL:         pickString(overlay.BackendURL, base.BackendURL),
		HTTPTimeoutSeconds: pickInt(overlay.HTTPTimeoutSeconds, base.HTTPTimeoutSeconds),
		GeminiAPIKey:       pickString(overlay.GeminiAPIKey, base.GeminiAPIKey),
		GeminiModel:        pickString(overlay.GeminiModel, base.GeminiModel),
		DefaultPersona:     pickString(overlay.DefaultPersona, base.DefaultPersona),
		LogLevel:           pickString(overlay.LogLevel, base.LogLevel),
		LogFormat:          pickString(overlay.LogFormat, base.LogFormat),
		ConnectionLogCap:   pickInt(overlay.ConnectionLogCap, base.ConnectionLogCap),
		HTTPAddr:           pickString(overlay.HTTPAddr, base.HTTPAddr),
		IngestChunkSize:    pickInt(overlay.IngestChunkSize, base.IngestChunkSize),
		IngestIntervalMS:   pickInt(overlay.IngestIntervalMS, base.IngestIntervalMS),
		ACRWatchDir:        pickString(overlay.ACRWatchDir, base.ACRWatchDir),
		DBMaxOpenConns:     pickInt(overlay.DBMaxOpenConns, base.DBMaxOpenConns),
		DBMaxIdleConns:     pickInt(overlay.DBMaxIdleConns, base.DBMaxIdleConns),
		DisabledTools:      mergeStringSlice(base.DisabledTools, overlay.DisabledTools),
	}
}

func pickString(overlay, base string) string {
	if strings.TrimSpace(overlay) != "" {
		return strings.TrimSpace(overlay)
	}
	return base
}

func pickInt(overlay, base int) int {
	if overlay != 0 {
		return overlay
	}
	return base
}

// mergeStringSlice combines two slices, trims whitespace, and removes duplicates.
func mergeStringSlice(a, b []string) []string {
	seen := make(map[string]bool)
	result := make([]string, 0, len(a)+len(b))

	for _, s := range append(append([]string{}, a...), b...) {
		s = strings.TrimSpace(s)
		if s != "" && !seen[s] {
			seen[s] = true
			result = append(result, s)
		}
	}

	if len(result) == 0 {
		return nil
	}
	return result
}
