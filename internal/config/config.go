// Package config loads the service configuration from TOML.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// Config represents the application configuration.
type Config struct {
	// HTTP server settings
	Server ServerConfig `toml:"server"`

	// Card database client settings
	Scryfall ScryfallConfig `toml:"scryfall"`

	// Oracle provider settings
	Oracle OracleConfig `toml:"oracle"`

	// Build pipeline tuning
	Pipeline PipelineConfig `toml:"pipeline"`

	// Deck storage settings
	Storage StorageConfig `toml:"storage"`

	// Logging settings
	Logging LoggingConfig `toml:"logging"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Host        string   `toml:"host"`
	Port        int      `toml:"port"`
	CORSOrigins []string `toml:"cors_origins"`
}

// ScryfallConfig contains card database client settings.
type ScryfallConfig struct {
	BaseURL string `toml:"base_url"`
}

// OracleConfig contains LLM provider settings.
type OracleConfig struct {
	// DefaultProvider is used when a build request names no model:
	// "local" or "remote".
	DefaultProvider string `toml:"default_provider"`

	Local  LocalOracleConfig  `toml:"local"`
	Remote RemoteOracleConfig `toml:"remote"`
}

// LocalOracleConfig points at an Ollama server.
type LocalOracleConfig struct {
	BaseURL string `toml:"base_url"`
	Model   string `toml:"model"`
}

// RemoteOracleConfig points at the Gemini API. The key itself comes
// from the environment, never from the file.
type RemoteOracleConfig struct {
	Model     string `toml:"model"`
	APIKeyEnv string `toml:"api_key_env"`
}

// PipelineConfig contains build pipeline tuning.
type PipelineConfig struct {
	PoolCeiling      int    `toml:"pool_ceiling"`      // max cards per pool
	CacheTTL         string `toml:"cache_ttl"`         // e.g. "10m"
	OracleTimeout    string `toml:"oracle_timeout"`    // e.g. "2m"
	BatchConcurrency int    `toml:"batch_concurrency"` // parallel reduce batches
}

// StorageConfig contains deck storage settings.
type StorageConfig struct {
	Path string `toml:"path"` // SQLite file path
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level string `toml:"level"` // debug, info, warn, error
	Mode  string `toml:"mode"`  // development or production
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:        "127.0.0.1",
			Port:        8080,
			CORSOrigins: []string{"*"},
		},
		Scryfall: ScryfallConfig{
			BaseURL: "https://api.scryfall.com",
		},
		Oracle: OracleConfig{
			DefaultProvider: "local",
			Local: LocalOracleConfig{
				BaseURL: "http://localhost:11434",
				Model:   "qwen3:8b",
			},
			Remote: RemoteOracleConfig{
				Model:     "gemini-2.5-flash",
				APIKeyEnv: "GEMINI_API_KEY",
			},
		},
		Pipeline: PipelineConfig{
			PoolCeiling:      20000,
			CacheTTL:         "10m",
			OracleTimeout:    "2m",
			BatchConcurrency: 3,
		},
		Storage: StorageConfig{
			Path: "", // resolved to the data directory when empty
		},
		Logging: LoggingConfig{
			Level: "info",
			Mode:  "production",
		},
	}
}

// DefaultPath returns the default configuration file location.
func DefaultPath() (string, error) {
	dir, err := dataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// DefaultStoragePath returns the default deck database location.
func DefaultStoragePath() (string, error) {
	dir, err := dataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "decks.db"), nil
}

func dataDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home directory: %w", err)
	}
	return filepath.Join(home, ".commander-forge"), nil
}

// Load reads the configuration at path. An empty path uses the default
// location; a missing file returns the defaults. Keys absent from the
// file keep their default values.
func Load(path string) (*Config, error) {
	if path == "" {
		var err error
		path, err = DefaultPath()
		if err != nil {
			return nil, err
		}
	}

	config := Default()

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return config, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("parse config file: %w", err)
	}
	return config, nil
}

// Save writes the configuration to path, creating parent directories
// as needed.
func (c *Config) Save(path string) error {
	data, err := toml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}
	return nil
}

// Validate validates the configuration values.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	switch c.Oracle.DefaultProvider {
	case "local", "remote":
	default:
		return fmt.Errorf("default provider must be \"local\" or \"remote\", got %q", c.Oracle.DefaultProvider)
	}

	if c.Pipeline.PoolCeiling < 100 {
		return fmt.Errorf("pool ceiling too small: %d", c.Pipeline.PoolCeiling)
	}
	if _, err := time.ParseDuration(c.Pipeline.CacheTTL); err != nil {
		return fmt.Errorf("invalid cache TTL %q: %w", c.Pipeline.CacheTTL, err)
	}
	if _, err := time.ParseDuration(c.Pipeline.OracleTimeout); err != nil {
		return fmt.Errorf("invalid oracle timeout %q: %w", c.Pipeline.OracleTimeout, err)
	}
	if c.Pipeline.BatchConcurrency < 1 {
		return fmt.Errorf("batch concurrency must be at least 1: %d", c.Pipeline.BatchConcurrency)
	}

	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log level: %q", c.Logging.Level)
	}
	switch c.Logging.Mode {
	case "development", "production":
	default:
		return fmt.Errorf("invalid log mode: %q", c.Logging.Mode)
	}

	return nil
}

// CacheTTL returns the pool cache TTL as a duration.
func (c *Config) CacheTTL() (time.Duration, error) {
	return time.ParseDuration(c.Pipeline.CacheTTL)
}

// OracleTimeout returns the per-call oracle timeout as a duration.
func (c *Config) OracleTimeout() (time.Duration, error) {
	return time.ParseDuration(c.Pipeline.OracleTimeout)
}
