// Package config loads server settings from defaults, an optional YAML file,
// a .env file and the environment, in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/mmynk/forkthebill/internal/money"
)

// Config is the full server configuration.
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Storage StorageConfig `yaml:"storage"`
	Redis   RedisConfig   `yaml:"redis"`
	Log     LogConfig     `yaml:"log"`
	Gemini  GeminiConfig  `yaml:"gemini"`
	Expense ExpenseConfig `yaml:"expense"`
}

// ServerConfig holds HTTP listener settings.
type ServerConfig struct {
	Port string `yaml:"port"`
}

// StorageConfig selects the persistence backend.
type StorageConfig struct {
	// Driver is "sqlite" or "postgres".
	Driver      string `yaml:"driver"`
	Path        string `yaml:"path"`
	DatabaseURL string `yaml:"database_url"`
}

// RedisConfig enables the shared lock when Addr is set.
type RedisConfig struct {
	Addr string `yaml:"addr"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// GeminiConfig holds bill ingestion settings. Ingestion is off without an API key.
type GeminiConfig struct {
	APIKey  string `yaml:"api_key"`
	Model   string `yaml:"model"`
	BaseURL string `yaml:"base_url"`
}

// ExpenseConfig tunes expense creation.
type ExpenseConfig struct {
	TotalCheckEnabled bool   `yaml:"total_check_enabled"`
	TotalCheckMargin  string `yaml:"total_check_margin"`
	SlugMaxAttempts   int    `yaml:"slug_max_attempts"`
}

// DefaultConfig returns the settings used when nothing else is configured.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{Port: "8080"},
		Storage: StorageConfig{
			Driver: "sqlite",
			Path:   "data/forkthebill.db",
		},
		Log: LogConfig{Level: "info", Format: "text"},
		Gemini: GeminiConfig{
			Model:   "gemini-2.5-flash",
			BaseURL: "https://generativelanguage.googleapis.com",
		},
		Expense: ExpenseConfig{
			TotalCheckEnabled: false,
			TotalCheckMargin:  "5.00",
			SlugMaxAttempts:   10,
		},
	}
}

// Load reads configuration. path may be empty to skip the YAML file.
// A .env file in the working directory is loaded if present; it never overrides
// variables already set in the environment.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}
	return load(path, os.LookupEnv)
}

func load(path string, lookup func(string) (string, bool)) (*Config, error) {
	config := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	if err := config.applyEnv(lookup); err != nil {
		return nil, err
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && strings.TrimSpace(v) != "" {
			*dst = strings.TrimSpace(v)
		}
	}

	str("PORT", &c.Server.Port)
	str("DB_DRIVER", &c.Storage.Driver)
	str("DB_PATH", &c.Storage.Path)
	str("DATABASE_URL", &c.Storage.DatabaseURL)
	str("REDIS_ADDR", &c.Redis.Addr)
	str("LOG_LEVEL", &c.Log.Level)
	str("LOG_FORMAT", &c.Log.Format)
	str("GEMINI_API_KEY", &c.Gemini.APIKey)
	str("GEMINI_MODEL", &c.Gemini.Model)
	str("GEMINI_BASE_URL", &c.Gemini.BaseURL)
	str("TOTAL_CHECK_MARGIN", &c.Expense.TotalCheckMargin)

	if v, ok := lookup("TOTAL_CHECK_ENABLED"); ok && v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid TOTAL_CHECK_ENABLED %q: %w", v, err)
		}
		c.Expense.TotalCheckEnabled = b
	}
	if v, ok := lookup("SLUG_MAX_ATTEMPTS"); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid SLUG_MAX_ATTEMPTS %q: %w", v, err)
		}
		c.Expense.SlugMaxAttempts = n
	}
	return nil
}

// Validate checks the configuration for consistency.
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("server port is required")
	}

	switch c.Storage.Driver {
	case "sqlite":
		if c.Storage.Path == "" {
			return fmt.Errorf("storage path is required for sqlite")
		}
	case "postgres":
		if c.Storage.DatabaseURL == "" {
			return fmt.Errorf("database url is required for postgres")
		}
	default:
		return fmt.Errorf("unknown storage driver %q (want sqlite or postgres)", c.Storage.Driver)
	}

	switch c.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("unknown log format %q (want text or json)", c.Log.Format)
	}

	margin, err := money.Parse(c.Expense.TotalCheckMargin)
	if err != nil {
		return fmt.Errorf("invalid total check margin: %w", err)
	}
	if margin.IsNegative() {
		return fmt.Errorf("total check margin must not be negative")
	}

	if c.Expense.SlugMaxAttempts <= 0 {
		return fmt.Errorf("slug max attempts must be positive")
	}
	return nil
}

// TotalCheckMargin returns the parsed margin. Call after Validate.
func (c *Config) TotalCheckMargin() money.Money {
	m, _ := money.Parse(c.Expense.TotalCheckMargin)
	return m
}
