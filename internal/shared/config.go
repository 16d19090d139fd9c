package shared

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

//go:embed config.example.toml
var exampleConf []byte

// Storage backends accepted by [StorageConfig.Backend].
const (
	BackendSQLite  = "sqlite"
	BackendKeyring = "keyring"
	BackendMemory  = "memory"
)

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	Account  AccountConfig  `toml:"account"`
	Catalog  CatalogConfig  `toml:"catalog"`
	Storage  StorageConfig  `toml:"storage"`
	Database DatabaseConfig `toml:"database"`
}

// AccountConfig contains account service settings.
type AccountConfig struct {
	BaseURL              string `toml:"base_url"`
	SignInURL            string `toml:"signin_url"`
	OpenBrowser          bool   `toml:"open_browser"`
	SignInTimeoutSeconds int    `toml:"signin_timeout_seconds"`
}

// SignInTimeout returns the upper bound for a sign-in request, defaulting to 10 seconds.
func (a AccountConfig) SignInTimeout() time.Duration {
	if a.SignInTimeoutSeconds <= 0 {
		return 10 * time.Second
	}
	return time.Duration(a.SignInTimeoutSeconds) * time.Second
}

// CatalogConfig contains Open Library settings.
type CatalogConfig struct {
	BaseURL     string  `toml:"base_url"`
	CoversURL   string  `toml:"covers_url"`
	RateLimit   float64 `toml:"rate_limit"`
	SearchLimit int     `toml:"search_limit"`
}

// StorageConfig selects where session credentials and the favorites mirror live.
type StorageConfig struct {
	Backend        string `toml:"backend"`
	KeyringService string `toml:"keyring_service"`
}

// DatabaseConfig contains database connection settings.
type DatabaseConfig struct {
	Path         string `toml:"path"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := toml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return &config, nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &config
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s: %w", path, err)
	}

	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// LoadEnv loads variables from a dotenv file into the process environment.
//
// A missing file is not an error; variables already set in the environment are kept.
func LoadEnv(path string) error {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("failed to load env file %s: %w", path, err)
	}
	return nil
}

// ApplyEnv overrides config values with LITFAV_* environment variables.
func (c *Config) ApplyEnv() error {
	if v := os.Getenv("LITFAV_ACCOUNT_URL"); v != "" {
		c.Account.BaseURL = v
	}
	if v := os.Getenv("LITFAV_SIGNIN_URL"); v != "" {
		c.Account.SignInURL = v
	}
	if v := os.Getenv("LITFAV_CATALOG_URL"); v != "" {
		c.Catalog.BaseURL = v
	}
	if v := os.Getenv("LITFAV_STORAGE_BACKEND"); v != "" {
		c.Storage.Backend = v
	}
	if v := os.Getenv("LITFAV_DB_PATH"); v != "" {
		c.Database.Path = v
	}
	if v := os.Getenv("LITFAV_SIGNIN_TIMEOUT"); v != "" {
		secs, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%w: LITFAV_SIGNIN_TIMEOUT=%q", ErrInvalidConfig, v)
		}
		c.Account.SignInTimeoutSeconds = secs
	}
	return nil
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	if c.Account.BaseURL == "" {
		return fmt.Errorf("%w: account.base_url is required", ErrInvalidConfig)
	}
	if c.Catalog.BaseURL == "" {
		return fmt.Errorf("%w: catalog.base_url is required", ErrInvalidConfig)
	}
	switch c.Storage.Backend {
	case BackendSQLite:
		if c.Database.Path == "" {
			return fmt.Errorf("%w: database.path is required for the sqlite backend", ErrInvalidConfig)
		}
	case BackendKeyring, BackendMemory:
	default:
		return fmt.Errorf("%w: unknown storage backend %q", ErrInvalidConfig, c.Storage.Backend)
	}
	return nil
}
