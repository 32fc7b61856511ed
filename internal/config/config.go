// Package config loads the ETL settings from .env, an optional YAML file and
// the process environment, in that order of precedence (environment wins).
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Configuration validation errors.
var (
	ErrMissingBaseURL     = errors.New("base_url is required")
	ErrInvalidPages       = errors.New("pages must be at least 1")
	ErrInvalidDelay       = errors.New("delay must be non-negative")
	ErrInvalidTimeout     = errors.New("fetch_timeout must be positive")
	ErrInvalidWorkers     = errors.New("workers must be at least 1")
	ErrInvalidMultiplier  = errors.New("price_multiplier must be positive")
	ErrMissingSheetsRange = errors.New("sinks.sheets.range is required when a spreadsheet is configured")
	ErrMissingCredentials = errors.New("sinks.sheets.credentials_file is required when a spreadsheet is configured")
	ErrUnknownDriver      = errors.New("sinks.postgres.driver must be pgx or pq")
)

const (
	DefaultBaseURL         = "https://fashion-studio.dicoding.dev/"
	DefaultPages           = 50
	DefaultDelay           = 500 * time.Millisecond
	DefaultFetchTimeout    = 5 * time.Second
	DefaultPriceMultiplier = 16000
	DefaultUserAgent       = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.2.1 Safari/605.1.15"
)

type Config struct {
	BaseURL         string        `yaml:"base_url"`
	Pages           int           `yaml:"pages"`
	Delay           time.Duration `yaml:"delay"`
	FetchTimeout    time.Duration `yaml:"fetch_timeout"`
	UserAgent       string        `yaml:"user_agent"`
	Workers         int           `yaml:"workers"`
	PriceMultiplier float64       `yaml:"price_multiplier"`
	LogLevel        string        `yaml:"log_level"`
	MetricsPort     string        `yaml:"metrics_port"`
	Cache           CacheConfig   `yaml:"cache"`
	Sinks           SinksConfig   `yaml:"sinks"`
}

// CacheConfig enables the Redis page cache when RedisURL is set.
type CacheConfig struct {
	RedisURL string        `yaml:"redis_url"`
	TTL      time.Duration `yaml:"ttl"`
}

// SinksConfig holds one block per output. A sink with an empty target is disabled.
type SinksConfig struct {
	CSV      CSVConfig      `yaml:"csv"`
	Postgres PostgresConfig `yaml:"postgres"`
	SQLite   SQLiteConfig   `yaml:"sqlite"`
	Sheets   SheetsConfig   `yaml:"sheets"`
}

type CSVConfig struct {
	Path string `yaml:"path"`
}

// PostgresConfig selects the client: "pgx" uses a pool with batched
// inserts, "pq" goes through database/sql.
type PostgresConfig struct {
	URL    string `yaml:"url"`
	Table  string `yaml:"table"`
	Driver string `yaml:"driver"`
}

type SQLiteConfig struct {
	Path  string `yaml:"path"`
	Table string `yaml:"table"`
}

type SheetsConfig struct {
	SpreadsheetID   string `yaml:"spreadsheet_id"`
	Range           string `yaml:"range"`
	CredentialsFile string `yaml:"credentials_file"`
}

func (c CSVConfig) Enabled() bool      { return c.Path != "" }
func (c PostgresConfig) Enabled() bool { return c.URL != "" }
func (c SQLiteConfig) Enabled() bool   { return c.Path != "" }
func (c SheetsConfig) Enabled() bool   { return c.SpreadsheetID != "" }

// Default returns the settings the job runs with when nothing is configured.
func Default() *Config {
	return &Config{
		BaseURL:         DefaultBaseURL,
		Pages:           DefaultPages,
		Delay:           DefaultDelay,
		FetchTimeout:    DefaultFetchTimeout,
		UserAgent:       DefaultUserAgent,
		Workers:         1,
		PriceMultiplier: DefaultPriceMultiplier,
		LogLevel:        "info",
		Cache:           CacheConfig{TTL: time.Hour},
		Sinks: SinksConfig{
			CSV:      CSVConfig{Path: "fashion_data.csv"},
			Postgres: PostgresConfig{Table: "products", Driver: "pgx"},
			SQLite:   SQLiteConfig{Table: "products"},
			Sheets:   SheetsConfig{Range: "Sheet1!A1"},
		},
	}
}

// Load builds the configuration. path may be empty, in which case only
// defaults, .env and the environment are consulted.
func Load(path string) (*Config, error) {
	// .env from the project root first, then the working directory
	_ = godotenv.Load("../../.env")
	_ = godotenv.Load()

	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) applyEnv() error {
	c.BaseURL = getEnv("BASE_URL", c.BaseURL)
	c.UserAgent = getEnv("USER_AGENT", c.UserAgent)
	c.LogLevel = getEnv("LOG_LEVEL", c.LogLevel)
	c.MetricsPort = getEnv("METRICS_PORT", c.MetricsPort)
	c.Cache.RedisURL = getEnv("REDIS_URL", c.Cache.RedisURL)
	c.Sinks.CSV.Path = getEnv("CSV_PATH", c.Sinks.CSV.Path)
	c.Sinks.Postgres.URL = getEnv("DATABASE_URL", c.Sinks.Postgres.URL)
	c.Sinks.Postgres.Table = getEnv("DATABASE_TABLE", c.Sinks.Postgres.Table)
	c.Sinks.Postgres.Driver = getEnv("DATABASE_DRIVER", c.Sinks.Postgres.Driver)
	c.Sinks.SQLite.Path = getEnv("SQLITE_PATH", c.Sinks.SQLite.Path)
	c.Sinks.SQLite.Table = getEnv("SQLITE_TABLE", c.Sinks.SQLite.Table)
	c.Sinks.Sheets.SpreadsheetID = getEnv("SHEETS_SPREADSHEET_ID", c.Sinks.Sheets.SpreadsheetID)
	c.Sinks.Sheets.Range = getEnv("SHEETS_RANGE", c.Sinks.Sheets.Range)
	c.Sinks.Sheets.CredentialsFile = getEnv("GOOGLE_APPLICATION_CREDENTIALS", c.Sinks.Sheets.CredentialsFile)

	var err error
	if c.Pages, err = getEnvInt("PAGES", c.Pages); err != nil {
		return err
	}
	if c.Workers, err = getEnvInt("WORKERS", c.Workers); err != nil {
		return err
	}
	if c.Delay, err = getEnvDuration("PAGE_DELAY", c.Delay); err != nil {
		return err
	}
	if c.FetchTimeout, err = getEnvDuration("FETCH_TIMEOUT", c.FetchTimeout); err != nil {
		return err
	}
	if c.Cache.TTL, err = getEnvDuration("CACHE_TTL", c.Cache.TTL); err != nil {
		return err
	}
	if v := os.Getenv("PRICE_MULTIPLIER"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("invalid PRICE_MULTIPLIER %q: %w", v, err)
		}
		c.PriceMultiplier = f
	}

	return nil
}

// Validate checks the settings that the crawl and sinks depend on.
func (c *Config) Validate() error {
	if c.BaseURL == "" {
		return ErrMissingBaseURL
	}
	if c.Pages < 1 {
		return ErrInvalidPages
	}
	if c.Delay < 0 {
		return ErrInvalidDelay
	}
	if c.FetchTimeout <= 0 {
		return ErrInvalidTimeout
	}
	if c.Workers < 1 {
		return ErrInvalidWorkers
	}
	if c.PriceMultiplier <= 0 {
		return ErrInvalidMultiplier
	}
	if c.Sinks.Postgres.Enabled() {
		switch c.Sinks.Postgres.Driver {
		case "pgx", "pq":
		default:
			return ErrUnknownDriver
		}
	}
	if c.Sinks.Sheets.Enabled() {
		if c.Sinks.Sheets.Range == "" {
			return ErrMissingSheetsRange
		}
		if c.Sinks.Sheets.CredentialsFile == "" {
			return ErrMissingCredentials
		}
	}
	return nil
}

func getEnv(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}

func getEnvInt(k string, d int) (int, error) {
	v := os.Getenv(k)
	if v == "" {
		return d, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", k, v, err)
	}
	return n, nil
}

func getEnvDuration(k string, d time.Duration) (time.Duration, error) {
	v := os.Getenv(k)
	if v == "" {
		return d, nil
	}
	dur, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", k, v, err)
	}
	return dur, nil
}
