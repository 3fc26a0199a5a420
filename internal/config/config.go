// Package config reads the process configuration from the environment.
package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"expenses/internal/core"
)

// Data backends understood by the reference API.
const (
	BackendMemory   = "memory"
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
)

// Backends lists the valid DATA_BACKEND values.
var Backends = []string{BackendMemory, BackendSQLite, BackendPostgres}

type Config struct {
	// Web UI
	Port   string `env:"PORT" envDefault:"8081"`
	Budget string `env:"BUDGET"`

	// REST backend, as served and as consumed
	APIPort        string        `env:"API_PORT" envDefault:"8080"`
	APIBaseURL     string        `env:"API_BASE_URL" envDefault:"http://localhost:8080"`
	RequestTimeout time.Duration `env:"REQUEST_TIMEOUT" envDefault:"10s"`

	// Storage
	DataBackend  string `env:"DATA_BACKEND" envDefault:"memory"`
	SQLiteDBPath string `env:"SQLITE_DB_PATH" envDefault:"./data/expenses.db"`
	PostgresURL  string `env:"POSTGRES_URL"`
	SeedDemo     bool   `env:"SEED_DEMO" envDefault:"true"`

	// HTTP hardening
	CacheTTL       time.Duration `env:"CACHE_TTL" envDefault:"30s"`
	RateLimit      int           `env:"RATE_LIMIT" envDefault:"60"`
	TrustedProxies []string      `env:"TRUSTED_PROXIES" envSeparator:","`

	// AMQP, disabled when the URL is empty
	AMQPURL      string `env:"AMQP_URL"`
	AMQPExchange string `env:"AMQP_EXCHANGE" envDefault:"expenses"`
	AMQPQueue    string `env:"AMQP_QUEUE" envDefault:"mirror_expenses"`

	// Google Sheets mirror
	GoogleSpreadsheetID       string `env:"GOOGLE_SPREADSHEET_ID"`
	GoogleSheetName           string `env:"GOOGLE_SHEET_NAME" envDefault:"Expenses"`
	GoogleServiceAccountJSON  string `env:"GOOGLE_SERVICE_ACCOUNT_JSON"`
	GoogleServiceAccountFile  string `env:"GOOGLE_SERVICE_ACCOUNT_FILE"`
	GoogleApplicationCredFile string `env:"GOOGLE_APPLICATION_CREDENTIALS"`

	// Worker
	SyncInterval time.Duration `env:"SYNC_INTERVAL" envDefault:"1m"`

	// Logging
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"text"`
}

// Load reads an optional .env file and then the environment.
func Load() (*Config, error) {
	// .env is a local development convenience; its absence is normal.
	_ = godotenv.Load()
	return parse(env.Options{})
}

func parse(opts env.Options) (*Config, error) {
	cfg := &Config{}
	if err := env.ParseWithOptions(cfg, opts); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}

// Validate checks the settings every binary depends on and reports all
// problems at once.
func (c *Config) Validate() error {
	return joinProblems(c.problems())
}

// ValidateWorker is Validate plus the Google Sheets settings the mirror
// worker needs.
func (c *Config) ValidateWorker() error {
	problems := c.problems()

	if c.GoogleSpreadsheetID == "" {
		problems = append(problems, "Google Spreadsheet ID is required for the mirror worker")
	}
	if strings.TrimSpace(c.GoogleSheetName) == "" {
		problems = append(problems, "Google Sheet name cannot be empty")
	}
	if c.GoogleServiceAccountJSON == "" && c.ServiceAccountFile() == "" {
		problems = append(problems, "either GOOGLE_SERVICE_ACCOUNT_JSON or GOOGLE_SERVICE_ACCOUNT_FILE must be provided for the mirror worker")
	}
	if f := c.ServiceAccountFile(); f != "" && c.GoogleServiceAccountJSON == "" {
		if _, err := os.Stat(f); os.IsNotExist(err) {
			problems = append(problems, fmt.Sprintf("Google service account file does not exist: %s", f))
		}
	}

	return joinProblems(problems)
}

// ServiceAccountFile prefers GOOGLE_SERVICE_ACCOUNT_FILE over the standard
// GOOGLE_APPLICATION_CREDENTIALS.
func (c *Config) ServiceAccountFile() string {
	if c.GoogleServiceAccountFile != "" {
		return c.GoogleServiceAccountFile
	}
	return c.GoogleApplicationCredFile
}

// BudgetAmount parses BUDGET; an empty value is a zero budget.
func (c *Config) BudgetAmount() (core.Money, error) {
	return core.ParseBudget(c.Budget)
}

func (c *Config) problems() []string {
	var problems []string

	problems = append(problems, checkPort("port", c.Port)...)
	problems = append(problems, checkPort("API port", c.APIPort)...)

	if u, err := url.Parse(c.APIBaseURL); err != nil || c.APIBaseURL == "" {
		problems = append(problems, fmt.Sprintf("invalid API base URL '%s'", c.APIBaseURL))
	} else if u.Scheme != "http" && u.Scheme != "https" {
		problems = append(problems, fmt.Sprintf("invalid API base URL scheme '%s': must be 'http' or 'https'", u.Scheme))
	} else if u.Host == "" {
		problems = append(problems, fmt.Sprintf("invalid API base URL '%s': missing host", c.APIBaseURL))
	}

	if c.RequestTimeout <= 0 {
		problems = append(problems, fmt.Sprintf("invalid request timeout %v: must be positive", c.RequestTimeout))
	} else if c.RequestTimeout > 5*time.Minute {
		problems = append(problems, fmt.Sprintf("invalid request timeout %v: must be at most 5 minutes", c.RequestTimeout))
	}

	if !slices.Contains(Backends, c.DataBackend) {
		problems = append(problems, fmt.Sprintf("invalid data backend '%s': must be one of %v", c.DataBackend, Backends))
	}

	switch c.DataBackend {
	case BackendSQLite:
		if c.SQLiteDBPath == "" {
			problems = append(problems, "SQLite database path cannot be empty when using sqlite backend")
		} else if dir := filepath.Dir(c.SQLiteDBPath); dir != "." && dir != "" {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				problems = append(problems, fmt.Sprintf("cannot create SQLite database directory '%s': %v", dir, err))
			}
		}
	case BackendPostgres:
		if c.PostgresURL == "" {
			problems = append(problems, "Postgres URL cannot be empty when using postgres backend")
		} else if u, err := url.Parse(c.PostgresURL); err != nil {
			problems = append(problems, fmt.Sprintf("invalid Postgres URL: %v", err))
		} else if u.Scheme != "postgres" && u.Scheme != "postgresql" {
			problems = append(problems, fmt.Sprintf("invalid Postgres URL scheme '%s': must be 'postgres' or 'postgresql'", u.Scheme))
		}
	}

	if c.AMQPURL != "" {
		if u, err := url.Parse(c.AMQPURL); err != nil {
			problems = append(problems, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if u.Scheme != "amqp" && u.Scheme != "amqps" {
			problems = append(problems, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", u.Scheme))
		}
		if c.AMQPExchange == "" {
			problems = append(problems, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPQueue == "" {
			problems = append(problems, "AMQP queue name cannot be empty when AMQP URL is provided")
		}
	}

	if _, err := c.BudgetAmount(); err != nil {
		problems = append(problems, fmt.Sprintf("invalid budget '%s': %v", c.Budget, err))
	}

	if c.CacheTTL < 0 {
		problems = append(problems, fmt.Sprintf("invalid cache TTL %v: must not be negative", c.CacheTTL))
	}
	if c.RateLimit < 1 {
		problems = append(problems, fmt.Sprintf("invalid rate limit %d: must be at least 1", c.RateLimit))
	}

	if c.SyncInterval < time.Second {
		problems = append(problems, fmt.Sprintf("invalid sync interval %v: must be at least 1 second", c.SyncInterval))
	} else if c.SyncInterval > 24*time.Hour {
		problems = append(problems, fmt.Sprintf("invalid sync interval %v: must be at most 24 hours", c.SyncInterval))
	}

	switch strings.ToLower(c.LogFormat) {
	case "text", "json":
	default:
		problems = append(problems, fmt.Sprintf("invalid log format '%s': must be 'text' or 'json'", c.LogFormat))
	}

	return problems
}

func checkPort(name, value string) []string {
	port, err := strconv.Atoi(value)
	if err != nil {
		return []string{fmt.Sprintf("invalid %s '%s': must be a number", name, value)}
	}
	if port < 1 || port > 65535 {
		return []string{fmt.Sprintf("invalid %s %d: must be between 1 and 65535", name, port)}
	}
	return nil
}

func joinProblems(problems []string) error {
	if len(problems) == 0 {
		return nil
	}
	return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(problems, "\n- "))
}
