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

	"github.com/BurntSushi/toml"
)

type Config struct {
	// HTTP Server
	Port string

	// Backend selection
	DataBackend string

	// Database
	SQLiteDBPath string
	DatabaseURL  string

	// Memory backend seed
	SeedDir  string
	SeedUser string

	// AMQP, optional. Without it savings tips are generated inline.
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Gemini
	GeminiAPIKey string
	GeminiModel  string
	AICacheSize  int
	AICacheTTL   time.Duration

	// Google Sheets transaction mirror, optional
	GoogleSpreadsheetID   string
	GoogleSheetName       string
	GoogleCredentialsFile string
	GoogleCredentialsJSON string

	// Dashboard and aggregation
	TopCategoryLimit       int
	RecentTransactionLimit int
	DashboardBudgetLimit   int
	Timezone               string

	LogLevel string
}

// FileConfig is the optional TOML overlay named by CONFIG_FILE. Environment
// variables take precedence over values read from the file.
type FileConfig struct {
	Dashboard DashboardFileConfig `toml:"dashboard"`
	AI        AIFileConfig        `toml:"ai"`
}

type DashboardFileConfig struct {
	TopCategoryLimit       *int   `toml:"top_category_limit,omitempty"`
	RecentTransactionLimit *int   `toml:"recent_transaction_limit,omitempty"`
	DashboardBudgetLimit   *int   `toml:"dashboard_budget_limit,omitempty"`
	Timezone               string `toml:"timezone,omitempty"`
}

type AIFileConfig struct {
	Model     string `toml:"model,omitempty"`
	CacheSize *int   `toml:"cache_size,omitempty"`
	CacheTTL  string `toml:"cache_ttl,omitempty"`
}

var (
	validBackends  = []string{"memory", "sqlite", "postgres"}
	validLogLevels = []string{"debug", "info", "warn", "error"}
)

func Load() *Config {
	cfg := &Config{
		Port:        getEnv("PORT", "8081"),
		DataBackend: getEnv("DATA_BACKEND", "memory"),

		SQLiteDBPath: getEnv("SQLITE_DB_PATH", "./data/fintrack.db"),
		DatabaseURL:  getEnv("DATABASE_URL", ""),

		SeedDir:  getEnv("SEED_DIR", "data"),
		SeedUser: getEnv("SEED_USER", "demo"),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "fintrack"),
		AMQPQueue:    getEnv("AMQP_QUEUE", "fintrack_tasks"),

		GeminiAPIKey: getEnv("GEMINI_API_KEY", ""),
		GeminiModel:  getEnv("GEMINI_MODEL", "gemini-2.0-flash"),
		AICacheSize:  getEnvInt("AI_CACHE_SIZE", 128),
		AICacheTTL:   getEnvDuration("AI_CACHE_TTL", 10*time.Minute),

		GoogleSpreadsheetID:   getEnv("GOOGLE_SPREADSHEET_ID", ""),
		GoogleSheetName:       getEnv("GOOGLE_SHEET_NAME", "Transactions"),
		GoogleCredentialsFile: getEnv("GOOGLE_CREDENTIALS_FILE", ""),
		GoogleCredentialsJSON: getEnv("GOOGLE_CREDENTIALS_JSON", ""),

		TopCategoryLimit:       getEnvInt("TOP_CATEGORY_LIMIT", 6),
		RecentTransactionLimit: getEnvInt("RECENT_TRANSACTION_LIMIT", 5),
		DashboardBudgetLimit:   getEnvInt("DASHBOARD_BUDGET_LIMIT", 3),
		Timezone:               getEnv("TIMEZONE", "UTC"),

		LogLevel: strings.ToLower(getEnv("LOG_LEVEL", "info")),
	}

	return cfg
}

// LoadWithFile loads the environment configuration and, when CONFIG_FILE is
// set, overlays the TOML file underneath it.
func LoadWithFile() (*Config, error) {
	cfg := Load()
	path := os.Getenv("CONFIG_FILE")
	if path == "" {
		return cfg, nil
	}
	fc, err := ReadFile(path)
	if err != nil {
		return cfg, err
	}
	cfg.applyFile(fc)
	return cfg, nil
}

// ReadFile parses a TOML overlay.
func ReadFile(path string) (FileConfig, error) {
	var fc FileConfig
	data, err := os.ReadFile(path)
	if err != nil {
		return fc, fmt.Errorf("reading config: %w", err)
	}
	if err := toml.Unmarshal(data, &fc); err != nil {
		return fc, fmt.Errorf("parsing config: %w", err)
	}
	return fc, nil
}

// applyFile copies file values for every setting not given in the
// environment.
func (c *Config) applyFile(fc FileConfig) {
	setInt := func(key string, dst *int, v *int) {
		if v != nil && os.Getenv(key) == "" {
			*dst = *v
		}
	}
	setString := func(key string, dst *string, v string) {
		if v != "" && os.Getenv(key) == "" {
			*dst = v
		}
	}

	setInt("TOP_CATEGORY_LIMIT", &c.TopCategoryLimit, fc.Dashboard.TopCategoryLimit)
	setInt("RECENT_TRANSACTION_LIMIT", &c.RecentTransactionLimit, fc.Dashboard.RecentTransactionLimit)
	setInt("DASHBOARD_BUDGET_LIMIT", &c.DashboardBudgetLimit, fc.Dashboard.DashboardBudgetLimit)
	setString("TIMEZONE", &c.Timezone, fc.Dashboard.Timezone)

	setString("GEMINI_MODEL", &c.GeminiModel, fc.AI.Model)
	setInt("AI_CACHE_SIZE", &c.AICacheSize, fc.AI.CacheSize)
	if fc.AI.CacheTTL != "" && os.Getenv("AI_CACHE_TTL") == "" {
		if d, err := time.ParseDuration(fc.AI.CacheTTL); err == nil {
			c.AICacheTTL = d
		}
	}
}

// Location resolves Timezone. An empty value means UTC.
func (c *Config) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// AIEnabled reports whether a Gemini key is configured.
func (c *Config) AIEnabled() bool { return c.GeminiAPIKey != "" }

// SheetsEnabled reports whether the Google Sheets mirror is configured.
func (c *Config) SheetsEnabled() bool { return c.GoogleSpreadsheetID != "" }

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string

	// Validate port
	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	// Validate data backend
	if !slices.Contains(validBackends, c.DataBackend) {
		errors = append(errors, fmt.Sprintf("invalid data backend '%s': must be one of %v", c.DataBackend, validBackends))
	}

	switch c.DataBackend {
	case "sqlite":
		if c.SQLiteDBPath == "" {
			errors = append(errors, "SQLite database path cannot be empty when using sqlite backend")
		} else {
			// Check if directory exists or can be created
			dir := filepath.Dir(c.SQLiteDBPath)
			if dir != "." && dir != "" {
				if _, err := os.Stat(dir); os.IsNotExist(err) {
					if err := os.MkdirAll(dir, 0755); err != nil {
						errors = append(errors, fmt.Sprintf("cannot create SQLite database directory '%s': %v", dir, err))
					}
				}
			}
		}
	case "postgres":
		if c.DatabaseURL == "" {
			errors = append(errors, "DATABASE_URL is required when using postgres backend")
		} else if u, err := url.Parse(c.DatabaseURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid DATABASE_URL: %v", err))
		} else if u.Scheme != "postgres" && u.Scheme != "postgresql" {
			errors = append(errors, fmt.Sprintf("invalid DATABASE_URL scheme '%s': must be 'postgres' or 'postgresql'", u.Scheme))
		}
	}

	// Validate AMQP URL if provided
	if c.AMQPURL != "" {
		if parsedURL, err := url.Parse(c.AMQPURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme))
		}
		if c.AMQPExchange == "" {
			errors = append(errors, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPQueue == "" {
			errors = append(errors, "AMQP queue name cannot be empty when AMQP URL is provided")
		}
	}

	// Validate AI settings
	if c.AIEnabled() && c.GeminiModel == "" {
		errors = append(errors, "GEMINI_MODEL cannot be empty when GEMINI_API_KEY is set")
	}
	if c.AICacheSize < 1 {
		errors = append(errors, fmt.Sprintf("invalid AI cache size %d: must be at least 1", c.AICacheSize))
	}
	if c.AICacheTTL < time.Second {
		errors = append(errors, fmt.Sprintf("invalid AI cache TTL %v: must be at least 1 second", c.AICacheTTL))
	}

	// Validate Google Sheets mirror if enabled
	if c.SheetsEnabled() {
		if c.GoogleSheetName == "" {
			errors = append(errors, "Google Sheet name is required when GOOGLE_SPREADSHEET_ID is set")
		}
		hasFile := c.GoogleCredentialsFile != ""
		hasJSON := c.GoogleCredentialsJSON != ""
		if !hasFile && !hasJSON {
			errors = append(errors, "either GOOGLE_CREDENTIALS_FILE or GOOGLE_CREDENTIALS_JSON must be provided for the sheets mirror")
		}
		if hasFile {
			if _, err := os.Stat(c.GoogleCredentialsFile); os.IsNotExist(err) {
				errors = append(errors, fmt.Sprintf("Google credentials file does not exist: %s", c.GoogleCredentialsFile))
			}
		}
	}

	// Validate dashboard bounds
	for _, limit := range []struct {
		name  string
		value int
	}{
		{"TOP_CATEGORY_LIMIT", c.TopCategoryLimit},
		{"RECENT_TRANSACTION_LIMIT", c.RecentTransactionLimit},
		{"DASHBOARD_BUDGET_LIMIT", c.DashboardBudgetLimit},
	} {
		if limit.value < 0 || limit.value > 100 {
			errors = append(errors, fmt.Sprintf("invalid %s %d: must be between 0 and 100", limit.name, limit.value))
		}
	}

	if _, err := c.Location(); err != nil {
		errors = append(errors, fmt.Sprintf("invalid timezone '%s': %v", c.Timezone, err))
	}

	if !slices.Contains(validLogLevels, c.LogLevel) {
		errors = append(errors, fmt.Sprintf("invalid log level '%s': must be one of %v", c.LogLevel, validLogLevels))
	}

	// Return combined errors
	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}

	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
