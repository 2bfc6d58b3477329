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
)

type Config struct {
	// HTTP Server
	Port               string
	RateLimitPerMinute int
	LogLevel           string

	// Backend selection
	DataBackend   string
	MirrorBackend string

	// Local storage
	SQLiteDBPath string
	StorageKey   string
	ThemeKey     string

	// AMQP
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Mirror worker
	MirrorInterval time.Duration

	// Google Sheets
	GoogleSpreadsheetID      string
	GoogleSheetName          string
	GoogleExportSheetName    string
	GoogleServiceAccountJSON string
	GoogleServiceAccountFile string

	// Supabase
	SupabaseURL   string
	SupabaseKey   string
	SupabaseTable string

	// Azure Table Storage
	AzureTablesConnectionString string
	AzureTableName              string

	// Views
	ViewCacheSize int
	ViewCacheTTL  time.Duration
}

var (
	validBackends  = []string{"memory", "sqlite", "sheets", "supabase", "aztables"}
	remoteBackends = []string{"sheets", "supabase", "aztables"}
	validLogLevels = []string{"debug", "info", "warn", "error"}
)

func Load() *Config {
	cfg := &Config{
		Port:               getEnv("PORT", "8081"),
		RateLimitPerMinute: getEnvInt("RATE_LIMIT_PER_MINUTE", 120),
		LogLevel:           strings.ToLower(getEnv("LOG_LEVEL", "info")),

		DataBackend:   getEnv("DATA_BACKEND", "sqlite"),
		MirrorBackend: getEnv("MIRROR_BACKEND", ""),

		SQLiteDBPath: getEnv("SQLITE_DB_PATH", "./data/myexpense.db"),
		StorageKey:   getEnv("STORAGE_KEY", "myexpense_data_v1"),
		ThemeKey:     getEnv("THEME_KEY", "myexpense_theme_v1"),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "myexpense"),
		AMQPQueue:    getEnv("AMQP_QUEUE", "mirror_transactions"),

		MirrorInterval: getEnvDuration("MIRROR_INTERVAL", 15*time.Minute),

		GoogleSpreadsheetID:      getEnv("GOOGLE_SPREADSHEET_ID", ""),
		GoogleSheetName:          getEnv("GOOGLE_SHEET_NAME", "Ledger"),
		GoogleExportSheetName:    getEnv("GOOGLE_EXPORT_SHEET_NAME", "Transactions"),
		GoogleServiceAccountJSON: getEnv("GOOGLE_SERVICE_ACCOUNT_JSON", ""),
		GoogleServiceAccountFile: getEnv("GOOGLE_SERVICE_ACCOUNT_FILE", ""),

		SupabaseURL:   getEnv("SUPABASE_URL", ""),
		SupabaseKey:   getEnv("SUPABASE_KEY", ""),
		SupabaseTable: getEnv("SUPABASE_TABLE", "transactions"),

		AzureTablesConnectionString: getEnv("AZURE_TABLES_CONNECTION_STRING", ""),
		AzureTableName:              getEnv("AZURE_TABLE_NAME", "transactions"),

		ViewCacheSize: getEnvInt("VIEW_CACHE_SIZE", 64),
		ViewCacheTTL:  getEnvDuration("VIEW_CACHE_TTL", 5*time.Minute),
	}

	return cfg
}

// SheetsConfigured reports whether a spreadsheet is available for exports.
func (c *Config) SheetsConfigured() bool {
	return c.GoogleSpreadsheetID != "" &&
		(c.GoogleServiceAccountJSON != "" || c.GoogleServiceAccountFile != "")
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string

	// Validate port
	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	if !slices.Contains(validLogLevels, c.LogLevel) {
		errors = append(errors, fmt.Sprintf("invalid log level '%s': must be one of %v", c.LogLevel, validLogLevels))
	}

	// Validate data backend
	if !slices.Contains(validBackends, c.DataBackend) {
		errors = append(errors, fmt.Sprintf("invalid data backend '%s': must be one of %v", c.DataBackend, validBackends))
	}

	// Every backend except memory keeps preferences in SQLite.
	if c.DataBackend != "memory" {
		if c.SQLiteDBPath == "" {
			errors = append(errors, fmt.Sprintf("SQLite database path cannot be empty when using %s backend", c.DataBackend))
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
	}

	if c.StorageKey == "" {
		errors = append(errors, "storage key cannot be empty")
	}
	if c.ThemeKey == "" {
		errors = append(errors, "theme key cannot be empty")
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

	errors = append(errors, c.validateRemote(c.DataBackend)...)

	if c.MirrorBackend != "" {
		switch {
		case !slices.Contains(remoteBackends, c.MirrorBackend):
			errors = append(errors, fmt.Sprintf("invalid mirror backend '%s': must be one of %v", c.MirrorBackend, remoteBackends))
		case c.MirrorBackend == c.DataBackend:
			errors = append(errors, fmt.Sprintf("mirror backend '%s' cannot be the data backend", c.MirrorBackend))
		default:
			errors = append(errors, c.validateRemote(c.MirrorBackend)...)
		}
		if c.AMQPURL == "" {
			errors = append(errors, "AMQP URL is required when a mirror backend is configured")
		}
		if c.MirrorInterval < time.Minute {
			errors = append(errors, fmt.Sprintf("invalid mirror interval %v: must be at least 1 minute", c.MirrorInterval))
		}
	}

	if c.ViewCacheSize < 1 {
		errors = append(errors, fmt.Sprintf("invalid view cache size %d: must be at least 1", c.ViewCacheSize))
	} else if c.ViewCacheSize > 10000 {
		errors = append(errors, fmt.Sprintf("invalid view cache size %d: must be at most 10000", c.ViewCacheSize))
	}

	if c.ViewCacheTTL < time.Second {
		errors = append(errors, fmt.Sprintf("invalid view cache TTL %v: must be at least 1 second", c.ViewCacheTTL))
	} else if c.ViewCacheTTL > 24*time.Hour {
		errors = append(errors, fmt.Sprintf("invalid view cache TTL %v: must be at most 24 hours", c.ViewCacheTTL))
	}

	if c.RateLimitPerMinute < 1 {
		errors = append(errors, fmt.Sprintf("invalid rate limit %d: must be at least 1 request per minute", c.RateLimitPerMinute))
	}

	// Return combined errors
	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}

	return nil
}

// validateRemote checks the settings a remote backend needs.
func (c *Config) validateRemote(backend string) []string {
	var errors []string
	switch backend {
	case "sheets":
		if c.GoogleSpreadsheetID == "" {
			errors = append(errors, "Google Spreadsheet ID is required when using sheets backend")
		}
		if c.GoogleSheetName == "" {
			errors = append(errors, "Google Sheet name is required when using sheets backend")
		}
		hasJSON := c.GoogleServiceAccountJSON != ""
		hasFile := c.GoogleServiceAccountFile != ""
		if !hasJSON && !hasFile {
			errors = append(errors, "either GOOGLE_SERVICE_ACCOUNT_JSON or GOOGLE_SERVICE_ACCOUNT_FILE must be provided for sheets backend")
		}
		if hasFile {
			if _, err := os.Stat(c.GoogleServiceAccountFile); os.IsNotExist(err) {
				errors = append(errors, fmt.Sprintf("Google service account file does not exist: %s", c.GoogleServiceAccountFile))
			}
		}
	case "supabase":
		if c.SupabaseURL == "" || c.SupabaseKey == "" {
			errors = append(errors, "SUPABASE_URL and SUPABASE_KEY are required when using supabase backend")
		}
		if c.SupabaseTable == "" {
			errors = append(errors, "Supabase table name is required when using supabase backend")
		}
	case "aztables":
		if c.AzureTablesConnectionString == "" {
			errors = append(errors, "AZURE_TABLES_CONNECTION_STRING is required when using aztables backend")
		}
		if c.AzureTableName == "" {
			errors = append(errors, "Azure table name is required when using aztables backend")
		}
	}
	return errors
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
