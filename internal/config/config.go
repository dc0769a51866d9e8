// Package config loads application settings from the environment.
package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	// HTTP Server
	Port string

	// Database
	SQLiteDBPath string

	// AMQP (optional; empty URL disables activity publishing)
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Google Sheets export (worker only)
	GoogleSpreadsheetID   string
	GoogleSheetName       string
	GoogleCredentialsFile string
	GoogleCredentialsJSON string

	// Export worker
	ExportBatchSize int
	ExportInterval  time.Duration
}

func Load() *Config {
	return &Config{
		Port:         getEnv("PORT", "8081"),
		SQLiteDBPath: getEnv("SQLITE_DB_PATH", "./data/mycount.db"),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "mycount"),
		AMQPQueue:    getEnv("AMQP_QUEUE", "plan_activity"),

		GoogleSpreadsheetID:   getEnv("GOOGLE_SPREADSHEET_ID", ""),
		GoogleSheetName:       getEnv("GOOGLE_SHEET_NAME", "Expenses"),
		GoogleCredentialsFile: getEnv("GOOGLE_CREDENTIALS_FILE", ""),
		GoogleCredentialsJSON: getEnv("GOOGLE_CREDENTIALS_JSON", ""),

		ExportBatchSize: getEnvInt("EXPORT_BATCH_SIZE", 10),
		ExportInterval:  getEnvDuration("EXPORT_INTERVAL", 30*time.Second),
	}
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	if c.SQLiteDBPath == "" {
		errors = append(errors, "SQLite database path cannot be empty")
	} else {
		dir := filepath.Dir(c.SQLiteDBPath)
		if dir != "." && dir != "" {
			if _, err := os.Stat(dir); os.IsNotExist(err) {
				if err := os.MkdirAll(dir, 0755); err != nil {
					errors = append(errors, fmt.Sprintf("cannot create SQLite database directory '%s': %v", dir, err))
				}
			}
		}
	}

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

	if c.GoogleSpreadsheetID != "" {
		if c.GoogleSheetName == "" {
			errors = append(errors, "Google Sheet name is required when a spreadsheet ID is configured")
		}
		if c.GoogleCredentialsFile == "" && c.GoogleCredentialsJSON == "" {
			errors = append(errors, "either GOOGLE_CREDENTIALS_FILE or GOOGLE_CREDENTIALS_JSON must be provided for the export")
		}
		if c.GoogleCredentialsFile != "" {
			if _, err := os.Stat(c.GoogleCredentialsFile); os.IsNotExist(err) {
				errors = append(errors, fmt.Sprintf("Google credentials file does not exist: %s", c.GoogleCredentialsFile))
			}
		}
	}

	if c.ExportBatchSize < 1 {
		errors = append(errors, fmt.Sprintf("invalid export batch size %d: must be at least 1", c.ExportBatchSize))
	} else if c.ExportBatchSize > 1000 {
		errors = append(errors, fmt.Sprintf("invalid export batch size %d: must be at most 1000", c.ExportBatchSize))
	}

	if c.ExportInterval < time.Second {
		errors = append(errors, fmt.Sprintf("invalid export interval %v: must be at least 1 second", c.ExportInterval))
	} else if c.ExportInterval > 24*time.Hour {
		errors = append(errors, fmt.Sprintf("invalid export interval %v: must be at most 24 hours", c.ExportInterval))
	}

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
