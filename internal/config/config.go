package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

const maxConcurrency = 16

type Config struct {
	// Tricount API
	BaseURL     string        `env:"TRICOUNT_BASE_URL" envDefault:"https://api.tricount.bunq.com"`
	UserAgent   string        `env:"TRICOUNT_USER_AGENT" envDefault:"com.bunq.tricount.android:RELEASE:7.0.7:3174:ANDROID:13:C"`
	HTTPTimeout time.Duration `env:"TRICOUNT_HTTP_TIMEOUT" envDefault:"30s"`

	// Export
	ExportBackend string `env:"EXPORT_BACKEND" envDefault:"xlsx"`
	RowIndex      bool   `env:"EXPORT_ROW_INDEX" envDefault:"true"`
	Concurrency   int    `env:"BATCH_CONCURRENCY" envDefault:"1"`

	// Journal (empty path disables it)
	JournalDBPath string `env:"JOURNAL_DB_PATH"`

	// AMQP (empty URL disables notifications)
	AMQPURL      string `env:"AMQP_URL"`
	AMQPExchange string `env:"AMQP_EXCHANGE" envDefault:"tricount"`
	AMQPQueue    string `env:"AMQP_QUEUE" envDefault:"registry_exports"`

	// Google Sheets
	GoogleServiceAccountJSON string `env:"GOOGLE_SERVICE_ACCOUNT_JSON"`
	GoogleServiceAccountFile string `env:"GOOGLE_SERVICE_ACCOUNT_FILE"`

	// Logging
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"tint"`
}

// Load reads the configuration from the environment.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string

	if u, err := url.Parse(c.BaseURL); err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		errors = append(errors, fmt.Sprintf("invalid Tricount base URL '%s': must be an absolute http(s) URL", c.BaseURL))
	}
	if strings.TrimSpace(c.UserAgent) == "" {
		errors = append(errors, "Tricount user agent cannot be empty")
	}
	if c.HTTPTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("invalid HTTP timeout %v: must be positive", c.HTTPTimeout))
	}

	validBackends := []string{"xlsx", "sheets", "memory"}
	isValidBackend := false
	for _, backend := range validBackends {
		if c.ExportBackend == backend {
			isValidBackend = true
			break
		}
	}
	if !isValidBackend {
		errors = append(errors, fmt.Sprintf("invalid export backend '%s': must be one of %v", c.ExportBackend, validBackends))
	}

	if c.Concurrency < 1 {
		errors = append(errors, fmt.Sprintf("invalid batch concurrency %d: must be at least 1", c.Concurrency))
	} else if c.Concurrency > maxConcurrency {
		errors = append(errors, fmt.Sprintf("invalid batch concurrency %d: must be at most %d", c.Concurrency, maxConcurrency))
	}

	// Journal directory must exist or be creatable
	if c.JournalDBPath != "" {
		dir := filepath.Dir(c.JournalDBPath)
		if dir != "." && dir != "" {
			if _, err := os.Stat(dir); os.IsNotExist(err) {
				if err := os.MkdirAll(dir, 0755); err != nil {
					errors = append(errors, fmt.Sprintf("cannot create journal database directory '%s': %v", dir, err))
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

	if c.ExportBackend == "sheets" {
		hasJSON := strings.TrimSpace(c.GoogleServiceAccountJSON) != ""
		hasFile := c.GoogleServiceAccountFile != ""
		if !hasJSON && !hasFile {
			errors = append(errors, "either GOOGLE_SERVICE_ACCOUNT_JSON or GOOGLE_SERVICE_ACCOUNT_FILE must be provided for sheets backend")
		}
		if !hasJSON && hasFile {
			if _, err := os.Stat(c.GoogleServiceAccountFile); os.IsNotExist(err) {
				errors = append(errors, fmt.Sprintf("Google service account file does not exist: %s", c.GoogleServiceAccountFile))
			}
		}
	}

	validLevels := []string{"debug", "info", "warn", "error"}
	if !contains(validLevels, strings.ToLower(c.LogLevel)) {
		errors = append(errors, fmt.Sprintf("invalid log level '%s': must be one of %v", c.LogLevel, validLevels))
	}
	validFormats := []string{"tint", "text", "json"}
	if !contains(validFormats, strings.ToLower(c.LogFormat)) {
		errors = append(errors, fmt.Sprintf("invalid log format '%s': must be one of %v", c.LogFormat, validFormats))
	}

	// Return combined errors
	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}

	return nil
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}
