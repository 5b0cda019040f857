// Package config loads client settings from the environment.
package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const (
	BackendRemote = "remote"
	BackendSQLite = "sqlite"

	NotifierHTTP = "http"
	NotifierAMQP = "amqp"
)

type Config struct {
	// External API
	APIURL      string
	HTTPTimeout time.Duration

	// Persistence
	DataBackend  string
	SQLiteDBPath string

	// Notification
	Notifier     string
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Session
	TokenFile string
	JWTSecret string

	// Observability
	MetricsAddr string
	LogLevel    string
}

// Load reads the configuration from environment variables.
func Load() *Config {
	return &Config{
		APIURL:      getEnv("API_URL", "http://localhost:3000"),
		HTTPTimeout: getEnvDuration("HTTP_TIMEOUT", 15*time.Second),

		DataBackend:  strings.ToLower(getEnv("DATA_BACKEND", BackendRemote)),
		SQLiteDBPath: getEnv("DB_PATH", "./data/splitledger.db"),

		Notifier:     strings.ToLower(getEnv("NOTIFIER", NotifierHTTP)),
		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "splitledger"),
		AMQPQueue:    getEnv("AMQP_QUEUE", "distribution_emails"),

		TokenFile: getEnv("TOKEN_FILE", defaultTokenFile()),
		JWTSecret: getEnv("JWT_SECRET", ""),

		MetricsAddr: getEnv("METRICS_ADDR", ""),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
	}
}

// Validate returns every configuration problem in one error.
func (c *Config) Validate() error {
	var errors []string

	needsAPI := c.DataBackend == BackendRemote || c.Notifier == NotifierHTTP
	if needsAPI || c.APIURL != "" {
		if u, err := url.Parse(c.APIURL); err != nil || u.Host == "" {
			errors = append(errors, fmt.Sprintf("invalid API URL '%s': must be an absolute URL", c.APIURL))
		} else if u.Scheme != "http" && u.Scheme != "https" {
			errors = append(errors, fmt.Sprintf("invalid API URL scheme '%s': must be 'http' or 'https'", u.Scheme))
		}
	}

	if c.HTTPTimeout < 0 {
		errors = append(errors, "HTTP timeout cannot be negative")
	}

	switch c.DataBackend {
	case BackendRemote:
	case BackendSQLite:
		if c.SQLiteDBPath == "" {
			errors = append(errors, "SQLite database path cannot be empty when using sqlite backend")
		}
	default:
		errors = append(errors, fmt.Sprintf("invalid data backend '%s': must be one of [%s %s]", c.DataBackend, BackendRemote, BackendSQLite))
	}

	switch c.Notifier {
	case NotifierHTTP:
	case NotifierAMQP:
		if c.AMQPURL == "" {
			errors = append(errors, "AMQP URL is required when using amqp notifier")
		} else if u, err := url.Parse(c.AMQPURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if u.Scheme != "amqp" && u.Scheme != "amqps" {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", u.Scheme))
		}
		if c.AMQPExchange == "" {
			errors = append(errors, "AMQP exchange name cannot be empty when using amqp notifier")
		}
		if c.AMQPQueue == "" {
			errors = append(errors, "AMQP queue name cannot be empty when using amqp notifier")
		}
	default:
		errors = append(errors, fmt.Sprintf("invalid notifier '%s': must be one of [%s %s]", c.Notifier, NotifierHTTP, NotifierAMQP))
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n  - %s", strings.Join(errors, "\n  - "))
	}
	return nil
}

func defaultTokenFile() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ".splitledger-token"
	}
	return filepath.Join(dir, "splitledger", "token")
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}
