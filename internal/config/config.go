package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all store server configuration
type Config struct {
	// Server configuration
	Port          string
	LogLevel      string
	HealthTimeout time.Duration

	// Database configuration
	DBType               string // mysql, postgres, sqlite, sqlite-purego, sqlserver
	DBHost               string
	DBPort               string
	DBAppDatabase        string
	DBAppUser            string
	DBAppPassword        string
	DBAppConnectionLimit int

	// Authorizer configuration
	AuthzURL         string
	AuthzClientID    string
	AuthzRedirectURL string
}

// ClientConfig holds the landlord client configuration
type ClientConfig struct {
	StoreURL     string
	StoreSession string
	StoreTimeout time.Duration
	LogLevel     string
}

// Load loads store configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		Port:                 getEnv("PORT", "3000"),
		LogLevel:             getEnv("LOG_LEVEL", "info"),
		HealthTimeout:        getEnvAsDuration("HEALTH_TIMEOUT", 1500*time.Millisecond),
		DBType:               getEnv("DB_TYPE", "mysql"),
		DBHost:               getEnv("DB_HOST", "localhost"),
		DBPort:               getEnv("DB_PORT", "3306"),
		DBAppDatabase:        getEnv("DB_APP_DATABASE", ""),
		DBAppUser:            getEnv("DB_APP_USER", ""),
		DBAppPassword:        getEnv("DB_APP_PASSWORD", ""),
		DBAppConnectionLimit: getEnvAsInt("DB_APP_CONNECTION_LIMIT", 5),
		AuthzURL:             getEnv("AUTHZ_URL", ""),
		AuthzClientID:        getEnv("AUTHZ_CLIENT_ID", ""),
	}
	cfg.AuthzRedirectURL = getEnv("AUTHZ_REDIRECT_URL", "http://localhost:"+cfg.Port)

	// Validate required fields
	if cfg.DBAppDatabase == "" {
		return nil, fmt.Errorf("DB_APP_DATABASE is required")
	}
	if cfg.DBAppUser == "" && !cfg.IsSQLite() {
		return nil, fmt.Errorf("DB_APP_USER is required")
	}
	if cfg.AuthzURL == "" {
		return nil, fmt.Errorf("AUTHZ_URL is required")
	}
	if cfg.AuthzClientID == "" {
		return nil, fmt.Errorf("AUTHZ_CLIENT_ID is required")
	}
	if cfg.DBAppConnectionLimit < 1 {
		cfg.DBAppConnectionLimit = 1
	}

	return cfg, nil
}

// LoadClient loads landlord client configuration from environment variables
func LoadClient() (*ClientConfig, error) {
	cfg := &ClientConfig{
		StoreURL:     strings.TrimSuffix(getEnv("STORE_URL", "http://localhost:3000"), "/"),
		StoreSession: getEnv("STORE_SESSION", ""),
		StoreTimeout: getEnvAsDuration("STORE_TIMEOUT", 10*time.Second),
		LogLevel:     getEnv("LOG_LEVEL", "warn"),
	}

	if !strings.HasPrefix(cfg.StoreURL, "http://") && !strings.HasPrefix(cfg.StoreURL, "https://") {
		return nil, fmt.Errorf("STORE_URL must be an http(s) URL, got %q", cfg.StoreURL)
	}

	return cfg, nil
}

// IsSQLite reports whether the configured database is a sqlite file
func (c *Config) IsSQLite() bool {
	return c.DBType == "sqlite" || c.DBType == "sqlite-purego"
}

// getEnv gets an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt gets an environment variable as an integer or returns a default value
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

// getEnvAsDuration accepts Go durations ("5s") or whole seconds ("5")
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	if d, err := time.ParseDuration(valueStr); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(valueStr); err == nil {
		return time.Duration(secs) * time.Second
	}
	return defaultValue
}
