package config

import (
	"bufio"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/cesargomez89/genofetch/internal/constants"
)

// Config holds all application configuration
type Config struct {
	APIKey         string
	BaseURL        string
	DBPath         string
	LogLevel       string
	LogFormat      string
	Workers        int
	RequestTimeout time.Duration
	RetryCount     int
	RetryBase      time.Duration
}

// Load loads configuration from environment variables with defaults. The
// catalog API key may also come from a .env file in the working directory,
// the environment variable taking precedence.
func Load() *Config {
	apiKey := os.Getenv(constants.EnvAPIKey)
	if apiKey == "" {
		apiKey = apiKeyFromEnvFile(constants.EnvFileName)
	}

	return &Config{
		APIKey:         apiKey,
		BaseURL:        getEnv("GENOFETCH_BASE_URL", constants.DefaultBaseURL),
		DBPath:         getEnv("GENOFETCH_DB_PATH", constants.DefaultDBPath),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		LogFormat:      getEnv("LOG_FORMAT", "text"),
		Workers:        getEnvInt("GENOFETCH_WORKERS", constants.DefaultWorkers),
		RequestTimeout: getEnvDuration("GENOFETCH_TIMEOUT", constants.DefaultHTTPTimeout),
		RetryCount:     getEnvInt("GENOFETCH_RETRIES", constants.DefaultRetryCount),
		RetryBase:      getEnvDuration("GENOFETCH_RETRY_BASE", constants.DefaultRetryBase),
	}
}

// RequestsPerSecond returns the request budget the catalog grants this
// configuration: half the rate when no API key is present.
func (c *Config) RequestsPerSecond() int {
	if c.APIKey != "" {
		return constants.RateWithKey
	}
	return constants.RateWithoutKey
}

// Validate validates the configuration and returns detailed errors
func (c *Config) Validate() error {
	var errors []string

	if c.BaseURL == "" {
		errors = append(errors, "GENOFETCH_BASE_URL cannot be empty")
	} else if _, err := url.Parse(c.BaseURL); err != nil {
		errors = append(errors, fmt.Sprintf("GENOFETCH_BASE_URL is not a valid URL: %s", c.BaseURL))
	}

	if c.DBPath == "" {
		errors = append(errors, "GENOFETCH_DB_PATH cannot be empty")
	}

	if c.Workers < 1 {
		errors = append(errors, fmt.Sprintf("GENOFETCH_WORKERS must be at least 1, got: %d", c.Workers))
	}

	if c.RequestTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("GENOFETCH_TIMEOUT must be positive, got: %s", c.RequestTimeout))
	}

	if c.RetryCount < 1 {
		errors = append(errors, fmt.Sprintf("GENOFETCH_RETRIES must be at least 1, got: %d", c.RetryCount))
	}

	if c.RetryBase <= 0 {
		errors = append(errors, fmt.Sprintf("GENOFETCH_RETRY_BASE must be positive, got: %s", c.RetryBase))
	}

	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[c.LogLevel] {
		errors = append(errors, fmt.Sprintf("LOG_LEVEL must be one of: debug, info, warn, error, got: %s", c.LogLevel))
	}

	validLogFormats := map[string]bool{
		"text": true,
		"json": true,
	}
	if !validLogFormats[c.LogFormat] {
		errors = append(errors, fmt.Sprintf("LOG_FORMAT must be one of: text, json, got: %s", c.LogFormat))
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n  - %s", strings.Join(errors, "\n  - "))
	}

	return nil
}

// apiKeyFromEnvFile reads NCBI_API_KEY from a dotenv-style file. Placeholder
// values from a template file are ignored.
func apiKeyFromEnvFile(path string) string {
	f, err := os.Open(path)
	if err != nil {
		return ""
	}
	defer func() {
		_ = f.Close()
	}()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if !strings.HasPrefix(line, constants.EnvAPIKey+"=") {
			continue
		}
		value := strings.TrimPrefix(line, constants.EnvAPIKey+"=")
		value = strings.Trim(value, `"'`)
		if value != "" && value != "your_api_key_here" {
			return value
		}
	}
	return ""
}

// getEnv retrieves an environment variable with a fallback default
func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value, ok := os.LookupEnv(key); ok {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}
