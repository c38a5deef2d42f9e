package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	// Environment: development, staging, production
	Env string

	// HTTP surface (serve command)
	Port string

	// Logging settings
	LogLevel  string
	LogFormat string // "json" or "text"
	LogOutput string // "stdout", "stderr", or file path
	LogAsync  bool

	// Directory behaviour
	SeedFile         string // YAML contacts loaded at start-up; empty = none
	PhoneCountryCode string // rewrite 0XXXXXXXXX to <code>XXXXXXXXX; empty = off

	// Metrics
	MetricsEnabled bool
	MetricsPath    string
}

func Load() *Config {
	env := strings.ToLower(getEnv("ENV", "development"))

	// Default toggles based on env
	metricsDefault := env == "development" || env == "staging"
	metricsEnabled, _ := strconv.ParseBool(getEnv("METRICS_ENABLED", strconv.FormatBool(metricsDefault)))
	logAsync, _ := strconv.ParseBool(getEnv("LOG_ASYNC", "false"))

	cfg := &Config{
		Env:  env,
		Port: getEnv("PORT", "8080"),

		LogLevel:  strings.ToLower(getEnv("LOG_LEVEL", "info")),
		LogFormat: getEnv("LOG_FORMAT", "text"),
		LogOutput: getEnv("LOG_OUTPUT", "stderr"),
		LogAsync:  logAsync,

		SeedFile:         getEnv("SEED_FILE", ""),
		PhoneCountryCode: getEnv("PHONE_COUNTRY_CODE", ""),

		MetricsEnabled: metricsEnabled,
		MetricsPath:    getEnv("METRICS_PATH", "/metrics"),
	}

	return cfg
}

// LoadEnvFile applies KEY=VALUE pairs from path on top of the current
// environment, then reloads. Values already set in the process win.
func LoadEnvFile(path string) (*Config, error) {
	if path == "" {
		return Load(), nil
	}
	if err := godotenv.Load(path); err != nil {
		return nil, fmt.Errorf("load env file %s: %w", path, err)
	}
	log.Printf("Loaded environment from %s", path)
	return Load(), nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
