package config

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	errs "address-book/pkg/errors"
)

var countryCodeRegex = regexp.MustCompile(`^\+?[0-9]{1,3}$`)

// ValidationError represents a configuration validation error
type ValidationError struct {
	Field   string
	Value   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("config validation error for field '%s' with value '%s': %s", e.Field, e.Value, e.Message)
}

// ConfigValidator collects configuration validation errors
type ConfigValidator struct {
	errors []ValidationError
}

// NewConfigValidator creates a new configuration validator
func NewConfigValidator() *ConfigValidator {
	return &ConfigValidator{
		errors: make([]ValidationError, 0),
	}
}

// AddError adds a validation error
func (cv *ConfigValidator) AddError(field, value, message string) {
	cv.errors = append(cv.errors, ValidationError{
		Field:   field,
		Value:   value,
		Message: message,
	})
}

// HasErrors returns true if there are validation errors
func (cv *ConfigValidator) HasErrors() bool {
	return len(cv.errors) > 0
}

// GetErrors returns all validation errors
func (cv *ConfigValidator) GetErrors() []ValidationError {
	return cv.errors
}

// GetErrorsAsString returns all validation errors as a formatted string
func (cv *ConfigValidator) GetErrorsAsString() string {
	var errorStrings []string
	for _, err := range cv.errors {
		errorStrings = append(errorStrings, err.Error())
	}
	return strings.Join(errorStrings, "\n")
}

// Validate validates the entire configuration
func (c *Config) Validate() error {
	validator := NewConfigValidator()

	c.validateFormats(validator)

	if validator.HasErrors() {
		return errs.NewValidation("config.Validate", "config", fmt.Sprintf("configuration validation failed:\n%s", validator.GetErrorsAsString()), nil)
	}

	return nil
}

// validateFormats checks format validity of configuration values
func (c *Config) validateFormats(validator *ConfigValidator) {
	if c.Port != "" {
		if port, err := strconv.Atoi(c.Port); err != nil || port < 1 || port > 65535 {
			validator.AddError("PORT", c.Port, "invalid port number (must be 1-65535)")
		}
	}

	validLogLevels := []string{"trace", "debug", "info", "warn", "error", "fatal"}
	if c.LogLevel != "" && !contains(validLogLevels, strings.ToLower(c.LogLevel)) {
		validator.AddError("LOG_LEVEL", c.LogLevel, "invalid log level (must be one of: trace, debug, info, warn, error, fatal)")
	}

	if c.LogFormat != "" && c.LogFormat != "json" && c.LogFormat != "text" {
		validator.AddError("LOG_FORMAT", c.LogFormat, "invalid log format (must be 'json' or 'text')")
	}

	if c.PhoneCountryCode != "" {
		if !countryCodeRegex.MatchString(c.PhoneCountryCode) {
			validator.AddError("PHONE_COUNTRY_CODE", c.PhoneCountryCode, "country code must be 1-3 digits, optionally prefixed with +")
		}
	}

	if c.MetricsEnabled && !strings.HasPrefix(c.MetricsPath, "/") {
		validator.AddError("METRICS_PATH", c.MetricsPath, "metrics path must start with /")
	}
}

// contains checks if a slice contains a string
func contains(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}

// GetConfigSummary returns a summary of the configuration for start-up logs
func (c *Config) GetConfigSummary() map[string]interface{} {
	return map[string]interface{}{
		"env":                c.Env,
		"port":               c.Port,
		"log_level":          c.LogLevel,
		"log_format":         c.LogFormat,
		"log_output":         c.LogOutput,
		"seed_file":          c.SeedFile,
		"phone_country_code": c.PhoneCountryCode,
		"metrics_enabled":    c.MetricsEnabled,
	}
}
