package config

import (
	"fmt"
	"net/mail"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
)

// APIs contains API key configurations
type APIs struct {
	AccuWeather string `toml:"accuweather"`
	Anthropic   string `toml:"anthropic"` // Optional; enables the commentary paragraph
}

// Location contains the coordinate and display name of the forecast target
type Location struct {
	Latitude  float64 `toml:"latitude"`
	Longitude float64 `toml:"longitude"`
	Name      string  `toml:"name"` // Display name used in the subject and report header
}

// Forecast contains forecast query configuration
type Forecast struct {
	Days int `toml:"days"` // Requested day count; AccuWeather plans support 1, 5, 10, 15
}

// Mail contains SMTP delivery configuration
type Mail struct {
	Host     string `toml:"host"`
	Port     int    `toml:"port"`
	Username string `toml:"username"`
	Password string `toml:"password"`
	From     string `toml:"from"`
	To       string `toml:"to"`
}

// Claude contains Claude AI model configuration for the optional commentary
type Claude struct {
	Model       string  `toml:"model"`
	MaxTokens   int     `toml:"max_tokens"`
	Temperature float64 `toml:"temperature"`
}

// Schedule contains trigger configuration
type Schedule struct {
	Interval     string `toml:"interval"`       // Go duration string, e.g. "24h"
	RunOnStartup bool   `toml:"run_on_startup"` // Fire one run immediately at startup
}

// Logging contains logging configuration with rotation and cross-platform support
type Logging struct {
	Enabled         bool   `toml:"enabled"`          // Enable file logging
	Directory       string `toml:"directory"`        // Log directory (relative or absolute)
	FilenamePattern string `toml:"filename_pattern"` // Log filename with date patterns
	Level           string `toml:"level"`            // Log level: debug, info, warn, error
	MaxFiles        int    `toml:"max_files"`        // Number of log files to keep
	MaxSizeMB       int    `toml:"max_size_mb"`      // Rotate when file exceeds this size
	ConsoleOutput   bool   `toml:"console_output"`   // Also output to console
}

// Config represents the complete application configuration
type Config struct {
	APIs     APIs     `toml:"apis"`
	Location Location `toml:"location"`
	Forecast Forecast `toml:"forecast"`
	Mail     Mail     `toml:"mail"`
	Claude   Claude   `toml:"claude"`
	Schedule Schedule `toml:"schedule"`
	Logging  Logging  `toml:"logging"`
}

// LoadConfig reads and parses a TOML configuration file, then overlays
// secrets from the environment (a .env file is honored when present).
func LoadConfig(configPath string) (*Config, error) {
	cleanPath := filepath.Clean(configPath)

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, &ConfigNotFoundError{
				Path: cleanPath,
			}
		}
		return nil, fmt.Errorf("failed to read configuration file: %w", err)
	}

	var config Config
	err = toml.Unmarshal(data, &config)
	if err != nil {
		return nil, fmt.Errorf("failed to parse TOML configuration: %w", err)
	}

	config.ApplyDefaults()
	config.overlayEnvironment()

	return &config, nil
}

// overlayEnvironment lets secrets be supplied outside the config file so the
// TOML can be committed without credentials.
func (c *Config) overlayEnvironment() {
	// A missing .env file just means plain process env.
	_ = godotenv.Load()

	if v := os.Getenv("ACCUWEATHER_API_KEY"); v != "" {
		c.APIs.AccuWeather = v
	}
	if v := os.Getenv("ANTHROPIC_API_KEY"); v != "" {
		c.APIs.Anthropic = v
	}
	if v := os.Getenv("SMTP_PASSWORD"); v != "" {
		c.Mail.Password = v
	}
}

// ApplyDefaults sets default values for optional configuration fields
func (c *Config) ApplyDefaults() {
	if c.Forecast.Days == 0 {
		c.Forecast.Days = 5
	}

	if strings.TrimSpace(c.Location.Name) == "" {
		c.Location.Name = "Unknown Location"
	}

	if c.Mail.Port == 0 {
		c.Mail.Port = 465
	}
	if strings.TrimSpace(c.Mail.From) == "" {
		c.Mail.From = c.Mail.Username
	}

	// Default Claude settings (only used when an Anthropic key is configured)
	if strings.TrimSpace(c.Claude.Model) == "" {
		c.Claude.Model = "claude-3-5-sonnet-20241022"
	}
	if c.Claude.MaxTokens <= 0 {
		c.Claude.MaxTokens = 500
	}
	if c.Claude.Temperature <= 0 {
		c.Claude.Temperature = 0.7
	}

	if strings.TrimSpace(c.Schedule.Interval) == "" {
		c.Schedule.Interval = "24h"
	}

	// Default logging settings
	if strings.TrimSpace(c.Logging.Directory) == "" {
		c.Logging.Directory = "logs"
	}
	if strings.TrimSpace(c.Logging.FilenamePattern) == "" {
		c.Logging.FilenamePattern = "forecastmail-YYYYMMDD.log"
	}
	if strings.TrimSpace(c.Logging.Level) == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.MaxFiles <= 0 {
		c.Logging.MaxFiles = 7
	}
	if c.Logging.MaxSizeMB <= 0 {
		c.Logging.MaxSizeMB = 10
	}
}

// CommentaryEnabled reports whether the optional AI commentary is configured.
func (c *Config) CommentaryEnabled() bool {
	return strings.TrimSpace(c.APIs.Anthropic) != ""
}

// ScheduleInterval returns the parsed trigger interval. Validate guarantees
// the string parses, so callers running after validation can ignore the error.
func (c *Config) ScheduleInterval() (time.Duration, error) {
	return time.ParseDuration(c.Schedule.Interval)
}

// ConfigNotFoundError represents a missing configuration file
type ConfigNotFoundError struct {
	Path string
}

func (e *ConfigNotFoundError) Error() string {
	return fmt.Sprintf("configuration file not found: %s\n\nTo create a sample configuration file, run:\n  %s --generate-config", e.Path, filepath.Base(os.Args[0]))
}

// ValidationError represents a configuration validation error
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("validation error in %s: %s", e.Field, e.Message)
}

// MultiValidationError represents multiple validation errors
type MultiValidationError struct {
	Errors []ValidationError
}

func (e *MultiValidationError) Error() string {
	var messages []string
	for _, err := range e.Errors {
		messages = append(messages, err.Error())
	}
	return fmt.Sprintf("configuration validation failed:\n  %s", strings.Join(messages, "\n  "))
}

// Validate checks the configuration for correctness and completeness.
// Validation happens before any network call is attempted.
func (c *Config) Validate() error {
	var errors []ValidationError

	errors = append(errors, c.validateAPIKeys()...)
	errors = append(errors, c.validateLocation()...)
	errors = append(errors, c.validateForecast()...)
	errors = append(errors, c.validateMail()...)
	errors = append(errors, c.validateClaude()...)
	errors = append(errors, c.validateSchedule()...)
	errors = append(errors, c.validateLogging()...)

	if len(errors) > 0 {
		return &MultiValidationError{Errors: errors}
	}

	return nil
}

// validateAPIKeys checks that required API keys are present
func (c *Config) validateAPIKeys() []ValidationError {
	var errors []ValidationError

	if strings.TrimSpace(c.APIs.AccuWeather) == "" {
		errors = append(errors, ValidationError{
			Field:   "apis.accuweather",
			Message: "AccuWeather API key is required. Get one at https://developer.accuweather.com/",
		})
	}

	// The Anthropic key is optional; commentary is skipped when it is absent.

	return errors
}

// validateLocation checks the coordinate and display name
func (c *Config) validateLocation() []ValidationError {
	var errors []ValidationError

	if c.Location.Latitude < -90 || c.Location.Latitude > 90 {
		errors = append(errors, ValidationError{
			Field:   "location.latitude",
			Message: fmt.Sprintf("latitude must be between -90 and 90, got %.6f", c.Location.Latitude),
		})
	}

	if c.Location.Longitude < -180 || c.Location.Longitude > 180 {
		errors = append(errors, ValidationError{
			Field:   "location.longitude",
			Message: fmt.Sprintf("longitude must be between -180 and 180, got %.6f", c.Location.Longitude),
		})
	}

	return errors
}

// validateForecast checks the requested day count
func (c *Config) validateForecast() []ValidationError {
	var errors []ValidationError

	if c.Forecast.Days < 1 || c.Forecast.Days > 15 {
		errors = append(errors, ValidationError{
			Field:   "forecast.days",
			Message: fmt.Sprintf("days must be between 1 and 15, got %d", c.Forecast.Days),
		})
	}

	return errors
}

// validateMail checks SMTP delivery settings
func (c *Config) validateMail() []ValidationError {
	var errors []ValidationError

	if strings.TrimSpace(c.Mail.Host) == "" {
		errors = append(errors, ValidationError{
			Field:   "mail.host",
			Message: "SMTP host is required (e.g., smtp.gmail.com)",
		})
	}

	if c.Mail.Port < 1 || c.Mail.Port > 65535 {
		errors = append(errors, ValidationError{
			Field:   "mail.port",
			Message: fmt.Sprintf("port must be between 1 and 65535, got %d", c.Mail.Port),
		})
	}

	if strings.TrimSpace(c.Mail.Username) == "" {
		errors = append(errors, ValidationError{
			Field:   "mail.username",
			Message: "SMTP username is required",
		})
	}

	if strings.TrimSpace(c.Mail.Password) == "" {
		errors = append(errors, ValidationError{
			Field:   "mail.password",
			Message: "SMTP password is required (set in config or via SMTP_PASSWORD)",
		})
	}

	if strings.TrimSpace(c.Mail.To) == "" {
		errors = append(errors, ValidationError{
			Field:   "mail.to",
			Message: "recipient address is required",
		})
	} else if _, err := mail.ParseAddress(c.Mail.To); err != nil {
		errors = append(errors, ValidationError{
			Field:   "mail.to",
			Message: fmt.Sprintf("recipient address is not valid: %v", err),
		})
	}

	if strings.TrimSpace(c.Mail.From) != "" {
		if _, err := mail.ParseAddress(c.Mail.From); err != nil {
			errors = append(errors, ValidationError{
				Field:   "mail.from",
				Message: fmt.Sprintf("sender address is not valid: %v", err),
			})
		}
	}

	return errors
}

// validateClaude checks Claude configuration when commentary is enabled
func (c *Config) validateClaude() []ValidationError {
	var errors []ValidationError

	if !c.CommentaryEnabled() {
		return nil
	}

	if strings.TrimSpace(c.Claude.Model) == "" {
		errors = append(errors, ValidationError{
			Field:   "claude.model",
			Message: "Claude model is required (e.g., claude-3-5-sonnet-20241022)",
		})
	}

	if c.Claude.MaxTokens < 100 || c.Claude.MaxTokens > 4096 {
		errors = append(errors, ValidationError{
			Field:   "claude.max_tokens",
			Message: fmt.Sprintf("max_tokens must be between 100 and 4096, got %d", c.Claude.MaxTokens),
		})
	}

	if c.Claude.Temperature < 0 || c.Claude.Temperature > 1 {
		errors = append(errors, ValidationError{
			Field:   "claude.temperature",
			Message: fmt.Sprintf("temperature must be between 0 and 1, got %.2f", c.Claude.Temperature),
		})
	}

	return errors
}

// validateSchedule checks trigger configuration
func (c *Config) validateSchedule() []ValidationError {
	var errors []ValidationError

	interval, err := time.ParseDuration(c.Schedule.Interval)
	if err != nil {
		errors = append(errors, ValidationError{
			Field:   "schedule.interval",
			Message: fmt.Sprintf("interval must be a Go duration (e.g., 24h), got '%s'", c.Schedule.Interval),
		})
	} else if interval < time.Minute {
		errors = append(errors, ValidationError{
			Field:   "schedule.interval",
			Message: fmt.Sprintf("interval must be at least 1 minute, got %s", interval),
		})
	}

	return errors
}

// validateLogging checks logging configuration
func (c *Config) validateLogging() []ValidationError {
	var errors []ValidationError

	validLevels := []string{"debug", "info", "warn", "error"}
	level := strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if level != "" {
		valid := false
		for _, validLevel := range validLevels {
			if level == validLevel {
				valid = true
				break
			}
		}
		if !valid {
			errors = append(errors, ValidationError{
				Field:   "logging.level",
				Message: fmt.Sprintf("level must be one of: %s, got '%s'", strings.Join(validLevels, ", "), c.Logging.Level),
			})
		}
	}

	if c.Logging.MaxFiles < 0 || c.Logging.MaxFiles > 365 {
		errors = append(errors, ValidationError{
			Field:   "logging.max_files",
			Message: fmt.Sprintf("max_files must be between 0 and 365, got %d", c.Logging.MaxFiles),
		})
	}

	if c.Logging.MaxSizeMB < 0 || c.Logging.MaxSizeMB > 1000 {
		errors = append(errors, ValidationError{
			Field:   "logging.max_size_mb",
			Message: fmt.Sprintf("max_size_mb must be between 0 and 1000, got %d", c.Logging.MaxSizeMB),
		})
	}

	if c.Logging.Enabled {
		if strings.TrimSpace(c.Logging.Directory) == "" {
			errors = append(errors, ValidationError{
				Field:   "logging.directory",
				Message: "directory is required when logging is enabled",
			})
		}

		if strings.TrimSpace(c.Logging.FilenamePattern) == "" {
			errors = append(errors, ValidationError{
				Field:   "logging.filename_pattern",
				Message: "filename_pattern is required when logging is enabled",
			})
		}
	}

	return errors
}

// GenerateSampleConfig creates a sample configuration file at the specified path
func GenerateSampleConfig(configPath string) error {
	sampleConfig := `# Forecastmail Configuration File
# Scheduled weather forecast email reports

[apis]
# Get your AccuWeather API key at: https://developer.accuweather.com/
# Can also be supplied via the ACCUWEATHER_API_KEY environment variable
accuweather = "your-accuweather-api-key-here"

# Optional: Anthropic API key enables a short AI commentary paragraph at the
# top of each report. Leave empty to disable.
# Can also be supplied via the ANTHROPIC_API_KEY environment variable
anthropic = ""

[location]
# Coordinates for your location (example: Springfield, IL)
latitude = 39.7817
longitude = -89.6501

# Display name used in the email subject and report header
name = "Springfield"

[forecast]
# Number of forecast days: AccuWeather supports 1, 5, 10, or 15
# (10 and 15 require a paid plan; unsupported values fall back to 5)
days = 5

[mail]
# SMTP server settings. Port 465 uses implicit TLS, 587 uses STARTTLS.
host = "smtp.gmail.com"
port = 465
username = "you@example.com"

# App password for the SMTP account
# Can also be supplied via the SMTP_PASSWORD environment variable
password = ""

# Sender address (defaults to username when empty)
from = ""

# Recipient address
to = "recipient@example.com"

[claude]
# Claude model for the optional commentary paragraph
model = "claude-3-5-sonnet-20241022"

# Maximum tokens to generate (100-4096)
max_tokens = 500

# Temperature for response generation (0-1, higher = more creative)
temperature = 0.7

[schedule]
# How often to send a report (Go duration string)
interval = "24h"

# Send one report immediately at startup, then on the interval
run_on_startup = true

[logging]
# Cross-platform file logging with rotation
enabled = true                                  # Enable file logging
directory = "logs"                              # Log directory
filename_pattern = "forecastmail-YYYYMMDD.log"  # Daily rotation pattern
level = "info"                                  # Log level: debug, info, warn, error
max_files = 7                                   # Keep 7 days of logs (0 = unlimited)
max_size_mb = 10                                # Rotate when file exceeds 10MB (0 = unlimited)
console_output = true                           # Also output to console
`

	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(configPath, []byte(sampleConfig), 0644); err != nil {
		return fmt.Errorf("failed to write sample config: %w", err)
	}

	return nil
}
