package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

const validConfig = `[apis]
accuweather = "test-weather-key"

[location]
latitude = 59.9139
longitude = 10.7522
name = "Oslo"

[forecast]
days = 5

[mail]
host = "smtp.example.com"
port = 465
username = "sender@example.com"
password = "app-password"
to = "recipient@example.com"

[schedule]
interval = "24h"
run_on_startup = true
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	configPath := filepath.Join(t.TempDir(), "test.toml")
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write test config: %v", err)
	}
	return configPath
}

func TestLoadConfig(t *testing.T) {
	cfg, err := LoadConfig(writeConfig(t, validConfig))
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if cfg.APIs.AccuWeather != "test-weather-key" {
		t.Errorf("Expected accuweather key 'test-weather-key', got '%s'", cfg.APIs.AccuWeather)
	}
	if cfg.Location.Latitude != 59.9139 || cfg.Location.Longitude != 10.7522 {
		t.Errorf("Unexpected coordinates: %f, %f", cfg.Location.Latitude, cfg.Location.Longitude)
	}
	if cfg.Location.Name != "Oslo" {
		t.Errorf("Expected location name 'Oslo', got '%s'", cfg.Location.Name)
	}
	if cfg.Mail.Host != "smtp.example.com" {
		t.Errorf("Expected mail host 'smtp.example.com', got '%s'", cfg.Mail.Host)
	}
	if !cfg.Schedule.RunOnStartup {
		t.Error("Expected run_on_startup to be true")
	}

	if err := cfg.Validate(); err != nil {
		t.Errorf("Expected valid config, got: %v", err)
	}
}

func TestLoadConfigNotFound(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.toml"))
	if err == nil {
		t.Fatal("Expected error for missing config file")
	}

	var notFound *ConfigNotFoundError
	if !errors.As(err, &notFound) {
		t.Errorf("Expected *ConfigNotFoundError, got %T: %v", err, err)
	}
}

func TestLoadConfigMalformed(t *testing.T) {
	_, err := LoadConfig(writeConfig(t, "[apis\naccuweather = "))
	if err == nil {
		t.Fatal("Expected error for malformed TOML")
	}
}

func TestApplyDefaults(t *testing.T) {
	cfg := &Config{}
	cfg.ApplyDefaults()

	if cfg.Forecast.Days != 5 {
		t.Errorf("Expected default days 5, got %d", cfg.Forecast.Days)
	}
	if cfg.Mail.Port != 465 {
		t.Errorf("Expected default port 465, got %d", cfg.Mail.Port)
	}
	if cfg.Claude.Model != "claude-3-5-sonnet-20241022" {
		t.Errorf("Unexpected default model: %s", cfg.Claude.Model)
	}
	if cfg.Claude.MaxTokens != 500 {
		t.Errorf("Expected default max_tokens 500, got %d", cfg.Claude.MaxTokens)
	}
	if cfg.Schedule.Interval != "24h" {
		t.Errorf("Expected default interval 24h, got %s", cfg.Schedule.Interval)
	}
	if cfg.Logging.FilenamePattern != "forecastmail-YYYYMMDD.log" {
		t.Errorf("Unexpected default filename pattern: %s", cfg.Logging.FilenamePattern)
	}
}

func TestFromDefaultsToUsername(t *testing.T) {
	cfg := &Config{}
	cfg.Mail.Username = "sender@example.com"
	cfg.ApplyDefaults()

	if cfg.Mail.From != "sender@example.com" {
		t.Errorf("Expected from to default to username, got '%s'", cfg.Mail.From)
	}
}

func TestEnvironmentOverlay(t *testing.T) {
	t.Setenv("ACCUWEATHER_API_KEY", "env-weather-key")
	t.Setenv("SMTP_PASSWORD", "env-smtp-password")

	cfg, err := LoadConfig(writeConfig(t, validConfig))
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if cfg.APIs.AccuWeather != "env-weather-key" {
		t.Errorf("Expected env overlay for API key, got '%s'", cfg.APIs.AccuWeather)
	}
	if cfg.Mail.Password != "env-smtp-password" {
		t.Errorf("Expected env overlay for SMTP password, got '%s'", cfg.Mail.Password)
	}
}

func TestCommentaryEnabled(t *testing.T) {
	cfg := &Config{}
	if cfg.CommentaryEnabled() {
		t.Error("Expected commentary disabled without an Anthropic key")
	}

	cfg.APIs.Anthropic = "test-anthropic-key"
	if !cfg.CommentaryEnabled() {
		t.Error("Expected commentary enabled with an Anthropic key")
	}
}

func TestScheduleInterval(t *testing.T) {
	cfg := &Config{}
	cfg.Schedule.Interval = "6h"

	interval, err := cfg.ScheduleInterval()
	if err != nil {
		t.Fatalf("Failed to parse interval: %v", err)
	}
	if interval != 6*time.Hour {
		t.Errorf("Expected 6h, got %s", interval)
	}
}

func TestValidation(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		field   string
		wantErr bool
	}{
		{
			name:    "valid config passes",
			mutate:  func(c *Config) {},
			wantErr: false,
		},
		{
			name:    "missing API key",
			mutate:  func(c *Config) { c.APIs.AccuWeather = "" },
			field:   "apis.accuweather",
			wantErr: true,
		},
		{
			name:    "latitude out of range",
			mutate:  func(c *Config) { c.Location.Latitude = 91 },
			field:   "location.latitude",
			wantErr: true,
		},
		{
			name:    "longitude out of range",
			mutate:  func(c *Config) { c.Location.Longitude = -181 },
			field:   "location.longitude",
			wantErr: true,
		},
		{
			name:    "days too large",
			mutate:  func(c *Config) { c.Forecast.Days = 16 },
			field:   "forecast.days",
			wantErr: true,
		},
		{
			name:    "missing SMTP host",
			mutate:  func(c *Config) { c.Mail.Host = "" },
			field:   "mail.host",
			wantErr: true,
		},
		{
			name:    "missing SMTP password",
			mutate:  func(c *Config) { c.Mail.Password = "" },
			field:   "mail.password",
			wantErr: true,
		},
		{
			name:    "invalid recipient",
			mutate:  func(c *Config) { c.Mail.To = "not-an-address" },
			field:   "mail.to",
			wantErr: true,
		},
		{
			name:    "invalid interval",
			mutate:  func(c *Config) { c.Schedule.Interval = "often" },
			field:   "schedule.interval",
			wantErr: true,
		},
		{
			name:    "interval too short",
			mutate:  func(c *Config) { c.Schedule.Interval = "30s" },
			field:   "schedule.interval",
			wantErr: true,
		},
		{
			name:    "invalid log level",
			mutate:  func(c *Config) { c.Logging.Level = "verbose" },
			field:   "logging.level",
			wantErr: true,
		},
		{
			name: "claude checked only when enabled",
			mutate: func(c *Config) {
				c.APIs.Anthropic = "test-anthropic-key"
				c.Claude.MaxTokens = 10
			},
			field:   "claude.max_tokens",
			wantErr: true,
		},
		{
			name:    "claude ignored when disabled",
			mutate:  func(c *Config) { c.Claude.MaxTokens = 10 },
			wantErr: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := baseValidConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			if !tt.wantErr {
				if err != nil {
					t.Errorf("Expected valid config, got: %v", err)
				}
				return
			}

			if err == nil {
				t.Fatal("Expected validation error")
			}

			var multi *MultiValidationError
			if !errors.As(err, &multi) {
				t.Fatalf("Expected *MultiValidationError, got %T: %v", err, err)
			}

			found := false
			for _, verr := range multi.Errors {
				if verr.Field == tt.field {
					found = true
					break
				}
			}
			if !found {
				t.Errorf("Expected error for field %s, got: %v", tt.field, multi)
			}
		})
	}
}

func baseValidConfig() *Config {
	cfg := &Config{}
	cfg.APIs.AccuWeather = "test-weather-key"
	cfg.Location.Latitude = 59.9139
	cfg.Location.Longitude = 10.7522
	cfg.Location.Name = "Oslo"
	cfg.Mail.Host = "smtp.example.com"
	cfg.Mail.Username = "sender@example.com"
	cfg.Mail.Password = "app-password"
	cfg.Mail.To = "recipient@example.com"
	cfg.ApplyDefaults()
	return cfg
}

func TestGenerateSampleConfig(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "sample.toml")

	if err := GenerateSampleConfig(configPath); err != nil {
		t.Fatalf("Failed to generate sample config: %v", err)
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		t.Fatalf("Failed to read sample config: %v", err)
	}

	for _, section := range []string{"[apis]", "[location]", "[forecast]", "[mail]", "[claude]", "[schedule]", "[logging]"} {
		if !strings.Contains(string(data), section) {
			t.Errorf("Expected %s section in sample config", section)
		}
	}

	// The sample must itself parse.
	cfg, err := LoadConfig(configPath)
	if err != nil {
		t.Fatalf("Sample config does not parse: %v", err)
	}
	if cfg.Forecast.Days != 5 {
		t.Errorf("Expected 5 days in sample, got %d", cfg.Forecast.Days)
	}
}
