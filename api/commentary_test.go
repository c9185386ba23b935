package api

import (
	"strings"
	"testing"
	"time"
)

func TestNewCommentaryClient(t *testing.T) {
	_, err := NewCommentaryClient(CommentaryConfig{})
	if err == nil {
		t.Error("Expected error without an API key")
	}

	client, err := NewCommentaryClient(CommentaryConfig{APIKey: "test-anthropic-key"})
	if err != nil {
		t.Fatalf("NewCommentaryClient failed: %v", err)
	}

	if client.config.Model != defaultCommentaryModel {
		t.Errorf("Expected default model, got %s", client.config.Model)
	}
	if client.config.MaxTokens != defaultCommentaryMaxTokens {
		t.Errorf("Expected default max tokens, got %d", client.config.MaxTokens)
	}
	if client.config.Timeout != defaultCommentaryTimeout {
		t.Errorf("Expected default timeout, got %s", client.config.Timeout)
	}
}

func TestNewCommentaryClientKeepsOverrides(t *testing.T) {
	client, err := NewCommentaryClient(CommentaryConfig{
		APIKey:      "test-anthropic-key",
		Model:       "claude-3-5-haiku-20241022",
		MaxTokens:   300,
		Temperature: 0.4,
		Timeout:     10 * time.Second,
	})
	if err != nil {
		t.Fatalf("NewCommentaryClient failed: %v", err)
	}

	if client.config.Model != "claude-3-5-haiku-20241022" {
		t.Errorf("Expected configured model, got %s", client.config.Model)
	}
	if client.config.MaxTokens != 300 || client.config.Temperature != 0.4 {
		t.Errorf("Expected configured tuning, got %d/%.1f", client.config.MaxTokens, client.config.Temperature)
	}
}

func TestBuildCommentaryPrompt(t *testing.T) {
	records := []DailyForecast{
		{
			Date: "2024-06-11", Weekday: "Tuesday", Description: "Sunny",
			HighTemp: 24.0, LowTemp: 12.0, WindSpeed: 2.5, WindDirection: "N",
			Precipitation: 0.0, PrecipChance: 5, UVIndex: "6 (High)",
		},
		{
			Date: "2024-06-12", Weekday: "Wednesday", Description: "Rain",
			HighTemp: 19.0, LowTemp: 14.0, WindSpeed: 7.5, WindDirection: "SW",
			Precipitation: 8.4, PrecipChance: 80, UVIndex: "3 (Moderate)",
		},
	}

	prompt := buildCommentaryPrompt("Oslo", records)

	if !strings.HasPrefix(prompt, "Forecast for Oslo:") {
		t.Errorf("Expected city header, got %q", prompt)
	}
	for _, want := range []string{
		"Tuesday (2024-06-11): Sunny",
		"high 24.0C / low 12.0C",
		"wind 7.5 m/s SW",
		"precipitation 8.4mm (80% chance)",
		"UV 3 (Moderate)",
	} {
		if !strings.Contains(prompt, want) {
			t.Errorf("Expected %q in prompt:\n%s", want, prompt)
		}
	}

	if got := strings.Count(prompt, "- "); got != 2 {
		t.Errorf("Expected one bullet per record, got %d", got)
	}
}
