package api

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"forecastmail/internal/logger"
)

const (
	defaultCommentaryModel       = "claude-3-5-sonnet-20241022"
	defaultCommentaryMaxTokens   = 500
	defaultCommentaryTemperature = 0.7
	defaultCommentaryTimeout     = 30 * time.Second

	commentarySystemPrompt = "You are a friendly weather correspondent writing a one-paragraph " +
		"introduction for a daily forecast email. Summarize the overall outlook in two or three " +
		"sentences, mention anything worth planning around, and keep a warm conversational tone. " +
		"Respond with the paragraph only, no greeting or sign-off."
)

// CommentaryClient generates the optional report introduction with Claude.
type CommentaryClient struct {
	client anthropic.Client
	config CommentaryConfig
}

// CommentaryConfig contains configuration for the commentary client
type CommentaryConfig struct {
	APIKey      string
	Model       string
	MaxTokens   int
	Temperature float64
	Timeout     time.Duration
}

// NewCommentaryClient creates a new commentary client with the provided configuration
func NewCommentaryClient(config CommentaryConfig) (*CommentaryClient, error) {
	if strings.TrimSpace(config.APIKey) == "" {
		return nil, fmt.Errorf("Anthropic API key is required")
	}

	if config.Model == "" {
		config.Model = defaultCommentaryModel
	}
	if config.MaxTokens <= 0 {
		config.MaxTokens = defaultCommentaryMaxTokens
	}
	if config.Temperature <= 0 {
		config.Temperature = defaultCommentaryTemperature
	}
	if config.Timeout <= 0 {
		config.Timeout = defaultCommentaryTimeout
	}

	client := anthropic.NewClient(
		option.WithAPIKey(config.APIKey),
	)

	return &CommentaryClient{
		client: client,
		config: config,
	}, nil
}

// GenerateCommentary produces a short introduction paragraph from the
// normalized forecast. One attempt only: callers treat any failure as a
// degradation and render the report without the paragraph.
func (c *CommentaryClient) GenerateCommentary(ctx context.Context, city string, records []DailyForecast) (string, error) {
	complete := logger.LogOperationStart("commentary_generation", map[string]any{
		"model":      c.config.Model,
		"max_tokens": c.config.MaxTokens,
		"records":    len(records),
	})

	ctx, cancel := context.WithTimeout(ctx, c.config.Timeout)
	defer cancel()

	prompt := buildCommentaryPrompt(city, records)

	resp, err := c.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:       anthropic.Model(c.config.Model),
		MaxTokens:   int64(c.config.MaxTokens),
		Temperature: anthropic.Float(c.config.Temperature),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(
				anthropic.NewTextBlock(prompt),
			),
		},
		System: []anthropic.TextBlockParam{
			{
				Type: "text",
				Text: commentarySystemPrompt,
			},
		},
	})
	if err != nil {
		complete(err)
		return "", fmt.Errorf("commentary request failed: %w", err)
	}

	var paragraph string
	for _, block := range resp.Content {
		if block.Type == "text" && block.Text != "" {
			paragraph = strings.TrimSpace(block.Text)
			break
		}
	}

	if paragraph == "" {
		err := fmt.Errorf("no text content in commentary response")
		complete(err)
		return "", err
	}

	complete(nil)
	return paragraph, nil
}

// buildCommentaryPrompt flattens the record sequence into a compact text
// block Claude can summarize.
func buildCommentaryPrompt(city string, records []DailyForecast) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Forecast for %s:\n", city)
	for _, rec := range records {
		fmt.Fprintf(&b, "- %s (%s): %s, high %.1fC / low %.1fC, wind %.1f m/s %s, precipitation %.1fmm (%d%% chance), UV %s\n",
			rec.Weekday, rec.Date, rec.Description,
			rec.HighTemp, rec.LowTemp,
			rec.WindSpeed, rec.WindDirection,
			rec.Precipitation, rec.PrecipChance,
			rec.UVIndex)
	}
	return b.String()
}
