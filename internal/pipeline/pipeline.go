package pipeline

import (
	"context"
	"time"

	"forecastmail/api"
	"forecastmail/config"
	"forecastmail/internal/logger"
	"forecastmail/internal/mailer"
	"forecastmail/internal/report"
)

// Sender delivers a rendered report to the configured recipient.
type Sender interface {
	Send(ctx context.Context, rep *report.Report) error
}

// Pipeline executes one forecast-report run: resolve the coordinate to a
// location key, fetch and normalize the forecast, render the report with
// inline icons, and hand it to the mail transport. Runs are strictly
// sequential; every network call gets one attempt and the next scheduled
// run is the retry mechanism.
type Pipeline struct {
	cfg        *config.Config
	weather    *api.Client
	commentary *api.CommentaryClient // nil when no Anthropic key is configured
	sender     Sender
}

// New builds a Pipeline from validated configuration.
func New(cfg *config.Config) (*Pipeline, error) {
	p := &Pipeline{
		cfg:     cfg,
		weather: api.NewClient(cfg.APIs.AccuWeather),
		sender: mailer.New(mailer.Config{
			Host:     cfg.Mail.Host,
			Port:     cfg.Mail.Port,
			Username: cfg.Mail.Username,
			Password: cfg.Mail.Password,
			From:     cfg.Mail.From,
			To:       cfg.Mail.To,
		}),
	}

	if cfg.CommentaryEnabled() {
		commentary, err := api.NewCommentaryClient(api.CommentaryConfig{
			APIKey:      cfg.APIs.Anthropic,
			Model:       cfg.Claude.Model,
			MaxTokens:   cfg.Claude.MaxTokens,
			Temperature: cfg.Claude.Temperature,
		})
		if err != nil {
			return nil, err
		}
		p.commentary = commentary
	}

	return p, nil
}

// Run performs one complete pipeline invocation. Resolution and fetch
// failures halt the run with no email sent; icon and commentary failures
// degrade; a delivery failure is logged and ends the run without
// propagating.
func (p *Pipeline) Run(ctx context.Context) error {
	complete := logger.LogOperationStart("forecast_run", map[string]any{
		"latitude":  p.cfg.Location.Latitude,
		"longitude": p.cfg.Location.Longitude,
		"city":      p.cfg.Location.Name,
		"days":      p.cfg.Forecast.Days,
	})

	days := api.NormalizeDayCount(p.cfg.Forecast.Days)

	key, err := p.weather.ResolveLocation(ctx, p.cfg.Location.Latitude, p.cfg.Location.Longitude)
	if err != nil {
		logger.LogStructuredError(err, map[string]any{
			"stage":     "resolve_location",
			"latitude":  p.cfg.Location.Latitude,
			"longitude": p.cfg.Location.Longitude,
		})
		complete(err)
		return err
	}

	records, err := p.weather.FetchForecast(ctx, key, days)
	if err != nil {
		logger.LogStructuredError(err, map[string]any{
			"stage":        "fetch_forecast",
			"location_key": key,
			"days":         days,
		})
		complete(err)
		return err
	}

	logger.Info("Fetched %d forecast records for %s", len(records), p.cfg.Location.Name)

	commentary := p.generateCommentary(ctx, records)

	// The icon cache lives for exactly one run.
	icons := api.NewIconCache()

	rep, err := report.Render(ctx, p.cfg.Location.Name, commentary, records, icons)
	if err != nil {
		complete(err)
		return err
	}

	if err := p.sender.Send(ctx, rep); err != nil {
		// Delivery failure ends the run without raising further; the
		// failure is already logged with transport context.
		logger.Error("Report delivery failed: %v", err)
		complete(err)
		return nil
	}

	complete(nil)
	return nil
}

// generateCommentary returns the optional introduction paragraph, or ""
// when commentary is disabled or its single attempt fails.
func (p *Pipeline) generateCommentary(ctx context.Context, records []api.DailyForecast) string {
	if p.commentary == nil {
		return ""
	}

	start := time.Now()
	paragraph, err := p.commentary.GenerateCommentary(ctx, p.cfg.Location.Name, records)
	if err != nil {
		logger.Warn("Commentary generation failed after %s, sending report without it: %v",
			time.Since(start).Round(time.Millisecond), err)
		return ""
	}

	return paragraph
}
