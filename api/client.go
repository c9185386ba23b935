package api

import (
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"golang.org/x/time/rate"

	"forecastmail/internal/logger"
)

const (
	// AccuWeather API base URL and endpoints
	accuWeatherBaseURL  = "https://dataservice.accuweather.com"
	geopositionEndpoint = "/locations/v1/cities/geoposition/search"

	// Forecast endpoint is parameterized by day count and location key
	dailyForecastPathFmt = "/forecasts/v1/daily/%dday/%s"

	// Default timeout for API requests
	defaultTimeout = 10 * time.Second

	// User-Agent for API requests
	userAgent = "Forecastmail/1.0"

	// Single supported report language
	defaultLanguage = "en-us"
)

// Client handles AccuWeather API interactions
type Client struct {
	client  *resty.Client
	apiKey  string
	limiter *rate.Limiter
}

// NewClient creates a new AccuWeather API client with authentication.
// Requests are paced to stay inside the free-tier call allowance; there is
// no retry policy, the next scheduled run is the retry mechanism.
func NewClient(apiKey string) *Client {
	client := resty.New().
		SetBaseURL(accuWeatherBaseURL).
		SetHeader("User-Agent", userAgent).
		SetTimeout(defaultTimeout)

	client.OnBeforeRequest(func(c *resty.Client, req *resty.Request) error {
		headers := make(map[string]string)
		for key, values := range req.Header {
			if len(values) > 0 {
				headers[key] = values[0]
			}
		}
		logger.LogAPIRequest(req.Method, req.URL, headers)
		return nil
	})

	client.OnAfterResponse(func(c *resty.Client, resp *resty.Response) error {
		duration := resp.Time().String()
		bodySize := len(resp.Body())
		logger.LogAPIResponse(resp.Request.Method, resp.Request.URL, resp.StatusCode(), duration, bodySize)
		return nil
	})

	return &Client{
		client:  client,
		apiKey:  apiKey,
		limiter: rate.NewLimiter(rate.Every(time.Second), 1),
	}
}

// SetTimeout configures the HTTP client timeout
func (c *Client) SetTimeout(timeout time.Duration) {
	c.client.SetTimeout(timeout)
}

// SetBaseURL overrides the provider base URL (used for testing)
func (c *Client) SetBaseURL(baseURL string) {
	c.client.SetBaseURL(baseURL)
}

// APIError represents an error response from the AccuWeather API
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("AccuWeather API error (HTTP %d): %s", e.StatusCode, e.Body)
}

// newAPIError captures status and a body excerpt for diagnostics
func newAPIError(resp *resty.Response) *APIError {
	return &APIError{
		StatusCode: resp.StatusCode(),
		Body:       truncateBody(resp.Body()),
	}
}
