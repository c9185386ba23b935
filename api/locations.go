package api

import (
	"context"
	"encoding/json"
	"fmt"

	"forecastmail/internal/logger"
)

// geopositionResponse is the subset of the geoposition search payload we use.
// The location key is the only field required downstream.
type geopositionResponse struct {
	Key           string `json:"Key"`
	LocalizedName string `json:"LocalizedName"`
}

// ResolutionError indicates the coordinate could not be resolved to a
// location key. It halts the run; no forecast request is attempted.
type ResolutionError struct {
	StatusCode int
	Body       string
	Underlying error
}

func (e *ResolutionError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("location resolution failed (HTTP %d): %s", e.StatusCode, e.Body)
	}
	return fmt.Sprintf("location resolution failed: %v", e.Underlying)
}

func (e *ResolutionError) Unwrap() error {
	return e.Underlying
}

// ResolveLocation maps a coordinate to an AccuWeather location key with a
// single geoposition search call. The key is opaque and re-derived on every
// run; it is never cached across runs.
func (c *Client) ResolveLocation(ctx context.Context, latitude, longitude float64) (string, error) {
	complete := logger.LogOperationStart("accuweather_geoposition", map[string]any{
		"endpoint":  "geoposition",
		"latitude":  latitude,
		"longitude": longitude,
	})

	if err := c.limiter.Wait(ctx); err != nil {
		complete(err)
		return "", &ResolutionError{Underlying: err}
	}

	resp, err := c.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"apikey":   c.apiKey,
			"q":        fmt.Sprintf("%f,%f", latitude, longitude),
			"language": defaultLanguage,
			"toplevel": "true",
		}).
		Get(geopositionEndpoint)

	if err != nil {
		resErr := &ResolutionError{Underlying: fmt.Errorf("geoposition request failed: %w", err)}
		complete(resErr)
		return "", resErr
	}

	if !resp.IsSuccess() {
		apiErr := newAPIError(resp)
		resErr := &ResolutionError{
			StatusCode: apiErr.StatusCode,
			Body:       apiErr.Body,
			Underlying: apiErr,
		}
		complete(resErr)
		return "", resErr
	}

	var geo geopositionResponse
	if err := json.Unmarshal(resp.Body(), &geo); err != nil {
		resErr := &ResolutionError{
			StatusCode: resp.StatusCode(),
			Body:       truncateBody(resp.Body()),
			Underlying: fmt.Errorf("malformed geoposition response: %w", err),
		}
		complete(resErr)
		return "", resErr
	}

	if geo.Key == "" {
		resErr := &ResolutionError{
			StatusCode: resp.StatusCode(),
			Body:       truncateBody(resp.Body()),
			Underlying: fmt.Errorf("geoposition response has no location key"),
		}
		complete(resErr)
		return "", resErr
	}

	complete(nil)
	logger.Debug("Resolved (%f,%f) to location key %s (%s)", latitude, longitude, geo.Key, geo.LocalizedName)

	return geo.Key, nil
}

func truncateBody(body []byte) string {
	s := string(body)
	if len(s) > 512 {
		return s[:512] + "..."
	}
	return s
}
