package api

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"forecastmail/internal/logger"
)

// undatedEpoch sorts records without a timestamp ahead of every dated record.
const undatedEpoch = math.MinInt64

// forecastResponse is the raw daily forecast payload. Every nested field is
// optional; only the DailyForecasts array itself is required.
type forecastResponse struct {
	DailyForecasts []rawDailyForecast `json:"DailyForecasts"`
}

type rawDailyForecast struct {
	EpochDate   *int64               `json:"EpochDate"`
	Sun         *rawSun              `json:"Sun"`
	Temperature *rawTemperatureRange `json:"Temperature"`
	AirAndPollen []rawAirAndPollen   `json:"AirAndPollen"`
	Day         *rawDayPart          `json:"Day"`
}

type rawSun struct {
	Rise *string `json:"Rise"`
	Set  *string `json:"Set"`
}

type rawTemperatureRange struct {
	Minimum *rawValueUnit `json:"Minimum"`
	Maximum *rawValueUnit `json:"Maximum"`
}

type rawValueUnit struct {
	Value *float64 `json:"Value"`
	Unit  string   `json:"Unit"`
}

type rawAirAndPollen struct {
	Name     string   `json:"Name"`
	Value    *float64 `json:"Value"`
	Category *string  `json:"Category"`
}

type rawDayPart struct {
	Icon                     *int          `json:"Icon"`
	IconPhrase               *string       `json:"IconPhrase"`
	PrecipitationProbability *int          `json:"PrecipitationProbability"`
	Wind                     *rawWind      `json:"Wind"`
	Rain                     *rawValueUnit `json:"Rain"`
	Snow                     *rawValueUnit `json:"Snow"`
	Ice                      *rawValueUnit `json:"Ice"`
}

type rawWind struct {
	Speed     *rawValueUnit     `json:"Speed"`
	Direction *rawWindDirection `json:"Direction"`
}

type rawWindDirection struct {
	Degrees   *float64 `json:"Degrees"`
	Localized string   `json:"Localized"`
}

// DailyForecast is one calendar day's normalized weather summary. All
// optionality is resolved at the boundary: downstream code never checks for
// missing fields.
type DailyForecast struct {
	Date          string  // UTC calendar date, "2006-01-02", or "N/A"
	Weekday       string  // Weekday name, or "N/A"
	Description   string  // Capitalized icon phrase, or "N/A"
	IconCode      string  // Zero-padded two-digit code, or "" when absent
	HighTemp      float64 // Daily maximum, degrees C
	LowTemp       float64 // Daily minimum, degrees C
	WindSpeed     float64 // m/s, one decimal
	WindDirection string  // 16-point compass label, or "N/A"
	Precipitation float64 // rain+snow+ice total, mm, one decimal
	PrecipChance  int     // 0-100
	UVIndex       string  // "value (category)", or "N/A"
	Sunrise       string  // "03:04PM" in provider-local offset, or "N/A"
	Sunset        string  // "03:04PM" in provider-local offset, or "N/A"

	epoch int64 // sort key; undatedEpoch when the timestamp is absent
}

// ForecastError indicates the forecast response was unusable as a whole.
// Individual missing fields never produce this; they degrade per field.
type ForecastError struct {
	StatusCode int
	Body       string
	Underlying error
}

func (e *ForecastError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("forecast fetch failed (HTTP %d): %s", e.StatusCode, e.Body)
	}
	return fmt.Sprintf("forecast fetch failed: %v", e.Underlying)
}

func (e *ForecastError) Unwrap() error {
	return e.Underlying
}

// supportedDayCounts are the AccuWeather daily forecast plan tiers.
var supportedDayCounts = map[int]bool{1: true, 5: true, 10: true, 15: true}

// NormalizeDayCount coerces an unsupported day count to 5 with a warning.
// Callers must apply this before FetchForecast; FetchForecast itself does
// not reject unsupported values.
func NormalizeDayCount(days int) int {
	if supportedDayCounts[days] {
		return days
	}
	logger.Warn("Forecast day count %d is not one of 1/5/10/15, using 5", days)
	return 5
}

// FetchForecast requests the daily forecast for a location key and
// normalizes it into an ordered record sequence: sorted ascending by date
// (undated records first) and truncated to at most days entries.
func (c *Client) FetchForecast(ctx context.Context, locationKey string, days int) ([]DailyForecast, error) {
	complete := logger.LogOperationStart("accuweather_daily_forecast", map[string]any{
		"endpoint":     "daily_forecast",
		"location_key": locationKey,
		"days":         days,
	})

	if err := c.limiter.Wait(ctx); err != nil {
		complete(err)
		return nil, &ForecastError{Underlying: err}
	}

	resp, err := c.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"apikey":   c.apiKey,
			"language": defaultLanguage,
			"details":  "true",
			"metric":   "true",
		}).
		Get(fmt.Sprintf(dailyForecastPathFmt, days, locationKey))

	if err != nil {
		fetchErr := &ForecastError{Underlying: fmt.Errorf("forecast request failed: %w", err)}
		complete(fetchErr)
		return nil, fetchErr
	}

	if !resp.IsSuccess() {
		apiErr := newAPIError(resp)
		fetchErr := &ForecastError{
			StatusCode: apiErr.StatusCode,
			Body:       apiErr.Body,
			Underlying: apiErr,
		}
		complete(fetchErr)
		return nil, fetchErr
	}

	var payload forecastResponse
	if err := json.Unmarshal(resp.Body(), &payload); err != nil {
		fetchErr := &ForecastError{
			StatusCode: resp.StatusCode(),
			Body:       truncateBody(resp.Body()),
			Underlying: fmt.Errorf("malformed forecast response: %w", err),
		}
		complete(fetchErr)
		return nil, fetchErr
	}

	// A response without the forecast array is unusable as a whole.
	if payload.DailyForecasts == nil {
		fetchErr := &ForecastError{
			StatusCode: resp.StatusCode(),
			Body:       truncateBody(resp.Body()),
			Underlying: fmt.Errorf("forecast response has no DailyForecasts array"),
		}
		complete(fetchErr)
		return nil, fetchErr
	}

	records := make([]DailyForecast, 0, len(payload.DailyForecasts))
	for _, raw := range payload.DailyForecasts {
		records = append(records, normalizeDaily(raw))
	}

	sort.SliceStable(records, func(i, j int) bool {
		return records[i].epoch < records[j].epoch
	})

	if len(records) > days {
		records = records[:days]
	}

	complete(nil)
	logger.Debug("Normalized %d forecast records for key %s", len(records), locationKey)

	return records, nil
}

// normalizeDaily maps one raw forecast entry into a DailyForecast, applying
// the documented default for every absent field. Absence never aborts the
// record.
func normalizeDaily(raw rawDailyForecast) DailyForecast {
	rec := DailyForecast{
		Date:          "N/A",
		Weekday:       "N/A",
		Description:   "N/A",
		WindDirection: "N/A",
		UVIndex:       "N/A",
		Sunrise:       "N/A",
		Sunset:        "N/A",
		epoch:         undatedEpoch,
	}

	if raw.EpochDate != nil {
		t := time.Unix(*raw.EpochDate, 0).UTC()
		rec.Date = t.Format("2006-01-02")
		rec.Weekday = t.Weekday().String()
		rec.epoch = *raw.EpochDate
	}

	if raw.Temperature != nil {
		// Missing high/low intentionally stay at 0 rather than "N/A".
		if raw.Temperature.Maximum != nil && raw.Temperature.Maximum.Value != nil {
			rec.HighTemp = *raw.Temperature.Maximum.Value
		}
		if raw.Temperature.Minimum != nil && raw.Temperature.Minimum.Value != nil {
			rec.LowTemp = *raw.Temperature.Minimum.Value
		}
	}

	for _, entry := range raw.AirAndPollen {
		if entry.Name != "UVIndex" || entry.Value == nil {
			continue
		}
		category := "N/A"
		if entry.Category != nil {
			category = *entry.Category
		}
		rec.UVIndex = fmt.Sprintf("%s (%s)", formatNumber(*entry.Value), category)
		break
	}

	if raw.Sun != nil {
		rec.Sunrise = formatSunTime(raw.Sun.Rise)
		rec.Sunset = formatSunTime(raw.Sun.Set)
	}

	if raw.Day != nil {
		day := raw.Day

		if day.IconPhrase != nil && *day.IconPhrase != "" {
			rec.Description = capitalize(*day.IconPhrase)
		}

		if day.Icon != nil && *day.Icon > 0 {
			rec.IconCode = fmt.Sprintf("%02d", *day.Icon)
		}

		if day.PrecipitationProbability != nil {
			rec.PrecipChance = *day.PrecipitationProbability
		}

		if day.Wind != nil {
			if day.Wind.Speed != nil {
				rec.WindSpeed = KmhToMs(day.Wind.Speed.Value)
			}
			if day.Wind.Direction != nil {
				rec.WindDirection = CompassDirection(day.Wind.Direction.Degrees)
			}
		}

		total := precipValue(day.Rain) + precipValue(day.Snow) + precipValue(day.Ice)
		rec.Precipitation = math.Round(total*10) / 10
	}

	return rec
}

func precipValue(v *rawValueUnit) float64 {
	if v == nil || v.Value == nil {
		return 0
	}
	return *v.Value
}

// formatSunTime parses the provider's timestamp-with-offset string and
// formats it as a 12-hour time in that offset. Parse failures degrade to
// "N/A"; they never propagate.
func formatSunTime(value *string) string {
	if value == nil || *value == "" {
		return "N/A"
	}
	t, err := time.Parse(time.RFC3339, *value)
	if err != nil {
		logger.Debug("Unparsable sun time %q: %v", *value, err)
		return "N/A"
	}
	return t.Format("03:04PM")
}

// formatNumber renders a float without trailing zeros ("3", "3.5").
func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// capitalize uppercases the first letter and lowercases the rest, matching
// the provider phrase style used in report descriptions.
func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + strings.ToLower(s[1:])
}
