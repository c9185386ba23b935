package report

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"strings"

	"forecastmail/api"
)

// IconSource supplies icon image bytes for a forecast icon code. A nil
// return means no image is available and the renderer falls back to text.
type IconSource interface {
	Resolve(ctx context.Context, code string) []byte
}

// InlineImage is one inline attachment: image bytes plus the
// content-identifier the HTML body references it by.
type InlineImage struct {
	CID  string
	Data []byte
}

// Report is a rendered forecast email: subject, HTML body, and the ordered
// inline attachment list. Every CID in Images is referenced from HTML via a
// cid: link and vice versa.
type Report struct {
	Subject string
	HTML    string
	Images  []InlineImage
}

// dayView is the per-record template payload.
type dayView struct {
	api.DailyForecast
	IconSrc template.URL // "cid:..." link; empty when the icon is unavailable
	CID     string
	Detail  string // friendly condition blurb, may be empty
}

type reportData struct {
	City       string
	Commentary string
	Days       []dayView
}

// conditionDetails maps lowercase weather descriptions to a friendlier
// sentence shown beneath the detail section.
var conditionDetails = map[string]string{
	"clear sky":       "☀️ A beautiful sunny day with clear skies.",
	"sunny":           "☀️ A beautiful sunny day with clear skies.",
	"mostly sunny":    "🌤️ Mostly sunny with a few scattered clouds.",
	"partly sunny":    "🌥️ Partly cloudy with scattered clouds.",
	"partly cloudy":   "🌥️ Partly cloudy with scattered clouds.",
	"mostly cloudy":   "☁️ Mostly cloudy with some breaks of sun.",
	"cloudy":          "☁️ Mostly cloudy with some breaks of sun.",
	"overcast clouds": "🌫️ Overcast skies, little to no sunshine.",
	"light rain":      "🌦️ Light rain showers expected, bring an umbrella.",
	"showers":         "🌦️ Light rain showers expected, bring an umbrella.",
	"rain":            "🌧️ Rain expected throughout the day, plan accordingly.",
	"moderate rain":   "🌧️ Rain expected throughout the day, plan accordingly.",
	"heavy rain":      "⛈️ Heavy rain with possible thunderstorms.",
	"light snow":      "❄️ Light snow showers, roads might be slippery.",
	"flurries":        "❄️ Light snow showers, roads might be slippery.",
	"snow":            "🌨️ Steady snowfall expected, wear warm clothes.",
	"heavy snow":      "❄️❄️ Heavy snowfall, potential travel disruptions.",
	"thunderstorms":   "⚡ Thunderstorms likely, stay indoors if possible.",
	"thunderstorm":    "⚡ Thunderstorms likely, stay indoors if possible.",
	"mist":            "🌫️ Misty conditions, visibility may be reduced.",
	"fog":             "🌁 Dense fog, travel may be affected.",
}

var reportTemplate = template.Must(template.New("report").Parse(`<!DOCTYPE html>
<html>
<head><meta charset="utf-8"></head>
<body style="font-family: Arial, Helvetica, sans-serif; color: #222; margin: 0; padding: 16px;">
<h2 style="margin-bottom: 4px;">📍 {{.City}} Forecast</h2>
{{- if .Commentary}}
<p style="font-style: italic; color: #444;">{{.Commentary}}</p>
{{- end}}
<table cellpadding="6" cellspacing="0" style="border-collapse: collapse;">
<tr>
{{- range .Days}}
<td align="center" style="border: 1px solid #ddd;">
<strong>{{.Weekday}}</strong><br>
{{- if .IconSrc}}
<img src="{{.IconSrc}}" alt="{{.Description}}" width="45">
{{- else}}
<span>({{.Description}})</span>
{{- end}}
</td>
{{- end}}
</tr>
</table>
{{- range .Days}}
<div style="margin-top: 18px; border-top: 1px solid #eee; padding-top: 10px;">
<h3 style="margin: 0 0 6px 0;">📅 {{.Weekday}}, {{.Date}}</h3>
{{- if .IconSrc}}
<img src="{{.IconSrc}}" alt="{{.Description}}" width="60" style="float: left; margin-right: 10px;">
{{- else}}
<span>({{.Description}})</span><br>
{{- end}}
<p style="margin: 4px 0;">
🌤️ Weather: {{.Description}}<br>
🌡️ High/Low: {{printf "%.1f" .HighTemp}}°C / {{printf "%.1f" .LowTemp}}°C<br>
💨 Wind: {{printf "%.1f" .WindSpeed}} m/s ({{.WindDirection}})<br>
🌧️ Precipitation: {{printf "%.1f" .Precipitation}} mm ({{.PrecipChance}}% chance)<br>
☀️ UV Index: {{.UVIndex}}<br>
🌅 Sunrise: {{.Sunrise}}<br>
🌇 Sunset: {{.Sunset}}
</p>
{{- if .Detail}}
<p style="margin: 4px 0; color: #555;">{{.Detail}}</p>
{{- end}}
<div style="clear: both;"></div>
</div>
{{- end}}
<p style="margin-top: 20px;">📝 Plan accordingly and stay safe!</p>
</body>
</html>
`))

// Render converts a normalized record sequence into a self-contained HTML
// report with inline icon images. Icons are resolved through the per-run
// cache; a failed fetch yields the textual fallback in both the summary
// strip and the detail section, with no image reference and no attachment.
func Render(ctx context.Context, city, commentary string, records []api.DailyForecast, icons IconSource) (*Report, error) {
	days := make([]dayView, 0, len(records))
	images := make([]InlineImage, 0, len(records))
	seen := make(map[string]bool)

	for _, rec := range records {
		view := dayView{
			DailyForecast: rec,
			Detail:        conditionDetails[strings.ToLower(rec.Description)],
		}

		if rec.IconCode != "" && icons != nil {
			if data := icons.Resolve(ctx, rec.IconCode); data != nil {
				cid := contentID(rec.Date, rec.IconCode)
				view.CID = cid
				view.IconSrc = template.URL("cid:" + cid)
				// One attachment per distinct content-identifier, even when
				// the underlying bytes are shared across days.
				if !seen[cid] {
					seen[cid] = true
					images = append(images, InlineImage{CID: cid, Data: data})
				}
			}
		}

		days = append(days, view)
	}

	var buf bytes.Buffer
	err := reportTemplate.Execute(&buf, reportData{
		City:       city,
		Commentary: commentary,
		Days:       days,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to render report template: %w", err)
	}

	return &Report{
		Subject: subjectLine(city, records),
		HTML:    buf.String(),
		Images:  images,
	}, nil
}

// subjectLine mirrors the report header: city plus the first day's
// description.
func subjectLine(city string, records []api.DailyForecast) string {
	if len(records) == 0 {
		return fmt.Sprintf("🌦️ %s weather", city)
	}
	return fmt.Sprintf("🌦️ %s weather: %s", city, records[0].Description)
}

// contentID derives a deterministic content-identifier from a record's date
// and icon code, so the HTML references and the attachment list always
// agree.
func contentID(date, iconCode string) string {
	return fmt.Sprintf("icon-%s-%s", sanitizeToken(date), sanitizeToken(iconCode))
}

// sanitizeToken keeps CIDs header-safe: lowercase alphanumerics only.
func sanitizeToken(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}
