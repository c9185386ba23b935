package api

import "math"

// compassLabels are the 16 canonical compass point labels, clockwise from north.
var compassLabels = [16]string{
	"N", "NNE", "NE", "ENE",
	"E", "ESE", "SE", "SSE",
	"S", "SSW", "SW", "WSW",
	"W", "WNW", "NW", "NNW",
}

// CompassDirection converts a wind bearing in degrees to a 16-point compass
// label. Each label covers a 22.5 degree bucket centered on its heading.
// Returns "N/A" when the bearing is absent.
func CompassDirection(degrees *float64) string {
	if degrees == nil || math.IsNaN(*degrees) || math.IsInf(*degrees, 0) {
		return "N/A"
	}

	d := math.Mod(*degrees, 360)
	if d < 0 {
		d += 360
	}

	index := int((d+11.25)/22.5) % 16
	return compassLabels[index]
}

// KmhToMs converts a wind speed from km/h to m/s, rounded to one decimal
// place. Returns 0.0 when the speed is absent.
func KmhToMs(speed *float64) float64 {
	if speed == nil {
		return 0.0
	}
	return math.Round(*speed/3.6*10) / 10
}
