package api

import (
	"math"
	"testing"
)

func f64(v float64) *float64 { return &v }

func TestCompassDirection(t *testing.T) {
	tests := []struct {
		name     string
		degrees  *float64
		expected string
	}{
		{name: "north", degrees: f64(0), expected: "N"},
		{name: "north upper bucket edge", degrees: f64(11.24), expected: "N"},
		{name: "north-northeast", degrees: f64(22.5), expected: "NNE"},
		{name: "east", degrees: f64(90), expected: "E"},
		{name: "south", degrees: f64(180), expected: "S"},
		{name: "west", degrees: f64(270), expected: "W"},
		{name: "north-northwest", degrees: f64(337.5), expected: "NNW"},
		{name: "wraps back to north", degrees: f64(355), expected: "N"},
		{name: "full circle", degrees: f64(360), expected: "N"},
		{name: "absent", degrees: nil, expected: "N/A"},
		{name: "not a number", degrees: f64(math.NaN()), expected: "N/A"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := CompassDirection(tt.degrees)
			if result != tt.expected {
				t.Errorf("CompassDirection(%v) = %q, want %q", tt.degrees, result, tt.expected)
			}
		})
	}
}

func TestCompassDirectionCoversAllLabels(t *testing.T) {
	valid := make(map[string]bool, len(compassLabels))
	for _, label := range compassLabels {
		valid[label] = true
	}

	seen := make(map[string]bool)
	for deg := 0; deg < 360; deg++ {
		d := float64(deg)
		label := CompassDirection(&d)
		if !valid[label] {
			t.Fatalf("CompassDirection(%d) = %q, not a canonical label", deg, label)
		}
		seen[label] = true
	}

	if len(seen) != 16 {
		t.Errorf("Expected all 16 labels to appear over [0,360), got %d", len(seen))
	}
}

func TestCompassDirectionPeriodic(t *testing.T) {
	for deg := 0; deg < 360; deg += 7 {
		base := float64(deg)
		shifted := float64(deg + 360)
		if CompassDirection(&base) != CompassDirection(&shifted) {
			t.Errorf("CompassDirection not periodic at %d degrees", deg)
		}
	}
}

func TestKmhToMs(t *testing.T) {
	tests := []struct {
		name     string
		speed    *float64
		expected float64
	}{
		{name: "36 km/h is 10 m/s", speed: f64(36.0), expected: 10.0},
		{name: "rounds to one decimal", speed: f64(10.0), expected: 2.8},
		{name: "zero", speed: f64(0), expected: 0.0},
		{name: "absent", speed: nil, expected: 0.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := KmhToMs(tt.speed)
			if result != tt.expected {
				t.Errorf("KmhToMs(%v) = %v, want %v", tt.speed, result, tt.expected)
			}
		})
	}
}
