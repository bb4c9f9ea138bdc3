package cty

import (
	"math"
	"testing"
)

func TestHaversineKm(t *testing.T) {
	tests := []struct {
		name                   string
		lat1, lon1, lat2, lon2 float64
		want                   float64
		tolerance              float64
	}{
		{"same point", 41.7, -72.7, 41.7, -72.7, 0, 0.001},
		{"hartford to tokyo", 41.7, -72.7, 35.7, 139.7, 10800, 100},
		{"london to paris", 51.5, -0.13, 48.85, 2.35, 344, 5},
		{"pole to pole", 90, 0, -90, 0, math.Pi * earthRadiusKm, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := HaversineKm(tt.lat1, tt.lon1, tt.lat2, tt.lon2)
			if math.Abs(got-tt.want) > tt.tolerance {
				t.Errorf("HaversineKm = %.1f, want %.1f +/- %.1f", got, tt.want, tt.tolerance)
			}
		})
	}
}

func TestInitialBearing(t *testing.T) {
	tests := []struct {
		name                   string
		lat1, lon1, lat2, lon2 float64
		want                   float64
		tolerance              float64
	}{
		{"due north", 0, 0, 10, 0, 0, 0.01},
		{"due east", 0, 0, 0, 10, 90, 0.01},
		{"due south", 10, 0, 0, 0, 180, 0.01},
		{"due west", 0, 10, 0, 0, 270, 0.01},
		{"same point", 41.7, -72.7, 41.7, -72.7, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := InitialBearing(tt.lat1, tt.lon1, tt.lat2, tt.lon2)
			if math.Abs(got-tt.want) > tt.tolerance {
				t.Errorf("InitialBearing = %.2f, want %.2f", got, tt.want)
			}
		})
	}
}

func TestInitialBearingRange(t *testing.T) {
	coords := []struct{ lat, lon float64 }{
		{41.7, -72.7}, {35.7, 139.7}, {-33.9, 151.2}, {51.5, -0.13}, {-90, 0}, {90, 0},
	}
	for _, a := range coords {
		for _, b := range coords {
			got := InitialBearing(a.lat, a.lon, b.lat, b.lon)
			if got < 0 || got >= 360 {
				t.Errorf("InitialBearing(%v,%v -> %v,%v) = %v, outside [0,360)",
					a.lat, a.lon, b.lat, b.lon, got)
			}
		}
	}
}
