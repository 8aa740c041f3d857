package utils

import (
	"math"
	"testing"
)

func TestHaversineMetersKnownDistance(t *testing.T) {
	// Shibuya station to Shinjuku station, roughly 3.4km.
	distance := HaversineMeters(35.6580, 139.7016, 35.6896, 139.7006)
	if distance < 3300 || distance > 3700 {
		t.Errorf("expected ~3.4km, got %.0fm", distance)
	}
}

func TestHaversineMetersZeroDistance(t *testing.T) {
	distance := HaversineMeters(35.6586, 139.7016, 35.6586, 139.7016)
	if math.Abs(distance) > 0.001 {
		t.Errorf("same point should be 0m apart, got %f", distance)
	}
}

func TestIsWithinRadius(t *testing.T) {
	center := [2]float64{35.6586, 139.7016}
	nearby := [2]float64{35.6595, 139.7005} // a few hundred meters

	if !IsWithinRadius(center[0], center[1], nearby[0], nearby[1], 3000) {
		t.Error("point a few hundred meters away should be inside a 3km radius")
	}
	if IsWithinRadius(center[0], center[1], nearby[0], nearby[1], 50) {
		t.Error("point a few hundred meters away should be outside a 50m radius")
	}
}

func TestEstimateArrivalMinutes(t *testing.T) {
	if got := EstimateArrivalMinutes(0); got != 1 {
		t.Errorf("minimum should be 1 minute, got %d", got)
	}
	if got := EstimateArrivalMinutes(100); got != 1 {
		t.Errorf("short hop should round up to 1 minute, got %d", got)
	}
	// 10km at 20km/h is 30 minutes.
	if got := EstimateArrivalMinutes(10000); got != 30 {
		t.Errorf("expected 30 minutes for 10km, got %d", got)
	}
}

func TestValidCoordinates(t *testing.T) {
	cases := []struct {
		lat, lng float64
		want     bool
	}{
		{35.6586, 139.7016, true},
		{-90, -180, true},
		{90, 180, true},
		{90.01, 0, false},
		{-91, 0, false},
		{0, 180.5, false},
		{0, -181, false},
	}

	for _, tc := range cases {
		if got := ValidCoordinates(tc.lat, tc.lng); got != tc.want {
			t.Errorf("ValidCoordinates(%v, %v) = %v, want %v", tc.lat, tc.lng, got, tc.want)
		}
	}
}
