package utils

import (
	"math"
)

// HaversineMeters calculates the great-circle distance between two points
// using the Haversine formula. Returns distance in meters.
func HaversineMeters(lat1, lng1, lat2, lng2 float64) float64 {
	const earthRadius = 6371000.0 // meters

	lat1Rad := lat1 * math.Pi / 180
	lng1Rad := lng1 * math.Pi / 180
	lat2Rad := lat2 * math.Pi / 180
	lng2Rad := lng2 * math.Pi / 180

	dlat := lat2Rad - lat1Rad
	dlng := lng2Rad - lng1Rad

	a := math.Sin(dlat/2)*math.Sin(dlat/2) +
		math.Cos(lat1Rad)*math.Cos(lat2Rad)*
			math.Sin(dlng/2)*math.Sin(dlng/2)

	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadius * c
}

// IsWithinRadius checks if a point is within radiusMeters of a center point.
func IsWithinRadius(centerLat, centerLng, pointLat, pointLng, radiusMeters float64) bool {
	return HaversineMeters(centerLat, centerLng, pointLat, pointLng) <= radiusMeters
}

// EstimateArrivalMinutes estimates how long a photographer needs to reach the
// guest, assuming city travel speed. Minimum 1 minute.
func EstimateArrivalMinutes(distanceMeters float64) int {
	const averageSpeedKmh = 20.0 // mixed walking/transit pace in city centers

	etaMinutes := int(distanceMeters / 1000 / averageSpeedKmh * 60)
	if etaMinutes < 1 {
		etaMinutes = 1
	}
	return etaMinutes
}

// ValidCoordinates reports whether a lat/lng pair is on the globe.
func ValidCoordinates(lat, lng float64) bool {
	return lat >= -90 && lat <= 90 && lng >= -180 && lng <= 180
}
