package utils

import (
	"math"
)

// DistanceMeters returns the great-circle distance between two points in
// meters, via the haversine formula.
func DistanceMeters(lat1, lng1, lat2, lng2 float64) float64 {
	lat1Rad := lat1 * math.Pi / 180
	lng1Rad := lng1 * math.Pi / 180
	lat2Rad := lat2 * math.Pi / 180
	lng2Rad := lng2 * math.Pi / 180

	dLat := lat2Rad - lat1Rad
	dLng := lng2Rad - lng1Rad

	a := math.Sin(dLat/2)*math.Sin(dLat/2) + math.Cos(lat1Rad)*math.Cos(lat2Rad)*math.Sin(dLng/2)*math.Sin(dLng/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return EarthRadiusM * c
}

// RoundMeters rounds a distance to the nearest meter for display.
func RoundMeters(d float64) int {
	return int(math.Round(d))
}

// IsWithinRadiusMeters reports whether a point lies within radius meters of a
// center point.
func IsWithinRadiusMeters(centerLat, centerLng, pointLat, pointLng float64, radiusMeters int) bool {
	return DistanceMeters(centerLat, centerLng, pointLat, pointLng) <= float64(radiusMeters)
}

// EstimateTravelSeconds estimates travel time for a straight-line distance at
// the given speed, with a one minute floor so estimates never collapse to
// "now".
func EstimateTravelSeconds(distanceMeters, speedKMH float64) int {
	if speedKMH <= 0 {
		speedKMH = FallbackSpeedKMH
	}
	speedMps := speedKMH * 1000 / 3600
	sec := int(math.Round(distanceMeters / math.Max(speedMps, 1)))
	if sec < MinLegSeconds {
		return MinLegSeconds
	}
	return sec
}
