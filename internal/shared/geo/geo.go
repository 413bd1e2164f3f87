package geo

import (
	"math"

	"github.com/paulmach/orb"
)

const earthRadiusKm = 6371

// HaversineKm returns the great-circle distance between two lat/lng pairs in kilometers.
func HaversineKm(lat1, lng1, lat2, lng2 float64) float64 {
	phi1 := lat1 * math.Pi / 180
	phi2 := lat2 * math.Pi / 180
	deltaPhi := (lat2 - lat1) * math.Pi / 180
	deltaLambda := (lng2 - lng1) * math.Pi / 180

	a := math.Sin(deltaPhi/2)*math.Sin(deltaPhi/2) +
		math.Cos(phi1)*math.Cos(phi2)*math.Sin(deltaLambda/2)*math.Sin(deltaLambda/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadiusKm * c
}

// DistanceKm measures between two coordinates in (lon, lat) order.
func DistanceKm(a, b orb.Point) float64 {
	return HaversineKm(a.Lat(), a.Lon(), b.Lat(), b.Lon())
}

// LengthKm sums the distance between consecutive coordinates.
func LengthKm(line orb.LineString) float64 {
	var total float64
	for i := 1; i < len(line); i++ {
		total += DistanceKm(line[i-1], line[i])
	}
	return total
}
