package routefile

import "github.com/paulmach/orb"

// ParsedRoute is the result of parsing a route file. Coordinates are in (lon, lat) order.
type ParsedRoute struct {
	Coordinates     orb.LineString `json:"coordinates"`
	TotalDistanceKm float64        `json:"total_distance_km"`
	Name            *string        `json:"name,omitempty"`

	// InvalidPoints counts points whose lat or lon attribute was missing or
	// non-numeric and was read as 0.
	InvalidPoints int `json:"invalid_points"`
}

// ClosestPoint locates a position on a route.
type ClosestPoint struct {
	Index               int     `json:"index"`
	DistanceFromStartKm float64 `json:"distance_from_start_km"`
}
