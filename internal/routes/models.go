package routes

import (
	"errors"
	"time"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/ramblingpm/raceplanner-sub001/internal/profile"
)

var ErrNotFound = errors.New("route not found")

// Route is a stored race route. Geometry is a GeoJSON LineString and may be
// absent for routes imported without coordinates.
type Route struct {
	ID              string            `json:"id"`
	Name            string            `json:"name"`
	Geometry        *geojson.Geometry `json:"geometry,omitempty"`
	DistanceKm      float64           `json:"distance_km"`
	InvalidPoints   int               `json:"invalid_points"`
	ElevationSeries []float64         `json:"elevation_series,omitempty"`
	Stats           *profile.Stats    `json:"stats,omitempty"`
	CreatedAt       time.Time         `json:"created_at"`
}

// Coordinates returns the route line, or nil when the route has no LineString geometry.
func (r Route) Coordinates() orb.LineString {
	if r.Geometry == nil {
		return nil
	}
	ls, _ := r.Geometry.Coordinates.(orb.LineString)
	return ls
}

func (r Route) HasElevation() bool {
	return len(r.ElevationSeries) > 0
}
