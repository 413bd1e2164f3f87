// Package profile builds elevation profiles for routes while keeping the number
// of points sent to the elevation provider bounded.
package profile

import (
	"context"

	"github.com/paulmach/orb"

	"github.com/ramblingpm/raceplanner-sub001/internal/elevation"
	"github.com/ramblingpm/raceplanner-sub001/internal/resample"
)

const DefaultMaxPoints = 500

// Profile is a full length elevation series plus its stats.
type Profile struct {
	Elevations []float64 `json:"elevations"`
	Stats      Stats     `json:"stats"`

	// DegradedPoints counts looked up points that were zero filled after a
	// provider failure. It refers to the downsampled set when downsampling applied.
	DegradedPoints int `json:"degraded_points"`
}

type Engine struct {
	provider  elevation.Provider
	maxPoints int
}

func NewEngine(provider elevation.Provider, maxPoints int) *Engine {
	if maxPoints <= 0 {
		maxPoints = DefaultMaxPoints
	}
	return &Engine{provider: provider, maxPoints: maxPoints}
}

// FetchElevationsOptimized returns one elevation per coordinate using at most
// about maxPoints provider lookups.
func (e *Engine) FetchElevationsOptimized(ctx context.Context, coords orb.LineString) []float64 {
	elevations, _ := e.Fetch(ctx, coords)
	return elevations
}

// Build fetches elevations and computes their stats.
func (e *Engine) Build(ctx context.Context, coords orb.LineString) Profile {
	elevations, degraded := e.Fetch(ctx, coords)
	return Profile{
		Elevations:     elevations,
		Stats:          ComputeStats(elevations),
		DegradedPoints: degraded,
	}
}

// Fetch is FetchElevationsOptimized that also reports how many lookups fell back to zero.
func (e *Engine) Fetch(ctx context.Context, coords orb.LineString) ([]float64, int) {
	reduced := resample.Downsample([]orb.Point(coords), e.maxPoints)
	values, sources := e.provider.Lookup(ctx, reduced)
	degraded := elevation.CountFallback(sources)
	if len(reduced) == len(coords) {
		return values, degraded
	}
	return resample.Interpolate(values, len(coords)), degraded
}
