package elevation

import (
	"context"

	"github.com/paulmach/orb"
)

// Source tells whether an elevation came from the provider or was zero filled.
type Source string

const (
	SourceMeasured Source = "measured"
	SourceFallback Source = "fallback"
)

// Provider looks up elevations (meters) index aligned with coords.
type Provider interface {
	Lookup(ctx context.Context, coords []orb.Point) ([]float64, []Source)
}

type location struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

type lookupRequest struct {
	Locations []location `json:"locations"`
}

type lookupResponse struct {
	Results []struct {
		Latitude  float64 `json:"latitude"`
		Longitude float64 `json:"longitude"`
		Elevation float64 `json:"elevation"`
	} `json:"results"`
}

// CountFallback returns how many samples were zero filled.
func CountFallback(sources []Source) int {
	n := 0
	for _, s := range sources {
		if s == SourceFallback {
			n++
		}
	}
	return n
}
