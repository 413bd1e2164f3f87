package routefile

import (
	"math"

	"github.com/paulmach/orb"

	"github.com/ramblingpm/raceplanner-sub001/internal/shared/geo"
)

// DistanceFromStart returns the along-route distance from index 0 to targetIndex.
// Out of range indexes yield 0.
func DistanceFromStart(coords orb.LineString, targetIndex int) float64 {
	if targetIndex <= 0 || targetIndex >= len(coords) {
		return 0
	}
	return geo.LengthKm(coords[:targetIndex+1])
}

// ClosestPointOnRoute finds the route vertex nearest to target. Ties go to the earliest index.
func ClosestPointOnRoute(coords orb.LineString, target orb.Point) ClosestPoint {
	minDist := math.MaxFloat64
	minIdx := 0
	for i, c := range coords {
		if d := geo.DistanceKm(c, target); d < minDist {
			minDist = d
			minIdx = i
		}
	}
	return ClosestPoint{
		Index:               minIdx,
		DistanceFromStartKm: DistanceFromStart(coords, minIdx),
	}
}
