package routefile

import (
	"fmt"

	"github.com/paulmach/orb"
	"github.com/tkrajina/gpxgo/gpx"
)

// EncodeGPX writes coords as a single-track GPX 1.1 document. Elevations are
// attached when they are index aligned with coords.
func EncodeGPX(name string, coords orb.LineString, elevations []float64) ([]byte, error) {
	withElevation := len(elevations) == len(coords)

	segment := gpx.GPXTrackSegment{Points: make([]gpx.GPXPoint, 0, len(coords))}
	for i, c := range coords {
		point := gpx.GPXPoint{
			Point: gpx.Point{
				Latitude:  c.Lat(),
				Longitude: c.Lon(),
			},
		}
		if withElevation {
			point.Elevation = *gpx.NewNullableFloat64(elevations[i])
		}
		segment.Points = append(segment.Points, point)
	}

	doc := gpx.GPX{
		Creator: "raceplanner",
		Name:    name,
		Tracks: []gpx.GPXTrack{{
			Name:     name,
			Segments: []gpx.GPXTrackSegment{segment},
		}},
	}
	out, err := doc.ToXml(gpx.ToXmlParams{Version: "1.1", Indent: true})
	if err != nil {
		return nil, fmt.Errorf("encoding gpx: %w", err)
	}
	return out, nil
}
