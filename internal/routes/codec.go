package routes

import (
	"bytes"
	"encoding/json"

	"github.com/paulmach/orb/geojson"

	"github.com/ramblingpm/raceplanner-sub001/internal/routefile"
)

var jsonNull = []byte("null")

func encodeGeometry(g *geojson.Geometry) ([]byte, error) {
	if g == nil {
		return nil, nil
	}
	return g.MarshalJSON()
}

func decodeGeometry(raw []byte) (*geojson.Geometry, error) {
	if len(raw) == 0 || bytes.Equal(raw, jsonNull) {
		return nil, nil
	}
	return geojson.UnmarshalGeometry(raw)
}

func encodeSeries(series []float64) ([]byte, error) {
	if series == nil {
		return nil, nil
	}
	return json.Marshal(series)
}

func decodeSeries(raw []byte) ([]float64, error) {
	if len(raw) == 0 || bytes.Equal(raw, jsonNull) {
		return nil, nil
	}
	var series []float64
	if err := json.Unmarshal(raw, &series); err != nil {
		return nil, err
	}
	return series, nil
}

func geometryOf(parsed routefile.ParsedRoute) *geojson.Geometry {
	return geojson.NewGeometry(parsed.Coordinates)
}
