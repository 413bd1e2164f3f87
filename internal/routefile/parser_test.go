package routefile

import (
	"bytes"
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/paulmach/orb"
)

const sampleTrack = `<?xml version="1.0" encoding="UTF-8"?>
<gpx version="1.1" creator="test" xmlns="http://www.topografix.com/GPX/1/1">
  <metadata><name>Vätternrundan</name></metadata>
  <trk>
    <name>Track name</name>
    <trkseg>
      <trkpt lat="59.3" lon="18.0"><ele>20</ele></trkpt>
      <trkpt lat="59.31" lon="18.01"></trkpt>
    </trkseg>
    <trkseg>
      <trkpt lat="59.32" lon="18.02"></trkpt>
    </trkseg>
  </trk>
  <rte>
    <rtept lat="1" lon="1"></rtept>
  </rte>
</gpx>`

func TestParseTrackAxisOrder(t *testing.T) {
	parsed, err := ParseTrack(strings.NewReader(sampleTrack))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(parsed.Coordinates) != 3 {
		t.Fatalf("expected 3 track points, got %d", len(parsed.Coordinates))
	}
	if parsed.Coordinates[0] != (orb.Point{18.0, 59.3}) {
		t.Fatalf("expected lon first, got %v", parsed.Coordinates[0])
	}
	if parsed.Name == nil || *parsed.Name != "Vätternrundan" {
		t.Fatalf("unexpected name: %v", parsed.Name)
	}
	if parsed.TotalDistanceKm <= 0 {
		t.Fatalf("expected positive distance")
	}
	if parsed.InvalidPoints != 0 {
		t.Fatalf("expected no invalid points")
	}
}

func TestParseTrackLatin1(t *testing.T) {
	doc := "<?xml version=\"1.0\" encoding=\"ISO-8859-1\"?>\n" +
		"<gpx version=\"1.1\"><metadata><name>V\xe4ttern</name></metadata>" +
		"<trk><trkseg><trkpt lat=\"58.4\" lon=\"14.9\"></trkpt><trkpt lat=\"58.5\" lon=\"14.8\"></trkpt></trkseg></trk></gpx>"

	parsed, err := ParseTrack(strings.NewReader(doc))
	if err != nil {
		t.Fatalf("parse latin-1 gpx: %v", err)
	}
	if parsed.Name == nil || *parsed.Name != "Vättern" {
		t.Fatalf("unexpected name: %v", parsed.Name)
	}
	if len(parsed.Coordinates) != 2 {
		t.Fatalf("expected 2 track points, got %d", len(parsed.Coordinates))
	}
}

func TestParseTrackFallsBackToRoutePoints(t *testing.T) {
	doc := `<gpx><rte><name>Loop</name><rtept lat="10" lon="20"/><rtept lat="10" lon="21"/></rte></gpx>`
	parsed, err := ParseTrack(strings.NewReader(doc))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(parsed.Coordinates) != 2 || parsed.Coordinates[1] != (orb.Point{21, 10}) {
		t.Fatalf("unexpected coordinates: %v", parsed.Coordinates)
	}
	if parsed.Name == nil || *parsed.Name != "Loop" {
		t.Fatalf("expected route name")
	}
}

func TestParseTrackWithoutName(t *testing.T) {
	doc := `<gpx><trk><trkseg><trkpt lat="1" lon="2"/></trkseg></trk></gpx>`
	parsed, err := ParseTrack(strings.NewReader(doc))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if parsed.Name != nil {
		t.Fatalf("expected absent name, got %q", *parsed.Name)
	}
	if parsed.TotalDistanceKm != 0 {
		t.Fatalf("expected zero distance for single point")
	}
}

func TestParseTrackLenientAttributes(t *testing.T) {
	doc := `<gpx><trk><trkseg><trkpt lat="abc" lon="2"/><trkpt lon="3"/><trkpt lat="4" lon="5"/></trkseg></trk></gpx>`
	parsed, err := ParseTrack(strings.NewReader(doc))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if parsed.Coordinates[0] != (orb.Point{2, 0}) || parsed.Coordinates[1] != (orb.Point{3, 0}) {
		t.Fatalf("expected zero latitude defaults, got %v", parsed.Coordinates)
	}
	if parsed.InvalidPoints != 2 {
		t.Fatalf("expected 2 invalid points, got %d", parsed.InvalidPoints)
	}
}

func TestParseTrackErrors(t *testing.T) {
	tests := []struct {
		name   string
		doc    string
		format bool
	}{
		{"malformed", `<gpx><trk>`, true},
		{"empty input", ``, true},
		{"mismatched tags", `<gpx></trk>`, true},
		{"no points", `<gpx><trk><trkseg></trkseg></trk></gpx>`, false},
		{"other root", `<kml><Document/></kml>`, false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParseTrack(strings.NewReader(tc.doc))
			var formatErr *FormatError
			if tc.format {
				if !errors.As(err, &formatErr) {
					t.Fatalf("expected format error, got %v", err)
				}
				return
			}
			if !errors.Is(err, ErrEmptyRoute) {
				t.Fatalf("expected empty route error, got %v", err)
			}
		})
	}
}

func TestParseDispatch(t *testing.T) {
	if _, err := Parse("ride.GPX", []byte(sampleTrack)); err != nil {
		t.Fatalf("expected gpx to parse: %v", err)
	}

	_, err := Parse("ride.fit", []byte{0x0e, 0x10})
	var unsupported *UnsupportedFormatError
	if !errors.As(err, &unsupported) || unsupported.Format != FormatFIT {
		t.Fatalf("expected fit unsupported error, got %v", err)
	}
	if !strings.Contains(unsupported.Message, "GPX") {
		t.Fatalf("expected message to point at GPX")
	}

	_, err = Parse("ride.tcx", nil)
	if !errors.As(err, &unsupported) || unsupported.Format != "tcx" {
		t.Fatalf("expected unknown format error, got %v", err)
	}
}

func TestDistanceFromStart(t *testing.T) {
	coords := orb.LineString{{0, 0}, {1, 0}, {2, 0}}
	if DistanceFromStart(coords, 0) != 0 || DistanceFromStart(coords, 3) != 0 || DistanceFromStart(coords, -1) != 0 {
		t.Fatalf("expected zero for out of range index")
	}
	d := DistanceFromStart(coords, 2)
	if math.Abs(d-222.39) > 1 {
		t.Fatalf("unexpected distance: %v", d)
	}
}

func TestClosestPointOnRoute(t *testing.T) {
	coords := orb.LineString{{0, 0}, {1, 0}, {2, 0}, {1, 0}}
	closest := ClosestPointOnRoute(coords, orb.Point{1.1, 0.1})
	if closest.Index != 1 {
		t.Fatalf("expected earliest matching index 1, got %d", closest.Index)
	}
	if math.Abs(closest.DistanceFromStartKm-DistanceFromStart(coords, 1)) > 1e-9 {
		t.Fatalf("unexpected distance from start")
	}

	empty := ClosestPointOnRoute(nil, orb.Point{1, 1})
	if empty.Index != 0 || empty.DistanceFromStartKm != 0 {
		t.Fatalf("unexpected result for empty route: %+v", empty)
	}
}

func TestEncodeGPXReadsBack(t *testing.T) {
	coords := orb.LineString{{18.0, 59.3}, {18.01, 59.31}}
	out, err := EncodeGPX("Export", coords, []float64{12, 15})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if !bytes.Contains(out, []byte("<ele>")) {
		t.Fatalf("expected elevations in output")
	}

	parsed, err := ParseTrack(bytes.NewReader(out))
	if err != nil {
		t.Fatalf("parse exported: %v", err)
	}
	if len(parsed.Coordinates) != 2 || parsed.Coordinates[0] != coords[0] {
		t.Fatalf("unexpected coordinates: %v", parsed.Coordinates)
	}
}
