package routefile

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/paulmach/orb"
	"golang.org/x/net/html/charset"

	"github.com/ramblingpm/raceplanner-sub001/internal/shared/geo"
)

const (
	FormatGPX = "gpx"
	FormatFIT = "fit"
)

type gpxDocument struct {
	Metadata struct {
		Name string `xml:"name"`
	} `xml:"metadata"`
	Tracks []gpxTrack `xml:"trk"`
	Routes []gpxRoute `xml:"rte"`
}

type gpxTrack struct {
	Name     string `xml:"name"`
	Segments []struct {
		Points []gpxPoint `xml:"trkpt"`
	} `xml:"trkseg"`
}

type gpxRoute struct {
	Name   string     `xml:"name"`
	Points []gpxPoint `xml:"rtept"`
}

// Attributes are kept as strings so a bad value degrades to 0 instead of failing the decode.
type gpxPoint struct {
	Lat string `xml:"lat,attr"`
	Lon string `xml:"lon,attr"`
}

// Parse dispatches on the file extension of name.
func Parse(name string, data []byte) (ParsedRoute, error) {
	switch ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(name)), "."); ext {
	case FormatGPX:
		return ParseTrack(bytes.NewReader(data))
	case FormatFIT:
		return ParsedRoute{}, &UnsupportedFormatError{
			Format:  FormatFIT,
			Message: "FIT files are not supported yet, please export the route as GPX and upload that instead",
		}
	default:
		return ParsedRoute{}, &UnsupportedFormatError{
			Format:  ext,
			Message: fmt.Sprintf("unsupported file type %q, please upload a GPX file", ext),
		}
	}
}

// ParseTrack reads a GPX document. Track points win over route points; route
// points are only used when the document has no track points at all.
func ParseTrack(r io.Reader) (ParsedRoute, error) {
	var doc gpxDocument
	dec := xml.NewDecoder(r)
	dec.CharsetReader = charset.NewReaderLabel
	if err := dec.Decode(&doc); err != nil {
		return ParsedRoute{}, &FormatError{Err: fmt.Errorf("decoding gpx: %w", err)}
	}

	var points []gpxPoint
	for _, trk := range doc.Tracks {
		for _, seg := range trk.Segments {
			points = append(points, seg.Points...)
		}
	}
	if len(points) == 0 {
		for _, rte := range doc.Routes {
			points = append(points, rte.Points...)
		}
	}
	if len(points) == 0 {
		return ParsedRoute{}, ErrEmptyRoute
	}

	parsed := ParsedRoute{Coordinates: make(orb.LineString, 0, len(points))}
	for _, p := range points {
		lat, okLat := parseCoord(p.Lat)
		lon, okLon := parseCoord(p.Lon)
		if !okLat || !okLon {
			parsed.InvalidPoints++
		}
		parsed.Coordinates = append(parsed.Coordinates, orb.Point{lon, lat})
	}
	parsed.TotalDistanceKm = geo.LengthKm(parsed.Coordinates)
	parsed.Name = documentName(doc)
	return parsed, nil
}

func parseCoord(raw string) (float64, bool) {
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

func documentName(doc gpxDocument) *string {
	candidates := []string{doc.Metadata.Name}
	for _, trk := range doc.Tracks {
		candidates = append(candidates, trk.Name)
	}
	for _, rte := range doc.Routes {
		candidates = append(candidates, rte.Name)
	}
	for _, c := range candidates {
		if name := strings.TrimSpace(c); name != "" {
			return &name
		}
	}
	return nil
}
