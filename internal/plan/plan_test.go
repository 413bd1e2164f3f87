package plan

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/paulmach/orb"

	"github.com/ramblingpm/raceplanner-sub001/internal/routefile"
)

var raceStart = time.Date(2026, 6, 12, 20, 0, 0, 0, time.UTC)

func km(v float64) *float64 { return &v }

func deg(v float64) *float64 { return &v }

func TestComputeWithoutStops(t *testing.T) {
	p, err := Compute(Request{StartTime: raceStart, GoalMinutes: 600, DistanceKm: 300})
	if err != nil {
		t.Fatalf("compute: %v", err)
	}
	if p.RequiredAvgSpeedKmh != 30 || p.AvgSpeedIncludingStopKmh != 30 {
		t.Fatalf("unexpected speeds: %+v", p)
	}
	if !p.FinishTime.Equal(raceStart.Add(10 * time.Hour)) {
		t.Fatalf("unexpected finish %v", p.FinishTime)
	}
	if len(p.FeedZones) != 0 {
		t.Fatalf("expected no feed zones")
	}
}

func TestComputeSubtractsStops(t *testing.T) {
	p, err := Compute(Request{
		StartTime:   raceStart,
		GoalMinutes: 600,
		DistanceKm:  300,
		FeedZones: []FeedZone{
			{Name: "Second", DistanceKm: km(200), StopMinutes: 15},
			{Name: "First", DistanceKm: km(100), StopMinutes: 15},
		},
	})
	if err != nil {
		t.Fatalf("compute: %v", err)
	}
	if p.MovingMinutes != 570 || p.TotalStopMinutes != 30 {
		t.Fatalf("unexpected times: %+v", p)
	}
	if math.Abs(p.RequiredAvgSpeedKmh-300/9.5) > 1e-9 {
		t.Fatalf("unexpected moving speed %v", p.RequiredAvgSpeedKmh)
	}
	if p.AvgSpeedIncludingStopKmh != 30 {
		t.Fatalf("unexpected overall speed %v", p.AvgSpeedIncludingStopKmh)
	}
	if p.FeedZones[0].Name != "First" || p.FeedZones[1].Name != "Second" {
		t.Fatalf("expected zones sorted by distance: %+v", p.FeedZones)
	}

	first, second := p.FeedZones[0], p.FeedZones[1]
	if !first.Arrival.Equal(raceStart.Add(190*time.Minute)) || !first.Departure.Equal(raceStart.Add(205*time.Minute)) {
		t.Fatalf("unexpected first zone times: %+v", first)
	}
	if !second.Arrival.Equal(raceStart.Add(395*time.Minute)) || !second.Departure.Equal(raceStart.Add(410*time.Minute)) {
		t.Fatalf("unexpected second zone times: %+v", second)
	}
}

func TestComputeSnapsFeedZonesToRoute(t *testing.T) {
	route := orb.LineString{{18.0, 59.30}, {18.0, 59.31}, {18.0, 59.32}, {18.0, 59.33}}
	p, err := Compute(Request{
		StartTime:   raceStart,
		GoalMinutes: 60,
		Route:       route,
		FeedZones:   []FeedZone{{Name: "Depot", Lat: deg(59.3201), Lng: deg(18.0002), StopMinutes: 5}},
	})
	if err != nil {
		t.Fatalf("compute: %v", err)
	}
	zone := p.FeedZones[0]
	if zone.RouteIndex != 2 {
		t.Fatalf("expected snap to index 2, got %d", zone.RouteIndex)
	}
	if math.Abs(zone.DistanceKm-routefile.DistanceFromStart(route, 2)) > 1e-9 {
		t.Fatalf("unexpected km mark %v", zone.DistanceKm)
	}
	if p.DistanceKm <= 0 {
		t.Fatalf("expected distance from route length")
	}
}

func TestComputeInvalid(t *testing.T) {
	cases := []struct {
		name string
		req  Request
	}{
		{"no distance", Request{GoalMinutes: 60}},
		{"no goal", Request{DistanceKm: 10}},
		{"stops exceed goal", Request{DistanceKm: 10, GoalMinutes: 30, FeedZones: []FeedZone{{DistanceKm: km(5), StopMinutes: 30}}}},
		{"negative stop", Request{DistanceKm: 10, GoalMinutes: 30, FeedZones: []FeedZone{{DistanceKm: km(5), StopMinutes: -1}}}},
		{"outside course", Request{DistanceKm: 10, GoalMinutes: 30, FeedZones: []FeedZone{{DistanceKm: km(11)}}}},
		{"unplaceable zone", Request{DistanceKm: 10, GoalMinutes: 30, FeedZones: []FeedZone{{Lat: deg(1), Lng: deg(1)}}}},
		{"route zone without position", Request{GoalMinutes: 60, Route: orb.LineString{{0.001, 0.001}, {0.01, 0.01}}, FeedZones: []FeedZone{{Name: "Depot"}}}},
		{"route zone without lng", Request{GoalMinutes: 60, Route: orb.LineString{{0.001, 0.001}, {0.01, 0.01}}, FeedZones: []FeedZone{{Lat: deg(0.001)}}}},
	}
	for _, tc := range cases {
		if _, err := Compute(tc.req); !errors.Is(err, ErrInvalidPlan) {
			t.Fatalf("%s: expected ErrInvalidPlan, got %v", tc.name, err)
		}
	}
}
