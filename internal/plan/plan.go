// Package plan turns a goal finishing time into pacing targets and feed-zone ETAs.
package plan

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/paulmach/orb"

	"github.com/ramblingpm/raceplanner-sub001/internal/routefile"
	"github.com/ramblingpm/raceplanner-sub001/internal/shared/geo"
)

var ErrInvalidPlan = errors.New("invalid plan")

// FeedZone is a planned stop. DistanceKm places it directly; otherwise it is
// snapped to the route by Lat and Lng, which must both be set.
type FeedZone struct {
	Name        string   `json:"name"`
	Lat         *float64 `json:"lat,omitempty"`
	Lng         *float64 `json:"lng,omitempty"`
	DistanceKm  *float64 `json:"distance_km,omitempty"`
	StopMinutes float64  `json:"stop_minutes"`
}

type Request struct {
	StartTime   time.Time
	GoalMinutes float64
	DistanceKm  float64
	Route       orb.LineString
	FeedZones   []FeedZone
}

type FeedZoneETA struct {
	Name        string    `json:"name"`
	RouteIndex  int       `json:"route_index"`
	DistanceKm  float64   `json:"distance_km"`
	StopMinutes float64   `json:"stop_minutes"`
	Arrival     time.Time `json:"arrival"`
	Departure   time.Time `json:"departure"`
}

type Plan struct {
	StartTime                time.Time     `json:"start_time"`
	FinishTime               time.Time     `json:"finish_time"`
	DistanceKm               float64       `json:"distance_km"`
	GoalMinutes              float64       `json:"goal_minutes"`
	MovingMinutes            float64       `json:"moving_minutes"`
	TotalStopMinutes         float64       `json:"total_stop_minutes"`
	RequiredAvgSpeedKmh      float64       `json:"required_avg_speed_kmh"`
	AvgSpeedIncludingStopKmh float64       `json:"avg_speed_including_stops_kmh"`
	FeedZones                []FeedZoneETA `json:"feed_zones"`
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidPlan, fmt.Sprintf(format, args...))
}

// Compute assumes a constant moving speed between stops. When Route is set and
// DistanceKm is not, the distance is the route length.
func Compute(req Request) (Plan, error) {
	distance := req.DistanceKm
	if distance <= 0 && len(req.Route) > 1 {
		distance = geo.LengthKm(req.Route)
	}
	if distance <= 0 {
		return Plan{}, invalid("distance must be positive")
	}
	if req.GoalMinutes <= 0 {
		return Plan{}, invalid("goal duration must be positive")
	}

	zones := make([]FeedZoneETA, 0, len(req.FeedZones))
	var stops float64
	for i, fz := range req.FeedZones {
		if fz.StopMinutes < 0 {
			return Plan{}, invalid("feed zone %d has a negative stop", i)
		}
		eta := FeedZoneETA{Name: fz.Name, StopMinutes: fz.StopMinutes, RouteIndex: -1}
		switch {
		case fz.DistanceKm != nil:
			eta.DistanceKm = *fz.DistanceKm
		case len(req.Route) == 0:
			return Plan{}, invalid("feed zone %d needs distance_km without a route", i)
		case fz.Lat == nil || fz.Lng == nil:
			return Plan{}, invalid("feed zone %d needs distance_km or lat and lng", i)
		default:
			cp := routefile.ClosestPointOnRoute(req.Route, orb.Point{*fz.Lng, *fz.Lat})
			eta.RouteIndex = cp.Index
			eta.DistanceKm = cp.DistanceFromStartKm
		}
		if eta.DistanceKm < 0 || eta.DistanceKm > distance {
			return Plan{}, invalid("feed zone %d at %.2f km is outside the %.2f km course", i, eta.DistanceKm, distance)
		}
		stops += fz.StopMinutes
		zones = append(zones, eta)
	}

	moving := req.GoalMinutes - stops
	if moving <= 0 {
		return Plan{}, invalid("stops of %.0f min leave no moving time in %.0f min", stops, req.GoalMinutes)
	}

	speed := distance / (moving / 60)
	sort.SliceStable(zones, func(i, j int) bool { return zones[i].DistanceKm < zones[j].DistanceKm })

	var stopped float64
	for i := range zones {
		ridden := zones[i].DistanceKm / speed * 60
		zones[i].Arrival = req.StartTime.Add(minutes(ridden + stopped))
		stopped += zones[i].StopMinutes
		zones[i].Departure = req.StartTime.Add(minutes(ridden + stopped))
	}

	return Plan{
		StartTime:                req.StartTime,
		FinishTime:               req.StartTime.Add(minutes(req.GoalMinutes)),
		DistanceKm:               distance,
		GoalMinutes:              req.GoalMinutes,
		MovingMinutes:            moving,
		TotalStopMinutes:         stops,
		RequiredAvgSpeedKmh:      speed,
		AvgSpeedIncludingStopKmh: distance / (req.GoalMinutes / 60),
		FeedZones:                zones,
	}, nil
}

func minutes(m float64) time.Duration {
	return time.Duration(m * float64(time.Minute)).Round(time.Second)
}
