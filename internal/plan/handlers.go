package plan

import (
	"context"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/ramblingpm/raceplanner-sub001/internal/routes"
)

type RouteGetter interface {
	Get(ctx context.Context, id string) (routes.Route, error)
}

type computeRequest struct {
	StartTime   time.Time  `json:"start_time"`
	GoalMinutes float64    `json:"goal_minutes"`
	DistanceKm  float64    `json:"distance_km"`
	RouteID     string     `json:"route_id"`
	FeedZones   []FeedZone `json:"feed_zones"`
}

func RegisterRoutes(r fiber.Router, store RouteGetter) {
	r.Post("/compute", func(c *fiber.Ctx) error {
		var body computeRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		if body.StartTime.IsZero() {
			body.StartTime = time.Now().UTC().Truncate(time.Minute)
		}

		req := Request{
			StartTime:   body.StartTime,
			GoalMinutes: body.GoalMinutes,
			DistanceKm:  body.DistanceKm,
			FeedZones:   body.FeedZones,
		}
		if body.RouteID != "" {
			route, err := store.Get(c.Context(), body.RouteID)
			if errors.Is(err, routes.ErrNotFound) {
				return fiber.NewError(fiber.StatusNotFound, "route not found")
			}
			if err != nil {
				return fiber.NewError(fiber.StatusInternalServerError, err.Error())
			}
			req.Route = route.Coordinates()
			if req.DistanceKm <= 0 {
				req.DistanceKm = route.DistanceKm
			}
		}

		computed, err := Compute(req)
		if errors.Is(err, ErrInvalidPlan) {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.JSON(computed)
	})
}
