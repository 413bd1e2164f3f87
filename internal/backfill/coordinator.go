// Package backfill computes and stores elevation profiles for routes that lack them.
package backfill

import (
	"context"
	"fmt"
	"log"
	"time"

	"golang.org/x/time/rate"

	"github.com/ramblingpm/raceplanner-sub001/internal/profile"
	"github.com/ramblingpm/raceplanner-sub001/internal/routes"
)

const DefaultDelay = time.Second

// Store is the subset of routes.Store a backfill needs.
type Store interface {
	ListRoutes(ctx context.Context) ([]routes.Route, error)
	UpdateElevation(ctx context.Context, id string, series []float64, stats profile.Stats) (*routes.Route, error)
}

type Coordinator struct {
	engine *profile.Engine
	store  Store
	delay  time.Duration
}

// NewCoordinator spaces route starts in ProcessAll at least delay apart.
// A negative delay disables the spacing.
func NewCoordinator(engine *profile.Engine, store Store, delay time.Duration) *Coordinator {
	if delay == 0 {
		delay = DefaultDelay
	}
	return &Coordinator{engine: engine, store: store, delay: delay}
}

// ProcessOne computes and stores the elevation profile of a single route.
// Failures are reported in the returned Progress, never as a panic or error.
func (c *Coordinator) ProcessOne(ctx context.Context, route routes.Route, force bool, report Reporter) Progress {
	p := Progress{RouteID: route.ID, RouteName: route.Name, Status: StatusPending}
	emit := func(status Status, message string, pct int) {
		p.Status, p.Message, p.Progress = status, message, pct
		if report != nil {
			report(p)
		}
	}
	emit(StatusPending, "Queued", 0)

	coords := route.Coordinates()
	if len(coords) == 0 {
		emit(StatusError, ErrNoGeometry.Error(), 0)
		return p
	}
	if route.HasElevation() && !force {
		emit(StatusSuccess, MessageAlreadyExists, 100)
		return p
	}

	emit(StatusProcessing, "Fetching elevation data", 20)
	series, degraded := c.engine.Fetch(ctx, coords)

	emit(StatusProcessing, "Calculating statistics", 60)
	stats := profile.ComputeStats(series)

	emit(StatusProcessing, "Saving elevation data", 80)
	updated, err := c.store.UpdateElevation(ctx, route.ID, series, stats)
	if err == nil && updated == nil {
		err = &PersistenceError{RouteID: route.ID}
	}
	if err != nil {
		log.Printf("backfill: route %s: %v", route.ID, err)
		emit(StatusError, err.Error(), 80)
		return p
	}

	msg := fmt.Sprintf("Saved %d elevation points (gain %d m, loss %d m)", len(series), stats.TotalElevationGainM, stats.TotalElevationLossM)
	if degraded > 0 {
		msg += fmt.Sprintf(", %d lookups fell back to zero", degraded)
	}
	emit(StatusSuccess, msg, 100)
	return p
}

// ProcessAll runs ProcessOne over every stored route, one at a time. A failing
// route never stops the batch. Routes are listed even when ctx is already
// cancelled; every route not started before cancellation is recorded as an
// error so the result still lists every route.
func (c *Coordinator) ProcessAll(ctx context.Context, force bool, report Reporter) (Result, error) {
	list, err := c.store.ListRoutes(context.WithoutCancel(ctx))
	if err != nil {
		return Result{}, fmt.Errorf("list routes: %w", err)
	}

	limiter := c.newLimiter()
	result := Result{Total: len(list), Details: make([]Progress, 0, len(list))}
	for _, route := range list {
		if err := limiter.Wait(ctx); err != nil {
			p := Progress{RouteID: route.ID, RouteName: route.Name, Status: StatusError, Message: err.Error()}
			if report != nil {
				report(p)
			}
			result.add(p)
			continue
		}
		result.add(c.ProcessOne(ctx, route, force, report))
	}

	log.Printf("backfill: %d routes, %d successful, %d skipped, %d failed",
		result.Total, result.Successful, result.Skipped, result.Failed)
	return result, nil
}

// newLimiter holds a single token so the first route starts immediately.
func (c *Coordinator) newLimiter() *rate.Limiter {
	if c.delay < 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	return rate.NewLimiter(rate.Every(c.delay), 1)
}
