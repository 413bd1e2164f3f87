package backfill

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/ramblingpm/raceplanner-sub001/internal/routes"
)

// RegisterAdminRoutes expects r to be guarded by admin auth already.
func RegisterAdminRoutes(r fiber.Router, runner *Runner) {
	r.Post("/", func(c *fiber.Ctx) error {
		runID, err := runner.Start(c.UserContext(), c.QueryBool("force"))
		if errors.Is(err, ErrRunInProgress) {
			return fiber.NewError(fiber.StatusConflict, err.Error())
		}
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.Status(fiber.StatusAccepted).JSON(fiber.Map{"run_id": runID})
	})

	r.Get("/:runID", func(c *fiber.Ctx) error {
		status, ok := runner.Status(c.Params("runID"))
		if !ok {
			return fiber.NewError(fiber.StatusNotFound, "run not found")
		}
		return c.JSON(status)
	})
}

// RegisterRouteRoutes adds synchronous elevation computation for one route.
func RegisterRouteRoutes(r fiber.Router, coord *Coordinator, store routes.Store) {
	r.Post("/:id/elevation", func(c *fiber.Ctx) error {
		route, err := store.Get(c.UserContext(), c.Params("id"))
		if errors.Is(err, routes.ErrNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "route not found")
		}
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}

		p := coord.ProcessOne(c.UserContext(), route, c.QueryBool("force"), nil)
		if p.Status == StatusError {
			if p.Message == ErrNoGeometry.Error() {
				return fiber.NewError(fiber.StatusUnprocessableEntity, p.Message)
			}
			return fiber.NewError(fiber.StatusInternalServerError, p.Message)
		}

		updated, err := store.Get(c.UserContext(), route.ID)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.JSON(fiber.Map{"progress": p, "route": updated})
	})
}
