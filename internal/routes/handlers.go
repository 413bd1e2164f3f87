package routes

import (
	"errors"
	"io"
	"path/filepath"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/ramblingpm/raceplanner-sub001/internal/routefile"
)

func RegisterRoutes(r fiber.Router, store Store) {
	r.Post("/preview", func(c *fiber.Ctx) error {
		parsed, _, err := parseUpload(c)
		if err != nil {
			return err
		}
		return c.JSON(parsed)
	})

	r.Post("/", func(c *fiber.Ctx) error {
		parsed, filename, err := parseUpload(c)
		if err != nil {
			return err
		}
		route, err := store.Create(c.Context(), FromParsed(parsed, routeName(c.FormValue("name"), parsed, filename)))
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.Status(fiber.StatusCreated).JSON(route)
	})

	r.Get("/", func(c *fiber.Ctx) error {
		list, err := store.ListRoutes(c.Context())
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		if list == nil {
			list = []Route{}
		}
		return c.JSON(list)
	})

	r.Get("/:id", func(c *fiber.Ctx) error {
		route, err := loadRoute(c, store)
		if err != nil {
			return err
		}
		return c.JSON(route)
	})

	r.Get("/:id/gpx", func(c *fiber.Ctx) error {
		route, err := loadRoute(c, store)
		if err != nil {
			return err
		}
		coords := route.Coordinates()
		if len(coords) == 0 {
			return fiber.NewError(fiber.StatusNotFound, "route has no geometry")
		}
		body, err := routefile.EncodeGPX(route.Name, coords, route.ElevationSeries)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		c.Attachment(route.Name + ".gpx")
		c.Set(fiber.HeaderContentType, "application/gpx+xml")
		return c.Send(body)
	})
}

// FromParsed builds an unsaved route from a parsed file.
func FromParsed(parsed routefile.ParsedRoute, name string) Route {
	route := Route{
		Name:          name,
		DistanceKm:    parsed.TotalDistanceKm,
		InvalidPoints: parsed.InvalidPoints,
	}
	if len(parsed.Coordinates) > 0 {
		route.Geometry = geometryOf(parsed)
	}
	return route
}

func loadRoute(c *fiber.Ctx, store Store) (Route, error) {
	route, err := store.Get(c.Context(), c.Params("id"))
	if errors.Is(err, ErrNotFound) {
		return Route{}, fiber.NewError(fiber.StatusNotFound, "route not found")
	}
	if err != nil {
		return Route{}, fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}
	return route, nil
}

func parseUpload(c *fiber.Ctx) (routefile.ParsedRoute, string, error) {
	fh, err := c.FormFile("file")
	if err != nil {
		return routefile.ParsedRoute{}, "", fiber.NewError(fiber.StatusBadRequest, "file required")
	}
	f, err := fh.Open()
	if err != nil {
		return routefile.ParsedRoute{}, "", fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return routefile.ParsedRoute{}, "", fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	parsed, err := routefile.Parse(fh.Filename, data)
	if err != nil {
		return routefile.ParsedRoute{}, "", parseError(err)
	}
	return parsed, fh.Filename, nil
}

func parseError(err error) error {
	var unsupported *routefile.UnsupportedFormatError
	if errors.As(err, &unsupported) {
		return fiber.NewError(fiber.StatusUnsupportedMediaType, err.Error())
	}
	return fiber.NewError(fiber.StatusBadRequest, err.Error())
}

func routeName(override string, parsed routefile.ParsedRoute, filename string) string {
	if name := strings.TrimSpace(override); name != "" {
		return name
	}
	if parsed.Name != nil {
		return *parsed.Name
	}
	base := filepath.Base(filename)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
