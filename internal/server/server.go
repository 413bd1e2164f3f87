package server

import (
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/redis/go-redis/v9"

	"github.com/ramblingpm/raceplanner-sub001/internal/auth"
	"github.com/ramblingpm/raceplanner-sub001/internal/backfill"
	"github.com/ramblingpm/raceplanner-sub001/internal/config"
	"github.com/ramblingpm/raceplanner-sub001/internal/elevation"
	"github.com/ramblingpm/raceplanner-sub001/internal/plan"
	"github.com/ramblingpm/raceplanner-sub001/internal/profile"
	"github.com/ramblingpm/raceplanner-sub001/internal/routes"
	"github.com/ramblingpm/raceplanner-sub001/internal/stream"
)

type Server struct {
	App      *fiber.App
	Cfg      config.Config
	Store    routes.Store
	Redis    *redis.Client
	Stream   *stream.Hub
	Engine   *profile.Engine
	Backfill *backfill.Runner
}

// NewServer wires the HTTP API. Route, plan and backfill endpoints are only
// mounted when store is non-nil.
func NewServer(cfg config.Config, store routes.Store, provider elevation.Provider, redisClient *redis.Client) *Server {
	app := fiber.New(fiber.Config{BodyLimit: 32 * 1024 * 1024})
	app.Use(recover.New())
	app.Use(logger.New())

	s := &Server{
		App:    app,
		Cfg:    cfg,
		Store:  store,
		Redis:  redisClient,
		Stream: stream.NewHub(redisClient),
		Engine: profile.NewEngine(provider, cfg.ElevationMaxPoints),
	}

	registerRoutes(s)
	return s
}

func registerRoutes(s *Server) {
	s.App.Get("/health", func(c *fiber.Ctx) error {
		status := fiber.Map{"status": "ok", "store": "ok"}
		if s.Store == nil {
			status["store"] = "unavailable"
		}
		return c.JSON(status)
	})

	stream.RegisterRoutes(s.App.Group("/stream"), s.Stream, s.runSnapshot)

	if s.Store == nil {
		log.Printf("server: no route store configured, route endpoints disabled")
		return
	}

	coord := backfill.NewCoordinator(s.Engine, s.Store, s.Cfg.BackfillDelay)
	s.Backfill = backfill.NewRunner(coord, s.Stream, s.Redis)

	routesGroup := s.App.Group("/routes")
	routes.RegisterRoutes(routesGroup, s.Store)
	backfill.RegisterRouteRoutes(routesGroup, coord, s.Store)
	plan.RegisterRoutes(s.App.Group("/plans"), s.Store)

	admin := s.App.Group("/admin", auth.JWTMiddleware(s.Cfg.JWTSecret), auth.RequireRole(auth.RoleAdmin))
	backfill.RegisterAdminRoutes(admin.Group("/backfill"), s.Backfill)
}

func (s *Server) runSnapshot(runID string) (any, bool) {
	if s.Backfill == nil {
		return nil, false
	}
	return s.Backfill.Snapshot(runID)
}

// Close stops background backfills and the stream relay.
func (s *Server) Close() {
	if s.Backfill != nil {
		s.Backfill.Close()
	}
	s.Stream.Close()
}
