package main

import (
	"context"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/ramblingpm/raceplanner-sub001/internal/config"
	"github.com/ramblingpm/raceplanner-sub001/internal/db"
	"github.com/ramblingpm/raceplanner-sub001/internal/elevation"
	"github.com/ramblingpm/raceplanner-sub001/internal/routes"
	"github.com/ramblingpm/raceplanner-sub001/internal/server"
)

var mainDepsProvider = defaultDeps
var mainRunner = realMain

func main() {
	mainRunner(mainDepsProvider())
}

type mainDeps struct {
	loadConfig   func() config.Config
	openStore    func(context.Context, config.Config) (routes.Store, io.Closer, error)
	newProvider  func(config.Config) (elevation.Provider, error)
	connectRedis func(config.Config) *redis.Client
	notify       func(chan<- os.Signal, ...os.Signal)
	run          func(context.Context, config.Config, routes.Store, elevation.Provider, *redis.Client, <-chan os.Signal, ListenFunc) error
}

func defaultDeps() mainDeps {
	return mainDeps{
		loadConfig:   loadConfig,
		openStore:    server.OpenStore,
		newProvider:  server.NewElevationProvider,
		connectRedis: db.ConnectRedis,
		notify:       signal.Notify,
		run:          Run,
	}
}

func loadConfig() config.Config {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("reading .env: %v", err)
	}
	return config.Load()
}

func realMain(deps mainDeps) {
	cfg := deps.loadConfig()

	store, closer, err := deps.openStore(context.Background(), cfg)
	if err != nil {
		log.Printf("route store unavailable: %v", err)
	}
	if closer != nil {
		defer closer.Close()
	}

	provider, err := deps.newProvider(cfg)
	if err != nil {
		log.Printf("elevation provider: %v", err)
		return
	}

	rdb := deps.connectRedis(cfg)

	signals := make(chan os.Signal, 1)
	deps.notify(signals, syscall.SIGINT, syscall.SIGTERM)

	if err := deps.run(context.Background(), cfg, store, provider, rdb, signals, nil); err != nil {
		log.Printf("server exited with error: %v", err)
	}
}

type ListenFunc func(app *fiber.App, addr string) error

var defaultListen ListenFunc = func(app *fiber.App, addr string) error {
	return app.Listen(addr)
}

var shutdownFn = func(app *fiber.App, ctx context.Context) error {
	return app.ShutdownWithContext(ctx)
}

// Run starts the HTTP server and waits for termination signals.
func Run(ctx context.Context, cfg config.Config, store routes.Store, provider elevation.Provider, rdb *redis.Client, signals <-chan os.Signal, listen ListenFunc) error {
	srv := server.NewServer(cfg, store, provider, rdb)

	if listen == nil {
		listen = defaultListen
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- listen(srv.App, cfg.ServerPort)
	}()

	select {
	case <-signals:
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil {
			srv.Close()
			return err
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := shutdownFn(srv.App, shutdownCtx); err != nil {
		return err
	}
	srv.Close()
	if rdb != nil {
		_ = rdb.Close()
	}
	return nil
}
