// Command backfill computes elevation profiles for every stored route that lacks one.
// GPX files given as arguments are imported first.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/schollz/progressbar/v3"

	"github.com/ramblingpm/raceplanner-sub001/internal/backfill"
	"github.com/ramblingpm/raceplanner-sub001/internal/config"
	"github.com/ramblingpm/raceplanner-sub001/internal/profile"
	"github.com/ramblingpm/raceplanner-sub001/internal/routefile"
	"github.com/ramblingpm/raceplanner-sub001/internal/routes"
	"github.com/ramblingpm/raceplanner-sub001/internal/server"
)

func main() {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("reading .env: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, config.Load(), os.Args[1:], os.Stdout); err != nil {
		log.Fatalf("backfill: %v", err)
	}
}

func run(ctx context.Context, cfg config.Config, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("backfill", flag.ContinueOnError)
	fs.SetOutput(out)
	force := fs.Bool("force", false, "Recompute routes that already have elevation data.")
	if err := fs.Parse(args); err != nil {
		return err
	}

	store, closer, err := server.OpenStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closer.Close()

	for _, path := range fs.Args() {
		route, err := importFile(ctx, store, path)
		if err != nil {
			return fmt.Errorf("import %s: %w", path, err)
		}
		fmt.Fprintf(out, "imported %s as %s (%.1f km)\n", path, route.ID, route.DistanceKm)
	}

	provider, err := server.NewElevationProvider(cfg)
	if err != nil {
		return err
	}

	list, err := store.ListRoutes(ctx)
	if err != nil {
		return err
	}

	bar := progressbar.NewOptions(len(list),
		progressbar.OptionSetWriter(out),
		progressbar.OptionSetDescription("Backfilling"),
		progressbar.OptionShowCount(),
	)
	coord := backfill.NewCoordinator(profile.NewEngine(provider, cfg.ElevationMaxPoints), store, cfg.BackfillDelay)
	result, err := coord.ProcessAll(ctx, *force, func(p backfill.Progress) {
		if p.Status == backfill.StatusSuccess || p.Status == backfill.StatusError {
			bar.Describe(p.RouteName)
			_ = bar.Add(1)
		}
	})
	if err != nil {
		return err
	}
	_ = bar.Finish()

	fmt.Fprintf(out, "\n%d routes: %d successful, %d skipped, %d failed\n",
		result.Total, result.Successful, result.Skipped, result.Failed)
	for _, d := range result.Details {
		if d.Status == backfill.StatusError {
			fmt.Fprintf(out, "  %s (%s): %s\n", d.RouteName, d.RouteID, d.Message)
		}
	}
	return nil
}

func importFile(ctx context.Context, store routes.Store, path string) (routes.Route, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return routes.Route{}, err
	}
	parsed, err := routefile.Parse(path, data)
	if err != nil {
		return routes.Route{}, err
	}

	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	if parsed.Name != nil {
		name = *parsed.Name
	}
	return store.Create(ctx, routes.FromParsed(parsed, name))
}
