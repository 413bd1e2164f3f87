package server

import (
	"context"
	"fmt"
	"io"

	"github.com/ramblingpm/raceplanner-sub001/internal/config"
	"github.com/ramblingpm/raceplanner-sub001/internal/db"
	"github.com/ramblingpm/raceplanner-sub001/internal/routes"
)

type closerFunc func() error

func (f closerFunc) Close() error { return f() }

// OpenStore connects the configured route store and creates its table.
func OpenStore(ctx context.Context, cfg config.Config) (routes.Store, io.Closer, error) {
	switch cfg.StoreDriver {
	case "", config.StoreDriverPostgres:
		pool, err := db.ConnectPostgres(cfg)
		if err != nil {
			return nil, nil, fmt.Errorf("postgres: %w", err)
		}
		store := routes.NewService(pool)
		if err := store.EnsureSchema(ctx); err != nil {
			pool.Close()
			return nil, nil, fmt.Errorf("postgres schema: %w", err)
		}
		return store, closerFunc(func() error { pool.Close(); return nil }), nil
	case config.StoreDriverSQLite:
		conn, err := db.ConnectSQLite(cfg)
		if err != nil {
			return nil, nil, fmt.Errorf("sqlite: %w", err)
		}
		store := routes.NewSQLiteStore(conn)
		if err := store.EnsureSchema(ctx); err != nil {
			conn.Close()
			return nil, nil, err
		}
		return store, conn, nil
	default:
		return nil, nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
	}
}
