package routes

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/ramblingpm/raceplanner-sub001/internal/profile"
)

// Store is implemented by the Postgres Service and the SQLiteStore.
type Store interface {
	Create(ctx context.Context, route Route) (Route, error)
	Get(ctx context.Context, id string) (Route, error)
	ListRoutes(ctx context.Context) ([]Route, error)
	UpdateElevation(ctx context.Context, id string, series []float64, stats profile.Stats) (*Route, error)
}

const PostgresSchema = `
CREATE TABLE IF NOT EXISTS routes (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	geometry JSONB,
	distance_km DOUBLE PRECISION NOT NULL DEFAULT 0,
	invalid_points INTEGER NOT NULL DEFAULT 0,
	elevation_series JSONB,
	total_elevation_gain_m INTEGER,
	total_elevation_loss_m INTEGER,
	min_elevation_m INTEGER,
	max_elevation_m INTEGER,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`

const routeColumns = `id, name, geometry, distance_km, invalid_points, elevation_series,
	COALESCE(total_elevation_gain_m, 0), COALESCE(total_elevation_loss_m, 0),
	COALESCE(min_elevation_m, 0), COALESCE(max_elevation_m, 0), created_at`

// Querier is the part of *pgxpool.Pool the Postgres route service uses.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type Service struct {
	db Querier
}

func NewService(db Querier) *Service {
	return &Service{db: db}
}

func (s *Service) EnsureSchema(ctx context.Context) error {
	_, err := s.db.Exec(ctx, PostgresSchema)
	return err
}

func (s *Service) Create(ctx context.Context, input Route) (Route, error) {
	geometry, err := encodeGeometry(input.Geometry)
	if err != nil {
		return Route{}, fmt.Errorf("encode geometry: %w", err)
	}
	input.ID = uuid.NewString()
	row := s.db.QueryRow(ctx, `
		INSERT INTO routes (id, name, geometry, distance_km, invalid_points)
		VALUES ($1,$2,$3,$4,$5)
		RETURNING created_at
	`, input.ID, input.Name, geometry, input.DistanceKm, input.InvalidPoints)
	if err := row.Scan(&input.CreatedAt); err != nil {
		return Route{}, err
	}
	return input, nil
}

func (s *Service) Get(ctx context.Context, id string) (Route, error) {
	row := s.db.QueryRow(ctx, `SELECT `+routeColumns+` FROM routes WHERE id=$1`, id)
	route, err := scanRoute(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Route{}, ErrNotFound
	}
	return route, err
}

func (s *Service) ListRoutes(ctx context.Context) ([]Route, error) {
	rows, err := s.db.Query(ctx, `SELECT `+routeColumns+` FROM routes ORDER BY created_at`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []Route
	for rows.Next() {
		route, err := scanRoute(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, route)
	}
	return list, rows.Err()
}

// UpdateElevation stores a series and its stats. It returns nil and no error
// when no row matched id.
func (s *Service) UpdateElevation(ctx context.Context, id string, series []float64, stats profile.Stats) (*Route, error) {
	raw, err := encodeSeries(series)
	if err != nil {
		return nil, fmt.Errorf("encode elevation series: %w", err)
	}
	row := s.db.QueryRow(ctx, `
		UPDATE routes
		SET elevation_series=$2, total_elevation_gain_m=$3, total_elevation_loss_m=$4,
			min_elevation_m=$5, max_elevation_m=$6, updated_at=now()
		WHERE id=$1
		RETURNING `+routeColumns,
		id, raw, stats.TotalElevationGainM, stats.TotalElevationLossM, stats.MinElevationM, stats.MaxElevationM)
	route, err := scanRoute(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &route, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRoute(row scanner) (Route, error) {
	var (
		route            Route
		geometry, series []byte
		stats            profile.Stats
	)
	if err := row.Scan(&route.ID, &route.Name, &geometry, &route.DistanceKm, &route.InvalidPoints, &series,
		&stats.TotalElevationGainM, &stats.TotalElevationLossM, &stats.MinElevationM, &stats.MaxElevationM,
		&route.CreatedAt); err != nil {
		return Route{}, err
	}
	return finishRoute(route, geometry, series, stats)
}

func finishRoute(route Route, geometry, series []byte, stats profile.Stats) (Route, error) {
	var err error
	if route.Geometry, err = decodeGeometry(geometry); err != nil {
		return Route{}, fmt.Errorf("decode geometry for route %s: %w", route.ID, err)
	}
	if route.ElevationSeries, err = decodeSeries(series); err != nil {
		return Route{}, fmt.Errorf("decode elevation series for route %s: %w", route.ID, err)
	}
	if route.ElevationSeries != nil {
		route.Stats = &stats
	}
	return route, nil
}
