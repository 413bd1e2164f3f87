package routes

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ramblingpm/raceplanner-sub001/internal/profile"
)

const SQLiteSchema = `
CREATE TABLE IF NOT EXISTS routes (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	geometry TEXT,
	distance_km REAL NOT NULL DEFAULT 0,
	invalid_points INTEGER NOT NULL DEFAULT 0,
	elevation_series TEXT,
	total_elevation_gain_m INTEGER,
	total_elevation_loss_m INTEGER,
	min_elevation_m INTEGER,
	max_elevation_m INTEGER,
	created_at TEXT NOT NULL,
	updated_at TEXT NOT NULL
)`

// timeLayout is fixed width so created_at sorts chronologically as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// SQLiteStore keeps routes in a local SQLite file for single-node setups and the backfill CLI.
type SQLiteStore struct {
	db  *sql.DB
	now func() time.Time
}

func NewSQLiteStore(db *sql.DB) *SQLiteStore {
	return &SQLiteStore{db: db, now: time.Now}
}

func (s *SQLiteStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, SQLiteSchema); err != nil {
		return fmt.Errorf("failed to create routes table: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Create(ctx context.Context, input Route) (Route, error) {
	geometry, err := encodeGeometry(input.Geometry)
	if err != nil {
		return Route{}, fmt.Errorf("encode geometry: %w", err)
	}
	input.ID = uuid.NewString()
	input.CreatedAt = s.now().UTC()
	stamp := input.CreatedAt.Format(timeLayout)

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO routes (id, name, geometry, distance_km, invalid_points, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, input.ID, input.Name, nullableText(geometry), input.DistanceKm, input.InvalidPoints, stamp, stamp)
	if err != nil {
		return Route{}, err
	}
	return input, nil
}

func (s *SQLiteStore) Get(ctx context.Context, id string) (Route, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+routeColumns+` FROM routes WHERE id = ?`, id)
	route, err := scanSQLiteRoute(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Route{}, ErrNotFound
	}
	return route, err
}

func (s *SQLiteStore) ListRoutes(ctx context.Context) ([]Route, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+routeColumns+` FROM routes ORDER BY created_at, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []Route
	for rows.Next() {
		route, err := scanSQLiteRoute(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, route)
	}
	return list, rows.Err()
}

func (s *SQLiteStore) UpdateElevation(ctx context.Context, id string, series []float64, stats profile.Stats) (*Route, error) {
	raw, err := encodeSeries(series)
	if err != nil {
		return nil, fmt.Errorf("encode elevation series: %w", err)
	}
	res, err := s.db.ExecContext(ctx, `
		UPDATE routes
		SET elevation_series = ?, total_elevation_gain_m = ?, total_elevation_loss_m = ?,
			min_elevation_m = ?, max_elevation_m = ?, updated_at = ?
		WHERE id = ?
	`, nullableText(raw), stats.TotalElevationGainM, stats.TotalElevationLossM, stats.MinElevationM, stats.MaxElevationM,
		s.now().UTC().Format(timeLayout), id)
	if err != nil {
		return nil, err
	}
	if n, err := res.RowsAffected(); err != nil {
		return nil, err
	} else if n == 0 {
		return nil, nil
	}

	route, err := s.Get(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &route, nil
}

func scanSQLiteRoute(row scanner) (Route, error) {
	var (
		route            Route
		geometry, series []byte
		stats            profile.Stats
		createdAt        string
	)
	if err := row.Scan(&route.ID, &route.Name, &geometry, &route.DistanceKm, &route.InvalidPoints, &series,
		&stats.TotalElevationGainM, &stats.TotalElevationLossM, &stats.MinElevationM, &stats.MaxElevationM,
		&createdAt); err != nil {
		return Route{}, err
	}
	ts, err := time.Parse(timeLayout, createdAt)
	if err != nil {
		return Route{}, fmt.Errorf("parse created_at for route %s: %w", route.ID, err)
	}
	route.CreatedAt = ts
	return finishRoute(route, geometry, series, stats)
}

func nullableText(raw []byte) any {
	if raw == nil {
		return nil
	}
	return string(raw)
}
