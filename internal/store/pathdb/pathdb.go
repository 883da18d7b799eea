// Package pathdb is the path store: computed evacuation routes cached in
// PostgreSQL.
package pathdb

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"yeogiro/internal/config"
	"yeogiro/internal/store"
	"yeogiro/pkg/contracts/domain"
)

const schema = `CREATE TABLE IF NOT EXISTS evacuation_paths (
	id          TEXT PRIMARY KEY,
	origin_lat  DOUBLE PRECISION NOT NULL,
	origin_lng  DOUBLE PRECISION NOT NULL,
	dest_lat    DOUBLE PRECISION NOT NULL,
	dest_lng    DOUBLE PRECISION NOT NULL,
	waypoints   JSONB NOT NULL,
	distance_m  DOUBLE PRECISION NOT NULL,
	duration_s  DOUBLE PRECISION NOT NULL,
	source      TEXT NOT NULL DEFAULT '',
	created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
)`

const endpointIndex = `CREATE INDEX IF NOT EXISTS evacuation_paths_endpoints_idx
	ON evacuation_paths (origin_lat, origin_lng, dest_lat, dest_lng)`

const pathColumns = `id, origin_lat, origin_lng, dest_lat, dest_lng, waypoints, distance_m, duration_s, source, created_at`

// pool is the subset of *pgxpool.Pool used by the store.
type pool interface {
	Ping(ctx context.Context) error
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Close()
}

type dialFunc func(ctx context.Context, cfg *pgxpool.Config) (pool, error)

func dialPool(ctx context.Context, cfg *pgxpool.Config) (pool, error) {
	return pgxpool.NewWithConfig(ctx, cfg)
}

// Store is the PostgreSQL-backed path cache.
type Store struct {
	store.Lifecycle

	cfg    config.PathStoreConfig
	logger *slog.Logger
	dial   dialFunc
	pool   pool
	now    func() time.Time
}

// New creates an unopened path store.
func New(cfg config.PathStoreConfig, logger *slog.Logger) *Store {
	return &Store{
		cfg:    cfg,
		logger: logger.With(slog.String("component", "pathdb")),
		dial:   dialPool,
		now:    time.Now,
	}
}

// Kind implements store.Handle.
func (s *Store) Kind() store.Kind { return store.PathStore }

// DefaultTolerance is the endpoint tolerance used when a lookup carries none.
func (s *Store) DefaultTolerance() float64 { return s.cfg.FindToleranceMetres }

// Open creates the pool, pings the server and ensures the schema.
func (s *Store) Open(ctx context.Context) error {
	return s.Lifecycle.Open(func() error {
		poolConfig, err := pgxpool.ParseConfig(s.cfg.DSN)
		if err != nil {
			return fmt.Errorf("failed to parse connection string: %w", err)
		}
		if s.cfg.MaxConns > 0 {
			poolConfig.MaxConns = s.cfg.MaxConns
		}
		if s.cfg.MinConns > 0 {
			poolConfig.MinConns = s.cfg.MinConns
		}

		s.logger.InfoContext(ctx, "creating PostgreSQL connection pool",
			slog.String("host", poolConfig.ConnConfig.Host),
			slog.String("database", poolConfig.ConnConfig.Database),
			slog.Int("max_conns", int(poolConfig.MaxConns)),
			slog.Int("min_conns", int(poolConfig.MinConns)))

		p, err := s.dial(ctx, poolConfig)
		if err != nil {
			return fmt.Errorf("failed to create connection pool: %w", err)
		}
		if err := p.Ping(ctx); err != nil {
			p.Close()
			return fmt.Errorf("failed to ping PostgreSQL: %w", err)
		}
		for _, stmt := range []string{schema, endpointIndex} {
			if _, err := p.Exec(ctx, stmt); err != nil {
				p.Close()
				return fmt.Errorf("ensure path schema: %w", err)
			}
		}

		s.pool = p
		return nil
	})
}

// Close closes the pool. The field is left set: a closed pool rejects
// queries from handlers that passed Check before the close.
func (s *Store) Close(_ context.Context) error {
	return s.Lifecycle.Close(func() error {
		if s.pool == nil {
			return nil
		}
		s.pool.Close()
		s.logger.Info("PostgreSQL connection pool closed")
		return nil
	})
}

// SavePath inserts or replaces path. A missing id, creation time or distance
// is filled in; the stored path is returned.
func (s *Store) SavePath(ctx context.Context, path domain.Path) (domain.Path, error) {
	if err := s.Check(); err != nil {
		return domain.Path{}, err
	}
	if len(path.Waypoints) < 2 {
		return domain.Path{}, errors.New("a path needs at least two waypoints")
	}

	if path.ID == "" {
		path.ID = uuid.NewString()
	}
	if path.CreatedAt.IsZero() {
		path.CreatedAt = s.now()
	}
	// timestamptz keeps microseconds.
	path.CreatedAt = path.CreatedAt.UTC().Truncate(time.Microsecond)
	if path.DistanceMetres == 0 {
		path.DistanceMetres = polylineLength(path.Waypoints)
	}

	_, err := s.pool.Exec(ctx, `INSERT INTO evacuation_paths (`+pathColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (id) DO UPDATE SET
			origin_lat = EXCLUDED.origin_lat, origin_lng = EXCLUDED.origin_lng,
			dest_lat = EXCLUDED.dest_lat, dest_lng = EXCLUDED.dest_lng,
			waypoints = EXCLUDED.waypoints, distance_m = EXCLUDED.distance_m,
			duration_s = EXCLUDED.duration_s, source = EXCLUDED.source,
			created_at = EXCLUDED.created_at`,
		path.ID,
		path.Origin.Lat, path.Origin.Lng,
		path.Destination.Lat, path.Destination.Lng,
		path.Waypoints,
		path.DistanceMetres, path.DurationSeconds,
		path.Source, path.CreatedAt,
	)
	if err != nil {
		return domain.Path{}, fmt.Errorf("save path %s: %w", path.ID, err)
	}
	return path, nil
}

// Path returns the cached path with id.
func (s *Store) Path(ctx context.Context, id string) (domain.Path, error) {
	if err := s.Check(); err != nil {
		return domain.Path{}, err
	}

	row := s.pool.QueryRow(ctx, `SELECT `+pathColumns+` FROM evacuation_paths WHERE id = $1`, id)
	p, err := scanPath(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Path{}, fmt.Errorf("path %s: %w", id, store.ErrNotFound)
	}
	if err != nil {
		return domain.Path{}, fmt.Errorf("load path %s: %w", id, err)
	}
	return p, nil
}

// FindPath returns the cached path whose origin and destination both lie
// within toleranceMetres of the requested endpoints, preferring the one with
// the smallest combined endpoint offset. A non-positive tolerance falls back
// to the configured default.
func (s *Store) FindPath(ctx context.Context, origin, destination domain.Point, toleranceMetres float64) (domain.Path, error) {
	if err := s.Check(); err != nil {
		return domain.Path{}, err
	}
	if toleranceMetres <= 0 {
		toleranceMetres = s.cfg.FindToleranceMetres
	}

	ob := domain.BoundingBox(origin, toleranceMetres)
	db := domain.BoundingBox(destination, toleranceMetres)
	rows, err := s.pool.Query(ctx, `SELECT `+pathColumns+` FROM evacuation_paths
		WHERE origin_lat BETWEEN $1 AND $2 AND origin_lng BETWEEN $3 AND $4
		  AND dest_lat BETWEEN $5 AND $6 AND dest_lng BETWEEN $7 AND $8`,
		ob.MinLat, ob.MaxLat, ob.MinLng, ob.MaxLng,
		db.MinLat, db.MaxLat, db.MinLng, db.MaxLng,
	)
	if err != nil {
		return domain.Path{}, fmt.Errorf("query paths: %w", err)
	}
	candidates, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.Path, error) {
		return scanPath(row)
	})
	if err != nil {
		return domain.Path{}, fmt.Errorf("scan paths: %w", err)
	}

	best, ok := closestWithin(candidates, origin, destination, toleranceMetres)
	if !ok {
		return domain.Path{}, fmt.Errorf("no cached path within %.0fm: %w", toleranceMetres, store.ErrNotFound)
	}
	return best, nil
}

func scanPath(row pgx.Row) (domain.Path, error) {
	var p domain.Path
	err := row.Scan(
		&p.ID,
		&p.Origin.Lat, &p.Origin.Lng,
		&p.Destination.Lat, &p.Destination.Lng,
		&p.Waypoints,
		&p.DistanceMetres, &p.DurationSeconds,
		&p.Source, &p.CreatedAt,
	)
	p.CreatedAt = p.CreatedAt.UTC()
	return p, err
}

// closestWithin picks the candidate with the smallest summed endpoint offset
// among those whose endpoints are each within tolerance. Ties go to the
// newest path.
func closestWithin(candidates []domain.Path, origin, destination domain.Point, tolerance float64) (domain.Path, bool) {
	var (
		best      domain.Path
		bestScore = math.Inf(1)
		found     bool
	)
	for _, c := range candidates {
		do := domain.DistanceMetres(origin, c.Origin)
		dd := domain.DistanceMetres(destination, c.Destination)
		if do > tolerance || dd > tolerance {
			continue
		}
		score := do + dd
		if score < bestScore || (score == bestScore && c.CreatedAt.After(best.CreatedAt)) {
			best, bestScore, found = c, score, true
		}
	}
	return best, found
}

func polylineLength(points []domain.Point) float64 {
	total := 0.0
	for i := 1; i < len(points); i++ {
		total += domain.DistanceMetres(points[i-1], points[i])
	}
	return total
}
