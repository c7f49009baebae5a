package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/KaanIpek/weather-api/internal/config"
)

// NewPool builds a pgx connection pool from the database configuration and
// verifies connectivity with a ping. The pool's lifecycle is owned by the
// process entry point: created on startup, closed on shutdown. No package
// holds the pool as ambient state; it is passed explicitly to repositories.
func NewPool(ctx context.Context, cfg config.DatabaseConfig) (*pgxpool.Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.URL.Unmask())
	if err != nil {
		return nil, fmt.Errorf("parsing database URL: %w", err)
	}

	poolCfg.MaxConns = int32(cfg.MaxConns)
	poolCfg.MinConns = int32(cfg.MinConns)
	poolCfg.MaxConnLifetime = cfg.MaxConnLifetime
	poolCfg.HealthCheckPeriod = cfg.HealthCheckPeriod
	poolCfg.ConnConfig.ConnectTimeout = cfg.AcquireTimeout

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	return pool, nil
}

// schemaStatements create the two relations the service persists. They are
// idempotent so EnsureSchema can run on every startup.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS cities (
		id   BIGSERIAL PRIMARY KEY,
		name TEXT NOT NULL UNIQUE
	)`,
	`CREATE TABLE IF NOT EXISTS observations (
		id            BIGSERIAL PRIMARY KEY,
		city_id       BIGINT NOT NULL REFERENCES cities(id),
		date          DATE NOT NULL,
		temperature_c DOUBLE PRECISION NOT NULL,
		temperature_f DOUBLE PRECISION NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS observations_city_date_idx
		ON observations (city_id, date)`,
}

// upsertIndexStatement enforces the (city_id, date) logical key. It is only
// applied under the upsert ingestion policy; the legacy append policy relies
// on the key NOT being unique.
const upsertIndexStatement = `CREATE UNIQUE INDEX IF NOT EXISTS observations_city_date_key
	ON observations (city_id, date)`

// EnsureSchema creates the cities and observations relations if they do not
// exist. When upsert is true it also installs the unique (city_id, date)
// index that backs ON CONFLICT upserts.
func EnsureSchema(ctx context.Context, db DBTX, upsert bool) error {
	for _, stmt := range schemaStatements {
		if _, err := db.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("applying schema: %w", err)
		}
	}
	if upsert {
		if _, err := db.Exec(ctx, upsertIndexStatement); err != nil {
			return fmt.Errorf("applying upsert index: %w", err)
		}
	}
	return nil
}

// Pinger is the subset of *pgxpool.Pool the health probe needs.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthProbe reports database liveness for the /health endpoint.
type HealthProbe struct {
	pool Pinger
}

// NewHealthProbe creates a database health probe over the given pool.
func NewHealthProbe(pool Pinger) *HealthProbe {
	return &HealthProbe{pool: pool}
}

// Name identifies the probe in health responses.
func (p *HealthProbe) Name() string { return "database" }

// Check pings the database, respecting the context deadline.
func (p *HealthProbe) Check(ctx context.Context) error {
	return p.pool.Ping(ctx)
}
