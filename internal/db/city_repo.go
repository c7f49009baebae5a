package db

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/KaanIpek/weather-api/internal/types"
)

// CityRepository provides data access for the cities table. It is the city
// registry: the sole owner of name-to-id mapping and name uniqueness.
type CityRepository struct {
	db DBTX
}

// NewCityRepository creates a new CityRepository backed by the given database
// connection (pool or transaction).
func NewCityRepository(db DBTX) *CityRepository {
	return &CityRepository{db: db}
}

// List returns all cities ordered by id, so callers that seed defaults see a
// stable ordering.
func (r *CityRepository) List(ctx context.Context) ([]types.City, error) {
	rows, err := r.db.Query(ctx,
		`SELECT c.id, c.name FROM cities c ORDER BY c.id`,
	)
	if err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to list cities", err)
	}
	defer rows.Close()

	cities := []types.City{}
	for rows.Next() {
		var c types.City
		if err := rows.Scan(&c.ID, &c.Name); err != nil {
			return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to scan city row", err)
		}
		cities = append(cities, c)
	}
	if err := rows.Err(); err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to read city rows", err)
	}
	return cities, nil
}

// GetOrCreate returns the city with the given name, creating it if absent.
// The second return value reports whether this call created the row.
//
// Concurrency: the UNIQUE constraint on cities.name is the arbiter. The
// insert uses ON CONFLICT DO NOTHING; when another writer won the race (or
// the row already existed), the insert returns no row and the city is
// re-read by name. Two simultaneous calls for an unseen name therefore
// resolve to the same single row, and the conflict is never surfaced.
func (r *CityRepository) GetOrCreate(ctx context.Context, name string) (types.City, bool, error) {
	city := types.City{Name: name}

	err := r.db.QueryRow(ctx,
		`INSERT INTO cities (name) VALUES ($1)
		 ON CONFLICT (name) DO NOTHING
		 RETURNING id`,
		name,
	).Scan(&city.ID)
	if err == nil {
		return city, true, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return types.City{}, false, types.NewAppError(types.ErrCodeInternalDB, "failed to create city", err)
	}

	// Conflict path: the row exists, re-read it.
	err = r.db.QueryRow(ctx,
		`SELECT c.id, c.name FROM cities c WHERE c.name = $1`,
		name,
	).Scan(&city.ID, &city.Name)
	if err != nil {
		// A vanished row here would mean a delete raced the insert, which
		// does not happen in normal operation.
		if errors.Is(err, pgx.ErrNoRows) {
			return types.City{}, false, types.NewAppError(types.ErrCodeNotFoundCity, "city disappeared during get-or-create", err)
		}
		return types.City{}, false, types.NewAppError(types.ErrCodeInternalDB, "failed to re-read city after conflict", err)
	}
	return city, false, nil
}
