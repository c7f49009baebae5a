package db

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/KaanIpek/weather-api/internal/types"
)

// obsColumns defines the standard set of columns selected for observation
// queries. Used consistently across all query methods to avoid column drift.
const obsColumns = `o.id, o.city_id, o.date, o.temperature_c, o.temperature_f`

// ObservationRepository provides data access for the observations table: the
// per-city time series of daily temperature samples.
//
// The upsert flag selects the ingestion deduplication policy. With upsert
// enabled, Insert refreshes the stored temperatures when a row for the same
// (city_id, date) already exists; with it disabled, every Insert appends a
// new row, reproducing the legacy accumulate-duplicates behavior.
type ObservationRepository struct {
	db     DBTX
	upsert bool
}

// NewObservationRepository creates a new ObservationRepository backed by the
// given database connection (pool or transaction).
func NewObservationRepository(db DBTX, upsert bool) *ObservationRepository {
	return &ObservationRepository{db: db, upsert: upsert}
}

// scanObservation scans a single observation row. The columns must match the
// order defined in obsColumns. The DATE column arrives as a time.Time at
// midnight; only its calendar date is kept.
func scanObservation(row pgx.Row) (types.Observation, error) {
	var obs types.Observation
	var date time.Time

	err := row.Scan(
		&obs.ID,
		&obs.CityID,
		&date,
		&obs.TemperatureC,
		&obs.TemperatureF,
	)
	if err != nil {
		return types.Observation{}, err
	}
	obs.Date = types.CivilDateOf(date)
	return obs, nil
}

// Insert writes an observation and assigns its id. Temperatures must already
// carry the write-time invariant (F = C*9/5 + 32); the repository stores
// whatever the ingestion layer computed and never derives values itself.
func (r *ObservationRepository) Insert(ctx context.Context, obs *types.Observation) error {
	var err error
	if r.upsert {
		err = r.db.QueryRow(ctx,
			`INSERT INTO observations (city_id, date, temperature_c, temperature_f)
			 VALUES ($1, $2, $3, $4)
			 ON CONFLICT (city_id, date) DO UPDATE
			   SET temperature_c = EXCLUDED.temperature_c,
			       temperature_f = EXCLUDED.temperature_f
			 RETURNING id`,
			obs.CityID, obs.Date.Time(), obs.TemperatureC, obs.TemperatureF,
		).Scan(&obs.ID)
	} else {
		err = r.db.QueryRow(ctx,
			`INSERT INTO observations (city_id, date, temperature_c, temperature_f)
			 VALUES ($1, $2, $3, $4)
			 RETURNING id`,
			obs.CityID, obs.Date.Time(), obs.TemperatureC, obs.TemperatureF,
		).Scan(&obs.ID)
	}
	if err != nil {
		return types.NewAppError(types.ErrCodeInternalDB, "failed to insert observation", err)
	}
	return nil
}

// QueryRange returns the observations for a city within [start, end],
// inclusive of both bounds, ordered by date ascending. An unknown city or an
// empty window yields an empty slice, not an error; the not-found decision
// belongs to the query service.
func (r *ObservationRepository) QueryRange(ctx context.Context, cityID int64, start, end types.CivilDate) ([]types.Observation, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+obsColumns+`
		 FROM observations o
		 WHERE o.city_id = $1
		   AND o.date >= $2
		   AND o.date <= $3
		 ORDER BY o.date ASC, o.id ASC`,
		cityID, start.Time(), end.Time(),
	)
	if err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to query observations", err)
	}
	defer rows.Close()

	observations := []types.Observation{}
	for rows.Next() {
		obs, err := scanObservation(rows)
		if err != nil {
			return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to scan observation row", err)
		}
		observations = append(observations, obs)
	}
	if err := rows.Err(); err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to read observation rows", err)
	}
	return observations, nil
}
