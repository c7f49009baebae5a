// Package ingest pulls forecasts from the upstream provider and persists them
// as per-city daily temperature observations.
package ingest

import (
	"context"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/KaanIpek/weather-api/internal/provider"
	"github.com/KaanIpek/weather-api/internal/types"
)

// CityStore is the subset of the city repository the ingestion service needs.
type CityStore interface {
	GetOrCreate(ctx context.Context, name string) (types.City, bool, error)
}

// ObservationStore is the subset of the observation repository the ingestion
// service needs.
type ObservationStore interface {
	Insert(ctx context.Context, obs *types.Observation) error
}

// CityIngestStatus reports the outcome of ingesting a single city. A failed
// city carries its error; the zero StoredCount then reflects that nothing was
// persisted for it.
type CityIngestStatus struct {
	City        string
	CityID      int64
	StoredCount int
	Err         error
}

// Service orchestrates one ingestion run: resolve the city row, fetch the
// forecast, derive the Fahrenheit value, and store one observation per
// provider sample.
type Service struct {
	cities       CityStore
	observations ObservationStore
	fetcher      provider.ForecastFetcher
	logger       *slog.Logger
	concurrency  int
}

// NewService creates an ingestion service. Concurrency bounds the number of
// cities fetched in parallel during IngestAll; values below 1 are treated as 1.
func NewService(
	cities CityStore,
	observations ObservationStore,
	fetcher provider.ForecastFetcher,
	logger *slog.Logger,
	concurrency int,
) *Service {
	if concurrency < 1 {
		concurrency = 1
	}
	return &Service{
		cities:       cities,
		observations: observations,
		fetcher:      fetcher,
		logger:       logger,
		concurrency:  concurrency,
	}
}

// fahrenheit derives the imperial temperature stored alongside every metric
// sample. Conversion happens once, at write time; reads never re-derive.
func fahrenheit(celsius float64) float64 {
	return celsius*9.0/5.0 + 32.0
}

// IngestCity fetches the forecast for one city and stores every sample. The
// city row is created on first sight. Returns the city id and the number of
// observations written.
func (s *Service) IngestCity(ctx context.Context, cityName string) (int64, int, error) {
	city, _, err := s.cities.GetOrCreate(ctx, cityName)
	if err != nil {
		return 0, 0, err
	}

	records, err := s.fetcher.FetchForecast(ctx, cityName)
	if err != nil {
		return city.ID, 0, err
	}

	stored := 0
	for _, rec := range records {
		obs := &types.Observation{
			CityID:       city.ID,
			Date:         rec.Date,
			TemperatureC: rec.TemperatureC,
			TemperatureF: fahrenheit(rec.TemperatureC),
		}
		if err := s.observations.Insert(ctx, obs); err != nil {
			// A storage failure mid-run leaves earlier samples in place.
			return city.ID, stored, err
		}
		stored++
	}

	s.logger.InfoContext(ctx, "ingested city forecast",
		slog.String("city", cityName),
		slog.Int64("city_id", city.ID),
		slog.Int("stored_count", stored),
	)

	return city.ID, stored, nil
}

// IngestAll runs IngestCity for each name with bounded concurrency. Failures
// are isolated per city: one city's error never aborts the others, and the
// returned statuses preserve the input order.
func (s *Service) IngestAll(ctx context.Context, cityNames []string) []CityIngestStatus {
	statuses := make([]CityIngestStatus, len(cityNames))

	var mu sync.Mutex
	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)

	for i, name := range cityNames {
		i, name := i, name
		g.Go(func() error {
			cityID, stored, err := s.IngestCity(gCtx, name)
			if err != nil {
				s.logger.WarnContext(gCtx, "city ingestion failed",
					slog.String("city", name),
					slog.String("error", err.Error()),
				)
			}

			mu.Lock()
			statuses[i] = CityIngestStatus{
				City:        name,
				CityID:      cityID,
				StoredCount: stored,
				Err:         err,
			}
			mu.Unlock()

			// Do not propagate the error to the errgroup; the other cities
			// must still run.
			return nil
		})
	}

	// Wait never fails because the goroutines swallow their errors.
	_ = g.Wait()

	return statuses
}
