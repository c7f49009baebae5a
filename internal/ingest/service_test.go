package ingest

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/KaanIpek/weather-api/internal/provider"
	"github.com/KaanIpek/weather-api/internal/types"
)

// --- Mocks ---

type mockCityStore struct {
	mock.Mock
}

func (m *mockCityStore) GetOrCreate(ctx context.Context, name string) (types.City, bool, error) {
	args := m.Called(ctx, name)
	return args.Get(0).(types.City), args.Bool(1), args.Error(2)
}

type mockObservationStore struct {
	mock.Mock

	mu       sync.Mutex
	inserted []types.Observation
}

func (m *mockObservationStore) Insert(ctx context.Context, obs *types.Observation) error {
	args := m.Called(ctx, obs)
	if args.Error(0) == nil {
		m.mu.Lock()
		m.inserted = append(m.inserted, *obs)
		m.mu.Unlock()
	}
	return args.Error(0)
}

type mockFetcher struct {
	mock.Mock
}

func (m *mockFetcher) FetchForecast(ctx context.Context, cityName string) ([]provider.ForecastRecord, error) {
	args := m.Called(ctx, cityName)
	if r := args.Get(0); r != nil {
		return r.([]provider.ForecastRecord), args.Error(1)
	}
	return nil, args.Error(1)
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func date(y int, m time.Month, d int) types.CivilDate {
	return types.CivilDate{Year: y, Month: m, Day: d}
}

// --- IngestCity ---

func TestIngestCity_StoresEverySample(t *testing.T) {
	cities := new(mockCityStore)
	observations := new(mockObservationStore)
	fetcher := new(mockFetcher)
	svc := NewService(cities, observations, fetcher, testLogger(), 2)

	ctx := context.Background()
	cities.On("GetOrCreate", ctx, "Paris").Return(types.City{ID: 7, Name: "Paris"}, false, nil)
	fetcher.On("FetchForecast", ctx, "Paris").Return([]provider.ForecastRecord{
		{Date: date(2024, time.June, 14), TemperatureC: 25.0},
		{Date: date(2024, time.June, 14), TemperatureC: 27.0},
		{Date: date(2024, time.June, 15), TemperatureC: 0.0},
	}, nil)
	observations.On("Insert", ctx, mock.AnythingOfType("*types.Observation")).Return(nil).Times(3)

	cityID, stored, err := svc.IngestCity(ctx, "Paris")
	require.NoError(t, err)
	assert.Equal(t, int64(7), cityID)
	assert.Equal(t, 3, stored)

	require.Len(t, observations.inserted, 3)
	for _, obs := range observations.inserted {
		assert.Equal(t, int64(7), obs.CityID)
	}
	assert.Equal(t, 77.0, observations.inserted[0].TemperatureF)
	assert.InDelta(t, 80.6, observations.inserted[1].TemperatureF, 1e-9)
	assert.Equal(t, 32.0, observations.inserted[2].TemperatureF)

	cities.AssertExpectations(t)
	fetcher.AssertExpectations(t)
	observations.AssertExpectations(t)
}

func TestIngestCity_CityStoreError(t *testing.T) {
	cities := new(mockCityStore)
	observations := new(mockObservationStore)
	fetcher := new(mockFetcher)
	svc := NewService(cities, observations, fetcher, testLogger(), 2)

	ctx := context.Background()
	dbErr := types.NewAppError(types.ErrCodeInternalDB, "insert failed", errors.New("boom"))
	cities.On("GetOrCreate", ctx, "Paris").Return(types.City{}, false, dbErr)

	_, stored, err := svc.IngestCity(ctx, "Paris")
	require.Error(t, err)
	assert.Equal(t, 0, stored)
	fetcher.AssertNotCalled(t, "FetchForecast", mock.Anything, mock.Anything)
}

func TestIngestCity_FetchErrorPassesThrough(t *testing.T) {
	cities := new(mockCityStore)
	observations := new(mockObservationStore)
	fetcher := new(mockFetcher)
	svc := NewService(cities, observations, fetcher, testLogger(), 2)

	ctx := context.Background()
	cities.On("GetOrCreate", ctx, "Atlantis").Return(types.City{ID: 3, Name: "Atlantis"}, false, nil)
	fetcher.On("FetchForecast", ctx, "Atlantis").Return(nil, types.NewProviderRejected(404, "city not found"))

	cityID, stored, err := svc.IngestCity(ctx, "Atlantis")
	require.Error(t, err)
	assert.Equal(t, int64(3), cityID)
	assert.Equal(t, 0, stored)

	var appErr *types.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, types.ErrCodeProviderRejected, appErr.Code)
	observations.AssertNotCalled(t, "Insert", mock.Anything, mock.Anything)
}

func TestIngestCity_InsertFailureKeepsEarlierSamples(t *testing.T) {
	cities := new(mockCityStore)
	observations := new(mockObservationStore)
	fetcher := new(mockFetcher)
	svc := NewService(cities, observations, fetcher, testLogger(), 2)

	ctx := context.Background()
	cities.On("GetOrCreate", ctx, "Paris").Return(types.City{ID: 7, Name: "Paris"}, false, nil)
	fetcher.On("FetchForecast", ctx, "Paris").Return([]provider.ForecastRecord{
		{Date: date(2024, time.June, 14), TemperatureC: 25.0},
		{Date: date(2024, time.June, 15), TemperatureC: 26.0},
	}, nil)

	dbErr := types.NewAppError(types.ErrCodeInternalDB, "insert failed", errors.New("boom"))
	observations.On("Insert", ctx, mock.AnythingOfType("*types.Observation")).Return(nil).Once()
	observations.On("Insert", ctx, mock.AnythingOfType("*types.Observation")).Return(dbErr).Once()

	_, stored, err := svc.IngestCity(ctx, "Paris")
	require.Error(t, err)
	assert.Equal(t, 1, stored)
}

// --- IngestAll ---

func TestIngestAll_IsolatesFailures(t *testing.T) {
	cities := new(mockCityStore)
	observations := new(mockObservationStore)
	fetcher := new(mockFetcher)
	svc := NewService(cities, observations, fetcher, testLogger(), 2)

	cities.On("GetOrCreate", mock.Anything, "Paris").Return(types.City{ID: 1, Name: "Paris"}, false, nil)
	cities.On("GetOrCreate", mock.Anything, "Atlantis").Return(types.City{ID: 2, Name: "Atlantis"}, false, nil)
	cities.On("GetOrCreate", mock.Anything, "New York").Return(types.City{ID: 3, Name: "New York"}, false, nil)

	fetcher.On("FetchForecast", mock.Anything, "Paris").Return([]provider.ForecastRecord{
		{Date: date(2024, time.June, 14), TemperatureC: 20.0},
	}, nil)
	fetcher.On("FetchForecast", mock.Anything, "Atlantis").
		Return(nil, types.NewProviderRejected(404, "city not found"))
	fetcher.On("FetchForecast", mock.Anything, "New York").Return([]provider.ForecastRecord{
		{Date: date(2024, time.June, 14), TemperatureC: 30.0},
		{Date: date(2024, time.June, 15), TemperatureC: 31.0},
	}, nil)

	observations.On("Insert", mock.Anything, mock.AnythingOfType("*types.Observation")).Return(nil)

	statuses := svc.IngestAll(context.Background(), []string{"Paris", "Atlantis", "New York"})
	require.Len(t, statuses, 3)

	// Statuses preserve the input order.
	assert.Equal(t, "Paris", statuses[0].City)
	assert.Equal(t, "Atlantis", statuses[1].City)
	assert.Equal(t, "New York", statuses[2].City)

	assert.NoError(t, statuses[0].Err)
	assert.Equal(t, 1, statuses[0].StoredCount)

	assert.Error(t, statuses[1].Err)
	assert.Equal(t, 0, statuses[1].StoredCount)

	assert.NoError(t, statuses[2].Err)
	assert.Equal(t, 2, statuses[2].StoredCount)
}

func TestIngestAll_EmptyInput(t *testing.T) {
	svc := NewService(new(mockCityStore), new(mockObservationStore), new(mockFetcher), testLogger(), 2)

	statuses := svc.IngestAll(context.Background(), nil)
	assert.Empty(t, statuses)
}

func TestNewService_ClampsConcurrency(t *testing.T) {
	svc := NewService(new(mockCityStore), new(mockObservationStore), new(mockFetcher), testLogger(), 0)
	assert.Equal(t, 1, svc.concurrency)
}
