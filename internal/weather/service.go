// Package weather serves stored observations back to API callers, applying
// the requested date window and unit selection.
package weather

import (
	"context"
	"time"

	"github.com/KaanIpek/weather-api/internal/types"
)

// DefaultWindowDays is the half-width of the date window applied when the
// caller supplies no explicit bounds: seven days back, seven days forward.
const DefaultWindowDays = 7

// ObservationQuerier is the subset of the observation repository the query
// service needs.
type ObservationQuerier interface {
	QueryRange(ctx context.Context, cityID int64, start, end types.CivilDate) ([]types.Observation, error)
}

// Reading is one observation shaped for the API response. Temperature repeats
// the stored value matching the requested unit; both stored values ride along
// so callers never need a second request to compare.
type Reading struct {
	ID           int64           `json:"id"`
	CityID       int64           `json:"city_id"`
	Date         types.CivilDate `json:"date"`
	TemperatureC float64         `json:"temperature_c"`
	TemperatureF float64         `json:"temperature_f"`
	Temperature  float64         `json:"temperature"`
}

// Response is the payload for a weather query.
type Response struct {
	CityID   int64      `json:"city_id"`
	Unit     types.Unit `json:"unit"`
	Readings []Reading  `json:"readings"`
}

// Query carries the validated parameters of one weather lookup. Nil Start/End
// select the default window around the current UTC date.
type Query struct {
	CityID int64
	Unit   types.Unit
	Start  *types.CivilDate
	End    *types.CivilDate
}

// Service answers weather queries from stored observations. It never touches
// the provider and never derives temperatures; both values were fixed at
// write time.
type Service struct {
	observations ObservationQuerier
	nowFn        func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithNowFunc overrides the clock used to anchor the default date window.
// This is intended for tests.
func WithNowFunc(fn func() time.Time) Option {
	return func(s *Service) {
		s.nowFn = fn
	}
}

// NewService creates a weather query service.
func NewService(observations ObservationQuerier, opts ...Option) *Service {
	s := &Service{
		observations: observations,
		nowFn:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// GetWeather returns the observations for a city within the query window,
// date ascending. An empty result is a not-found error: the caller asked for
// data that was never ingested.
func (s *Service) GetWeather(ctx context.Context, q Query) (*Response, error) {
	start, end := s.resolveWindow(q.Start, q.End)

	observations, err := s.observations.QueryRange(ctx, q.CityID, start, end)
	if err != nil {
		return nil, err
	}
	if len(observations) == 0 {
		return nil, types.NewAppError(
			types.ErrCodeNotFoundWeatherData,
			"no weather data for the requested city and date range",
			nil,
		)
	}

	readings := make([]Reading, 0, len(observations))
	for _, obs := range observations {
		readings = append(readings, toReading(obs, q.Unit))
	}

	return &Response{
		CityID:   q.CityID,
		Unit:     q.Unit,
		Readings: readings,
	}, nil
}

// resolveWindow fills missing bounds from the default window anchored on the
// current UTC date. Each bound defaults independently.
func (s *Service) resolveWindow(start, end *types.CivilDate) (types.CivilDate, types.CivilDate) {
	today := types.CivilDateOf(s.nowFn().UTC())

	resolvedStart := today.AddDays(-DefaultWindowDays)
	if start != nil {
		resolvedStart = *start
	}
	resolvedEnd := today.AddDays(DefaultWindowDays)
	if end != nil {
		resolvedEnd = *end
	}
	return resolvedStart, resolvedEnd
}

func toReading(obs types.Observation, unit types.Unit) Reading {
	r := Reading{
		ID:           obs.ID,
		CityID:       obs.CityID,
		Date:         obs.Date,
		TemperatureC: obs.TemperatureC,
		TemperatureF: obs.TemperatureF,
		Temperature:  obs.TemperatureC,
	}
	if unit == types.UnitImperial {
		r.Temperature = obs.TemperatureF
	}
	return r
}
