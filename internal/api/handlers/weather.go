package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/KaanIpek/weather-api/internal/core"
	"github.com/KaanIpek/weather-api/internal/types"
	"github.com/KaanIpek/weather-api/internal/weather"
)

// WeatherQuerier answers read queries over stored observations.
type WeatherQuerier interface {
	GetWeather(ctx context.Context, q weather.Query) (*weather.Response, error)
}

// Ingestor triggers a fetch-and-store run for one city.
type Ingestor interface {
	IngestCity(ctx context.Context, cityName string) (int64, int, error)
}

// FetchWeatherRequest is the request body for POST /weather/fetch.
type FetchWeatherRequest struct {
	CityName string `json:"city_name"`
}

// FetchWeatherResponse reports the outcome of an on-demand ingestion run.
type FetchWeatherResponse struct {
	City        types.City `json:"city"`
	StoredCount int        `json:"stored_count"`
}

// WeatherHandler serves the observation query and on-demand fetch endpoints.
type WeatherHandler struct {
	querier  WeatherQuerier
	ingestor Ingestor
	logger   *slog.Logger
}

// NewWeatherHandler creates a WeatherHandler with the provided dependencies.
func NewWeatherHandler(querier WeatherQuerier, ingestor Ingestor, logger *slog.Logger) *WeatherHandler {
	return &WeatherHandler{querier: querier, ingestor: ingestor, logger: logger}
}

// RegisterRoutes mounts weather routes on the provided chi.Router.
func (h *WeatherHandler) RegisterRoutes(r chi.Router) {
	r.Get("/weather", h.HandleGet)
	r.Post("/weather/fetch", h.HandleFetch)
}

// HandleGet serves GET /weather?city_id&start_date&end_date&unit. Omitted
// dates default to a window around today; unit defaults to metric.
func (h *WeatherHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	q, err := parseWeatherQuery(r)
	if err != nil {
		core.Error(w, r, err)
		return
	}

	resp, err := h.querier.GetWeather(r.Context(), q)
	if err != nil {
		core.Error(w, r, err)
		return
	}

	core.JSON(w, r, http.StatusOK, core.APIResponse{Data: resp})
}

// HandleFetch serves POST /weather/fetch. It pulls the forecast for the named
// city from the provider and stores every sample, creating the city row on
// first sight. A provider rejection surfaces with the provider's own status.
func (h *WeatherHandler) HandleFetch(w http.ResponseWriter, r *http.Request) {
	var req FetchWeatherRequest
	if err := core.DecodeJSON(w, r, &req); err != nil {
		core.Error(w, r, err)
		return
	}

	cityName := strings.TrimSpace(req.CityName)
	if cityName == "" {
		core.Error(w, r, types.NewAppError(
			types.ErrCodeValidationMissingField,
			"city_name is required",
			nil,
		))
		return
	}

	cityID, stored, err := h.ingestor.IngestCity(r.Context(), cityName)
	if err != nil {
		core.Error(w, r, err)
		return
	}

	core.JSON(w, r, http.StatusOK, core.APIResponse{Data: FetchWeatherResponse{
		City:        types.City{ID: cityID, Name: cityName},
		StoredCount: stored,
	}})
}

// parseWeatherQuery validates the GET /weather query parameters.
func parseWeatherQuery(r *http.Request) (weather.Query, error) {
	values := r.URL.Query()

	rawCityID := values.Get("city_id")
	if rawCityID == "" {
		return weather.Query{}, types.NewAppError(
			types.ErrCodeValidationMissingField,
			"city_id is required",
			nil,
		)
	}
	cityID, err := strconv.ParseInt(rawCityID, 10, 64)
	if err != nil || cityID <= 0 {
		return weather.Query{}, types.NewAppError(
			types.ErrCodeValidationInvalidParam,
			"city_id must be a positive integer",
			err,
		)
	}

	unit := types.Unit(values.Get("unit"))
	if unit == "" {
		unit = types.UnitMetric
	}
	if !unit.Valid() {
		return weather.Query{}, types.NewAppError(
			types.ErrCodeValidationInvalidUnit,
			"unit must be metric or imperial",
			nil,
		)
	}

	q := weather.Query{CityID: cityID, Unit: unit}

	if raw := values.Get("start_date"); raw != "" {
		d, err := types.ParseCivilDate(raw)
		if err != nil {
			return weather.Query{}, types.NewAppError(
				types.ErrCodeValidationInvalidDate,
				"start_date must be formatted YYYY-MM-DD",
				err,
			)
		}
		q.Start = &d
	}
	if raw := values.Get("end_date"); raw != "" {
		d, err := types.ParseCivilDate(raw)
		if err != nil {
			return weather.Query{}, types.NewAppError(
				types.ErrCodeValidationInvalidDate,
				"end_date must be formatted YYYY-MM-DD",
				err,
			)
		}
		q.End = &d
	}

	if q.Start != nil && q.End != nil && q.Start.After(*q.End) {
		return weather.Query{}, types.NewAppError(
			types.ErrCodeValidationInvalidParam,
			"start_date must not be after end_date",
			nil,
		)
	}

	return q, nil
}
