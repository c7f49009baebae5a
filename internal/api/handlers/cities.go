// Package handlers contains the HTTP handler implementations for the weather
// API. Handlers depend on narrow, locally defined service interfaces so tests
// can inject fakes without touching the concrete repositories.
package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/KaanIpek/weather-api/internal/core"
	"github.com/KaanIpek/weather-api/internal/types"
)

// CityRegistry is the data access contract for city operations. It mirrors
// the concrete db.CityRepository methods used by this handler.
type CityRegistry interface {
	List(ctx context.Context) ([]types.City, error)
	GetOrCreate(ctx context.Context, name string) (types.City, bool, error)
}

// CreateCityRequest is the request body for POST /cities.
type CreateCityRequest struct {
	Name string `json:"name"`
}

// CityHandler serves the city registry endpoints.
type CityHandler struct {
	cities CityRegistry
	logger *slog.Logger
}

// NewCityHandler creates a CityHandler with the provided dependencies.
func NewCityHandler(cities CityRegistry, logger *slog.Logger) *CityHandler {
	return &CityHandler{cities: cities, logger: logger}
}

// RegisterRoutes mounts city routes on the provided chi.Router.
func (h *CityHandler) RegisterRoutes(r chi.Router) {
	r.Get("/cities", h.HandleList)
	r.Post("/cities", h.HandleCreate)
}

// HandleList returns every known city ordered by id. It is a pure read; the
// default city list is seeded once at startup, never from this endpoint.
func (h *CityHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	cities, err := h.cities.List(r.Context())
	if err != nil {
		core.Error(w, r, err)
		return
	}

	core.JSON(w, r, http.StatusOK, core.APIResponse{Data: cities})
}

// HandleCreate registers a city by name. A name that already exists returns
// the existing row with 200; a newly created row returns 201.
func (h *CityHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req CreateCityRequest
	if err := core.DecodeJSON(w, r, &req); err != nil {
		core.Error(w, r, err)
		return
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		core.Error(w, r, types.NewAppError(
			types.ErrCodeValidationMissingField,
			"name is required",
			nil,
		))
		return
	}

	city, created, err := h.cities.GetOrCreate(r.Context(), name)
	if err != nil {
		core.Error(w, r, err)
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	core.JSON(w, r, status, core.APIResponse{Data: city})
}
