package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/clinicops/clinic-flow/backend/internal/domain/entities"
)

// StationService defines the interface for station registry reads
type StationService interface {
	GetStation(ctx context.Context, id string) (*entities.Station, error)
	ListActiveStations(ctx context.Context, stationType entities.StationType) ([]*entities.Station, error)
	OptimalStation(ctx context.Context, stationType entities.StationType, date time.Time) (*entities.Station, error)
}

// StationHandler handles station registry HTTP requests
type StationHandler struct {
	service StationService
}

// NewStationHandler creates a new station handler
func NewStationHandler(service StationService) *StationHandler {
	return &StationHandler{
		service: service,
	}
}

// ListStations handles GET /api/stations
func (h *StationHandler) ListStations(w http.ResponseWriter, r *http.Request) {
	stationType := entities.StationType(r.URL.Query().Get("type"))

	stations, err := h.service.ListActiveStations(r.Context(), stationType)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"stations": stations,
		"count":    len(stations),
	})
}

// GetStation handles GET /api/stations/{id}
func (h *StationHandler) GetStation(w http.ResponseWriter, r *http.Request) {
	stationID := r.PathValue("id")
	if stationID == "" {
		respondWithError(w, http.StatusBadRequest, "station ID is required")
		return
	}

	station, err := h.service.GetStation(r.Context(), stationID)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, station)
}

// OptimalStation handles GET /api/stations/optimal?type=. It returns the
// least-loaded active station of the type for today; the choice is
// advisory.
func (h *StationHandler) OptimalStation(w http.ResponseWriter, r *http.Request) {
	stationType := entities.StationType(r.URL.Query().Get("type"))
	if stationType == "" {
		respondWithError(w, http.StatusBadRequest, "type query parameter is required")
		return
	}

	station, err := h.service.OptimalStation(r.Context(), stationType, time.Now())
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, station)
}
