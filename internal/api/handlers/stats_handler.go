package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/clinicops/clinic-flow/backend/internal/domain/entities"
)

// StatsService defines the interface for queue statistics reads
type StatsService interface {
	StationStats(ctx context.Context, stationID string, date time.Time) (*entities.StationStats, error)
	DailySummary(ctx context.Context, date time.Time) (*entities.DailySummary, error)
}

// StatsHandler handles statistics HTTP requests
type StatsHandler struct {
	service StatsService
}

// NewStatsHandler creates a new stats handler
func NewStatsHandler(service StatsService) *StatsHandler {
	return &StatsHandler{
		service: service,
	}
}

// GetStationStats handles GET /api/stations/{id}/stats?date=
func (h *StatsHandler) GetStationStats(w http.ResponseWriter, r *http.Request) {
	stationID := r.PathValue("id")
	if stationID == "" {
		respondWithError(w, http.StatusBadRequest, "station ID is required")
		return
	}

	date, err := parseDateParam(r, "date")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid date format (use YYYY-MM-DD)")
		return
	}

	stats, err := h.service.StationStats(r.Context(), stationID, date)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, stats)
}

// GetDailySummary handles GET /api/stats/summary?date=
func (h *StatsHandler) GetDailySummary(w http.ResponseWriter, r *http.Request) {
	date, err := parseDateParam(r, "date")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid date format (use YYYY-MM-DD)")
		return
	}

	summary, err := h.service.DailySummary(r.Context(), date)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, summary)
}
