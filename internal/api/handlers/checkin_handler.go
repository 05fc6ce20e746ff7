package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/clinicops/clinic-flow/backend/internal/application/services"
	"github.com/clinicops/clinic-flow/backend/internal/domain/entities"
)

// CheckInService defines the interface for check-in operations
type CheckInService interface {
	CheckIn(ctx context.Context, req services.CheckInRequest) (*services.CheckInResult, error)
	ResolveVerificationCode(ctx context.Context, code string) (string, error)
}

// CheckInHandler handles patient check-in requests
type CheckInHandler struct {
	service CheckInService
}

// NewCheckInHandler creates a new check-in handler
func NewCheckInHandler(service CheckInService) *CheckInHandler {
	return &CheckInHandler{
		service: service,
	}
}

type checkInPayload struct {
	AppointmentID    string   `json:"appointment_id"`
	VerificationCode string   `json:"verification_code"`
	Priority         string   `json:"priority"`
	StationID        string   `json:"station_id"`
	SpecialTags      []string `json:"special_tags"`
	Notes            string   `json:"notes"`
}

// CheckIn handles POST /api/checkin. The caller supplies either an
// appointment ID (QR path, verified upstream) or a manual-entry
// verification code; the code is resolved to an appointment before the
// check-in runs.
func (h *CheckInHandler) CheckIn(w http.ResponseWriter, r *http.Request) {
	var payload checkInPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request payload")
		return
	}

	appointmentID := payload.AppointmentID
	if appointmentID == "" {
		if payload.VerificationCode == "" {
			respondWithError(w, http.StatusBadRequest, "appointment_id or verification_code is required")
			return
		}
		resolved, err := h.service.ResolveVerificationCode(r.Context(), payload.VerificationCode)
		if err != nil {
			respondWithServiceError(w, err)
			return
		}
		appointmentID = resolved
	}

	tags := make([]entities.SpecialTag, 0, len(payload.SpecialTags))
	for _, tag := range payload.SpecialTags {
		tags = append(tags, entities.SpecialTag(tag))
	}

	result, err := h.service.CheckIn(r.Context(), services.CheckInRequest{
		AppointmentID: appointmentID,
		Priority:      entities.PriorityLevel(payload.Priority),
		StationID:     payload.StationID,
		SpecialTags:   tags,
		Notes:         payload.Notes,
	})
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusCreated, result)
}
