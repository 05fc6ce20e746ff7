package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/clinicops/clinic-flow/backend/internal/domain/entities"
)

// QueueService defines the interface for queue state machine operations
type QueueService interface {
	CallNext(ctx context.Context, stationID, operatorID string) (*entities.QueueEntry, error)
	Start(ctx context.Context, entryID, operatorID string) (*entities.QueueEntry, error)
	Complete(ctx context.Context, entryID, operatorID, nextStationID string) (*entities.QueueEntry, *entities.QueueEntry, error)
	Skip(ctx context.Context, entryID, operatorID, reason string) (*entities.QueueEntry, error)
	Recall(ctx context.Context, entryID, operatorID string) (*entities.QueueEntry, error)
	NoShow(ctx context.Context, entryID, operatorID string) (*entities.QueueEntry, error)
	Cancel(ctx context.Context, entryID, operatorID, reason string) (*entities.QueueEntry, error)
	GetEntry(ctx context.Context, id string) (*entities.QueueEntry, error)
	ListForStation(ctx context.Context, stationID string, date time.Time, liveOnly bool) ([]*entities.QueueEntry, error)
	AuditTrail(ctx context.Context, entryID string) ([]*entities.AuditRecord, error)
}

// QueueHandler handles queue entry state transitions and reads
type QueueHandler struct {
	service QueueService
}

// NewQueueHandler creates a new queue handler
func NewQueueHandler(service QueueService) *QueueHandler {
	return &QueueHandler{
		service: service,
	}
}

type queueActionPayload struct {
	OperatorID    string `json:"operator_id"`
	Reason        string `json:"reason"`
	NextStationID string `json:"next_station_id"`
}

// decodeAction reads the optional action body; an empty body is valid for
// actions that need no reason.
func decodeAction(r *http.Request) queueActionPayload {
	var payload queueActionPayload
	if r.Body != nil {
		_ = json.NewDecoder(r.Body).Decode(&payload)
	}
	if payload.OperatorID == "" {
		payload.OperatorID = r.Header.Get("X-Operator-ID")
	}
	return payload
}

// CallNext handles POST /api/stations/{id}/queue/call-next
func (h *QueueHandler) CallNext(w http.ResponseWriter, r *http.Request) {
	stationID := r.PathValue("id")
	if stationID == "" {
		respondWithError(w, http.StatusBadRequest, "station ID is required")
		return
	}

	payload := decodeAction(r)
	entry, err := h.service.CallNext(r.Context(), stationID, payload.OperatorID)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, entry)
}

// Start handles POST /api/queue/{id}/start
func (h *QueueHandler) Start(w http.ResponseWriter, r *http.Request) {
	h.applySimple(w, r, h.service.Start)
}

// Complete handles POST /api/queue/{id}/complete. An optional
// next_station_id enqueues the visit's next leg in the same transaction.
func (h *QueueHandler) Complete(w http.ResponseWriter, r *http.Request) {
	entryID := r.PathValue("id")
	if entryID == "" {
		respondWithError(w, http.StatusBadRequest, "queue entry ID is required")
		return
	}

	payload := decodeAction(r)
	entry, nextEntry, err := h.service.Complete(r.Context(), entryID, payload.OperatorID, payload.NextStationID)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	response := map[string]interface{}{
		"queue_entry": entry,
	}
	if nextEntry != nil {
		response["next_entry"] = nextEntry
	}
	respondWithJSON(w, http.StatusOK, response)
}

// Skip handles POST /api/queue/{id}/skip; a reason is mandatory
func (h *QueueHandler) Skip(w http.ResponseWriter, r *http.Request) {
	h.applyWithReason(w, r, h.service.Skip)
}

// Recall handles POST /api/queue/{id}/recall
func (h *QueueHandler) Recall(w http.ResponseWriter, r *http.Request) {
	h.applySimple(w, r, h.service.Recall)
}

// NoShow handles POST /api/queue/{id}/no-show
func (h *QueueHandler) NoShow(w http.ResponseWriter, r *http.Request) {
	h.applySimple(w, r, h.service.NoShow)
}

// Cancel handles POST /api/queue/{id}/cancel; a reason is mandatory
func (h *QueueHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	h.applyWithReason(w, r, h.service.Cancel)
}

// GetEntry handles GET /api/queue/{id}
func (h *QueueHandler) GetEntry(w http.ResponseWriter, r *http.Request) {
	entryID := r.PathValue("id")
	if entryID == "" {
		respondWithError(w, http.StatusBadRequest, "queue entry ID is required")
		return
	}

	entry, err := h.service.GetEntry(r.Context(), entryID)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, entry)
}

// ListStationQueue handles GET /api/stations/{id}/queue. Live entries for
// the current day in call order by default; all=true includes terminal
// entries, date= selects another day.
func (h *QueueHandler) ListStationQueue(w http.ResponseWriter, r *http.Request) {
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
	liveOnly := r.URL.Query().Get("all") != "true"

	entries, err := h.service.ListForStation(r.Context(), stationID, date, liveOnly)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"entries": entries,
		"count":   len(entries),
	})
}

// AuditTrail handles GET /api/queue/{id}/audit
func (h *QueueHandler) AuditTrail(w http.ResponseWriter, r *http.Request) {
	entryID := r.PathValue("id")
	if entryID == "" {
		respondWithError(w, http.StatusBadRequest, "queue entry ID is required")
		return
	}

	records, err := h.service.AuditTrail(r.Context(), entryID)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"records": records,
		"count":   len(records),
	})
}

func (h *QueueHandler) applySimple(w http.ResponseWriter, r *http.Request, op func(context.Context, string, string) (*entities.QueueEntry, error)) {
	entryID := r.PathValue("id")
	if entryID == "" {
		respondWithError(w, http.StatusBadRequest, "queue entry ID is required")
		return
	}

	payload := decodeAction(r)
	entry, err := op(r.Context(), entryID, payload.OperatorID)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, entry)
}

func (h *QueueHandler) applyWithReason(w http.ResponseWriter, r *http.Request, op func(context.Context, string, string, string) (*entities.QueueEntry, error)) {
	entryID := r.PathValue("id")
	if entryID == "" {
		respondWithError(w, http.StatusBadRequest, "queue entry ID is required")
		return
	}

	payload := decodeAction(r)
	entry, err := op(r.Context(), entryID, payload.OperatorID, payload.Reason)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, entry)
}

// parseDateParam reads a YYYY-MM-DD query parameter, defaulting to today
func parseDateParam(r *http.Request, name string) (time.Time, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return time.Now(), nil
	}
	return time.Parse("2006-01-02", raw)
}
