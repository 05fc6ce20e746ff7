package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/clinicops/clinic-flow/backend/internal/api/handlers"
	"github.com/clinicops/clinic-flow/backend/internal/domain/entities"
	apperrors "github.com/clinicops/clinic-flow/backend/pkg/errors"
)

type MockQueueService struct {
	mock.Mock
}

func (m *MockQueueService) CallNext(ctx context.Context, stationID, operatorID string) (*entities.QueueEntry, error) {
	args := m.Called(ctx, stationID, operatorID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.QueueEntry), args.Error(1)
}

func (m *MockQueueService) Start(ctx context.Context, entryID, operatorID string) (*entities.QueueEntry, error) {
	args := m.Called(ctx, entryID, operatorID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.QueueEntry), args.Error(1)
}

func (m *MockQueueService) Complete(ctx context.Context, entryID, operatorID, nextStationID string) (*entities.QueueEntry, *entities.QueueEntry, error) {
	args := m.Called(ctx, entryID, operatorID, nextStationID)
	var entry, next *entities.QueueEntry
	if args.Get(0) != nil {
		entry = args.Get(0).(*entities.QueueEntry)
	}
	if args.Get(1) != nil {
		next = args.Get(1).(*entities.QueueEntry)
	}
	return entry, next, args.Error(2)
}

func (m *MockQueueService) Skip(ctx context.Context, entryID, operatorID, reason string) (*entities.QueueEntry, error) {
	args := m.Called(ctx, entryID, operatorID, reason)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.QueueEntry), args.Error(1)
}

func (m *MockQueueService) Recall(ctx context.Context, entryID, operatorID string) (*entities.QueueEntry, error) {
	args := m.Called(ctx, entryID, operatorID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.QueueEntry), args.Error(1)
}

func (m *MockQueueService) NoShow(ctx context.Context, entryID, operatorID string) (*entities.QueueEntry, error) {
	args := m.Called(ctx, entryID, operatorID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.QueueEntry), args.Error(1)
}

func (m *MockQueueService) Cancel(ctx context.Context, entryID, operatorID, reason string) (*entities.QueueEntry, error) {
	args := m.Called(ctx, entryID, operatorID, reason)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.QueueEntry), args.Error(1)
}

func (m *MockQueueService) GetEntry(ctx context.Context, id string) (*entities.QueueEntry, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.QueueEntry), args.Error(1)
}

func (m *MockQueueService) ListForStation(ctx context.Context, stationID string, date time.Time, liveOnly bool) ([]*entities.QueueEntry, error) {
	args := m.Called(ctx, stationID, date, liveOnly)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.QueueEntry), args.Error(1)
}

func (m *MockQueueService) AuditTrail(ctx context.Context, entryID string) ([]*entities.AuditRecord, error) {
	args := m.Called(ctx, entryID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.AuditRecord), args.Error(1)
}

func queueEntry(status entities.QueueStatus) *entities.QueueEntry {
	return &entities.QueueEntry{
		ID:          "entry-1",
		StationID:   "station-1",
		VisitID:     "visit-1",
		Status:      status,
		QueueNumber: 4,
		QueueCode:   "T1-N4",
		TimeIn:      time.Now(),
	}
}

func postAction(handlerFn http.HandlerFunc, path, id string, body map[string]interface{}) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		payload, _ := json.Marshal(body)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(http.MethodPost, path, reader)
	req.SetPathValue("id", id)
	rec := httptest.NewRecorder()
	handlerFn(rec, req)
	return rec
}

func TestQueueHandler_CallNext(t *testing.T) {
	mockService := new(MockQueueService)
	handler := handlers.NewQueueHandler(mockService)

	mockService.On("CallNext", mock.Anything, "station-1", "operator-1").
		Return(queueEntry(entities.QueueStatusCalled), nil)

	rec := postAction(handler.CallNext, "/api/stations/station-1/queue/call-next", "station-1",
		map[string]interface{}{"operator_id": "operator-1"})

	assert.Equal(t, http.StatusOK, rec.Code)

	var entry entities.QueueEntry
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &entry))
	assert.Equal(t, entities.QueueStatusCalled, entry.Status)
	mockService.AssertExpectations(t)
}

func TestQueueHandler_CallNext_EmptyQueue(t *testing.T) {
	mockService := new(MockQueueService)
	handler := handlers.NewQueueHandler(mockService)

	mockService.On("CallNext", mock.Anything, "station-1", "").
		Return(nil, apperrors.NewEmptyQueueError("no waiting entries at station station-1"))

	rec := postAction(handler.CallNext, "/api/stations/station-1/queue/call-next", "station-1", nil)

	assert.Equal(t, http.StatusNotFound, rec.Code)

	var body map[string]string
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "EMPTY_QUEUE", body["type"])
}

func TestQueueHandler_OperatorIDFromHeader(t *testing.T) {
	mockService := new(MockQueueService)
	handler := handlers.NewQueueHandler(mockService)

	mockService.On("Start", mock.Anything, "entry-1", "operator-7").
		Return(queueEntry(entities.QueueStatusInProgress), nil)

	req := httptest.NewRequest(http.MethodPost, "/api/queue/entry-1/start", bytes.NewReader(nil))
	req.SetPathValue("id", "entry-1")
	req.Header.Set("X-Operator-ID", "operator-7")
	rec := httptest.NewRecorder()
	handler.Start(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	mockService.AssertExpectations(t)
}

func TestQueueHandler_Complete_WithNextStation(t *testing.T) {
	mockService := new(MockQueueService)
	handler := handlers.NewQueueHandler(mockService)

	next := queueEntry(entities.QueueStatusWaiting)
	next.ID = "entry-2"
	next.StationID = "station-2"
	mockService.On("Complete", mock.Anything, "entry-1", "operator-1", "station-2").
		Return(queueEntry(entities.QueueStatusDone), next, nil)

	rec := postAction(handler.Complete, "/api/queue/entry-1/complete", "entry-1",
		map[string]interface{}{"operator_id": "operator-1", "next_station_id": "station-2"})

	assert.Equal(t, http.StatusOK, rec.Code)

	var response struct {
		Entry *entities.QueueEntry `json:"queue_entry"`
		Next  *entities.QueueEntry `json:"next_entry"`
	}
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
	assert.Equal(t, entities.QueueStatusDone, response.Entry.Status)
	assert.Equal(t, "station-2", response.Next.StationID)
}

func TestQueueHandler_Complete_WithoutNextStation(t *testing.T) {
	mockService := new(MockQueueService)
	handler := handlers.NewQueueHandler(mockService)

	mockService.On("Complete", mock.Anything, "entry-1", "", "").
		Return(queueEntry(entities.QueueStatusDone), nil, nil)

	rec := postAction(handler.Complete, "/api/queue/entry-1/complete", "entry-1", nil)

	assert.Equal(t, http.StatusOK, rec.Code)

	var response map[string]json.RawMessage
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
	assert.Contains(t, response, "queue_entry")
	assert.NotContains(t, response, "next_entry")
}

func TestQueueHandler_Skip_WithoutReason(t *testing.T) {
	mockService := new(MockQueueService)
	handler := handlers.NewQueueHandler(mockService)

	mockService.On("Skip", mock.Anything, "entry-1", "operator-1", "").
		Return(nil, apperrors.NewValidationError("a reason is required to skip a queue entry"))

	rec := postAction(handler.Skip, "/api/queue/entry-1/skip", "entry-1",
		map[string]interface{}{"operator_id": "operator-1"})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestQueueHandler_Skip_InvalidState(t *testing.T) {
	mockService := new(MockQueueService)
	handler := handlers.NewQueueHandler(mockService)

	mockService.On("Skip", mock.Anything, "entry-1", "operator-1", "stepped out").
		Return(nil, apperrors.NewInvalidStateError("cannot skip queue entry in status done"))

	rec := postAction(handler.Skip, "/api/queue/entry-1/skip", "entry-1",
		map[string]interface{}{"operator_id": "operator-1", "reason": "stepped out"})

	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestQueueHandler_GetEntry(t *testing.T) {
	mockService := new(MockQueueService)
	handler := handlers.NewQueueHandler(mockService)

	mockService.On("GetEntry", mock.Anything, "entry-1").
		Return(queueEntry(entities.QueueStatusWaiting), nil)

	req := httptest.NewRequest(http.MethodGet, "/api/queue/entry-1", nil)
	req.SetPathValue("id", "entry-1")
	rec := httptest.NewRecorder()
	handler.GetEntry(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestQueueHandler_ListStationQueue(t *testing.T) {
	mockService := new(MockQueueService)
	handler := handlers.NewQueueHandler(mockService)

	mockService.On("ListForStation", mock.Anything, "station-1", mock.Anything, true).
		Return([]*entities.QueueEntry{queueEntry(entities.QueueStatusWaiting)}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/stations/station-1/queue", nil)
	req.SetPathValue("id", "station-1")
	rec := httptest.NewRecorder()
	handler.ListStationQueue(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var response struct {
		Entries []*entities.QueueEntry `json:"entries"`
		Count   int                    `json:"count"`
	}
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
	assert.Equal(t, 1, response.Count)
}

func TestQueueHandler_ListStationQueue_BadDate(t *testing.T) {
	mockService := new(MockQueueService)
	handler := handlers.NewQueueHandler(mockService)

	req := httptest.NewRequest(http.MethodGet, "/api/stations/station-1/queue?date=14-03-2026", nil)
	req.SetPathValue("id", "station-1")
	rec := httptest.NewRecorder()
	handler.ListStationQueue(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	mockService.AssertNotCalled(t, "ListForStation", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestQueueHandler_AuditTrail(t *testing.T) {
	mockService := new(MockQueueService)
	handler := handlers.NewQueueHandler(mockService)

	mockService.On("AuditTrail", mock.Anything, "entry-1").
		Return([]*entities.AuditRecord{
			{ID: "audit-1", QueueEntryID: "entry-1", Action: entities.ActionSkip, Reason: "stepped out"},
		}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/queue/entry-1/audit", nil)
	req.SetPathValue("id", "entry-1")
	rec := httptest.NewRecorder()
	handler.AuditTrail(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}
