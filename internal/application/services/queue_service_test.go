package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/clinicops/clinic-flow/backend/internal/application/services"
	"github.com/clinicops/clinic-flow/backend/internal/domain/entities"
	apperrors "github.com/clinicops/clinic-flow/backend/pkg/errors"
)

type queueFixture struct {
	queue    *mockQueueRepo
	visits   *mockVisitRepo
	audit    *mockAuditRepo
	stations *mockStationRepo
	service  *services.QueueService
}

func newQueueFixture() *queueFixture {
	f := &queueFixture{
		queue:    new(mockQueueRepo),
		visits:   new(mockVisitRepo),
		audit:    new(mockAuditRepo),
		stations: new(mockStationRepo),
	}
	stationService := services.NewStationService(f.stations, nil, 0)
	router := services.NewCheckInService(new(mockAppointmentRepo), f.visits, f.queue, stationService, stubTxManager{}, nil, 10)
	f.service = services.NewQueueService(f.queue, f.visits, f.audit, router, stubTxManager{}, nil)
	return f
}

func liveEntry(id string, status entities.QueueStatus) *entities.QueueEntry {
	return &entities.QueueEntry{
		ID:            id,
		StationID:     "station-1",
		PatientID:     "patient-1",
		VisitID:       "visit-1",
		AppointmentID: "appt-1",
		ServiceID:     "svc-1",
		Priority:      entities.PriorityNormal,
		Status:        status,
		QueueNumber:   4,
		QueueCode:     "T1-N4",
		TimeIn:        time.Now(),
	}
}

func TestCallNext(t *testing.T) {
	f := newQueueFixture()
	ctx := context.Background()

	called := liveEntry("entry-1", entities.QueueStatusCalled)
	f.queue.On("CallNext", ctx, "station-1", mock.Anything).Return(called, nil)

	entry, err := f.service.CallNext(ctx, "station-1", "operator-1")

	assert.NoError(t, err)
	assert.Equal(t, entities.QueueStatusCalled, entry.Status)
}

func TestCallNext_EmptyQueue(t *testing.T) {
	f := newQueueFixture()
	ctx := context.Background()

	f.queue.On("CallNext", ctx, "station-1", mock.Anything).
		Return(nil, apperrors.NewEmptyQueueError("no waiting entries"))

	_, err := f.service.CallNext(ctx, "station-1", "operator-1")

	assert.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeEmptyQueue))
}

func TestCallNext_RequiresStation(t *testing.T) {
	f := newQueueFixture()

	_, err := f.service.CallNext(context.Background(), "", "operator-1")

	assert.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeValidation))
}

func TestStart(t *testing.T) {
	f := newQueueFixture()
	ctx := context.Background()

	started := liveEntry("entry-1", entities.QueueStatusInProgress)
	f.queue.On("ApplyTransition", ctx, "entry-1", entities.ActionStart, mock.Anything).Return(started, nil)

	entry, err := f.service.Start(ctx, "entry-1", "operator-1")

	assert.NoError(t, err)
	assert.Equal(t, entities.QueueStatusInProgress, entry.Status)
	f.audit.AssertNotCalled(t, "Append", mock.Anything, mock.Anything)
}

func TestComplete_ClosesVisitWhenNoLiveEntriesRemain(t *testing.T) {
	f := newQueueFixture()
	ctx := context.Background()

	done := liveEntry("entry-1", entities.QueueStatusDone)
	f.queue.On("ApplyTransition", ctx, "entry-1", entities.ActionComplete, mock.Anything).Return(done, nil)
	f.queue.On("CountLiveForVisit", ctx, "visit-1", "").Return(0, nil)
	f.visits.On("Close", ctx, "visit-1", mock.Anything).Return(nil)

	entry, next, err := f.service.Complete(ctx, "entry-1", "operator-1", "")

	assert.NoError(t, err)
	assert.Equal(t, entities.QueueStatusDone, entry.Status)
	assert.Nil(t, next)
	f.visits.AssertExpectations(t)
}

func TestComplete_KeepsVisitOpenWhileOtherEntriesLive(t *testing.T) {
	f := newQueueFixture()
	ctx := context.Background()

	done := liveEntry("entry-1", entities.QueueStatusDone)
	f.queue.On("ApplyTransition", ctx, "entry-1", entities.ActionComplete, mock.Anything).Return(done, nil)
	f.queue.On("CountLiveForVisit", ctx, "visit-1", "").Return(1, nil)

	_, _, err := f.service.Complete(ctx, "entry-1", "operator-1", "")

	assert.NoError(t, err)
	f.visits.AssertNotCalled(t, "Close", mock.Anything, mock.Anything, mock.Anything)
}

func TestComplete_RoutesToNextStation(t *testing.T) {
	f := newQueueFixture()
	ctx := context.Background()

	done := liveEntry("entry-1", entities.QueueStatusDone)
	done.Priority = entities.PriorityUrgent
	done.SpecialTags = []entities.SpecialTag{entities.TagPregnant}
	f.queue.On("ApplyTransition", ctx, "entry-1", entities.ActionComplete, mock.Anything).Return(done, nil)
	f.stations.On("GetByID", ctx, "station-2").Return(&entities.Station{
		ID: "station-2", Type: entities.StationTypeLab, Ordinal: 1, Active: true,
	}, nil)
	f.queue.On("CountLiveForVisit", ctx, "visit-1", "station-2").Return(0, nil)
	f.queue.On("NextQueueNumber", ctx, "station-2", mock.Anything).Return(9, nil)
	f.queue.On("Create", ctx, mock.MatchedBy(func(e *entities.QueueEntry) bool {
		return e.VisitID == "visit-1" && e.StationID == "station-2" &&
			e.Priority == entities.PriorityUrgent &&
			len(e.SpecialTags) == 1 && e.SpecialTags[0] == entities.TagPregnant
	})).Return(nil)

	entry, next, err := f.service.Complete(ctx, "entry-1", "operator-1", "station-2")

	assert.NoError(t, err)
	assert.Equal(t, entities.QueueStatusDone, entry.Status)
	assert.NotNil(t, next)
	assert.Equal(t, "L1-P9", next.QueueCode)
	f.visits.AssertNotCalled(t, "Close", mock.Anything, mock.Anything, mock.Anything)
	f.queue.AssertExpectations(t)
}

func TestComplete_InvalidState(t *testing.T) {
	f := newQueueFixture()
	ctx := context.Background()

	f.queue.On("ApplyTransition", ctx, "entry-1", entities.ActionComplete, mock.Anything).
		Return(nil, apperrors.NewInvalidStateError("entry is waiting, expected in_progress"))

	_, _, err := f.service.Complete(ctx, "entry-1", "operator-1", "")

	assert.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeInvalidState))
}

func TestSkip_RequiresReason(t *testing.T) {
	f := newQueueFixture()

	_, err := f.service.Skip(context.Background(), "entry-1", "operator-1", "")

	assert.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeValidation))
	f.queue.AssertNotCalled(t, "ApplyTransition", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestSkip_AppendsAuditRecord(t *testing.T) {
	f := newQueueFixture()
	ctx := context.Background()

	skipped := liveEntry("entry-1", entities.QueueStatusSkipped)
	f.queue.On("ApplyTransition", ctx, "entry-1", entities.ActionSkip, mock.Anything).Return(skipped, nil)
	f.audit.On("Append", ctx, mock.MatchedBy(func(r *entities.AuditRecord) bool {
		return r.QueueEntryID == "entry-1" && r.OperatorID == "operator-1" &&
			r.Action == entities.ActionSkip && r.Reason == "stepped out"
	})).Return(nil)

	entry, err := f.service.Skip(ctx, "entry-1", "operator-1", "stepped out")

	assert.NoError(t, err)
	assert.Equal(t, entities.QueueStatusSkipped, entry.Status)
	f.audit.AssertExpectations(t)
}

func TestSkip_NeverClosesVisit(t *testing.T) {
	f := newQueueFixture()
	ctx := context.Background()

	skipped := liveEntry("entry-1", entities.QueueStatusSkipped)
	f.queue.On("ApplyTransition", ctx, "entry-1", entities.ActionSkip, mock.Anything).Return(skipped, nil)
	f.audit.On("Append", ctx, mock.Anything).Return(nil)

	_, err := f.service.Skip(ctx, "entry-1", "operator-1", "in the restroom")

	assert.NoError(t, err)
	f.queue.AssertNotCalled(t, "CountLiveForVisit", mock.Anything, mock.Anything, mock.Anything)
	f.visits.AssertNotCalled(t, "Close", mock.Anything, mock.Anything, mock.Anything)
}

func TestRecall(t *testing.T) {
	f := newQueueFixture()
	ctx := context.Background()

	recalled := liveEntry("entry-1", entities.QueueStatusWaiting)
	f.queue.On("ApplyTransition", ctx, "entry-1", entities.ActionRecall, mock.Anything).Return(recalled, nil)
	f.audit.On("Append", ctx, mock.MatchedBy(func(r *entities.AuditRecord) bool {
		return r.Action == entities.ActionRecall && r.Reason == ""
	})).Return(nil)

	entry, err := f.service.Recall(ctx, "entry-1", "operator-1")

	assert.NoError(t, err)
	assert.Equal(t, entities.QueueStatusWaiting, entry.Status)
	assert.Equal(t, "T1-N4", entry.QueueCode)
}

func TestCancel_RequiresReason(t *testing.T) {
	f := newQueueFixture()

	_, err := f.service.Cancel(context.Background(), "entry-1", "operator-1", "")

	assert.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeValidation))
}

func TestCancel_ClosesVisitWhenLastEntryCancelled(t *testing.T) {
	f := newQueueFixture()
	ctx := context.Background()

	cancelled := liveEntry("entry-1", entities.QueueStatusCancelled)
	f.queue.On("ApplyTransition", ctx, "entry-1", entities.ActionCancel, mock.Anything).Return(cancelled, nil)
	f.audit.On("Append", ctx, mock.Anything).Return(nil)
	f.queue.On("CountLiveForVisit", ctx, "visit-1", "").Return(0, nil)
	f.visits.On("Close", ctx, "visit-1", mock.Anything).Return(nil)

	entry, err := f.service.Cancel(ctx, "entry-1", "operator-1", "left before triage")

	assert.NoError(t, err)
	assert.Equal(t, entities.QueueStatusCancelled, entry.Status)
	f.visits.AssertExpectations(t)
}

func TestCancel_KeepsVisitOpenWhileOtherEntriesLive(t *testing.T) {
	f := newQueueFixture()
	ctx := context.Background()

	cancelled := liveEntry("entry-1", entities.QueueStatusCancelled)
	f.queue.On("ApplyTransition", ctx, "entry-1", entities.ActionCancel, mock.Anything).Return(cancelled, nil)
	f.audit.On("Append", ctx, mock.Anything).Return(nil)
	f.queue.On("CountLiveForVisit", ctx, "visit-1", "").Return(1, nil)

	_, err := f.service.Cancel(ctx, "entry-1", "operator-1", "duplicate entry")

	assert.NoError(t, err)
	f.visits.AssertNotCalled(t, "Close", mock.Anything, mock.Anything, mock.Anything)
}

func TestNoShow(t *testing.T) {
	f := newQueueFixture()
	ctx := context.Background()

	noShow := liveEntry("entry-1", entities.QueueStatusNoShow)
	f.queue.On("ApplyTransition", ctx, "entry-1", entities.ActionNoShow, mock.Anything).Return(noShow, nil)
	f.audit.On("Append", ctx, mock.Anything).Return(nil)
	f.queue.On("CountLiveForVisit", ctx, "visit-1", "").Return(0, nil)
	f.visits.On("Close", ctx, "visit-1", mock.Anything).Return(nil)

	entry, err := f.service.NoShow(ctx, "entry-1", "operator-1")

	assert.NoError(t, err)
	assert.Equal(t, entities.QueueStatusNoShow, entry.Status)
	f.audit.AssertExpectations(t)
	f.visits.AssertExpectations(t)
}

func TestAuditTrail(t *testing.T) {
	f := newQueueFixture()
	ctx := context.Background()

	records := []*entities.AuditRecord{
		{ID: "audit-1", QueueEntryID: "entry-1", Action: entities.ActionSkip},
		{ID: "audit-2", QueueEntryID: "entry-1", Action: entities.ActionRecall},
	}
	f.audit.On("ListForEntry", ctx, "entry-1").Return(records, nil)

	trail, err := f.service.AuditTrail(ctx, "entry-1")

	assert.NoError(t, err)
	assert.Len(t, trail, 2)
}
