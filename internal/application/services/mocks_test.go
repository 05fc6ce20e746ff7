package services_test

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/clinicops/clinic-flow/backend/internal/domain/entities"
)

// stubTxManager runs the function directly; transactional behavior is the
// database adapter's concern and is covered by the adapter tests.
type stubTxManager struct{}

func (stubTxManager) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type mockAppointmentRepo struct {
	mock.Mock
}

func (m *mockAppointmentRepo) GetByID(ctx context.Context, id string) (*entities.Appointment, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Appointment), args.Error(1)
}

func (m *mockAppointmentRepo) GetByVerificationCode(ctx context.Context, code string) (*entities.Appointment, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Appointment), args.Error(1)
}

func (m *mockAppointmentRepo) TransitionStatus(ctx context.Context, id string, from, to entities.AppointmentStatus) error {
	args := m.Called(ctx, id, from, to)
	return args.Error(0)
}

type mockVisitRepo struct {
	mock.Mock
}

func (m *mockVisitRepo) Create(ctx context.Context, visit *entities.Visit) error {
	args := m.Called(ctx, visit)
	return args.Error(0)
}

func (m *mockVisitRepo) GetByID(ctx context.Context, id string) (*entities.Visit, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Visit), args.Error(1)
}

func (m *mockVisitRepo) GetByAppointment(ctx context.Context, appointmentID string) (*entities.Visit, error) {
	args := m.Called(ctx, appointmentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Visit), args.Error(1)
}

func (m *mockVisitRepo) Close(ctx context.Context, id string, timeOut time.Time) error {
	args := m.Called(ctx, id, timeOut)
	return args.Error(0)
}

type mockQueueRepo struct {
	mock.Mock
}

func (m *mockQueueRepo) NextQueueNumber(ctx context.Context, stationID string, date time.Time) (int, error) {
	args := m.Called(ctx, stationID, date)
	return args.Int(0), args.Error(1)
}

func (m *mockQueueRepo) Create(ctx context.Context, entry *entities.QueueEntry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *mockQueueRepo) GetByID(ctx context.Context, id string) (*entities.QueueEntry, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.QueueEntry), args.Error(1)
}

func (m *mockQueueRepo) CallNext(ctx context.Context, stationID string, date time.Time) (*entities.QueueEntry, error) {
	args := m.Called(ctx, stationID, date)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.QueueEntry), args.Error(1)
}

func (m *mockQueueRepo) ApplyTransition(ctx context.Context, id string, action entities.QueueAction, at time.Time) (*entities.QueueEntry, error) {
	args := m.Called(ctx, id, action, at)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.QueueEntry), args.Error(1)
}

func (m *mockQueueRepo) CountLiveForVisit(ctx context.Context, visitID, stationID string) (int, error) {
	args := m.Called(ctx, visitID, stationID)
	return args.Int(0), args.Error(1)
}

func (m *mockQueueRepo) ListForStation(ctx context.Context, stationID string, date time.Time, liveOnly bool) ([]*entities.QueueEntry, error) {
	args := m.Called(ctx, stationID, date, liveOnly)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.QueueEntry), args.Error(1)
}

func (m *mockQueueRepo) AggregateStats(ctx context.Context, stationID string, date time.Time) (*entities.StationStats, error) {
	args := m.Called(ctx, stationID, date)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.StationStats), args.Error(1)
}

type mockStationRepo struct {
	mock.Mock
}

func (m *mockStationRepo) GetByID(ctx context.Context, id string) (*entities.Station, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Station), args.Error(1)
}

func (m *mockStationRepo) ListActive(ctx context.Context, stationType entities.StationType) ([]*entities.Station, error) {
	args := m.Called(ctx, stationType)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.Station), args.Error(1)
}

func (m *mockStationRepo) GetOperatorAssignment(ctx context.Context, stationID string, date time.Time) (*entities.OperatorAssignment, error) {
	args := m.Called(ctx, stationID, date)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.OperatorAssignment), args.Error(1)
}

func (m *mockStationRepo) LoadByType(ctx context.Context, stationType entities.StationType, date time.Time) ([]entities.StationLoad, error) {
	args := m.Called(ctx, stationType, date)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entities.StationLoad), args.Error(1)
}

type mockAuditRepo struct {
	mock.Mock
}

func (m *mockAuditRepo) Append(ctx context.Context, record *entities.AuditRecord) error {
	args := m.Called(ctx, record)
	return args.Error(0)
}

func (m *mockAuditRepo) ListForEntry(ctx context.Context, queueEntryID string) ([]*entities.AuditRecord, error) {
	args := m.Called(ctx, queueEntryID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.AuditRecord), args.Error(1)
}

type mockCache struct {
	mock.Mock
}

func (m *mockCache) Get(ctx context.Context, key string) ([]byte, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

func (m *mockCache) Set(ctx context.Context, key string, value []byte, expirationSeconds int) error {
	args := m.Called(ctx, key, value, expirationSeconds)
	return args.Error(0)
}

func (m *mockCache) Delete(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

func (m *mockCache) Exists(ctx context.Context, key string) (bool, error) {
	args := m.Called(ctx, key)
	return args.Bool(0), args.Error(1)
}
