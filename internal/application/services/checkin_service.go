package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/clinicops/clinic-flow/backend/internal/domain/entities"
	"github.com/clinicops/clinic-flow/backend/internal/domain/providers"
	"github.com/clinicops/clinic-flow/backend/internal/domain/repositories"
	apperrors "github.com/clinicops/clinic-flow/backend/pkg/errors"
	"github.com/clinicops/clinic-flow/backend/pkg/retry"
)

// CheckInRequest carries the inputs of a check-in. An empty StationID
// asks the load balancer to pick the least-loaded entry station.
type CheckInRequest struct {
	AppointmentID string
	Priority      entities.PriorityLevel
	StationID     string
	SpecialTags   []entities.SpecialTag
	Notes         string
}

// CheckInResult is what the front desk needs to print the ticket
type CheckInResult struct {
	Visit       *entities.Visit      `json:"visit"`
	Entry       *entities.QueueEntry `json:"queue_entry"`
	DisplayCode string               `json:"display_code"`
}

// RouteRequest carries the inputs for enqueuing the next leg of a visit's
// station journey. Priority and tags are inherited from the completed leg.
type RouteRequest struct {
	VisitID       string
	AppointmentID string
	PatientID     string
	ServiceID     string
	StationID     string
	Priority      entities.PriorityLevel
	SpecialTags   []entities.SpecialTag
}

// CheckInService turns a confirmed appointment into a visit with a live
// queue entry, atomically. Every step runs inside one transaction; a
// queue-number allocation conflict retries the whole transaction a
// bounded number of times.
type CheckInService struct {
	appointmentRepo repositories.AppointmentRepository
	visitRepo       repositories.VisitRepository
	queueRepo       repositories.QueueRepository
	stationService  *StationService
	txManager       providers.TxManager
	eventBus        providers.EventBus
	entryType       entities.StationType
	grace           time.Duration
}

// NewCheckInService creates a new check-in service. graceMinutes is the
// on-time window on either side of the scheduled appointment time.
func NewCheckInService(
	appointmentRepo repositories.AppointmentRepository,
	visitRepo repositories.VisitRepository,
	queueRepo repositories.QueueRepository,
	stationService *StationService,
	txManager providers.TxManager,
	eventBus providers.EventBus,
	graceMinutes int,
) *CheckInService {
	return &CheckInService{
		appointmentRepo: appointmentRepo,
		visitRepo:       visitRepo,
		queueRepo:       queueRepo,
		stationService:  stationService,
		txManager:       txManager,
		eventBus:        eventBus,
		entryType:       entities.StationTypeTriage,
		grace:           time.Duration(graceMinutes) * time.Minute,
	}
}

// ResolveVerificationCode maps a manual-entry verification code to its
// appointment ID. Token authenticity is validated upstream; this only
// performs the lookup.
func (s *CheckInService) ResolveVerificationCode(ctx context.Context, code string) (string, error) {
	if code == "" {
		return "", apperrors.NewValidationError("verification code is required")
	}
	appointment, err := s.appointmentRepo.GetByVerificationCode(ctx, code)
	if err != nil {
		return "", err
	}
	return appointment.ID, nil
}

// CheckIn performs the full check-in: appointment transition, visit
// creation, station resolution, queue-number allocation and queue entry
// insertion, all-or-nothing. An allocation conflict retries the whole
// transaction; any other failure rolls everything back and surfaces a
// typed error.
func (s *CheckInService) CheckIn(ctx context.Context, req CheckInRequest) (*CheckInResult, error) {
	if req.AppointmentID == "" {
		return nil, apperrors.NewValidationError("appointment_id is required")
	}
	priority := entities.NormalizePriority(string(req.Priority))

	var result *CheckInResult
	cfg := retry.AllocationConfig(apperrors.Retryable)
	err := retry.Do(ctx, cfg, func() error {
		return s.txManager.WithinTx(ctx, func(ctx context.Context) error {
			res, err := s.checkInTx(ctx, req, priority)
			if err != nil {
				return err
			}
			result = res
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	publishQueueEvent(ctx, s.eventBus, result.Entry, entities.QueueEventCreated)
	return result, nil
}

func (s *CheckInService) checkInTx(ctx context.Context, req CheckInRequest, priority entities.PriorityLevel) (*CheckInResult, error) {
	now := time.Now()

	appointment, err := s.appointmentRepo.GetByID(ctx, req.AppointmentID)
	if err != nil {
		return nil, err
	}
	switch appointment.Status {
	case entities.AppointmentStatusConfirmed:
		// proceed
	case entities.AppointmentStatusCheckedIn:
		return nil, apperrors.NewAlreadyCheckedInError(fmt.Sprintf("appointment %s is already checked in", appointment.ID))
	default:
		return nil, apperrors.NewInvalidStateError(fmt.Sprintf("appointment %s is %s, expected confirmed", appointment.ID, appointment.Status))
	}

	if err := s.appointmentRepo.TransitionStatus(ctx, appointment.ID,
		entities.AppointmentStatusConfirmed, entities.AppointmentStatusCheckedIn); err != nil {
		return nil, err
	}

	visit := &entities.Visit{
		ID:               uuid.New().String(),
		AppointmentID:    appointment.ID,
		PatientID:        appointment.PatientID,
		TimeIn:           now,
		AttendanceStatus: entities.DeriveAttendance(now, appointment.ScheduledAt, s.grace),
		Remarks:          req.Notes,
	}
	// The appointment_id unique constraint is the idempotency guard: a
	// concurrent check-in for the same appointment fails here.
	if err := s.visitRepo.Create(ctx, visit); err != nil {
		return nil, err
	}

	station, err := s.resolveStation(ctx, req.StationID, now)
	if err != nil {
		return nil, err
	}

	entry, err := s.createEntry(ctx, station, visit, appointment.ServiceID, priority, req.SpecialTags, req.Notes, now)
	if err != nil {
		return nil, err
	}

	return &CheckInResult{
		Visit:       visit,
		Entry:       entry,
		DisplayCode: entry.DisplayCode(),
	}, nil
}

// RouteToNextStation enqueues the next leg of an existing visit's station
// journey. It does not re-run check-in: the visit already exists and only
// a new queue entry is created. A visit may hold at most one live entry
// per station.
func (s *CheckInService) RouteToNextStation(ctx context.Context, req RouteRequest) (*entities.QueueEntry, error) {
	var entry *entities.QueueEntry
	cfg := retry.AllocationConfig(apperrors.Retryable)
	err := retry.Do(ctx, cfg, func() error {
		return s.txManager.WithinTx(ctx, func(ctx context.Context) error {
			created, err := s.routeTx(ctx, req)
			if err != nil {
				return err
			}
			entry = created
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	publishQueueEvent(ctx, s.eventBus, entry, entities.QueueEventCreated)
	return entry, nil
}

// routeTx does the routing work against the transaction already bound to
// ctx. Complete-with-next-station calls it directly so the new leg lands
// in the same transaction as the completion.
func (s *CheckInService) routeTx(ctx context.Context, req RouteRequest) (*entities.QueueEntry, error) {
	now := time.Now()

	station, err := s.stationService.GetStation(ctx, req.StationID)
	if err != nil {
		return nil, err
	}
	if !station.Active {
		return nil, apperrors.NewInvalidStateError(fmt.Sprintf("station %s is not active", station.ID))
	}

	live, err := s.queueRepo.CountLiveForVisit(ctx, req.VisitID, station.ID)
	if err != nil {
		return nil, err
	}
	if live > 0 {
		return nil, apperrors.NewConflictError(fmt.Sprintf("visit %s already has a live queue entry at station %s", req.VisitID, station.ID))
	}

	visit := &entities.Visit{
		ID:            req.VisitID,
		AppointmentID: req.AppointmentID,
		PatientID:     req.PatientID,
	}
	priority := entities.NormalizePriority(string(req.Priority))
	return s.createEntry(ctx, station, visit, req.ServiceID, priority, req.SpecialTags, "", now)
}

func (s *CheckInService) resolveStation(ctx context.Context, stationID string, date time.Time) (*entities.Station, error) {
	if stationID == "" {
		return s.stationService.OptimalStation(ctx, s.entryType, date)
	}
	station, err := s.stationService.GetStation(ctx, stationID)
	if err != nil {
		return nil, err
	}
	if !station.Active {
		return nil, apperrors.NewInvalidStateError(fmt.Sprintf("station %s is not active", station.ID))
	}
	return station, nil
}

func (s *CheckInService) createEntry(
	ctx context.Context,
	station *entities.Station,
	visit *entities.Visit,
	serviceID string,
	priority entities.PriorityLevel,
	tags []entities.SpecialTag,
	remarks string,
	now time.Time,
) (*entities.QueueEntry, error) {
	number, err := s.queueRepo.NextQueueNumber(ctx, station.ID, now)
	if err != nil {
		return nil, err
	}

	entry := &entities.QueueEntry{
		ID:            uuid.New().String(),
		StationID:     station.ID,
		PatientID:     visit.PatientID,
		VisitID:       visit.ID,
		AppointmentID: visit.AppointmentID,
		ServiceID:     serviceID,
		QueueType:     station.Type,
		Priority:      priority,
		SpecialTags:   tags,
		Status:        entities.QueueStatusWaiting,
		QueueDate:     now,
		QueueNumber:   number,
		QueueCode:     entities.FormatQueueCode(station.Prefix(), priority, number),
		TimeIn:        now,
		Remarks:       remarks,
	}
	if err := s.queueRepo.Create(ctx, entry); err != nil {
		return nil, err
	}
	return entry, nil
}
