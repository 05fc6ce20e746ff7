package services

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/clinicops/clinic-flow/backend/internal/domain/entities"
	"github.com/clinicops/clinic-flow/backend/internal/domain/providers"
	"github.com/clinicops/clinic-flow/backend/internal/domain/repositories"
	apperrors "github.com/clinicops/clinic-flow/backend/pkg/errors"
	"github.com/clinicops/clinic-flow/backend/pkg/retry"
)

// QueueService drives the queue entry state machine. Every state change
// runs in one transaction, validates the current status server-side and
// publishes a board event after commit. Skips, recalls, cancels and
// no-shows additionally land in the append-only audit log.
type QueueService struct {
	queueRepo repositories.QueueRepository
	visitRepo repositories.VisitRepository
	auditRepo repositories.AuditRepository
	router    *CheckInService
	txManager providers.TxManager
	eventBus  providers.EventBus
}

// NewQueueService creates a new queue service
func NewQueueService(
	queueRepo repositories.QueueRepository,
	visitRepo repositories.VisitRepository,
	auditRepo repositories.AuditRepository,
	router *CheckInService,
	txManager providers.TxManager,
	eventBus providers.EventBus,
) *QueueService {
	return &QueueService{
		queueRepo: queueRepo,
		visitRepo: visitRepo,
		auditRepo: auditRepo,
		router:    router,
		txManager: txManager,
		eventBus:  eventBus,
	}
}

// CallNext calls the next entry for a station: highest priority first,
// then earliest arrival. Row locking in the repository guarantees two
// operators calling simultaneously never receive the same entry. Returns
// an empty queue error when nothing is waiting.
func (s *QueueService) CallNext(ctx context.Context, stationID, operatorID string) (*entities.QueueEntry, error) {
	if stationID == "" {
		return nil, apperrors.NewValidationError("station_id is required")
	}

	var entry *entities.QueueEntry
	err := s.txManager.WithinTx(ctx, func(ctx context.Context) error {
		called, err := s.queueRepo.CallNext(ctx, stationID, time.Now())
		if err != nil {
			return err
		}
		entry = called
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, entry, entities.QueueEventCalled)
	return entry, nil
}

// Start marks a called (or waiting walk-up) entry as in progress and
// stamps time_started.
func (s *QueueService) Start(ctx context.Context, entryID, operatorID string) (*entities.QueueEntry, error) {
	entry, err := s.transition(ctx, entryID, entities.ActionStart, nil)
	if err != nil {
		return nil, err
	}
	s.publish(ctx, entry, entities.QueueEventStarted)
	return entry, nil
}

// Complete marks an in-progress entry done and stamps time_completed.
// With nextStationID set, the next leg of the visit's journey is enqueued
// in the same transaction, inheriting priority and special tags. Without
// one, the visit is closed once it holds no other live entries.
func (s *QueueService) Complete(ctx context.Context, entryID, operatorID, nextStationID string) (*entities.QueueEntry, *entities.QueueEntry, error) {
	var entry, nextEntry *entities.QueueEntry

	cfg := retry.AllocationConfig(apperrors.Retryable)
	err := retry.Do(ctx, cfg, func() error {
		entry, nextEntry = nil, nil
		return s.txManager.WithinTx(ctx, func(ctx context.Context) error {
			completed, err := s.queueRepo.ApplyTransition(ctx, entryID, entities.ActionComplete, time.Now())
			if err != nil {
				return err
			}
			entry = completed

			if nextStationID != "" {
				routed, err := s.router.routeTx(ctx, RouteRequest{
					VisitID:       entry.VisitID,
					AppointmentID: entry.AppointmentID,
					PatientID:     entry.PatientID,
					ServiceID:     entry.ServiceID,
					StationID:     nextStationID,
					Priority:      entry.Priority,
					SpecialTags:   entry.SpecialTags,
				})
				if err != nil {
					return err
				}
				nextEntry = routed
				return nil
			}

			live, err := s.queueRepo.CountLiveForVisit(ctx, entry.VisitID, "")
			if err != nil {
				return err
			}
			if live == 0 {
				return s.visitRepo.Close(ctx, entry.VisitID, time.Now())
			}
			return nil
		})
	})
	if err != nil {
		return nil, nil, err
	}

	s.publish(ctx, entry, entities.QueueEventCompleted)
	if nextEntry != nil {
		s.publish(ctx, nextEntry, entities.QueueEventCreated)
	}
	return entry, nextEntry, nil
}

// Skip moves a live entry to skipped. A reason is mandatory and persisted
// to the audit log; the entry can be brought back with Recall.
func (s *QueueService) Skip(ctx context.Context, entryID, operatorID, reason string) (*entities.QueueEntry, error) {
	if reason == "" {
		return nil, apperrors.NewValidationError("a reason is required to skip a queue entry")
	}
	entry, err := s.transition(ctx, entryID, entities.ActionSkip, &auditNote{operatorID: operatorID, reason: reason})
	if err != nil {
		return nil, err
	}
	s.publish(ctx, entry, entities.QueueEventSkipped)
	return entry, nil
}

// Recall brings a skipped entry back to waiting. The entry is re-stamped
// for ordering at recall time but keeps its original queue number and
// code, so the printed ticket stays valid.
func (s *QueueService) Recall(ctx context.Context, entryID, operatorID string) (*entities.QueueEntry, error) {
	entry, err := s.transition(ctx, entryID, entities.ActionRecall, &auditNote{operatorID: operatorID})
	if err != nil {
		return nil, err
	}
	s.publish(ctx, entry, entities.QueueEventRecalled)
	return entry, nil
}

// NoShow marks a waiting entry as a no-show. This is an operator
// decision, never a timer.
func (s *QueueService) NoShow(ctx context.Context, entryID, operatorID string) (*entities.QueueEntry, error) {
	entry, err := s.transition(ctx, entryID, entities.ActionNoShow, &auditNote{operatorID: operatorID})
	if err != nil {
		return nil, err
	}
	s.publish(ctx, entry, entities.QueueEventNoShow)
	return entry, nil
}

// Cancel withdraws a waiting or called entry administratively. A reason
// is mandatory; no re-entry is possible afterwards.
func (s *QueueService) Cancel(ctx context.Context, entryID, operatorID, reason string) (*entities.QueueEntry, error) {
	if reason == "" {
		return nil, apperrors.NewValidationError("a reason is required to cancel a queue entry")
	}
	entry, err := s.transition(ctx, entryID, entities.ActionCancel, &auditNote{operatorID: operatorID, reason: reason})
	if err != nil {
		return nil, err
	}
	s.publish(ctx, entry, entities.QueueEventCancelled)
	return entry, nil
}

// GetEntry retrieves a queue entry by ID
func (s *QueueService) GetEntry(ctx context.Context, id string) (*entities.QueueEntry, error) {
	return s.queueRepo.GetByID(ctx, id)
}

// ListForStation returns a station's entries for a day in call order
func (s *QueueService) ListForStation(ctx context.Context, stationID string, date time.Time, liveOnly bool) ([]*entities.QueueEntry, error) {
	return s.queueRepo.ListForStation(ctx, stationID, date, liveOnly)
}

// AuditTrail returns a queue entry's audit records, oldest first
func (s *QueueService) AuditTrail(ctx context.Context, entryID string) ([]*entities.AuditRecord, error) {
	return s.auditRepo.ListForEntry(ctx, entryID)
}

type auditNote struct {
	operatorID string
	reason     string
}

// transition applies one state machine action in a transaction, appending
// an audit record when note is set and closing the visit when a terminal
// action leaves it without live entries.
func (s *QueueService) transition(ctx context.Context, entryID string, action entities.QueueAction, note *auditNote) (*entities.QueueEntry, error) {
	var entry *entities.QueueEntry
	err := s.txManager.WithinTx(ctx, func(ctx context.Context) error {
		updated, err := s.queueRepo.ApplyTransition(ctx, entryID, action, time.Now())
		if err != nil {
			return err
		}
		entry = updated

		if note != nil {
			err := s.auditRepo.Append(ctx, &entities.AuditRecord{
				ID:           uuid.New().String(),
				QueueEntryID: entry.ID,
				StationID:    entry.StationID,
				OperatorID:   note.operatorID,
				Action:       action,
				Reason:       note.reason,
				CreatedAt:    time.Now(),
			})
			if err != nil {
				return err
			}
		}

		// A visit ends when its last live entry reaches a terminal state,
		// whichever state that is. Skip is not terminal, so a skipped
		// entry never closes the visit it belongs to.
		if entities.TargetStatus(action).IsTerminal() {
			live, err := s.queueRepo.CountLiveForVisit(ctx, entry.VisitID, "")
			if err != nil {
				return err
			}
			if live == 0 {
				return s.visitRepo.Close(ctx, entry.VisitID, time.Now())
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return entry, nil
}

func (s *QueueService) publish(ctx context.Context, entry *entities.QueueEntry, eventType entities.QueueEventType) {
	publishQueueEvent(ctx, s.eventBus, entry, eventType)
}
