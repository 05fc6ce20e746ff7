package repositories

import (
	"context"
	"time"

	"github.com/clinicops/clinic-flow/backend/internal/domain/entities"
)

// VisitRepository defines the interface for visit data operations
type VisitRepository interface {
	// Create inserts a visit. The appointment_id unique constraint makes
	// this the idempotency guard for check-in: a second insert for the same
	// appointment fails with an already checked in error.
	Create(ctx context.Context, visit *entities.Visit) error

	// GetByID retrieves a visit by ID
	GetByID(ctx context.Context, id string) (*entities.Visit, error)

	// GetByAppointment retrieves the visit for an appointment, or a not
	// found error when none exists
	GetByAppointment(ctx context.Context, appointmentID string) (*entities.Visit, error)

	// Close sets the visit's time_out; closing an already closed visit is a
	// no-op
	Close(ctx context.Context, id string, timeOut time.Time) error
}
