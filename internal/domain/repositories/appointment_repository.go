package repositories

import (
	"context"

	"github.com/clinicops/clinic-flow/backend/internal/domain/entities"
)

// AppointmentRepository defines the interface for appointment data
// operations. Appointments are owned by the scheduling subsystem; the flow
// engine reads them and performs the confirmed → checked_in transition.
type AppointmentRepository interface {
	// GetByID retrieves an appointment by ID
	GetByID(ctx context.Context, id string) (*entities.Appointment, error)

	// GetByVerificationCode resolves a manual-entry verification code to an
	// appointment
	GetByVerificationCode(ctx context.Context, code string) (*entities.Appointment, error)

	// TransitionStatus moves an appointment from one status to another
	// atomically; it fails with an invalid state error when the appointment
	// is not in the expected status
	TransitionStatus(ctx context.Context, id string, from, to entities.AppointmentStatus) error
}
