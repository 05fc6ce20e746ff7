package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"

	"github.com/clinicops/clinic-flow/backend/internal/domain/entities"
	"github.com/clinicops/clinic-flow/backend/internal/domain/repositories"
	"github.com/clinicops/clinic-flow/backend/internal/infrastructure/clients/postgres"
	apperrors "github.com/clinicops/clinic-flow/backend/pkg/errors"
)

// AppointmentAdapter implements the AppointmentRepository interface
type AppointmentAdapter struct {
	client *postgres.Client
	db     *goqu.Database
}

// NewAppointmentAdapter creates a new appointment adapter
func NewAppointmentAdapter(client *postgres.Client) repositories.AppointmentRepository {
	return &AppointmentAdapter{
		client: client,
		db:     goqu.New("postgres", client.DB()),
	}
}

// GetByID retrieves an appointment by ID
func (a *AppointmentAdapter) GetByID(ctx context.Context, id string) (*entities.Appointment, error) {
	return a.getOne(ctx, goqu.Ex{"id": id}, fmt.Sprintf("appointment with id %s not found", id))
}

// GetByVerificationCode resolves a manual-entry verification code
func (a *AppointmentAdapter) GetByVerificationCode(ctx context.Context, code string) (*entities.Appointment, error) {
	return a.getOne(ctx, goqu.Ex{"verification_code": code}, "no appointment matches the verification code")
}

func (a *AppointmentAdapter) getOne(ctx context.Context, where goqu.Ex, notFoundMsg string) (*entities.Appointment, error) {
	query, args, err := a.db.Select(
		"id", "patient_id", "facility_id", "service_id", "scheduled_at",
		"status", "verification_code", "created_at", "updated_at",
	).From("appointments").
		Where(where).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	appointment := &entities.Appointment{}
	var verificationCode sql.NullString
	err = executorFrom(ctx, a.client.DB()).QueryRowContext(ctx, query, args...).Scan(
		&appointment.ID,
		&appointment.PatientID,
		&appointment.FacilityID,
		&appointment.ServiceID,
		&appointment.ScheduledAt,
		&appointment.Status,
		&verificationCode,
		&appointment.CreatedAt,
		&appointment.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, apperrors.NewNotFoundError(notFoundMsg)
	}
	if err != nil {
		return nil, apperrors.NewInternalError("failed to get appointment", err)
	}
	appointment.VerificationCode = verificationCode.String
	return appointment, nil
}

// TransitionStatus moves an appointment between statuses atomically. The
// expected source status sits in the WHERE clause so a concurrent
// transition cannot be overwritten.
func (a *AppointmentAdapter) TransitionStatus(ctx context.Context, id string, from, to entities.AppointmentStatus) error {
	query, args, err := a.db.Update("appointments").
		Set(goqu.Record{
			"status":     to,
			"updated_at": time.Now(),
		}).
		Where(goqu.Ex{"id": id, "status": from}).
		ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build transition query", err)
	}

	result, err := executorFrom(ctx, a.client.DB()).ExecContext(ctx, query, args...)
	if err != nil {
		return apperrors.NewInternalError("failed to transition appointment", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return apperrors.NewInternalError("failed to get rows affected", err)
	}
	if rowsAffected == 0 {
		current, getErr := a.GetByID(ctx, id)
		if getErr != nil {
			return getErr
		}
		return apperrors.NewInvalidStateError(
			fmt.Sprintf("appointment %s is %s, expected %s", id, current.Status, from))
	}
	return nil
}
