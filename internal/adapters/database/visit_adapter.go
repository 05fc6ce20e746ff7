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

// VisitAdapter implements the VisitRepository interface
type VisitAdapter struct {
	client *postgres.Client
	db     *goqu.Database
}

// NewVisitAdapter creates a new visit adapter
func NewVisitAdapter(client *postgres.Client) repositories.VisitRepository {
	return &VisitAdapter{
		client: client,
		db:     goqu.New("postgres", client.DB()),
	}
}

// Create inserts a visit. The unique constraint on appointment_id is the
// check-in idempotency guard.
func (a *VisitAdapter) Create(ctx context.Context, visit *entities.Visit) error {
	record := goqu.Record{
		"id":                visit.ID,
		"appointment_id":    visit.AppointmentID,
		"patient_id":        visit.PatientID,
		"time_in":           visit.TimeIn,
		"attendance_status": visit.AttendanceStatus,
		"remarks":           visit.Remarks,
	}

	query, args, err := a.db.Insert("visits").Rows(record).ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build insert query", err)
	}

	_, err = executorFrom(ctx, a.client.DB()).ExecContext(ctx, query, args...)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.NewAlreadyCheckedInError(
				fmt.Sprintf("appointment %s already has a visit", visit.AppointmentID))
		}
		return apperrors.NewInternalError("failed to create visit", err)
	}
	return nil
}

// GetByID retrieves a visit by ID
func (a *VisitAdapter) GetByID(ctx context.Context, id string) (*entities.Visit, error) {
	return a.getOne(ctx, goqu.Ex{"id": id}, fmt.Sprintf("visit with id %s not found", id))
}

// GetByAppointment retrieves the visit for an appointment
func (a *VisitAdapter) GetByAppointment(ctx context.Context, appointmentID string) (*entities.Visit, error) {
	return a.getOne(ctx, goqu.Ex{"appointment_id": appointmentID},
		fmt.Sprintf("no visit exists for appointment %s", appointmentID))
}

func (a *VisitAdapter) getOne(ctx context.Context, where goqu.Ex, notFoundMsg string) (*entities.Visit, error) {
	query, args, err := a.db.Select(
		"id", "appointment_id", "patient_id", "time_in", "time_out",
		"attendance_status", "remarks",
	).From("visits").
		Where(where).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	visit := &entities.Visit{}
	var timeOut sql.NullTime
	var remarks sql.NullString
	err = executorFrom(ctx, a.client.DB()).QueryRowContext(ctx, query, args...).Scan(
		&visit.ID,
		&visit.AppointmentID,
		&visit.PatientID,
		&visit.TimeIn,
		&timeOut,
		&visit.AttendanceStatus,
		&remarks,
	)
	if err == sql.ErrNoRows {
		return nil, apperrors.NewNotFoundError(notFoundMsg)
	}
	if err != nil {
		return nil, apperrors.NewInternalError("failed to get visit", err)
	}
	if timeOut.Valid {
		visit.TimeOut = &timeOut.Time
	}
	visit.Remarks = remarks.String
	return visit, nil
}

// Close sets the visit's time_out. Closing a visit that is already closed
// is a no-op so routing and completion cannot race each other into an
// error.
func (a *VisitAdapter) Close(ctx context.Context, id string, timeOut time.Time) error {
	query, args, err := a.db.Update("visits").
		Set(goqu.Record{"time_out": timeOut}).
		Where(goqu.Ex{"id": id, "time_out": nil}).
		ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build close query", err)
	}

	result, err := executorFrom(ctx, a.client.DB()).ExecContext(ctx, query, args...)
	if err != nil {
		return apperrors.NewInternalError("failed to close visit", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return apperrors.NewInternalError("failed to get rows affected", err)
	}
	if rowsAffected == 0 {
		// Either already closed or missing; only the latter is an error.
		if _, err := a.GetByID(ctx, id); err != nil {
			return err
		}
	}
	return nil
}
