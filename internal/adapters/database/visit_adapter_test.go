package database_test

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clinicops/clinic-flow/backend/internal/adapters/database"
	"github.com/clinicops/clinic-flow/backend/internal/domain/entities"
	apperrors "github.com/clinicops/clinic-flow/backend/pkg/errors"
)

func TestVisitAdapter_Create(t *testing.T) {
	client, mock := setupMockClient(t)
	adapter := database.NewVisitAdapter(client)

	mock.ExpectExec(`INSERT INTO "visits"`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := adapter.Create(context.Background(), &entities.Visit{
		ID:               "visit-1",
		AppointmentID:    "appt-1",
		PatientID:        "patient-1",
		TimeIn:           time.Now(),
		AttendanceStatus: entities.AttendanceOnTime,
	})

	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestVisitAdapter_Create_DuplicateAppointmentIsAlreadyCheckedIn(t *testing.T) {
	client, mock := setupMockClient(t)
	adapter := database.NewVisitAdapter(client)

	mock.ExpectExec(`INSERT INTO "visits"`).
		WillReturnError(&pq.Error{Code: "23505", Constraint: "visits_appointment_id_key"})

	err := adapter.Create(context.Background(), &entities.Visit{
		ID:            "visit-2",
		AppointmentID: "appt-1",
	})

	assert.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeAlreadyCheckedIn))
	assert.False(t, apperrors.Retryable(err))
}

func TestVisitAdapter_GetByAppointment_NotFound(t *testing.T) {
	client, mock := setupMockClient(t)
	adapter := database.NewVisitAdapter(client)

	mock.ExpectQuery(`SELECT .+ FROM "visits"`).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "appointment_id", "patient_id", "time_in", "time_out",
			"attendance_status", "remarks",
		}))

	_, err := adapter.GetByAppointment(context.Background(), "appt-9")

	assert.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeNotFound))
}

func TestVisitAdapter_Close(t *testing.T) {
	client, mock := setupMockClient(t)
	adapter := database.NewVisitAdapter(client)

	mock.ExpectExec(`UPDATE "visits" SET`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := adapter.Close(context.Background(), "visit-1", time.Now())

	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestVisitAdapter_Close_AlreadyClosedIsNoOp(t *testing.T) {
	client, mock := setupMockClient(t)
	adapter := database.NewVisitAdapter(client)

	now := time.Now()
	mock.ExpectExec(`UPDATE "visits" SET`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(`SELECT .+ FROM "visits"`).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "appointment_id", "patient_id", "time_in", "time_out",
			"attendance_status", "remarks",
		}).AddRow("visit-1", "appt-1", "patient-1", now, now, "on_time", nil))

	err := adapter.Close(context.Background(), "visit-1", now)

	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestVisitAdapter_Close_MissingVisit(t *testing.T) {
	client, mock := setupMockClient(t)
	adapter := database.NewVisitAdapter(client)

	mock.ExpectExec(`UPDATE "visits" SET`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(`SELECT .+ FROM "visits"`).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "appointment_id", "patient_id", "time_in", "time_out",
			"attendance_status", "remarks",
		}))

	err := adapter.Close(context.Background(), "visit-9", time.Now())

	assert.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeNotFound))
}
