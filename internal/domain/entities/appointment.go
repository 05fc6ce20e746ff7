package entities

import (
	"time"
)

// AppointmentStatus represents the status of an appointment
type AppointmentStatus string

const (
	AppointmentStatusRequested AppointmentStatus = "requested"
	AppointmentStatusConfirmed AppointmentStatus = "confirmed"
	AppointmentStatusCheckedIn AppointmentStatus = "checked_in"
	AppointmentStatusCompleted AppointmentStatus = "completed"
	AppointmentStatusCancelled AppointmentStatus = "cancelled"
)

// Appointment represents a scheduled appointment. Appointments are owned
// by the scheduling subsystem; the flow engine reads them and transitions
// confirmed appointments to checked_in.
type Appointment struct {
	ID               string            `json:"id" db:"id"`
	PatientID        string            `json:"patient_id" db:"patient_id"`
	FacilityID       string            `json:"facility_id" db:"facility_id"`
	ServiceID        string            `json:"service_id" db:"service_id"`
	ScheduledAt      time.Time         `json:"scheduled_at" db:"scheduled_at"`
	Status           AppointmentStatus `json:"status" db:"status"`
	VerificationCode string            `json:"verification_code,omitempty" db:"verification_code"`
	CreatedAt        time.Time         `json:"created_at" db:"created_at"`
	UpdatedAt        time.Time         `json:"updated_at" db:"updated_at"`
}
