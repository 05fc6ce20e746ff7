package entities

import (
	"time"
)

// AttendanceStatus records how the patient's arrival compared to the
// scheduled appointment time
type AttendanceStatus string

const (
	AttendanceEarly     AttendanceStatus = "early"
	AttendanceOnTime    AttendanceStatus = "on_time"
	AttendanceLate      AttendanceStatus = "late"
	AttendanceNoShow    AttendanceStatus = "no_show"
	AttendanceLeftEarly AttendanceStatus = "left_early"
)

// Visit represents one physical attendance against an appointment. At most
// one visit exists per appointment; it is created by check-in and closed
// when the patient's last queue entry reaches a terminal state.
type Visit struct {
	ID               string           `json:"id" db:"id"`
	AppointmentID    string           `json:"appointment_id" db:"appointment_id"`
	PatientID        string           `json:"patient_id" db:"patient_id"`
	TimeIn           time.Time        `json:"time_in" db:"time_in"`
	TimeOut          *time.Time       `json:"time_out,omitempty" db:"time_out"`
	AttendanceStatus AttendanceStatus `json:"attendance_status" db:"attendance_status"`
	Remarks          string           `json:"remarks" db:"remarks"`
}

// DeriveAttendance classifies an arrival time against the scheduled time.
// Arrivals within the grace window on either side count as on time.
func DeriveAttendance(arrival, scheduled time.Time, grace time.Duration) AttendanceStatus {
	switch {
	case arrival.Before(scheduled.Add(-grace)):
		return AttendanceEarly
	case arrival.After(scheduled.Add(grace)):
		return AttendanceLate
	default:
		return AttendanceOnTime
	}
}
