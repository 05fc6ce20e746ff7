package entities

import (
	"fmt"
	"strings"
	"time"
)

// StationType classifies what kind of service a station provides
type StationType string

const (
	StationTypeTriage       StationType = "triage"
	StationTypeBilling      StationType = "billing"
	StationTypeDocument     StationType = "document"
	StationTypeConsultation StationType = "consultation"
	StationTypeLab          StationType = "lab"
	StationTypePharmacy     StationType = "pharmacy"
)

// Station represents a physical or logical service point that serves one
// queue entry at a time per operator
type Station struct {
	ID        string      `json:"id" db:"id"`
	Type      StationType `json:"station_type" db:"station_type"`
	Ordinal   int         `json:"ordinal" db:"ordinal"`
	Name      string      `json:"name" db:"name"`
	Active    bool        `json:"active" db:"active"`
	CreatedAt time.Time   `json:"created_at" db:"created_at"`
	UpdatedAt time.Time   `json:"updated_at" db:"updated_at"`
}

// Prefix returns the short code used in queue codes, e.g. "T1" for the
// first triage station.
func (s *Station) Prefix() string {
	letter := "X"
	if s.Type != "" {
		letter = strings.ToUpper(string(s.Type[0]))
	}
	return fmt.Sprintf("%s%d", letter, s.Ordinal)
}

// OperatorAssignment records which operator staffs a station on a given
// date. Assignments are written by the staffing module; this engine only
// reads them.
type OperatorAssignment struct {
	ID         string    `json:"id" db:"id"`
	StationID  string    `json:"station_id" db:"station_id"`
	OperatorID string    `json:"operator_id" db:"operator_id"`
	AssignDate time.Time `json:"assign_date" db:"assign_date"`
	Shift      string    `json:"shift" db:"shift"`
}
