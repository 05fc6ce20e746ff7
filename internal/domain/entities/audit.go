package entities

import (
	"time"
)

// AuditRecord is one append-only line in the queue activity log. Records
// are written for every skip, recall, cancel and no-show and are never
// updated or deleted.
type AuditRecord struct {
	ID           string      `json:"id" db:"id"`
	QueueEntryID string      `json:"queue_entry_id" db:"queue_entry_id"`
	StationID    string      `json:"station_id" db:"station_id"`
	OperatorID   string      `json:"operator_id" db:"operator_id"`
	Action       QueueAction `json:"action" db:"action"`
	Reason       string      `json:"reason" db:"reason"`
	CreatedAt    time.Time   `json:"created_at" db:"created_at"`
}
