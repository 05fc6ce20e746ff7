package entities

import (
	"time"
)

// QueueEventType identifies what happened to a queue entry
type QueueEventType string

const (
	QueueEventCreated   QueueEventType = "queue.created"
	QueueEventCalled    QueueEventType = "queue.called"
	QueueEventStarted   QueueEventType = "queue.started"
	QueueEventCompleted QueueEventType = "queue.completed"
	QueueEventSkipped   QueueEventType = "queue.skipped"
	QueueEventRecalled  QueueEventType = "queue.recalled"
	QueueEventCancelled QueueEventType = "queue.cancelled"
	QueueEventNoShow    QueueEventType = "queue.no_show"
)

// QueueEvent is the board-facing notification published whenever a queue
// entry changes state.
type QueueEvent struct {
	ID          string         `json:"id"`
	EventType   QueueEventType `json:"event_type"`
	StationID   string         `json:"station_id"`
	EntryID     string         `json:"entry_id"`
	QueueNumber int            `json:"queue_number"`
	QueueCode   string         `json:"queue_code"`
	DisplayCode string         `json:"display_code"`
	Status      QueueStatus    `json:"status"`
	Timestamp   time.Time      `json:"timestamp"`
}
