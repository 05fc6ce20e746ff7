package entities

import (
	"time"
)

// QueueStatus represents the lifecycle state of a queue entry
type QueueStatus string

const (
	QueueStatusWaiting    QueueStatus = "waiting"
	QueueStatusCalled     QueueStatus = "called"
	QueueStatusInProgress QueueStatus = "in_progress"
	QueueStatusDone       QueueStatus = "done"
	QueueStatusSkipped    QueueStatus = "skipped"
	QueueStatusCancelled  QueueStatus = "cancelled"
	QueueStatusNoShow     QueueStatus = "no_show"
)

// QueueAction names a state machine operation on a queue entry
type QueueAction string

const (
	ActionCall     QueueAction = "call"
	ActionStart    QueueAction = "start"
	ActionComplete QueueAction = "complete"
	ActionSkip     QueueAction = "skip"
	ActionRecall   QueueAction = "recall"
	ActionNoShow   QueueAction = "no_show"
	ActionCancel   QueueAction = "cancel"
)

// transitionMap lists, per action, the statuses an entry may be in for the
// action to apply. Transitions are validated server-side; terminal states
// (done, cancelled, no_show) admit no action.
var transitionMap = map[QueueAction][]QueueStatus{
	ActionCall:     {QueueStatusWaiting},
	ActionStart:    {QueueStatusCalled, QueueStatusWaiting},
	ActionComplete: {QueueStatusInProgress},
	ActionSkip:     {QueueStatusWaiting, QueueStatusCalled, QueueStatusInProgress},
	ActionRecall:   {QueueStatusSkipped},
	ActionNoShow:   {QueueStatusWaiting},
	ActionCancel:   {QueueStatusWaiting, QueueStatusCalled},
}

// ValidTransition reports whether action may be applied to an entry in
// fromStatus.
func ValidTransition(action QueueAction, fromStatus QueueStatus) bool {
	allowed, ok := transitionMap[action]
	if !ok {
		return false
	}
	for _, status := range allowed {
		if status == fromStatus {
			return true
		}
	}
	return false
}

// AllowedStatuses returns the source statuses an action accepts.
func AllowedStatuses(action QueueAction) []QueueStatus {
	return transitionMap[action]
}

// TargetStatus returns the status an action moves an entry into.
func TargetStatus(action QueueAction) QueueStatus {
	switch action {
	case ActionCall:
		return QueueStatusCalled
	case ActionStart:
		return QueueStatusInProgress
	case ActionComplete:
		return QueueStatusDone
	case ActionSkip:
		return QueueStatusSkipped
	case ActionRecall:
		return QueueStatusWaiting
	case ActionNoShow:
		return QueueStatusNoShow
	case ActionCancel:
		return QueueStatusCancelled
	default:
		return ""
	}
}

// LiveStatuses are the states in which an entry still occupies a slot in
// a station's line.
var LiveStatuses = []QueueStatus{QueueStatusWaiting, QueueStatusCalled, QueueStatusInProgress}

// IsTerminal reports whether no further transition is possible from s.
func (s QueueStatus) IsTerminal() bool {
	switch s {
	case QueueStatusDone, QueueStatusCancelled, QueueStatusNoShow:
		return true
	}
	return false
}

// IsLive reports whether the entry still holds a slot in the line.
func (s QueueStatus) IsLive() bool {
	for _, live := range LiveStatuses {
		if s == live {
			return true
		}
	}
	return false
}

// SpecialTag marks a special patient category. Tags are metadata only and
// do not affect call ordering.
type SpecialTag string

const (
	TagSenior       SpecialTag = "senior"
	TagPWD          SpecialTag = "pwd"
	TagPregnant     SpecialTag = "pregnant"
	TagInjured      SpecialTag = "injured"
	TagSpecialNeeds SpecialTag = "special_needs"
)

// QueueEntry represents one ticket: a patient's position in one station's
// line for one calendar day.
type QueueEntry struct {
	ID            string        `json:"id" db:"id"`
	StationID     string        `json:"station_id" db:"station_id"`
	PatientID     string        `json:"patient_id" db:"patient_id"`
	VisitID       string        `json:"visit_id" db:"visit_id"`
	AppointmentID string        `json:"appointment_id" db:"appointment_id"`
	ServiceID     string        `json:"service_id" db:"service_id"`
	QueueType     StationType   `json:"queue_type" db:"queue_type"`
	Priority      PriorityLevel `json:"priority_level" db:"priority_level"`
	SpecialTags   []SpecialTag  `json:"special_tags" db:"special_tags"`
	Status        QueueStatus   `json:"status" db:"status"`
	QueueDate     time.Time     `json:"queue_date" db:"queue_date"`
	QueueNumber   int           `json:"queue_number" db:"queue_number"`
	QueueCode     string        `json:"queue_code" db:"queue_code"`
	TimeIn        time.Time     `json:"time_in" db:"time_in"`
	TimeStarted   *time.Time    `json:"time_started,omitempty" db:"time_started"`
	TimeCompleted *time.Time    `json:"time_completed,omitempty" db:"time_completed"`
	Remarks       string        `json:"remarks" db:"remarks"`
}

// DisplayCode returns the patient-facing time-of-day code for the entry.
// It carries no uniqueness guarantee and must never be used as a lookup
// key; QueueCode is the authoritative identifier on the ticket.
func (e *QueueEntry) DisplayCode() string {
	return FormatDisplayCode(e.TimeIn, e.QueueNumber)
}
