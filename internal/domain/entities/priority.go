package entities

// PriorityLevel represents the clinical urgency tier of a queue entry
type PriorityLevel string

const (
	PriorityEmergency PriorityLevel = "emergency"
	PriorityUrgent    PriorityLevel = "priority"
	PriorityNormal    PriorityLevel = "normal"
	PriorityLow       PriorityLevel = "low"
)

// PriorityRank is the single canonical ordering function for priority
// levels. Both the call-next comparator and the queue-code prefix map
// derive from it; no call site may rank priorities on its own.
func PriorityRank(p PriorityLevel) int {
	switch p {
	case PriorityEmergency:
		return 3
	case PriorityUrgent:
		return 2
	case PriorityNormal:
		return 1
	case PriorityLow:
		return 0
	default:
		return 1
	}
}

// NormalizePriority maps loose caller spellings onto the canonical levels.
// Unknown or empty values fall back to normal.
func NormalizePriority(raw string) PriorityLevel {
	switch PriorityLevel(raw) {
	case PriorityEmergency, PriorityUrgent, PriorityNormal, PriorityLow:
		return PriorityLevel(raw)
	}
	if raw == "urgent" {
		return PriorityUrgent
	}
	return PriorityNormal
}

// PriorityPrefix returns the single-letter prefix used in queue codes.
// Low shares the normal prefix: tickets do not advertise a below-normal
// tier to patients.
func PriorityPrefix(p PriorityLevel) string {
	switch p {
	case PriorityEmergency:
		return "E"
	case PriorityUrgent:
		return "P"
	default:
		return "N"
	}
}
