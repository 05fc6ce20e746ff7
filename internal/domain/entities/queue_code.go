package entities

import (
	"fmt"
	"time"
)

// FormatQueueCode builds the authoritative queue code printed on the
// ticket, e.g. "T1-N4": station prefix, priority prefix, sequence number.
func FormatQueueCode(stationPrefix string, p PriorityLevel, number int) string {
	return fmt.Sprintf("%s-%s%d", stationPrefix, PriorityPrefix(p), number)
}

// FormatDisplayCode builds the human time-of-day code shown on station
// boards, e.g. "10AM-4". Display only; not unique within a day.
func FormatDisplayCode(t time.Time, number int) string {
	hour := t.Hour() % 12
	if hour == 0 {
		hour = 12
	}
	meridiem := "AM"
	if t.Hour() >= 12 {
		meridiem = "PM"
	}
	return fmt.Sprintf("%d%s-%d", hour, meridiem, number)
}
