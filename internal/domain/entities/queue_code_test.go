package entities_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/clinicops/clinic-flow/backend/internal/domain/entities"
)

func TestFormatQueueCode(t *testing.T) {
	assert.Equal(t, "T1-N4", entities.FormatQueueCode("T1", entities.PriorityNormal, 4))
	assert.Equal(t, "T1-E1", entities.FormatQueueCode("T1", entities.PriorityEmergency, 1))
	assert.Equal(t, "B2-P12", entities.FormatQueueCode("B2", entities.PriorityUrgent, 12))
	assert.Equal(t, "C1-N7", entities.FormatQueueCode("C1", entities.PriorityLow, 7))
}

func TestFormatDisplayCode(t *testing.T) {
	tests := []struct {
		name string
		at   time.Time
		n    int
		want string
	}{
		{"morning", time.Date(2026, 3, 14, 10, 5, 0, 0, time.UTC), 4, "10AM-4"},
		{"noon", time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC), 1, "12PM-1"},
		{"afternoon", time.Date(2026, 3, 14, 15, 30, 0, 0, time.UTC), 9, "3PM-9"},
		{"midnight", time.Date(2026, 3, 14, 0, 10, 0, 0, time.UTC), 2, "12AM-2"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, entities.FormatDisplayCode(tt.at, tt.n))
		})
	}
}

func TestStation_Prefix(t *testing.T) {
	triage := entities.Station{Type: entities.StationTypeTriage, Ordinal: 1}
	assert.Equal(t, "T1", triage.Prefix())

	billing := entities.Station{Type: entities.StationTypeBilling, Ordinal: 2}
	assert.Equal(t, "B2", billing.Prefix())
}
