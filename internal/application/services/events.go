package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/clinicops/clinic-flow/backend/internal/domain/entities"
	"github.com/clinicops/clinic-flow/backend/internal/domain/providers"
)

// publishQueueEvent notifies the entry's station board channel and the
// firehose channel after a state change has committed. Publish failures
// are logged but never fail the operation that triggered them.
func publishQueueEvent(ctx context.Context, bus providers.EventBus, entry *entities.QueueEntry, eventType entities.QueueEventType) {
	if bus == nil || entry == nil {
		return
	}
	event := &entities.QueueEvent{
		ID:          uuid.New().String(),
		EventType:   eventType,
		StationID:   entry.StationID,
		EntryID:     entry.ID,
		QueueNumber: entry.QueueNumber,
		QueueCode:   entry.QueueCode,
		DisplayCode: entry.DisplayCode(),
		Status:      entry.Status,
		Timestamp:   time.Now(),
	}
	for _, channel := range []string{providers.GetStationChannel(entry.StationID), providers.EventChannelQueueUpdates} {
		if err := bus.Publish(ctx, channel, event); err != nil {
			log.Warn().Err(err).Str("channel", channel).Str("entry_id", entry.ID).Msg("failed to publish queue event")
		}
	}
}
