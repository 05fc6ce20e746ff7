package providers

import (
	"context"

	"github.com/clinicops/clinic-flow/backend/internal/domain/entities"
)

// EventBus defines the interface for publishing and subscribing to queue
// events
type EventBus interface {
	// Publish publishes an event to all subscribers
	Publish(ctx context.Context, channel string, event *entities.QueueEvent) error

	// Subscribe subscribes to events on a channel
	Subscribe(ctx context.Context, channel string) (<-chan *entities.QueueEvent, error)

	// Unsubscribe unsubscribes from a channel
	Unsubscribe(ctx context.Context, channel string) error

	// Close closes the event bus and all subscriptions
	Close() error
}

// EventChannel constants for different event types
const (
	// EventChannelQueueUpdates is the channel carrying every queue event
	EventChannelQueueUpdates = "queue:updates"

	// EventChannelStationPrefix is the prefix for station-specific channels
	EventChannelStationPrefix = "queue:station:"
)

// GetStationChannel returns the channel name for a specific station's
// board feed
func GetStationChannel(stationID string) string {
	return EventChannelStationPrefix + stationID
}
