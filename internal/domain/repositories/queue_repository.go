package repositories

import (
	"context"
	"time"

	"github.com/clinicops/clinic-flow/backend/internal/domain/entities"
)

// QueueRepository defines the interface for queue entry data operations.
// All entries for all stations live in one table; station identity is a
// parameter, never a schema fork.
type QueueRepository interface {
	// NextQueueNumber allocates the next queue number for a station and
	// day in a single atomic upsert-and-increment statement. Safe under
	// concurrent callers.
	NextQueueNumber(ctx context.Context, stationID string, date time.Time) (int, error)

	// Create inserts a new queue entry. A (station, day, number) unique
	// violation surfaces as an allocation conflict, which callers retry.
	Create(ctx context.Context, entry *entities.QueueEntry) error

	// GetByID retrieves a queue entry by ID
	GetByID(ctx context.Context, id string) (*entities.QueueEntry, error)

	// CallNext atomically selects the highest-priority, earliest waiting
	// entry for the station on the given day, marks it called, and returns
	// it. Concurrent callers on the same station never receive the same
	// entry. Returns an empty queue error when nothing is waiting.
	CallNext(ctx context.Context, stationID string, date time.Time) (*entities.QueueEntry, error)

	// ApplyTransition performs a conditional status update for the given
	// action, setting the timestamps the action implies (time_started for
	// start, time_completed for complete, a fresh time_in for recall). The
	// current status is validated in the UPDATE itself; an entry in a state
	// the action forbids surfaces as an invalid state error.
	ApplyTransition(ctx context.Context, id string, action entities.QueueAction, at time.Time) (*entities.QueueEntry, error)

	// CountLiveForVisit counts the visit's entries still in a live state,
	// optionally narrowed to one station (empty stationID means all).
	CountLiveForVisit(ctx context.Context, visitID, stationID string) (int, error)

	// ListForStation returns the station's entries for a day in call order:
	// live entries first by priority rank, time in, queue number.
	ListForStation(ctx context.Context, stationID string, date time.Time, liveOnly bool) ([]*entities.QueueEntry, error)

	// AggregateStats computes the per-station day statistics in one pass
	// over the entries.
	AggregateStats(ctx context.Context, stationID string, date time.Time) (*entities.StationStats, error)
}
