package repositories

import (
	"context"
	"time"

	"github.com/clinicops/clinic-flow/backend/internal/domain/entities"
)

// StationRepository defines the interface for station registry reads
type StationRepository interface {
	// GetByID retrieves a station by ID
	GetByID(ctx context.Context, id string) (*entities.Station, error)

	// ListActive retrieves active stations, optionally filtered by type
	ListActive(ctx context.Context, stationType entities.StationType) ([]*entities.Station, error)

	// GetOperatorAssignment retrieves the operator assigned to a station on
	// a date, or nil when the station is unstaffed that day
	GetOperatorAssignment(ctx context.Context, stationID string, date time.Time) (*entities.OperatorAssignment, error)

	// LoadByType returns live-entry counts for every active station of the
	// given type on the given date, ordered by station ordinal
	LoadByType(ctx context.Context, stationType entities.StationType, date time.Time) ([]entities.StationLoad, error)
}
