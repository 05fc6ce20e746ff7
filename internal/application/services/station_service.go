package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/clinicops/clinic-flow/backend/internal/domain/entities"
	"github.com/clinicops/clinic-flow/backend/internal/domain/providers"
	"github.com/clinicops/clinic-flow/backend/internal/domain/repositories"
	apperrors "github.com/clinicops/clinic-flow/backend/pkg/errors"
)

// StationService handles station registry reads and station selection.
// The registry changes rarely, so reads go through the cache; operator
// assignments and load counts are date-sensitive and always hit the
// database.
type StationService struct {
	repo            repositories.StationRepository
	cache           providers.CacheProvider
	cacheTTLSeconds int
}

// NewStationService creates a new station service. cache may be nil, in
// which case every read goes to the database.
func NewStationService(repo repositories.StationRepository, cache providers.CacheProvider, cacheTTLSeconds int) *StationService {
	return &StationService{
		repo:            repo,
		cache:           cache,
		cacheTTLSeconds: cacheTTLSeconds,
	}
}

// GetStation retrieves a station by ID
func (s *StationService) GetStation(ctx context.Context, id string) (*entities.Station, error) {
	cacheKey := "station:" + id

	if s.cache != nil {
		if data, err := s.cache.Get(ctx, cacheKey); err == nil && data != nil {
			var station entities.Station
			if err := json.Unmarshal(data, &station); err == nil {
				return &station, nil
			}
		}
	}

	station, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	s.cacheSet(ctx, cacheKey, station)
	return station, nil
}

// ListActiveStations retrieves active stations, optionally filtered by
// type (empty type means all)
func (s *StationService) ListActiveStations(ctx context.Context, stationType entities.StationType) ([]*entities.Station, error) {
	cacheKey := "stations:active:" + string(stationType)

	if s.cache != nil {
		if data, err := s.cache.Get(ctx, cacheKey); err == nil && data != nil {
			var stations []*entities.Station
			if err := json.Unmarshal(data, &stations); err == nil {
				return stations, nil
			}
		}
	}

	stations, err := s.repo.ListActive(ctx, stationType)
	if err != nil {
		return nil, err
	}

	s.cacheSet(ctx, cacheKey, stations)
	return stations, nil
}

// GetOperatorAssignment retrieves the operator staffing a station on a
// date, or nil when the station is unstaffed that day. Assignments are
// owned by the staffing module, so they are never cached here.
func (s *StationService) GetOperatorAssignment(ctx context.Context, stationID string, date time.Time) (*entities.OperatorAssignment, error) {
	return s.repo.GetOperatorAssignment(ctx, stationID, date)
}

// OptimalStation picks the least-loaded active station of the given type
// for the date. Load counts waiting and in-progress entries; ties break
// toward the lowest station ordinal. The choice is advisory and callers
// may override it with an explicit station.
func (s *StationService) OptimalStation(ctx context.Context, stationType entities.StationType, date time.Time) (*entities.Station, error) {
	loads, err := s.repo.LoadByType(ctx, stationType, date)
	if err != nil {
		return nil, err
	}
	if len(loads) == 0 {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("no active station of type %s", stationType))
	}

	// loads arrive ordered by ordinal, so the first minimum wins ties
	best := loads[0]
	for _, candidate := range loads[1:] {
		if candidate.Load < best.Load {
			best = candidate
		}
	}
	return &best.Station, nil
}

func (s *StationService) cacheSet(ctx context.Context, key string, value interface{}) {
	if s.cache == nil {
		return
	}
	data, err := json.Marshal(value)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, key, data, s.cacheTTLSeconds); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("failed to cache station registry entry")
	}
}
