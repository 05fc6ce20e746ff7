package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"
	"github.com/doug-martin/goqu/v9/exp"

	"github.com/clinicops/clinic-flow/backend/internal/domain/entities"
	"github.com/clinicops/clinic-flow/backend/internal/domain/repositories"
	"github.com/clinicops/clinic-flow/backend/internal/infrastructure/clients/postgres"
	apperrors "github.com/clinicops/clinic-flow/backend/pkg/errors"
)

// StationAdapter implements the StationRepository interface
type StationAdapter struct {
	client *postgres.Client
	db     *goqu.Database
}

// NewStationAdapter creates a new station adapter
func NewStationAdapter(client *postgres.Client) repositories.StationRepository {
	return &StationAdapter{
		client: client,
		db:     goqu.New("postgres", client.DB()),
	}
}

// GetByID retrieves a station by ID
func (a *StationAdapter) GetByID(ctx context.Context, id string) (*entities.Station, error) {
	query, args, err := a.db.Select(
		"id", "station_type", "ordinal", "name", "active", "created_at", "updated_at",
	).From("stations").
		Where(goqu.Ex{"id": id}).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	station := &entities.Station{}
	err = executorFrom(ctx, a.client.DB()).QueryRowContext(ctx, query, args...).Scan(
		&station.ID,
		&station.Type,
		&station.Ordinal,
		&station.Name,
		&station.Active,
		&station.CreatedAt,
		&station.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("station with id %s not found", id))
	}
	if err != nil {
		return nil, apperrors.NewInternalError("failed to get station", err)
	}
	return station, nil
}

// ListActive retrieves active stations, optionally filtered by type
func (a *StationAdapter) ListActive(ctx context.Context, stationType entities.StationType) ([]*entities.Station, error) {
	ds := a.db.Select(
		"id", "station_type", "ordinal", "name", "active", "created_at", "updated_at",
	).From("stations").
		Where(goqu.Ex{"active": true})
	if stationType != "" {
		ds = ds.Where(goqu.Ex{"station_type": stationType})
	}
	ds = ds.Order(goqu.C("station_type").Asc(), goqu.C("ordinal").Asc())

	query, args, err := ds.ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build list query", err)
	}

	rows, err := executorFrom(ctx, a.client.DB()).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to list stations", err)
	}
	defer rows.Close()

	var stations []*entities.Station
	for rows.Next() {
		station := &entities.Station{}
		err := rows.Scan(
			&station.ID,
			&station.Type,
			&station.Ordinal,
			&station.Name,
			&station.Active,
			&station.CreatedAt,
			&station.UpdatedAt,
		)
		if err != nil {
			return nil, apperrors.NewInternalError("failed to scan station", err)
		}
		stations = append(stations, station)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewInternalError("failed to iterate stations", err)
	}
	return stations, nil
}

// GetOperatorAssignment retrieves the operator staffing a station on a
// date. A missing assignment is not an error; the station is simply
// unstaffed that day.
func (a *StationAdapter) GetOperatorAssignment(ctx context.Context, stationID string, date time.Time) (*entities.OperatorAssignment, error) {
	query, args, err := a.db.Select(
		"id", "station_id", "operator_id", "assign_date", "shift",
	).From("operator_assignments").
		Where(goqu.Ex{
			"station_id":  stationID,
			"assign_date": dateOf(date),
		}).
		Limit(1).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build assignment query", err)
	}

	assignment := &entities.OperatorAssignment{}
	err = executorFrom(ctx, a.client.DB()).QueryRowContext(ctx, query, args...).Scan(
		&assignment.ID,
		&assignment.StationID,
		&assignment.OperatorID,
		&assignment.AssignDate,
		&assignment.Shift,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, apperrors.NewInternalError("failed to get operator assignment", err)
	}
	return assignment, nil
}

// LoadByType returns live-entry counts for every active station of the
// given type, ordered by ordinal. Stations with no entries count zero.
//
// The candidate rows are locked FOR UPDATE first so that concurrent
// auto check-ins pick a station one at a time: the second transaction
// blocks here until the first commits its entry, then sees that entry
// in the counts. The lock cannot go on the aggregate query itself.
func (a *StationAdapter) LoadByType(ctx context.Context, stationType entities.StationType, date time.Time) ([]entities.StationLoad, error) {
	lockQuery, lockArgs, err := a.db.Select("id").
		From("stations").
		Where(goqu.Ex{"active": true, "station_type": stationType}).
		Order(goqu.C("ordinal").Asc()).
		ForUpdate(exp.Wait).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build station lock query", err)
	}
	if _, err := executorFrom(ctx, a.client.DB()).ExecContext(ctx, lockQuery, lockArgs...); err != nil {
		return nil, apperrors.NewInternalError("failed to lock candidate stations", err)
	}

	query, args, err := a.db.Select(
		goqu.I("s.id"),
		goqu.I("s.station_type"),
		goqu.I("s.ordinal"),
		goqu.I("s.name"),
		goqu.I("s.active"),
		goqu.I("s.created_at"),
		goqu.I("s.updated_at"),
		goqu.COUNT(goqu.I("q.id")).As("load"),
	).
		From(goqu.T("stations").As("s")).
		LeftJoin(
			goqu.T("queue_entries").As("q"),
			goqu.On(
				goqu.I("q.station_id").Eq(goqu.I("s.id")),
				goqu.I("q.queue_date").Eq(dateOf(date)),
				goqu.I("q.status").In(statusStrings(entities.LiveStatuses)),
			),
		).
		Where(goqu.Ex{"s.active": true, "s.station_type": stationType}).
		GroupBy(
			goqu.I("s.id"), goqu.I("s.station_type"), goqu.I("s.ordinal"),
			goqu.I("s.name"), goqu.I("s.active"), goqu.I("s.created_at"),
			goqu.I("s.updated_at"),
		).
		Order(goqu.I("s.ordinal").Asc()).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build load query", err)
	}

	rows, err := executorFrom(ctx, a.client.DB()).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to query station load", err)
	}
	defer rows.Close()

	var loads []entities.StationLoad
	for rows.Next() {
		var load entities.StationLoad
		err := rows.Scan(
			&load.Station.ID,
			&load.Station.Type,
			&load.Station.Ordinal,
			&load.Station.Name,
			&load.Station.Active,
			&load.Station.CreatedAt,
			&load.Station.UpdatedAt,
			&load.Load,
		)
		if err != nil {
			return nil, apperrors.NewInternalError("failed to scan station load", err)
		}
		loads = append(loads, load)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewInternalError("failed to iterate station load", err)
	}
	return loads, nil
}
