package database_test

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clinicops/clinic-flow/backend/internal/adapters/database"
	"github.com/clinicops/clinic-flow/backend/internal/domain/entities"
)

var stationColumns = []string{
	"id", "station_type", "ordinal", "name", "active", "created_at", "updated_at",
}

func TestStationAdapter_LoadByType_LocksCandidatesBeforeCounting(t *testing.T) {
	client, mock := setupMockClient(t)
	adapter := database.NewStationAdapter(client)
	now := time.Now()

	// The candidate rows must be claimed with FOR UPDATE before the counts
	// are read, so two transactions picking a station at once serialize
	// here instead of both observing the same loads.
	mock.ExpectExec(`SELECT "id" FROM "stations" .+ FOR UPDATE`).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectQuery(`SELECT .+COUNT\("q"\."id"\) AS "load" FROM "stations"`).
		WillReturnRows(sqlmock.NewRows(append(stationColumns, "load")).
			AddRow("station-1", "triage", 1, "Triage 1", true, now, now, 3).
			AddRow("station-2", "triage", 2, "Triage 2", true, now, now, 0))

	loads, err := adapter.LoadByType(context.Background(), entities.StationTypeTriage, now)

	require.NoError(t, err)
	require.Len(t, loads, 2)
	assert.Equal(t, "station-1", loads[0].Station.ID)
	assert.Equal(t, 3, loads[0].Load)
	assert.Equal(t, "station-2", loads[1].Station.ID)
	assert.Equal(t, 0, loads[1].Load)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStationAdapter_LoadByType_NoActiveStations(t *testing.T) {
	client, mock := setupMockClient(t)
	adapter := database.NewStationAdapter(client)

	mock.ExpectExec(`SELECT "id" FROM "stations" .+ FOR UPDATE`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(`SELECT .+ FROM "stations"`).
		WillReturnRows(sqlmock.NewRows(append(stationColumns, "load")))

	loads, err := adapter.LoadByType(context.Background(), entities.StationTypeLab, time.Now())

	require.NoError(t, err)
	assert.Empty(t, loads)
}

func TestStationAdapter_GetByID_NotFound(t *testing.T) {
	client, mock := setupMockClient(t)
	adapter := database.NewStationAdapter(client)

	mock.ExpectQuery(`SELECT .+ FROM "stations"`).
		WillReturnRows(sqlmock.NewRows(stationColumns))

	_, err := adapter.GetByID(context.Background(), "missing")

	assert.Error(t, err)
}
