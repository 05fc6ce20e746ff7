package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"
	"github.com/google/uuid"

	"github.com/clinicops/clinic-flow/backend/internal/domain/entities"
	"github.com/clinicops/clinic-flow/backend/internal/infrastructure/clients/postgres"
	"github.com/clinicops/clinic-flow/backend/pkg/config"
)

const schema = `
CREATE TABLE IF NOT EXISTS stations (
	id UUID PRIMARY KEY,
	station_type TEXT NOT NULL,
	ordinal INT NOT NULL,
	name TEXT NOT NULL,
	active BOOLEAN NOT NULL DEFAULT TRUE,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	UNIQUE (station_type, ordinal)
);

CREATE TABLE IF NOT EXISTS operator_assignments (
	id UUID PRIMARY KEY,
	station_id UUID NOT NULL REFERENCES stations(id),
	operator_id UUID NOT NULL,
	assign_date DATE NOT NULL,
	shift TEXT NOT NULL DEFAULT '',
	UNIQUE (station_id, assign_date, shift)
);

CREATE TABLE IF NOT EXISTS appointments (
	id UUID PRIMARY KEY,
	patient_id UUID NOT NULL,
	facility_id UUID NOT NULL,
	service_id UUID NOT NULL,
	scheduled_at TIMESTAMPTZ NOT NULL,
	status TEXT NOT NULL,
	verification_code TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS visits (
	id UUID PRIMARY KEY,
	appointment_id UUID NOT NULL UNIQUE REFERENCES appointments(id),
	patient_id UUID NOT NULL,
	time_in TIMESTAMPTZ NOT NULL,
	time_out TIMESTAMPTZ,
	attendance_status TEXT NOT NULL,
	remarks TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS queue_entries (
	id UUID PRIMARY KEY,
	station_id UUID NOT NULL REFERENCES stations(id),
	patient_id UUID NOT NULL,
	visit_id UUID NOT NULL REFERENCES visits(id),
	appointment_id UUID NOT NULL,
	service_id UUID NOT NULL,
	queue_type TEXT NOT NULL,
	priority_level TEXT NOT NULL,
	priority_rank INT NOT NULL,
	special_tags TEXT[] NOT NULL DEFAULT '{}',
	status TEXT NOT NULL,
	queue_date DATE NOT NULL,
	queue_number INT NOT NULL,
	queue_code TEXT NOT NULL,
	time_in TIMESTAMPTZ NOT NULL,
	time_started TIMESTAMPTZ,
	time_completed TIMESTAMPTZ,
	remarks TEXT NOT NULL DEFAULT '',
	UNIQUE (station_id, queue_date, queue_number)
);

CREATE INDEX IF NOT EXISTS idx_queue_entries_call_order
	ON queue_entries (station_id, queue_date, status, priority_rank, time_in);

CREATE TABLE IF NOT EXISTS queue_counters (
	station_id UUID NOT NULL,
	queue_date DATE NOT NULL,
	last_number INT NOT NULL DEFAULT 0,
	PRIMARY KEY (station_id, queue_date)
);

CREATE TABLE IF NOT EXISTS queue_audit_log (
	id UUID PRIMARY KEY,
	queue_entry_id UUID NOT NULL,
	station_id UUID NOT NULL,
	operator_id UUID NOT NULL,
	action TEXT NOT NULL,
	reason TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
`

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	pgClient, err := postgres.NewClient(&cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to DB: %v", err)
	}
	defer pgClient.Close()

	ctx := context.Background()
	db := goqu.New("postgres", pgClient.DB())

	if os.Getenv("RESET_DB") == "true" {
		log.Println("RESET_DB=true detected, truncating tables before seeding")
		_, err := pgClient.DB().ExecContext(ctx, `
			TRUNCATE TABLE
				queue_audit_log,
				queue_counters,
				queue_entries,
				visits,
				appointments,
				operator_assignments,
				stations
			RESTART IDENTITY CASCADE
		`)
		if err != nil {
			log.Printf("Failed to reset tables (continuing): %v", err)
		}
	}

	if _, err := pgClient.DB().ExecContext(ctx, schema); err != nil {
		log.Fatalf("Failed to create schema: %v", err)
	}
	log.Println("Schema ensured")

	// 1. Seed stations: two triage desks, billing, consultation rooms,
	// lab and pharmacy
	stationDefs := []struct {
		Type    entities.StationType
		Ordinal int
		Name    string
	}{
		{entities.StationTypeTriage, 1, "Triage Desk 1"},
		{entities.StationTypeTriage, 2, "Triage Desk 2"},
		{entities.StationTypeBilling, 1, "Billing Counter 1"},
		{entities.StationTypeDocument, 1, "Records Window 1"},
		{entities.StationTypeConsultation, 1, "Consultation Room 1"},
		{entities.StationTypeConsultation, 2, "Consultation Room 2"},
		{entities.StationTypeLab, 1, "Laboratory 1"},
		{entities.StationTypePharmacy, 1, "Pharmacy Counter 1"},
	}

	stationIDs := make([]string, 0, len(stationDefs))
	for _, def := range stationDefs {
		id := uuid.New().String()
		stationIDs = append(stationIDs, id)
		query, args, err := db.Insert("stations").Rows(goqu.Record{
			"id":           id,
			"station_type": string(def.Type),
			"ordinal":      def.Ordinal,
			"name":         def.Name,
			"active":       true,
			"created_at":   time.Now(),
			"updated_at":   time.Now(),
		}).OnConflict(goqu.DoNothing()).ToSQL()
		if err != nil {
			log.Fatalf("Failed to build station insert: %v", err)
		}
		if _, err := pgClient.DB().ExecContext(ctx, query, args...); err != nil {
			log.Printf("Failed to create station %s: %v", def.Name, err)
		}
	}
	log.Printf("Seeded %d stations", len(stationDefs))

	// 2. Seed today's operator assignments, one operator per station
	today := time.Now().Format("2006-01-02")
	for _, stationID := range stationIDs {
		query, args, err := db.Insert("operator_assignments").Rows(goqu.Record{
			"id":          uuid.New().String(),
			"station_id":  stationID,
			"operator_id": uuid.New().String(),
			"assign_date": today,
			"shift":       "day",
		}).OnConflict(goqu.DoNothing()).ToSQL()
		if err != nil {
			log.Fatalf("Failed to build assignment insert: %v", err)
		}
		if _, err := pgClient.DB().ExecContext(ctx, query, args...); err != nil {
			log.Printf("Failed to create assignment for station %s: %v", stationID, err)
		}
	}

	// 3. Seed a day of confirmed appointments, one every 15 minutes from
	// 8am, each with a manual-entry verification code
	facilityID := uuid.New().String()
	serviceID := uuid.New().String()
	start := time.Now().Truncate(24 * time.Hour).Add(8 * time.Hour)
	count := 20
	for i := 0; i < count; i++ {
		query, args, err := db.Insert("appointments").Rows(goqu.Record{
			"id":                uuid.New().String(),
			"patient_id":        uuid.New().String(),
			"facility_id":       facilityID,
			"service_id":        serviceID,
			"scheduled_at":      start.Add(time.Duration(i) * 15 * time.Minute),
			"status":            string(entities.AppointmentStatusConfirmed),
			"verification_code": fmt.Sprintf("VC-%04d", 1000+i),
			"created_at":        time.Now(),
			"updated_at":        time.Now(),
		}).ToSQL()
		if err != nil {
			log.Fatalf("Failed to build appointment insert: %v", err)
		}
		if _, err := pgClient.DB().ExecContext(ctx, query, args...); err != nil {
			log.Printf("Failed to create appointment %d: %v", i, err)
		}
	}
	log.Printf("Seeded %d confirmed appointments starting %s", count, start.Format(time.RFC3339))

	log.Println("Seeding complete")
}
