package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"
	"github.com/doug-martin/goqu/v9/exp"
	"github.com/lib/pq"

	"github.com/clinicops/clinic-flow/backend/internal/domain/entities"
	"github.com/clinicops/clinic-flow/backend/internal/domain/repositories"
	"github.com/clinicops/clinic-flow/backend/internal/infrastructure/clients/postgres"
	apperrors "github.com/clinicops/clinic-flow/backend/pkg/errors"
)

var queueEntryColumns = []interface{}{
	"id", "station_id", "patient_id", "visit_id", "appointment_id",
	"service_id", "queue_type", "priority_level", "special_tags", "status",
	"queue_date", "queue_number", "queue_code", "time_in", "time_started",
	"time_completed", "remarks",
}

// QueueAdapter implements the QueueRepository interface
type QueueAdapter struct {
	client *postgres.Client
	db     *goqu.Database
}

// NewQueueAdapter creates a new queue adapter
func NewQueueAdapter(client *postgres.Client) repositories.QueueRepository {
	return &QueueAdapter{
		client: client,
		db:     goqu.New("postgres", client.DB()),
	}
}

// NextQueueNumber allocates the next number for (station, day) in one
// upsert-and-increment statement. Reading COUNT(*)+1 and inserting is not
// safe under concurrency; the counter row makes the allocation atomic.
func (a *QueueAdapter) NextQueueNumber(ctx context.Context, stationID string, date time.Time) (int, error) {
	query, args, err := a.db.Insert("queue_counters").
		Rows(goqu.Record{
			"station_id":  stationID,
			"queue_date":  dateOf(date),
			"last_number": 1,
		}).
		OnConflict(goqu.DoUpdate(
			"station_id, queue_date",
			goqu.Record{"last_number": goqu.L("queue_counters.last_number + 1")},
		)).
		Returning("last_number").
		ToSQL()
	if err != nil {
		return 0, apperrors.NewInternalError("failed to build counter query", err)
	}

	var number int
	err = executorFrom(ctx, a.client.DB()).QueryRowContext(ctx, query, args...).Scan(&number)
	if err != nil {
		return 0, apperrors.NewInternalError("failed to allocate queue number", err)
	}
	return number, nil
}

// Create inserts a new queue entry
func (a *QueueAdapter) Create(ctx context.Context, entry *entities.QueueEntry) error {
	record := goqu.Record{
		"id":             entry.ID,
		"station_id":     entry.StationID,
		"patient_id":     entry.PatientID,
		"visit_id":       entry.VisitID,
		"appointment_id": entry.AppointmentID,
		"service_id":     entry.ServiceID,
		"queue_type":     entry.QueueType,
		"priority_level": entry.Priority,
		"priority_rank":  entities.PriorityRank(entry.Priority),
		"special_tags":   pq.Array(tagStrings(entry.SpecialTags)),
		"status":         entry.Status,
		"queue_date":     dateOf(entry.QueueDate),
		"queue_number":   entry.QueueNumber,
		"queue_code":     entry.QueueCode,
		"time_in":        entry.TimeIn,
		"remarks":        entry.Remarks,
	}

	query, args, err := a.db.Insert("queue_entries").Rows(record).ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build insert query", err)
	}

	_, err = executorFrom(ctx, a.client.DB()).ExecContext(ctx, query, args...)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.NewAllocationConflictError(
				fmt.Sprintf("queue number %d already taken at station %s", entry.QueueNumber, entry.StationID), err)
		}
		return apperrors.NewInternalError("failed to create queue entry", err)
	}
	return nil
}

// GetByID retrieves a queue entry by ID
func (a *QueueAdapter) GetByID(ctx context.Context, id string) (*entities.QueueEntry, error) {
	query, args, err := a.db.Select(queueEntryColumns...).
		From("queue_entries").
		Where(goqu.Ex{"id": id}).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	entry, err := scanEntry(executorFrom(ctx, a.client.DB()).QueryRowContext(ctx, query, args...))
	if err == sql.ErrNoRows {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("queue entry with id %s not found", id))
	}
	if err != nil {
		return nil, apperrors.NewInternalError("failed to get queue entry", err)
	}
	return entry, nil
}

// CallNext selects the next callable entry for the station and marks it
// called. The candidate row is locked with FOR UPDATE SKIP LOCKED so
// concurrent callers never receive the same entry; the caller must run
// this inside a transaction scope for the lock to span both statements.
func (a *QueueAdapter) CallNext(ctx context.Context, stationID string, date time.Time) (*entities.QueueEntry, error) {
	exec := executorFrom(ctx, a.client.DB())

	query, args, err := a.db.Select("id").
		From("queue_entries").
		Where(goqu.Ex{
			"station_id": stationID,
			"queue_date": dateOf(date),
			"status":     string(entities.QueueStatusWaiting),
		}).
		Order(
			goqu.C("priority_rank").Desc(),
			goqu.C("time_in").Asc(),
			goqu.C("queue_number").Asc(),
		).
		Limit(1).
		ForUpdate(exp.SkipLocked).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build call-next query", err)
	}

	var id string
	err = exec.QueryRowContext(ctx, query, args...).Scan(&id)
	if err == sql.ErrNoRows {
		return nil, apperrors.NewEmptyQueueError(fmt.Sprintf("no waiting entries at station %s", stationID))
	}
	if err != nil {
		return nil, apperrors.NewInternalError("failed to select next entry", err)
	}

	update, args, err := a.db.Update("queue_entries").
		Set(goqu.Record{"status": string(entities.QueueStatusCalled)}).
		Where(goqu.Ex{"id": id, "status": string(entities.QueueStatusWaiting)}).
		Returning(queueEntryColumns...).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build call-next update", err)
	}

	entry, err := scanEntry(exec.QueryRowContext(ctx, update, args...))
	if err != nil {
		return nil, apperrors.NewInternalError("failed to mark entry called", err)
	}
	return entry, nil
}

// ApplyTransition performs the conditional status update for an action.
// The WHERE clause revalidates the current status, so an entry mutated by
// a concurrent operator is never silently coerced.
func (a *QueueAdapter) ApplyTransition(ctx context.Context, id string, action entities.QueueAction, at time.Time) (*entities.QueueEntry, error) {
	allowed := entities.AllowedStatuses(action)
	if len(allowed) == 0 {
		return nil, apperrors.NewValidationError(fmt.Sprintf("unknown queue action %q", action))
	}

	record := goqu.Record{"status": string(entities.TargetStatus(action))}
	switch action {
	case entities.ActionStart:
		record["time_started"] = at
	case entities.ActionComplete:
		record["time_completed"] = at
	case entities.ActionRecall:
		// Re-enters at the back of its priority tier; number and code stay.
		// Any earlier service start is wiped so time_started never
		// predates the fresh time_in.
		record["time_in"] = at
		record["time_started"] = nil
	}

	query, args, err := a.db.Update("queue_entries").
		Set(record).
		Where(goqu.Ex{"id": id, "status": statusStrings(allowed)}).
		Returning(queueEntryColumns...).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build transition query", err)
	}

	entry, err := scanEntry(executorFrom(ctx, a.client.DB()).QueryRowContext(ctx, query, args...))
	if err == sql.ErrNoRows {
		return nil, a.diagnoseTransitionFailure(ctx, id, action)
	}
	if err != nil {
		return nil, apperrors.NewInternalError("failed to apply transition", err)
	}
	return entry, nil
}

// diagnoseTransitionFailure distinguishes a missing entry from one in a
// state the action forbids.
func (a *QueueAdapter) diagnoseTransitionFailure(ctx context.Context, id string, action entities.QueueAction) error {
	query, args, err := a.db.Select("status").
		From("queue_entries").
		Where(goqu.Ex{"id": id}).
		ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build status query", err)
	}

	var status string
	err = executorFrom(ctx, a.client.DB()).QueryRowContext(ctx, query, args...).Scan(&status)
	if err == sql.ErrNoRows {
		return apperrors.NewNotFoundError(fmt.Sprintf("queue entry with id %s not found", id))
	}
	if err != nil {
		return apperrors.NewInternalError("failed to read queue entry status", err)
	}
	return apperrors.NewInvalidStateError(fmt.Sprintf("cannot %s queue entry in status %s", action, status))
}

// CountLiveForVisit counts the visit's live entries, optionally narrowed
// to one station
func (a *QueueAdapter) CountLiveForVisit(ctx context.Context, visitID, stationID string) (int, error) {
	ds := a.db.Select(goqu.COUNT("*")).
		From("queue_entries").
		Where(goqu.Ex{
			"visit_id": visitID,
			"status":   statusStrings(entities.LiveStatuses),
		})
	if stationID != "" {
		ds = ds.Where(goqu.Ex{"station_id": stationID})
	}

	query, args, err := ds.ToSQL()
	if err != nil {
		return 0, apperrors.NewInternalError("failed to build count query", err)
	}

	var count int
	err = executorFrom(ctx, a.client.DB()).QueryRowContext(ctx, query, args...).Scan(&count)
	if err != nil {
		return 0, apperrors.NewInternalError("failed to count live entries", err)
	}
	return count, nil
}

// ListForStation returns the station's entries for a day in call order
func (a *QueueAdapter) ListForStation(ctx context.Context, stationID string, date time.Time, liveOnly bool) ([]*entities.QueueEntry, error) {
	ds := a.db.Select(queueEntryColumns...).
		From("queue_entries").
		Where(goqu.Ex{
			"station_id": stationID,
			"queue_date": dateOf(date),
		})
	if liveOnly {
		ds = ds.Where(goqu.Ex{"status": statusStrings(entities.LiveStatuses)})
	}
	ds = ds.Order(
		goqu.C("priority_rank").Desc(),
		goqu.C("time_in").Asc(),
		goqu.C("queue_number").Asc(),
	)

	query, args, err := ds.ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build list query", err)
	}

	rows, err := executorFrom(ctx, a.client.DB()).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to list queue entries", err)
	}
	defer rows.Close()

	var entries []*entities.QueueEntry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, apperrors.NewInternalError("failed to scan queue entry", err)
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewInternalError("failed to iterate queue entries", err)
	}
	return entries, nil
}

// AggregateStats computes one station's day statistics in a single pass
func (a *QueueAdapter) AggregateStats(ctx context.Context, stationID string, date time.Time) (*entities.StationStats, error) {
	query, args, err := a.db.Select(
		goqu.COUNT("*").As("total"),
		goqu.L("COUNT(*) FILTER (WHERE status = 'waiting')").As("waiting"),
		goqu.L("COUNT(*) FILTER (WHERE status = 'in_progress')").As("in_progress"),
		goqu.L("COUNT(*) FILTER (WHERE status = 'done')").As("completed"),
		goqu.L("COUNT(*) FILTER (WHERE status = 'skipped')").As("skipped"),
		goqu.L("COALESCE(AVG(EXTRACT(EPOCH FROM (time_started - time_in)) / 60) FILTER (WHERE time_started IS NOT NULL), 0)").As("avg_wait_minutes"),
		goqu.L("COALESCE(AVG(EXTRACT(EPOCH FROM (time_completed - time_in)) / 60) FILTER (WHERE status = 'done' AND time_completed IS NOT NULL), 0)").As("avg_turnaround_minutes"),
	).
		From("queue_entries").
		Where(goqu.Ex{
			"station_id": stationID,
			"queue_date": dateOf(date),
		}).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build stats query", err)
	}

	stats := &entities.StationStats{StationID: stationID, Date: date}
	err = executorFrom(ctx, a.client.DB()).QueryRowContext(ctx, query, args...).Scan(
		&stats.Total,
		&stats.Waiting,
		&stats.InProgress,
		&stats.Completed,
		&stats.Skipped,
		&stats.AvgWaitMinutes,
		&stats.AvgTurnaroundMinutes,
	)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to aggregate station stats", err)
	}
	return stats, nil
}

// rowScanner is satisfied by *sql.Row and *sql.Rows
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanEntry(row rowScanner) (*entities.QueueEntry, error) {
	entry := &entities.QueueEntry{}
	var tags pq.StringArray
	var timeStarted, timeCompleted sql.NullTime
	var remarks sql.NullString

	err := row.Scan(
		&entry.ID,
		&entry.StationID,
		&entry.PatientID,
		&entry.VisitID,
		&entry.AppointmentID,
		&entry.ServiceID,
		&entry.QueueType,
		&entry.Priority,
		&tags,
		&entry.Status,
		&entry.QueueDate,
		&entry.QueueNumber,
		&entry.QueueCode,
		&entry.TimeIn,
		&timeStarted,
		&timeCompleted,
		&remarks,
	)
	if err != nil {
		return nil, err
	}

	for _, tag := range tags {
		entry.SpecialTags = append(entry.SpecialTags, entities.SpecialTag(tag))
	}
	if timeStarted.Valid {
		entry.TimeStarted = &timeStarted.Time
	}
	if timeCompleted.Valid {
		entry.TimeCompleted = &timeCompleted.Time
	}
	entry.Remarks = remarks.String
	return entry, nil
}

func dateOf(t time.Time) string {
	return t.Format("2006-01-02")
}

func statusStrings(statuses []entities.QueueStatus) []string {
	out := make([]string, len(statuses))
	for i, s := range statuses {
		out[i] = string(s)
	}
	return out
}

func tagStrings(tags []entities.SpecialTag) []string {
	out := make([]string, len(tags))
	for i, t := range tags {
		out[i] = string(t)
	}
	return out
}

func isUniqueViolation(err error) bool {
	if pqErr, ok := err.(*pq.Error); ok {
		return pqErr.Code == "23505"
	}
	return false
}
