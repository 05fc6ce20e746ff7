package database

import (
	"context"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"

	"github.com/clinicops/clinic-flow/backend/internal/domain/entities"
	"github.com/clinicops/clinic-flow/backend/internal/domain/repositories"
	"github.com/clinicops/clinic-flow/backend/internal/infrastructure/clients/postgres"
	apperrors "github.com/clinicops/clinic-flow/backend/pkg/errors"
)

// AuditAdapter implements the AuditRepository interface over the
// append-only queue_audit_log table
type AuditAdapter struct {
	client *postgres.Client
	db     *goqu.Database
}

// NewAuditAdapter creates a new audit adapter
func NewAuditAdapter(client *postgres.Client) repositories.AuditRepository {
	return &AuditAdapter{
		client: client,
		db:     goqu.New("postgres", client.DB()),
	}
}

// Append writes one audit record
func (a *AuditAdapter) Append(ctx context.Context, record *entities.AuditRecord) error {
	row := goqu.Record{
		"id":             record.ID,
		"queue_entry_id": record.QueueEntryID,
		"station_id":     record.StationID,
		"operator_id":    record.OperatorID,
		"action":         record.Action,
		"reason":         record.Reason,
		"created_at":     record.CreatedAt,
	}

	query, args, err := a.db.Insert("queue_audit_log").Rows(row).ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build audit insert", err)
	}

	_, err = executorFrom(ctx, a.client.DB()).ExecContext(ctx, query, args...)
	if err != nil {
		return apperrors.NewInternalError("failed to append audit record", err)
	}
	return nil
}

// ListForEntry returns the audit trail for one queue entry, oldest first
func (a *AuditAdapter) ListForEntry(ctx context.Context, queueEntryID string) ([]*entities.AuditRecord, error) {
	query, args, err := a.db.Select(
		"id", "queue_entry_id", "station_id", "operator_id", "action",
		"reason", "created_at",
	).From("queue_audit_log").
		Where(goqu.Ex{"queue_entry_id": queueEntryID}).
		Order(goqu.C("created_at").Asc()).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build audit query", err)
	}

	rows, err := executorFrom(ctx, a.client.DB()).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to list audit records", err)
	}
	defer rows.Close()

	var records []*entities.AuditRecord
	for rows.Next() {
		record := &entities.AuditRecord{}
		err := rows.Scan(
			&record.ID,
			&record.QueueEntryID,
			&record.StationID,
			&record.OperatorID,
			&record.Action,
			&record.Reason,
			&record.CreatedAt,
		)
		if err != nil {
			return nil, apperrors.NewInternalError("failed to scan audit record", err)
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewInternalError("failed to iterate audit records", err)
	}
	return records, nil
}
