package repositories

import (
	"context"

	"github.com/clinicops/clinic-flow/backend/internal/domain/entities"
)

// AuditRepository defines the append-only queue activity log
type AuditRepository interface {
	// Append writes one audit record; records are never updated or deleted
	Append(ctx context.Context, record *entities.AuditRecord) error

	// ListForEntry returns the audit trail for a queue entry, oldest first
	ListForEntry(ctx context.Context, queueEntryID string) ([]*entities.AuditRecord, error)
}
