package auditlogs

import (
	"context"

	"github.com/kantina/canteen/internal/server/models"
)

// Repository is the append-only activity log.
type Repository interface {
	Create(ctx context.Context, rec *models.AuditRecord) (*models.AuditRecord, error)
	List(ctx context.Context) ([]*models.AuditRecord, error)
}
