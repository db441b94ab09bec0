package entries

import (
	"context"

	"github.com/kantina/canteen/internal/server/models"
)

// Repository persists meal registrations.
type Repository interface {
	Create(ctx context.Context, entry *models.Entry) (*models.Entry, error)
	GetByID(ctx context.Context, id string) (*models.Entry, error)
	List(ctx context.Context, status models.EntryStatus) ([]*models.Entry, error)
	SetInvoiced(ctx context.Context, id string, invoiced bool) (*models.Entry, error)
}
