// Package auditlogs stores the activity log of invoicing transitions.
package auditlogs

import (
	"context"
	"fmt"

	"github.com/kantina/canteen/internal/dbx"
	"github.com/kantina/canteen/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create appends rec and fills in ID and CreatedAt.
func (r *PostgresRepository) Create(ctx context.Context, rec *models.AuditRecord) (*models.AuditRecord, error) {
	query := `
		INSERT INTO activity_logs (action, person_name, company, amount, meal, representative)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at
	`
	err := r.db.QueryRowContext(ctx, query,
		rec.Action, rec.PersonName, rec.Company, rec.Amount, rec.Meal, rec.Representative).Scan(&rec.ID, &rec.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return rec, nil
}

// List returns every record, newest first.
func (r *PostgresRepository) List(ctx context.Context) ([]*models.AuditRecord, error) {
	query := `
		SELECT id, action, person_name, company, amount, meal, representative, created_at
		FROM activity_logs
		ORDER BY created_at DESC, id DESC
	`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	result := make([]*models.AuditRecord, 0)
	for rows.Next() {
		rec := &models.AuditRecord{}
		if err := rows.Scan(&rec.ID, &rec.Action, &rec.PersonName, &rec.Company, &rec.Amount, &rec.Meal, &rec.Representative, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return result, nil
}
