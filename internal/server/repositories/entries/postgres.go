// Package entries provides PostgreSQL-backed storage for canteen
// registrations.
package entries

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/kantina/canteen/internal/common"
	"github.com/kantina/canteen/internal/dbx"
	"github.com/kantina/canteen/internal/server/models"
)

const entryColumns = `id, name, company, meal, amount, representative, invoice_shipped, created_at`

// PostgresRepository implements entry storage over a dbx.DBTX (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEntry(row rowScanner) (*models.Entry, error) {
	e := &models.Entry{}
	err := row.Scan(&e.ID, &e.Name, &e.Company, &e.Meal, &e.Amount, &e.Representative, &e.Invoiced, &e.CreatedAt)
	if err != nil {
		return nil, err
	}
	return e, nil
}

// Create inserts a pending entry. A zero CreatedAt is filled by the database;
// a non-zero one (imports) is stored as given.
func (r *PostgresRepository) Create(ctx context.Context, entry *models.Entry) (*models.Entry, error) {
	query :=
		`INSERT INTO canteen_entries (name, company, meal, amount, representative, created_at)
		 VALUES ($1, $2, $3, $4, $5, COALESCE($6::timestamptz, NOW()))
		 RETURNING ` + entryColumns

	var createdAt sql.NullTime
	if !entry.CreatedAt.IsZero() {
		createdAt = sql.NullTime{Time: entry.CreatedAt, Valid: true}
	}

	row := r.db.QueryRowContext(ctx, query,
		entry.Name, entry.Company, entry.Meal, entry.Amount, entry.Representative, createdAt)
	saved, err := scanEntry(row)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return saved, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.Entry, error) {
	query := `SELECT ` + entryColumns + ` FROM canteen_entries WHERE id = $1`

	e, err := scanEntry(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return e, nil
}

// List returns entries in the given partition, newest first.
func (r *PostgresRepository) List(ctx context.Context, status models.EntryStatus) ([]*models.Entry, error) {
	query := `SELECT ` + entryColumns + ` FROM canteen_entries`
	var args []any

	switch status {
	case models.StatusPending:
		query += ` WHERE invoice_shipped = $1`
		args = append(args, false)
	case models.StatusInvoiced:
		query += ` WHERE invoice_shipped = $1`
		args = append(args, true)
	}
	query += ` ORDER BY created_at DESC, id DESC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	result := make([]*models.Entry, 0)
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return result, nil
}

// SetInvoiced writes the invoiced flag and returns the updated row.
func (r *PostgresRepository) SetInvoiced(ctx context.Context, id string, invoiced bool) (*models.Entry, error) {
	query :=
		`UPDATE canteen_entries SET invoice_shipped = $2
		 WHERE id = $1
		 RETURNING ` + entryColumns

	e, err := scanEntry(r.db.QueryRowContext(ctx, query, id, invoiced))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return e, nil
}
