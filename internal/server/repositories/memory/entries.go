package memory

import (
	"context"
	"time"

	"github.com/kantina/canteen/internal/common"
	"github.com/kantina/canteen/internal/server/models"
)

type entryRow struct {
	entry models.Entry
	seq   int64
}

type entryRepo struct {
	m *Manager
}

func (r *entryRepo) Create(_ context.Context, entry *models.Entry) (*models.Entry, error) {
	if err := r.m.lock(); err != nil {
		return nil, err
	}
	defer r.m.mu.Unlock()

	saved := *entry
	saved.ID = newID()
	saved.Invoiced = false
	saved.Amount = saved.Amount.Round(2)
	if saved.CreatedAt.IsZero() {
		saved.CreatedAt = r.m.now()
	}
	r.m.entries[saved.ID] = &entryRow{entry: saved, seq: r.m.nextSeq()}
	return &saved, nil
}

func (r *entryRepo) GetByID(_ context.Context, id string) (*models.Entry, error) {
	if err := r.m.lock(); err != nil {
		return nil, err
	}
	defer r.m.mu.Unlock()

	row, ok := r.m.entries[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	out := row.entry
	return &out, nil
}

func (r *entryRepo) List(_ context.Context, status models.EntryStatus) ([]*models.Entry, error) {
	if err := r.m.lock(); err != nil {
		return nil, err
	}
	defer r.m.mu.Unlock()

	rows := make([]*entryRow, 0, len(r.m.entries))
	for _, row := range r.m.entries {
		if status.Matches(&row.entry) {
			rows = append(rows, row)
		}
	}
	newestFirst(rows, func(e *entryRow) (time.Time, int64) { return e.entry.CreatedAt, e.seq })

	result := make([]*models.Entry, 0, len(rows))
	for _, row := range rows {
		out := row.entry
		result = append(result, &out)
	}
	return result, nil
}

func (r *entryRepo) SetInvoiced(_ context.Context, id string, invoiced bool) (*models.Entry, error) {
	if err := r.m.lock(); err != nil {
		return nil, err
	}
	defer r.m.mu.Unlock()

	row, ok := r.m.entries[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	row.entry.Invoiced = invoiced
	out := row.entry
	return &out, nil
}
