package memory

import (
	"context"
	"time"

	"github.com/kantina/canteen/internal/server/models"
)

type auditRow struct {
	rec models.AuditRecord
	seq int64
}

type auditRepo struct {
	m *Manager
}

func (r *auditRepo) Create(_ context.Context, rec *models.AuditRecord) (*models.AuditRecord, error) {
	if err := r.m.lock(); err != nil {
		return nil, err
	}
	defer r.m.mu.Unlock()

	rec.ID = newID()
	rec.CreatedAt = r.m.now()
	r.m.audit = append(r.m.audit, &auditRow{rec: *rec, seq: r.m.nextSeq()})
	out := *rec
	return &out, nil
}

func (r *auditRepo) List(_ context.Context) ([]*models.AuditRecord, error) {
	if err := r.m.lock(); err != nil {
		return nil, err
	}
	defer r.m.mu.Unlock()

	rows := append([]*auditRow(nil), r.m.audit...)
	newestFirst(rows, func(a *auditRow) (time.Time, int64) { return a.rec.CreatedAt, a.seq })

	result := make([]*models.AuditRecord, 0, len(rows))
	for _, row := range rows {
		out := row.rec
		result = append(result, &out)
	}
	return result, nil
}
