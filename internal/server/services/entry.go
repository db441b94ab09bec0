package services

import (
	"context"
	"database/sql"

	"github.com/kantina/canteen/internal/common"
	"github.com/kantina/canteen/internal/dbx"
	"github.com/kantina/canteen/internal/logging"
	"github.com/kantina/canteen/internal/server/auth"
	"github.com/kantina/canteen/internal/server/models"
	"github.com/kantina/canteen/internal/server/repositories/repomanager"
)

// EntryService runs the registration workflow. An entry is either pending or
// invoiced; every transition writes exactly one audit record in the same
// transaction as the flag change.
type EntryService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	log         logging.Logger
}

func NewEntryService(db *sql.DB, m repomanager.RepositoryManager, log logging.Logger) *EntryService {
	return &EntryService{
		db:          db,
		repomanager: m,
		log:         log.With("module", "entries"),
	}
}

// Submit stores a new pending entry. No session is required.
func (s *EntryService) Submit(ctx context.Context, in EntryInput) (*models.Entry, error) {
	e, err := NewEntry(in)
	if err != nil {
		return nil, err
	}

	saved, err := s.repomanager.Entries(s.db).Create(ctx, e)
	if err != nil {
		return nil, storeError("create entry", err)
	}

	s.log.Info(ctx, "entry submitted", "entry_id", saved.ID, "company", saved.Company)
	return saved, nil
}

func (s *EntryService) MarkInvoiced(ctx context.Context, sess auth.SessionContext, id string) (*models.Entry, error) {
	return s.transition(ctx, sess, id, true)
}

func (s *EntryService) MarkPending(ctx context.Context, sess auth.SessionContext, id string) (*models.Entry, error) {
	return s.transition(ctx, sess, id, false)
}

// SetInvoiced moves the entry to the requested side of the workflow.
func (s *EntryService) SetInvoiced(ctx context.Context, sess auth.SessionContext, id string, invoiced bool) (*models.Entry, error) {
	if invoiced {
		return s.MarkInvoiced(ctx, sess, id)
	}
	return s.MarkPending(ctx, sess, id)
}

// transition logs every attempt on an existing entry, even when the flag is
// already in the requested state.
func (s *EntryService) transition(ctx context.Context, sess auth.SessionContext, id string, invoiced bool) (*models.Entry, error) {
	if err := requireApproved(sess); err != nil {
		return nil, err
	}

	action := common.ActionMovedToRegistrations
	if invoiced {
		action = common.ActionMovedToInvoiced
	}

	var updated *models.Entry
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		entries := s.repomanager.Entries(tx)

		current, err := entries.GetByID(ctx, id)
		if err != nil {
			return storeError("load entry", err)
		}

		updated, err = entries.SetInvoiced(ctx, id, invoiced)
		if err != nil {
			return storeError("update entry", err)
		}

		if _, err := s.repomanager.AuditLogs(tx).Create(ctx, models.NewAuditRecord(action, current)); err != nil {
			return storeError("write audit record", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info(ctx, "entry moved", "entry_id", id, "action", action, "user_id", sess.UserID)
	return updated, nil
}

// ListEntries returns the entries selected by status, newest first.
func (s *EntryService) ListEntries(ctx context.Context, sess auth.SessionContext, status models.EntryStatus) ([]*models.Entry, error) {
	if err := requireApproved(sess); err != nil {
		return nil, err
	}
	if !status.Valid() {
		return nil, validationError("unknown status %q", status)
	}

	list, err := s.repomanager.Entries(s.db).List(ctx, status)
	if err != nil {
		return nil, storeError("list entries", err)
	}
	return list, nil
}

func (s *EntryService) ListPending(ctx context.Context, sess auth.SessionContext) ([]*models.Entry, error) {
	return s.ListEntries(ctx, sess, models.StatusPending)
}

func (s *EntryService) ListInvoiced(ctx context.Context, sess auth.SessionContext) ([]*models.Entry, error) {
	return s.ListEntries(ctx, sess, models.StatusInvoiced)
}

func (s *EntryService) ListAuditLog(ctx context.Context, sess auth.SessionContext) ([]*models.AuditRecord, error) {
	if err := requireApproved(sess); err != nil {
		return nil, err
	}

	list, err := s.repomanager.AuditLogs(s.db).List(ctx)
	if err != nil {
		return nil, storeError("list audit log", err)
	}
	return list, nil
}

// RecordAudit appends a manually entered activity log line.
func (s *EntryService) RecordAudit(ctx context.Context, sess auth.SessionContext, in AuditInput) (*models.AuditRecord, error) {
	if err := requireApproved(sess); err != nil {
		return nil, err
	}

	rec, err := NewManualAuditRecord(in)
	if err != nil {
		return nil, err
	}

	saved, err := s.repomanager.AuditLogs(s.db).Create(ctx, rec)
	if err != nil {
		return nil, storeError("write audit record", err)
	}
	return saved, nil
}
