package repomanager

import (
	"context"
	"database/sql"

	"github.com/kantina/canteen/internal/dbx"
	"github.com/kantina/canteen/internal/server/repositories/auditlogs"
	"github.com/kantina/canteen/internal/server/repositories/entries"
	"github.com/kantina/canteen/internal/server/repositories/sessions"
	"github.com/kantina/canteen/internal/server/repositories/users"
)

// RepositoryManager vends repositories bound to a *sql.DB or an open *sql.Tx.
type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	Sessions(db dbx.DBTX) sessions.Repository
	Entries(db dbx.DBTX) entries.Repository
	AuditLogs(db dbx.DBTX) auditlogs.Repository
}
