package services

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/kantina/canteen/internal/dbx"
	"github.com/kantina/canteen/internal/logging"
	"github.com/kantina/canteen/internal/server/auth"
	"github.com/kantina/canteen/internal/server/config"
	"github.com/kantina/canteen/internal/server/models"
	"github.com/kantina/canteen/internal/server/repositories/auditlogs"
	"github.com/kantina/canteen/internal/server/repositories/memory"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

var (
	approvedSession = auth.SessionContext{SessionID: "sid", UserID: "staff", IsApproved: true}
	pendingSession  = auth.SessionContext{SessionID: "sid", UserID: "newbie"}
)

func newMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, mock.ExpectationsWereMet())
		db.Close()
	})
	return db, mock
}

func testConfig() *config.Config {
	return &config.Config{
		SessionSecret:   "test-secret",
		SessionTTL:      time.Hour,
		BcryptCost:      bcrypt.MinCost,
		S3Bucket:        "canteen-exports",
		S3Region:        "us-east-1",
		S3RootUser:      "admin",
		S3RootPassword:  "secretpassword",
		S3BaseEndpoint:  "http://127.0.0.1:9000",
		ExportURLExpiry: 15 * time.Minute,
	}
}

func testLogger() logging.Logger {
	return logging.NewDiscardLogger()
}

// failingAudit swaps in an audit repository whose writes always fail.
type failingAudit struct {
	*memory.Manager
	err error
}

func (m *failingAudit) AuditLogs(dbx.DBTX) auditlogs.Repository {
	return &failingAuditRepo{err: m.err}
}

type failingAuditRepo struct {
	err error
}

func (r *failingAuditRepo) Create(context.Context, *models.AuditRecord) (*models.AuditRecord, error) {
	return nil, r.err
}

func (r *failingAuditRepo) List(context.Context) ([]*models.AuditRecord, error) {
	return nil, r.err
}

var errBoom = errors.New("boom")
