// Package memory is an in-process implementation of the repository set. It
// ignores the DBTX it is handed, so transactions are not rolled back; it is
// meant for tests and local tooling.
package memory

import (
	"context"
	"database/sql"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/kantina/canteen/internal/dbx"
	"github.com/kantina/canteen/internal/server/repositories/auditlogs"
	"github.com/kantina/canteen/internal/server/repositories/entries"
	"github.com/kantina/canteen/internal/server/repositories/sessions"
	"github.com/kantina/canteen/internal/server/repositories/users"
)

// Manager holds every table in memory. Setting Err makes all repositories
// fail with it, which is how tests simulate an unavailable store.
type Manager struct {
	mu  sync.Mutex
	seq int64
	now func() time.Time

	Err error

	users    map[string]*userRow
	sessions map[string]*sessionRow
	entries  map[string]*entryRow
	audit    []*auditRow
}

func NewManager() *Manager {
	return &Manager{
		now:      time.Now,
		users:    map[string]*userRow{},
		sessions: map[string]*sessionRow{},
		entries:  map[string]*entryRow{},
	}
}

// SetClock overrides the time source used for server-assigned timestamps.
func (m *Manager) SetClock(now func() time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now = now
}

func (m *Manager) RunMigrations(context.Context, *sql.DB) error { return nil }

func (m *Manager) Users(dbx.DBTX) users.Repository         { return &userRepo{m: m} }
func (m *Manager) Sessions(dbx.DBTX) sessions.Repository   { return &sessionRepo{m: m} }
func (m *Manager) Entries(dbx.DBTX) entries.Repository     { return &entryRepo{m: m} }
func (m *Manager) AuditLogs(dbx.DBTX) auditlogs.Repository { return &auditRepo{m: m} }

// lock acquires the store and returns the injected failure, if any.
func (m *Manager) lock() error {
	m.mu.Lock()
	if m.Err != nil {
		m.mu.Unlock()
		return m.Err
	}
	return nil
}

func (m *Manager) nextSeq() int64 {
	m.seq++
	return m.seq
}

func newID() string {
	return uuid.NewString()
}

// newestFirst orders rows by creation time, then insertion order, descending.
func newestFirst[T any](rows []T, key func(T) (time.Time, int64)) {
	sort.SliceStable(rows, func(i, j int) bool {
		ti, si := key(rows[i])
		tj, sj := key(rows[j])
		if !ti.Equal(tj) {
			return ti.After(tj)
		}
		return si > sj
	})
}
