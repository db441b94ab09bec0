package memory

import (
	"context"
	"time"

	"github.com/kantina/canteen/internal/common"
	"github.com/kantina/canteen/internal/server/models"
)

type sessionRow struct {
	session models.Session
}

type sessionRepo struct {
	m *Manager
}

func (r *sessionRepo) Create(_ context.Context, session *models.Session) error {
	if err := r.m.lock(); err != nil {
		return err
	}
	defer r.m.mu.Unlock()

	if _, ok := r.m.users[session.UserID]; !ok {
		return common.ErrorNotFound
	}
	if _, ok := r.m.sessions[session.ID]; ok {
		return common.ErrorAlreadyExists
	}
	session.CreatedAt = r.m.now()
	r.m.sessions[session.ID] = &sessionRow{session: *session}
	return nil
}

func (r *sessionRepo) Find(_ context.Context, id string) (*models.Session, error) {
	if err := r.m.lock(); err != nil {
		return nil, err
	}
	defer r.m.mu.Unlock()

	row, ok := r.m.sessions[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	out := row.session
	return &out, nil
}

func (r *sessionRepo) Delete(_ context.Context, id string) error {
	if err := r.m.lock(); err != nil {
		return err
	}
	defer r.m.mu.Unlock()

	delete(r.m.sessions, id)
	return nil
}

func (r *sessionRepo) DeleteExpired(_ context.Context, now time.Time) (int64, error) {
	if err := r.m.lock(); err != nil {
		return 0, err
	}
	defer r.m.mu.Unlock()

	var n int64
	for id, row := range r.m.sessions {
		if row.session.Expired(now) {
			delete(r.m.sessions, id)
			n++
		}
	}
	return n, nil
}
