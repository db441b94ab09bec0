package memory

import (
	"context"
	"time"

	"github.com/kantina/canteen/internal/common"
	"github.com/kantina/canteen/internal/server/models"
)

type userRow struct {
	user models.User
	seq  int64
}

type userRepo struct {
	m *Manager
}

func (r *userRepo) Create(_ context.Context, user *models.User) (*models.User, error) {
	if err := r.m.lock(); err != nil {
		return nil, err
	}
	defer r.m.mu.Unlock()

	for _, row := range r.m.users {
		if row.user.UserName == user.UserName {
			return nil, common.ErrorAlreadyExists
		}
	}
	user.ID = newID()
	user.CreatedAt = r.m.now()
	r.m.users[user.ID] = &userRow{user: *user, seq: r.m.nextSeq()}
	out := *user
	return &out, nil
}

func (r *userRepo) GetByID(_ context.Context, id string) (*models.User, error) {
	if err := r.m.lock(); err != nil {
		return nil, err
	}
	defer r.m.mu.Unlock()

	row, ok := r.m.users[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	out := row.user
	return &out, nil
}

func (r *userRepo) GetUserByLogin(_ context.Context, userName string) (*models.User, error) {
	if err := r.m.lock(); err != nil {
		return nil, err
	}
	defer r.m.mu.Unlock()

	for _, row := range r.m.users {
		if row.user.UserName == userName {
			out := row.user
			return &out, nil
		}
	}
	return nil, common.ErrorNotFound
}

// List returns users oldest first, like the PostgreSQL repository.
func (r *userRepo) List(_ context.Context) ([]*models.User, error) {
	if err := r.m.lock(); err != nil {
		return nil, err
	}
	defer r.m.mu.Unlock()

	rows := make([]*userRow, 0, len(r.m.users))
	for _, row := range r.m.users {
		rows = append(rows, row)
	}
	newestFirst(rows, func(u *userRow) (time.Time, int64) { return u.user.CreatedAt, u.seq })

	result := make([]*models.User, len(rows))
	for i := range rows {
		out := rows[len(rows)-1-i].user
		result[i] = &out
	}
	return result, nil
}

func (r *userRepo) Update(_ context.Context, id string, upd models.UserUpdate) (*models.User, error) {
	if err := r.m.lock(); err != nil {
		return nil, err
	}
	defer r.m.mu.Unlock()

	row, ok := r.m.users[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	if upd.IsApproved != nil {
		row.user.IsApproved = *upd.IsApproved
	}
	if upd.IsAdmin != nil {
		row.user.IsAdmin = *upd.IsAdmin
	}
	out := row.user
	return &out, nil
}

func (r *userRepo) UpdatePassword(_ context.Context, id string, passwordHash string) error {
	if err := r.m.lock(); err != nil {
		return err
	}
	defer r.m.mu.Unlock()

	row, ok := r.m.users[id]
	if !ok {
		return common.ErrorNotFound
	}
	row.user.PasswordHash = passwordHash
	return nil
}

// Delete also drops the user's sessions, mirroring ON DELETE CASCADE.
func (r *userRepo) Delete(_ context.Context, id string) error {
	if err := r.m.lock(); err != nil {
		return err
	}
	defer r.m.mu.Unlock()

	if _, ok := r.m.users[id]; !ok {
		return common.ErrorNotFound
	}
	delete(r.m.users, id)
	for sid, s := range r.m.sessions {
		if s.session.UserID == id {
			delete(r.m.sessions, sid)
		}
	}
	return nil
}
