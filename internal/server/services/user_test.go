package services

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/kantina/canteen/internal/common"
	"github.com/kantina/canteen/internal/server/auth"
	"github.com/kantina/canteen/internal/server/models"
	"github.com/kantina/canteen/internal/server/repositories/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func newUserService(t *testing.T) (*UserService, *memory.Manager, sqlmock.Sqlmock) {
	t.Helper()
	db, mock := newMockDB(t)
	m := memory.NewManager()
	return NewUserService(db, m, testConfig(), testLogger()), m, mock
}

func approve(t *testing.T, m *memory.Manager, id string, admin bool) {
	t.Helper()
	yes := true
	_, err := m.Users(nil).Update(context.Background(), id, models.UserUpdate{IsApproved: &yes, IsAdmin: &admin})
	require.NoError(t, err)
}

func adminSession(id string) auth.SessionContext {
	return auth.SessionContext{SessionID: "admin-sid", UserID: id, IsApproved: true, IsAdmin: true}
}

func TestRegister(t *testing.T) {
	svc, m, _ := newUserService(t)
	ctx := context.Background()

	u, err := svc.Register(ctx, "alice", "secret1")
	require.NoError(t, err)
	assert.False(t, u.IsApproved)
	assert.False(t, u.IsAdmin)

	stored, err := m.Users(nil).GetByID(ctx, u.ID)
	require.NoError(t, err)
	assert.NotEqual(t, "secret1", stored.PasswordHash)
	assert.True(t, strings.HasPrefix(stored.PasswordHash, "$2"))
}

func TestRegister_Duplicate(t *testing.T) {
	svc, _, _ := newUserService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, "alice", "secret1")
	require.NoError(t, err)

	_, err = svc.Register(ctx, "alice", "another1")
	assert.ErrorIs(t, err, common.ErrorAlreadyExists)
}

func TestRegister_Validation(t *testing.T) {
	svc, _, _ := newUserService(t)
	ctx := context.Background()

	tests := []struct {
		name, user, pass string
	}{
		{"short username", "al", "secret1"},
		{"blank username", "   ", "secret1"},
		{"short password", "alice", "12345"},
		{"long password", "alice", strings.Repeat("x", 73)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Register(ctx, tt.user, tt.pass)
			assert.ErrorIs(t, err, common.ErrorValidation)
		})
	}
}

func TestLogin_Failures(t *testing.T) {
	svc, _, _ := newUserService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, "alice", "secret1")
	require.NoError(t, err)

	_, err = svc.Login(ctx, "nobody", "secret1", "")
	assert.ErrorIs(t, err, common.ErrorUnauthorized)

	_, err = svc.Login(ctx, "alice", "wrong-pw", "")
	assert.ErrorIs(t, err, common.ErrorUnauthorized)

	_, err = svc.Login(ctx, "alice", "secret1", "")
	assert.ErrorIs(t, err, common.ErrorForbidden, "unapproved users cannot log in")

	_, err = svc.Login(ctx, "", "", "")
	assert.ErrorIs(t, err, common.ErrorValidation)
}

func TestLogin_IssuesResolvableSession(t *testing.T) {
	svc, m, mock := newUserService(t)
	ctx := context.Background()

	u, err := svc.Register(ctx, "alice", "secret1")
	require.NoError(t, err)
	approve(t, m, u.ID, false)

	mock.ExpectBegin()
	mock.ExpectCommit()
	res, err := svc.Login(ctx, "alice", "secret1", "")
	require.NoError(t, err)
	assert.Equal(t, u.ID, res.User.ID)
	assert.Len(t, res.SessionID, 64)
	assert.NotEmpty(t, res.Token)

	sess, err := svc.ResolveSession(ctx, res.Token)
	require.NoError(t, err)
	assert.Equal(t, res.SessionID, sess.SessionID)
	assert.Equal(t, u.ID, sess.UserID)
	assert.True(t, sess.IsApproved)
	assert.False(t, sess.IsAdmin)

	me, err := svc.CurrentUser(ctx, sess)
	require.NoError(t, err)
	assert.Equal(t, "alice", me.UserName)
}

func TestLogin_RevokesPreviousSession(t *testing.T) {
	svc, m, mock := newUserService(t)
	ctx := context.Background()

	u, err := svc.Register(ctx, "alice", "secret1")
	require.NoError(t, err)
	approve(t, m, u.ID, false)

	mock.ExpectBegin()
	mock.ExpectCommit()
	first, err := svc.Login(ctx, "alice", "secret1", "")
	require.NoError(t, err)

	mock.ExpectBegin()
	mock.ExpectCommit()
	second, err := svc.Login(ctx, "alice", "secret1", first.SessionID)
	require.NoError(t, err)
	assert.NotEqual(t, first.SessionID, second.SessionID)

	_, err = svc.ResolveSession(ctx, first.Token)
	assert.ErrorIs(t, err, common.ErrorUnauthorized)
	_, err = svc.ResolveSession(ctx, second.Token)
	assert.NoError(t, err)
}

func TestLogout(t *testing.T) {
	svc, m, mock := newUserService(t)
	ctx := context.Background()

	u, err := svc.Register(ctx, "alice", "secret1")
	require.NoError(t, err)
	approve(t, m, u.ID, false)

	mock.ExpectBegin()
	mock.ExpectCommit()
	res, err := svc.Login(ctx, "alice", "secret1", "")
	require.NoError(t, err)

	require.NoError(t, svc.Logout(ctx, res.SessionID))
	_, err = svc.ResolveSession(ctx, res.Token)
	assert.ErrorIs(t, err, common.ErrorUnauthorized)
}

func TestResolveSession_Rejects(t *testing.T) {
	svc, m, _ := newUserService(t)
	ctx := context.Background()

	_, err := svc.ResolveSession(ctx, "garbage")
	assert.ErrorIs(t, err, common.ErrorUnauthorized)

	forged, err := auth.SignSessionID("sid", []byte("other-secret"), time.Hour)
	require.NoError(t, err)
	_, err = svc.ResolveSession(ctx, forged)
	assert.ErrorIs(t, err, common.ErrorUnauthorized)

	unknown, err := auth.SignSessionID("no-such-session", []byte("test-secret"), time.Hour)
	require.NoError(t, err)
	_, err = svc.ResolveSession(ctx, unknown)
	assert.ErrorIs(t, err, common.ErrorUnauthorized)

	u, err := svc.Register(ctx, "alice", "secret1")
	require.NoError(t, err)
	require.NoError(t, m.Sessions(nil).Create(ctx, &models.Session{ID: "stale", UserID: u.ID, ExpiresAt: time.Now().Add(-time.Minute)}))
	stale, err := auth.SignSessionID("stale", []byte("test-secret"), time.Hour)
	require.NoError(t, err)

	_, err = svc.ResolveSession(ctx, stale)
	assert.ErrorIs(t, err, common.ErrorUnauthorized)
	_, err = m.Sessions(nil).Find(ctx, "stale")
	assert.ErrorIs(t, err, common.ErrorNotFound, "expired session is purged on lookup")
}

func TestResolveSession_StoreFailure(t *testing.T) {
	svc, m, _ := newUserService(t)
	token, err := auth.SignSessionID("sid", []byte("test-secret"), time.Hour)
	require.NoError(t, err)

	m.Err = errBoom
	_, err = svc.ResolveSession(context.Background(), token)
	assert.ErrorIs(t, err, common.ErrorStore)
}

func TestAdmin_UpdateUser(t *testing.T) {
	svc, m, _ := newUserService(t)
	ctx := context.Background()

	admin, err := svc.EnsureAdmin(ctx, "admin", "admin-pw")
	require.NoError(t, err)
	bob, err := svc.Register(ctx, "bob", "secret1")
	require.NoError(t, err)
	sess := adminSession(admin.ID)

	yes, no := true, false

	updated, err := svc.UpdateUser(ctx, sess, bob.ID, models.UserUpdate{IsApproved: &yes})
	require.NoError(t, err)
	assert.True(t, updated.IsApproved)
	assert.False(t, updated.IsAdmin)

	_, err = svc.UpdateUser(ctx, sess, admin.ID, models.UserUpdate{IsAdmin: &no})
	assert.ErrorIs(t, err, common.ErrorSelfAction)
	assert.ErrorIs(t, err, common.ErrorForbidden)

	_, err = svc.UpdateUser(ctx, sess, admin.ID, models.UserUpdate{IsApproved: &no})
	assert.ErrorIs(t, err, common.ErrorSelfAction)

	_, err = svc.UpdateUser(ctx, sess, admin.ID, models.UserUpdate{IsApproved: &yes})
	assert.NoError(t, err, "re-affirming own flags is allowed")

	_, err = svc.UpdateUser(ctx, sess, "missing", models.UserUpdate{IsApproved: &yes})
	assert.ErrorIs(t, err, common.ErrorNotFound)

	_, err = svc.UpdateUser(ctx, sess, bob.ID, models.UserUpdate{})
	assert.ErrorIs(t, err, common.ErrorValidation)

	approve(t, m, bob.ID, false)
	_, err = svc.UpdateUser(ctx, auth.SessionContext{SessionID: "x", UserID: bob.ID, IsApproved: true}, admin.ID, models.UserUpdate{IsAdmin: &no})
	assert.ErrorIs(t, err, common.ErrorForbidden)
}

func TestAdmin_ListAndDelete(t *testing.T) {
	svc, m, _ := newUserService(t)
	ctx := context.Background()

	admin, err := svc.EnsureAdmin(ctx, "admin", "admin-pw")
	require.NoError(t, err)
	bob, err := svc.Register(ctx, "bob", "secret1")
	require.NoError(t, err)
	require.NoError(t, m.Sessions(nil).Create(ctx, &models.Session{ID: "bob-sid", UserID: bob.ID, ExpiresAt: time.Now().Add(time.Hour)}))
	sess := adminSession(admin.ID)

	list, err := svc.ListUsers(ctx, sess)
	require.NoError(t, err)
	assert.Len(t, list, 2)

	err = svc.DeleteUser(ctx, sess, admin.ID)
	assert.ErrorIs(t, err, common.ErrorSelfAction)

	require.NoError(t, svc.DeleteUser(ctx, sess, bob.ID))
	_, err = m.Sessions(nil).Find(ctx, "bob-sid")
	assert.ErrorIs(t, err, common.ErrorNotFound)

	assert.ErrorIs(t, svc.DeleteUser(ctx, sess, bob.ID), common.ErrorNotFound)

	_, err = svc.ListUsers(ctx, approvedSession)
	assert.ErrorIs(t, err, common.ErrorForbidden)
	_, err = svc.ListUsers(ctx, auth.SessionContext{})
	assert.ErrorIs(t, err, common.ErrorUnauthorized)
}

func TestEnsureAdmin_Idempotent(t *testing.T) {
	svc, m, _ := newUserService(t)
	ctx := context.Background()

	first, err := svc.EnsureAdmin(ctx, "admin", "admin-pw")
	require.NoError(t, err)
	assert.True(t, first.IsApproved)
	assert.True(t, first.IsAdmin)

	second, err := svc.EnsureAdmin(ctx, "admin", "different-pw")
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, first.PasswordHash, second.PasswordHash, "existing password is kept")

	list, err := m.Users(nil).List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestEnsureAdmin_PromotesExisting(t *testing.T) {
	svc, _, _ := newUserService(t)
	ctx := context.Background()

	u, err := svc.Register(ctx, "boss", "secret1")
	require.NoError(t, err)

	admin, err := svc.EnsureAdmin(ctx, "boss", "ignored")
	require.NoError(t, err)
	assert.Equal(t, u.ID, admin.ID)
	assert.True(t, admin.IsApproved)
	assert.True(t, admin.IsAdmin)
}

func TestResetPassword(t *testing.T) {
	svc, _, mock := newUserService(t)
	ctx := context.Background()

	_, err := svc.EnsureAdmin(ctx, "admin", "old-password")
	require.NoError(t, err)

	require.NoError(t, svc.ResetPassword(ctx, "admin", "new-password"))

	_, err = svc.Login(ctx, "admin", "old-password", "")
	assert.ErrorIs(t, err, common.ErrorUnauthorized)

	mock.ExpectBegin()
	mock.ExpectCommit()
	_, err = svc.Login(ctx, "admin", "new-password", "")
	assert.NoError(t, err)

	assert.ErrorIs(t, svc.ResetPassword(ctx, "ghost", "new-password"), common.ErrorNotFound)
	assert.ErrorIs(t, svc.ResetPassword(ctx, "admin", "short"), common.ErrorValidation)
}

func TestEnsureAdmin_ShortPasswordChangesNothing(t *testing.T) {
	svc, m, _ := newUserService(t)
	ctx := context.Background()

	bob, err := svc.Register(ctx, "bob", "secret1")
	require.NoError(t, err)

	_, err = svc.EnsureAdmin(ctx, "bob", "abc")
	require.ErrorIs(t, err, common.ErrorValidation)

	got, err := m.Users(nil).GetByID(ctx, bob.ID)
	require.NoError(t, err)
	assert.False(t, got.IsApproved)
	assert.False(t, got.IsAdmin)
}

func TestSetupAdmin_PromotesAndSetsPassword(t *testing.T) {
	svc, m, mock := newUserService(t)
	ctx := context.Background()

	bob, err := svc.Register(ctx, "bob", "secret1")
	require.NoError(t, err)

	mock.ExpectBegin()
	mock.ExpectCommit()
	admin, err := svc.SetupAdmin(ctx, "bob", "new-secret")
	require.NoError(t, err)
	assert.Equal(t, bob.ID, admin.ID)
	assert.True(t, admin.IsApproved)
	assert.True(t, admin.IsAdmin)

	stored, err := m.Users(nil).GetByID(ctx, bob.ID)
	require.NoError(t, err)
	ok, err := auth.CheckPassword(stored.PasswordHash, "new-secret")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestSetupAdmin_CreatesMissingUser(t *testing.T) {
	svc, m, mock := newUserService(t)
	ctx := context.Background()

	mock.ExpectBegin()
	mock.ExpectCommit()
	admin, err := svc.SetupAdmin(ctx, "boss", "new-secret")
	require.NoError(t, err)
	assert.True(t, admin.IsAdmin)

	list, err := m.Users(nil).List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "boss", list[0].UserName)
}

func TestSetupAdmin_ShortPasswordChangesNothing(t *testing.T) {
	svc, m, _ := newUserService(t)
	ctx := context.Background()

	bob, err := svc.Register(ctx, "bob", "secret1")
	require.NoError(t, err)

	_, err = svc.SetupAdmin(ctx, "bob", "abc")
	require.ErrorIs(t, err, common.ErrorValidation)

	got, err := m.Users(nil).GetByID(ctx, bob.ID)
	require.NoError(t, err)
	assert.False(t, got.IsApproved)
	assert.False(t, got.IsAdmin)
	assert.Equal(t, bob.PasswordHash, got.PasswordHash)
}

func TestSetupAdmin_StoreFailureRollsBack(t *testing.T) {
	svc, m, mock := newUserService(t)
	m.Err = errBoom

	mock.ExpectBegin()
	mock.ExpectRollback()
	_, err := svc.SetupAdmin(context.Background(), "boss", "new-secret")
	assert.ErrorIs(t, err, common.ErrorStore)
}

func TestNewUserService_DummyHashMatchesConfiguredCost(t *testing.T) {
	db, _ := newMockDB(t)
	cfg := testConfig()
	cfg.BcryptCost = bcrypt.MinCost + 1

	svc := NewUserService(db, memory.NewManager(), cfg, testLogger())

	cost, err := bcrypt.Cost(svc.dummyHash)
	require.NoError(t, err)
	assert.Equal(t, cfg.BcryptCost, cost)
}

func TestPurgeExpiredSessions(t *testing.T) {
	svc, m, _ := newUserService(t)
	ctx := context.Background()

	u, err := svc.Register(ctx, "alice", "secret1")
	require.NoError(t, err)
	require.NoError(t, m.Sessions(nil).Create(ctx, &models.Session{ID: "a", UserID: u.ID, ExpiresAt: time.Now().Add(-time.Hour)}))
	require.NoError(t, m.Sessions(nil).Create(ctx, &models.Session{ID: "b", UserID: u.ID, ExpiresAt: time.Now().Add(time.Hour)}))

	n, err := svc.PurgeExpiredSessions(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
}
