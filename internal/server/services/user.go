package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/kantina/canteen/internal/common"
	"github.com/kantina/canteen/internal/dbx"
	"github.com/kantina/canteen/internal/logging"
	"github.com/kantina/canteen/internal/server/auth"
	"github.com/kantina/canteen/internal/server/config"
	"github.com/kantina/canteen/internal/server/models"
	"github.com/kantina/canteen/internal/server/repositories/repomanager"
)

const (
	minUserNameLength = 3
	minPasswordLength = 6
	// bcrypt ignores everything past 72 bytes.
	maxPasswordBytes = 72

	sessionIDBytes = 32
)

// LoginResult is a freshly issued session.
type LoginResult struct {
	User      *models.User
	SessionID string
	Token     string
	ExpiresAt time.Time
}

// UserService provides authentication and user administration:
//   - Register / Login / Logout and session resolution for requests
//   - admin-only listing, flag updates and deletion
//   - operator bootstrap of the admin account and password resets
type UserService struct {
	db            *sql.DB
	repomanager   repomanager.RepositoryManager
	log           logging.Logger
	sessionSecret []byte
	sessionTTL    time.Duration
	bcryptCost    int
	dummyHash     []byte
	now           func() time.Time
}

func NewUserService(db *sql.DB, m repomanager.RepositoryManager, cfg *config.Config, log logging.Logger) *UserService {
	s := &UserService{
		db:            db,
		repomanager:   m,
		log:           log.With("module", "users"),
		sessionSecret: []byte(cfg.SessionSecret),
		sessionTTL:    cfg.SessionTTL,
		bcryptCost:    cfg.BcryptCost,
		now:           time.Now,
	}

	dummy, err := auth.NewDummyHash(cfg.BcryptCost)
	if err != nil {
		s.log.Warn(context.Background(), "cannot prepare dummy password hash", "error", err)
	}
	s.dummyHash = dummy
	return s
}

func validateCredentials(userName, password string) error {
	if len(userName) < minUserNameLength {
		return validationError("username must be at least %d characters", minUserNameLength)
	}
	if len(password) < minPasswordLength {
		return validationError("password must be at least %d characters", minPasswordLength)
	}
	if len(password) > maxPasswordBytes {
		return validationError("password must be at most %d bytes", maxPasswordBytes)
	}
	return nil
}

// Register creates an unapproved, non-admin user.
func (s *UserService) Register(ctx context.Context, userName, password string) (*models.User, error) {
	userName = strings.TrimSpace(userName)
	if err := validateCredentials(userName, password); err != nil {
		return nil, err
	}

	repo := s.repomanager.Users(s.db)
	if _, err := repo.GetUserByLogin(ctx, userName); err == nil {
		return nil, fmt.Errorf("%w: username %q is taken", common.ErrorAlreadyExists, userName)
	} else if !errors.Is(err, common.ErrorNotFound) {
		return nil, storeError("lookup user", err)
	}

	hash, err := auth.HashPassword(password, s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("%w: hash password: %v", common.ErrorInternal, err)
	}

	user, err := repo.Create(ctx, &models.User{UserName: userName, PasswordHash: hash})
	if err != nil {
		if errors.Is(err, common.ErrorAlreadyExists) {
			return nil, fmt.Errorf("%w: username %q is taken", common.ErrorAlreadyExists, userName)
		}
		return nil, storeError("create user", err)
	}

	s.log.Info(ctx, "user registered", "user_id", user.ID, "username", user.UserName)
	return user, nil
}

// Login verifies credentials and issues a new session. previousSessionID, if
// any, is revoked in the same transaction.
func (s *UserService) Login(ctx context.Context, userName, password, previousSessionID string) (*LoginResult, error) {
	userName = strings.TrimSpace(userName)
	if userName == "" || password == "" {
		return nil, validationError("username and password are required")
	}

	user, err := s.repomanager.Users(s.db).GetUserByLogin(ctx, userName)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			auth.BurnPasswordCheck(s.dummyHash, password)
			return nil, common.ErrorUnauthorized
		}
		return nil, storeError("lookup user", err)
	}

	ok, err := auth.CheckPassword(user.PasswordHash, password)
	if err != nil {
		return nil, fmt.Errorf("%w: check password: %v", common.ErrorInternal, err)
	}
	if !ok {
		return nil, common.ErrorUnauthorized
	}
	if !user.IsApproved {
		return nil, fmt.Errorf("%w: account pending approval", common.ErrorForbidden)
	}

	sid, err := common.MakeRandHexString(sessionIDBytes)
	if err != nil {
		return nil, fmt.Errorf("%w: session id: %v", common.ErrorInternal, err)
	}
	session := &models.Session{ID: sid, UserID: user.ID, ExpiresAt: s.now().Add(s.sessionTTL)}

	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Sessions(tx)
		if previousSessionID != "" {
			if err := repo.Delete(ctx, previousSessionID); err != nil {
				return storeError("revoke session", err)
			}
		}
		if err := repo.Create(ctx, session); err != nil {
			return storeError("create session", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	token, err := auth.SignSessionID(sid, s.sessionSecret, s.sessionTTL)
	if err != nil {
		return nil, fmt.Errorf("%w: sign session: %v", common.ErrorInternal, err)
	}

	s.log.Info(ctx, "user logged in", "user_id", user.ID)
	return &LoginResult{User: user, SessionID: sid, Token: token, ExpiresAt: session.ExpiresAt}, nil
}

func (s *UserService) Logout(ctx context.Context, sessionID string) error {
	if err := s.repomanager.Sessions(s.db).Delete(ctx, sessionID); err != nil {
		return storeError("delete session", err)
	}
	return nil
}

// ResolveSession turns a cookie token into the caller's identity. Expired or
// orphaned session rows are removed on the way.
func (s *UserService) ResolveSession(ctx context.Context, token string) (auth.SessionContext, error) {
	sid, err := auth.ParseSessionToken(token, s.sessionSecret)
	if err != nil {
		return auth.SessionContext{}, fmt.Errorf("%w: %w", common.ErrorUnauthorized, err)
	}

	sessions := s.repomanager.Sessions(s.db)
	session, err := sessions.Find(ctx, sid)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return auth.SessionContext{}, common.ErrorUnauthorized
		}
		return auth.SessionContext{}, storeError("find session", err)
	}

	if session.Expired(s.now()) {
		if err := sessions.Delete(ctx, sid); err != nil {
			s.log.Warn(ctx, "failed to delete expired session", "error", err)
		}
		return auth.SessionContext{}, common.ErrorUnauthorized
	}

	user, err := s.repomanager.Users(s.db).GetByID(ctx, session.UserID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			if err := sessions.Delete(ctx, sid); err != nil {
				s.log.Warn(ctx, "failed to delete orphaned session", "error", err)
			}
			return auth.SessionContext{}, common.ErrorUnauthorized
		}
		return auth.SessionContext{}, storeError("load session user", err)
	}

	return auth.SessionContext{
		SessionID:  sid,
		UserID:     user.ID,
		UserName:   user.UserName,
		IsApproved: user.IsApproved,
		IsAdmin:    user.IsAdmin,
	}, nil
}

func (s *UserService) CurrentUser(ctx context.Context, sess auth.SessionContext) (*models.User, error) {
	if err := requireSession(sess); err != nil {
		return nil, err
	}
	user, err := s.repomanager.Users(s.db).GetByID(ctx, sess.UserID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorUnauthorized
		}
		return nil, storeError("load user", err)
	}
	return user, nil
}

func (s *UserService) ListUsers(ctx context.Context, sess auth.SessionContext) ([]*models.User, error) {
	if err := requireAdmin(sess); err != nil {
		return nil, err
	}
	list, err := s.repomanager.Users(s.db).List(ctx)
	if err != nil {
		return nil, storeError("list users", err)
	}
	return list, nil
}

// UpdateUser changes approval and admin flags. Admins cannot un-approve or
// demote themselves.
func (s *UserService) UpdateUser(ctx context.Context, sess auth.SessionContext, id string, upd models.UserUpdate) (*models.User, error) {
	if err := requireAdmin(sess); err != nil {
		return nil, err
	}
	if upd.Empty() {
		return nil, validationError("nothing to update")
	}
	if id == sess.UserID {
		if (upd.IsApproved != nil && !*upd.IsApproved) || (upd.IsAdmin != nil && !*upd.IsAdmin) {
			return nil, common.ErrorSelfAction
		}
	}

	user, err := s.repomanager.Users(s.db).Update(ctx, id, upd)
	if err != nil {
		return nil, storeError("update user", err)
	}

	s.log.Info(ctx, "user updated", "user_id", user.ID, "approved", user.IsApproved, "admin", user.IsAdmin, "by", sess.UserID)
	return user, nil
}

func (s *UserService) DeleteUser(ctx context.Context, sess auth.SessionContext, id string) error {
	if err := requireAdmin(sess); err != nil {
		return err
	}
	if id == sess.UserID {
		return common.ErrorSelfAction
	}

	if err := s.repomanager.Users(s.db).Delete(ctx, id); err != nil {
		return storeError("delete user", err)
	}

	s.log.Info(ctx, "user deleted", "user_id", id, "by", sess.UserID)
	return nil
}

// EnsureAdmin creates the bootstrap admin or restores its flags. An existing
// password is left alone, but the supplied one must still be acceptable.
func (s *UserService) EnsureAdmin(ctx context.Context, userName, password string) (*models.User, error) {
	userName = strings.TrimSpace(userName)
	if err := validateCredentials(userName, password); err != nil {
		return nil, err
	}
	repo := s.repomanager.Users(s.db)

	user, err := repo.GetUserByLogin(ctx, userName)
	switch {
	case err == nil:
		if user.IsApproved && user.IsAdmin {
			return user, nil
		}
		yes := true
		user, err = repo.Update(ctx, user.ID, models.UserUpdate{IsApproved: &yes, IsAdmin: &yes})
		if err != nil {
			return nil, storeError("promote admin", err)
		}
		s.log.Info(ctx, "admin account promoted", "username", userName)
		return user, nil
	case !errors.Is(err, common.ErrorNotFound):
		return nil, storeError("lookup admin", err)
	}

	hash, err := auth.HashPassword(password, s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("%w: hash password: %v", common.ErrorInternal, err)
	}

	user, err = repo.Create(ctx, &models.User{UserName: userName, PasswordHash: hash, IsApproved: true, IsAdmin: true})
	if err != nil {
		return nil, storeError("create admin", err)
	}

	s.log.Info(ctx, "admin account created", "username", userName)
	return user, nil
}

// SetupAdmin creates or promotes userName to an approved admin and sets its
// password. Nothing changes unless the credentials are valid, and the flag
// update and the password change commit together.
func (s *UserService) SetupAdmin(ctx context.Context, userName, password string) (*models.User, error) {
	userName = strings.TrimSpace(userName)
	if err := validateCredentials(userName, password); err != nil {
		return nil, err
	}

	hash, err := auth.HashPassword(password, s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("%w: hash password: %v", common.ErrorInternal, err)
	}

	var user *models.User
	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Users(tx)

		existing, err := repo.GetUserByLogin(ctx, userName)
		switch {
		case errors.Is(err, common.ErrorNotFound):
			user, err = repo.Create(ctx, &models.User{UserName: userName, PasswordHash: hash, IsApproved: true, IsAdmin: true})
			if err != nil {
				return storeError("create admin", err)
			}
			return nil
		case err != nil:
			return storeError("lookup admin", err)
		}

		yes := true
		user, err = repo.Update(ctx, existing.ID, models.UserUpdate{IsApproved: &yes, IsAdmin: &yes})
		if err != nil {
			return storeError("promote admin", err)
		}
		if err := repo.UpdatePassword(ctx, existing.ID, hash); err != nil {
			return storeError("update password", err)
		}
		user.PasswordHash = hash
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info(ctx, "admin account set up", "username", userName)
	return user, nil
}

// ResetPassword replaces the password of an existing user.
func (s *UserService) ResetPassword(ctx context.Context, userName, password string) error {
	userName = strings.TrimSpace(userName)
	if err := validateCredentials(userName, password); err != nil {
		return err
	}

	repo := s.repomanager.Users(s.db)
	user, err := repo.GetUserByLogin(ctx, userName)
	if err != nil {
		return storeError("lookup user", err)
	}

	hash, err := auth.HashPassword(password, s.bcryptCost)
	if err != nil {
		return fmt.Errorf("%w: hash password: %v", common.ErrorInternal, err)
	}
	if err := repo.UpdatePassword(ctx, user.ID, hash); err != nil {
		return storeError("update password", err)
	}

	s.log.Info(ctx, "password reset", "username", userName)
	return nil
}

// PurgeExpiredSessions removes every session that has run out.
func (s *UserService) PurgeExpiredSessions(ctx context.Context) (int64, error) {
	n, err := s.repomanager.Sessions(s.db).DeleteExpired(ctx, s.now())
	if err != nil {
		return 0, storeError("purge sessions", err)
	}
	return n, nil
}
