package httpapi

import (
	"context"
	"errors"

	"github.com/kantina/canteen/internal/common"
	"github.com/kantina/canteen/internal/server/auth"
	"github.com/kantina/canteen/internal/server/models"
	"github.com/kantina/canteen/internal/server/services"
)

var errNotStubbed = errors.New("not stubbed")

// fakeUsers resolves tokens from a fixed table and delegates the rest to
// optional function fields.
type fakeUsers struct {
	sessions map[string]auth.SessionContext

	registerFn func(userName, password string) (*models.User, error)
	loginFn    func(userName, password, prev string) (*services.LoginResult, error)
	logoutFn   func(sessionID string) error
	currentFn  func(sess auth.SessionContext) (*models.User, error)
	listFn     func(sess auth.SessionContext) ([]*models.User, error)
	updateFn   func(sess auth.SessionContext, id string, upd models.UserUpdate) (*models.User, error)
	deleteFn   func(sess auth.SessionContext, id string) error
	resolveErr error
}

func (f *fakeUsers) Register(_ context.Context, userName, password string) (*models.User, error) {
	if f.registerFn == nil {
		return nil, errNotStubbed
	}
	return f.registerFn(userName, password)
}

func (f *fakeUsers) Login(_ context.Context, userName, password, prev string) (*services.LoginResult, error) {
	if f.loginFn == nil {
		return nil, errNotStubbed
	}
	return f.loginFn(userName, password, prev)
}

func (f *fakeUsers) Logout(_ context.Context, sessionID string) error {
	if f.logoutFn == nil {
		return nil
	}
	return f.logoutFn(sessionID)
}

func (f *fakeUsers) ResolveSession(_ context.Context, token string) (auth.SessionContext, error) {
	if f.resolveErr != nil {
		return auth.SessionContext{}, f.resolveErr
	}
	sess, ok := f.sessions[token]
	if !ok {
		return auth.SessionContext{}, common.ErrorUnauthorized
	}
	return sess, nil
}

func (f *fakeUsers) CurrentUser(_ context.Context, sess auth.SessionContext) (*models.User, error) {
	if f.currentFn == nil {
		return nil, errNotStubbed
	}
	return f.currentFn(sess)
}

func (f *fakeUsers) ListUsers(_ context.Context, sess auth.SessionContext) ([]*models.User, error) {
	if f.listFn == nil {
		return nil, errNotStubbed
	}
	return f.listFn(sess)
}

func (f *fakeUsers) UpdateUser(_ context.Context, sess auth.SessionContext, id string, upd models.UserUpdate) (*models.User, error) {
	if f.updateFn == nil {
		return nil, errNotStubbed
	}
	return f.updateFn(sess, id, upd)
}

func (f *fakeUsers) DeleteUser(_ context.Context, sess auth.SessionContext, id string) error {
	if f.deleteFn == nil {
		return errNotStubbed
	}
	return f.deleteFn(sess, id)
}

type fakeEntries struct {
	submitFn func(in services.EntryInput) (*models.Entry, error)
	setFn    func(sess auth.SessionContext, id string, invoiced bool) (*models.Entry, error)
	listFn   func(sess auth.SessionContext, status models.EntryStatus) ([]*models.Entry, error)
	logsFn   func(sess auth.SessionContext) ([]*models.AuditRecord, error)
	recordFn func(sess auth.SessionContext, in services.AuditInput) (*models.AuditRecord, error)
}

func (f *fakeEntries) Submit(_ context.Context, in services.EntryInput) (*models.Entry, error) {
	if f.submitFn == nil {
		return nil, errNotStubbed
	}
	return f.submitFn(in)
}

func (f *fakeEntries) SetInvoiced(_ context.Context, sess auth.SessionContext, id string, invoiced bool) (*models.Entry, error) {
	if f.setFn == nil {
		return nil, errNotStubbed
	}
	return f.setFn(sess, id, invoiced)
}

func (f *fakeEntries) ListEntries(_ context.Context, sess auth.SessionContext, status models.EntryStatus) ([]*models.Entry, error) {
	if f.listFn == nil {
		return nil, errNotStubbed
	}
	return f.listFn(sess, status)
}

func (f *fakeEntries) ListAuditLog(_ context.Context, sess auth.SessionContext) ([]*models.AuditRecord, error) {
	if f.logsFn == nil {
		return nil, errNotStubbed
	}
	return f.logsFn(sess)
}

func (f *fakeEntries) RecordAudit(_ context.Context, sess auth.SessionContext, in services.AuditInput) (*models.AuditRecord, error) {
	if f.recordFn == nil {
		return nil, errNotStubbed
	}
	return f.recordFn(sess, in)
}

type fakeExports struct {
	res *services.ExportResult
	err error
}

func (f *fakeExports) ExportInvoiced(context.Context, auth.SessionContext) (*services.ExportResult, error) {
	return f.res, f.err
}

type fakePinger struct {
	err error
}

func (p fakePinger) PingContext(context.Context) error { return p.err }
