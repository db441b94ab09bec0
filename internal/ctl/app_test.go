package ctl

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/kantina/canteen/internal/common"
	"github.com/kantina/canteen/internal/logging"
	"github.com/kantina/canteen/internal/server/config"
	"github.com/kantina/canteen/internal/server/models"
	"github.com/kantina/canteen/internal/server/repositories/memory"
	"github.com/kantina/canteen/internal/server/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type fakeAdmins struct {
	passwords map[string]string
	err       error
}

func (f *fakeAdmins) SetupAdmin(_ context.Context, userName, password string) (*models.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	if f.passwords == nil {
		f.passwords = map[string]string{}
	}
	f.passwords[userName] = password
	return &models.User{UserName: userName, IsAdmin: true, IsApproved: true}, nil
}

func stubPasswords(t *testing.T, answers ...string) {
	t.Helper()
	old := readPassword
	t.Cleanup(func() { readPassword = old })

	readPassword = func(int) ([]byte, error) {
		if len(answers) == 0 {
			return nil, errors.New("no more input")
		}
		next := answers[0]
		answers = answers[1:]
		return []byte(next), nil
	}
}

func newTestApp(importer Importer, admins AdminManager) (*App, *bytes.Buffer) {
	var out bytes.Buffer
	return NewApp(importer, admins, "admin", &out), &out
}

func TestRun_Usage(t *testing.T) {
	app, out := newTestApp(nil, nil)

	err := app.Run(t.Context(), nil)
	require.ErrorIs(t, err, ErrUsage)
	assert.Contains(t, out.String(), "create-admin")

	err = app.Run(t.Context(), []string{"frobnicate"})
	require.ErrorIs(t, err, ErrUsage)

	require.NoError(t, app.Run(t.Context(), []string{"help"}))
}

func TestCreateAdmin(t *testing.T) {
	admins := &fakeAdmins{}
	app, out := newTestApp(nil, admins)
	stubPasswords(t, "s3cret!", "s3cret!")

	err := app.Run(t.Context(), []string{"create-admin", "-n", "boss", "-d", "postgres://ignored"})
	require.NoError(t, err)

	assert.Equal(t, map[string]string{"boss": "s3cret!"}, admins.passwords)
	assert.Contains(t, out.String(), `Admin "boss" is ready`)
}

func TestCreateAdmin_DefaultName(t *testing.T) {
	admins := &fakeAdmins{}
	app, _ := newTestApp(nil, admins)
	stubPasswords(t, "s3cret!", "s3cret!")

	require.NoError(t, app.Run(t.Context(), []string{"create-admin"}))
	assert.Contains(t, admins.passwords, "admin")
}

func TestCreateAdmin_Mismatch(t *testing.T) {
	admins := &fakeAdmins{}
	app, _ := newTestApp(nil, admins)
	stubPasswords(t, "one-password", "another-one")

	err := app.Run(t.Context(), []string{"create-admin", "-n", "boss"})
	require.ErrorIs(t, err, errPasswordMismatch)
	assert.Empty(t, admins.passwords)
}

func TestCreateAdmin_PromptError(t *testing.T) {
	app, _ := newTestApp(nil, &fakeAdmins{})
	stubPasswords(t)

	err := app.Run(t.Context(), []string{"create-admin", "-n", "boss"})
	assert.Error(t, err)
}

func TestCreateAdmin_StoreError(t *testing.T) {
	boom := errors.New("boom")
	admins := &fakeAdmins{err: boom}
	app, _ := newTestApp(nil, admins)
	stubPasswords(t, "s3cret!", "s3cret!")

	err := app.Run(t.Context(), []string{"create-admin", "-n", "boss"})
	require.ErrorIs(t, err, boom)
	assert.Empty(t, admins.passwords)
}

func TestCreateAdmin_ShortPasswordKeepsExistingUser(t *testing.T) {
	m := memory.NewManager()
	users := services.NewUserService(nil, m, &config.Config{BcryptCost: bcrypt.MinCost}, logging.NewDiscardLogger())

	bob, err := users.Register(t.Context(), "bob", "secret1")
	require.NoError(t, err)

	app, _ := newTestApp(nil, users)
	stubPasswords(t, "abc", "abc")

	err = app.Run(t.Context(), []string{"create-admin", "-n", "bob"})
	require.ErrorIs(t, err, common.ErrorValidation)

	got, err := m.Users(nil).GetByID(t.Context(), bob.ID)
	require.NoError(t, err)
	assert.False(t, got.IsApproved)
	assert.False(t, got.IsAdmin)
	assert.Equal(t, bob.PasswordHash, got.PasswordHash)
}

func TestImport(t *testing.T) {
	m := memory.NewManager()
	importer := services.NewImportService(nil, m, logging.NewDiscardLogger())
	app, out := newTestApp(importer, nil)

	sheet := "Id,dato,Navn,Fyritoka,Maltid,NrOfPersons,Umbod\n" +
		"1,05-03-2024 12:30:00,Anna,Acme,Lunch,125,Jon\n" +
		"2,not-a-date,Bo,Acme,Lunch,10,Jon\n"

	app.openFile = func(name string) (io.ReadCloser, error) {
		assert.Equal(t, "legacy.csv", name)
		return io.NopCloser(strings.NewReader(sheet)), nil
	}

	require.NoError(t, app.Run(t.Context(), []string{"import", "-f", "legacy.csv"}))
	assert.Contains(t, out.String(), "Imported 1 entries, 1 rows failed")
	assert.Contains(t, out.String(), "line 3")

	list, err := m.Entries(nil).List(t.Context(), models.StatusPending)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Anna", list[0].Name)
}

func TestImport_MissingFile(t *testing.T) {
	app, _ := newTestApp(nil, nil)

	err := app.Run(t.Context(), []string{"import"})
	require.ErrorIs(t, err, ErrUsage)

	app.openFile = func(string) (io.ReadCloser, error) { return nil, errors.New("no such file") }
	err = app.Run(t.Context(), []string{"import", "-f", "gone.csv"})
	assert.EqualError(t, err, "no such file")
}
