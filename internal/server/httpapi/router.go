package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/kantina/canteen/internal/logging"
	"github.com/kantina/canteen/internal/server/auth"
	"github.com/kantina/canteen/internal/server/models"
	"github.com/kantina/canteen/internal/server/services"
)

// UserService is the authentication and user administration surface used by
// the handlers.
type UserService interface {
	Register(ctx context.Context, userName, password string) (*models.User, error)
	Login(ctx context.Context, userName, password, previousSessionID string) (*services.LoginResult, error)
	Logout(ctx context.Context, sessionID string) error
	ResolveSession(ctx context.Context, token string) (auth.SessionContext, error)
	CurrentUser(ctx context.Context, sess auth.SessionContext) (*models.User, error)
	ListUsers(ctx context.Context, sess auth.SessionContext) ([]*models.User, error)
	UpdateUser(ctx context.Context, sess auth.SessionContext, id string, upd models.UserUpdate) (*models.User, error)
	DeleteUser(ctx context.Context, sess auth.SessionContext, id string) error
}

// EntryService is the registration workflow surface used by the handlers.
type EntryService interface {
	Submit(ctx context.Context, in services.EntryInput) (*models.Entry, error)
	SetInvoiced(ctx context.Context, sess auth.SessionContext, id string, invoiced bool) (*models.Entry, error)
	ListEntries(ctx context.Context, sess auth.SessionContext, status models.EntryStatus) ([]*models.Entry, error)
	ListAuditLog(ctx context.Context, sess auth.SessionContext) ([]*models.AuditRecord, error)
	RecordAudit(ctx context.Context, sess auth.SessionContext, in services.AuditInput) (*models.AuditRecord, error)
}

type ExportService interface {
	ExportInvoiced(ctx context.Context, sess auth.SessionContext) (*services.ExportResult, error)
}

// Pinger reports database reachability. *sql.DB implements it.
type Pinger interface {
	PingContext(ctx context.Context) error
}

type CookieConfig struct {
	TTL    time.Duration
	Secure bool
}

// Deps wires the router to its collaborators. StaticDir is optional.
type Deps struct {
	Users     UserService
	Entries   EntryService
	Exports   ExportService
	DB        Pinger
	Logger    logging.Logger
	Cookie    CookieConfig
	StaticDir string
}

type api struct {
	users   UserService
	entries EntryService
	exports ExportService
	db      Pinger
	logger  logging.Logger
	cookie  CookieConfig
}

// NewRouter builds the HTTP handler for the whole application.
func NewRouter(d Deps) http.Handler {
	a := &api{
		users:   d.Users,
		entries: d.Entries,
		exports: d.Exports,
		db:      d.DB,
		logger:  d.Logger.With("module", "http"),
		cookie:  d.Cookie,
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", a.healthz)

	r.Route("/api", func(r chi.Router) {
		r.Use(a.requestLogger)
		r.Use(a.loadSession)

		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", a.register)
			r.Post("/login", a.login)
			r.With(requireSession).Post("/logout", a.logout)
			r.With(requireSession).Get("/me", a.me)
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(requireAdmin)
			r.Get("/users", a.listUsers)
			r.Patch("/users/{id}", a.updateUser)
			r.Delete("/users/{id}", a.deleteUser)
		})

		r.Post("/entries", a.submitEntry)
		r.With(requireApproved).Get("/entries", a.listEntries)
		r.With(requireApproved).Patch("/entries/{id}", a.setInvoiced)

		r.With(requireApproved).Get("/logs", a.listLogs)
		r.With(requireApproved).Post("/logs", a.recordLog)

		r.With(requireApproved).Post("/exports/invoiced", a.exportInvoiced)

		r.NotFound(func(w http.ResponseWriter, r *http.Request) {
			writeErrorMessage(w, http.StatusNotFound, "not found")
		})
	})

	if d.StaticDir != "" {
		r.NotFound(spaHandler(d.StaticDir))
	}

	return r
}
