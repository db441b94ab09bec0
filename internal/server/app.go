// Package server initializes and runs the canteen application: it opens the
// database, applies migrations, bootstraps the admin account and serves the
// JSON API until the process is signalled.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kantina/canteen/internal/logging"
	"github.com/kantina/canteen/internal/server/config"
	"github.com/kantina/canteen/internal/server/httpapi"
	"github.com/kantina/canteen/internal/server/repositories/repomanager"
	"github.com/kantina/canteen/internal/server/services"
)

type App struct {
	config  *config.Config
	logger  logging.Logger
	db      *sql.DB
	manager repomanager.RepositoryManager
	users   *services.UserService
	entries *services.EntryService
	exports *services.ExportService
}

// NewApp validates c, connects to PostgreSQL and builds the services.
func NewApp(c *config.Config) (*App, error) {
	logger := logging.NewSlogLogger(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	warnings, err := c.Validate()
	if err != nil {
		return nil, fmt.Errorf("config error: %w", err)
	}
	for _, w := range warnings {
		logger.Warn(context.Background(), w)
	}

	db, err := OpenDB(context.Background(), c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	return newApp(c, logger, db, repomanager.NewPostgresRepositoryManager()), nil
}

func newApp(c *config.Config, logger logging.Logger, db *sql.DB, m repomanager.RepositoryManager) *App {
	return &App{
		config:  c,
		logger:  logger,
		db:      db,
		manager: m,
		users:   services.NewUserService(db, m, c, logger),
		entries: services.NewEntryService(db, m, logger),
		exports: services.NewExportService(db, m, c, logger),
	}
}

// OpenDB opens a pgx-backed pool and checks that the server answers.
func OpenDB(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

// bootstrap prepares the schema and the admin account before serving.
func (app *App) bootstrap(ctx context.Context) error {
	if err := app.manager.RunMigrations(ctx, app.db); err != nil {
		return fmt.Errorf("migrations: %w", err)
	}

	if _, err := app.users.EnsureAdmin(ctx, app.config.AdminUsername, app.config.AdminPassword); err != nil {
		return fmt.Errorf("ensure admin: %w", err)
	}

	n, err := app.users.PurgeExpiredSessions(ctx)
	if err != nil {
		return fmt.Errorf("purge sessions: %w", err)
	}
	if n > 0 {
		app.logger.Info(ctx, "expired sessions purged", "count", n)
	}
	return nil
}

// Handler returns the HTTP API bound to the app's services.
func (app *App) Handler() http.Handler {
	return httpapi.NewRouter(httpapi.Deps{
		Users:   app.users,
		Entries: app.entries,
		Exports: app.exports,
		DB:      app.db,
		Logger:  app.logger,
		Cookie: httpapi.CookieConfig{
			TTL:    app.config.SessionTTL,
			Secure: app.config.CookieSecure || app.config.IsProduction(),
		},
		StaticDir: app.config.StaticDir,
	})
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

// Run blocks until the HTTP server stops, either on a signal or on error.
func (app *App) Run(ctx context.Context) error {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")
	app.initSignalHandler(cancelFunc)

	defer func() {
		if err := app.db.Close(); err != nil {
			app.logger.Error(ctx, "db close error", "error", err)
		}
	}()

	if err := app.bootstrap(ctx); err != nil {
		return err
	}

	s := httpapi.NewServer(app.config.HTTPAddr, app.Handler(), app.logger, app.config.ShutdownTimeout)
	if err := s.Run(ctx); err != nil {
		return err
	}

	app.logger.Info(ctx, "App stopped")
	return nil
}
