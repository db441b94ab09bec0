package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/kantina/canteen/internal/ctl"
	"github.com/kantina/canteen/internal/logging"
	"github.com/kantina/canteen/internal/server"
	"github.com/kantina/canteen/internal/server/config"
	"github.com/kantina/canteen/internal/server/repositories/repomanager"
	"github.com/kantina/canteen/internal/server/services"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "canteenctl:", err)
		if errors.Is(err, ctl.ErrUsage) {
			os.Exit(2)
		}
		os.Exit(1)
	}
}

func run() error {
	args := os.Args[1:]
	if len(args) == 0 || args[0] == "help" {
		return ctl.NewApp(nil, nil, "", os.Stdout).Run(context.Background(), args)
	}

	logger := logging.NewSlogLogger(slog.New(slog.NewTextHandler(os.Stderr, nil)))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.LoadConfig(args)
	if err != nil {
		return err
	}
	warnings, err := cfg.Validate()
	if err != nil {
		return err
	}
	for _, w := range warnings {
		logger.Debug(ctx, w)
	}

	db, err := server.OpenDB(ctx, cfg.DatabaseDSN)
	if err != nil {
		return fmt.Errorf("db init error: %w", err)
	}
	defer db.Close()

	m := repomanager.NewPostgresRepositoryManager()
	if err := m.RunMigrations(ctx, db); err != nil {
		return fmt.Errorf("migrations: %w", err)
	}

	app := ctl.NewApp(
		services.NewImportService(db, m, logger),
		services.NewUserService(db, m, cfg, logger),
		cfg.AdminUsername,
		os.Stdout,
	)
	return app.Run(ctx, args)
}
