package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Aktiar0403/ShukkuList1.2/internal/app"
	"github.com/Aktiar0403/ShukkuList1.2/internal/config"
	"github.com/Aktiar0403/ShukkuList1.2/internal/firebaseadmin"
	"github.com/Aktiar0403/ShukkuList1.2/internal/logging"
)

const shutdownTimeout = 30 * time.Second

func main() {
	args := os.Args[1:]
	run := serve
	if len(args) > 0 && args[0] == "check" {
		run, args = check, args[1:]
	}

	if err := run(args); err != nil {
		slog.Error("shukku exited", "error", err)
		os.Exit(1)
	}
}

func loadConfig(args []string) (*config.Config, error) {
	flags := config.SetupFlags()
	if err := flags.Parse(args); err != nil {
		return nil, fmt.Errorf("parsing flags: %w", err)
	}
	configPath, _ := flags.GetString("config")

	cfg, err := config.Load(configPath, flags)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	logging.Setup(cfg.Log)
	return cfg, nil
}

func serve(args []string) error {
	cfg, err := loadConfig(args)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	application, err := app.New(ctx, cfg)
	if err != nil {
		return fmt.Errorf("creating application: %w", err)
	}

	errCh := make(chan error, 1)
	go func() { errCh <- application.Start(ctx) }()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server: %w", err)
		}
	case <-ctx.Done():
		slog.Info("received shutdown signal")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := application.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	slog.Info("server stopped")
	return nil
}

// check validates the configuration and Firebase credentials without
// starting the server, for use in deploy pipelines.
func check(args []string) error {
	cfg, err := loadConfig(args)
	if err != nil {
		return err
	}

	sa, err := firebaseadmin.LoadServiceAccount(cfg.Firebase)
	switch {
	case errors.Is(err, firebaseadmin.ErrNotConfigured):
		slog.Warn("no firebase service account configured, notifications will be disabled")
	case err != nil:
		return err
	default:
		slog.Info("firebase service account ok", "project", sa.ProjectID, "client_email", sa.ClientEmail)
	}

	slog.Info("configuration ok",
		"addr", fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		"tls", cfg.Server.TLS.Mode,
		"rate_limit", cfg.RateLimit.Enabled,
		"telemetry", cfg.Telemetry.OTLPEndpoint != "",
	)
	return nil
}
