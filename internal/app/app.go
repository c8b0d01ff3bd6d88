package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Aktiar0403/ShukkuList1.2/internal/config"
	"github.com/Aktiar0403/ShukkuList1.2/internal/family"
	"github.com/Aktiar0403/ShukkuList1.2/internal/firebaseadmin"
	"github.com/Aktiar0403/ShukkuList1.2/internal/handler"
	"github.com/Aktiar0403/ShukkuList1.2/internal/metadata"
	"github.com/Aktiar0403/ShukkuList1.2/internal/notification"
	"github.com/Aktiar0403/ShukkuList1.2/internal/push"
	"github.com/Aktiar0403/ShukkuList1.2/internal/ratelimit"
	"github.com/Aktiar0403/ShukkuList1.2/internal/server"
	"github.com/Aktiar0403/ShukkuList1.2/internal/telemetry"
)

// Version is reported to telemetry. Overridden at build time.
var Version = "dev"

type App struct {
	Config              *config.Config
	Server              *server.Server
	Firebase            *firebaseadmin.Clients
	Fetcher             *metadata.Fetcher
	NotificationService *notification.Service
	Janitor             *notification.Janitor
	RateLimiter         *ratelimit.Limiter

	shutdownTelemetry telemetry.ShutdownFunc
}

func New(ctx context.Context, cfg *config.Config) (*App, error) {
	shutdownTelemetry, err := telemetry.Setup(ctx, cfg.Telemetry, Version)
	if err != nil {
		return nil, err
	}

	// Metadata fetch service
	cache := metadata.NewMemoryCache(cfg.Metadata.CacheSize, cfg.Metadata.CacheTTL)
	fetcher := metadata.NewFetcher(cache, metadata.Options{
		FetchTimeout:  cfg.Metadata.FetchTimeout,
		MaxAttempts:   cfg.Metadata.MaxAttempts,
		MaxBodySize:   cfg.Metadata.MaxBodySize,
		UserAgent:     cfg.Metadata.UserAgent,
		AllowPrivate:  cfg.Metadata.AllowPrivate,
		UpstreamRate:  cfg.Metadata.UpstreamRate,
		UpstreamBurst: cfg.Metadata.UpstreamBurst,
	})

	// Firebase is optional at startup: without it the notification endpoint
	// answers with a configuration error and everything else keeps working.
	var (
		store   notification.FamilyStore
		sender  push.Sender
		janitor *notification.Janitor
		cleaner notification.Cleaner
	)
	clients, err := initFirebase(ctx, cfg.Firebase)
	if err != nil {
		slog.Error("firebase unavailable, notifications disabled", "error", err)
	} else {
		repo := family.NewRepository(clients.Firestore)
		store = repo
		sender = push.NewFCM(clients.Messaging)
		janitor = notification.NewJanitor(repo, cfg.Notification.CleanupQueueSize)
		cleaner = janitor
	}

	notificationService := notification.NewService(store, sender, cleaner, notification.Options{
		FallbackBody:      cfg.Notification.FallbackBody,
		ChannelID:         cfg.Notification.ChannelID,
		MaxStoredTokens:   cfg.Notification.MaxStoredTokens,
		MinTokenLength:    cfg.Notification.MinTokenLength,
		MemberConcurrency: cfg.Notification.MemberConcurrency,
	})

	h := handler.New(handler.Dependencies{
		Metadata: fetcher,
		Notifier: notificationService,
	})

	limiter := ratelimit.FromConfig(cfg.RateLimit)

	if cfg.Server.StaticDir != "" {
		slog.Info("serving static web client", "dir", cfg.Server.StaticDir)
	}

	router := server.NewRouter(h, limiter, server.RouterOptions{
		AllowedOrigins: cfg.Server.AllowedOrigins,
		StaticDir:      cfg.Server.StaticDir,
	})

	srv, err := server.New(cfg.Server, router)
	if err != nil {
		_ = clients.Close()
		_ = shutdownTelemetry(ctx)
		return nil, err
	}

	return &App{
		Config:              cfg,
		Server:              srv,
		Firebase:            clients,
		Fetcher:             fetcher,
		NotificationService: notificationService,
		Janitor:             janitor,
		RateLimiter:         limiter,
		shutdownTelemetry:   shutdownTelemetry,
	}, nil
}

func initFirebase(ctx context.Context, cfg config.FirebaseConfig) (*firebaseadmin.Clients, error) {
	sa, err := firebaseadmin.LoadServiceAccount(cfg)
	if err != nil {
		return nil, err
	}
	clients, err := firebaseadmin.Init(ctx, sa)
	if err != nil {
		return nil, err
	}
	slog.Info("firebase initialized", "project", sa.ProjectID)
	return clients, nil
}

func (a *App) Start(ctx context.Context) error {
	// Start stale token cleanup
	if a.Janitor != nil {
		go a.Janitor.Start(ctx)
	}

	// Start rate limiter cleanup
	if a.RateLimiter != nil {
		go a.RateLimiter.Run(ctx, 10*time.Minute)
	}

	slog.Info("starting shukku api",
		"addr", a.Server.Addr(),
		"tls", a.Server.TLSMode(),
		"notifications", a.Firebase != nil,
		"cache_size", a.Config.Metadata.CacheSize,
		"cache_ttl", a.Config.Metadata.CacheTTL,
	)

	return a.Server.Start()
}

func (a *App) Shutdown(ctx context.Context) error {
	errs := []error{a.Server.Shutdown(ctx)}
	if err := a.Firebase.Close(); err != nil {
		errs = append(errs, fmt.Errorf("closing firestore: %w", err))
	}
	if a.shutdownTelemetry != nil {
		if err := a.shutdownTelemetry(ctx); err != nil {
			errs = append(errs, fmt.Errorf("flushing telemetry: %w", err))
		}
	}
	return errors.Join(errs...)
}
