package main

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	adapthttp "github.com/sahinseyfi/TombistenFite-sub001/internal/adapter/http"
	"github.com/sahinseyfi/TombistenFite-sub001/internal/adapter/memory"
	"github.com/sahinseyfi/TombistenFite-sub001/internal/adapter/pgnotify"
	"github.com/sahinseyfi/TombistenFite-sub001/internal/adapter/postgres"
	"github.com/sahinseyfi/TombistenFite-sub001/internal/app"
	"github.com/sahinseyfi/TombistenFite-sub001/internal/clock"
	"github.com/sahinseyfi/TombistenFite-sub001/internal/config"
	"github.com/sahinseyfi/TombistenFite-sub001/internal/domain"
	"github.com/sahinseyfi/TombistenFite-sub001/internal/notify"
)

// store is what both storage adapters provide.
type store interface {
	domain.UserRepository
	domain.MeasurementRepository
	domain.TreatItemRepository
	domain.SpinRepository
	domain.NotificationRepository
}

const sessionPruneInterval = time.Hour

func main() {
	// .env is optional; real environment variables win.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("config", "error", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var (
		db       store
		sessions domain.SessionRepository
		pgdb     *postgres.DB
	)
	switch cfg.Storage {
	case config.StorageMemory:
		mem := memory.New()
		db, sessions = mem, mem.NewSessionRepo()
		logger.Warn("using in-memory storage; data is lost on restart")
	default:
		pgdb, err = postgres.Open(cfg.DatabaseURL)
		if err != nil {
			logger.Error("db open", "error", err)
			os.Exit(1)
		}
		defer func() { _ = pgdb.Close() }()
		db, sessions = pgdb, postgres.NewSessionRepo(pgdb)
	}

	hub := notify.NewHub(logger)
	var publisher notify.Publisher = notify.Local{Hub: hub}
	if cfg.EventBroker == config.BrokerPostgres {
		broker := pgnotify.New(cfg.DatabaseURL, pgdb, hub, logger)
		go broker.Start(ctx)
		publisher = broker
	}

	clk := clock.Real{}
	authSvc := app.NewAuthService(db, sessions)
	if cfg.JWTSecret != "" {
		authSvc = authSvc.WithAccessTokens(cfg.JWTSecret, cfg.JWTTTL)
	}
	notes := app.NewNotificationService(db, publisher, clk, logger)
	treatSvc := app.NewTreatService(app.TreatRepos{
		Users:        db,
		Measurements: db,
		Items:        db,
		Spins:        db,
	}, notes, cfg.Treats, clk)
	measureSvc := app.NewMeasurementService(db, treatSvc, notes, clk, logger)
	progressSvc := app.NewProgressService(db, cfg.Treats.Thresholds.EMAWindowDays, clk)

	oidcCfg, err := adapthttp.NewOIDCConfig(ctx, cfg.OIDC)
	if err != nil {
		logger.Error("oidc setup", "error", err)
		os.Exit(1)
	}

	srv := adapthttp.New(adapthttp.Services{
		Auth:          authSvc,
		Measurements:  measureSvc,
		Progress:      progressSvc,
		Treats:        treatSvc,
		Notifications: notes,
	}, hub, adapthttp.Options{
		WebDir:            cfg.WebDir,
		CORSAllowOrigins:  cfg.CORSAllowOrigins,
		RateLimitEnabled:  cfg.RateLimitEnabled,
		RateLimitRequests: cfg.RateLimitRequests,
		RateLimitWindow:   cfg.RateLimitWindow,
		StreamHeartbeat:   cfg.StreamHeartbeat,
		StreamRetry:       cfg.StreamRetry,
		OIDC:              oidcCfg,
		Logger:            logger,
	})

	go pruneSessions(ctx, authSvc, logger)

	httpServer := &http.Server{
		Addr:              cfg.Addr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		// Streams are long-lived, so no WriteTimeout.
		BaseContext: func(_ net.Listener) context.Context { return ctx },
	}

	go func() {
		logger.Info("listening", "addr", cfg.Addr, "storage", cfg.Storage, "broker", cfg.EventBroker)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown", "error", err)
	}
}

func pruneSessions(ctx context.Context, auth *app.AuthService, logger *slog.Logger) {
	ticker := time.NewTicker(sessionPruneInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := auth.PruneSessions(ctx); err != nil {
				logger.Warn("session prune failed", "error", err)
			}
		}
	}
}
