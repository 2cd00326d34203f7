package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/saturnino-fabrica-de-software/workforce/internal/api"
	"github.com/saturnino-fabrica-de-software/workforce/internal/attendance"
	"github.com/saturnino-fabrica-de-software/workforce/internal/audit"
	"github.com/saturnino-fabrica-de-software/workforce/internal/config"
	"github.com/saturnino-fabrica-de-software/workforce/internal/database"
	"github.com/saturnino-fabrica-de-software/workforce/internal/detection"
	"github.com/saturnino-fabrica-de-software/workforce/internal/events"
	"github.com/saturnino-fabrica-de-software/workforce/internal/gallery"
	"github.com/saturnino-fabrica-de-software/workforce/internal/models"
	"github.com/saturnino-fabrica-de-software/workforce/internal/repository"
	"github.com/saturnino-fabrica-de-software/workforce/internal/safety"
	"github.com/saturnino-fabrica-de-software/workforce/internal/video"
	"github.com/saturnino-fabrica-de-software/workforce/internal/webhook"
	"github.com/saturnino-fabrica-de-software/workforce/internal/ws"
)

const shutdownTimeout = 10 * time.Second

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Initialize logger
	logger := config.NewLogger(cfg.Environment)
	slog.SetDefault(logger)
	auditLogger := audit.NewSlogLogger(logger)

	logger.Info("starting Workforce API",
		slog.String("environment", cfg.Environment),
		slog.Int("port", cfg.Port),
		slog.String("face_provider", cfg.FaceProvider),
		slog.String("safety_provider", cfg.SafetyProvider),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.MigrateOnStart {
		version, err := database.MigrateUp(ctx, cfg.DatabaseURL)
		if err != nil {
			return fmt.Errorf("failed to migrate database: %w", err)
		}
		logger.Info("database migrated", slog.Uint64("version", uint64(version)))
	}

	poolCfg := database.DefaultPoolConfig(cfg.DatabaseURL)
	poolCfg.MaxConns = cfg.DBMaxConns
	pool, err := database.NewPool(ctx, poolCfg)
	if err != nil {
		return fmt.Errorf("failed to connect database: %w", err)
	}
	defer pool.Close()

	identities := repository.NewIdentityRepository(pool)
	attendanceRepo := repository.NewAttendanceRepository(pool)
	safetyRepo := repository.NewSafetyEventRepository(pool)

	// Gallery and attendance dedup. A failed first load leaves an empty
	// gallery; POST /v1/gallery/reload retries it.
	g := gallery.New(identities, logger, gallery.WithAuditLogger(auditLogger))
	trigger := attendance.NewTrigger(
		attendance.NewDailySet(time.Now),
		attendanceRepo,
		logger,
		attendance.WithAuditLogger(auditLogger),
		attendance.WithRecordTimeout(cfg.AttendanceTimeout),
		attendance.WithTouchInterval(cfg.AttendanceTouch),
	)
	if err := g.Reload(ctx); err != nil {
		logger.Error("initial gallery load failed", slog.Any("error", err))
	} else {
		warmed := trigger.Warm(ctx, g.IdentityIDs())
		logger.Info("gallery loaded",
			slog.Int("identities", g.Size()),
			slog.Int("credited_today", warmed),
		)
	}

	// Event fan-out: websocket clients and safety persistence
	broadcaster := events.New(logger)

	hubCtx, stopHub := context.WithCancel(context.Background())
	defer stopHub()
	hub := ws.NewHub(logger)
	go hub.Run(hubCtx)
	broadcaster.SubscribeFaces(hub.PublishFace)
	broadcaster.SubscribeSafety(hub.PublishSafety)

	recorderOpts := []safety.RecorderOption{
		safety.WithAuditLogger(auditLogger),
		safety.WithRepeatInterval(cfg.SafetyRepeatInterval),
	}
	if cfg.AlertWebhookURL != "" {
		notifier, err := webhook.NewNotifier(cfg.AlertWebhookURL, cfg.AlertWebhookSecret, logger)
		if err != nil {
			return fmt.Errorf("failed to create alert notifier: %w", err)
		}
		recorderOpts = append(recorderOpts, safety.WithNotifier(notifier))
	}
	recorder := safety.NewRecorder(safetyRepo, logger, recorderOpts...)
	broadcaster.SubscribeSafety(recorder.Handle)

	m, err := models.New(ctx, cfg, auditLogger)
	if err != nil {
		return fmt.Errorf("failed to create models: %w", err)
	}

	loop := detection.New(detection.Deps{
		Face:      m.Face,
		Safety:    m.Safety,
		Readiness: m.Readiness,
		Gallery:   g,
		Matcher:   gallery.NewMatcher(g, cfg.MatchThreshold),
		Trigger:   trigger,
		Publisher: broadcaster,
	}, detection.Config{
		CycleInterval:         cfg.CycleInterval,
		ModelTimeout:          cfg.ModelTimeout,
		ReadinessPollInterval: cfg.ReadinessPollInterval,
		ReadinessTimeout:      cfg.ReadinessTimeout,
		FrameMaxSize:          cfg.FrameMaxSize,
	}, logger, detection.WithAuditLogger(auditLogger))

	// Setup router
	router := api.NewRouter(logger, &api.Dependencies{
		Loop: loop,
		Sources: func(locator, cameraID string) (video.Source, error) {
			return video.Parse(locator, cameraID, nil)
		},
		Gallery: g,
		Warmer:  trigger,
		Hub:     hub,
		DB:      pool,
		Models:  m.Readiness,
	})
	router.Setup()

	// Start server in goroutine
	errChan := make(chan error, 1)
	go func() {
		addr := fmt.Sprintf(":%d", cfg.Port)
		logger.Info("server listening", slog.String("addr", addr))
		if err := router.Listen(addr); err != nil {
			errChan <- err
		}
	}()

	// Wait for shutdown signal or error
	var serverErr error
	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-errChan:
		serverErr = fmt.Errorf("server error: %w", err)
	}

	// Stop producing events before tearing down their consumers
	logger.Info("shutting down server...")
	loop.Stop()
	if err := router.Shutdown(shutdownTimeout); err != nil {
		logger.Error("shutdown error", slog.Any("error", err))
	}
	trigger.Wait()
	broadcaster.Close()
	stopHub()

	logger.Info("server stopped")
	return serverErr
}
