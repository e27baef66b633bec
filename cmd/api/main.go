package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"studio_production_backend/internal/adapters"
	"studio_production_backend/internal/adapters/storage"
	"studio_production_backend/internal/approval"
	"studio_production_backend/internal/auth"
	"studio_production_backend/internal/broadcast"
	"studio_production_backend/internal/deadline"
	"studio_production_backend/internal/email"
	"studio_production_backend/internal/episode"
	"studio_production_backend/internal/events"
	"studio_production_backend/internal/files"
	apphttp "studio_production_backend/internal/http"
	"studio_production_backend/internal/http/router"
	"studio_production_backend/internal/identity"
	"studio_production_backend/internal/notification"
	"studio_production_backend/internal/scheduler"
	"studio_production_backend/internal/workitem"
	"studio_production_backend/platform/config"
	"studio_production_backend/platform/db"
	"studio_production_backend/platform/logger"
	"studio_production_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.New(cfg.Env)
	log.Info("starting server", "env", cfg.Env, "addr", cfg.HTTPAddr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ========================================================================
	// Infrastructure Layer
	// ========================================================================

	if err := withRetry(ctx, log, "database migrations", 5, 2*time.Second, func() error {
		return db.RunMigrations(ctx, cfg, "migrations")
	}); err != nil {
		log.Error("failed to run database migrations", "error", err)
		panic("failed to run database migrations: " + err.Error())
	}
	log.Info("database migrations complete")

	var pool *pgxpool.Pool
	if err := withRetry(ctx, log, "database connection", 5, 2*time.Second, func() error {
		p, err := db.NewPool(ctx, cfg)
		if err != nil {
			return err
		}
		pool = p
		return nil
	}); err != nil {
		log.Error("failed to connect to database", "error", err)
		panic("failed to connect to database: " + err.Error())
	}
	defer pool.Close()
	log.Info("database connection established")

	// Event bus for decoupled communication between modules
	eventBus := events.NewInMemoryBus(log)

	// Shared validator instance for dependency injection
	val := validator.New()

	sender := initEmailSender(cfg, log)

	// ========================================================================
	// Domain Modules (Composition Root)
	// ========================================================================

	identityModule := identity.NewModule(pool, val, log)

	directory := adapters.NewUserDirectory(identityModule.Repository())
	notificationModule := notification.NewModule(pool, sender, directory, log)
	defer notificationModule.Close()

	deadlineModule := deadline.NewModule(pool, identityModule.Service(), eventBus, val, log)
	episodeModule := episode.NewModule(pool, identityModule.Service(), deadlineModule.Service(), eventBus, val, log)
	broadcastModule := broadcast.NewModule(pool, identityModule.Service(), episodeModule.Service(), episodeModule.Service(), log)
	approvalModule := approval.NewModule(pool, identityModule.Service(), broadcastModule.Service(),
		episodeModule.Service(), notificationModule.Service(), val, log)
	workitemModule := workitem.NewModule(pool, identityModule.Service(), episodeModule.Service(),
		approvalModule.Service(), notificationModule.Service(), val, log)
	authModule := auth.NewModule(identityModule.Repository(), cfg, val, log)

	modules := []apphttp.Module{
		authModule,
		identityModule,
		episodeModule,
		deadlineModule,
		workitemModule,
		approvalModule,
		broadcastModule,
		notificationModule,
	}

	// Deadline reminders are enqueued on redis when configured; the
	// scheduler worker binary consumes them.
	if cfg.IsSchedulerEnabled() {
		reminderClient, err := scheduler.NewClient(cfg, log)
		if err != nil {
			log.Error("failed to initialize reminder scheduler client", "error", err)
		} else {
			defer reminderClient.Close()
			reminderClient.SubscribeDeadlineEvents(eventBus)
			log.Info("deadline reminder scheduling enabled")
		}
	} else {
		log.Warn("REDIS_URL not configured; deadline reminders disabled")
	}

	// Object storage for deliverable files and rundowns.
	if cfg.IsMinIOEnabled() {
		storageSvc, err := storage.NewMinIOService(cfg)
		if err != nil {
			log.Error("failed to initialize storage service", "error", err)
			panic("failed to initialize storage service: " + err.Error())
		}
		ensureBucket(ctx, log, storageSvc, cfg.GetMinioBucketWorkItemFiles())
		ensureBucket(ctx, log, storageSvc, cfg.GetMinioBucketRundowns())
		modules = append(modules, files.NewModule(storageSvc, val))
		log.Info("storage service initialized",
			"workItemFilesBucket", cfg.GetMinioBucketWorkItemFiles(),
			"rundownsBucket", cfg.GetMinioBucketRundowns(),
		)
	} else {
		log.Warn("MinIO not configured; file upload endpoints disabled")
	}

	// ========================================================================
	// HTTP Layer
	// ========================================================================

	app := &apphttp.App{
		Config:   cfg,
		Logger:   log,
		Health:   pool,
		EventBus: eventBus,
		Modules:  modules,
	}

	engine := router.New(app)

	srvErr := make(chan error, 1)
	go func() {
		log.Info("server listening", "addr", cfg.HTTPAddr)
		srvErr <- engine.Run(cfg.HTTPAddr)
	}()

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received, gracefully shutting down")
	case err := <-srvErr:
		if err != nil {
			log.Error("server error", "error", err)
			panic("server error: " + err.Error())
		}
	}
}

func initEmailSender(cfg *config.Config, log *logger.Logger) email.Sender {
	if !cfg.GetEmailEnabled() || cfg.GetSMTPHost() == "" {
		log.Warn("SMTP not configured; notification emails disabled")
		return nil
	}
	return email.NewSMTPSender(
		cfg.GetSMTPHost(), cfg.GetSMTPPort(),
		cfg.GetSMTPUsername(), cfg.GetSMTPPassword(),
		cfg.GetEmailFromAddress(), cfg.GetEmailFromName(),
	)
}

func ensureBucket(ctx context.Context, log *logger.Logger, storageSvc storage.Service, bucket string) {
	if err := withRetry(ctx, log, "ensure bucket "+bucket, 5, 2*time.Second, func() error {
		return storageSvc.EnsureBucketExists(ctx, bucket)
	}); err != nil {
		log.Error("failed to ensure storage bucket exists", "error", err, "bucket", bucket)
		panic("failed to ensure storage bucket exists: " + err.Error())
	}
}

func withRetry(ctx context.Context, log *logger.Logger, name string, attempts int, baseDelay time.Duration, fn func() error) error {
	if attempts < 1 {
		return fmt.Errorf("%s: invalid retry attempts", name)
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := fn(); err == nil {
			return nil
		} else {
			lastErr = err
			log.Warn("retryable operation failed", "operation", name, "attempt", attempt, "error", err)
		}

		if attempt < attempts {
			delay := time.Duration(attempt*attempt) * baseDelay
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}
	}

	return errors.New(name + ": " + lastErr.Error())
}
