package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"leadbot_backend/internal/bootstrap"
	"leadbot_backend/internal/businessprofile"
	"leadbot_backend/internal/events"
	"leadbot_backend/internal/exports"
	apphttp "leadbot_backend/internal/http"
	"leadbot_backend/internal/http/router"
	"leadbot_backend/internal/leads"
	"leadbot_backend/internal/leads/adapters"
	"leadbot_backend/internal/leads/ports"
	"leadbot_backend/internal/leads/service"
	"leadbot_backend/internal/scheduler"
	"leadbot_backend/platform/config"
	"leadbot_backend/platform/logger"
	"leadbot_backend/platform/validator"

	"golang.org/x/sync/errgroup"
)

const (
	shutdownTimeout = 10 * time.Second
	turnLockWait    = 5 * time.Second
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	// Initialize structured logger
	log := logger.New(cfg.Env)
	log.Info("starting server", "env", cfg.Env, "addr", cfg.HTTPAddr, "store", cfg.StoreDriver)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("server stopped with error", "error", err)
		os.Exit(1)
	}
	log.Info("server stopped")
}

func run(ctx context.Context, cfg *config.Config, log *logger.Logger) error {
	// ========================================================================
	// Infrastructure Layer
	// ========================================================================

	store, health, err := bootstrap.OpenStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	redisClient, err := bootstrap.NewRedisClient(cfg)
	if err != nil {
		return fmt.Errorf("redis: %w", err)
	}
	if redisClient != nil {
		defer func() { _ = redisClient.Close() }()
	}

	// Event bus for decoupled communication between modules
	eventBus := events.NewInMemoryBus(log)
	defer eventBus.Wait()

	// Shared validator instance for dependency injection
	val := validator.New()

	profile, err := businessprofile.Load(cfg.GetBusinessProfilesPath(), cfg.GetIndustry())
	if err != nil {
		return fmt.Errorf("business profile: %w", err)
	}
	log.Info("business script loaded", "industry", profile.Industry, "questions", len(profile.Script.Steps))

	classifier, err := leads.NewClassifier(cfg, profile.Rules, log)
	if err != nil {
		return fmt.Errorf("classifier: %w", err)
	}

	// ========================================================================
	// Domain Modules (Composition Root)
	// ========================================================================

	// Notification module subscribes to domain events (not HTTP-facing)
	if err := bootstrap.RegisterNotifications(ctx, cfg, eventBus, log); err != nil {
		return err
	}

	var locker ports.TurnLocker = adapters.NewLocalTurnLocker()
	var serviceOpts []service.Option
	if redisClient != nil {
		locker = adapters.NewRedisTurnLocker(redisClient, cfg.GetTurnLockTTL(), turnLockWait)

		schedulerClient, err := scheduler.NewClient(cfg)
		if err != nil {
			return fmt.Errorf("scheduler client: %w", err)
		}
		defer func() { _ = schedulerClient.Close() }()
		serviceOpts = append(serviceOpts, service.WithReclassifyScheduler(schedulerClient))
	} else {
		log.Warn("REDIS_URL not configured; using in-process turn lock and inline reclassification")
	}

	leadsModule := leads.NewModule(store, locker, classifier, profile, eventBus, val, cfg, log, serviceOpts...)
	exportsModule := exports.NewModule(store, val)

	// ========================================================================
	// HTTP Layer
	// ========================================================================

	app := &apphttp.App{
		Config: cfg,
		Logger: log,
		Health: health,
		Info: apphttp.HealthInfo{
			Industry:       profile.Industry,
			QuestionsCount: len(profile.Script.Steps),
		},
		EventBus: eventBus,
		Modules: []apphttp.Module{
			leadsModule,
			exportsModule,
		},
	}

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router.New(app),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	if redisClient != nil && cfg.IsWorkerEmbedded() {
		worker, err := scheduler.NewWorker(cfg, leadsModule.Service(), log)
		if err != nil {
			return fmt.Errorf("scheduler worker: %w", err)
		}
		g.Go(func() error {
			worker.Run(gctx)
			return nil
		})
	} else if redisClient != nil {
		log.Info("embedded worker disabled; reclassify jobs are left to cmd/scheduler", "queue", cfg.GetAsynqQueue())
	}

	g.Go(func() error {
		log.Info("server listening", "addr", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutdown signal received, gracefully shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
