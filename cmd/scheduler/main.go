package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"leadbot_backend/internal/bootstrap"
	"leadbot_backend/internal/businessprofile"
	"leadbot_backend/internal/events"
	"leadbot_backend/internal/leads"
	"leadbot_backend/internal/leads/adapters"
	"leadbot_backend/internal/scheduler"
	"leadbot_backend/platform/config"
	"leadbot_backend/platform/logger"
	"leadbot_backend/platform/validator"
)

const turnLockWait = 5 * time.Second

func main() {
	cfg, err := config.LoadForCLI()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.New(cfg.Env)
	log.Info("starting scheduler", "env", cfg.Env, "queue", cfg.GetAsynqQueue())

	if !cfg.IsRedisEnabled() {
		panic("REDIS_URL is required to run the scheduler")
	}
	if cfg.GetStoreDriver() == config.StoreDriverMemory {
		panic("the scheduler needs a shared store; memory keeps leads inside the api process")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, _, err := bootstrap.OpenStore(ctx, cfg, log)
	if err != nil {
		log.Error("failed to open store", "error", err)
		panic("failed to open store: " + err.Error())
	}
	defer func() { _ = store.Close() }()

	redisClient, err := bootstrap.NewRedisClient(cfg)
	if err != nil {
		panic("failed to connect to redis: " + err.Error())
	}
	defer func() { _ = redisClient.Close() }()

	eventBus := events.NewInMemoryBus(log)
	defer eventBus.Wait()

	// Hot verdicts from reclassification still page sales.
	if err := bootstrap.RegisterNotifications(ctx, cfg, eventBus, log); err != nil {
		log.Error("failed to initialize notifications", "error", err)
		panic("failed to initialize notifications: " + err.Error())
	}

	profile, err := businessprofile.Load(cfg.GetBusinessProfilesPath(), cfg.GetIndustry())
	if err != nil {
		panic("failed to load business profile: " + err.Error())
	}
	classifier, err := leads.NewClassifier(cfg, profile.Rules, log)
	if err != nil {
		panic("failed to initialize classifier: " + err.Error())
	}

	locker := adapters.NewRedisTurnLocker(redisClient, cfg.GetTurnLockTTL(), turnLockWait)
	leadsModule := leads.NewModule(store, locker, classifier, profile, eventBus, validator.New(), cfg, log)

	worker, err := scheduler.NewWorker(cfg, leadsModule.Service(), log)
	if err != nil {
		log.Error("failed to initialize scheduler worker", "error", err)
		panic("failed to initialize scheduler worker: " + err.Error())
	}

	worker.Run(ctx)
	log.Info("scheduler stopped")
}
