// Package bootstrap builds the infrastructure shared by the api, scheduler
// and leadctl binaries from configuration.
package bootstrap

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"time"

	"leadbot_backend/internal/adapters/storage"
	"leadbot_backend/internal/email"
	"leadbot_backend/internal/events"
	apphttp "leadbot_backend/internal/http"
	"leadbot_backend/internal/leads/ports"
	"leadbot_backend/internal/leads/repository"
	"leadbot_backend/internal/leads/repository/memory"
	"leadbot_backend/internal/leads/repository/sqlite"
	"leadbot_backend/internal/notification"
	"leadbot_backend/internal/whatsapp"
	"leadbot_backend/platform/config"
	"leadbot_backend/platform/db"
	"leadbot_backend/platform/logger"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

// OpenStore returns the configured lead store and, when it has one, its
// health check. Postgres migrations are applied before the store is returned.
func OpenStore(ctx context.Context, cfg *config.Config, log *logger.Logger) (ports.Store, apphttp.HealthChecker, error) {
	switch cfg.GetStoreDriver() {
	case config.StoreDriverPostgres:
		var pool *pgxpool.Pool
		if err := WithRetry(ctx, log, "database connection", 5, 2*time.Second, func() error {
			p, err := db.NewPool(ctx, cfg)
			if err != nil {
				return err
			}
			pool = p
			return nil
		}); err != nil {
			return nil, nil, fmt.Errorf("connect to database: %w", err)
		}
		if err := WithRetry(ctx, log, "database migrations", 5, 2*time.Second, func() error {
			return db.RunMigrations(ctx, pool)
		}); err != nil {
			pool.Close()
			return nil, nil, fmt.Errorf("run database migrations: %w", err)
		}
		log.Info("database migrations complete")
		return &pooledStore{Repository: repository.New(pool), close: pool.Close}, pool, nil

	case config.StoreDriverSQLite:
		store, err := sqlite.Open(ctx, cfg.GetSQLitePath())
		if err != nil {
			return nil, nil, err
		}
		log.Info("sqlite store opened", "path", cfg.GetSQLitePath())
		return store, store, nil

	default:
		log.Warn("using in-memory store; leads are lost on restart")
		return memory.New(), nil, nil
	}
}

// pooledStore closes the pool along with the repository.
type pooledStore struct {
	*repository.Repository
	close func()
}

func (s *pooledStore) Close() error {
	s.close()
	return nil
}

// NewRedisClient parses REDIS_URL. It returns nil when Redis is not configured.
func NewRedisClient(cfg config.RedisConfig) (*redis.Client, error) {
	if !cfg.IsRedisEnabled() {
		return nil, nil
	}
	opt, err := redis.ParseURL(cfg.GetRedisURL())
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	if cfg.GetRedisTLSInsecure() {
		if opt.TLSConfig == nil {
			opt.TLSConfig = &tls.Config{}
		}
		opt.TLSConfig.InsecureSkipVerify = true
	}
	return redis.NewClient(opt), nil
}

// NewEmailSender returns an SMTP sender, or a no-op sender when SMTP is not
// configured.
func NewEmailSender(cfg config.SMTPConfig, log *logger.Logger) email.Sender {
	if !cfg.IsSMTPEnabled() {
		log.Warn("SMTP not configured; hot lead alerts disabled")
		return email.NoopSender{}
	}
	return email.NewSMTPSender(
		cfg.GetSMTPHost(),
		cfg.GetSMTPPort(),
		cfg.GetSMTPUsername(),
		cfg.GetSMTPPassword(),
		cfg.GetSMTPFromAddress(),
		cfg.GetSMTPFromName(),
	)
}

// RegisterNotifications builds the notification module from configuration
// and subscribes it to bus.
func RegisterNotifications(ctx context.Context, cfg *config.Config, bus events.Bus, log *logger.Logger) error {
	module := notification.New(NewEmailSender(cfg, log), cfg.GetSalesAlertEmail(), cfg.GetAppBaseURL(), log)

	if client := whatsapp.NewClient(cfg, cfg.GetPhoneDefaultRegion(), log); client != nil {
		module.SetWhatsAppSender(client)
	}

	if cfg.IsMinIOEnabled() {
		storageSvc, err := storage.NewMinIOService(cfg)
		if err != nil {
			return fmt.Errorf("storage: %w", err)
		}
		bucket := cfg.GetMinioBucketTranscripts()
		if err := WithRetry(ctx, log, "ensure "+bucket+" bucket", 5, 2*time.Second, func() error {
			return storageSvc.EnsureBucketExists(ctx, bucket)
		}); err != nil {
			return fmt.Errorf("storage bucket: %w", err)
		}
		module.SetTranscriptArchive(storageSvc, bucket)
		log.Info("transcript archive enabled", "bucket", bucket)
	}

	module.RegisterHandlers(bus)
	return nil
}

// WithRetry runs fn up to attempts times with quadratic backoff.
func WithRetry(ctx context.Context, log *logger.Logger, name string, attempts int, baseDelay time.Duration, fn func() error) error {
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
