package scheduler

import (
	"context"
	"fmt"

	"leadbot_backend/internal/leads/domain"
	"leadbot_backend/platform/apperr"
	"leadbot_backend/platform/config"
	"leadbot_backend/platform/logger"

	"github.com/hibiken/asynq"
)

// Reclassifier reruns classification for a finished conversation.
type Reclassifier interface {
	Reclassify(ctx context.Context, leadID, actor string) (domain.Lead, error)
}

type Worker struct {
	server       *asynq.Server
	mux          *asynq.ServeMux
	reclassifier Reclassifier
	log          *logger.Logger
}

func NewWorker(cfg config.SchedulerConfig, reclassifier Reclassifier, log *logger.Logger) (*Worker, error) {
	redisURL := cfg.GetRedisURL()
	if redisURL == "" {
		return nil, fmt.Errorf("redis url not configured")
	}

	opt, err := redisClientOpt(redisURL, cfg.GetRedisTLSInsecure())
	if err != nil {
		return nil, err
	}

	concurrency := cfg.GetAsynqConcurrency()
	if concurrency < 1 {
		concurrency = 10
	}

	server := asynq.NewServer(opt, asynq.Config{
		Concurrency: concurrency,
		Queues: map[string]int{
			queueName(cfg): 1,
		},
	})

	w := newWorker(reclassifier, log)
	w.server = server
	return w, nil
}

func newWorker(reclassifier Reclassifier, log *logger.Logger) *Worker {
	if log == nil {
		log = logger.Discard()
	}
	w := &Worker{
		mux:          asynq.NewServeMux(),
		reclassifier: reclassifier,
		log:          log,
	}
	w.mux.HandleFunc(TaskReclassifyLead, w.handleReclassifyLead)
	return w
}

func (w *Worker) Run(ctx context.Context) {
	if w == nil || w.server == nil {
		return
	}

	go func() {
		<-ctx.Done()
		w.server.Shutdown()
	}()

	if err := w.server.Run(w.mux); err != nil {
		w.log.Error("scheduler worker stopped", "error", err)
	}
}

// handleReclassifyLead retries only transient failures. A lead that is gone
// or whose conversation is still open is dropped.
func (w *Worker) handleReclassifyLead(ctx context.Context, task *asynq.Task) error {
	payload, err := ParseReclassifyLeadPayload(task)
	if err != nil {
		return fmt.Errorf("%w: %v", asynq.SkipRetry, err)
	}

	lead, err := w.reclassifier.Reclassify(ctx, payload.LeadID, payload.RequestedBy)
	switch {
	case apperr.Is(err, apperr.KindNotFound), apperr.Is(err, apperr.KindConflict):
		w.log.Warn("reclassify job dropped", "leadId", payload.LeadID, "error", err)
		return fmt.Errorf("%w: %v", asynq.SkipRetry, err)
	case err != nil:
		return err
	}

	w.log.LeadClassified(lead.ID, string(lead.Classification), lead.Score, "reclassify job")
	return nil
}
