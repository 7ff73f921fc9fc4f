// Package ports declares the interfaces the lead-qualification service
// depends on. Implementations live in repository, adapters, scoring, agent
// and scheduler.
package ports

import (
	"context"
	"errors"

	"leadbot_backend/internal/leads/domain"
)

// ErrNotFound is returned by stores when a lead or session does not exist.
var ErrNotFound = errors.New("not found")

// ErrLockHeld is returned by a TurnLocker when another writer holds the lead.
var ErrLockHeld = errors.New("turn already in progress")

// Classifier labels a finished conversation. Implementations never fail:
// degraded paths are reported through ClassificationResult.FallbackReason.
type Classifier interface {
	Classify(ctx context.Context, input domain.ClassificationInput) domain.ClassificationResult
}

// ClassifierFunc adapts a function to Classifier.
type ClassifierFunc func(ctx context.Context, input domain.ClassificationInput) domain.ClassificationResult

func (f ClassifierFunc) Classify(ctx context.Context, input domain.ClassificationInput) domain.ClassificationResult {
	return f(ctx, input)
}

// TextGenerator is the external text-generation collaborator.
type TextGenerator interface {
	Generate(ctx context.Context, system, prompt string) (string, error)
}

// SessionStore loads conversation sessions keyed by lead ID. Sessions are
// only written together with their lead through Store.
type SessionStore interface {
	LoadSession(ctx context.Context, leadID string) (domain.ConversationSession, error)
}

// LeadStore persists leads.
type LeadStore interface {
	GetLead(ctx context.Context, id string) (domain.Lead, error)
	FindLatestLeadByPhone(ctx context.Context, phone string) (domain.Lead, error)
	ListLeads(ctx context.Context, filter domain.LeadFilter) ([]domain.Lead, error)
	UpdateLead(ctx context.Context, lead domain.Lead) error
}

// Store is the full persistence port. CreateLead and SaveTurn write the lead
// and its session atomically: either both are persisted or neither is.
type Store interface {
	SessionStore
	LeadStore
	CreateLead(ctx context.Context, lead domain.Lead, session domain.ConversationSession) error
	SaveTurn(ctx context.Context, session domain.ConversationSession, lead domain.Lead) error
	ListFinishedSessions(ctx context.Context, filter domain.LeadFilter) ([]domain.ConversationSession, error)
	Close() error
}

// TurnLocker serialises turns for one lead. Lock blocks until the lead is
// free, ctx is done, or the locker gives up with ErrLockHeld.
type TurnLocker interface {
	Lock(ctx context.Context, leadID string) (unlock func(), err error)
}

// ReclassifyScheduler queues a background reclassification.
type ReclassifyScheduler interface {
	EnqueueReclassify(ctx context.Context, leadID, requestedBy string) error
}
