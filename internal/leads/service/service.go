// Package service runs lead-qualification turns: it serialises each lead's
// turns, loads and saves sessions, drives the conversation engine and
// publishes the resulting events.
package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"leadbot_backend/internal/events"
	"leadbot_backend/internal/leads/conversation"
	"leadbot_backend/internal/leads/domain"
	"leadbot_backend/internal/leads/ports"
	"leadbot_backend/internal/leads/transport"
	"leadbot_backend/platform/apperr"
	"leadbot_backend/platform/logger"
	"leadbot_backend/platform/phone"
	"leadbot_backend/platform/sanitize"

	"github.com/google/uuid"
)

const (
	maxReplyLength = 2000
	systemActor    = "system"
)

// TurnResult is what one reply produced.
type TurnResult struct {
	Lead           domain.Lead
	Session        domain.ConversationSession
	BotMessages    []domain.Message
	Outcome        *domain.ValidationOutcome
	Classification *domain.ClassificationResult
}

type Service struct {
	store     ports.Store
	engine    *conversation.Engine
	locker    ports.TurnLocker
	bus       events.Bus
	scheduler ports.ReclassifyScheduler
	region    string
	now       func() time.Time
	log       *logger.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithPhoneRegion sets the region used for numbers without a country code.
func WithPhoneRegion(region string) Option {
	return func(s *Service) { s.region = region }
}

// WithReclassifyScheduler queues RequestReclassify instead of running it
// inline.
func WithReclassifyScheduler(scheduler ports.ReclassifyScheduler) Option {
	return func(s *Service) { s.scheduler = scheduler }
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func New(store ports.Store, engine *conversation.Engine, locker ports.TurnLocker, bus events.Bus, log *logger.Logger, opts ...Option) *Service {
	if log == nil {
		log = logger.Discard()
	}
	s := &Service{
		store:  store,
		engine: engine,
		locker: locker,
		bus:    bus,
		region: phone.DefaultRegion,
		now:    time.Now,
		log:    log,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Script returns the Business Script the engine runs.
func (s *Service) Script() domain.Script {
	return s.engine.Script()
}

// StartConversation creates a lead and its session and returns the opening
// bot messages.
func (s *Service) StartConversation(ctx context.Context, req transport.CreateLeadRequest) (domain.Lead, domain.ConversationSession, error) {
	name := sanitize.Truncate(sanitize.Text(req.Name), 100)
	if name == "" {
		return domain.Lead{}, domain.ConversationSession{}, apperr.Validation("name is required")
	}
	if strings.TrimSpace(req.Phone) == "" {
		return domain.Lead{}, domain.ConversationSession{}, apperr.Validation("phone is required")
	}
	if !phone.IsValid(req.Phone, s.region) {
		return domain.Lead{}, domain.ConversationSession{}, apperr.Validation("invalid phone number")
	}
	source := strings.ToLower(strings.TrimSpace(req.Source))
	if source == "" {
		source = domain.SourceWebsite
	}

	now := s.now().UTC()
	lead := domain.Lead{
		ID:             uuid.NewString(),
		Name:           name,
		Phone:          phone.NormalizeE164(req.Phone, s.region),
		Email:          strings.TrimSpace(req.Email),
		Source:         source,
		InitialMessage: sanitize.Truncate(sanitize.Text(req.Message), maxReplyLength),
		Classification: domain.ClassificationPending,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	session := s.engine.Start(lead.ID, lead.Name)

	if err := s.store.CreateLead(ctx, lead, session); err != nil {
		s.log.DatabaseError("create lead", err)
		return domain.Lead{}, domain.ConversationSession{}, apperr.Wrap(apperr.KindInternal, "failed to create lead", err)
	}

	s.bus.Publish(ctx, events.LeadCreated{
		BaseEvent: events.NewBaseEvent(),
		LeadID:    lead.ID,
		Name:      lead.Name,
		Phone:     lead.Phone,
		Source:    lead.Source,
	})
	s.bus.Publish(ctx, events.ConversationStarted{
		BaseEvent:   events.NewBaseEvent(),
		LeadID:      lead.ID,
		Phone:       lead.Phone,
		Source:      lead.Source,
		BotMessages: session.Messages,
	})

	return lead, session, nil
}

// AdvanceConversation runs one turn for leadID. A reply to a finished
// conversation is rejected with a Conflict error.
func (s *Service) AdvanceConversation(ctx context.Context, leadID, reply string) (TurnResult, error) {
	if reply == "" {
		return TurnResult{}, apperr.Validation("message is required")
	}
	reply = sanitize.Truncate(sanitize.Text(reply), maxReplyLength)

	unlock, err := s.lock(ctx, leadID)
	if err != nil {
		return TurnResult{}, err
	}
	defer unlock()

	session, err := s.loadSession(ctx, leadID)
	if err != nil {
		return TurnResult{}, err
	}
	if session.IsTerminal() {
		return TurnResult{}, apperr.Conflict("conversation already finished")
	}
	lead, err := s.GetLead(ctx, leadID)
	if err != nil {
		return TurnResult{}, err
	}

	turn, err := s.engine.Advance(ctx, session, reply)
	if errors.Is(err, conversation.ErrConversationFinished) {
		return TurnResult{}, apperr.Conflict("conversation already finished")
	}
	if err != nil {
		return TurnResult{}, apperr.Wrap(apperr.KindInternal, "failed to process message", err)
	}

	now := s.now().UTC()
	lead = lead.WithProfile(turn.Session.Profile, now)
	if turn.Classification != nil {
		lead = lead.WithClassification(*turn.Classification, systemActor, now)
	}

	if err := s.store.SaveTurn(ctx, turn.Session, lead); err != nil {
		s.log.DatabaseError("save turn", err)
		return TurnResult{}, apperr.Wrap(apperr.KindInternal, "failed to save conversation", err)
	}

	s.log.TurnProcessed(leadID, session.CurrentStep, turn.Outcome.Valid, string(turn.Outcome.Reason), turn.Diff)
	s.publishTurn(ctx, lead, session.CurrentStep, turn)

	outcome := turn.Outcome
	return TurnResult{
		Lead:           lead,
		Session:        turn.Session,
		BotMessages:    turn.BotMessages,
		Outcome:        &outcome,
		Classification: turn.Classification,
	}, nil
}

func (s *Service) publishTurn(ctx context.Context, lead domain.Lead, step int, turn conversation.Turn) {
	s.bus.Publish(ctx, events.TurnProcessed{
		BaseEvent:   events.NewBaseEvent(),
		LeadID:      lead.ID,
		Phone:       lead.Phone,
		Source:      lead.Source,
		Step:        step,
		Outcome:     turn.Outcome,
		BotMessages: turn.BotMessages,
	})
	if !turn.Finished() {
		return
	}
	s.bus.Publish(ctx, events.ConversationFinished{
		BaseEvent: events.NewBaseEvent(),
		LeadID:    lead.ID,
		Status:    turn.Session.Status,
		Session:   turn.Session,
	})
	if turn.Classification != nil {
		s.publishClassified(ctx, lead, *turn.Classification, systemActor)
	}
}

func (s *Service) publishClassified(ctx context.Context, lead domain.Lead, result domain.ClassificationResult, actor string) {
	s.log.LeadClassified(lead.ID, string(result.Classification), result.Score, string(result.Method))
	if result.FallbackReason != "" {
		s.log.ClassifierFallback(lead.ID, result.FallbackReason)
	}
	s.bus.Publish(ctx, events.LeadClassified{
		BaseEvent: events.NewBaseEvent(),
		Lead:      lead,
		Result:    result,
		Actor:     actor,
	})
}

// GetSession returns the conversation of leadID.
func (s *Service) GetSession(ctx context.Context, leadID string) (domain.ConversationSession, error) {
	return s.loadSession(ctx, leadID)
}

func (s *Service) GetLead(ctx context.Context, id string) (domain.Lead, error) {
	lead, err := s.store.GetLead(ctx, id)
	if errors.Is(err, ports.ErrNotFound) {
		return domain.Lead{}, apperr.NotFound("lead not found")
	}
	if err != nil {
		s.log.DatabaseError("get lead", err)
		return domain.Lead{}, apperr.Wrap(apperr.KindInternal, "failed to load lead", err)
	}
	return lead, nil
}

func (s *Service) ListLeads(ctx context.Context, filter domain.LeadFilter) ([]domain.Lead, error) {
	leads, err := s.store.ListLeads(ctx, filter)
	if err != nil {
		s.log.DatabaseError("list leads", err)
		return nil, apperr.Wrap(apperr.KindInternal, "failed to list leads", err)
	}
	return leads, nil
}

// Reclassify reruns the configured classifier on a finished conversation.
func (s *Service) Reclassify(ctx context.Context, leadID, actor string) (domain.Lead, error) {
	unlock, err := s.lock(ctx, leadID)
	if err != nil {
		return domain.Lead{}, err
	}
	defer unlock()

	session, err := s.loadSession(ctx, leadID)
	if err != nil {
		return domain.Lead{}, err
	}
	if !session.IsTerminal() {
		return domain.Lead{}, apperr.Conflict("conversation is still in progress")
	}
	lead, err := s.GetLead(ctx, leadID)
	if err != nil {
		return domain.Lead{}, err
	}

	now := s.now().UTC()
	result := s.engine.Classify(ctx, session)
	lead = lead.WithProfile(session.Profile, now).WithClassification(result, actorOrSystem(actor), now)
	if err := s.store.UpdateLead(ctx, lead); err != nil {
		s.log.DatabaseError("update lead", err)
		return domain.Lead{}, apperr.Wrap(apperr.KindInternal, "failed to save classification", err)
	}

	s.publishClassified(ctx, lead, result, actorOrSystem(actor))
	return lead, nil
}

// RequestReclassify queues a reclassification when a scheduler is configured
// and otherwise runs it inline. queued reports which happened.
func (s *Service) RequestReclassify(ctx context.Context, leadID, actor string) (lead domain.Lead, queued bool, err error) {
	if s.scheduler == nil {
		lead, err = s.Reclassify(ctx, leadID, actor)
		return lead, false, err
	}

	if lead, err = s.GetLead(ctx, leadID); err != nil {
		return domain.Lead{}, false, err
	}
	if err := s.scheduler.EnqueueReclassify(ctx, leadID, actorOrSystem(actor)); err != nil {
		return domain.Lead{}, false, apperr.Wrap(apperr.KindUnavailable, "failed to queue reclassification", err)
	}
	return lead, true, nil
}

// OverrideClassification records a manual classification. The previous
// score is kept except for Invalid, which never carries one.
func (s *Service) OverrideClassification(ctx context.Context, leadID string, classification domain.Classification, reason, actor string) (domain.Lead, error) {
	switch classification {
	case domain.ClassificationHot, domain.ClassificationWarm, domain.ClassificationCold, domain.ClassificationInvalid:
	default:
		return domain.Lead{}, apperr.Validation("classification must be Hot, Warm, Cold or Invalid")
	}
	reason = sanitize.Truncate(sanitize.Text(reason), 500)
	if reason == "" {
		return domain.Lead{}, apperr.Validation("reason is required")
	}

	unlock, err := s.lock(ctx, leadID)
	if err != nil {
		return domain.Lead{}, err
	}
	defer unlock()

	lead, err := s.GetLead(ctx, leadID)
	if err != nil {
		return domain.Lead{}, err
	}

	result := domain.ClassificationResult{
		Classification: classification,
		Score:          lead.Score,
		Rationale:      reason,
		Method:         domain.MethodManual,
		Breakdown:      lead.Metadata.ScoreBreakdown,
		ScoreVersion:   lead.Metadata.ScoreVersion,
	}
	if classification == domain.ClassificationInvalid {
		result.Score = nil
	}
	if q := lead.Metadata.ResponseQuality; q != nil {
		result.ResponseQuality = *q
	}
	if sum := lead.Metadata.ValidationSummary; sum != nil {
		result.Summary = *sum
	}

	lead = lead.WithClassification(result, actorOrSystem(actor), s.now().UTC())
	if err := s.store.UpdateLead(ctx, lead); err != nil {
		s.log.DatabaseError("update lead", err)
		return domain.Lead{}, apperr.Wrap(apperr.KindInternal, "failed to save classification", err)
	}

	s.publishClassified(ctx, lead, result, actorOrSystem(actor))
	return lead, nil
}

// HandleInboundWhatsApp routes a WhatsApp message to the sender's latest
// lead. An unknown number starts a new whatsapp-sourced conversation whose
// opening messages are returned instead of a turn.
func (s *Service) HandleInboundWhatsApp(ctx context.Context, req transport.WhatsAppInboundRequest) (TurnResult, error) {
	if !phone.IsValid(req.Phone, s.region) {
		return TurnResult{}, apperr.Validation("invalid phone number")
	}
	normalized := phone.NormalizeE164(req.Phone, s.region)

	lead, err := s.store.FindLatestLeadByPhone(ctx, normalized)
	if errors.Is(err, ports.ErrNotFound) {
		name := strings.TrimSpace(req.Name)
		if name == "" {
			name = "there"
		}
		lead, session, err := s.StartConversation(ctx, transport.CreateLeadRequest{
			Name:    name,
			Phone:   normalized,
			Source:  domain.SourceWhatsApp,
			Message: req.Message,
		})
		if err != nil {
			return TurnResult{}, err
		}
		return TurnResult{Lead: lead, Session: session, BotMessages: session.Messages}, nil
	}
	if err != nil {
		s.log.DatabaseError("find lead by phone", err)
		return TurnResult{}, apperr.Wrap(apperr.KindInternal, "failed to look up lead", err)
	}

	return s.AdvanceConversation(ctx, lead.ID, req.Message)
}

func (s *Service) loadSession(ctx context.Context, leadID string) (domain.ConversationSession, error) {
	session, err := s.store.LoadSession(ctx, leadID)
	if errors.Is(err, ports.ErrNotFound) {
		return domain.ConversationSession{}, apperr.NotFound("conversation not found")
	}
	if err != nil {
		s.log.DatabaseError("load session", err)
		return domain.ConversationSession{}, apperr.Wrap(apperr.KindInternal, "failed to load conversation", err)
	}
	return session, nil
}

func (s *Service) lock(ctx context.Context, leadID string) (func(), error) {
	unlock, err := s.locker.Lock(ctx, leadID)
	if errors.Is(err, ports.ErrLockHeld) {
		return nil, apperr.Unavailable("another message for this lead is being processed, retry shortly")
	}
	if err != nil {
		return nil, apperr.Wrap(apperr.KindUnavailable, "failed to acquire conversation lock", err)
	}
	return unlock, nil
}

func actorOrSystem(actor string) string {
	if actor == "" {
		return systemActor
	}
	return actor
}
