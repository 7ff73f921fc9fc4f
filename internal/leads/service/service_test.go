package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"leadbot_backend/internal/businessprofile"
	"leadbot_backend/internal/events"
	"leadbot_backend/internal/leads/adapters"
	"leadbot_backend/internal/leads/conversation"
	"leadbot_backend/internal/leads/domain"
	"leadbot_backend/internal/leads/ports"
	"leadbot_backend/internal/leads/repository/memory"
	"leadbot_backend/internal/leads/scoring"
	"leadbot_backend/internal/leads/transport"
	"leadbot_backend/platform/apperr"
)

type recordingBus struct {
	mu     sync.Mutex
	events []events.Event
}

func (b *recordingBus) Publish(_ context.Context, e events.Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, e)
}

func (b *recordingBus) PublishSync(ctx context.Context, e events.Event) error {
	b.Publish(ctx, e)
	return nil
}

func (b *recordingBus) Subscribe(string, events.Handler) {}

func (b *recordingBus) names() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]string, 0, len(b.events))
	for _, e := range b.events {
		out = append(out, e.EventName())
	}
	return out
}

func (b *recordingBus) has(name string) bool {
	for _, n := range b.names() {
		if n == name {
			return true
		}
	}
	return false
}

type failingStore struct {
	*memory.Store
	saveErr error
}

func (f *failingStore) SaveTurn(ctx context.Context, session domain.ConversationSession, lead domain.Lead) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	return f.Store.SaveTurn(ctx, session, lead)
}

type busyLocker struct{}

func (busyLocker) Lock(context.Context, string) (func(), error) { return nil, ports.ErrLockHeld }

type fakeScheduler struct {
	leadID, actor string
	err           error
}

func (f *fakeScheduler) EnqueueReclassify(_ context.Context, leadID, actor string) error {
	f.leadID, f.actor = leadID, actor
	return f.err
}

type fixture struct {
	svc   *Service
	store ports.Store
	bus   *recordingBus
}

func newFixture(t *testing.T, store ports.Store, opts ...Option) fixture {
	t.Helper()
	if store == nil {
		store = memory.New()
	}
	profile := businessprofile.Default()
	engine := conversation.NewEngine(profile.Script, scoring.New(profile.Rules, nil),
		conversation.WithPicker(func(int) int { return 0 }))
	bus := &recordingBus{}
	opts = append([]Option{WithClock(func() time.Time { return time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC) })}, opts...)
	return fixture{
		svc:   New(store, engine, adapters.NewLocalTurnLocker(), bus, nil, opts...),
		store: store,
		bus:   bus,
	}
}

func (f fixture) start(t *testing.T) domain.Lead {
	t.Helper()
	lead, _, err := f.svc.StartConversation(context.Background(), transport.CreateLeadRequest{
		Name:  "Asha",
		Phone: "98765 43210",
	})
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	return lead
}

func (f fixture) reply(t *testing.T, leadID string, replies ...string) TurnResult {
	t.Helper()
	var res TurnResult
	for _, r := range replies {
		var err error
		if res, err = f.svc.AdvanceConversation(context.Background(), leadID, r); err != nil {
			t.Fatalf("reply %q: %v", r, err)
		}
	}
	return res
}

func assertKind(t *testing.T, err error, kind apperr.Kind) {
	t.Helper()
	if !apperr.Is(err, kind) {
		t.Fatalf("expected error kind %v, got %v", kind, err)
	}
}

func TestStartConversation(t *testing.T) {
	f := newFixture(t, nil)

	lead, session, err := f.svc.StartConversation(context.Background(), transport.CreateLeadRequest{
		Name:    "  <b>Asha</b> ",
		Phone:   "98765 43210",
		Message: "Looking for a flat",
	})
	if err != nil {
		t.Fatalf("start: %v", err)
	}

	if lead.Name != "Asha" || lead.Phone != "+919876543210" || lead.Source != domain.SourceWebsite {
		t.Fatalf("unexpected lead %+v", lead)
	}
	if lead.Classification != domain.ClassificationPending || lead.Score != nil {
		t.Fatalf("new lead should be pending")
	}
	if len(session.Messages) != 2 {
		t.Fatalf("expected 2 opening messages, got %d", len(session.Messages))
	}
	stored, err := f.store.LoadSession(context.Background(), lead.ID)
	if err != nil || len(stored.Messages) != 2 {
		t.Fatalf("session not stored: %v", err)
	}
	if !f.bus.has("leads.lead.created") || !f.bus.has("leads.conversation.started") {
		t.Fatalf("missing events: %v", f.bus.names())
	}
}

func TestStartConversationRejectsBadInput(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	_, _, err := f.svc.StartConversation(ctx, transport.CreateLeadRequest{Name: "  ", Phone: "9876543210"})
	assertKind(t, err, apperr.KindValidation)

	_, _, err = f.svc.StartConversation(ctx, transport.CreateLeadRequest{Name: "Asha", Phone: "12"})
	assertKind(t, err, apperr.KindValidation)

	if leads, _ := f.store.ListLeads(ctx, domain.LeadFilter{}); len(leads) != 0 {
		t.Fatalf("no lead should be created")
	}
}

func TestAdvanceConversationToHot(t *testing.T) {
	f := newFixture(t, nil)
	lead := f.start(t)

	res := f.reply(t, lead.ID, "Koramangala, Bangalore", "2BHK flat for investment", "around 80L", "yes, available this week")

	if res.Classification == nil || res.Classification.Classification != domain.ClassificationHot {
		t.Fatalf("expected Hot, got %+v", res.Classification)
	}
	if !res.Session.IsComplete || res.Session.Status != domain.StatusComplete {
		t.Fatalf("session should be complete")
	}

	stored, err := f.svc.GetLead(context.Background(), lead.ID)
	if err != nil {
		t.Fatalf("get lead: %v", err)
	}
	if stored.Classification != domain.ClassificationHot || stored.Score == nil || *stored.Score < 10 {
		t.Fatalf("lead not classified: %+v", stored)
	}
	if stored.Metadata.BudgetAmount != 8_000_000 || stored.Metadata.Location != "Koramangala, Bangalore" {
		t.Fatalf("profile not copied to lead: %+v", stored.Metadata.Profile)
	}
	if stored.Metadata.ValidationSummary == nil || stored.Metadata.ValidationSummary.ValidResponses != 4 {
		t.Fatalf("validation summary missing: %+v", stored.Metadata.ValidationSummary)
	}
	if stored.Metadata.ClassifiedBy != systemActor {
		t.Fatalf("classified by %q", stored.Metadata.ClassifiedBy)
	}
	for _, name := range []string{"leads.conversation.turn_processed", "leads.conversation.finished", "leads.lead.classified"} {
		if !f.bus.has(name) {
			t.Fatalf("missing event %s in %v", name, f.bus.names())
		}
	}

	_, err = f.svc.AdvanceConversation(context.Background(), lead.ID, "one more thing")
	assertKind(t, err, apperr.KindConflict)
}

func TestAdvanceConversationEscalates(t *testing.T) {
	f := newFixture(t, nil)
	lead := f.start(t)

	res := f.reply(t, lead.ID, "asdf", "qwerty123", "zzzzzzzz")

	if res.Session.Status != domain.StatusEscalated || res.Session.InvalidReplyCount != 3 {
		t.Fatalf("expected escalation, got %s/%d", res.Session.Status, res.Session.InvalidReplyCount)
	}
	stored, _ := f.svc.GetLead(context.Background(), lead.ID)
	if stored.Classification != domain.ClassificationInvalid || stored.Score != nil {
		t.Fatalf("expected Invalid without score, got %+v", stored)
	}
}

func TestAdvanceConversationInputErrors(t *testing.T) {
	f := newFixture(t, nil)
	lead := f.start(t)
	ctx := context.Background()

	_, err := f.svc.AdvanceConversation(ctx, lead.ID, "")
	assertKind(t, err, apperr.KindValidation)

	_, err = f.svc.AdvanceConversation(ctx, "missing", "hello")
	assertKind(t, err, apperr.KindNotFound)

	session, _ := f.svc.GetSession(ctx, lead.ID)
	if len(session.Messages) != 2 || len(session.ValidationHistory) != 0 {
		t.Fatalf("input errors must not change the session")
	}

	res := f.reply(t, lead.ID, "   ")
	if res.Outcome == nil || res.Outcome.Reason != domain.ReasonEmpty {
		t.Fatalf("whitespace reply should be answered as empty, got %+v", res.Outcome)
	}
}

func TestAdvanceConversationPersistenceFailure(t *testing.T) {
	store := &failingStore{Store: memory.New()}
	f := newFixture(t, store)
	lead := f.start(t)
	store.saveErr = errors.New("disk full")

	_, err := f.svc.AdvanceConversation(context.Background(), lead.ID, "Koramangala, Bangalore")
	assertKind(t, err, apperr.KindInternal)

	session, _ := f.svc.GetSession(context.Background(), lead.ID)
	if session.CurrentStep != 0 || len(session.Messages) != 2 {
		t.Fatalf("failed turn must not be persisted")
	}
	if f.bus.has("leads.conversation.turn_processed") {
		t.Fatalf("no turn event for a failed turn")
	}
}

func TestAdvanceConversationLockHeld(t *testing.T) {
	store := memory.New()
	f := newFixture(t, store)
	lead := f.start(t)

	profile := businessprofile.Default()
	busy := New(store, conversation.NewEngine(profile.Script, scoring.New(profile.Rules, nil)), busyLocker{}, f.bus, nil)
	_, err := busy.AdvanceConversation(context.Background(), lead.ID, "Pune")
	assertKind(t, err, apperr.KindUnavailable)
}

func TestReclassify(t *testing.T) {
	f := newFixture(t, nil)
	lead := f.start(t)
	ctx := context.Background()

	_, err := f.svc.Reclassify(ctx, lead.ID, "ops@example.com")
	assertKind(t, err, apperr.KindConflict)

	f.reply(t, lead.ID, "Koramangala, Bangalore", "2BHK flat for investment", "around 80L", "yes, available this week")

	got, err := f.svc.Reclassify(ctx, lead.ID, "ops@example.com")
	if err != nil {
		t.Fatalf("reclassify: %v", err)
	}
	if got.Classification != domain.ClassificationHot || got.Metadata.ClassifiedBy != "ops@example.com" {
		t.Fatalf("unexpected lead %+v", got)
	}
}

func TestRequestReclassify(t *testing.T) {
	sched := &fakeScheduler{}
	f := newFixture(t, nil, WithReclassifyScheduler(sched))
	lead := f.start(t)

	_, queued, err := f.svc.RequestReclassify(context.Background(), lead.ID, "ops")
	if err != nil || !queued {
		t.Fatalf("expected queued, got %v %v", queued, err)
	}
	if sched.leadID != lead.ID || sched.actor != "ops" {
		t.Fatalf("scheduler got %+v", sched)
	}

	_, _, err = f.svc.RequestReclassify(context.Background(), "missing", "ops")
	assertKind(t, err, apperr.KindNotFound)

	sched.err = errors.New("redis down")
	_, _, err = f.svc.RequestReclassify(context.Background(), lead.ID, "ops")
	assertKind(t, err, apperr.KindUnavailable)
}

func TestRequestReclassifyInline(t *testing.T) {
	f := newFixture(t, nil)
	lead := f.start(t)
	f.reply(t, lead.ID, "asdf", "asdf", "asdf")

	got, queued, err := f.svc.RequestReclassify(context.Background(), lead.ID, "")
	if err != nil || queued {
		t.Fatalf("expected inline run, got %v %v", queued, err)
	}
	if got.Classification != domain.ClassificationInvalid {
		t.Fatalf("expected Invalid, got %s", got.Classification)
	}
}

func TestOverrideClassification(t *testing.T) {
	f := newFixture(t, nil)
	lead := f.start(t)
	f.reply(t, lead.ID, "Koramangala, Bangalore", "2BHK flat for investment", "around 80L", "yes, available this week")
	ctx := context.Background()

	got, err := f.svc.OverrideClassification(ctx, lead.ID, domain.ClassificationCold, "called, not interested", "ops")
	if err != nil {
		t.Fatalf("override: %v", err)
	}
	if got.Classification != domain.ClassificationCold || got.Metadata.Method != domain.MethodManual {
		t.Fatalf("unexpected lead %+v", got)
	}
	if got.Score == nil || got.Metadata.Rationale != "called, not interested" {
		t.Fatalf("score should be kept and reason recorded: %+v", got)
	}

	got, err = f.svc.OverrideClassification(ctx, lead.ID, domain.ClassificationInvalid, "spam", "ops")
	if err != nil || got.Score != nil {
		t.Fatalf("Invalid override should clear the score: %+v %v", got, err)
	}

	_, err = f.svc.OverrideClassification(ctx, lead.ID, domain.ClassificationPending, "reset", "ops")
	assertKind(t, err, apperr.KindValidation)
	_, err = f.svc.OverrideClassification(ctx, lead.ID, domain.ClassificationHot, " ", "ops")
	assertKind(t, err, apperr.KindValidation)
}

func TestHandleInboundWhatsApp(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	first, err := f.svc.HandleInboundWhatsApp(ctx, transport.WhatsAppInboundRequest{Phone: "+91 98765 43210", Message: "hi, need a flat"})
	if err != nil {
		t.Fatalf("first message: %v", err)
	}
	if first.Lead.Source != domain.SourceWhatsApp || first.Outcome != nil || len(first.BotMessages) != 2 {
		t.Fatalf("unknown number should start a conversation: %+v", first)
	}
	if first.Lead.InitialMessage != "hi, need a flat" {
		t.Fatalf("initial message = %q", first.Lead.InitialMessage)
	}

	second, err := f.svc.HandleInboundWhatsApp(ctx, transport.WhatsAppInboundRequest{Phone: "9876543210", Message: "Koramangala, Bangalore"})
	if err != nil {
		t.Fatalf("second message: %v", err)
	}
	if second.Lead.ID != first.Lead.ID || second.Session.CurrentStep != 1 {
		t.Fatalf("reply should advance the existing lead: %+v", second.Session)
	}

	_, err = f.svc.HandleInboundWhatsApp(ctx, transport.WhatsAppInboundRequest{Phone: "abc", Message: "hi"})
	assertKind(t, err, apperr.KindValidation)
}

func TestListLeadsFilters(t *testing.T) {
	f := newFixture(t, nil)
	a := f.start(t)
	f.start(t)
	f.reply(t, a.ID, "asdf", "asdf", "asdf")

	invalid, err := f.svc.ListLeads(context.Background(), domain.LeadFilter{Classification: domain.ClassificationInvalid})
	if err != nil || len(invalid) != 1 || invalid[0].ID != a.ID {
		t.Fatalf("unexpected %v %v", invalid, err)
	}
	all, _ := f.svc.ListLeads(context.Background(), domain.LeadFilter{})
	if len(all) != 2 {
		t.Fatalf("expected 2 leads, got %d", len(all))
	}
}
