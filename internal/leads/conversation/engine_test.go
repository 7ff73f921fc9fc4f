package conversation

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"leadbot_backend/internal/businessprofile"
	"leadbot_backend/internal/leads/domain"
	"leadbot_backend/internal/leads/ports"
	"leadbot_backend/internal/leads/scoring"
)

var fixedNow = time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)

type countingClassifier struct {
	inner ports.Classifier
	calls int
}

func (c *countingClassifier) Classify(ctx context.Context, input domain.ClassificationInput) domain.ClassificationResult {
	c.calls++
	return c.inner.Classify(ctx, input)
}

func newTestEngine(t *testing.T) (*Engine, *countingClassifier) {
	t.Helper()
	profile := businessprofile.Default()
	cls := &countingClassifier{inner: scoring.New(profile.Rules, nil)}
	seq := 0
	engine := NewEngine(profile.Script, cls,
		WithClock(func() time.Time { return fixedNow }),
		WithPicker(func(int) int { return 0 }),
		WithIDGenerator(func() string {
			seq++
			return fmt.Sprintf("msg-%d", seq)
		}),
	)
	return engine, cls
}

func advanceAll(t *testing.T, e *Engine, s domain.ConversationSession, replies ...string) (domain.ConversationSession, Turn) {
	t.Helper()
	var turn Turn
	for _, r := range replies {
		var err error
		turn, err = e.Advance(context.Background(), s, r)
		if err != nil {
			t.Fatalf("advance %q: %v", r, err)
		}
		s = turn.Session
	}
	return s, turn
}

func lastBotText(t *testing.T, turn Turn) string {
	t.Helper()
	if len(turn.BotMessages) == 0 {
		t.Fatalf("turn produced no bot messages")
	}
	return turn.BotMessages[len(turn.BotMessages)-1].Text
}

func TestStartSeedsGreetingAndFirstQuestion(t *testing.T) {
	e, _ := newTestEngine(t)

	s := e.Start("lead-1", "Asha")

	if s.LeadID != "lead-1" || s.CurrentStep != 0 || s.Status != domain.StatusActive {
		t.Fatalf("unexpected session %+v", s)
	}
	if len(s.Messages) != 2 {
		t.Fatalf("expected greeting and first question, got %d messages", len(s.Messages))
	}
	if s.Messages[0].Text != "Hi Asha! Thanks for reaching out to GrowEasy Realtors." {
		t.Fatalf("greeting = %q", s.Messages[0].Text)
	}
	if s.Messages[1].Text != e.Script().Steps[0].Prompt {
		t.Fatalf("first question = %q", s.Messages[1].Text)
	}
	for _, m := range s.Messages {
		if m.Sender != domain.SenderBot || m.ID == "" || !m.Timestamp.Equal(fixedNow) {
			t.Fatalf("bad opening message %+v", m)
		}
	}
	if !s.Profile.IsZero() || s.InvalidReplyCount != 0 || len(s.ValidationHistory) != 0 {
		t.Fatalf("new session should be empty: %+v", s)
	}
}

func TestHotLeadEndToEnd(t *testing.T) {
	e, cls := newTestEngine(t)
	s := e.Start("lead-1", "Asha")

	s, turn := advanceAll(t, e, s,
		"Koramangala, Bangalore",
		"2BHK flat for investment",
		"around 80L",
		"yes, available this week",
	)

	want := domain.Profile{
		Location:       "Koramangala, Bangalore",
		PropertyType:   domain.PropertyFlat,
		Intent:         domain.IntentInvestment,
		Budget:         "₹80L",
		BudgetAmount:   8_000_000,
		BudgetCurrency: domain.CurrencyINR,
		Engagement:     domain.EngagementHigh,
	}
	if s.Profile != want {
		t.Fatalf("profile = %+v\nwant      %+v", s.Profile, want)
	}
	if s.Status != domain.StatusComplete || !s.IsComplete || s.CurrentStep != 4 {
		t.Fatalf("expected complete at step 4, got %s step %d", s.Status, s.CurrentStep)
	}
	if !turn.Finished() || turn.Classification == nil {
		t.Fatalf("final turn should carry a classification")
	}
	if turn.Classification.Classification != domain.ClassificationHot {
		t.Fatalf("expected Hot, got %s (%s)", turn.Classification.Classification, turn.Classification.Rationale)
	}
	if turn.Classification.Score == nil || *turn.Classification.Score < 10 {
		t.Fatalf("expected score >= 10, got %v", turn.Classification.Score)
	}
	if cls.calls != 1 {
		t.Fatalf("classifier called %d times, want 1", cls.calls)
	}
	if got := lastBotText(t, turn); got != e.Script().ClosingMessages[0] {
		t.Fatalf("closing message = %q", got)
	}
	// 2 opening + 4 replies + 4 bot answers
	if len(s.Messages) != 10 {
		t.Fatalf("expected 10 messages, got %d", len(s.Messages))
	}
	if len(s.ValidationHistory) != 4 {
		t.Fatalf("expected 4 validation records, got %d", len(s.ValidationHistory))
	}
}

func TestGibberishEscalates(t *testing.T) {
	e, cls := newTestEngine(t)
	s := e.Start("lead-1", "Asha")
	gibberishPrompt := e.Script().Clarifications[domain.ReasonGibberish]

	for i, reply := range []string{"asdf", "qwerty123", "zzzzzzzz"} {
		turn, err := e.Advance(context.Background(), s, reply)
		if err != nil {
			t.Fatalf("advance %q: %v", reply, err)
		}
		if turn.Outcome.Valid || turn.Outcome.Reason != domain.ReasonGibberish {
			t.Fatalf("%q: expected gibberish, got %+v", reply, turn.Outcome)
		}
		s = turn.Session
		if s.InvalidReplyCount != i+1 {
			t.Fatalf("invalid count = %d after %d replies", s.InvalidReplyCount, i+1)
		}
		if s.CurrentStep != 0 {
			t.Fatalf("step advanced on invalid reply")
		}
		if i < 2 {
			if got := lastBotText(t, turn); got != gibberishPrompt {
				t.Fatalf("clarification = %q", got)
			}
			if turn.Classification != nil {
				t.Fatalf("classified before escalation")
			}
			continue
		}
		if got := lastBotText(t, turn); got != e.Script().HandoffMessage {
			t.Fatalf("handoff = %q", got)
		}
		if turn.Classification == nil || turn.Classification.Classification != domain.ClassificationInvalid {
			t.Fatalf("expected Invalid classification, got %+v", turn.Classification)
		}
		if turn.Classification.Score != nil {
			t.Fatalf("invalid lead should have no score")
		}
	}

	if s.Status != domain.StatusEscalated || !s.IsComplete {
		t.Fatalf("expected escalated, got %s", s.Status)
	}
	if cls.calls != 1 {
		t.Fatalf("classifier called %d times, want 1", cls.calls)
	}
}

func TestInvalidCounterResetsOnValidReply(t *testing.T) {
	e, _ := newTestEngine(t)
	s := e.Start("lead-1", "Asha")

	s, turn := advanceAll(t, e, s, "no", "idk")
	if s.InvalidReplyCount != 2 {
		t.Fatalf("expected 2 invalid replies, got %d", s.InvalidReplyCount)
	}
	if got := lastBotText(t, turn); got != e.Script().Clarifications[domain.ReasonVagueLocation] {
		t.Fatalf("clarification = %q", got)
	}

	s, _ = advanceAll(t, e, s, "Baner, Pune")
	if s.InvalidReplyCount != 0 || s.CurrentStep != 1 {
		t.Fatalf("valid reply should reset counter and advance: count %d step %d", s.InvalidReplyCount, s.CurrentStep)
	}

	s, turn = advanceAll(t, e, s, "something nice")
	if s.InvalidReplyCount != 1 || s.CurrentStep != 1 {
		t.Fatalf("count %d step %d", s.InvalidReplyCount, s.CurrentStep)
	}
	if got := lastBotText(t, turn); got != e.Script().Clarifications[domain.ReasonUnclearPropertyType] {
		t.Fatalf("clarification = %q", got)
	}
	if s.Status != domain.StatusActive {
		t.Fatalf("session should still be active")
	}
}

func TestBudgetPromptBranches(t *testing.T) {
	cases := []struct {
		name  string
		reply string
		want  string
	}{
		{"urgent buyer", "I want to buy a villa asap", budgetPromptUrgentBuy},
		{"investor", "a plot for investment", budgetPromptInvestment},
		{"default", "3bhk apartment for my family", businessprofile.Default().Script.Steps[2].Prompt},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			e, _ := newTestEngine(t)
			s := e.Start("lead-1", "Asha")
			_, turn := advanceAll(t, e, s, "Whitefield, Bangalore", tc.reply)
			if got := lastBotText(t, turn); got != tc.want {
				t.Fatalf("prompt = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestEngagementPromptBranches(t *testing.T) {
	cases := []struct {
		name   string
		budget string
		want   string
	}{
		{"browsing", "just browsing", engagementPromptBrowsing},
		{"premium", "1.5 crore", engagementPromptPremium},
		{"mid", "30L", engagementPromptMid},
		{"entry", "15 lakh", businessprofile.Default().Script.Steps[3].Prompt},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			e, _ := newTestEngine(t)
			s := e.Start("lead-1", "Asha")
			s, turn := advanceAll(t, e, s, "Whitefield, Bangalore", "flat to buy", tc.budget)
			if got := lastBotText(t, turn); got != tc.want {
				t.Fatalf("prompt = %q, want %q", got, tc.want)
			}
			if s.CurrentStep != 3 {
				t.Fatalf("expected step 3, got %d", s.CurrentStep)
			}
		})
	}
}

func TestBrowsingBudgetOverridesIntent(t *testing.T) {
	e, _ := newTestEngine(t)
	s := e.Start("lead-1", "Asha")

	s, _ = advanceAll(t, e, s, "Whitefield, Bangalore", "flat to buy", "just browsing")

	if s.Profile.Budget != domain.BudgetBrowsing || s.Profile.Intent != domain.IntentBrowsing {
		t.Fatalf("expected browsing budget and intent, got %+v", s.Profile)
	}
}

func TestAdvanceDoesNotMutateInput(t *testing.T) {
	e, _ := newTestEngine(t)
	s := e.Start("lead-1", "Asha")
	before := s.Clone()

	if _, err := e.Advance(context.Background(), s, "Koramangala, Bangalore"); err != nil {
		t.Fatalf("advance: %v", err)
	}

	if len(s.Messages) != len(before.Messages) || s.CurrentStep != before.CurrentStep || s.Profile != before.Profile {
		t.Fatalf("input session was modified")
	}
}

func TestAdvanceRejectsFinishedSession(t *testing.T) {
	e, cls := newTestEngine(t)
	s := e.Start("lead-1", "Asha")
	s, _ = advanceAll(t, e, s, "asdf", "asdf", "asdf")

	_, err := e.Advance(context.Background(), s, "Koramangala, Bangalore")
	if !errors.Is(err, ErrConversationFinished) {
		t.Fatalf("expected ErrConversationFinished, got %v", err)
	}
	if cls.calls != 1 {
		t.Fatalf("classifier should not rerun, calls = %d", cls.calls)
	}
}

func TestWhitespaceReplyIsEmpty(t *testing.T) {
	e, _ := newTestEngine(t)
	s := e.Start("lead-1", "Asha")

	turn, err := e.Advance(context.Background(), s, "   ")
	if err != nil {
		t.Fatalf("advance: %v", err)
	}
	if turn.Outcome.Reason != domain.ReasonEmpty {
		t.Fatalf("expected empty reason, got %+v", turn.Outcome)
	}
	if got := lastBotText(t, turn); got != e.Script().Clarifications[domain.ReasonEmpty] {
		t.Fatalf("clarification = %q", got)
	}
}

func TestUnknownReasonUsesFallbackClarification(t *testing.T) {
	script := businessprofile.Default().Script
	script.Clarifications = map[domain.InvalidReason]string{}
	e := NewEngine(script, ports.ClassifierFunc(func(context.Context, domain.ClassificationInput) domain.ClassificationResult {
		return domain.ClassificationResult{}
	}))

	turn, err := e.Advance(context.Background(), e.Start("lead-1", "Asha"), "asdf")
	if err != nil {
		t.Fatalf("advance: %v", err)
	}
	if got := lastBotText(t, turn); got != script.FallbackClarify {
		t.Fatalf("clarification = %q", got)
	}
}
