// Package conversation is the lead-qualification state machine. An Engine
// takes a session snapshot and one reply and returns the next snapshot; it
// never stores anything itself.
package conversation

import (
	"context"
	"errors"
	"math/rand/v2"
	"time"

	"leadbot_backend/internal/leads/domain"
	"leadbot_backend/internal/leads/extraction"
	"leadbot_backend/internal/leads/ports"
	"leadbot_backend/internal/leads/validation"

	"github.com/google/uuid"
)

// ErrConversationFinished is returned by Advance for Complete or Escalated
// sessions.
var ErrConversationFinished = errors.New("conversation already finished")

// Turn is the result of one Advance call.
type Turn struct {
	Session        domain.ConversationSession
	BotMessages    []domain.Message
	Outcome        domain.ValidationOutcome
	Diff           extraction.Diff
	Classification *domain.ClassificationResult
}

// Finished reports whether this turn ended the conversation.
func (t Turn) Finished() bool {
	return t.Session.IsTerminal()
}

// Engine runs a Business Script against lead replies.
type Engine struct {
	script     domain.Script
	classifier ports.Classifier
	now        func() time.Time
	pick       func(n int) int
	newID      func() string
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithPicker overrides the random choice of greeting and closing messages.
// pick(n) must return a value in [0, n).
func WithPicker(pick func(n int) int) Option {
	return func(e *Engine) { e.pick = pick }
}

// WithIDGenerator overrides message ID generation.
func WithIDGenerator(newID func() string) Option {
	return func(e *Engine) { e.newID = newID }
}

// NewEngine creates an engine for script. The script is read-only for the
// life of the engine and may be shared by any number of sessions.
func NewEngine(script domain.Script, classifier ports.Classifier, opts ...Option) *Engine {
	e := &Engine{
		script:     script,
		classifier: classifier,
		now:        time.Now,
		pick:       rand.IntN,
		newID:      uuid.NewString,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Script returns the engine's Business Script.
func (e *Engine) Script() domain.Script {
	return e.script
}

// Start seeds a new session at step 0 holding the greeting and the first
// question.
func (e *Engine) Start(leadID, name string) domain.ConversationSession {
	now := e.now().UTC()
	session := domain.ConversationSession{
		LeadID:            leadID,
		Messages:          []domain.Message{},
		ValidationHistory: []domain.ValidationRecord{},
		Status:            domain.StatusActive,
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	if len(e.script.GreetingTemplates) > 0 {
		tmpl := e.script.GreetingTemplates[e.pick(len(e.script.GreetingTemplates))]
		session.Messages = append(session.Messages, e.botMessage(domain.Greeting(tmpl, name), now))
	}
	if step, ok := e.script.StepAt(0); ok {
		session.Messages = append(session.Messages, e.botMessage(step.Prompt, now))
	}
	return session
}

// Advance runs one turn. The input session is not modified. The classifier
// runs exactly once, on the turn that makes the session terminal.
func (e *Engine) Advance(ctx context.Context, current domain.ConversationSession, reply string) (Turn, error) {
	if current.IsTerminal() {
		return Turn{}, ErrConversationFinished
	}
	step, ok := e.script.StepAt(current.CurrentStep)
	if !ok {
		return Turn{}, ErrConversationFinished
	}

	now := e.now().UTC()
	session := current.Clone()
	session.UpdatedAt = now
	session.Messages = append(session.Messages, domain.Message{
		ID:        e.newID(),
		Sender:    domain.SenderUser,
		Text:      reply,
		Timestamp: now,
	})

	outcome := validation.Validate(reply, step.Field)
	session.ValidationHistory = append(session.ValidationHistory, domain.ValidationRecord{
		Step:      step.Index,
		RawReply:  reply,
		Outcome:   outcome,
		Timestamp: now,
	})

	turn := Turn{Outcome: outcome}

	if !outcome.Valid {
		session.InvalidReplyCount++
		if session.InvalidReplyCount >= domain.MaxInvalidReplies {
			session.Status = domain.StatusEscalated
			session.IsComplete = true
			turn.BotMessages = []domain.Message{e.botMessage(e.script.HandoffMessage, now)}
		} else {
			turn.BotMessages = []domain.Message{e.botMessage(e.clarification(outcome.Reason), now)}
		}
	} else {
		session.InvalidReplyCount = 0
		session.Profile, turn.Diff = extraction.Extract(step.Field, reply, session.Profile)
		session.CurrentStep++

		if next, ok := e.script.StepAt(session.CurrentStep); ok {
			turn.BotMessages = []domain.Message{e.botMessage(nextPrompt(next, session.Profile), now)}
		} else {
			session.Status = domain.StatusComplete
			session.IsComplete = true
			turn.BotMessages = []domain.Message{e.botMessage(e.closing(), now)}
		}
	}

	session.Messages = append(session.Messages, turn.BotMessages...)

	if session.IsTerminal() {
		result := e.classifier.Classify(ctx, domain.InputFromSession(session))
		turn.Classification = &result
	}

	turn.Session = session
	return turn, nil
}

// Classify reruns the classifier on a finished session.
func (e *Engine) Classify(ctx context.Context, session domain.ConversationSession) domain.ClassificationResult {
	return e.classifier.Classify(ctx, domain.InputFromSession(session))
}

func (e *Engine) clarification(reason domain.InvalidReason) string {
	if msg, ok := e.script.Clarifications[reason]; ok && msg != "" {
		return msg
	}
	return e.script.FallbackClarify
}

func (e *Engine) closing() string {
	if len(e.script.ClosingMessages) == 0 {
		return ""
	}
	return e.script.ClosingMessages[e.pick(len(e.script.ClosingMessages))]
}

func (e *Engine) botMessage(text string, at time.Time) domain.Message {
	return domain.Message{
		ID:        e.newID(),
		Sender:    domain.SenderBot,
		Text:      text,
		Timestamp: at,
	}
}
