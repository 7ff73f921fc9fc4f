// Package events provides domain event definitions for decoupled,
// event-driven communication between modules.
// Infrastructure (Bus, Handler) is in platform/events.
package events

import (
	"leadbot_backend/internal/leads/domain"
	"leadbot_backend/platform/events"
)

// Re-export platform types for convenience
type (
	Event       = events.Event
	Bus         = events.Bus
	Handler     = events.Handler
	HandlerFunc = events.HandlerFunc
	BaseEvent   = events.BaseEvent
)

// Re-export platform functions
var NewBaseEvent = events.NewBaseEvent

// =============================================================================
// Lead Domain Events
// =============================================================================

// LeadCreated is published when a lead submits the intake form or first
// writes in over WhatsApp.
type LeadCreated struct {
	BaseEvent
	LeadID string `json:"leadId"`
	Name   string `json:"name"`
	Phone  string `json:"phone"`
	Source string `json:"source"`
}

func (e LeadCreated) EventName() string { return "leads.lead.created" }

// ConversationStarted carries the opening bot messages of a new session.
type ConversationStarted struct {
	BaseEvent
	LeadID      string           `json:"leadId"`
	Phone       string           `json:"phone"`
	Source      string           `json:"source"`
	BotMessages []domain.Message `json:"botMessages"`
}

func (e ConversationStarted) EventName() string { return "leads.conversation.started" }

// TurnProcessed is published after every persisted turn.
type TurnProcessed struct {
	BaseEvent
	LeadID      string                   `json:"leadId"`
	Phone       string                   `json:"phone"`
	Source      string                   `json:"source"`
	Step        int                      `json:"step"`
	Outcome     domain.ValidationOutcome `json:"outcome"`
	BotMessages []domain.Message         `json:"botMessages"`
}

func (e TurnProcessed) EventName() string { return "leads.conversation.turn_processed" }

// ConversationFinished is published once, when a session becomes Complete or
// Escalated.
type ConversationFinished struct {
	BaseEvent
	LeadID  string                     `json:"leadId"`
	Status  domain.SessionStatus       `json:"status"`
	Session domain.ConversationSession `json:"session"`
}

func (e ConversationFinished) EventName() string { return "leads.conversation.finished" }

// LeadClassified is published whenever a classification is written,
// including reclassifications and manual overrides.
type LeadClassified struct {
	BaseEvent
	Lead   domain.Lead                 `json:"lead"`
	Result domain.ClassificationResult `json:"result"`
	Actor  string                      `json:"actor"`
}

func (e LeadClassified) EventName() string { return "leads.lead.classified" }
