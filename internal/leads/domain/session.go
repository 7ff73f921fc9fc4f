package domain

import (
	"slices"
	"time"
)

// MaxInvalidReplies is the number of consecutive invalid replies after which
// a conversation is handed to a human.
const MaxInvalidReplies = 3

// Sender identifies who wrote a message.
type Sender string

const (
	SenderBot  Sender = "bot"
	SenderUser Sender = "user"
)

// Message is one transcript entry.
type Message struct {
	ID        string    `json:"id"`
	Sender    Sender    `json:"sender"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

// SessionStatus is the lifecycle state of a conversation.
type SessionStatus string

const (
	StatusActive    SessionStatus = "active"
	StatusComplete  SessionStatus = "complete"
	StatusEscalated SessionStatus = "escalated"
)

// IsTerminal reports whether no further replies are accepted.
func (s SessionStatus) IsTerminal() bool {
	return s == StatusComplete || s == StatusEscalated
}

// ConversationSession is the per-lead conversation state. Messages and
// ValidationHistory are append-only.
type ConversationSession struct {
	LeadID            string             `json:"leadId"`
	Messages          []Message          `json:"messages"`
	CurrentStep       int                `json:"currentStep"`
	Profile           Profile            `json:"profile"`
	InvalidReplyCount int                `json:"invalidReplyCount"`
	ValidationHistory []ValidationRecord `json:"validationHistory"`
	Status            SessionStatus      `json:"status"`
	IsComplete        bool               `json:"isComplete"`
	CreatedAt         time.Time          `json:"createdAt"`
	UpdatedAt         time.Time          `json:"updatedAt"`
}

// IsTerminal reports whether the session is Complete or Escalated.
func (s ConversationSession) IsTerminal() bool {
	return s.Status.IsTerminal()
}

// Clone returns a copy that shares no slices with s.
func (s ConversationSession) Clone() ConversationSession {
	s.Messages = slices.Clone(s.Messages)
	s.ValidationHistory = slices.Clone(s.ValidationHistory)
	return s
}
