package transport

import (
	"time"

	"leadbot_backend/internal/leads/domain"
)

// CreateLeadRequest is the intake form payload.
type CreateLeadRequest struct {
	Name    string `json:"name" validate:"required,notblank,max=100"`
	Phone   string `json:"phone" validate:"required,notblank,max=32"`
	Email   string `json:"email,omitempty" validate:"omitempty,email,max=254"`
	Source  string `json:"source,omitempty" validate:"omitempty,oneof=website whatsapp"`
	Message string `json:"message,omitempty" validate:"max=2000"`
}

// SendMessageRequest is one reply from the lead. A whitespace-only message
// is accepted here and answered with a clarification.
type SendMessageRequest struct {
	Message string `json:"message" validate:"required,max=2000"`
}

// WhatsAppInboundRequest is the gateway webhook payload.
type WhatsAppInboundRequest struct {
	Phone   string `json:"phone" validate:"required,notblank,max=32"`
	Name    string `json:"name,omitempty" validate:"max=100"`
	Message string `json:"message" validate:"required,max=2000"`
}

// OverrideClassificationRequest sets a lead's classification by hand.
type OverrideClassificationRequest struct {
	Classification string `json:"classification" validate:"required,oneof=Hot Warm Cold Invalid"`
	Reason         string `json:"reason" validate:"required,notblank,max=500"`
}

// ListLeadsQuery filters the dashboard list.
type ListLeadsQuery struct {
	Classification string `form:"classification" validate:"omitempty,oneof=Pending Hot Warm Cold Invalid"`
	Source         string `form:"source" validate:"omitempty,oneof=website whatsapp"`
	Limit          int    `form:"limit" validate:"omitempty,min=1,max=1000"`
}

// ValidationResult mirrors domain.ValidationOutcome on the wire.
type ValidationResult struct {
	Valid      bool   `json:"valid"`
	Reason     string `json:"reason,omitempty"`
	IsBrowsing bool   `json:"isBrowsing,omitempty"`
}

// MessageResponse is one transcript entry.
type MessageResponse struct {
	ID        string    `json:"id"`
	Sender    string    `json:"sender"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

// ClassificationResponse is a classifier verdict.
type ClassificationResponse struct {
	Classification string                 `json:"classification"`
	Score          *int                   `json:"score"`
	Confidence     *int                   `json:"confidence,omitempty"`
	Rationale      string                 `json:"rationale"`
	Method         string                 `json:"method"`
	FallbackReason string                 `json:"fallbackReason,omitempty"`
	Breakdown      *domain.ScoreBreakdown `json:"scoreBreakdown,omitempty"`
}

// LeadResponse is a lead as shown on the dashboard.
type LeadResponse struct {
	ID             string              `json:"id"`
	Name           string              `json:"name"`
	Phone          string              `json:"phone"`
	Email          string              `json:"email,omitempty"`
	Source         string              `json:"source"`
	InitialMessage string              `json:"initialMessage,omitempty"`
	Classification string              `json:"classification"`
	Score          *int                `json:"score"`
	Metadata       domain.LeadMetadata `json:"metadata"`
	CreatedAt      time.Time           `json:"createdAt"`
	UpdatedAt      time.Time           `json:"updatedAt"`
}

// CreateLeadResponse is returned by the intake endpoint.
type CreateLeadResponse struct {
	Success         bool              `json:"success"`
	LeadID          string            `json:"leadId"`
	Lead            LeadResponse      `json:"lead"`
	InitialMessages []MessageResponse `json:"initialMessages"`
}

// ChatResponse is a session snapshot.
type ChatResponse struct {
	LeadID            string            `json:"leadId"`
	Messages          []MessageResponse `json:"messages"`
	CurrentStep       int               `json:"currentStep"`
	Profile           domain.Profile    `json:"profile"`
	InvalidReplyCount int               `json:"invalidReplyCount"`
	Status            string            `json:"status"`
	IsComplete        bool              `json:"isComplete"`
	CreatedAt         time.Time         `json:"createdAt"`
	UpdatedAt         time.Time         `json:"updatedAt"`
}

// GetChatResponse wraps ChatResponse.
type GetChatResponse struct {
	Success bool         `json:"success"`
	Chat    ChatResponse `json:"chat"`
}

// TurnResponse is returned after each reply.
type TurnResponse struct {
	Success          bool                    `json:"success"`
	Messages         []MessageResponse       `json:"messages"`
	BotMessages      []MessageResponse       `json:"botMessages"`
	IsComplete       bool                    `json:"isComplete"`
	Status           string                  `json:"status"`
	CurrentStep      int                     `json:"currentStep"`
	ValidationResult *ValidationResult       `json:"validationResult,omitempty"`
	Classification   *ClassificationResponse `json:"classification,omitempty"`
}

// LeadListResponse is the dashboard list.
type LeadListResponse struct {
	Success bool           `json:"success"`
	Items   []LeadResponse `json:"items"`
	Total   int            `json:"total"`
}

// LeadEnvelope wraps a single lead.
type LeadEnvelope struct {
	Success bool         `json:"success"`
	Lead    LeadResponse `json:"lead"`
}

// ReclassifyResponse reports whether reclassification ran inline or was
// queued.
type ReclassifyResponse struct {
	Success bool          `json:"success"`
	Queued  bool          `json:"queued"`
	Lead    *LeadResponse `json:"lead,omitempty"`
}
