package transport

import "leadbot_backend/internal/leads/domain"

func ToMessages(msgs []domain.Message) []MessageResponse {
	out := make([]MessageResponse, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, MessageResponse{
			ID:        m.ID,
			Sender:    string(m.Sender),
			Text:      m.Text,
			Timestamp: m.Timestamp,
		})
	}
	return out
}

func ToLead(l domain.Lead) LeadResponse {
	return LeadResponse{
		ID:             l.ID,
		Name:           l.Name,
		Phone:          l.Phone,
		Email:          l.Email,
		Source:         l.Source,
		InitialMessage: l.InitialMessage,
		Classification: string(l.Classification),
		Score:          l.Score,
		Metadata:       l.Metadata,
		CreatedAt:      l.CreatedAt,
		UpdatedAt:      l.UpdatedAt,
	}
}

func ToLeads(leads []domain.Lead) []LeadResponse {
	out := make([]LeadResponse, 0, len(leads))
	for _, l := range leads {
		out = append(out, ToLead(l))
	}
	return out
}

func ToChat(s domain.ConversationSession) ChatResponse {
	return ChatResponse{
		LeadID:            s.LeadID,
		Messages:          ToMessages(s.Messages),
		CurrentStep:       s.CurrentStep,
		Profile:           s.Profile,
		InvalidReplyCount: s.InvalidReplyCount,
		Status:            string(s.Status),
		IsComplete:        s.IsComplete,
		CreatedAt:         s.CreatedAt,
		UpdatedAt:         s.UpdatedAt,
	}
}

func ToValidation(o domain.ValidationOutcome) *ValidationResult {
	return &ValidationResult{Valid: o.Valid, Reason: string(o.Reason), IsBrowsing: o.IsBrowsing}
}

func ToClassification(r *domain.ClassificationResult) *ClassificationResponse {
	if r == nil {
		return nil
	}
	return &ClassificationResponse{
		Classification: string(r.Classification),
		Score:          r.Score,
		Confidence:     r.Confidence,
		Rationale:      r.Rationale,
		Method:         string(r.Method),
		FallbackReason: r.FallbackReason,
		Breakdown:      r.Breakdown,
	}
}
