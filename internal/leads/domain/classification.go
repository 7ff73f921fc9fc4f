package domain

import "strings"

// Classification is the sales label of a lead.
type Classification string

const (
	ClassificationPending Classification = "Pending"
	ClassificationHot     Classification = "Hot"
	ClassificationWarm    Classification = "Warm"
	ClassificationCold    Classification = "Cold"
	ClassificationInvalid Classification = "Invalid"
)

// ParseClassification accepts any casing ("HOT", "hot", "Hot").
func ParseClassification(raw string) (Classification, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "pending":
		return ClassificationPending, true
	case "hot":
		return ClassificationHot, true
	case "warm":
		return ClassificationWarm, true
	case "cold":
		return ClassificationCold, true
	case "invalid":
		return ClassificationInvalid, true
	}
	return "", false
}

// Method records which classifier produced a result.
type Method string

const (
	MethodRuleBased Method = "rule-based"
	MethodAssisted  Method = "assisted"
	MethodManual    Method = "manual"
)

// ScoreBreakdown is the per-factor contribution to a rule-based score.
type ScoreBreakdown struct {
	Intent          int `json:"intent"`
	Budget          int `json:"budget"`
	Timeline        int `json:"timeline"`
	Location        int `json:"location"`
	Engagement      int `json:"engagement"`
	ResponseQuality int `json:"responseQuality"`
	Total           int `json:"total"`
}

// ClassificationInput is everything a classifier may look at.
type ClassificationInput struct {
	LeadID            string
	Profile           Profile
	Messages          []Message
	ValidationHistory []ValidationRecord
	InvalidReplyCount int
	Status            SessionStatus
}

// InputFromSession builds a classifier input from a session snapshot.
func InputFromSession(s ConversationSession) ClassificationInput {
	return ClassificationInput{
		LeadID:            s.LeadID,
		Profile:           s.Profile,
		Messages:          s.Messages,
		ValidationHistory: s.ValidationHistory,
		InvalidReplyCount: s.InvalidReplyCount,
		Status:            s.Status,
	}
}

// ClassificationResult is a classifier's verdict. Score is nil for Invalid
// leads; Confidence is set only by the assisted classifier.
type ClassificationResult struct {
	Classification  Classification    `json:"classification"`
	Score           *int              `json:"score,omitempty"`
	Confidence      *int              `json:"confidence,omitempty"`
	Rationale       string            `json:"rationale"`
	Method          Method            `json:"method"`
	FallbackReason  string            `json:"fallbackReason,omitempty"`
	Breakdown       *ScoreBreakdown   `json:"scoreBreakdown,omitempty"`
	ResponseQuality int               `json:"responseQuality"`
	Summary         ValidationSummary `json:"validationSummary"`
	ScoreVersion    string            `json:"scoreVersion,omitempty"`
}
