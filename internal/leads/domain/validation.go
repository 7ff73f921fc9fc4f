package domain

import "time"

// FieldKind names what a conversation step asks for.
type FieldKind string

const (
	FieldLocation     FieldKind = "location"
	FieldPropertyType FieldKind = "propertyType"
	FieldBudget       FieldKind = "budget"
	FieldTimeline     FieldKind = "timeline"
	FieldEngagement   FieldKind = "engagement"
	FieldGeneral      FieldKind = "general"
)

// IsKnown reports whether k is one of the declared field kinds.
func (k FieldKind) IsKnown() bool {
	switch k {
	case FieldLocation, FieldPropertyType, FieldBudget, FieldTimeline, FieldEngagement, FieldGeneral:
		return true
	}
	return false
}

// InvalidReason explains why a reply was rejected.
type InvalidReason string

const (
	ReasonEmpty               InvalidReason = "empty"
	ReasonGibberish           InvalidReason = "gibberish"
	ReasonVagueLocation       InvalidReason = "vague-location"
	ReasonUnclearPropertyType InvalidReason = "unclear-property-type"
	ReasonUnclearBudget       InvalidReason = "unclear-budget"
	ReasonTooShort            InvalidReason = "too-short"
)

// ValidationOutcome is the verdict on one reply. Reason is set only when
// Valid is false; IsBrowsing only for valid budget replies without a figure.
type ValidationOutcome struct {
	Valid      bool          `json:"valid"`
	Reason     InvalidReason `json:"reason,omitempty"`
	IsBrowsing bool          `json:"isBrowsing,omitempty"`
}

// Valid returns an accepting outcome.
func Valid() ValidationOutcome {
	return ValidationOutcome{Valid: true}
}

// ValidBrowsing returns an accepting outcome for an undecided budget.
func ValidBrowsing() ValidationOutcome {
	return ValidationOutcome{Valid: true, IsBrowsing: true}
}

// Invalid returns a rejecting outcome with reason.
func Invalid(reason InvalidReason) ValidationOutcome {
	return ValidationOutcome{Valid: false, Reason: reason}
}

// ValidationRecord is one entry of a session's validation history.
type ValidationRecord struct {
	Step      int               `json:"step"`
	RawReply  string            `json:"rawReply"`
	Outcome   ValidationOutcome `json:"outcome"`
	Timestamp time.Time         `json:"timestamp"`
}

// ValidationSummary counts replies by outcome.
type ValidationSummary struct {
	TotalResponses   int `json:"totalResponses"`
	ValidResponses   int `json:"validResponses"`
	InvalidResponses int `json:"invalidResponses"`
}

// Summarize counts a validation history.
func Summarize(history []ValidationRecord) ValidationSummary {
	s := ValidationSummary{TotalResponses: len(history)}
	for _, rec := range history {
		if rec.Outcome.Valid {
			s.ValidResponses++
		} else {
			s.InvalidResponses++
		}
	}
	return s
}

// QualityPercent is the share of valid replies, rounded down to a whole
// percent. An empty history scores 0.
func (s ValidationSummary) QualityPercent() int {
	if s.TotalResponses == 0 {
		return 0
	}
	return s.ValidResponses * 100 / s.TotalResponses
}
