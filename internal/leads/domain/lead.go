package domain

import "time"

// Lead sources.
const (
	SourceWebsite  = "website"
	SourceWhatsApp = "whatsapp"
)

// Lead is a prospective customer and their current classification.
type Lead struct {
	ID             string         `json:"id"`
	Name           string         `json:"name"`
	Phone          string         `json:"phone"`
	Email          string         `json:"email,omitempty"`
	Source         string         `json:"source"`
	InitialMessage string         `json:"initialMessage,omitempty"`
	Classification Classification `json:"classification"`
	Score          *int           `json:"score"`
	Metadata       LeadMetadata   `json:"metadata"`
	CreatedAt      time.Time      `json:"createdAt"`
	UpdatedAt      time.Time      `json:"updatedAt"`
}

// LeadMetadata flattens the extracted profile next to the classification
// audit fields.
type LeadMetadata struct {
	Profile
	ScoreBreakdown    *ScoreBreakdown    `json:"scoreBreakdown,omitempty"`
	ResponseQuality   *int               `json:"responseQuality,omitempty"`
	ValidationSummary *ValidationSummary `json:"validationSummary,omitempty"`
	Rationale         string             `json:"rationale,omitempty"`
	Method            Method             `json:"method,omitempty"`
	Confidence        *int               `json:"confidence,omitempty"`
	FallbackReason    string             `json:"fallbackReason,omitempty"`
	ScoreVersion      string             `json:"scoreVersion,omitempty"`
	ClassifiedBy      string             `json:"classifiedBy,omitempty"`
	ClassifiedAt      *time.Time         `json:"classifiedAt,omitempty"`
}

// WithProfile returns l with its metadata profile replaced.
func (l Lead) WithProfile(p Profile, at time.Time) Lead {
	l.Metadata.Profile = p
	l.UpdatedAt = at
	return l
}

// WithClassification returns l carrying res. The previous audit fields are
// replaced wholesale so a reclassification never mixes two verdicts.
func (l Lead) WithClassification(res ClassificationResult, by string, at time.Time) Lead {
	quality := res.ResponseQuality
	summary := res.Summary
	l.Classification = res.Classification
	l.Score = res.Score
	l.Metadata = LeadMetadata{
		Profile:           l.Metadata.Profile,
		ScoreBreakdown:    res.Breakdown,
		ResponseQuality:   &quality,
		ValidationSummary: &summary,
		Rationale:         res.Rationale,
		Method:            res.Method,
		Confidence:        res.Confidence,
		FallbackReason:    res.FallbackReason,
		ScoreVersion:      res.ScoreVersion,
		ClassifiedBy:      by,
		ClassifiedAt:      &at,
	}
	l.UpdatedAt = at
	return l
}

// LeadFilter narrows ListLeads.
type LeadFilter struct {
	Classification Classification
	Source         string
	Limit          int
}
