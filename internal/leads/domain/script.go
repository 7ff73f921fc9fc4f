package domain

import "strings"

// Step is one question of the Business Script: what the reply is validated
// as, and the configured question text.
type Step struct {
	Index  int       `json:"index"`
	Field  FieldKind `json:"field"`
	Prompt string    `json:"prompt"`
}

// Script is the read-only conversation configuration for one industry.
type Script struct {
	Industry          string
	Steps             []Step
	GreetingTemplates []string
	ClosingMessages   []string
	HandoffMessage    string
	Clarifications    map[InvalidReason]string
	FallbackClarify   string
}

// Len is the number of steps (K).
func (s Script) Len() int { return len(s.Steps) }

// StepAt returns the step at i, bounds-checked.
func (s Script) StepAt(i int) (Step, bool) {
	if i < 0 || i >= len(s.Steps) {
		return Step{}, false
	}
	return s.Steps[i], true
}

// Greeting renders template with the lead's name.
func Greeting(template, name string) string {
	return strings.ReplaceAll(template, "{name}", name)
}
