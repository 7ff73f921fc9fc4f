// Package businessprofile loads the per-industry Business Script: the
// question list, greeting and closing pools, clarification texts and
// scoring overrides. A profile is loaded once at start and never mutated.
package businessprofile

import (
	"errors"
	"fmt"
	"os"

	"leadbot_backend/internal/leads/domain"
	"leadbot_backend/internal/leads/scoring"

	"gopkg.in/yaml.v3"
)

// DefaultIndustry is used when INDUSTRY is unset.
const DefaultIndustry = "realEstate"

// Profile is one industry's configuration.
type Profile struct {
	Industry string
	Script   domain.Script
	Rules    scoring.Rules
}

type fileProfile struct {
	Name                  string            `yaml:"name"`
	Greetings             []string          `yaml:"greetingTemplates"`
	Questions             []fileQuestion    `yaml:"questions"`
	ClosingMessages       []string          `yaml:"closingMessages"`
	HandoffMessage        string            `yaml:"handoffMessage"`
	Clarifications        map[string]string `yaml:"clarifications"`
	FallbackClarification string            `yaml:"fallbackClarification"`
	Scoring               yaml.Node         `yaml:"scoring"`
}

type fileQuestion struct {
	Field  string `yaml:"field"`
	Prompt string `yaml:"prompt"`
}

// Load reads path and returns the profile for industry. An empty path yields
// the built-in real-estate profile.
func Load(path, industry string) (Profile, error) {
	if industry == "" {
		industry = DefaultIndustry
	}
	if path == "" {
		if industry != DefaultIndustry {
			return Profile{}, fmt.Errorf("industry %q: no business profiles file configured", industry)
		}
		return Default(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Profile{}, fmt.Errorf("read business profiles: %w", err)
	}
	return Parse(data, industry)
}

// Parse decodes a profiles document and selects industry.
func Parse(data []byte, industry string) (Profile, error) {
	var doc map[string]fileProfile
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return Profile{}, fmt.Errorf("parse business profiles: %w", err)
	}
	fp, ok := doc[industry]
	if !ok {
		return Profile{}, fmt.Errorf("configuration for industry %q not found", industry)
	}
	return fp.toProfile(industry)
}

func (fp fileProfile) toProfile(industry string) (Profile, error) {
	def := Default()

	if len(fp.Questions) == 0 {
		return Profile{}, errors.New("business profile has no questions")
	}
	steps := make([]domain.Step, 0, len(fp.Questions))
	for i, q := range fp.Questions {
		field := domain.FieldKind(q.Field)
		if q.Field == "" {
			field = domain.FieldGeneral
		}
		if !field.IsKnown() {
			return Profile{}, fmt.Errorf("question %d: unknown field %q", i, q.Field)
		}
		if q.Prompt == "" {
			return Profile{}, fmt.Errorf("question %d: prompt is required", i)
		}
		steps = append(steps, domain.Step{Index: i, Field: field, Prompt: q.Prompt})
	}

	script := domain.Script{
		Industry:          industry,
		Steps:             steps,
		GreetingTemplates: orDefault(fp.Greetings, def.Script.GreetingTemplates),
		ClosingMessages:   orDefault(fp.ClosingMessages, def.Script.ClosingMessages),
		HandoffMessage:    firstNonEmpty(fp.HandoffMessage, def.Script.HandoffMessage),
		FallbackClarify:   firstNonEmpty(fp.FallbackClarification, def.Script.FallbackClarify),
		Clarifications:    make(map[domain.InvalidReason]string, len(def.Script.Clarifications)),
	}
	if fp.Name != "" {
		script.Industry = fp.Name
	}
	for reason, msg := range def.Script.Clarifications {
		script.Clarifications[reason] = msg
	}
	for reason, msg := range fp.Clarifications {
		script.Clarifications[domain.InvalidReason(reason)] = msg
	}

	// Overrides are decoded on top of the defaults; absent keys keep their
	// default value.
	rules := scoring.DefaultRules()
	if !fp.Scoring.IsZero() {
		if err := fp.Scoring.Decode(&rules); err != nil {
			return Profile{}, fmt.Errorf("scoring overrides: %w", err)
		}
	}

	return Profile{Industry: industry, Script: script, Rules: rules}, nil
}

func orDefault(v, def []string) []string {
	if len(v) == 0 {
		return def
	}
	return v
}

func firstNonEmpty(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
