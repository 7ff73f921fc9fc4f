// Package agent implements the assisted classifier: it asks an external text
// generator for a verdict and falls back to the rule-based classifier when
// the call fails, times out or returns anything outside the contract.
package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"leadbot_backend/internal/leads/domain"
	"leadbot_backend/internal/leads/ports"
	"leadbot_backend/internal/leads/scoring"
	"leadbot_backend/platform/logger"
)

// MaxTimeout bounds every text-generation call.
const MaxTimeout = 15 * time.Second

// allowedClassifications are the only verdicts accepted from the model.
var allowedClassifications = map[string]domain.Classification{
	"HOT":     domain.ClassificationHot,
	"COLD":    domain.ClassificationCold,
	"INVALID": domain.ClassificationInvalid,
}

type verdict struct {
	Classification string   `json:"classification"`
	Confidence     *float64 `json:"confidence"`
	Reason         string   `json:"reason"`
}

// Classifier is the assisted classifier.
type Classifier struct {
	gen      ports.TextGenerator
	fallback *scoring.Classifier
	timeout  time.Duration
	log      *logger.Logger
}

// New creates an assisted classifier. timeout is clamped to MaxTimeout.
func New(gen ports.TextGenerator, fallback *scoring.Classifier, timeout time.Duration, log *logger.Logger) *Classifier {
	if timeout <= 0 || timeout > MaxTimeout {
		timeout = MaxTimeout
	}
	if log == nil {
		log = logger.Discard()
	}
	return &Classifier{gen: gen, fallback: fallback, timeout: timeout, log: log}
}

// Classify asks the model for a verdict. It never fails.
func (c *Classifier) Classify(ctx context.Context, input domain.ClassificationInput) domain.ClassificationResult {
	ruleBased := c.fallback.Classify(ctx, input)

	// The quality guard is deterministic; no model call can overturn it.
	if ruleBased.Classification == domain.ClassificationInvalid {
		return ruleBased
	}

	result, err := c.ask(ctx, input, ruleBased)
	if err != nil {
		c.log.ClassifierFallback(input.LeadID, err.Error())
		ruleBased.FallbackReason = err.Error()
		return ruleBased
	}
	return result
}

func (c *Classifier) ask(ctx context.Context, input domain.ClassificationInput, ruleBased domain.ClassificationResult) (domain.ClassificationResult, error) {
	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	raw, err := c.gen.Generate(callCtx, systemPrompt, buildClassificationPrompt(input, ruleBased))
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(callCtx.Err(), context.DeadlineExceeded) {
			return domain.ClassificationResult{}, fmt.Errorf("text generation timed out after %s", c.timeout)
		}
		return domain.ClassificationResult{}, fmt.Errorf("text generation failed: %w", err)
	}

	v, err := parseVerdict(raw)
	if err != nil {
		return domain.ClassificationResult{}, err
	}

	classification := allowedClassifications[strings.ToUpper(strings.TrimSpace(v.Classification))]
	result := domain.ClassificationResult{
		Classification:  classification,
		Confidence:      clampConfidence(v.Confidence),
		Rationale:       strings.TrimSpace(v.Reason),
		Method:          domain.MethodAssisted,
		ResponseQuality: ruleBased.ResponseQuality,
		Summary:         ruleBased.Summary,
		ScoreVersion:    ruleBased.ScoreVersion,
	}
	if classification != domain.ClassificationInvalid {
		result.Score = ruleBased.Score
		result.Breakdown = ruleBased.Breakdown
	}
	if result.Rationale == "" {
		result.Rationale = "classified by model without a stated reason"
	}
	return result, nil
}

func parseVerdict(raw string) (verdict, error) {
	obj, ok := extractJSONObject(raw)
	if !ok {
		return verdict{}, errors.New("no JSON object in model response")
	}
	var v verdict
	if err := json.Unmarshal([]byte(obj), &v); err != nil {
		return verdict{}, fmt.Errorf("malformed model response: %w", err)
	}
	if _, ok := allowedClassifications[strings.ToUpper(strings.TrimSpace(v.Classification))]; !ok {
		return verdict{}, fmt.Errorf("model returned disallowed classification %q", v.Classification)
	}
	return v, nil
}

func clampConfidence(v *float64) *int {
	if v == nil {
		return nil
	}
	f := max(0, min(100, *v))
	n := int(math.Round(f))
	return &n
}
