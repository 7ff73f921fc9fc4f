// Package scoring implements the deterministic rule-based classifier: an
// additive score over the extracted profile plus a response-quality guard.
package scoring

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"unicode/utf8"

	"leadbot_backend/internal/leads/domain"
	"leadbot_backend/internal/leads/patterns"
	"leadbot_backend/platform/logger"
)

// scoreVersion tracks the scoring model. Bump it when weights or factors change.
const scoreVersion = "2026-rb1"

// poorQualityRationale is the rationale of every Invalid lead.
const poorQualityRationale = "Poor response quality"

// Classifier is the rule-based classifier. It is safe for concurrent use.
type Classifier struct {
	rules Rules
	log   *logger.Logger
}

// New creates a rule-based classifier.
func New(rules Rules, log *logger.Logger) *Classifier {
	if log == nil {
		log = logger.Discard()
	}
	return &Classifier{rules: rules, log: log}
}

// Rules returns the rules in use.
func (c *Classifier) Rules() Rules {
	return c.rules
}

// Classify labels input. It performs no I/O and returns the same result for
// the same input.
func (c *Classifier) Classify(_ context.Context, input domain.ClassificationInput) domain.ClassificationResult {
	summary := domain.Summarize(input.ValidationHistory)
	quality := summary.QualityPercent()

	if reason, invalid := c.invalidReason(input, summary); invalid {
		c.log.Debug("lead failed response-quality guard", "lead_id", input.LeadID, "reason", reason)
		return domain.ClassificationResult{
			Classification:  domain.ClassificationInvalid,
			Rationale:       poorQualityRationale,
			Method:          domain.MethodRuleBased,
			ResponseQuality: quality,
			Summary:         summary,
			ScoreVersion:    scoreVersion,
		}
	}

	breakdown := c.Score(input.Profile, summary)
	total := breakdown.Total
	classification, why := c.label(input.Profile, total)

	return domain.ClassificationResult{
		Classification:  classification,
		Score:           &total,
		Rationale:       fmt.Sprintf("%s: %s", why, describe(breakdown)),
		Method:          domain.MethodRuleBased,
		Breakdown:       &breakdown,
		ResponseQuality: quality,
		Summary:         summary,
		ScoreVersion:    scoreVersion,
	}
}

func (c *Classifier) invalidReason(input domain.ClassificationInput, summary domain.ValidationSummary) (string, bool) {
	switch {
	case summary.InvalidResponses >= c.rules.InvalidThreshold:
		return fmt.Sprintf("%d invalid replies", summary.InvalidResponses), true
	case input.InvalidReplyCount >= c.rules.InvalidThreshold:
		return fmt.Sprintf("%d consecutive invalid replies", input.InvalidReplyCount), true
	}
	for _, rec := range input.ValidationHistory {
		if rec.Outcome.Reason == domain.ReasonGibberish {
			return "gibberish reply at step " + fmt.Sprint(rec.Step), true
		}
	}
	return "", false
}

// Score computes the additive breakdown for a profile.
func (c *Classifier) Score(p domain.Profile, summary domain.ValidationSummary) domain.ScoreBreakdown {
	var b domain.ScoreBreakdown
	factors := map[string]int{}

	b.Intent = c.addFactor(factors, "intent", c.rules.IntentPoints[p.Intent])
	b.Budget = c.addFactor(factors, "budget", c.scoreBudget(p))
	b.Timeline = c.addFactor(factors, "timeline", c.rules.TimelinePoints[p.Timeline])
	b.Location = c.addFactor(factors, "location", c.scoreLocation(p.Location))
	b.Engagement = c.addFactor(factors, "engagement", c.rules.EngagementPoints[p.Engagement])
	b.ResponseQuality = c.addFactor(factors, "responseQuality", c.scoreQuality(summary))

	for _, v := range factors {
		b.Total += v
	}
	return b
}

func (c *Classifier) addFactor(factors map[string]int, key string, value int) int {
	if value == 0 {
		return 0
	}
	factors[key] = value
	return value
}

// scoreBudget: browsing scores 0, a known amount scores by tier.
func (c *Classifier) scoreBudget(p domain.Profile) int {
	if p.IsBrowsing() || p.BudgetAmount <= 0 {
		return 0
	}
	for _, tier := range c.rules.BudgetTiers {
		if p.BudgetAmount >= tier.MinAmount {
			return tier.Points
		}
	}
	return 0
}

// scoreLocation rewards a named locality over a bare city.
func (c *Classifier) scoreLocation(location string) int {
	loc := patterns.Normalize(location)
	n := utf8.RuneCountInString(loc)
	switch {
	case n >= c.rules.SpecificLocationMinLen && patterns.ScoredLocality.MatchString(loc):
		return c.rules.SpecificLocationPoints
	case n >= c.rules.GeneralLocationMinLen:
		return c.rules.GeneralLocationPoints
	default:
		return 0
	}
}

func (c *Classifier) scoreQuality(summary domain.ValidationSummary) int {
	if summary.TotalResponses == 0 {
		return 0
	}
	ratio := float64(summary.ValidResponses) / float64(summary.TotalResponses)
	if ratio >= c.rules.QualityBonusRatio {
		return c.rules.QualityBonusPoints
	}
	return 0
}

func (c *Classifier) label(p domain.Profile, total int) (domain.Classification, string) {
	switch {
	case total >= c.rules.HotThreshold:
		return domain.ClassificationHot, fmt.Sprintf("score %d reached hot threshold %d", total, c.rules.HotThreshold)
	case c.fastTrack(p):
		return domain.ClassificationHot, fmt.Sprintf("ready %s buyer with budget %s", p.Timeline, p.Budget)
	case total >= c.rules.WarmThreshold:
		return domain.ClassificationWarm, fmt.Sprintf("score %d reached warm threshold %d", total, c.rules.WarmThreshold)
	default:
		return domain.ClassificationCold, fmt.Sprintf("score %d below warm threshold %d", total, c.rules.WarmThreshold)
	}
}

func (c *Classifier) fastTrack(p domain.Profile) bool {
	ft := c.rules.HotFastTrack
	if ft.Intent == "" {
		return false
	}
	return p.Intent == ft.Intent &&
		p.BudgetAmount >= ft.MinBudgetAmount &&
		slices.Contains(ft.Timelines, p.Timeline) &&
		p.Engagement == ft.Engagement
}

func describe(b domain.ScoreBreakdown) string {
	parts := []string{
		fmt.Sprintf("intent %d", b.Intent),
		fmt.Sprintf("budget %d", b.Budget),
		fmt.Sprintf("timeline %d", b.Timeline),
		fmt.Sprintf("location %d", b.Location),
		fmt.Sprintf("engagement %d", b.Engagement),
		fmt.Sprintf("response quality %d", b.ResponseQuality),
	}
	return strings.Join(parts, ", ")
}
