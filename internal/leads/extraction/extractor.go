// Package extraction turns a validated reply into structured profile fields.
// Extraction never fails: a reply that yields nothing leaves the profile as
// it was.
package extraction

import (
	"math"
	"strconv"
	"strings"

	"leadbot_backend/internal/leads/domain"
	"leadbot_backend/internal/leads/patterns"
)

const (
	rupeesPerCrore = 10_000_000
	rupeesPerLakh  = 100_000
)

// Diff lists the fields a reply set, keyed by JSON field name.
type Diff map[string]string

// Extract returns a new profile with the fields implied by reply for the
// given step kind, plus what changed. current is never modified.
func Extract(field domain.FieldKind, reply string, current domain.Profile) (domain.Profile, Diff) {
	next := current
	diff := Diff{}
	s := patterns.Normalize(reply)

	switch field {
	case domain.FieldLocation:
		next.Location = strings.TrimSpace(reply)
		diff["location"] = next.Location
	case domain.FieldPropertyType:
		if v, ok := patterns.Match(patterns.PropertyTypes, s); ok {
			next.PropertyType = v
			diff["propertyType"] = v
		}
		if v, ok := patterns.Match(patterns.Intents, s); ok {
			next.Intent = v
			diff["intent"] = v
		}
		if v, ok := patterns.Match(patterns.Timelines, s); ok {
			next.Timeline = v
			diff["timeline"] = v
		}
	case domain.FieldBudget:
		extractBudget(s, &next, diff)
		if next.Timeline == "" {
			if v, ok := patterns.Match(patterns.Timelines, s); ok {
				next.Timeline = v
				diff["timeline"] = v
			}
		}
	case domain.FieldTimeline:
		if v, ok := patterns.Match(patterns.Timelines, s); ok {
			next.Timeline = v
			diff["timeline"] = v
		}
	case domain.FieldEngagement:
		next.Engagement = Engagement(s)
		diff["engagement"] = next.Engagement
	}

	return next, diff
}

// Engagement classifies a reply as high, medium or low interest.
func Engagement(reply string) string {
	if v, ok := patterns.Match(patterns.Engagement, patterns.Normalize(reply)); ok {
		return v
	}
	return domain.EngagementLow
}

// ParseBudget reads an amount in crore or lakh. It returns the amount in
// whole rupees and its display form ("₹1.5 crore", "₹75L"). Amounts that do
// not fit in an int64 of rupees are treated as no budget at all.
func ParseBudget(reply string) (amount int64, display string, ok bool) {
	s := patterns.Normalize(reply)
	if m := patterns.CroreAmount.FindStringSubmatch(s); m != nil {
		if v, err := strconv.ParseFloat(m[1], 64); err == nil {
			if amount, ok := toRupees(v, rupeesPerCrore); ok {
				return amount, "₹" + formatAmount(v) + " crore", true
			}
			return 0, "", false
		}
	}
	if m := patterns.LakhAmount.FindStringSubmatch(s); m != nil {
		if v, err := strconv.ParseFloat(m[1], 64); err == nil {
			if amount, ok := toRupees(v, rupeesPerLakh); ok {
				return amount, "₹" + formatAmount(v) + "L", true
			}
			return 0, "", false
		}
	}
	return 0, "", false
}

// extractBudget sets budget fields. A browsing reply also overwrites the
// intent with "browsing" so the lead is scored as not ready to buy.
func extractBudget(s string, p *domain.Profile, diff Diff) {
	if amount, display, ok := ParseBudget(s); ok {
		p.Budget = display
		p.BudgetAmount = amount
		p.BudgetCurrency = domain.CurrencyINR
		diff["budget"] = display
		diff["budgetAmount"] = strconv.FormatInt(amount, 10)
		return
	}
	if patterns.BrowsingPhrase.MatchString(s) {
		p.Budget = domain.BudgetBrowsing
		p.BudgetAmount = 0
		p.Intent = domain.IntentBrowsing
		diff["budget"] = domain.BudgetBrowsing
		diff["intent"] = domain.IntentBrowsing
	}
}

func toRupees(v float64, unit int64) (int64, bool) {
	r := math.Round(v * float64(unit))
	// float64(math.MaxInt64) rounds up to 2^63, which itself overflows.
	if math.IsNaN(r) || math.IsInf(r, 0) || r < 0 || r >= math.MaxInt64 {
		return 0, false
	}
	return int64(r), true
}

func formatAmount(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
