// Package validation decides whether a lead's reply answers the question it
// was asked. Validation is pure: the same reply and field always produce the
// same outcome.
package validation

import (
	"unicode/utf8"

	"leadbot_backend/internal/leads/domain"
	"leadbot_backend/internal/leads/patterns"
)

// minLocationLength is the shortest reply that can still be a vague place
// rather than too short to mean anything.
const minLocationLength = 3

// minTimelineLength lets free-text timelines through ("after my son's exams").
const minTimelineLength = 6

// Validate checks reply against the expected field. Empty and gibberish
// replies are rejected before any field rule runs; unknown or free-form
// fields accept anything else.
func Validate(reply string, field domain.FieldKind) domain.ValidationOutcome {
	s := patterns.Normalize(reply)
	if s == "" {
		return domain.Invalid(domain.ReasonEmpty)
	}
	if IsGibberish(s) {
		return domain.Invalid(domain.ReasonGibberish)
	}

	switch field {
	case domain.FieldLocation:
		return validateLocation(s)
	case domain.FieldPropertyType:
		return validatePropertyType(s)
	case domain.FieldBudget:
		return validateBudget(s)
	case domain.FieldTimeline:
		return validateTimeline(s)
	default:
		return domain.Valid()
	}
}

// IsGibberish reports whether reply matches a gibberish signature.
func IsGibberish(reply string) bool {
	s := patterns.Normalize(reply)
	if s == "" {
		return false
	}
	if patterns.LongLetterRun.MatchString(s) && !patterns.IsKnownWord(s) {
		return true
	}
	if patterns.LongDigitRun.MatchString(s) ||
		patterns.OnlySymbols.MatchString(s) ||
		patterns.Placeholder.MatchString(s) ||
		patterns.KeyboardMash.MatchString(s) ||
		patterns.OnlyVowels.MatchString(s) ||
		patterns.OnlyConsonants.MatchString(s) {
		return true
	}
	return patterns.HasRepeatedRun(s, patterns.RepeatedRunSize)
}

func validateLocation(s string) domain.ValidationOutcome {
	for _, re := range patterns.LocationNonAnswers {
		if re.MatchString(s) {
			return domain.Invalid(domain.ReasonVagueLocation)
		}
	}
	if patterns.KnownCities.MatchString(s) ||
		patterns.LocalityName.MatchString(s) ||
		patterns.AreaSuffix.MatchString(s) ||
		patterns.NearLandmark.MatchString(s) ||
		len(patterns.LocationWord.FindAllString(s, -1)) >= 2 {
		return domain.Valid()
	}
	if utf8.RuneCountInString(s) < minLocationLength {
		return domain.Invalid(domain.ReasonTooShort)
	}
	return domain.Invalid(domain.ReasonVagueLocation)
}

func validatePropertyType(s string) domain.ValidationOutcome {
	if patterns.MatchesAny(patterns.PropertyTypes, s) {
		return domain.Valid()
	}
	return domain.Invalid(domain.ReasonUnclearPropertyType)
}

func validateBudget(s string) domain.ValidationOutcome {
	for _, re := range patterns.BudgetFigures {
		if re.MatchString(s) {
			return domain.Valid()
		}
	}
	for _, re := range patterns.BrowsingReplies {
		if re.MatchString(s) {
			return domain.ValidBrowsing()
		}
	}
	return domain.Invalid(domain.ReasonUnclearBudget)
}

func validateTimeline(s string) domain.ValidationOutcome {
	if patterns.MatchesAny(patterns.Timelines, s) || utf8.RuneCountInString(s) >= minTimelineLength {
		return domain.Valid()
	}
	return domain.Invalid(domain.ReasonTooShort)
}
