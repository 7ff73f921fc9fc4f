// Package patterns is the shared vocabulary of the lead conversation: the
// keyword tables and regular expressions used by both validation and
// extraction. Everything is compiled once at package init and read-only
// afterwards. Inputs are expected trimmed and lower-cased.
package patterns

import (
	"regexp"
	"strings"
	"unicode"
)

// Category is one entry of an ordered keyword table. Tables are slices so
// that "first match wins" is deterministic.
type Category struct {
	Value   string
	Pattern *regexp.Regexp
}

// Match returns the value of the first category whose pattern matches s.
func Match(table []Category, s string) (string, bool) {
	for _, c := range table {
		if c.Pattern.MatchString(s) {
			return c.Value, true
		}
	}
	return "", false
}

// MatchesAny reports whether any category in table matches s.
func MatchesAny(table []Category, s string) bool {
	_, ok := Match(table, s)
	return ok
}

var (
	// PropertyTypes maps replies to a property category.
	PropertyTypes = []Category{
		{"flat", regexp.MustCompile(`\b(flats?|apartments?)\b|\d?\s*bhk\b`)},
		{"villa", regexp.MustCompile(`\b(villas?|houses?|bungalows?|independent)\b`)},
		{"plot", regexp.MustCompile(`\b(plots?|land)\b`)},
		{"commercial", regexp.MustCompile(`\b(commercial|offices?|shops?|showrooms?)\b`)},
	}

	// Intents maps replies to a purchase intent.
	Intents = []Category{
		{"buy", regexp.MustCompile(`\b(buy|buying|purchase|purchasing)\b`)},
		{"rent", regexp.MustCompile(`\b(rent|rental|renting|lease)\b`)},
		{"investment", regexp.MustCompile(`\b(invest|investing|investment|portfolio)\b`)},
		{"personal", regexp.MustCompile(`\b(personal|family|own use|self use|live in)\b`)},
	}

	// Timelines maps replies to an urgency bucket. "within 6 months" is
	// soon, so soon is listed before flexible.
	Timelines = []Category{
		{"urgent", regexp.MustCompile(`urgent|asap|immediate|right away|this week|this month`)},
		{"soon", regexp.MustCompile(`\b3 months\b|\bquarter\b|\bsoon\b|within 6 months|next few months`)},
		{"flexible", regexp.MustCompile(`6 months|\byears?\b|flexible|no rush|not in a hurry`)},
	}

	// Engagement maps a reply to the closing question onto interest level.
	Engagement = []Category{
		{"high", regexp.MustCompile(`\b(yes|yeah|yep|sure|okay|ok|schedule|available|interested)\b`)},
		{"medium", regexp.MustCompile(`\b(no|not now|later|maybe|busy)\b`)},
	}
)

// Budget patterns.
var (
	// CroreAmount captures the numeric part of "1.5 cr" / "2 crore".
	CroreAmount = regexp.MustCompile(`(\d+(?:\.\d+)?)\s*(?:crores?|cr)\b`)
	// LakhAmount captures the numeric part of "75L" / "80 lakh".
	LakhAmount = regexp.MustCompile(`(\d+(?:\.\d+)?)\s*(?:lakhs?|lacs?|l)\b`)

	// BudgetFigures are replies that state a budget.
	BudgetFigures = []*regexp.Regexp{
		regexp.MustCompile(`\d+(?:\.\d+)?\s*(?:l|lakhs?|lacs?|cr|crores?)\b`),
		regexp.MustCompile(`\d+\s*(?:-|–|to)\s*\d+`),
		regexp.MustCompile(`\b(?:under|below|above|around|upto|up to|max|maximum)\s+\d+`),
	}

	// BrowsingReplies are complete replies meaning "no budget yet".
	BrowsingReplies = []*regexp.Regexp{
		regexp.MustCompile(`^(?:just )?(?:browsing|looking)$|^just looking$`),
		regexp.MustCompile(`^(?:not decided|haven'?t decided|not decided yet|send (?:me )?listings)$`),
		regexp.MustCompile(`^(?:flexible|open|depends)$`),
	}

	// BrowsingPhrase is the looser form the extractor uses.
	BrowsingPhrase = regexp.MustCompile(`browsing|haven.*decided|not.*sure|send.*listing`)
)

// Location patterns.
var (
	KnownCities = regexp.MustCompile(`\b(mumbai|navi mumbai|thane|pune|delhi|new delhi|noida|gurgaon|gurugram|faridabad|ghaziabad|bangalore|bengaluru|mysore|mysuru|chennai|coimbatore|hyderabad|secunderabad|kolkata|ahmedabad|surat|vadodara|jaipur|lucknow|chandigarh|mohali|kochi|trivandrum|thiruvananthapuram|indore|bhopal|nagpur|nashik|goa|bhubaneswar|visakhapatnam|vizag|patna|ranchi|dehradun)\b`)

	AreaSuffix = regexp.MustCompile(`\b[a-z]{3,}\s+(?:nagar|area|road|sector|colony|society|layout|phase|extension|enclave)\b|\bsector\s*-?\s*\d+\b`)

	// LocalityName matches single-word Indian locality names built on a
	// common suffix ("Malleshwaram", "Basavanagudi", "Ghatkopar").
	LocalityName = regexp.MustCompile(`\b[a-z]{3,}(?:nagar|gudi|halli|palli|pally|palya|puram|uram|aram|abad|wadi|ganj|pet|pur|kopar|garh|bagh|vihar|kunj)\b`)

	NearLandmark = regexp.MustCompile(`\bnear\s+[a-z]{3,}`)

	// LocationWord is a token long enough to be a place name.
	LocationWord = regexp.MustCompile(`[a-z]{4,}`)

	// LocationNonAnswers are replies that name no place at all.
	LocationNonAnswers = []*regexp.Regexp{
		regexp.MustCompile(`^(?:no|nope|none|not sure|don'?t know|dont know|anywhere|any|idk|nothing)$`),
		regexp.MustCompile(`^[a-z]{1,2}$`),
		regexp.MustCompile(`^\d+$`),
	}

	// ScoredLocality marks a specific locality for scoring.
	ScoredLocality = regexp.MustCompile(`nagar|area|road|sector`)
)

// Gibberish signatures. RepeatedRun is checked in code (RE2 has no
// backreferences), see HasRepeatedRun.
var (
	LongLetterRun   = regexp.MustCompile(`^[a-z]{12,}$`)
	LongDigitRun    = regexp.MustCompile(`^\d{8,}$`)
	OnlySymbols     = regexp.MustCompile(`^[[:punct:]\s]+$`)
	Placeholder     = regexp.MustCompile(`^(?:test|testing|dummy|fake|spam|lorem(?: ipsum)?|blah(?: blah)*)(?:\s+user)?$`)
	KeyboardMash    = regexp.MustCompile(`^(?:qwerty|qwer|asdf|zxcv|hjkl)`)
	OnlyVowels      = regexp.MustCompile(`^[aeiou]{5,}$`)
	OnlyConsonants  = regexp.MustCompile(`^[bcdfghjklmnpqrstvwxz]{5,}$`)
	RepeatedRunSize = 5
)

// HasRepeatedRun reports whether s contains the same rune n or more times
// in a row. Spaces and digits break a run: "1000000" is an amount.
func HasRepeatedRun(s string, n int) bool {
	var prev rune
	count := 0
	for _, r := range s {
		if r == ' ' || unicode.IsDigit(r) {
			prev, count = 0, 0
			continue
		}
		if r == prev {
			count++
		} else {
			prev, count = r, 1
		}
		if count >= n {
			return true
		}
	}
	return false
}

// IsKnownWord reports whether a single token belongs to the vocabulary
// above, so long real words are not mistaken for keyboard mashing.
func IsKnownWord(s string) bool {
	if KnownCities.MatchString(s) || LocalityName.MatchString(s) {
		return true
	}
	for _, table := range [][]Category{PropertyTypes, Intents, Timelines, Engagement} {
		if MatchesAny(table, s) {
			return true
		}
	}
	return false
}

// Normalize trims and lower-cases a reply.
func Normalize(reply string) string {
	return strings.ToLower(strings.TrimSpace(reply))
}
