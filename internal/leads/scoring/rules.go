package scoring

// BudgetTier awards Points to budgets of at least MinAmount rupees.
type BudgetTier struct {
	MinAmount int64 `yaml:"minAmount" json:"minAmount"`
	Points    int   `yaml:"points" json:"points"`
}

// FastTrack promotes a lead to Hot below the score threshold when every
// condition holds.
type FastTrack struct {
	Intent          string   `yaml:"intent" json:"intent"`
	MinBudgetAmount int64    `yaml:"minBudgetAmount" json:"minBudgetAmount"`
	Timelines       []string `yaml:"timelines" json:"timelines"`
	Engagement      string   `yaml:"engagement" json:"engagement"`
}

// Rules are the weights and thresholds of the additive score.
type Rules struct {
	IntentPoints     map[string]int `yaml:"intentPoints" json:"intentPoints"`
	BudgetTiers      []BudgetTier   `yaml:"budgetTiers" json:"budgetTiers"` // highest MinAmount first
	TimelinePoints   map[string]int `yaml:"timelinePoints" json:"timelinePoints"`
	EngagementPoints map[string]int `yaml:"engagementPoints" json:"engagementPoints"`

	// A location naming a locality (nagar, road, sector...) and longer than
	// SpecificLocationMinLen scores SpecificLocationPoints; any other
	// location longer than GeneralLocationMinLen scores GeneralLocationPoints.
	SpecificLocationPoints int `yaml:"specificLocationPoints" json:"specificLocationPoints"`
	SpecificLocationMinLen int `yaml:"specificLocationMinLen" json:"specificLocationMinLen"`
	GeneralLocationPoints  int `yaml:"generalLocationPoints" json:"generalLocationPoints"`
	GeneralLocationMinLen  int `yaml:"generalLocationMinLen" json:"generalLocationMinLen"`

	QualityBonusPoints int     `yaml:"qualityBonusPoints" json:"qualityBonusPoints"`
	QualityBonusRatio  float64 `yaml:"qualityBonusRatio" json:"qualityBonusRatio"`

	HotThreshold     int       `yaml:"hotThreshold" json:"hotThreshold"`
	WarmThreshold    int       `yaml:"warmThreshold" json:"warmThreshold"`
	HotFastTrack     FastTrack `yaml:"hotFastTrack" json:"hotFastTrack"`
	InvalidThreshold int       `yaml:"invalidThreshold" json:"invalidThreshold"`
}

// DefaultRules is the real-estate scoring model.
func DefaultRules() Rules {
	return Rules{
		IntentPoints: map[string]int{
			"buy":        4,
			"investment": 3,
			"rent":       2,
			"browsing":   0,
		},
		BudgetTiers: []BudgetTier{
			{MinAmount: 10_000_000, Points: 4},
			{MinAmount: 5_000_000, Points: 3},
			{MinAmount: 2_000_000, Points: 2},
			{MinAmount: 1, Points: 1},
		},
		TimelinePoints: map[string]int{
			"urgent":   3,
			"soon":     2,
			"flexible": 1,
		},
		EngagementPoints: map[string]int{
			"high":   2,
			"medium": 1,
		},
		SpecificLocationPoints: 2,
		SpecificLocationMinLen: 11,
		GeneralLocationPoints:  1,
		GeneralLocationMinLen:  6,
		QualityBonusPoints:     1,
		QualityBonusRatio:      0.8,
		HotThreshold:           10,
		WarmThreshold:          6,
		HotFastTrack: FastTrack{
			Intent:          "buy",
			MinBudgetAmount: 2_000_000,
			Timelines:       []string{"urgent", "soon"},
			Engagement:      "high",
		},
		InvalidThreshold: 3,
	}
}
