package domain

// Property categories.
const (
	PropertyFlat       = "flat"
	PropertyVilla      = "villa"
	PropertyPlot       = "plot"
	PropertyCommercial = "commercial"
)

// Intents. IntentBrowsing is only ever set by a browsing budget reply.
const (
	IntentBuy        = "buy"
	IntentRent       = "rent"
	IntentInvestment = "investment"
	IntentPersonal   = "personal"
	IntentBrowsing   = "browsing"
)

// Timelines.
const (
	TimelineUrgent   = "urgent"
	TimelineSoon     = "soon"
	TimelineFlexible = "flexible"
)

// Engagement levels.
const (
	EngagementHigh   = "high"
	EngagementMedium = "medium"
	EngagementLow    = "low"
)

// BudgetBrowsing marks a lead that has not settled on a budget.
const BudgetBrowsing = "browsing"

// CurrencyINR is the currency of BudgetAmount. Amounts are whole rupees.
const CurrencyINR = "INR"

// Profile is what the conversation has learned about a lead. It is a value:
// every turn produces a new Profile rather than editing the previous one.
type Profile struct {
	Location       string `json:"location,omitempty"`
	PropertyType   string `json:"propertyType,omitempty"`
	Intent         string `json:"intent,omitempty"`
	Budget         string `json:"budget,omitempty"`
	BudgetAmount   int64  `json:"budgetAmount,omitempty"`
	BudgetCurrency string `json:"budgetCurrency,omitempty"`
	Timeline       string `json:"timeline,omitempty"`
	Engagement     string `json:"engagement,omitempty"`
}

// IsBrowsing reports whether the lead said they have no budget yet.
func (p Profile) IsBrowsing() bool {
	return p.Budget == BudgetBrowsing
}

// IsZero reports whether nothing has been extracted yet.
func (p Profile) IsZero() bool {
	return p == Profile{}
}
