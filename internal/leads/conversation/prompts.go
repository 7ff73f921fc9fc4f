package conversation

import "leadbot_backend/internal/leads/domain"

const (
	budgetPromptUrgentBuy  = "Excellent! Since you're looking to buy urgently, what's your budget range? (e.g., 50L–80L)"
	budgetPromptInvestment = "Perfect for investment! What's your budget range and expected timeline?"

	engagementPromptBrowsing = "No problem! I'll share some trending properties. Are you open to a quick call to discuss options?"
	engagementPromptPremium  = "Excellent budget! Would you like to schedule a site visit this week? We have premium options ready."
	engagementPromptMid      = "Perfect! When would be convenient for you to visit properties? We have good options in your range."
)

const (
	premiumBudget = 5_000_000
	midBudget     = 2_000_000
)

// nextPrompt is the decision table for the question asked after a valid
// reply. Steps without a branch use their configured text, which is also the
// default variant of the branching steps.
func nextPrompt(next domain.Step, p domain.Profile) string {
	switch next.Field {
	case domain.FieldBudget:
		switch {
		case p.Intent == domain.IntentBuy && p.Timeline == domain.TimelineUrgent:
			return budgetPromptUrgentBuy
		case p.Intent == domain.IntentInvestment:
			return budgetPromptInvestment
		}
	case domain.FieldEngagement:
		switch {
		case p.IsBrowsing():
			return engagementPromptBrowsing
		case p.BudgetAmount >= premiumBudget:
			return engagementPromptPremium
		case p.BudgetAmount >= midBudget:
			return engagementPromptMid
		}
	}
	return next.Prompt
}
