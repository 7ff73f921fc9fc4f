package businessprofile

import (
	"leadbot_backend/internal/leads/domain"
	"leadbot_backend/internal/leads/scoring"
)

// Default is the built-in real-estate profile.
func Default() Profile {
	return Profile{
		Industry: DefaultIndustry,
		Script: domain.Script{
			Industry: "Real Estate",
			Steps: []domain.Step{
				{Index: 0, Field: domain.FieldLocation, Prompt: "Which city or area are you looking for a property in?"},
				{Index: 1, Field: domain.FieldPropertyType, Prompt: "Great! Are you looking for a flat, villa, or plot? Also, is this for investment or personal use?"},
				{Index: 2, Field: domain.FieldBudget, Prompt: "Got it! What's your budget range? When are you planning to make this purchase/move?"},
				{Index: 3, Field: domain.FieldEngagement, Prompt: "Thanks! Let me find suitable options. Would you prefer ready-to-move or under-construction properties?"},
			},
			GreetingTemplates: []string{
				"Hi {name}! Thanks for reaching out to GrowEasy Realtors.",
				"Hello {name}! I'm here to help you with your property needs.",
			},
			ClosingMessages: []string{
				"Thanks for the details! Our team will analyze your requirements and get back to you shortly. 🏡✨",
				"Perfect! We have all the information we need. Expect a call from our property expert soon! 📞",
				"Thank you! We'll match the best properties according to your needs and contact you soon. 🌟",
			},
			HandoffMessage: "I'm having trouble understanding your requirements. Our team will contact you directly to assist better. Thank you!",
			Clarifications: map[domain.InvalidReason]string{
				domain.ReasonGibberish:           "I didn't understand that. Could you please provide a clear response?",
				domain.ReasonEmpty:               "Please provide a response to help me assist you better.",
				domain.ReasonVagueLocation:       "Could you please specify the city or area you're interested in? (e.g., Pune, Mumbai, Bangalore)",
				domain.ReasonUnclearPropertyType: "What type of property are you looking for? (Flat, Villa, Plot, or Commercial)",
				domain.ReasonUnclearBudget:       "What's your budget range? (e.g., 50L-80L, 1-2 Cr, or let me know if you're still browsing)",
				domain.ReasonTooShort:            "Could you provide more details about your requirements?",
			},
			FallbackClarify: "Could you please clarify your response?",
		},
		Rules: scoring.DefaultRules(),
	}
}
