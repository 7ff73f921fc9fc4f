package leads

import (
	"fmt"

	"leadbot_backend/internal/leads/adapters"
	"leadbot_backend/internal/leads/agent"
	"leadbot_backend/internal/leads/ports"
	"leadbot_backend/internal/leads/scoring"
	"leadbot_backend/platform/ai/moonshot"
	"leadbot_backend/platform/ai/openai"
	"leadbot_backend/platform/config"
	"leadbot_backend/platform/logger"
)

// NewClassifier returns the rule-based classifier, wrapped in the assisted
// classifier when a text-generation provider is configured.
func NewClassifier(cfg config.LLMConfig, rules scoring.Rules, log *logger.Logger) (ports.Classifier, error) {
	ruleBased := scoring.New(rules, log)

	var gen ports.TextGenerator
	switch cfg.GetLLMProvider() {
	case config.LLMProviderNone, "":
		return ruleBased, nil
	case config.LLMProviderMoonshot:
		gen = adapters.NewLLMTextGenerator(moonshot.NewModel(moonshot.Config{
			APIKey:   cfg.GetMoonshotAPIKey(),
			Model:    cfg.GetLLMModel(),
			JSONMode: true,
		}))
	case config.LLMProviderOpenAI:
		gen = adapters.NewCompletionTextGenerator(openai.New(openai.Config{
			APIKey:   cfg.GetOpenAIAPIKey(),
			BaseURL:  cfg.GetOpenAIBaseURL(),
			Model:    cfg.GetLLMModel(),
			JSONMode: true,
		}))
	default:
		return nil, fmt.Errorf("unknown LLM provider %q", cfg.GetLLMProvider())
	}

	return agent.New(gen, ruleBased, cfg.GetLLMTimeout(), log), nil
}
