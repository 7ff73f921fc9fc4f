package adapters

import (
	"context"
	"errors"
	"strings"

	"google.golang.org/adk/model"
	"google.golang.org/genai"
)

// LLMTextGenerator drives any ADK model.LLM (the Kimi model in production)
// as a plain prompt-in, text-out generator.
type LLMTextGenerator struct {
	llm         model.LLM
	temperature float32
}

// NewLLMTextGenerator wraps llm with a low temperature for stable verdicts.
func NewLLMTextGenerator(llm model.LLM) *LLMTextGenerator {
	return &LLMTextGenerator{llm: llm, temperature: 0.1}
}

// Generate sends one system + user turn and concatenates the text parts of
// the response.
func (g *LLMTextGenerator) Generate(ctx context.Context, system, prompt string) (string, error) {
	temp := g.temperature
	req := &model.LLMRequest{
		Model: g.llm.Name(),
		Contents: []*genai.Content{
			{Role: "user", Parts: []*genai.Part{{Text: prompt}}},
		},
		Config: &genai.GenerateContentConfig{
			Temperature:       &temp,
			SystemInstruction: &genai.Content{Parts: []*genai.Part{{Text: system}}},
		},
	}

	var sb strings.Builder
	for resp, err := range g.llm.GenerateContent(ctx, req, false) {
		if err != nil {
			return "", err
		}
		if resp == nil || resp.Content == nil {
			continue
		}
		for _, part := range resp.Content.Parts {
			if part != nil {
				sb.WriteString(part.Text)
			}
		}
	}
	if strings.TrimSpace(sb.String()) == "" {
		return "", errors.New("empty model response")
	}
	return sb.String(), nil
}

// completer is the subset of platform/ai/openai.Client used here.
type completer interface {
	Complete(ctx context.Context, system, prompt string) (string, error)
}

// CompletionTextGenerator adapts an OpenAI-compatible completion client.
type CompletionTextGenerator struct {
	client completer
}

// NewCompletionTextGenerator wraps client.
func NewCompletionTextGenerator(client completer) *CompletionTextGenerator {
	return &CompletionTextGenerator{client: client}
}

// Generate forwards to the completion client.
func (g *CompletionTextGenerator) Generate(ctx context.Context, system, prompt string) (string, error) {
	return g.client.Complete(ctx, system, prompt)
}
