// Package openai wraps go-openai for single-shot text completions against
// any OpenAI-compatible endpoint.
package openai

import (
	"context"
	"errors"
	"fmt"
	"strings"

	goopenai "github.com/sashabaranov/go-openai"
)

const defaultModel = goopenai.GPT4oMini

// Config for the completion client.
type Config struct {
	APIKey   string
	BaseURL  string
	Model    string
	JSONMode bool
}

// Client sends a system + user prompt and returns the first choice's text.
type Client struct {
	client   *goopenai.Client
	model    string
	jsonMode bool
}

// New creates a Client. BaseURL is optional.
func New(cfg Config) *Client {
	clientCfg := goopenai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	}
	model := cfg.Model
	if model == "" {
		model = defaultModel
	}
	return &Client{
		client:   goopenai.NewClientWithConfig(clientCfg),
		model:    model,
		jsonMode: cfg.JSONMode,
	}
}

// Name returns the model identifier.
func (c *Client) Name() string { return c.model }

// Complete runs one chat completion.
func (c *Client) Complete(ctx context.Context, system, prompt string) (string, error) {
	messages := make([]goopenai.ChatCompletionMessage, 0, 2)
	if system != "" {
		messages = append(messages, goopenai.ChatCompletionMessage{Role: goopenai.ChatMessageRoleSystem, Content: system})
	}
	messages = append(messages, goopenai.ChatCompletionMessage{Role: goopenai.ChatMessageRoleUser, Content: prompt})

	req := goopenai.ChatCompletionRequest{
		Model:       c.model,
		Messages:    messages,
		Temperature: 0.1,
	}
	if c.jsonMode {
		req.ResponseFormat = &goopenai.ChatCompletionResponseFormat{Type: goopenai.ChatCompletionResponseFormatTypeJSONObject}
	}

	resp, err := c.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", fmt.Errorf("openai completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("openai completion: empty choices")
	}
	return resp.Choices[0].Message.Content, nil
}
