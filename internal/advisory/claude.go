package advisory

import (
	"context"
	"errors"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/wonny/zuwa/backend/pkg/config"
)

const defaultClaudeModel = "claude-sonnet-4-20250514"

type claude struct {
	client      anthropic.Client
	model       string
	maxTokens   int64
	temperature float64
}

func newClaude(cfg config.AdvisoryConfig) *claude {
	model := cfg.Model
	if model == "" {
		model = defaultClaudeModel
	}
	maxTokens := int64(cfg.MaxTokens)
	if maxTokens <= 0 {
		maxTokens = 1024
	}
	return &claude{
		client:      anthropic.NewClient(option.WithAPIKey(cfg.AnthropicAPIKey)),
		model:       model,
		maxTokens:   maxTokens,
		temperature: cfg.Temperature,
	}
}

func (c *claude) complete(ctx context.Context, system, prompt string) (string, error) {
	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(c.model),
		MaxTokens: c.maxTokens,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
		System: []anthropic.TextBlockParam{{Text: system}},
	}
	if c.temperature > 0 {
		params.Temperature = anthropic.Float(c.temperature)
	}

	resp, err := c.client.Messages.New(ctx, params)
	if err != nil {
		return "", err
	}

	var out strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			out.WriteString(block.Text)
		}
	}
	if out.Len() == 0 {
		return "", errors.New("empty response")
	}
	return out.String(), nil
}
