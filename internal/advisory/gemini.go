package advisory

import (
	"context"
	"errors"
	"fmt"

	"google.golang.org/genai"

	"github.com/wonny/zuwa/backend/pkg/config"
)

const defaultGeminiModel = "gemini-2.5-flash"

type gemini struct {
	client      *genai.Client
	model       string
	maxTokens   int32
	temperature float32
}

func newGemini(ctx context.Context, cfg config.AdvisoryConfig) (*gemini, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.GeminiAPIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}

	model := cfg.Model
	if model == "" {
		model = defaultGeminiModel
	}
	return &gemini{
		client:      client,
		model:       model,
		maxTokens:   int32(cfg.MaxTokens),
		temperature: float32(cfg.Temperature),
	}, nil
}

// generateConfig leaves temperature and token limit to the model default when unset
func (g *gemini) generateConfig(system string) *genai.GenerateContentConfig {
	gc := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(system, genai.RoleUser),
		ResponseMIMEType:  "application/json",
	}
	if g.temperature > 0 {
		gc.Temperature = genai.Ptr(g.temperature)
	}
	if g.maxTokens > 0 {
		gc.MaxOutputTokens = g.maxTokens
	}
	return gc
}

func (g *gemini) complete(ctx context.Context, system, prompt string) (string, error) {
	gc := g.generateConfig(system)

	contents := []*genai.Content{genai.NewContentFromText(prompt, genai.RoleUser)}
	resp, err := g.client.Models.GenerateContent(ctx, g.model, contents, gc)
	if err != nil {
		return "", err
	}

	text := resp.Text()
	if text == "" {
		return "", errors.New("empty response")
	}
	return text, nil
}
