package services

import (
	"context"
	"fmt"

	"github.com/dk/stagecraft/internal/ctxlog"
	"google.golang.org/genai"
)

// GeminiGenerator produces text through the Google GenAI SDK.
type GeminiGenerator struct {
	client *genai.Client
	model  string
}

// NewGeminiGenerator builds a generator backed by the Gemini API.
func NewGeminiGenerator(ctx context.Context, model, apiKey string) (*GeminiGenerator, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey: apiKey,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}
	return &GeminiGenerator{client: client, model: model}, nil
}

// Generate sends the prompt to the configured Gemini model and returns the
// concatenated text of the response.
func (g *GeminiGenerator) Generate(ctx context.Context, req Request) (string, error) {
	logger := ctxlog.FromContext(ctx).With("provider", "gemini", "model", g.model)
	logger.Debug("Generation request started.")

	var config *genai.GenerateContentConfig
	if req.System != "" {
		config = &genai.GenerateContentConfig{
			SystemInstruction: genai.NewContentFromText(req.System, genai.RoleUser),
		}
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(req.Prompt), config)
	if err != nil {
		return "", fmt.Errorf("generation provider error: %w", err)
	}

	text := resp.Text()
	if text == "" {
		return "", fmt.Errorf("generation provider returned an empty response")
	}

	logger.Debug("Generation request finished.", "bytes", len(text))
	return text, nil
}
