package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/dk/stagecraft/internal/ctxlog"
)

// Request carries one generation call's inputs.
type Request struct {
	Prompt string
	System string
}

// Generator produces free-form text from a prompt. Implementations wrap a
// hosted model provider; errors are surfaced verbatim as the generate
// stage's error.
type Generator interface {
	Generate(ctx context.Context, req Request) (string, error)
}

// OpenAIGenerator calls an OpenAI-compatible chat-completions endpoint.
type OpenAIGenerator struct {
	endpoint string
	model    string
	apiKey   string
	client   *http.Client
}

// NewOpenAIGenerator builds a generator against an OpenAI-compatible API.
// The endpoint is the API base URL, e.g. "https://api.openai.com/v1".
func NewOpenAIGenerator(endpoint, model, apiKey string) *OpenAIGenerator {
	return &OpenAIGenerator{
		endpoint: strings.TrimRight(endpoint, "/"),
		model:    model,
		apiKey:   apiKey,
		client:   &http.Client{Timeout: 120 * time.Second},
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// Generate posts a chat completion and returns the first choice's content.
func (g *OpenAIGenerator) Generate(ctx context.Context, req Request) (string, error) {
	logger := ctxlog.FromContext(ctx).With("provider", "openai", "model", g.model)
	logger.Debug("Generation request started.")

	messages := []chatMessage{}
	if req.System != "" {
		messages = append(messages, chatMessage{Role: "system", Content: req.System})
	}
	messages = append(messages, chatMessage{Role: "user", Content: req.Prompt})

	payload, err := json.Marshal(chatRequest{Model: g.model, Messages: messages})
	if err != nil {
		return "", fmt.Errorf("failed to encode generation request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, g.endpoint+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("failed to create generation request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+g.apiKey)

	resp, err := g.client.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("generation request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read generation response: %w", err)
	}

	var decoded chatResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return "", fmt.Errorf("failed to decode generation response (status %s): %w", resp.Status, err)
	}
	if decoded.Error != nil {
		return "", fmt.Errorf("generation provider error: %s", decoded.Error.Message)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("generation provider returned status %s", resp.Status)
	}
	if len(decoded.Choices) == 0 {
		return "", fmt.Errorf("generation provider returned no choices")
	}

	logger.Debug("Generation request finished.", "bytes", len(decoded.Choices[0].Message.Content))
	return decoded.Choices[0].Message.Content, nil
}
