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

// RenderRequest asks the render service for a self-contained document built
// from component source and a property bag.
type RenderRequest struct {
	Source string         `json:"source"`
	Props  map[string]any `json:"props,omitempty"`
}

// Renderer is a client for the remote server-side rendering service.
type Renderer struct {
	endpoint string
	client   *http.Client
}

// NewRenderer builds a client for the render service at the given base URL.
func NewRenderer(endpoint string) *Renderer {
	return &Renderer{
		endpoint: strings.TrimRight(endpoint, "/"),
		client:   &http.Client{Timeout: 60 * time.Second},
	}
}

// Render returns the rendered, self-contained document for the given source.
func (r *Renderer) Render(ctx context.Context, req RenderRequest) (string, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Render requested.", "sourceBytes", len(req.Source))

	body, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("failed to encode render request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, r.endpoint+"/render", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create render request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := r.client.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("render request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", fmt.Errorf("renderer returned status %s: %s", resp.Status, strings.TrimSpace(string(msg)))
	}

	var decoded struct {
		Document string `json:"document"`
		Error    string `json:"error,omitempty"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return "", fmt.Errorf("failed to decode render response: %w", err)
	}
	if decoded.Error != "" {
		return "", fmt.Errorf("rendering error: %s", decoded.Error)
	}
	return decoded.Document, nil
}
