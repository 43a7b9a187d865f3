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

// ExecRequest is one sandboxed execution call.
type ExecRequest struct {
	Code     string   `json:"code"`
	Language string   `json:"language"`
	Packages []string `json:"packages,omitempty"`
}

// ExecResult is the sandbox's captured outcome.
type ExecResult struct {
	Output  []string `json:"output"`
	Errors  []string `json:"errors"`
	Success bool     `json:"success"`
	Files   []string `json:"files,omitempty"`
}

// Sandbox is a client for the remote sandboxed execution service. The
// pipeline treats it as one opaque stage: requests go out, results or errors
// come back, nothing else is assumed about it.
type Sandbox struct {
	endpoint string
	client   *http.Client
}

// NewSandbox builds a client for the sandbox service at the given base URL.
func NewSandbox(endpoint string) *Sandbox {
	return &Sandbox{
		endpoint: strings.TrimRight(endpoint, "/"),
		client:   &http.Client{Timeout: 60 * time.Second},
	}
}

// Install asks the sandbox to install the named packages ahead of execution.
func (s *Sandbox) Install(ctx context.Context, packages []string) error {
	if len(packages) == 0 {
		return nil
	}
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Sandbox install requested.", "packages", packages)

	var result struct {
		Success bool   `json:"success"`
		Error   string `json:"error,omitempty"`
	}
	if err := s.post(ctx, "/install", map[string]any{"packages": packages}, &result); err != nil {
		return err
	}
	if !result.Success {
		return fmt.Errorf("sandbox package install failed: %s", result.Error)
	}
	return nil
}

// Execute runs source code in the sandbox and returns its captured output.
func (s *Sandbox) Execute(ctx context.Context, req ExecRequest) (*ExecResult, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Sandbox execution requested.", "language", req.Language, "packages", len(req.Packages))

	var result ExecResult
	if err := s.post(ctx, "/execute", req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (s *Sandbox) post(ctx context.Context, path string, payload any, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode sandbox request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create sandbox request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(httpReq)
	if err != nil {
		return fmt.Errorf("sandbox request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("sandbox returned status %s: %s", resp.Status, strings.TrimSpace(string(msg)))
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode sandbox response: %w", err)
	}
	return nil
}
