package services

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenAIGenerator_Generate(t *testing.T) {
	var gotAuth string
	var gotBody chatRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/chat/completions", r.URL.Path)
		gotAuth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]any{"role": "assistant", "content": "```html\n<p>hi</p>\n```"}},
			},
		})
	}))
	defer server.Close()

	g := NewOpenAIGenerator(server.URL, "gpt-4o-mini", "secret")
	text, err := g.Generate(context.Background(), Request{Prompt: "make a page", System: "be brief"})
	require.NoError(t, err)

	assert.Equal(t, "```html\n<p>hi</p>\n```", text)
	assert.Equal(t, "Bearer secret", gotAuth)
	assert.Equal(t, "gpt-4o-mini", gotBody.Model)
	require.Len(t, gotBody.Messages, 2)
	assert.Equal(t, "system", gotBody.Messages[0].Role)
	assert.Equal(t, "make a page", gotBody.Messages[1].Content)
}

func TestOpenAIGenerator_ProviderErrorSurfacedVerbatim(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]any{"message": "rate limit exceeded"},
		})
	}))
	defer server.Close()

	g := NewOpenAIGenerator(server.URL, "gpt-4o-mini", "secret")
	_, err := g.Generate(context.Background(), Request{Prompt: "anything"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rate limit exceeded")
}

func TestSandbox_InstallAndExecute(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/install":
			var req struct {
				Packages []string `json:"packages"`
			}
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			assert.Equal(t, []string{"axios", "dayjs"}, req.Packages)
			json.NewEncoder(w).Encode(map[string]any{"success": true})
		case "/execute":
			json.NewEncoder(w).Encode(ExecResult{
				Output:  []string{"hello"},
				Success: true,
				Files:   []string{"index.js"},
			})
		default:
			t.Fatalf("unexpected path %q", r.URL.Path)
		}
	}))
	defer server.Close()

	s := NewSandbox(server.URL)
	require.NoError(t, s.Install(context.Background(), []string{"axios", "dayjs"}))

	result, err := s.Execute(context.Background(), ExecRequest{Code: "console.log('hello')", Language: "javascript"})
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, []string{"hello"}, result.Output)
}

func TestSandbox_InstallNothingIsANoop(t *testing.T) {
	s := NewSandbox("http://127.0.0.1:1") // unreachable on purpose
	assert.NoError(t, s.Install(context.Background(), nil))
}

func TestSandbox_InstallFailureReported(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"success": false, "error": "registry unreachable"})
	}))
	defer server.Close()

	s := NewSandbox(server.URL)
	err := s.Install(context.Background(), []string{"axios"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "registry unreachable")
}

func TestRenderer_Render(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/render", r.URL.Path)
		var req RenderRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Contains(t, req.Source, "App")
		json.NewEncoder(w).Encode(map[string]any{"document": "<!DOCTYPE html><html></html>"})
	}))
	defer server.Close()

	r := NewRenderer(server.URL)
	doc, err := r.Render(context.Background(), RenderRequest{
		Source: "export default function App() {}",
		Props:  map[string]any{"title": "demo"},
	})
	require.NoError(t, err)
	assert.Equal(t, "<!DOCTYPE html><html></html>", doc)
}

func TestRenderer_RenderErrorPropagates(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"error": "component threw during render"})
	}))
	defer server.Close()

	r := NewRenderer(server.URL)
	_, err := r.Render(context.Background(), RenderRequest{Source: "broken"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "component threw during render")
}
