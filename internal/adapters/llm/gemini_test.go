package llm

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PabloGalante/sweep-agent/internal/domain"
)

type generateRequest struct {
	Contents []struct {
		Role  string `json:"role"`
		Parts []struct {
			Text string `json:"text"`
		} `json:"parts"`
	} `json:"contents"`
	GenerationConfig struct {
		Temperature     float64 `json:"temperature"`
		MaxOutputTokens int     `json:"maxOutputTokens"`
	} `json:"generationConfig"`
}

func newFakeGemini(t *testing.T, handler http.HandlerFunc) *GeminiClient {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client, err := NewGeminiClient(context.Background(), GeminiConfig{
		Backend: BackendGemini,
		APIKey:  "test-key",
		BaseURL: srv.URL,
	})
	require.NoError(t, err)
	return client
}

func TestGeminiGenerateReply(t *testing.T) {
	var got generateRequest
	var path string

	client := newFakeGemini(t, func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &got)

		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"candidates":[{"content":{"role":"model","parts":[{"text":"Dust first, then vacuum."}]}}]}`)
	})

	reply, err := client.GenerateReply(context.Background(), "User: how?\n\nAI: ", domain.GenerationParams{
		Temperature:     0.7,
		MaxOutputTokens: 1024,
	})
	require.NoError(t, err)
	assert.Equal(t, "Dust first, then vacuum.", reply)

	assert.True(t, strings.HasSuffix(path, "models/"+DefaultModel+":generateContent"), path)
	require.Len(t, got.Contents, 1)
	require.Len(t, got.Contents[0].Parts, 1)
	assert.Equal(t, "User: how?\n\nAI: ", got.Contents[0].Parts[0].Text)
	assert.InDelta(t, 0.7, got.GenerationConfig.Temperature, 1e-6)
	assert.Equal(t, 1024, got.GenerationConfig.MaxOutputTokens)
}

func TestGeminiUpstreamFailure(t *testing.T) {
	client := newFakeGemini(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = io.WriteString(w, `{"error":{"code":429,"message":"quota exceeded","status":"RESOURCE_EXHAUSTED"}}`)
	})

	_, err := client.GenerateReply(context.Background(), "hi", domain.GenerationParams{})
	assert.Error(t, err)
}

func TestGeminiEmptyText(t *testing.T) {
	client := newFakeGemini(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"candidates":[]}`)
	})

	_, err := client.GenerateReply(context.Background(), "hi", domain.GenerationParams{})
	assert.Error(t, err)
}

func TestNewGeminiClientValidation(t *testing.T) {
	ctx := context.Background()

	_, err := NewGeminiClient(ctx, GeminiConfig{Backend: BackendGemini})
	assert.Error(t, err)

	_, err = NewGeminiClient(ctx, GeminiConfig{Backend: BackendVertex, Project: "p"})
	assert.Error(t, err)

	_, err = NewGeminiClient(ctx, GeminiConfig{Backend: "openai", APIKey: "k"})
	assert.Error(t, err)
}

func TestMockLLMEchoesLastUserMessage(t *testing.T) {
	prompt := "system\n\nUser: old\n\nAI: answer\n\nUser: how do I clean grout?\n\nAI: "

	reply, err := NewMockLLM().GenerateReply(context.Background(), prompt, domain.GenerationParams{})
	require.NoError(t, err)
	assert.Contains(t, reply, `"how do I clean grout?"`)
}
