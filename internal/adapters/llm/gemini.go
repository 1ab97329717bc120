package llm

import (
	"context"
	"fmt"

	"google.golang.org/genai"

	"github.com/PabloGalante/sweep-agent/internal/domain"
)

const DefaultModel = "gemini-2.0-flash"

type Backend string

const (
	BackendGemini Backend = "gemini" // Gemini Developer API, API key auth
	BackendVertex Backend = "vertex" // Vertex AI, ADC auth
)

// GeminiConfig selects the backend and model. APIKey is required for the
// gemini backend, Project and Location for vertex.
type GeminiConfig struct {
	Backend  Backend
	APIKey   string
	Project  string
	Location string
	Model    string

	// BaseURL overrides the API endpoint (proxies, tests).
	BaseURL string
}

type GeminiClient struct {
	client    *genai.Client
	modelName string
}

// NewGeminiClient creates a domain.LLMClient backed by Gemini.
func NewGeminiClient(ctx context.Context, cfg GeminiConfig) (*GeminiClient, error) {
	cc := &genai.ClientConfig{
		HTTPOptions: genai.HTTPOptions{BaseURL: cfg.BaseURL},
	}

	switch cfg.Backend {
	case BackendVertex:
		if cfg.Project == "" || cfg.Location == "" {
			return nil, fmt.Errorf("project and location are required for the vertex backend")
		}
		cc.Backend = genai.BackendVertexAI
		cc.Project = cfg.Project
		cc.Location = cfg.Location
	case BackendGemini, "":
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("an API key is required for the gemini backend")
		}
		cc.Backend = genai.BackendGeminiAPI
		cc.APIKey = cfg.APIKey
	default:
		return nil, fmt.Errorf("unknown llm backend %q", cfg.Backend)
	}

	modelName := cfg.Model
	if modelName == "" {
		modelName = DefaultModel
	}

	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("creating genai client: %w", err)
	}

	return &GeminiClient{
		client:    client,
		modelName: modelName,
	}, nil
}

// GenerateReply sends the assembled prompt as a single user content.
func (g *GeminiClient) GenerateReply(
	ctx context.Context,
	prompt string,
	params domain.GenerationParams,
) (string, error) {
	temp := params.Temperature

	cfg := &genai.GenerateContentConfig{
		Temperature:     &temp,
		MaxOutputTokens: params.MaxOutputTokens,
	}

	res, err := g.client.Models.GenerateContent(ctx, g.modelName, genai.Text(prompt), cfg)
	if err != nil {
		return "", fmt.Errorf("gemini generate content: %w", err)
	}

	text := res.Text()
	if text == "" {
		return "", fmt.Errorf("gemini returned empty text")
	}

	return text, nil
}
