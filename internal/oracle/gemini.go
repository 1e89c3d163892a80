package oracle

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

// GeminiConfig configures the hosted provider.
type GeminiConfig struct {
	// APIKey authenticates against the Gemini API.
	APIKey string

	// Model is the model name to use.
	Model string

	// Temperature for completions.
	Temperature float32
}

// DefaultGeminiConfig returns defaults for the hosted model. The API
// key must be supplied by the caller.
func DefaultGeminiConfig() *GeminiConfig {
	return &GeminiConfig{
		Model:       "gemini-2.5-flash",
		Temperature: 0.2,
	}
}

// Gemini is the hosted oracle provider.
type Gemini struct {
	client *genai.Client
	config *GeminiConfig
}

// NewGemini creates the hosted provider. The API key is required.
func NewGemini(ctx context.Context, config *GeminiConfig) (*Gemini, error) {
	if config == nil {
		config = DefaultGeminiConfig()
	}
	if config.APIKey == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}
	if config.Model == "" {
		config.Model = DefaultGeminiConfig().Model
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey: config.APIKey,
	})
	if err != nil {
		return nil, fmt.Errorf("creating gemini client: %w", err)
	}

	return &Gemini{client: client, config: config}, nil
}

// Complete implements Oracle. System messages become the system
// instruction; everything else is sent as user content.
func (g *Gemini) Complete(ctx context.Context, messages []Message) (string, error) {
	var system []string
	var contents []*genai.Content
	for _, m := range messages {
		if m.Role == RoleSystem {
			system = append(system, m.Content)
			continue
		}
		contents = append(contents, genai.NewContentFromText(m.Content, genai.RoleUser))
	}

	cfg := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(g.config.Temperature),
	}
	if len(system) > 0 {
		cfg.SystemInstruction = genai.NewContentFromText(strings.Join(system, "\n\n"), genai.RoleUser)
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.config.Model, contents, cfg)
	if err != nil {
		return "", fmt.Errorf("gemini generate failed: %w", err)
	}

	text := resp.Text()
	if text == "" {
		return "", fmt.Errorf("gemini returned an empty response")
	}
	return text, nil
}

// IsAvailable reports whether the provider is configured. The hosted
// API has no liveness probe worth spending quota on.
func (g *Gemini) IsAvailable(_ context.Context) bool {
	return g.client != nil
}
