package oracle

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

// OllamaConfig configures the locally hosted provider.
type OllamaConfig struct {
	// BaseURL is the Ollama API endpoint.
	BaseURL string

	// Model is the model name to use.
	Model string

	// RequestTimeout is the timeout for control-plane requests
	// (availability checks).
	RequestTimeout time.Duration

	// InferenceTimeout is the timeout for completion requests.
	InferenceTimeout time.Duration

	// Temperature for completions. Deck selections are structured JSON,
	// so this stays low.
	Temperature float64
}

// DefaultOllamaConfig returns sensible defaults for a local install.
func DefaultOllamaConfig() *OllamaConfig {
	return &OllamaConfig{
		BaseURL:          "http://localhost:11434",
		Model:            "qwen3:8b",
		RequestTimeout:   30 * time.Second,
		InferenceTimeout: 120 * time.Second,
		Temperature:      0.2,
	}
}

// Ollama is the locally hosted oracle provider. Availability probes are
// cached briefly so repeated IsAvailable calls during one build do not
// hammer the tags endpoint.
type Ollama struct {
	config     *OllamaConfig
	httpClient *http.Client
	log        *zap.Logger

	mu        sync.RWMutex
	available bool
	lastCheck time.Time
}

const availabilityTTL = 30 * time.Second

type ollamaChatRequest struct {
	Model    string         `json:"model"`
	Messages []Message      `json:"messages"`
	Stream   bool           `json:"stream"`
	Options  map[string]any `json:"options,omitempty"`
}

type ollamaChatResponse struct {
	Model   string  `json:"model"`
	Message Message `json:"message"`
	Done    bool    `json:"done"`
}

type ollamaTagsResponse struct {
	Models []struct {
		Name string `json:"name"`
	} `json:"models"`
}

// NewOllama creates the local provider. A nil config uses defaults.
func NewOllama(config *OllamaConfig, log *zap.Logger) *Ollama {
	if config == nil {
		config = DefaultOllamaConfig()
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Ollama{
		config: config,
		httpClient: &http.Client{
			Timeout: config.RequestTimeout,
		},
		log: log,
	}
}

// Complete implements Oracle via the chat endpoint.
func (o *Ollama) Complete(ctx context.Context, messages []Message) (string, error) {
	reqBody := ollamaChatRequest{
		Model:    o.config.Model,
		Messages: messages,
		Stream:   false,
		Options:  map[string]any{"temperature": o.config.Temperature},
	}

	body, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshaling chat request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.config.BaseURL+"/api/chat", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("creating chat request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	// Completions get their own client so the inference timeout applies
	// instead of the control-plane timeout.
	client := &http.Client{Timeout: o.config.InferenceTimeout}
	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("chat request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("chat failed with status %d: %s", resp.StatusCode, string(bodyBytes))
	}

	var chatResp ollamaChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&chatResp); err != nil {
		return "", fmt.Errorf("decoding chat response: %w", err)
	}

	return chatResp.Message.Content, nil
}

// IsAvailable reports whether the server answers and the configured
// model is present. Results are cached for a short window.
func (o *Ollama) IsAvailable(ctx context.Context) bool {
	o.mu.RLock()
	if time.Since(o.lastCheck) < availabilityTTL {
		defer o.mu.RUnlock()
		return o.available
	}
	o.mu.RUnlock()

	available := o.checkAvailability(ctx)

	o.mu.Lock()
	o.available = available
	o.lastCheck = time.Now()
	o.mu.Unlock()

	return available
}

func (o *Ollama) checkAvailability(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, o.config.BaseURL+"/api/tags", nil)
	if err != nil {
		return false
	}

	resp, err := o.httpClient.Do(req)
	if err != nil {
		o.log.Debug("ollama not reachable", zap.String("base_url", o.config.BaseURL), zap.Error(err))
		return false
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return false
	}

	var tags ollamaTagsResponse
	if err := json.NewDecoder(resp.Body).Decode(&tags); err != nil {
		return false
	}

	wantPrefix := strings.Split(o.config.Model, ":")[0]
	for _, m := range tags.Models {
		if strings.HasPrefix(m.Name, wantPrefix) {
			return true
		}
	}

	o.log.Warn("ollama reachable but model not loaded",
		zap.String("model", o.config.Model),
		zap.Int("models_loaded", len(tags.Models)))
	return false
}
