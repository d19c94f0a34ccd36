// Package ai adapts the Gemini generative model API to ports.Backend.
package ai

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"google.golang.org/genai"

	"github.com/doeshing/puremath/internal/domain"
	"github.com/doeshing/puremath/internal/ports"
)

const backendName = "gemini"

// GeminiBackend sends prompts to a Gemini model with a fixed generation
// configuration and all content filters disabled.
type GeminiBackend struct {
	client *genai.Client
	model  string
	config *genai.GenerateContentConfig
}

// Option customizes the underlying client.
type Option func(*genai.ClientConfig)

// WithHTTPClient routes requests through client.
func WithHTTPClient(client *http.Client) Option {
	return func(cfg *genai.ClientConfig) {
		cfg.HTTPClient = client
	}
}

// WithBaseURL points the client at a different API host.
func WithBaseURL(url string) Option {
	return func(cfg *genai.ClientConfig) {
		cfg.HTTPOptions.BaseURL = url
	}
}

// NewGeminiBackend creates a backend for settings using apiKey.
func NewGeminiBackend(ctx context.Context, apiKey string, settings domain.ModelSettings, opts ...Option) (*GeminiBackend, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("%w: model API key", domain.ErrMissingSecret)
	}

	clientCfg := &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	}
	for _, opt := range opts {
		opt(clientCfg)
	}

	client, err := genai.NewClient(ctx, clientCfg)
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}

	model := settings.Name
	if model == "" {
		model = domain.DefaultModelName
	}

	return &GeminiBackend{
		client: client,
		model:  model,
		config: generationConfig(settings),
	}, nil
}

func generationConfig(settings domain.ModelSettings) *genai.GenerateContentConfig {
	temperature := settings.Temperature
	if temperature == 0 {
		temperature = domain.DefaultTemperature
	}
	topP := settings.TopP
	if topP == 0 {
		topP = domain.DefaultTopP
	}
	topK := settings.TopK
	if topK == 0 {
		topK = domain.DefaultTopK
	}
	maxTokens := settings.MaxOutputTokens
	if maxTokens == 0 {
		maxTokens = domain.DefaultMaxOutputTokens
	}

	return &genai.GenerateContentConfig{
		Temperature:     genai.Ptr(temperature),
		TopP:            genai.Ptr(topP),
		TopK:            genai.Ptr(topK),
		MaxOutputTokens: maxTokens,
		SafetySettings: []*genai.SafetySetting{
			{Category: genai.HarmCategoryHarassment, Threshold: genai.HarmBlockThresholdBlockNone},
			{Category: genai.HarmCategoryHateSpeech, Threshold: genai.HarmBlockThresholdBlockNone},
			{Category: genai.HarmCategorySexuallyExplicit, Threshold: genai.HarmBlockThresholdBlockNone},
			{Category: genai.HarmCategoryDangerousContent, Threshold: genai.HarmBlockThresholdBlockNone},
		},
	}
}

// Name identifies the backend in logs.
func (g *GeminiBackend) Name() string {
	return backendName + "/" + g.model
}

// Generate returns the text of the first candidate. An empty string with a
// nil error means the model answered with no text.
func (g *GeminiBackend) Generate(ctx context.Context, prompt string) (string, error) {
	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), g.config)
	if err != nil {
		return "", fmt.Errorf("gemini generate: %w", err)
	}
	return resp.Text(), nil
}

var _ ports.Backend = (*GeminiBackend)(nil)
