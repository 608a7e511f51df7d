package nl2sql

import (
	"context"
	"fmt"
	"strings"

	"github.com/clipquery/clipquery/internal/config"
	"github.com/clipquery/clipquery/internal/schema"
)

type Request struct {
	NaturalLanguage string            `json:"natural_language"`
	Schema          schema.Descriptor `json:"schema"`
}

type Result struct {
	SQL      string `json:"sql"`
	Provider string `json:"provider"`
	Model    string `json:"model"`
}

// Translator is the text generation collaborator. Result.SQL may be a bare
// statement or a fenced code block; the Generator strips fences itself.
type Translator interface {
	Translate(ctx context.Context, req Request) (Result, error)
}

// NewTranslator builds the provider client selected by cfg. It returns a nil
// Translator when no provider or API key is configured.
func NewTranslator(cfg config.AIConfig) (Translator, error) {
	if cfg.Provider == "" || strings.TrimSpace(cfg.APIKey) == "" {
		return nil, nil
	}
	baseURL := cfg.BaseURL
	if strings.TrimSpace(baseURL) == "" {
		baseURL = config.DefaultAIBaseURL(cfg.Provider)
	}
	model := cfg.Model
	if strings.TrimSpace(model) == "" {
		model = config.DefaultAIModel(cfg.Provider)
	}

	switch cfg.Provider {
	case config.ProviderGemini:
		return NewGeminiTranslator(GeminiConfig{
			BaseURL:     baseURL,
			APIKey:      cfg.APIKey,
			Model:       model,
			Temperature: cfg.Temperature,
			Timeout:     cfg.Timeout,
		})
	case config.ProviderOpenAI:
		return NewOpenAITranslator(OpenAIConfig{
			BaseURL:     baseURL,
			APIKey:      cfg.APIKey,
			Model:       model,
			Temperature: cfg.Temperature,
			Timeout:     cfg.Timeout,
		})
	default:
		return nil, fmt.Errorf("unsupported ai provider %q", cfg.Provider)
	}
}
