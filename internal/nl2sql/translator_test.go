package nl2sql

import (
	"testing"

	"github.com/clipquery/clipquery/internal/config"
)

func TestNewTranslatorSelectsProvider(t *testing.T) {
	translator, err := NewTranslator(config.AIConfig{Provider: config.ProviderGemini, APIKey: "k"})
	if err != nil {
		t.Fatalf("NewTranslator(gemini) error = %v", err)
	}
	gemini, ok := translator.(*GeminiTranslator)
	if !ok {
		t.Fatalf("expected *GeminiTranslator, got %T", translator)
	}
	if gemini.baseURL != "https://generativelanguage.googleapis.com" || gemini.model != "gemini-2.5-flash" {
		t.Fatalf("unexpected gemini defaults: %s %s", gemini.baseURL, gemini.model)
	}

	translator, err = NewTranslator(config.AIConfig{Provider: config.ProviderOpenAI, APIKey: "k", BaseURL: "http://llm.local", Model: "local"})
	if err != nil {
		t.Fatalf("NewTranslator(openai) error = %v", err)
	}
	openai, ok := translator.(*OpenAITranslator)
	if !ok {
		t.Fatalf("expected *OpenAITranslator, got %T", translator)
	}
	if openai.baseURL != "http://llm.local" || openai.model != "local" {
		t.Fatalf("unexpected openai settings: %s %s", openai.baseURL, openai.model)
	}
}

func TestNewTranslatorWithoutKeyReturnsNil(t *testing.T) {
	translator, err := NewTranslator(config.AIConfig{Provider: config.ProviderGemini})
	if err != nil {
		t.Fatalf("NewTranslator() error = %v", err)
	}
	if translator != nil {
		t.Fatalf("expected nil translator, got %T", translator)
	}
}

func TestNewTranslatorUnknownProvider(t *testing.T) {
	if _, err := NewTranslator(config.AIConfig{Provider: "cohere", APIKey: "k"}); err == nil {
		t.Fatalf("expected error for unknown provider")
	}
}
