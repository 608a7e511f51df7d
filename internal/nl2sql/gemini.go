package nl2sql

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const providerGemini = "gemini"

type GeminiConfig struct {
	BaseURL     string
	APIKey      string
	Model       string
	Temperature float64
	Timeout     time.Duration
}

// GeminiTranslator calls the Generative Language generateContent endpoint.
type GeminiTranslator struct {
	baseURL     string
	apiKey      string
	model       string
	temperature float64
	client      *http.Client
}

func NewGeminiTranslator(cfg GeminiConfig) (*GeminiTranslator, error) {
	if strings.TrimSpace(cfg.BaseURL) == "" {
		return nil, fmt.Errorf("base URL is required")
	}
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("api key is required")
	}
	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = "gemini-2.5-flash"
	}
	return &GeminiTranslator{
		baseURL:     strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"),
		apiKey:      strings.TrimSpace(cfg.APIKey),
		model:       model,
		temperature: cfg.Temperature,
		client:      &http.Client{Timeout: timeoutOrDefault(cfg.Timeout)},
	}, nil
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

func (t *GeminiTranslator) Translate(ctx context.Context, req Request) (Result, error) {
	payload := map[string]any{
		"systemInstruction": geminiContent{Parts: []geminiPart{{Text: buildSystemPrompt(req.Schema)}}},
		"contents": []geminiContent{
			{Role: "user", Parts: []geminiPart{{Text: buildUserPrompt(req)}}},
		},
		"generationConfig": map[string]any{
			"temperature":    t.temperature,
			"candidateCount": 1,
		},
	}
	endpoint := t.baseURL + "/v1beta/models/" + url.PathEscape(t.model) + ":generateContent"
	rawRespBody, err := postJSON(ctx, t.client, endpoint, map[string]string{
		"x-goog-api-key": t.apiKey,
	}, payload)
	if err != nil {
		return Result{}, fmt.Errorf("generate content: %w", err)
	}

	var parsed struct {
		Candidates []struct {
			Content      geminiContent `json:"content"`
			FinishReason string        `json:"finishReason"`
		} `json:"candidates"`
		PromptFeedback struct {
			BlockReason string `json:"blockReason"`
		} `json:"promptFeedback"`
	}
	if err := json.Unmarshal(rawRespBody, &parsed); err != nil {
		return Result{}, fmt.Errorf("decode generate content response: %w", err)
	}
	if parsed.PromptFeedback.BlockReason != "" {
		return Result{}, fmt.Errorf("prompt blocked: %s", parsed.PromptFeedback.BlockReason)
	}
	if len(parsed.Candidates) == 0 {
		return Result{}, fmt.Errorf("empty generate content candidates")
	}

	var text strings.Builder
	for _, part := range parsed.Candidates[0].Content.Parts {
		text.WriteString(part.Text)
	}
	sql := stripMarkdownSQL(text.String())
	if sql == "" {
		return Result{}, ErrEmptyStatement
	}
	return Result{
		SQL:      sql,
		Provider: providerGemini,
		Model:    t.model,
	}, nil
}
