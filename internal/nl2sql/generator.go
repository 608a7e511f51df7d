package nl2sql

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/clipquery/clipquery/internal/observability"
	"github.com/clipquery/clipquery/internal/schema"
)

// FallbackSQL is returned whenever generation cannot produce a usable statement.
// Executing it yields 0.
const FallbackSQL = "SELECT 0;"

const (
	ReasonNoTranslator    = "no_translator"
	ReasonTranslatorError = "translator_error"
	ReasonEmptyResponse   = "empty_response"
	ReasonUnsafeStatement = "unsafe_statement"
	ReasonCanceled        = "canceled"
	ReasonTranslatorPanic = "translator_panic"
)

// Generation is the outcome of one Generate call. SQL is never empty.
type Generation struct {
	SQL      string        `json:"sql"`
	Fallback bool          `json:"fallback"`
	Reason   string        `json:"reason,omitempty"`
	Provider string        `json:"provider,omitempty"`
	Model    string        `json:"model,omitempty"`
	Duration time.Duration `json:"-"`
}

type GeneratorOptions struct {
	// MaxConcurrent bounds in-flight provider calls. Zero means unbounded.
	MaxConcurrent int
	Logger        *slog.Logger
}

type Generator struct {
	translator Translator
	descriptor schema.Descriptor
	sem        *semaphore.Weighted
	logger     *slog.Logger
}

func NewGenerator(translator Translator, descriptor schema.Descriptor, opts GeneratorOptions) *Generator {
	logger := opts.Logger
	if logger == nil {
		logger = observability.NopLogger()
	}
	var sem *semaphore.Weighted
	if opts.MaxConcurrent > 0 {
		sem = semaphore.NewWeighted(int64(opts.MaxConcurrent))
	}
	return &Generator{
		translator: translator,
		descriptor: descriptor,
		sem:        sem,
		logger:     logger,
	}
}

// Generate turns a question into one SQL statement. It never returns an
// error: every failure is reported as a fallback Generation.
func (g *Generator) Generate(ctx context.Context, question string) Generation {
	started := time.Now()
	generation := g.generate(ctx, question)
	generation.Duration = time.Since(started)
	observability.ObserveGeneration(generation.Duration, generation.Reason)
	return generation
}

func (g *Generator) generate(ctx context.Context, question string) Generation {
	if g == nil || g.translator == nil {
		return fallback(ReasonNoTranslator, "", "")
	}
	logger := observability.WithTrace(ctx, g.logger)

	if g.sem != nil {
		if err := g.sem.Acquire(ctx, 1); err != nil {
			logger.Warn("sql generation canceled while waiting for provider slot", slog.Any("error", err))
			return fallback(ReasonCanceled, "", "")
		}
		defer g.sem.Release(1)
	}

	result, err := g.translate(ctx, question)
	if err != nil {
		reason := ReasonTranslatorError
		var panicErr *translatorPanicError
		switch {
		case errors.As(err, &panicErr):
			reason = ReasonTranslatorPanic
		case errors.Is(err, ErrEmptyStatement):
			reason = ReasonEmptyResponse
		case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
			reason = ReasonCanceled
		}
		logger.Error("sql generation failed, using fallback statement", slog.String("reason", reason), slog.Any("error", err))
		return fallback(reason, result.Provider, result.Model)
	}

	sqlText := stripMarkdownSQL(result.SQL)
	if sqlText == "" {
		logger.Warn("sql generation returned empty text, using fallback statement", slog.String("provider", result.Provider))
		return fallback(ReasonEmptyResponse, result.Provider, result.Model)
	}
	if !isSingleReadStatement(sqlText) {
		logger.Warn("sql generation returned a non-read statement, using fallback statement",
			slog.String("provider", result.Provider), slog.String("sql", sqlText))
		return fallback(ReasonUnsafeStatement, result.Provider, result.Model)
	}

	logger.Info("sql generated",
		slog.String("provider", result.Provider),
		slog.String("model", result.Model),
		slog.String("sql", sqlText),
	)
	return Generation{
		SQL:      sqlText,
		Provider: result.Provider,
		Model:    result.Model,
	}
}

type translatorPanicError struct {
	value any
}

func (e *translatorPanicError) Error() string {
	return fmt.Sprintf("translator panic: %v", e.value)
}

func (g *Generator) translate(ctx context.Context, question string) (result Result, err error) {
	defer func() {
		if recovered := recover(); recovered != nil {
			result = Result{}
			err = &translatorPanicError{value: recovered}
		}
	}()
	return g.translator.Translate(ctx, Request{NaturalLanguage: question, Schema: g.descriptor})
}

func fallback(reason, provider, model string) Generation {
	return Generation{
		SQL:      FallbackSQL,
		Fallback: true,
		Reason:   reason,
		Provider: provider,
		Model:    model,
	}
}
