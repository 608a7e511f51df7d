package analytics

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/clipquery/clipquery/internal/nl2sql"
	"github.com/clipquery/clipquery/internal/observability"
	"github.com/clipquery/clipquery/internal/query"
)

// Stage is a step of one Analyze call.
type Stage string

const (
	StageReceived   Stage = "RECEIVED"
	StageGenerating Stage = "GENERATING"
	StageExecuting  Stage = "EXECUTING"
	StageSucceeded  Stage = "SUCCEEDED"
	StageFailed     Stage = "FAILED"
)

const (
	OutcomeSucceeded       = "succeeded"
	OutcomeDegraded        = "degraded"
	OutcomeUnavailable     = "unavailable"
	OutcomeExecutionFailed = "execution_failed"
	OutcomeInvalidQuery    = "invalid_query"
)

var ErrEmptyQuery = errors.New("query text is required")

type Generator interface {
	Generate(ctx context.Context, question string) nl2sql.Generation
}

type Executor interface {
	Execute(ctx context.Context, sqlText string) (query.Result, error)
}

// Availability reports whether the connection pool exists.
type Availability interface {
	Available() bool
}

// Answer is the result of a successful Analyze call.
type Answer struct {
	Result   int64  `json:"result"`
	SQL      string `json:"sql"`
	Degraded bool   `json:"degraded"`
	Null     bool   `json:"null"`
}

type Service struct {
	generator Generator
	executor  Executor
	pool      Availability
	logger    *slog.Logger
}

func NewService(generator Generator, executor Executor, pool Availability, logger *slog.Logger) *Service {
	if logger == nil {
		logger = observability.NopLogger()
	}
	return &Service{generator: generator, executor: executor, pool: pool, logger: logger}
}

// Analyze answers one natural-language question. Generation failures degrade
// to the fallback statement; execution failures are returned as
// query.ErrServiceUnavailable or *query.ExecutionError. Nothing is retried.
func (s *Service) Analyze(ctx context.Context, text string) (Answer, error) {
	logger := observability.WithTrace(ctx, s.logger)
	question := strings.TrimSpace(text)
	logger.Info("analyze request", slog.String("stage", string(StageReceived)), slog.Int("length", len(question)))

	if question == "" {
		s.fail(logger, OutcomeInvalidQuery, ErrEmptyQuery)
		return Answer{}, ErrEmptyQuery
	}
	// Without a pool the request can never succeed; skip the provider call.
	if s.pool != nil && !s.pool.Available() {
		s.fail(logger, OutcomeUnavailable, query.ErrServiceUnavailable)
		return Answer{}, query.ErrServiceUnavailable
	}

	logger.Debug("analyze request", slog.String("stage", string(StageGenerating)))
	generation := s.generator.Generate(ctx, question)
	if generation.Fallback {
		logger.Warn("analyze running in degraded mode",
			slog.String("reason", generation.Reason),
			slog.String("sql", generation.SQL),
		)
	}

	logger.Debug("analyze request", slog.String("stage", string(StageExecuting)), slog.String("sql", generation.SQL))
	result, err := s.executor.Execute(ctx, generation.SQL)
	if err != nil {
		outcome := OutcomeExecutionFailed
		if errors.Is(err, query.ErrServiceUnavailable) {
			outcome = OutcomeUnavailable
		}
		s.fail(logger, outcome, err)
		return Answer{}, err
	}

	outcome := OutcomeSucceeded
	if generation.Fallback {
		outcome = OutcomeDegraded
	}
	observability.ObserveAnalyze(outcome)
	logger.Info("analyze request",
		slog.String("stage", string(StageSucceeded)),
		slog.Int64("result", result.Value),
		slog.Bool("degraded", generation.Fallback),
	)
	return Answer{
		Result:   result.Value,
		SQL:      generation.SQL,
		Degraded: generation.Fallback,
		Null:     result.Null,
	}, nil
}

func (s *Service) fail(logger *slog.Logger, outcome string, err error) {
	observability.ObserveAnalyze(outcome)
	logger.Error("analyze request",
		slog.String("stage", string(StageFailed)),
		slog.String("outcome", outcome),
		slog.Any("error", err),
	)
}
