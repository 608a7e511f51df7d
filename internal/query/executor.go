package query

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/clipquery/clipquery/internal/observability"
	"github.com/clipquery/clipquery/internal/store"
)

// ErrServiceUnavailable means the statement never reached the database.
var ErrServiceUnavailable = errors.New("database service unavailable")

// ExecutionError carries the database's message for a failed statement.
type ExecutionError struct {
	Message string
	Err     error
}

func (e *ExecutionError) Error() string {
	return e.Message
}

func (e *ExecutionError) Unwrap() error {
	return e.Err
}

// Pool is the borrow side of the connection pool.
type Pool interface {
	Acquire(ctx context.Context) (store.Conn, error)
}

type Result struct {
	Value    int64
	Null     bool
	Duration time.Duration
}

type Executor struct {
	pool   Pool
	logger *slog.Logger
}

func NewExecutor(pool Pool, logger *slog.Logger) *Executor {
	if logger == nil {
		logger = observability.NopLogger()
	}
	return &Executor{pool: pool, logger: logger}
}

// Execute runs sqlText on one borrowed connection and returns the first
// column of the first row as an integer. NULL and empty results yield 0.
// The connection goes back to the pool exactly once on every path.
func (e *Executor) Execute(ctx context.Context, sqlText string) (result Result, err error) {
	if e == nil || e.pool == nil {
		return Result{}, ErrServiceUnavailable
	}
	logger := observability.WithTrace(ctx, e.logger)

	conn, err := e.pool.Acquire(ctx)
	if err != nil {
		logger.Error("failed to borrow database connection", slog.Any("error", err))
		return Result{}, fmt.Errorf("%w: %v", ErrServiceUnavailable, err)
	}
	defer func() {
		if closeErr := conn.Close(); closeErr != nil {
			logger.Warn("failed to release database connection", slog.Any("error", closeErr))
		}
	}()

	started := time.Now()
	defer func() {
		if recovered := recover(); recovered != nil {
			logger.Error("sql execution panicked", slog.Any("panic", recovered))
			result = Result{}
			err = &ExecutionError{Message: fmt.Sprintf("execution panic: %v", recovered)}
		}
		if err == nil {
			result.Duration = time.Since(started)
			observability.ObserveExecution(result.Duration)
		}
	}()

	// The statement is bounded by the server-side statement timeout, not by
	// the caller's context.
	execCtx := context.WithoutCancel(ctx)
	value, null, err := queryScalar(execCtx, conn, sqlText)
	if err != nil {
		logger.Error("sql execution failed", slog.String("sql", sqlText), slog.Any("error", err))
		return Result{}, err
	}
	if null {
		observability.IncrementNullResult()
		logger.Warn("sql returned no value, using 0", slog.String("sql", sqlText))
		return Result{Value: 0, Null: true}, nil
	}
	logger.Info("sql executed", slog.String("sql", sqlText), slog.Int64("result", value))
	return Result{Value: value}, nil
}

func queryScalar(ctx context.Context, conn store.Conn, sqlText string) (int64, bool, error) {
	rows, err := conn.QueryContext(ctx, sqlText)
	if err != nil {
		return 0, false, &ExecutionError{Message: err.Error(), Err: err}
	}
	defer func() { _ = rows.Close() }()

	columns, err := rows.Columns()
	if err != nil {
		return 0, false, &ExecutionError{Message: err.Error(), Err: err}
	}
	if len(columns) == 0 {
		return 0, false, &ExecutionError{Message: "statement returned no columns"}
	}

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return 0, false, &ExecutionError{Message: err.Error(), Err: err}
		}
		return 0, true, nil
	}

	values := make([]any, len(columns))
	scanTargets := make([]any, len(columns))
	for i := range values {
		scanTargets[i] = &values[i]
	}
	if err := rows.Scan(scanTargets...); err != nil {
		return 0, false, &ExecutionError{Message: err.Error(), Err: err}
	}
	if values[0] == nil {
		return 0, true, nil
	}
	value, err := coerceInteger(values[0])
	if err != nil {
		return 0, false, &ExecutionError{Message: err.Error(), Err: err}
	}
	return value, false, nil
}
