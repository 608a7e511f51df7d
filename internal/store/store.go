package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/clipquery/clipquery/internal/config"
	"github.com/clipquery/clipquery/internal/observability"
)

// ErrUnavailable reports that no pool exists or no connection could be borrowed.
var ErrUnavailable = errors.New("database pool unavailable")

// Conn is a connection borrowed from the pool. Close returns it to the pool.
type Conn interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	Close() error
}

// Manager owns the process-wide connection pool. A Manager whose
// initialization failed stays usable and reports ErrUnavailable.
type Manager struct {
	db             *sql.DB
	initErr        error
	acquireTimeout time.Duration
	logger         *slog.Logger

	closeOnce sync.Once
	closeErr  error
}

// Open creates the pool described by cfg and verifies it with a ping.
// It never fails: on error the returned Manager has no pool.
func Open(ctx context.Context, cfg config.DatabaseConfig, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = observability.NopLogger()
	}
	db, err := openDB(ctx, cfg)
	if err != nil {
		logger.Error("database pool initialization failed", slog.String("driver", cfg.Driver), slog.Any("error", err))
		return &Manager{initErr: err, logger: logger}
	}
	if err := observability.RegisterDBStats(db, cfg.Driver); err != nil {
		logger.Warn("failed to register pool metrics", slog.Any("error", err))
	}
	logger.Info("database pool ready",
		slog.String("driver", cfg.Driver),
		slog.Int("max_open_conns", cfg.MaxOpenConns),
	)
	return &Manager{db: db, acquireTimeout: cfg.AcquireTimeout, logger: logger}
}

// NewManager wraps an existing pool. A nil db yields an unavailable Manager.
func NewManager(db *sql.DB, acquireTimeout time.Duration, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = observability.NopLogger()
	}
	m := &Manager{db: db, acquireTimeout: acquireTimeout, logger: logger}
	if db == nil {
		m.initErr = ErrUnavailable
	}
	return m
}

// Available reports whether the pool was initialized.
func (m *Manager) Available() bool {
	return m != nil && m.db != nil
}

// Err returns the initialization error, if any.
func (m *Manager) Err() error {
	if m == nil {
		return ErrUnavailable
	}
	return m.initErr
}

// DB exposes the underlying pool for migrations and loaders. It is nil when
// the pool is unavailable.
func (m *Manager) DB() *sql.DB {
	if m == nil {
		return nil
	}
	return m.db
}

// Acquire borrows one connection. The acquire timeout bounds only the wait
// for a free connection; the returned Conn is not tied to ctx.
func (m *Manager) Acquire(ctx context.Context) (Conn, error) {
	if !m.Available() {
		return nil, ErrUnavailable
	}
	acquireCtx := ctx
	if m.acquireTimeout > 0 {
		var cancel context.CancelFunc
		acquireCtx, cancel = context.WithTimeout(ctx, m.acquireTimeout)
		defer cancel()
	}
	conn, err := m.db.Conn(acquireCtx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return conn, nil
}

// Ping checks that a connection can be established.
func (m *Manager) Ping(ctx context.Context) error {
	if !m.Available() {
		if m != nil && m.initErr != nil {
			return fmt.Errorf("%w: %v", ErrUnavailable, m.initErr)
		}
		return ErrUnavailable
	}
	return m.db.PingContext(ctx)
}

// Close shuts the pool down. It is safe to call more than once.
func (m *Manager) Close() error {
	if !m.Available() {
		return nil
	}
	m.closeOnce.Do(func() {
		m.closeErr = m.db.Close()
		m.logger.Info("database pool closed")
	})
	return m.closeErr
}
