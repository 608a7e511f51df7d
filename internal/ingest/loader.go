package ingest

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/clipquery/clipquery/internal/observability"
)

type Loader struct {
	Sink   Sink
	Logger *slog.Logger
}

// Run decodes a dataset from r and hands it to the sink. Nothing is written
// when decoding fails.
func (l *Loader) Run(ctx context.Context, r io.Reader) (Summary, error) {
	logger := l.Logger
	if logger == nil {
		logger = observability.NopLogger()
	}
	if l.Sink == nil {
		return Summary{}, fmt.Errorf("loader sink is required")
	}

	dataset, err := Decode(r, logger)
	if err != nil {
		logger.Error("dataset rejected", slog.Any("error", err))
		return Summary{}, err
	}
	logger.Info("dataset decoded",
		slog.Int("videos", len(dataset.Videos)),
		slog.Int("snapshots", dataset.SnapshotCount()),
	)
	return l.Sink.Load(ctx, dataset)
}
