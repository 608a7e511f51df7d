package ingest

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/stdlib"

	"github.com/clipquery/clipquery/internal/observability"
	"github.com/clipquery/clipquery/internal/schema"
)

var (
	videoColumns = []string{
		"id", "creator_id", "video_created_at",
		"views_count", "likes_count", "comments_count", "reports_count",
	}
	snapshotColumns = []string{
		"video_id", "created_at",
		"views_count", "delta_views_count",
		"likes_count", "delta_likes_count",
		"comments_count", "delta_comments_count",
		"reports_count", "delta_reports_count",
	}
)

type Summary struct {
	Videos    int64 `json:"videos"`
	Snapshots int64 `json:"snapshots"`
}

// Sink persists a decoded dataset.
type Sink interface {
	Load(ctx context.Context, dataset Dataset) (Summary, error)
}

type copier interface {
	CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error)
	Exec(ctx context.Context, query string, arguments ...any) (pgconn.CommandTag, error)
}

// PostgresSink bulk-loads with COPY inside one transaction, videos first so
// every snapshot's video reference exists.
type PostgresSink struct {
	DB *sql.DB
	// Replace empties both tables before loading.
	Replace bool
	Logger  *slog.Logger
}

func (s *PostgresSink) Load(ctx context.Context, dataset Dataset) (Summary, error) {
	if s == nil || s.DB == nil {
		return Summary{}, errors.New("postgres sink requires a database")
	}
	conn, err := s.DB.Conn(ctx)
	if err != nil {
		return Summary{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer func() { _ = conn.Close() }()

	var summary Summary
	err = conn.Raw(func(driverConn any) error {
		stdConn, ok := driverConn.(*stdlib.Conn)
		if !ok {
			return fmt.Errorf("postgres sink requires the pgx driver, got %T", driverConn)
		}
		tx, err := stdConn.Conn().Begin(ctx)
		if err != nil {
			return fmt.Errorf("begin load transaction: %w", err)
		}
		defer func() { _ = tx.Rollback(ctx) }()

		summary, err = copyDataset(ctx, tx, dataset, s.Replace)
		if err != nil {
			return err
		}
		if err := tx.Commit(ctx); err != nil {
			return fmt.Errorf("commit load transaction: %w", err)
		}
		return nil
	})
	if err != nil {
		return Summary{}, err
	}

	logger := s.Logger
	if logger == nil {
		logger = observability.NopLogger()
	}
	logger.Info("dataset loaded",
		slog.Int64("videos", summary.Videos),
		slog.Int64("snapshots", summary.Snapshots),
	)
	return summary, nil
}

func copyDataset(ctx context.Context, tx copier, dataset Dataset, replace bool) (Summary, error) {
	if replace {
		truncate := fmt.Sprintf("TRUNCATE TABLE %s, %s",
			pgx.Identifier{schema.SnapshotsTable}.Sanitize(),
			pgx.Identifier{schema.VideosTable}.Sanitize(),
		)
		if _, err := tx.Exec(ctx, truncate); err != nil {
			return Summary{}, fmt.Errorf("truncate tables: %w", err)
		}
	}

	videoRows := make([][]any, 0, len(dataset.Videos))
	snapshotRows := make([][]any, 0, dataset.SnapshotCount())
	for _, video := range dataset.Videos {
		videoRows = append(videoRows, []any{
			video.ID, video.CreatorID, video.CreatedAt,
			video.ViewsCount, video.LikesCount, video.CommentsCount, video.ReportsCount,
		})
		for _, snapshot := range video.Snapshots {
			snapshotRows = append(snapshotRows, []any{
				video.ID, snapshot.CreatedAt,
				snapshot.ViewsCount, snapshot.DeltaViewsCount,
				snapshot.LikesCount, snapshot.DeltaLikesCount,
				snapshot.CommentsCount, snapshot.DeltaCommentsCount,
				snapshot.ReportsCount, snapshot.DeltaReportsCount,
			})
		}
	}

	videos, err := tx.CopyFrom(ctx, pgx.Identifier{schema.VideosTable}, videoColumns, pgx.CopyFromRows(videoRows))
	if err != nil {
		return Summary{}, fmt.Errorf("copy %s: %w", schema.VideosTable, err)
	}
	observability.AddIngestRows(schema.VideosTable, videos)

	snapshots, err := tx.CopyFrom(ctx, pgx.Identifier{schema.SnapshotsTable}, snapshotColumns, pgx.CopyFromRows(snapshotRows))
	if err != nil {
		return Summary{}, fmt.Errorf("copy %s: %w", schema.SnapshotsTable, err)
	}
	observability.AddIngestRows(schema.SnapshotsTable, snapshots)

	return Summary{Videos: videos, Snapshots: snapshots}, nil
}
