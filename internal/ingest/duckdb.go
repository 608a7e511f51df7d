package ingest

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/parquet-go/parquet-go"

	"github.com/clipquery/clipquery/internal/observability"
	"github.com/clipquery/clipquery/internal/schema"
)

var duckDBSchema = []string{
	`CREATE SEQUENCE IF NOT EXISTS video_snapshots_id_seq`,
	`CREATE TABLE IF NOT EXISTS videos (
    id               VARCHAR   PRIMARY KEY,
    creator_id       VARCHAR   NOT NULL,
    video_created_at TIMESTAMP NOT NULL,
    views_count      BIGINT    NOT NULL DEFAULT 0,
    likes_count      BIGINT    NOT NULL DEFAULT 0,
    comments_count   BIGINT    NOT NULL DEFAULT 0,
    reports_count    BIGINT    NOT NULL DEFAULT 0,
    created_at       TIMESTAMP NOT NULL,
    updated_at       TIMESTAMP NOT NULL
)`,
	`CREATE TABLE IF NOT EXISTS video_snapshots (
    id                   BIGINT    PRIMARY KEY DEFAULT nextval('video_snapshots_id_seq'),
    video_id             VARCHAR   NOT NULL REFERENCES videos (id),
    created_at           TIMESTAMP NOT NULL,
    views_count          BIGINT    NOT NULL DEFAULT 0,
    delta_views_count    BIGINT    NOT NULL DEFAULT 0,
    likes_count          BIGINT    NOT NULL DEFAULT 0,
    delta_likes_count    BIGINT    NOT NULL DEFAULT 0,
    comments_count       BIGINT    NOT NULL DEFAULT 0,
    delta_comments_count BIGINT    NOT NULL DEFAULT 0,
    reports_count        BIGINT    NOT NULL DEFAULT 0,
    delta_reports_count  BIGINT    NOT NULL DEFAULT 0
)`,
}

// Reloads drop the tables: DuckDB rejects reinserting a key deleted earlier
// in the same transaction.
var duckDBDropTables = []string{
	`DROP TABLE IF EXISTS video_snapshots`,
	`DROP TABLE IF EXISTS videos`,
}

// parquetVideo and parquetSnapshot carry timestamps as microseconds since
// the epoch so DuckDB reads them back with make_timestamp.
type parquetVideo struct {
	ID             string `parquet:"id"`
	CreatorID      string `parquet:"creator_id"`
	VideoCreatedAt int64  `parquet:"video_created_at_us"`
	ViewsCount     int64  `parquet:"views_count"`
	LikesCount     int64  `parquet:"likes_count"`
	CommentsCount  int64  `parquet:"comments_count"`
	ReportsCount   int64  `parquet:"reports_count"`
	LoadedAt       int64  `parquet:"loaded_at_us"`
}

type parquetSnapshot struct {
	VideoID            string `parquet:"video_id"`
	CreatedAt          int64  `parquet:"created_at_us"`
	ViewsCount         int64  `parquet:"views_count"`
	DeltaViewsCount    int64  `parquet:"delta_views_count"`
	LikesCount         int64  `parquet:"likes_count"`
	DeltaLikesCount    int64  `parquet:"delta_likes_count"`
	CommentsCount      int64  `parquet:"comments_count"`
	DeltaCommentsCount int64  `parquet:"delta_comments_count"`
	ReportsCount       int64  `parquet:"reports_count"`
	DeltaReportsCount  int64  `parquet:"delta_reports_count"`
}

// DuckDBSink loads a dataset into an embedded DuckDB database. The dataset
// is staged as Parquet files and ingested with read_parquet in one
// transaction; the tables are created when missing.
type DuckDBSink struct {
	DB *sql.DB
	// Replace drops and recreates both tables before loading.
	Replace bool
	// StagingDir holds the temporary Parquet files. Empty means os.TempDir.
	StagingDir string
	Logger     *slog.Logger
	now        func() time.Time
}

func (s *DuckDBSink) Load(ctx context.Context, dataset Dataset) (Summary, error) {
	if s == nil || s.DB == nil {
		return Summary{}, errors.New("duckdb sink requires a database")
	}
	now := time.Now
	if s.now != nil {
		now = s.now
	}

	staging, err := os.MkdirTemp(s.StagingDir, "clipquery-load-*")
	if err != nil {
		return Summary{}, fmt.Errorf("create staging dir: %w", err)
	}
	defer func() { _ = os.RemoveAll(staging) }()

	videosPath := filepath.Join(staging, "videos.parquet")
	snapshotsPath := filepath.Join(staging, "video_snapshots.parquet")
	videoBytes, snapshotBytes, err := encodeParquet(dataset, now().UTC())
	if err != nil {
		return Summary{}, err
	}
	if err := os.WriteFile(videosPath, videoBytes, 0o600); err != nil {
		return Summary{}, fmt.Errorf("stage videos: %w", err)
	}
	if err := os.WriteFile(snapshotsPath, snapshotBytes, 0o600); err != nil {
		return Summary{}, fmt.Errorf("stage snapshots: %w", err)
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return Summary{}, fmt.Errorf("begin load transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if s.Replace {
		if err := execAll(ctx, tx, duckDBDropTables); err != nil {
			return Summary{}, fmt.Errorf("drop tables: %w", err)
		}
	}
	if err := execAll(ctx, tx, duckDBSchema); err != nil {
		return Summary{}, fmt.Errorf("ensure tables: %w", err)
	}

	videos, err := insertFromParquet(ctx, tx, fmt.Sprintf(`
INSERT INTO %s (id, creator_id, video_created_at, views_count, likes_count, comments_count, reports_count, created_at, updated_at)
SELECT id, creator_id, make_timestamp(video_created_at_us), views_count, likes_count, comments_count, reports_count,
       make_timestamp(loaded_at_us), make_timestamp(loaded_at_us)
FROM read_parquet(%s)`, schema.VideosTable, quoteString(videosPath)))
	if err != nil {
		return Summary{}, fmt.Errorf("insert %s: %w", schema.VideosTable, err)
	}
	snapshots, err := insertFromParquet(ctx, tx, fmt.Sprintf(`
INSERT INTO %s (video_id, created_at, %s)
SELECT video_id, make_timestamp(created_at_us), %s
FROM read_parquet(%s)`,
		schema.SnapshotsTable,
		strings.Join(snapshotColumns[2:], ", "),
		strings.Join(snapshotColumns[2:], ", "),
		quoteString(snapshotsPath)))
	if err != nil {
		return Summary{}, fmt.Errorf("insert %s: %w", schema.SnapshotsTable, err)
	}
	if err := tx.Commit(); err != nil {
		return Summary{}, fmt.Errorf("commit load transaction: %w", err)
	}
	observability.AddIngestRows(schema.VideosTable, videos)
	observability.AddIngestRows(schema.SnapshotsTable, snapshots)

	logger := s.Logger
	if logger == nil {
		logger = observability.NopLogger()
	}
	logger.Info("dataset loaded",
		slog.String("driver", "duckdb"),
		slog.Int64("videos", videos),
		slog.Int64("snapshots", snapshots),
	)
	return Summary{Videos: videos, Snapshots: snapshots}, nil
}

func execAll(ctx context.Context, tx *sql.Tx, statements []string) error {
	for _, statement := range statements {
		if _, err := tx.ExecContext(ctx, statement); err != nil {
			return err
		}
	}
	return nil
}

func insertFromParquet(ctx context.Context, tx *sql.Tx, statement string) (int64, error) {
	result, err := tx.ExecContext(ctx, statement)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

func encodeParquet(dataset Dataset, loadedAt time.Time) ([]byte, []byte, error) {
	videos := make([]parquetVideo, 0, len(dataset.Videos))
	snapshots := make([]parquetSnapshot, 0, dataset.SnapshotCount())
	for _, video := range dataset.Videos {
		videos = append(videos, parquetVideo{
			ID:             video.ID,
			CreatorID:      video.CreatorID,
			VideoCreatedAt: video.CreatedAt.UTC().UnixMicro(),
			ViewsCount:     video.ViewsCount,
			LikesCount:     video.LikesCount,
			CommentsCount:  video.CommentsCount,
			ReportsCount:   video.ReportsCount,
			LoadedAt:       loadedAt.UnixMicro(),
		})
		for _, snapshot := range video.Snapshots {
			snapshots = append(snapshots, parquetSnapshot{
				VideoID:            video.ID,
				CreatedAt:          snapshot.CreatedAt.UTC().UnixMicro(),
				ViewsCount:         snapshot.ViewsCount,
				DeltaViewsCount:    snapshot.DeltaViewsCount,
				LikesCount:         snapshot.LikesCount,
				DeltaLikesCount:    snapshot.DeltaLikesCount,
				CommentsCount:      snapshot.CommentsCount,
				DeltaCommentsCount: snapshot.DeltaCommentsCount,
				ReportsCount:       snapshot.ReportsCount,
				DeltaReportsCount:  snapshot.DeltaReportsCount,
			})
		}
	}

	videoBytes, err := writeParquet(videos)
	if err != nil {
		return nil, nil, fmt.Errorf("encode videos: %w", err)
	}
	snapshotBytes, err := writeParquet(snapshots)
	if err != nil {
		return nil, nil, fmt.Errorf("encode snapshots: %w", err)
	}
	return videoBytes, snapshotBytes, nil
}

func writeParquet[T any](rows []T) ([]byte, error) {
	buf := bytes.NewBuffer(nil)
	writer := parquet.NewGenericWriter[T](buf)
	if _, err := writer.Write(rows); err != nil {
		return nil, fmt.Errorf("write parquet rows: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("close parquet writer: %w", err)
	}
	return buf.Bytes(), nil
}

func quoteString(value string) string {
	return "'" + strings.ReplaceAll(value, "'", "''") + "'"
}
