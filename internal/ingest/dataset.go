// Package ingest loads the videos dataset into the relational store.
package ingest

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/clipquery/clipquery/internal/observability"
)

type Video struct {
	ID            string     `json:"id"`
	CreatorID     string     `json:"creator_id"`
	CreatedAt     time.Time  `json:"video_created_at"`
	ViewsCount    int64      `json:"views_count"`
	LikesCount    int64      `json:"likes_count"`
	CommentsCount int64      `json:"comments_count"`
	ReportsCount  int64      `json:"reports_count"`
	Snapshots     []Snapshot `json:"snapshots"`
}

type Snapshot struct {
	VideoID            string    `json:"-"`
	CreatedAt          time.Time `json:"created_at"`
	ViewsCount         int64     `json:"views_count"`
	DeltaViewsCount    int64     `json:"delta_views_count"`
	LikesCount         int64     `json:"likes_count"`
	DeltaLikesCount    int64     `json:"delta_likes_count"`
	CommentsCount      int64     `json:"comments_count"`
	DeltaCommentsCount int64     `json:"delta_comments_count"`
	ReportsCount       int64     `json:"reports_count"`
	DeltaReportsCount  int64     `json:"delta_reports_count"`
}

type Dataset struct {
	Videos []Video `json:"videos"`
}

func (d Dataset) SnapshotCount() int {
	total := 0
	for _, video := range d.Videos {
		total += len(video.Snapshots)
	}
	return total
}

// MissingKeyError aborts a load: the dataset structure is not what the
// tables expect.
type MissingKeyError struct {
	Path string
	Key  string
}

func (e *MissingKeyError) Error() string {
	return fmt.Sprintf("dataset %s: missing key %q", e.Path, e.Key)
}

type rawObject map[string]json.RawMessage

// Decode parses a dataset document. Malformed counters become 0 with a
// warning; missing keys and unparseable timestamps are errors.
func Decode(r io.Reader, logger *slog.Logger) (Dataset, error) {
	if logger == nil {
		logger = observability.NopLogger()
	}
	var document struct {
		Videos *[]rawObject `json:"videos"`
	}
	if err := json.NewDecoder(r).Decode(&document); err != nil {
		return Dataset{}, fmt.Errorf("decode dataset: %w", err)
	}
	if document.Videos == nil {
		return Dataset{}, &MissingKeyError{Path: "root", Key: "videos"}
	}

	p := parser{logger: logger}
	dataset := Dataset{Videos: make([]Video, 0, len(*document.Videos))}
	for index, raw := range *document.Videos {
		video, err := p.video(fmt.Sprintf("videos[%d]", index), raw)
		if err != nil {
			return Dataset{}, err
		}
		dataset.Videos = append(dataset.Videos, video)
	}
	return dataset, nil
}

// Encode writes dataset in the same document shape Decode reads.
func Encode(w io.Writer, dataset Dataset) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(dataset); err != nil {
		return fmt.Errorf("encode dataset: %w", err)
	}
	return nil
}

type parser struct {
	logger *slog.Logger
}

func (p parser) video(path string, raw rawObject) (Video, error) {
	var (
		video Video
		err   error
	)
	if video.ID, err = requireString(path, raw, "id"); err != nil {
		return Video{}, err
	}
	if video.CreatorID, err = requireString(path, raw, "creator_id"); err != nil {
		return Video{}, err
	}
	if video.CreatedAt, err = requireTime(path, raw, "video_created_at"); err != nil {
		return Video{}, err
	}
	counters := []struct {
		key    string
		target *int64
	}{
		{"views_count", &video.ViewsCount},
		{"likes_count", &video.LikesCount},
		{"comments_count", &video.CommentsCount},
		{"reports_count", &video.ReportsCount},
	}
	for _, counter := range counters {
		if *counter.target, err = p.requireInt(path, raw, counter.key); err != nil {
			return Video{}, err
		}
	}

	rawSnapshots, ok := raw["snapshots"]
	if !ok {
		return Video{}, &MissingKeyError{Path: path, Key: "snapshots"}
	}
	var snapshots []rawObject
	if err := json.Unmarshal(rawSnapshots, &snapshots); err != nil {
		return Video{}, fmt.Errorf("dataset %s.snapshots: %w", path, err)
	}
	video.Snapshots = make([]Snapshot, 0, len(snapshots))
	for index, rawSnapshot := range snapshots {
		snapshot, err := p.snapshot(fmt.Sprintf("%s.snapshots[%d]", path, index), video.ID, rawSnapshot)
		if err != nil {
			return Video{}, err
		}
		video.Snapshots = append(video.Snapshots, snapshot)
	}
	return video, nil
}

func (p parser) snapshot(path, videoID string, raw rawObject) (Snapshot, error) {
	snapshot := Snapshot{VideoID: videoID}
	var err error
	if snapshot.CreatedAt, err = requireTime(path, raw, "created_at"); err != nil {
		return Snapshot{}, err
	}
	counters := []struct {
		key    string
		target *int64
	}{
		{"views_count", &snapshot.ViewsCount},
		{"delta_views_count", &snapshot.DeltaViewsCount},
		{"likes_count", &snapshot.LikesCount},
		{"delta_likes_count", &snapshot.DeltaLikesCount},
		{"comments_count", &snapshot.CommentsCount},
		{"delta_comments_count", &snapshot.DeltaCommentsCount},
		{"reports_count", &snapshot.ReportsCount},
		{"delta_reports_count", &snapshot.DeltaReportsCount},
	}
	for _, counter := range counters {
		if *counter.target, err = p.requireInt(path, raw, counter.key); err != nil {
			return Snapshot{}, err
		}
	}
	return snapshot, nil
}

func (p parser) requireInt(path string, raw rawObject, key string) (int64, error) {
	value, ok := raw[key]
	if !ok {
		return 0, &MissingKeyError{Path: path, Key: key}
	}
	parsed, ok := SafeInt(value)
	if !ok {
		p.logger.Warn("malformed counter, using 0",
			slog.String("path", path),
			slog.String("key", key),
			slog.String("value", string(value)),
		)
	}
	return parsed, nil
}

// SafeInt converts a JSON integer or integer string to int64. null yields 0
// and reports ok; anything else yields 0 and reports !ok.
func SafeInt(raw json.RawMessage) (int64, bool) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return 0, true
	}
	text := string(trimmed)
	if trimmed[0] == '"' {
		if err := json.Unmarshal(trimmed, &text); err != nil {
			return 0, false
		}
		text = strings.TrimSpace(text)
	}
	value, err := strconv.ParseInt(text, 10, 64)
	if err != nil {
		return 0, false
	}
	return value, true
}

func requireString(path string, raw rawObject, key string) (string, error) {
	value, ok := raw[key]
	if !ok {
		return "", &MissingKeyError{Path: path, Key: key}
	}
	var text string
	if err := json.Unmarshal(value, &text); err != nil {
		// numeric identifiers are kept as their literal text
		trimmed := strings.TrimSpace(string(value))
		if _, numErr := strconv.ParseInt(trimmed, 10, 64); numErr != nil {
			return "", fmt.Errorf("dataset %s.%s: expected string, got %s", path, key, trimmed)
		}
		return trimmed, nil
	}
	return text, nil
}

func requireTime(path string, raw rawObject, key string) (time.Time, error) {
	value, ok := raw[key]
	if !ok {
		return time.Time{}, &MissingKeyError{Path: path, Key: key}
	}
	var text string
	if err := json.Unmarshal(value, &text); err != nil {
		return time.Time{}, fmt.Errorf("dataset %s.%s: expected timestamp string: %w", path, key, err)
	}
	parsed, err := NaiveUTC(text)
	if err != nil {
		return time.Time{}, fmt.Errorf("dataset %s.%s: %w", path, key, err)
	}
	return parsed, nil
}

var isoLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999Z0700",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04",
	"2006-01-02",
}

// NaiveUTC parses an ISO-8601 timestamp and converts it to UTC. Values
// without an offset are taken as UTC.
func NaiveUTC(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	for _, layout := range isoLayouts {
		if parsed, err := time.Parse(layout, value); err == nil {
			return parsed.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid ISO-8601 timestamp %q", value)
}
