package ingest

import (
	"fmt"
	"math/rand"
	"time"
)

type GeneratorConfig struct {
	Seed              int64
	Creators          int
	Videos            int
	SnapshotsPerVideo int
	// Start is the publication time of the earliest video.
	Start time.Time
	// Spread is the window over which videos are published.
	Spread time.Duration
}

func DefaultGeneratorConfig() GeneratorConfig {
	return GeneratorConfig{
		Seed:              1,
		Creators:          20,
		Videos:            200,
		SnapshotsPerVideo: 24,
		Start:             time.Date(2025, 8, 1, 0, 0, 0, 0, time.UTC),
		Spread:            120 * 24 * time.Hour,
	}
}

// Generator produces synthetic datasets with hourly snapshots. Every
// Dataset call with the same config returns the same data.
type Generator struct {
	cfg GeneratorConfig
	rnd *rand.Rand
}

func NewGenerator(cfg GeneratorConfig) (*Generator, error) {
	if cfg.Creators <= 0 {
		return nil, fmt.Errorf("creators must be > 0")
	}
	if cfg.Videos < 0 || cfg.SnapshotsPerVideo < 0 {
		return nil, fmt.Errorf("videos and snapshots per video must be >= 0")
	}
	if cfg.Spread <= 0 {
		cfg.Spread = time.Hour
	}
	return &Generator{cfg: cfg}, nil
}

func (g *Generator) Dataset() Dataset {
	g.rnd = rand.New(rand.NewSource(g.cfg.Seed))
	dataset := Dataset{Videos: make([]Video, 0, g.cfg.Videos)}
	for i := 0; i < g.cfg.Videos; i++ {
		dataset.Videos = append(dataset.Videos, g.video(i))
	}
	return dataset
}

func (g *Generator) video(index int) Video {
	createdAt := g.cfg.Start.UTC().Add(time.Duration(g.rnd.Int63n(int64(g.cfg.Spread)))).Truncate(time.Second)
	video := Video{
		ID:        fmt.Sprintf("%08x-%04x-%04x", index+1, g.rnd.Intn(1<<16), g.rnd.Intn(1<<16)),
		CreatorID: fmt.Sprintf("%d", 1000+g.rnd.Intn(g.cfg.Creators)),
		CreatedAt: createdAt,
		Snapshots: make([]Snapshot, 0, g.cfg.SnapshotsPerVideo),
	}

	popularity := 1 + g.rnd.Intn(500)
	var views, likes, comments, reports int64
	first := createdAt.Truncate(time.Hour).Add(time.Hour)
	for s := 0; s < g.cfg.SnapshotsPerVideo; s++ {
		deltaViews := int64(g.rnd.Intn(popularity * 10))
		deltaLikes := int64(g.rnd.Intn(int(deltaViews/10) + 1))
		deltaComments := int64(g.rnd.Intn(int(deltaLikes/5) + 1))
		deltaReports := int64(0)
		if g.rnd.Intn(100) < 3 {
			deltaReports = 1
		}
		views += deltaViews
		likes += deltaLikes
		comments += deltaComments
		reports += deltaReports

		video.Snapshots = append(video.Snapshots, Snapshot{
			VideoID:            video.ID,
			CreatedAt:          first.Add(time.Duration(s) * time.Hour),
			ViewsCount:         views,
			DeltaViewsCount:    deltaViews,
			LikesCount:         likes,
			DeltaLikesCount:    deltaLikes,
			CommentsCount:      comments,
			DeltaCommentsCount: deltaComments,
			ReportsCount:       reports,
			DeltaReportsCount:  deltaReports,
		})
	}
	video.ViewsCount = views
	video.LikesCount = likes
	video.CommentsCount = comments
	video.ReportsCount = reports
	return video
}
