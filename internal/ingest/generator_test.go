package ingest

import (
	"reflect"
	"testing"
)

func TestGeneratorDeterministicForSeed(t *testing.T) {
	cfg := DefaultGeneratorConfig()
	cfg.Videos = 15
	cfg.SnapshotsPerVideo = 6

	g1, err := NewGenerator(cfg)
	if err != nil {
		t.Fatalf("NewGenerator() error = %v", err)
	}
	g2, err := NewGenerator(cfg)
	if err != nil {
		t.Fatalf("NewGenerator() error = %v", err)
	}
	first := g1.Dataset()
	if !reflect.DeepEqual(first, g2.Dataset()) {
		t.Fatal("datasets differ for the same seed")
	}
	if !reflect.DeepEqual(first, g1.Dataset()) {
		t.Fatal("repeated Dataset calls differ")
	}

	cfg.Seed = 2
	g3, err := NewGenerator(cfg)
	if err != nil {
		t.Fatalf("NewGenerator() error = %v", err)
	}
	if reflect.DeepEqual(first, g3.Dataset()) {
		t.Fatal("different seeds produced identical datasets")
	}
}

func TestGeneratorCountersAreConsistent(t *testing.T) {
	cfg := DefaultGeneratorConfig()
	cfg.Videos = 25
	cfg.SnapshotsPerVideo = 12
	generator, err := NewGenerator(cfg)
	if err != nil {
		t.Fatalf("NewGenerator() error = %v", err)
	}

	seen := map[string]struct{}{}
	for _, video := range generator.Dataset().Videos {
		if _, dup := seen[video.ID]; dup {
			t.Fatalf("duplicate video id %s", video.ID)
		}
		seen[video.ID] = struct{}{}

		var views, prevViews int64
		for i, snapshot := range video.Snapshots {
			if snapshot.VideoID != video.ID {
				t.Fatalf("snapshot references %s, want %s", snapshot.VideoID, video.ID)
			}
			if snapshot.DeltaViewsCount < 0 || snapshot.ViewsCount < prevViews {
				t.Fatalf("views must not decrease: %+v", snapshot)
			}
			if i > 0 && !snapshot.CreatedAt.After(video.Snapshots[i-1].CreatedAt) {
				t.Fatalf("snapshots out of order for %s", video.ID)
			}
			if !snapshot.CreatedAt.After(video.CreatedAt) {
				t.Fatalf("snapshot before publication for %s", video.ID)
			}
			views += snapshot.DeltaViewsCount
			prevViews = snapshot.ViewsCount
		}
		if views != video.ViewsCount {
			t.Fatalf("sum of deltas = %d, final views = %d", views, video.ViewsCount)
		}
	}
	if len(seen) != cfg.Videos {
		t.Fatalf("videos = %d, want %d", len(seen), cfg.Videos)
	}
}

func TestNewGeneratorValidation(t *testing.T) {
	cfg := DefaultGeneratorConfig()
	cfg.Creators = 0
	if _, err := NewGenerator(cfg); err == nil {
		t.Fatal("expected error for zero creators")
	}
}
