package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/clipquery/clipquery/internal/config"
	"github.com/clipquery/clipquery/internal/ingest"
	"github.com/clipquery/clipquery/internal/observability"
	"github.com/clipquery/clipquery/internal/storage"
	s3store "github.com/clipquery/clipquery/internal/storage/s3"
	"github.com/clipquery/clipquery/internal/store"
)

func main() {
	cfg, err := config.LoadFromEnv("clipquery-loader")
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}

	defaults := ingest.DefaultGeneratorConfig()
	source := flag.String("source", cfg.Ingest.Source, "dataset to load: file path or s3://bucket/key")
	generate := flag.Bool("generate", false, "generate a synthetic dataset instead of reading -source")
	publish := flag.String("publish", "", "write the generated dataset to this file path or s3://bucket/key")
	load := flag.Bool("load", true, "load the dataset into the database")
	replace := flag.Bool("replace", false, "empty videos and video_snapshots before loading")
	seed := flag.Int64("seed", defaults.Seed, "generator seed")
	videos := flag.Int("videos", defaults.Videos, "number of generated videos")
	creators := flag.Int("creators", defaults.Creators, "number of generated creators")
	snapshots := flag.Int("snapshots", defaults.SnapshotsPerVideo, "hourly snapshots per generated video")
	flag.Parse()

	logger := observability.NewLogger(cfg, os.Stderr)
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	objects := func(ctx context.Context, bucket string) (storage.ObjectStore, error) {
		s3cfg := s3store.ConfigFor(cfg.Ingest.ObjectStore, bucket)
		s3cfg.AutoCreateBucket = *publish != ""
		objectStore, err := s3store.New(ctx, s3cfg)
		if err != nil {
			return nil, err
		}
		return objectStore, nil
	}

	var sink ingest.Sink
	if *load {
		manager := store.Open(ctx, cfg.Database, logger)
		defer func() { _ = manager.Close() }()
		if !manager.Available() {
			logger.Error("database is unavailable", slog.Any("error", manager.Err()))
			os.Exit(1)
		}
		if cfg.Database.Driver == config.DriverDuckDB {
			sink = &ingest.DuckDBSink{DB: manager.DB(), Replace: *replace, Logger: logger}
		} else {
			sink = &ingest.PostgresSink{DB: manager.DB(), Replace: *replace, Logger: logger}
		}
	}

	started := time.Now()
	if *generate {
		genCfg := defaults
		genCfg.Seed = *seed
		genCfg.Videos = *videos
		genCfg.Creators = *creators
		genCfg.SnapshotsPerVideo = *snapshots
		if err := runGenerated(ctx, genCfg, *publish, objects, sink, logger); err != nil {
			logger.Error("generated dataset failed", slog.Any("error", err))
			os.Exit(1)
		}
	} else {
		if sink == nil {
			fmt.Fprintln(os.Stderr, "nothing to do: -load=false requires -generate")
			os.Exit(2)
		}
		if err := runSource(ctx, *source, objects, sink, logger); err != nil {
			logger.Error("dataset load failed", slog.String("source", *source), slog.Any("error", err))
			os.Exit(1)
		}
	}
	logger.Info("loader finished", slog.Duration("elapsed", time.Since(started)))
}

func runSource(ctx context.Context, raw string, objects ingest.ObjectStoreFactory, sink ingest.Sink, logger *slog.Logger) error {
	location, err := storage.ParseLocation(raw)
	if err != nil {
		return err
	}
	reader, err := ingest.OpenSource(ctx, location, objects)
	if err != nil {
		return err
	}
	defer func() { _ = reader.Close() }()

	loader := &ingest.Loader{Sink: sink, Logger: logger}
	summary, err := loader.Run(ctx, reader)
	if err != nil {
		return err
	}
	logger.Info("dataset loaded", slog.String("source", location.String()),
		slog.Int64("videos", summary.Videos), slog.Int64("snapshots", summary.Snapshots))
	return nil
}

func runGenerated(ctx context.Context, cfg ingest.GeneratorConfig, publish string, objects ingest.ObjectStoreFactory, sink ingest.Sink, logger *slog.Logger) error {
	generator, err := ingest.NewGenerator(cfg)
	if err != nil {
		return err
	}
	dataset := generator.Dataset()
	logger.Info("dataset generated", slog.Int64("seed", cfg.Seed),
		slog.Int("videos", len(dataset.Videos)), slog.Int("snapshots", dataset.SnapshotCount()))

	if publish != "" {
		location, err := storage.ParseLocation(publish)
		if err != nil {
			return err
		}
		if err := ingest.Publish(ctx, location, objects, dataset); err != nil {
			return err
		}
		logger.Info("dataset published", slog.String("location", location.String()))
	}
	if sink == nil {
		return nil
	}
	_, err = sink.Load(ctx, dataset)
	return err
}
