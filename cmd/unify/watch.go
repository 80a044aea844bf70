package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"git.home.luguber.info/inful/unify/internal/config"
	"git.home.luguber.info/inful/unify/internal/metrics"
	"git.home.luguber.info/inful/unify/internal/site"
	"git.home.luguber.info/inful/unify/internal/watch"
)

// runWatch builds once, then rebuilds affected pages on every change
// until the context is canceled.
func runWatch(ctx context.Context, cfg *config.Config) error {
	return watchWith(ctx, cfg, metrics.NoopRecorder{})
}

func watchWith(ctx context.Context, cfg *config.Config, rec metrics.Recorder) error {
	b, cleanup, err := newBuilder(cfg)
	if err != nil {
		return err
	}
	defer cleanup()
	b.Recorder = rec

	report, err := b.Build(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("Initial build: %s\n", report.SummaryLine())

	w, err := watch.New(cfg.Site.Root, watch.RebuildFunc(func(ctx context.Context, paths []string) error {
		var report *site.Report
		var err error
		if paths == nil {
			report, err = b.Build(ctx)
		} else {
			report, err = b.BuildPaths(ctx, paths)
		}
		if err != nil {
			return err
		}
		slog.Info("rebuild finished", "summary", report.SummaryLine())
		return nil
	}))
	if err != nil {
		return err
	}
	w.Debounce = time.Duration(cfg.Watch.DebounceMillis) * time.Millisecond
	w.FullRebuildEvery = time.Duration(cfg.Watch.FullRebuildMinutes) * time.Minute
	w.Recorder = rec

	return w.Start(ctx)
}
