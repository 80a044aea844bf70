package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"

	"git.home.luguber.info/inful/unify/internal/config"
	"git.home.luguber.info/inful/unify/internal/metrics"
)

// runServe builds and watches the site while serving the output tree
// over HTTP for local preview.
func runServe(ctx context.Context, cfg *config.Config) error {
	var rec metrics.Recorder = metrics.NoopRecorder{}

	mux := http.NewServeMux()
	mux.Handle("/", http.FileServer(http.Dir(cfg.Build.Output)))
	if cfg.Serve.Metrics {
		reg := prom.NewRegistry()
		rec = metrics.NewPrometheusRecorder(reg)
		mux.Handle("/metrics", metrics.HTTPHandler(reg))
	}

	srv := &http.Server{
		Addr:              cfg.Serve.Addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	errCh := make(chan error, 2)
	go func() {
		errCh <- watchWith(ctx, cfg, rec)
	}()
	go func() {
		slog.Info("preview server listening", "addr", cfg.Serve.Addr)
		fmt.Printf("Serving %s on http://%s\n", cfg.Build.Output, displayAddr(cfg.Serve.Addr))
		err := srv.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			err = nil
		}
		errCh <- err
	}()

	var firstErr error
	select {
	case firstErr = <-errCh:
		cancel()
	case <-ctx.Done():
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil && firstErr == nil {
		firstErr = err
	}
	if firstErr != nil && !errors.Is(firstErr, context.Canceled) {
		return firstErr
	}
	return nil
}

func displayAddr(addr string) string {
	if len(addr) > 0 && addr[0] == ':' {
		return "localhost" + addr
	}
	return addr
}
