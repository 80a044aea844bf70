package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/unify/internal/buildcache"
	"git.home.luguber.info/inful/unify/internal/config"
	"git.home.luguber.info/inful/unify/internal/gitmeta"
	"git.home.luguber.info/inful/unify/internal/site"
)

var CLI struct {
	Config  string `short:"c" help:"Configuration file path" default:"unify.yaml"`
	Verbose bool   `short:"v" help:"Enable verbose logging"`

	Build struct {
		Output string `short:"o" help:"Output directory for the built site"`
		Clean  bool   `help:"Remove the output directory before building"`
	} `cmd:"" help:"Build the site once"`

	Watch struct {
		Output string `short:"o" help:"Output directory for the built site"`
	} `cmd:"" help:"Build the site and rebuild on source changes"`

	Serve struct {
		Addr   string `short:"a" help:"Listen address for the preview server"`
		Output string `short:"o" help:"Output directory for the built site"`
	} `cmd:"" help:"Build, watch and serve the site locally"`

	Scan struct {
		JSON bool `help:"Emit findings as JSON"`
	} `cmd:"" help:"Run the security scanner over the built site"`

	Init struct {
		Force bool `help:"Overwrite an existing configuration file"`
	} `cmd:"" help:"Write a starter configuration file"`
}

func main() {
	ctx := kong.Parse(&CLI)

	cfg, err := loadConfig(ctx.Command())
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}
	setupLogging(cfg)

	runCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	switch ctx.Command() {
	case "build":
		if err := runBuild(runCtx, cfg); err != nil {
			slog.Error("Build failed", "error", err)
			os.Exit(1)
		}
	case "watch":
		if err := runWatch(runCtx, cfg); err != nil && runCtx.Err() == nil {
			slog.Error("Watch failed", "error", err)
			os.Exit(1)
		}
	case "serve":
		if err := runServe(runCtx, cfg); err != nil && runCtx.Err() == nil {
			slog.Error("Serve failed", "error", err)
			os.Exit(1)
		}
	case "scan":
		if err := runScan(cfg, CLI.Scan.JSON); err != nil {
			slog.Error("Scan failed", "error", err)
			os.Exit(1)
		}
	case "init":
		if err := runInit(CLI.Config, CLI.Init.Force); err != nil {
			slog.Error("Init failed", "error", err)
			os.Exit(1)
		}
	default:
		slog.Error("Unknown command", "command", ctx.Command())
		os.Exit(1)
	}
}

func loadConfig(command string) (*config.Config, error) {
	path := CLI.Config
	if _, err := os.Stat(path); os.IsNotExist(err) {
		if command == "init" || path == config.DefaultFile {
			// Defaults alone are enough to build a conventional tree.
			path = ""
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}

	if CLI.Build.Output != "" {
		cfg.Build.Output = CLI.Build.Output
	}
	if CLI.Watch.Output != "" {
		cfg.Build.Output = CLI.Watch.Output
	}
	if CLI.Serve.Output != "" {
		cfg.Build.Output = CLI.Serve.Output
	}
	if CLI.Build.Clean {
		cfg.Build.Clean = true
	}
	if CLI.Serve.Addr != "" {
		cfg.Serve.Addr = CLI.Serve.Addr
	}
	if lvl := os.Getenv("UNIFY_LOG_LEVEL"); lvl != "" {
		cfg.Logging.Level = lvl
	}
	if CLI.Verbose {
		cfg.Logging.Level = "debug"
	}
	return cfg, nil
}

func setupLogging(cfg *config.Config) {
	var level slog.Level
	switch strings.ToLower(cfg.Logging.Level) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	var handler slog.Handler
	if strings.EqualFold(cfg.Logging.Format, "json") {
		handler = slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	} else {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	}
	slog.SetDefault(slog.New(handler))
}

func newBuilder(cfg *config.Config) (*site.Builder, func(), error) {
	b := site.New(cfg)

	cleanup := func() {}
	if cfg.Build.Cache != "" {
		cache, err := buildcache.Open(cfg.Build.Cache)
		if err != nil {
			return nil, nil, fmt.Errorf("open build cache: %w", err)
		}
		b.Cache = cache
		cleanup = func() { _ = cache.Close() }
	}
	if cfg.Build.GitMetadata {
		src, err := gitmeta.Open(cfg.Site.Root)
		if err == nil {
			b.Git = src
		} else {
			slog.Debug("Git metadata unavailable", "error", err)
		}
	}
	return b, cleanup, nil
}

func runBuild(ctx context.Context, cfg *config.Config) error {
	b, cleanup, err := newBuilder(cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	start := time.Now()
	report, err := b.Build(ctx)
	if err != nil {
		return err
	}

	fmt.Printf("Build complete in %s: %s\n", time.Since(start).Round(time.Millisecond), report.SummaryLine())
	for _, f := range report.Findings {
		fmt.Printf("  scan %s [%s] %s: %s\n", f.Severity, f.Rule, f.Path, f.Message)
	}
	for _, pe := range report.Errors {
		fmt.Printf("  error %s: %v\n", pe.Path, pe.Err)
	}
	if report.Failed > 0 {
		return fmt.Errorf("%d pages failed", report.Failed)
	}
	return nil
}
