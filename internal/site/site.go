// Package site drives full site builds: it walks the source tree,
// routes every file, runs composition and the scanner, and writes the
// output tree.
package site

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"git.home.luguber.info/inful/unify/internal/buildcache"
	"git.home.luguber.info/inful/unify/internal/cascade"
	"git.home.luguber.info/inful/unify/internal/classify"
	"git.home.luguber.info/inful/unify/internal/config"
	"git.home.luguber.info/inful/unify/internal/gitmeta"
	"git.home.luguber.info/inful/unify/internal/markdown"
	"git.home.luguber.info/inful/unify/internal/metrics"
	"git.home.luguber.info/inful/unify/internal/resolver"
	"git.home.luguber.info/inful/unify/internal/scan"
	"git.home.luguber.info/inful/unify/internal/urls"
)

// Builder runs site builds according to one configuration.
type Builder struct {
	Config   *config.Config
	Cache    *buildcache.Cache // optional, nil disables caching
	Git      *gitmeta.Source   // optional, nil disables git metadata
	Recorder metrics.Recorder
	Logger   *slog.Logger

	classifier *classify.Classifier
	mapper     *urls.Mapper
}

// PageError ties a per-file failure to its source path.
type PageError struct {
	Path string
	Err  error
}

func (e PageError) Error() string { return fmt.Sprintf("%s: %v", e.Path, e.Err) }

// PageInfo describes one built page.
type PageInfo struct {
	SourcePath string
	OutputPath string
	URL        string
	Meta       gitmeta.FileMeta
}

// Report summarizes one build.
type Report struct {
	BuildID string
	// CommitHash and Dirty describe the source revision when the site
	// lives in a git repository.
	CommitHash string
	Dirty      bool
	Composed int
	Copied   int
	Cached   int
	Skipped  int
	Failed   int
	Pages    []PageInfo
	Findings []scan.Finding
	Errors   []PageError
	Duration time.Duration
}

// New creates a builder for the given configuration.
func New(cfg *config.Config) *Builder {
	return &Builder{
		Config:   cfg,
		Recorder: metrics.NoopRecorder{},
		Logger:   slog.Default(),
		classifier: &classify.Classifier{
			TemplateDirs: cfg.Site.TemplateDirs,
			Exclude:      cfg.Site.Exclude,
		},
		mapper: &urls.Mapper{Pretty: cfg.Build.PrettyURLs},
	}
}

// Build runs a full build. Per-page failures are collected in the
// report; structural failures (a layout or component cycle, a canceled
// context) abort the build and are returned as the error.
func (b *Builder) Build(ctx context.Context) (*Report, error) {
	start := time.Now()
	report := &Report{BuildID: buildcache.NewBuildID()}
	if b.Git != nil {
		report.CommitHash = b.Git.Head()
		if dirty, err := b.Git.Dirty(); err == nil {
			report.Dirty = dirty
		}
	}

	if b.Config.Build.Clean {
		if err := os.RemoveAll(b.Config.Build.Output); err != nil {
			return nil, fmt.Errorf("clean output directory: %w", err)
		}
	}
	if err := os.MkdirAll(b.Config.Build.Output, 0o755); err != nil {
		return nil, fmt.Errorf("create output directory: %w", err)
	}

	outputAbs, err := filepath.Abs(b.Config.Build.Output)
	if err != nil {
		return nil, fmt.Errorf("resolve output directory: %w", err)
	}

	root := os.DirFS(b.Config.Site.Root)
	err = fs.WalkDir(root, ".", func(p string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if d.IsDir() {
			// Never descend into the output tree.
			abs, err := filepath.Abs(filepath.Join(b.Config.Site.Root, p))
			if err == nil && abs == outputAbs {
				return fs.SkipDir
			}
			return nil
		}
		return b.buildFile(ctx, p, report)
	})
	if err != nil {
		b.Recorder.IncBuildOutcome(outcomeFor(err))
		return report, err
	}

	report.Duration = time.Since(start)
	b.Recorder.ObserveBuildDuration(report.Duration)
	if report.Failed > 0 {
		b.Recorder.IncBuildOutcome("failed")
	} else {
		b.Recorder.IncBuildOutcome("success")
	}
	b.Logger.Info("build finished",
		slog.String("build_id", report.BuildID),
		slog.String("commit", report.CommitHash),
		slog.Int("composed", report.Composed),
		slog.Int("copied", report.Copied),
		slog.Int("cached", report.Cached),
		slog.Int("failed", report.Failed),
		slog.Duration("duration", report.Duration))
	return report, nil
}

func outcomeFor(err error) string {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return "canceled"
	}
	return "failed"
}

// BuildPaths rebuilds the pages affected by a set of changed
// site-relative paths. A changed template fans out to its recorded
// dependents; without a cache every change falls back to a full build.
func (b *Builder) BuildPaths(ctx context.Context, changed []string) (*Report, error) {
	if b.Cache == nil {
		return b.Build(ctx)
	}

	pages := map[string]bool{}
	for _, p := range changed {
		p = filepath.ToSlash(p)
		switch b.classifier.Classify(p) {
		case classify.Compose:
			pages[p] = true
		case classify.Copy:
			pages[p] = true
		case classify.Skip:
			dependents, err := b.Cache.Dependents(ctx, p)
			if err != nil {
				return nil, err
			}
			if len(dependents) == 0 {
				continue
			}
			if err := b.Cache.Invalidate(ctx, dependents); err != nil {
				return nil, err
			}
			for _, d := range dependents {
				pages[d] = true
			}
		}
	}

	report := &Report{BuildID: buildcache.NewBuildID()}
	start := time.Now()
	for p := range pages {
		if ctx.Err() != nil {
			return report, ctx.Err()
		}
		if err := b.buildFile(ctx, p, report); err != nil {
			return report, err
		}
	}
	report.Duration = time.Since(start)
	return report, nil
}

// buildFile routes and builds a single source file. Returned errors
// abort the whole build; per-page failures land in the report instead.
func (b *Builder) buildFile(ctx context.Context, p string, report *Report) error {
	switch b.classifier.Classify(p) {
	case classify.Skip:
		report.Skipped++
		b.Recorder.IncPageResult(metrics.ResultSkipped)
		return nil
	case classify.Copy:
		if err := b.copyFile(p); err != nil {
			report.Failed++
			report.Errors = append(report.Errors, PageError{Path: p, Err: err})
			b.Recorder.IncPageResult(metrics.ResultFailed)
			return nil
		}
		report.Copied++
		b.Recorder.IncPageResult(metrics.ResultCopied)
		return nil
	}

	start := time.Now()
	result, err := b.composePage(ctx, p, report)
	b.Recorder.ObservePageDuration(result, time.Since(start))
	b.Recorder.IncPageResult(result)
	if err != nil {
		if cascade.IsCircularDependency(err) || ctx.Err() != nil {
			report.Failed++
			return err
		}
		report.Failed++
		report.Errors = append(report.Errors, PageError{Path: p, Err: err})
		b.Logger.Warn("page failed", slog.String("path", p), slog.Any("error", err))
		return nil
	}
	switch result {
	case metrics.ResultCached:
		report.Cached++
	default:
		report.Composed++
	}
	return nil
}

func (b *Builder) composePage(ctx context.Context, p string, report *Report) (metrics.PageResult, error) {
	raw, err := os.ReadFile(filepath.Join(b.Config.Site.Root, filepath.FromSlash(p)))
	if err != nil {
		return metrics.ResultFailed, fmt.Errorf("read source: %w", err)
	}

	outPath := b.mapper.OutputPath(p)
	outFile := filepath.Join(b.Config.Build.Output, filepath.FromSlash(outPath))
	hash := buildcache.Hash(raw)

	if fresh, err := b.isFresh(ctx, p, hash, outFile); err != nil {
		return metrics.ResultFailed, err
	} else if fresh {
		return metrics.ResultCached, nil
	}

	htmlText := string(raw)
	if classify.IsMarkdown(p) {
		page, err := markdown.Preprocess(raw, p)
		if err != nil {
			return metrics.ResultFailed, err
		}
		htmlText = page.HTML
	}

	disk := resolver.NewDisk(b.Config.Site.Root)
	rec := resolver.NewRecording(disk)
	orch := cascade.New(rec)
	orch.MaxDepth = b.Config.Build.MaxDepth
	orch.MaxIterations = b.Config.Build.MaxIterations
	orch.Logger = b.Logger

	composed, err := orch.Compose(ctx, htmlText, p, nil)
	if err != nil {
		return metrics.ResultFailed, err
	}

	if b.Config.Scan.Enabled {
		findings := scan.Scan(composed, p)
		report.Findings = append(report.Findings, findings...)
		fatal := false
		for _, f := range findings {
			b.Recorder.IncScanFinding(string(f.Severity))
			if f.Severity == scan.SeverityError {
				fatal = true
			}
		}
		if fatal && b.Config.Scan.FailOnError {
			return metrics.ResultFailed, fmt.Errorf("security scan reported errors")
		}
	}

	info := PageInfo{SourcePath: p, OutputPath: outPath, URL: b.mapper.PageURL(outPath)}
	if b.Config.Build.GitMetadata && b.Git != nil {
		if meta, err := b.Git.Lookup(p); err == nil {
			info.Meta = meta
		}
	}

	composed, err = postProcess(composed, b.mapper, info.Meta.LastModified)
	if err != nil {
		return metrics.ResultFailed, fmt.Errorf("post-process: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(outFile), 0o755); err != nil {
		return metrics.ResultFailed, fmt.Errorf("create output directory: %w", err)
	}
	if err := os.WriteFile(outFile, []byte(composed), 0o644); err != nil {
		return metrics.ResultFailed, fmt.Errorf("write output: %w", err)
	}
	report.Pages = append(report.Pages, info)

	if b.Cache != nil {
		deps := rec.Paths()
		if err := b.Cache.Record(ctx, report.BuildID, p, hash, deps); err != nil {
			return metrics.ResultFailed, err
		}
		for _, dep := range deps {
			content, err := os.ReadFile(filepath.Join(b.Config.Site.Root, filepath.FromSlash(dep)))
			if err != nil {
				continue
			}
			if err := b.Cache.Record(ctx, report.BuildID, dep, buildcache.Hash(content), nil); err != nil {
				return metrics.ResultFailed, err
			}
		}
	}
	return metrics.ResultComposed, nil
}

// isFresh reports whether the cached output can be kept: the page hash
// and every recorded dependency hash are unchanged and the output file
// still exists.
func (b *Builder) isFresh(ctx context.Context, p, hash, outFile string) (bool, error) {
	if b.Cache == nil {
		return false, nil
	}
	if _, err := os.Stat(outFile); err != nil {
		return false, nil
	}
	stale, err := b.Cache.Stale(ctx, p, hash)
	if err != nil || stale {
		return false, err
	}
	deps, err := b.Cache.Deps(ctx, p)
	if err != nil {
		return false, err
	}
	for _, dep := range deps {
		content, err := os.ReadFile(filepath.Join(b.Config.Site.Root, filepath.FromSlash(dep)))
		if err != nil {
			return false, nil
		}
		depStale, err := b.Cache.Stale(ctx, dep, buildcache.Hash(content))
		if err != nil || depStale {
			return false, err
		}
	}
	return true, nil
}

func (b *Builder) copyFile(p string) error {
	src := filepath.Join(b.Config.Site.Root, filepath.FromSlash(p))
	dst := filepath.Join(b.Config.Build.Output, filepath.FromSlash(p))

	data, err := os.ReadFile(src)
	if err != nil {
		return fmt.Errorf("read asset: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}
	if err := os.WriteFile(dst, data, 0o644); err != nil {
		return fmt.Errorf("write asset: %w", err)
	}
	return nil
}

// SummaryLine renders the one-line outcome used by the CLI.
func (r *Report) SummaryLine() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%d composed, %d copied, %d cached, %d skipped", r.Composed, r.Copied, r.Cached, r.Skipped)
	if r.Failed > 0 {
		fmt.Fprintf(&sb, ", %d failed", r.Failed)
	}
	if n := len(r.Findings); n > 0 {
		fmt.Fprintf(&sb, ", %d scan findings", n)
	}
	return sb.String()
}
