package site

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/unify/internal/buildcache"
	"git.home.luguber.info/inful/unify/internal/cascade"
	"git.home.luguber.info/inful/unify/internal/config"
	"git.home.luguber.info/inful/unify/internal/gitmeta"
)

func writeTree(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for name, content := range files {
		path := filepath.Join(root, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	root := t.TempDir()
	cfg, err := config.Load("")
	require.NoError(t, err)
	cfg.Site.Root = root
	cfg.Build.Output = filepath.Join(t.TempDir(), "dist")
	return cfg
}

func readOutput(t *testing.T, cfg *config.Config, name string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(cfg.Build.Output, filepath.FromSlash(name)))
	require.NoError(t, err)
	return string(data)
}

const baseLayout = `<html><head><title>Site</title></head><body><main class="unify-content"></main></body></html>`

func TestBuild_ComposesCopiesAndSkips(t *testing.T) {
	cfg := testConfig(t)
	writeTree(t, cfg.Site.Root, map[string]string{
		"layouts/base.html": baseLayout,
		"index.html":        `<html data-unify="layouts/base.html"><body><div class="unify-content"><p>home</p></div></body></html>`,
		"css/site.css":      "body{margin:0}",
		"_drafts/wip.html":  "<p>draft</p>",
	})

	report, err := New(cfg).Build(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, report.Composed)
	require.Equal(t, 1, report.Copied)
	require.Equal(t, 0, report.Failed)

	out := readOutput(t, cfg, "index.html")
	require.Contains(t, out, "<title>Site</title>")
	require.Contains(t, out, "<p>home</p>")
	require.NotContains(t, out, "data-unify")

	require.Equal(t, "body{margin:0}", readOutput(t, cfg, "css/site.css"))

	_, err = os.Stat(filepath.Join(cfg.Build.Output, "_drafts"))
	require.True(t, os.IsNotExist(err))
}

func TestBuild_MarkdownPageGetsLayout(t *testing.T) {
	cfg := testConfig(t)
	writeTree(t, cfg.Site.Root, map[string]string{
		"layouts/base.html": baseLayout,
		"docs/guide.md":     "---\ntitle: Guide\nlayout: layouts/base.html\n---\n# Hello\n",
	})

	report, err := New(cfg).Build(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, report.Composed)

	out := readOutput(t, cfg, "docs/guide.html")
	require.Contains(t, out, "<h1>Hello</h1>")
	require.Contains(t, out, "<title>Guide</title>")
}

func TestBuild_PrettyURLs(t *testing.T) {
	cfg := testConfig(t)
	cfg.Build.PrettyURLs = true
	writeTree(t, cfg.Site.Root, map[string]string{
		"about.html": "<p>about</p>",
	})

	report, err := New(cfg).Build(context.Background())
	require.NoError(t, err)
	require.Contains(t, readOutput(t, cfg, "about/index.html"), "about")
	require.Equal(t, "/about/", report.Pages[0].URL)
}

func TestBuild_PageErrorCollected_BuildContinues(t *testing.T) {
	cfg := testConfig(t)
	writeTree(t, cfg.Site.Root, map[string]string{
		"layouts/base.html": baseLayout,
		"bad.html":          `<html data-unify="layouts/missing.html"><body><p>x</p></body></html>`,
		"good.html":         `<html data-unify="layouts/base.html"><body><div class="unify-content"><p>ok</p></div></body></html>`,
	})

	report, err := New(cfg).Build(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, report.Composed)
	require.Equal(t, 1, report.Failed)
	require.Len(t, report.Errors, 1)
	require.Equal(t, "bad.html", report.Errors[0].Path)
	require.Contains(t, readOutput(t, cfg, "good.html"), "<p>ok</p>")
}

func TestBuild_CircularLayout_AbortsBuild(t *testing.T) {
	cfg := testConfig(t)
	writeTree(t, cfg.Site.Root, map[string]string{
		"a.html": `<html data-unify="b.html"><body><p>a</p></body></html>`,
		"b.html": `<html data-unify="a.html"><body><p>b</p></body></html>`,
	})

	_, err := New(cfg).Build(context.Background())
	require.Error(t, err)
	require.True(t, cascade.IsCircularDependency(err))
}

func TestBuild_SecondRunServedFromCache(t *testing.T) {
	cfg := testConfig(t)
	writeTree(t, cfg.Site.Root, map[string]string{
		"layouts/base.html": baseLayout,
		"index.html":        `<html data-unify="layouts/base.html"><body><div class="unify-content"><p>v1</p></div></body></html>`,
	})

	cache, err := buildcache.Open(":memory:")
	require.NoError(t, err)
	defer func() { _ = cache.Close() }()

	b := New(cfg)
	b.Cache = cache

	report, err := b.Build(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, report.Composed)

	report, err = b.Build(context.Background())
	require.NoError(t, err)
	require.Equal(t, 0, report.Composed)
	require.Equal(t, 1, report.Cached)
}

func TestBuild_LayoutEditInvalidatesCachedPage(t *testing.T) {
	cfg := testConfig(t)
	writeTree(t, cfg.Site.Root, map[string]string{
		"layouts/base.html": baseLayout,
		"index.html":        `<html data-unify="layouts/base.html"><body><div class="unify-content"><p>page</p></div></body></html>`,
	})

	cache, err := buildcache.Open(":memory:")
	require.NoError(t, err)
	defer func() { _ = cache.Close() }()

	b := New(cfg)
	b.Cache = cache

	_, err = b.Build(context.Background())
	require.NoError(t, err)

	writeTree(t, cfg.Site.Root, map[string]string{
		"layouts/base.html": `<html><head><title>Edited</title></head><body><main class="unify-content"></main></body></html>`,
	})

	report, err := b.Build(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, report.Composed)
	require.Contains(t, readOutput(t, cfg, "index.html"), "<title>Edited</title>")
}

func TestBuildPaths_TemplateChangeFansOutToDependents(t *testing.T) {
	cfg := testConfig(t)
	writeTree(t, cfg.Site.Root, map[string]string{
		"layouts/base.html": baseLayout,
		"index.html":        `<html data-unify="layouts/base.html"><body><div class="unify-content"><p>page</p></div></body></html>`,
		"plain.html":        `<p>plain</p>`,
	})

	cache, err := buildcache.Open(":memory:")
	require.NoError(t, err)
	defer func() { _ = cache.Close() }()

	b := New(cfg)
	b.Cache = cache

	_, err = b.Build(context.Background())
	require.NoError(t, err)

	writeTree(t, cfg.Site.Root, map[string]string{
		"layouts/base.html": `<html><head><title>New</title></head><body><main class="unify-content"></main></body></html>`,
	})

	report, err := b.BuildPaths(context.Background(), []string{"layouts/base.html"})
	require.NoError(t, err)
	require.Equal(t, 1, report.Composed)
	require.Contains(t, readOutput(t, cfg, "index.html"), "<title>New</title>")
}

func TestBuild_ScanFindingsReported(t *testing.T) {
	cfg := testConfig(t)
	cfg.Scan.Enabled = true
	writeTree(t, cfg.Site.Root, map[string]string{
		"index.html": `<html><body><a href="javascript:alert(1)">x</a></body></html>`,
	})

	report, err := New(cfg).Build(context.Background())
	require.NoError(t, err)
	require.NotEmpty(t, report.Findings)
	require.Equal(t, "javascript-url", report.Findings[0].Rule)
}

func TestBuild_ScanFailOnError(t *testing.T) {
	cfg := testConfig(t)
	cfg.Scan.Enabled = true
	cfg.Scan.FailOnError = true
	writeTree(t, cfg.Site.Root, map[string]string{
		"index.html": `<html><body><a href="javascript:alert(1)">x</a></body></html>`,
	})

	report, err := New(cfg).Build(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, report.Failed)
	require.Len(t, report.Errors, 1)
}

func TestBuild_CleanRemovesStaleOutput(t *testing.T) {
	cfg := testConfig(t)
	cfg.Build.Clean = true
	writeTree(t, cfg.Site.Root, map[string]string{"index.html": "<p>hi</p>"})

	stale := filepath.Join(cfg.Build.Output, "stale.html")
	require.NoError(t, os.MkdirAll(cfg.Build.Output, 0o755))
	require.NoError(t, os.WriteFile(stale, []byte("old"), 0o644))

	_, err := New(cfg).Build(context.Background())
	require.NoError(t, err)

	_, err = os.Stat(stale)
	require.True(t, os.IsNotExist(err))
}

func TestBuild_StampsCommitHashAndLastModified(t *testing.T) {
	cfg := testConfig(t)
	writeTree(t, cfg.Site.Root, map[string]string{
		"index.html": `<html><head><title>T</title></head><body><p>hi</p></body></html>`,
	})

	repo, err := gogit.PlainInit(cfg.Site.Root, false)
	require.NoError(t, err)
	wt, err := repo.Worktree()
	require.NoError(t, err)
	_, err = wt.Add("index.html")
	require.NoError(t, err)
	_, err = wt.Commit("initial", &gogit.CommitOptions{
		Author: &object.Signature{Name: "tester", Email: "t@example.com", When: time.Now()},
	})
	require.NoError(t, err)

	cfg.Build.GitMetadata = true
	b := New(cfg)
	src, err := gitmeta.Open(cfg.Site.Root)
	require.NoError(t, err)
	b.Git = src

	report, err := b.Build(context.Background())
	require.NoError(t, err)
	require.NotEmpty(t, report.CommitHash)
	require.False(t, report.Dirty)
	require.Equal(t, report.CommitHash, report.Pages[0].Meta.CommitHash)
	require.Contains(t, readOutput(t, cfg, "index.html"), `name="last-modified"`)

	writeTree(t, cfg.Site.Root, map[string]string{"index.html": `<p>edited</p>`})
	report, err = b.Build(context.Background())
	require.NoError(t, err)
	require.True(t, report.Dirty)
}

func TestSummaryLine(t *testing.T) {
	r := &Report{Composed: 3, Copied: 2, Failed: 1}
	require.Equal(t, "3 composed, 2 copied, 0 cached, 0 skipped, 1 failed", r.SummaryLine())
}
