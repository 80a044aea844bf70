package gitmeta

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/require"
)

func initRepo(t *testing.T) (string, *gogit.Worktree) {
	t.Helper()
	dir := t.TempDir()
	repo, err := gogit.PlainInit(dir, false)
	require.NoError(t, err)
	wt, err := repo.Worktree()
	require.NoError(t, err)
	return dir, wt
}

func commitFile(t *testing.T, dir string, wt *gogit.Worktree, name, content, msg string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(filepath.Join(dir, name)), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
	_, err := wt.Add(name)
	require.NoError(t, err)
	_, err = wt.Commit(msg, &gogit.CommitOptions{
		Author: &object.Signature{Name: "tester", Email: "t@example.com", When: time.Now()},
	})
	require.NoError(t, err)
}

func TestLookup_ReturnsLastCommitMetadata(t *testing.T) {
	dir, wt := initRepo(t)
	commitFile(t, dir, wt, "docs/page.html", "<p>v1</p>", "add page")
	commitFile(t, dir, wt, "docs/page.html", "<p>v2</p>", "update page")

	src, err := Open(dir)
	require.NoError(t, err)

	meta, err := src.Lookup("docs/page.html")
	require.NoError(t, err)
	require.Equal(t, "tester", meta.LastAuthor)
	require.False(t, meta.LastModified.IsZero())
	require.NotEmpty(t, meta.CommitHash)
	require.Equal(t, src.Head(), meta.CommitHash)
}

func TestLookup_UntrackedFile_ZeroMeta(t *testing.T) {
	dir, wt := initRepo(t)
	commitFile(t, dir, wt, "index.html", "<p>hi</p>", "initial")

	src, err := Open(dir)
	require.NoError(t, err)

	meta, err := src.Lookup("missing.html")
	require.NoError(t, err)
	require.True(t, meta.LastModified.IsZero())
}

func TestOpen_SiteInSubdirectory_PrefixesLookups(t *testing.T) {
	dir, wt := initRepo(t)
	commitFile(t, dir, wt, "site/index.html", "<p>hi</p>", "initial")

	src, err := Open(filepath.Join(dir, "site"))
	require.NoError(t, err)

	meta, err := src.Lookup("index.html")
	require.NoError(t, err)
	require.Equal(t, "tester", meta.LastAuthor)
}

func TestOpen_OutsideRepository_ErrNoRepository(t *testing.T) {
	_, err := Open(t.TempDir())
	require.ErrorIs(t, err, ErrNoRepository)
}

func TestDirty_DetectsUncommittedChanges(t *testing.T) {
	dir, wt := initRepo(t)
	commitFile(t, dir, wt, "index.html", "<p>hi</p>", "initial")

	src, err := Open(dir)
	require.NoError(t, err)

	dirty, err := src.Dirty()
	require.NoError(t, err)
	require.False(t, dirty)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "index.html"), []byte("<p>edited</p>"), 0o644))

	dirty, err = src.Dirty()
	require.NoError(t, err)
	require.True(t, dirty)
}
