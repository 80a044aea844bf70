package buildcache

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func newCache(t *testing.T) *Cache {
	t.Helper()
	c, err := Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestStale_UnknownPath_IsStale(t *testing.T) {
	c := newCache(t)

	stale, err := c.Stale(context.Background(), "docs/a.html", Hash([]byte("x")))
	require.NoError(t, err)
	require.True(t, stale)
}

func TestStale_RecordedHash_IsFresh(t *testing.T) {
	c := newCache(t)
	ctx := context.Background()
	h := Hash([]byte("content"))

	require.NoError(t, c.Record(ctx, NewBuildID(), "docs/a.html", h, nil))

	stale, err := c.Stale(ctx, "docs/a.html", h)
	require.NoError(t, err)
	require.False(t, stale)

	stale, err = c.Stale(ctx, "docs/a.html", Hash([]byte("changed")))
	require.NoError(t, err)
	require.True(t, stale)
}

func TestRecord_ReplacesDependencyEdges(t *testing.T) {
	c := newCache(t)
	ctx := context.Background()
	id := NewBuildID()

	require.NoError(t, c.Record(ctx, id, "a.html", Hash([]byte("a")), []string{"layouts/base.html", "components/nav.html"}))
	require.NoError(t, c.Record(ctx, id, "b.html", Hash([]byte("b")), []string{"layouts/base.html"}))

	pages, err := c.Dependents(ctx, "layouts/base.html")
	require.NoError(t, err)
	require.Equal(t, []string{"a.html", "b.html"}, pages)

	// Re-record a.html without the nav dependency.
	require.NoError(t, c.Record(ctx, id, "a.html", Hash([]byte("a2")), []string{"layouts/base.html"}))

	pages, err = c.Dependents(ctx, "components/nav.html")
	require.NoError(t, err)
	require.Empty(t, pages)

	deps, err := c.Deps(ctx, "a.html")
	require.NoError(t, err)
	require.Equal(t, []string{"layouts/base.html"}, deps)
}

func TestInvalidate_MakesPagesStaleAgain(t *testing.T) {
	c := newCache(t)
	ctx := context.Background()
	h := Hash([]byte("a"))

	require.NoError(t, c.Record(ctx, NewBuildID(), "a.html", h, nil))
	require.NoError(t, c.Invalidate(ctx, []string{"a.html"}))

	stale, err := c.Stale(ctx, "a.html", h)
	require.NoError(t, err)
	require.True(t, stale)
}

func TestNewBuildID_Unique(t *testing.T) {
	require.NotEqual(t, NewBuildID(), NewBuildID())
}
