package frontmatter

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSplit_NoFrontmatter_ReturnsBodyOnly(t *testing.T) {
	input := []byte("# Title\n\nHello\n")

	raw, body, had, err := Split(input)
	require.NoError(t, err)
	require.False(t, had)
	require.Empty(t, raw)
	require.Equal(t, input, body)
}

func TestSplit_YAMLFrontmatter_SplitsBlockAndBody(t *testing.T) {
	input := []byte("---\ntitle: Home\n---\n# Title\n")

	raw, body, had, err := Split(input)
	require.NoError(t, err)
	require.True(t, had)
	require.Equal(t, []byte("title: Home\n"), raw)
	require.Equal(t, []byte("# Title\n"), body)
}

func TestSplit_MissingClosingDelimiter_ReturnsError(t *testing.T) {
	_, _, had, err := Split([]byte("---\ntitle: Home\n# Title\n"))
	require.False(t, had)
	require.True(t, errors.Is(err, ErrMissingClosingDelimiter))
}

func TestSplit_CRLF(t *testing.T) {
	raw, body, had, err := Split([]byte("---\r\ntitle: Home\r\n---\r\nbody\r\n"))
	require.NoError(t, err)
	require.True(t, had)
	require.Equal(t, []byte("title: Home\r\n"), raw)
	require.Equal(t, []byte("body\r\n"), body)
}

func TestSplit_EmptyBlock(t *testing.T) {
	raw, body, had, err := Split([]byte("---\n---\nbody\n"))
	require.NoError(t, err)
	require.True(t, had)
	require.Empty(t, raw)
	require.Equal(t, []byte("body\n"), body)
}

func TestParse_TypedAndExtraFields(t *testing.T) {
	m, err := Parse([]byte("title: Home\ndescription: front page\nlayout: layouts/base.html\nauthor: team\n"))
	require.NoError(t, err)
	require.Equal(t, "Home", m.Title)
	require.Equal(t, "front page", m.Description)
	require.Equal(t, "layouts/base.html", m.Layout)
	require.Equal(t, "team", m.Extra["author"])
}

func TestParse_InvalidYAML_Fails(t *testing.T) {
	_, err := Parse([]byte("title: [unclosed\n"))
	require.Error(t, err)
}

func TestParse_Empty_ReturnsZeroMeta(t *testing.T) {
	m, err := Parse(nil)
	require.NoError(t, err)
	require.Empty(t, m.Title)
	require.Empty(t, m.Layout)
}
