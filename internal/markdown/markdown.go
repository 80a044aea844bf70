// Package markdown preprocesses markdown sources into HTML pages the
// composition engine can consume: frontmatter becomes head metadata and
// a layout reference, the rendered body becomes the page body.
package markdown

import (
	"bytes"
	"fmt"
	"sort"
	"strings"

	"github.com/yuin/goldmark"
	"golang.org/x/net/html"

	"git.home.luguber.info/inful/unify/internal/frontmatter"
)

// Page is the result of preprocessing one markdown source.
type Page struct {
	// HTML is the full page document, ready for composition.
	HTML string
	// Meta is the parsed frontmatter.
	Meta frontmatter.Meta
}

// Preprocess converts a markdown source file into a composable HTML
// page. A `layout:` frontmatter key becomes the composition reference
// on the page root; title, description, and extra keys become head
// elements.
func Preprocess(src []byte, sourcePath string) (Page, error) {
	raw, body, _, err := frontmatter.Split(src)
	if err != nil {
		return Page{}, fmt.Errorf("%s: %w", sourcePath, err)
	}
	meta, err := frontmatter.Parse(raw)
	if err != nil {
		return Page{}, fmt.Errorf("%s: %w", sourcePath, err)
	}

	var rendered bytes.Buffer
	if err := goldmark.New().Convert(body, &rendered); err != nil {
		return Page{}, fmt.Errorf("render markdown %s: %w", sourcePath, err)
	}

	var b strings.Builder
	b.WriteString("<!DOCTYPE html>\n")
	if meta.Layout != "" {
		fmt.Fprintf(&b, "<html data-unify=%q>\n", meta.Layout)
	} else {
		b.WriteString("<html>\n")
	}
	b.WriteString("<head>\n")
	if meta.Title != "" {
		fmt.Fprintf(&b, "  <title>%s</title>\n", html.EscapeString(meta.Title))
	}
	if meta.Description != "" {
		fmt.Fprintf(&b, "  <meta name=\"description\" content=%q>\n", html.EscapeString(meta.Description))
	}
	for _, k := range sortedExtraKeys(meta) {
		fmt.Fprintf(&b, "  <meta name=%q content=%q>\n",
			html.EscapeString(k), html.EscapeString(fmt.Sprint(meta.Extra[k])))
	}
	b.WriteString("</head>\n<body>\n")
	b.Write(rendered.Bytes())
	b.WriteString("</body>\n</html>\n")

	return Page{HTML: b.String(), Meta: meta}, nil
}

func sortedExtraKeys(meta frontmatter.Meta) []string {
	keys := make([]string, 0, len(meta.Extra))
	for k := range meta.Extra {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
