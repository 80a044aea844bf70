// Package urls maps source paths to output paths and stable slugs.
package urls

import (
	"path"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Mapper rewrites site-relative source paths to output paths.
type Mapper struct {
	// Pretty rewrites page.html to page/index.html so pages serve
	// without an extension.
	Pretty bool
}

// OutputPath returns the output location for a composed page. Markdown
// sources always land as .html; with Pretty enabled path segments are
// slug-folded and non-index pages move into a directory of their own.
func (m *Mapper) OutputPath(src string) string {
	src = path.Clean(strings.TrimPrefix(src, "/"))
	ext := strings.ToLower(path.Ext(src))
	base := strings.TrimSuffix(src, path.Ext(src))

	switch ext {
	case ".md", ".markdown", ".htm":
		ext = ".html"
	}
	if ext != ".html" {
		return src
	}
	if !m.Pretty {
		return base + ".html"
	}
	base = foldPath(base)
	if path.Base(base) == "index" {
		return base + ".html"
	}
	return base + "/index.html"
}

// foldPath slugs each path segment. Segments that fold away entirely
// (".." and the like) are kept verbatim.
func foldPath(p string) string {
	segments := strings.Split(p, "/")
	for i, seg := range segments {
		if folded := Slug(seg); folded != "" {
			segments[i] = folded
		}
	}
	return strings.Join(segments, "/")
}

// PageURL returns the canonical URL path for an output path.
func (m *Mapper) PageURL(out string) string {
	u := "/" + strings.TrimPrefix(out, "/")
	u = strings.TrimSuffix(u, "index.html")
	if u == "" {
		return "/"
	}
	return u
}

// RewriteHref maps an internal document link to its pretty form:
// page.html becomes page/, directory indexes collapse to the directory,
// segments fold the same way OutputPath folds them. External links,
// anchors, and non-HTML targets pass through untouched.
func (m *Mapper) RewriteHref(href string) string {
	if !m.Pretty || href == "" {
		return href
	}
	if strings.Contains(href, "://") || strings.HasPrefix(href, "#") ||
		strings.HasPrefix(href, "mailto:") || strings.HasPrefix(href, "//") {
		return href
	}

	base, fragment, hasFragment := strings.Cut(href, "#")
	if !strings.HasSuffix(strings.ToLower(base), ".html") {
		return href
	}
	if name := path.Base(base); name == "index.html" {
		base = strings.TrimSuffix(base, "index.html")
		if base == "" {
			base = "./"
		} else {
			base = foldPath(strings.TrimSuffix(base, "/")) + "/"
		}
	} else {
		base = foldPath(strings.TrimSuffix(base, path.Ext(base))) + "/"
	}
	if hasFragment {
		return base + "#" + fragment
	}
	return base
}

var stripMarks = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Slug folds a title into a lowercase ASCII slug. Diacritics are
// stripped, runs of non-alphanumerics collapse to single hyphens.
func Slug(title string) string {
	folded, _, err := transform.String(stripMarks, title)
	if err != nil {
		folded = title
	}

	var b strings.Builder
	lastHyphen := true
	for _, r := range strings.ToLower(folded) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastHyphen = false
		case !lastHyphen:
			b.WriteByte('-')
			lastHyphen = true
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}
