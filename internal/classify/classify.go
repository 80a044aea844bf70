// Package classify routes source files: each path is composed, copied
// verbatim, or skipped before the composition engine ever sees it.
package classify

import (
	"path"
	"strings"
)

// Action is the routing decision for one source path.
type Action int

const (
	// Skip excludes the file from the build entirely.
	Skip Action = iota
	// Copy places the file in the output tree unchanged.
	Copy
	// Compose routes the file through the composition engine.
	Compose
)

func (a Action) String() string {
	switch a {
	case Copy:
		return "copy"
	case Compose:
		return "compose"
	default:
		return "skip"
	}
}

// Classifier routes slash-separated site-relative paths.
type Classifier struct {
	// TemplateDirs are directories holding layouts and components;
	// their files feed composition indirectly and are never built as
	// pages.
	TemplateDirs []string
	// Exclude are additional glob patterns ("**" spans directories).
	Exclude []string
}

// Default returns a classifier with the conventional template dirs.
func Default() *Classifier {
	return &Classifier{TemplateDirs: []string{"layouts", "components"}}
}

var composeExts = map[string]bool{
	".html": true, ".htm": true, ".md": true, ".markdown": true,
}

// Classify decides the action for one source path.
func (c *Classifier) Classify(p string) Action {
	p = path.Clean(strings.TrimPrefix(p, "/"))
	segments := strings.Split(p, "/")

	for _, seg := range segments {
		if strings.HasPrefix(seg, ".") || strings.HasPrefix(seg, "_") {
			return Skip
		}
	}
	for _, dir := range c.TemplateDirs {
		if segments[0] == dir {
			return Skip
		}
	}
	for _, pattern := range c.Exclude {
		if MatchGlob(pattern, p) {
			return Skip
		}
	}

	if composeExts[strings.ToLower(path.Ext(p))] {
		return Compose
	}
	return Copy
}

// IsMarkdown reports whether the path needs the markdown preprocessor.
func IsMarkdown(p string) bool {
	switch strings.ToLower(path.Ext(p)) {
	case ".md", ".markdown":
		return true
	}
	return false
}

// MatchGlob matches a slash-separated path against a glob pattern.
// Single segments follow path.Match semantics; a "**" segment spans any
// number of directories, including none.
func MatchGlob(pattern, p string) bool {
	return matchSegments(strings.Split(pattern, "/"), strings.Split(p, "/"))
}

func matchSegments(pattern, segments []string) bool {
	if len(pattern) == 0 {
		return len(segments) == 0
	}
	if pattern[0] == "**" {
		for i := 0; i <= len(segments); i++ {
			if matchSegments(pattern[1:], segments[i:]) {
				return true
			}
		}
		return false
	}
	if len(segments) == 0 {
		return false
	}
	ok, err := path.Match(pattern[0], segments[0])
	if err != nil || !ok {
		return false
	}
	return matchSegments(pattern[1:], segments[1:])
}
