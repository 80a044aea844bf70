// Package frontmatter splits and parses the YAML frontmatter block of a
// markdown source file.
package frontmatter

import (
	"bytes"
	"errors"
	"fmt"

	"gopkg.in/yaml.v3"
)

// ErrMissingClosingDelimiter is returned when a frontmatter block opens
// but never closes.
var ErrMissingClosingDelimiter = errors.New("frontmatter: missing closing delimiter")

// Meta is the typed subset of frontmatter the build pipeline consumes.
// Unknown keys are preserved in Extra and emitted as meta elements.
type Meta struct {
	Title       string         `yaml:"title"`
	Description string         `yaml:"description"`
	Layout      string         `yaml:"layout"`
	Extra       map[string]any `yaml:",inline"`
}

// Split separates a `---` delimited YAML frontmatter block from the
// markdown body. When the document does not open with a delimiter, had
// is false and body is the full input.
func Split(content []byte) (raw []byte, body []byte, had bool, err error) {
	nl := detectNewline(content)
	open := []byte("---" + nl)
	if !bytes.HasPrefix(content, open) {
		return nil, content, false, nil
	}

	rest := content[len(open):]
	if bytes.HasPrefix(rest, open) {
		// Empty block: "---\n---\n".
		return []byte{}, rest[len(open):], true, nil
	}

	closeSeq := []byte(nl + "---" + nl)
	idx := bytes.Index(rest, closeSeq)
	if idx < 0 {
		return nil, nil, false, ErrMissingClosingDelimiter
	}
	return rest[:idx+len(nl)], rest[idx+len(closeSeq):], true, nil
}

// Parse unmarshals a raw frontmatter block into Meta.
func Parse(raw []byte) (Meta, error) {
	var m Meta
	if len(raw) == 0 {
		return m, nil
	}
	if err := yaml.Unmarshal(raw, &m); err != nil {
		return Meta{}, fmt.Errorf("frontmatter: %w", err)
	}
	return m, nil
}

func detectNewline(content []byte) string {
	if idx := bytes.IndexByte(content, '\n'); idx > 0 && content[idx-1] == '\r' {
		return "\r\n"
	}
	return "\n"
}
