// Package resolver defines the single I/O boundary the composition
// engine depends on: fetching a referenced document by path.
package resolver

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// NotFoundError reports a path the resolver could not locate. Callers
// distinguish it from other failures with errors.As / IsNotFound.
type NotFoundError struct {
	Path string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("file not found: %s", e.Path)
}

// IsNotFound reports whether err wraps a NotFoundError.
func IsNotFound(err error) bool {
	var target *NotFoundError
	return errors.As(err, &target)
}

// FileResolver fetches the HTML text of a referenced document. It is
// the sole suspension point of a composition; implementations should
// honor ctx cancellation where fetching can block.
type FileResolver interface {
	Resolve(ctx context.Context, path string) (string, error)
}

// Disk resolves paths against a root directory on the local filesystem.
// References are treated as site-relative: they never escape the root.
type Disk struct {
	Root string
}

// NewDisk returns a resolver rooted at dir.
func NewDisk(dir string) *Disk {
	return &Disk{Root: dir}
}

// Resolve reads the referenced file, rejecting paths that escape the
// root after cleaning.
func (d *Disk) Resolve(ctx context.Context, path string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	rel := filepath.Clean("/" + filepath.FromSlash(path))
	full := filepath.Join(d.Root, rel)
	if !strings.HasPrefix(full, filepath.Clean(d.Root)+string(os.PathSeparator)) {
		return "", &NotFoundError{Path: path}
	}
	data, err := os.ReadFile(full)
	if err != nil {
		if os.IsNotExist(err) {
			return "", &NotFoundError{Path: path}
		}
		return "", fmt.Errorf("read %s: %w", path, err)
	}
	return string(data), nil
}

// Map is an in-memory resolver keyed by path, used in tests and by
// callers that assemble documents without a filesystem.
type Map map[string]string

func (m Map) Resolve(_ context.Context, path string) (string, error) {
	if text, ok := m[path]; ok {
		return text, nil
	}
	return "", &NotFoundError{Path: path}
}

// Recording wraps a FileResolver and records every successfully
// resolved path. The build pipeline uses it to capture the dependency
// edges of one composition for the build cache.
type Recording struct {
	Inner FileResolver
	paths []string
}

// NewRecording wraps inner with an empty recording.
func NewRecording(inner FileResolver) *Recording {
	return &Recording{Inner: inner}
}

func (r *Recording) Resolve(ctx context.Context, path string) (string, error) {
	text, err := r.Inner.Resolve(ctx, path)
	if err == nil {
		r.paths = append(r.paths, path)
	}
	return text, err
}

// Paths returns the resolved paths in resolution order, deduplicated.
func (r *Recording) Paths() []string {
	seen := make(map[string]bool, len(r.paths))
	var out []string
	for _, p := range r.paths {
		if !seen[p] {
			seen[p] = true
			out = append(out, p)
		}
	}
	return out
}
