package cascade

import (
	"errors"
	"fmt"
)

// CircularDependencyError reports a path that reappeared within one
// resolution chain. It is always fatal and must never be converted into
// a partial result by callers.
type CircularDependencyError struct {
	// Source is the file whose resolution detected the cycle.
	Source string
	// Path is the repeated layout or component path.
	Path string
	// Chain is the in-flight path list at detection time, for diagnostics.
	Chain []string
}

func (e *CircularDependencyError) Error() string {
	return fmt.Sprintf("circular dependency in %s: %q is already being resolved (chain: %v)",
		e.Source, e.Path, e.Chain)
}

// DepthExceededError reports a layout chain longer than the configured
// ceiling, independent of cycle detection.
type DepthExceededError struct {
	Source string
	Depth  int
	Limit  int
}

func (e *DepthExceededError) Error() string {
	return fmt.Sprintf("layout chain for %s exceeds maximum depth %d (reached %d)",
		e.Source, e.Limit, e.Depth)
}

// PlaceholderLoopError reports component resolution that failed to
// converge within the iteration ceiling. Defensive only: cycles are
// normally caught by CircularDependencyError first.
type PlaceholderLoopError struct {
	Source     string
	Iterations int
}

func (e *PlaceholderLoopError) Error() string {
	return fmt.Sprintf("component resolution for %s did not converge after %d iterations",
		e.Source, e.Iterations)
}

// IsCircularDependency reports whether err wraps a CircularDependencyError.
func IsCircularDependency(err error) bool {
	var target *CircularDependencyError
	return errors.As(err, &target)
}
