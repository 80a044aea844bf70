package cascade

import (
	"git.home.luguber.info/inful/unify/internal/util/sets"
)

// ProcessingStack tracks the set of paths currently being resolved
// along one root-to-leaf composition chain. An entry exists from the
// moment resolution of its path starts until every nested contribution
// has been folded in.
//
// One stack belongs to exactly one top-level composition call. Sharing
// a stack across unrelated source files produces spurious
// circular-dependency errors, so callers building files concurrently
// must create one stack per file.
type ProcessingStack struct {
	members sets.Set[string]
	order   []string
}

// NewProcessingStack returns an empty stack.
func NewProcessingStack() *ProcessingStack {
	return &ProcessingStack{members: sets.New[string]()}
}

// Has reports whether path is currently being resolved.
func (s *ProcessingStack) Has(path string) bool {
	return s.members.Has(path)
}

// Push marks path as in flight.
func (s *ProcessingStack) Push(path string) {
	if s.members.Has(path) {
		return
	}
	s.members.Add(path)
	s.order = append(s.order, path)
}

// Pop removes path. Entries may be popped out of LIFO order because a
// layout stays in flight while its components resolve.
func (s *ProcessingStack) Pop(path string) {
	if !s.members.Has(path) {
		return
	}
	s.members.Delete(path)
	for i := len(s.order) - 1; i >= 0; i-- {
		if s.order[i] == path {
			s.order = append(s.order[:i], s.order[i+1:]...)
			return
		}
	}
}

// Chain returns the in-flight paths in push order, for error reporting.
func (s *ProcessingStack) Chain() []string {
	out := make([]string, len(s.order))
	copy(out, s.order)
	return out
}
