package cascade

import (
	"git.home.luguber.info/inful/unify/internal/dom"
)

// AreaSet holds extracted composition slots keyed by area class token,
// preserving first-seen order for deterministic downstream iteration.
type AreaSet struct {
	keys  []string
	nodes map[string]*dom.Node
}

// NewAreaSet returns an empty set.
func NewAreaSet() *AreaSet {
	return &AreaSet{nodes: make(map[string]*dom.Node)}
}

// Get returns the slot for key, or nil.
func (a *AreaSet) Get(key string) *dom.Node {
	return a.nodes[key]
}

// Has reports whether key is present.
func (a *AreaSet) Has(key string) bool {
	_, ok := a.nodes[key]
	return ok
}

// Keys returns the keys in first-seen order.
func (a *AreaSet) Keys() []string {
	out := make([]string, len(a.keys))
	copy(out, a.keys)
	return out
}

// Len returns the number of slots.
func (a *AreaSet) Len() int { return len(a.keys) }

func (a *AreaSet) put(key string, n *dom.Node) {
	if _, ok := a.nodes[key]; !ok {
		a.keys = append(a.keys, key)
	}
	a.nodes[key] = n
}

// ExtractAreas finds, removes, and returns the area slots of container.
//
// An element is an area iff one of its class tokens starts with
// AreaPrefix; the first matching token in attribute order is its key.
// Matched elements are detached from container. An area nested inside
// another area belongs to the outer one and is not extracted separately.
//
// Duplicate keys are combined, not overwritten: the first match is the
// base, later matches append their children, their non-class
// attributes overwrite (last wins), and class lists union.
//
// After extraction, if container still has non-whitespace content, no
// extracted area already claimed ContentKey, and no landmark elements
// remain in container, the remainder is moved into a synthetic <div>
// under ContentKey.
func ExtractAreas(container *dom.Node) *AreaSet {
	out := NewAreaSet()

	var matches []*dom.Node
	container.Walk(func(n *dom.Node) bool {
		if n == container {
			return true
		}
		if key := dom.ClassWithPrefix(n, AreaPrefix); key != "" {
			matches = append(matches, n)
			return false // outer area claims its subtree
		}
		return true
	})

	for _, m := range matches {
		key := dom.ClassWithPrefix(m, AreaPrefix)
		m.Detach()
		if existing := out.Get(key); existing != nil {
			combineArea(existing, m)
			continue
		}
		out.put(key, m.Clone())
	}

	if dom.HasNonWhitespaceContent(container) && !out.Has(ContentKey) && !containsLandmark(container) {
		synthetic := dom.NewElement("div", dom.Attribute{Key: "class", Val: ContentKey})
		rest := make([]*dom.Node, len(container.Children))
		copy(rest, container.Children)
		for _, c := range rest {
			c.Detach()
			synthetic.AppendChild(c)
		}
		out.put(ContentKey, synthetic)
	}

	return out
}

// combineArea folds a later duplicate match into the first match's clone.
func combineArea(base, later *dom.Node) {
	for _, c := range later.Children {
		base.AppendChild(c.Clone())
	}
	classes := base.ClassList()
	seen := make(map[string]bool, len(classes))
	for _, t := range classes {
		seen[t] = true
	}
	for _, a := range later.Attr {
		if a.Key == "class" {
			for _, t := range later.ClassList() {
				if !seen[t] {
					seen[t] = true
					classes = append(classes, t)
				}
			}
			continue
		}
		base.SetAttr(a.Key, a.Val)
	}
	base.SetClassList(classes)
}

// containsLandmark reports whether any landmark element exists in the
// subtree.
func containsLandmark(n *dom.Node) bool {
	for _, tag := range landmarkTags {
		if dom.FindByTag(n, tag) != nil {
			return true
		}
	}
	return false
}
