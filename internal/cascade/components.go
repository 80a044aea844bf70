package cascade

import (
	"context"
	"fmt"
	"log/slog"

	"git.home.luguber.info/inful/unify/internal/dom"
	"git.home.luguber.info/inful/unify/internal/resolver"
)

// Importer resolves non-root composition placeholders into spliced
// component fragments. Resolution is an explicit iterative loop bounded
// by MaxIterations; failing to converge is a PlaceholderLoopError.
type Importer struct {
	Resolver      resolver.FileResolver
	Stack         *ProcessingStack
	MaxIterations int
	Logger        *slog.Logger
}

func (im *Importer) maxIterations() int {
	if im.MaxIterations > 0 {
		return im.MaxIterations
	}
	return DefaultMaxIterations
}

func (im *Importer) logger() *slog.Logger {
	if im.Logger != nil {
		return im.Logger
	}
	return slog.Default()
}

// ResolveBody resolves every placeholder outside the document's head,
// in document order, and returns the head contributions of the spliced
// components in splice order.
func (im *Importer) ResolveBody(ctx context.Context, doc *dom.Node, sourcePath string) ([]HeadData, error) {
	var heads []HeadData
	limit := im.maxIterations()

	for iter := 0; ; iter++ {
		if iter >= limit {
			return nil, &PlaceholderLoopError{Source: sourcePath, Iterations: iter}
		}
		ph := findPlaceholder(doc, true)
		if ph == nil {
			return heads, nil
		}
		head, err := im.splice(ctx, ph, sourcePath, false)
		if err != nil {
			return nil, err
		}
		if !head.Empty() {
			heads = append(heads, head)
		}
	}
}

// ResolveHead resolves placeholders that were carried through the head
// merge and now sit inside the rebuilt <head>. Component content is
// spliced in place of each placeholder; in head context every top-level
// component element is spliced, head-category ones included.
func (im *Importer) ResolveHead(ctx context.Context, head *dom.Node, sourcePath string) error {
	limit := im.maxIterations()
	for iter := 0; ; iter++ {
		if iter >= limit {
			return &PlaceholderLoopError{Source: sourcePath, Iterations: iter}
		}
		ph := findPlaceholder(head, false)
		if ph == nil {
			return nil
		}
		if _, err := im.splice(ctx, ph, sourcePath, true); err != nil {
			return err
		}
	}
}

// splice fetches the placeholder's component and replaces the
// placeholder with the component's body-context elements, each
// independently area-matched against the placeholder's host areas.
// Returns the component's head contribution (empty in head context,
// where head-category elements land in place instead).
func (im *Importer) splice(ctx context.Context, ph *dom.Node, sourcePath string, headContext bool) (HeadData, error) {
	path, _ := ph.GetAttr(RefAttr)
	if path == "" {
		// Marker without a path carries nothing to import.
		ph.DelAttr(RefAttr)
		return HeadData{}, nil
	}

	if im.Stack.Has(path) {
		return HeadData{}, &CircularDependencyError{Source: sourcePath, Path: path, Chain: im.Stack.Chain()}
	}
	im.Stack.Push(path)
	text, err := im.Resolver.Resolve(ctx, path)
	im.Stack.Pop(path)
	if err != nil {
		return HeadData{}, fmt.Errorf("component %q referenced by %s: %w", path, sourcePath, err)
	}

	comp, err := dom.Parse(text)
	if err != nil {
		return HeadData{}, fmt.Errorf("component %q referenced by %s: %w", path, sourcePath, err)
	}

	var head HeadData
	var bodyEls []*dom.Node
	switch {
	case headContext:
		bodyEls = componentTopLevel(comp)
	case dom.FindByTag(comp, "head") != nil:
		head = CollectHead(comp, path)
		bodyEls = componentTopLevel(comp)
	default:
		// Headless fragment: head-category elements found as direct
		// children count as the head contribution and are never
		// spliced into the body.
		head, bodyEls = CollectHeadFragment(componentTopLevel(comp), path)
	}

	im.logger().Debug("splicing component",
		slog.String("component", path),
		slog.String("source", sourcePath),
		slog.Int("elements", len(bodyEls)))

	// Page-authored overrides for the component's internal slots.
	hostAreas := ExtractAreas(ph)

	parent := ph.Parent
	for _, el := range bodyEls {
		clone := el.Clone()
		stripComments(clone)
		applyHostAreas(clone, hostAreas)
		parent.InsertBefore(clone, ph)
	}
	ph.Detach()
	return head, nil
}

// componentTopLevel returns the component's body-context base elements:
// the children of its <body> when the component is a full document,
// otherwise its top-level elements with any html/head wrapper skipped.
func componentTopLevel(comp *dom.Node) []*dom.Node {
	if body := dom.FindByTag(comp, "body"); body != nil {
		return body.ElementChildren()
	}
	var out []*dom.Node
	for _, el := range comp.ElementChildren() {
		switch el.Data {
		case "html":
			out = append(out, nonHeadChildren(el)...)
		case "head":
			// filtered: head elements are never spliced into the body
		default:
			out = append(out, el)
		}
	}
	return out
}

func nonHeadChildren(el *dom.Node) []*dom.Node {
	var out []*dom.Node
	for _, c := range el.ElementChildren() {
		if c.Data != "head" {
			out = append(out, c)
		}
	}
	return out
}

// applyHostAreas substitutes captured host areas into any matching
// area-classed element of the spliced clone.
func applyHostAreas(root *dom.Node, areas *AreaSet) {
	if areas.Len() == 0 {
		return
	}
	for _, el := range dom.FindByClassPrefix(root, AreaPrefix) {
		key := dom.ClassWithPrefix(el, AreaPrefix)
		if override := areas.Get(key); override != nil {
			MergeElements(el, override)
		}
	}
}

// findPlaceholder returns the first element in document order carrying
// the composition attribute, excluding document roots (html/body carry
// layout references, not placeholders). With skipHead set, elements
// inside <head> are left for the dedicated head pass.
func findPlaceholder(scope *dom.Node, skipHead bool) *dom.Node {
	var found *dom.Node
	scope.Walk(func(n *dom.Node) bool {
		if found != nil {
			return false
		}
		if n.Type != dom.ElementNode {
			return true
		}
		switch n.Data {
		case "html":
			return true
		case "head":
			return !skipHead
		case "body":
			return true
		}
		if _, ok := n.GetAttr(RefAttr); ok {
			found = n
			return false
		}
		return true
	})
	return found
}

// stripComments removes comment nodes from the subtree recursively.
func stripComments(root *dom.Node) {
	for _, c := range dom.FindAll(root, func(n *dom.Node) bool {
		return n.Type == dom.CommentNode
	}) {
		c.Detach()
	}
}
