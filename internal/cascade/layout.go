package cascade

import (
	"context"
	"fmt"
	"log/slog"

	"git.home.luguber.info/inful/unify/internal/dom"
	"git.home.luguber.info/inful/unify/internal/resolver"
)

// ChainResolver walks a page's declared layout chain outward, merging
// the accumulating result into each next-outer layout. The walk is an
// explicit loop with a depth counter independent of the cycle guard, so
// an over-deep but acyclic chain still fails deterministically.
type ChainResolver struct {
	Resolver resolver.FileResolver
	Stack    *ProcessingStack
	MaxDepth int
	Logger   *slog.Logger
}

func (r *ChainResolver) maxDepth() int {
	if r.MaxDepth > 0 {
		return r.MaxDepth
	}
	return DefaultMaxDepth
}

func (r *ChainResolver) logger() *slog.Logger {
	if r.Logger != nil {
		return r.Logger
	}
	return slog.Default()
}

// Process composes pageDoc against its layout chain. It returns the
// final document (the outermost layout, mutated), the collected layout
// heads ordered outermost first, and the layout paths pushed onto the
// stack. The caller pops those paths once every nested contribution
// (component resolution included) has been folded in.
func (r *ChainResolver) Process(ctx context.Context, pageDoc *dom.Node, pagePath string) (*dom.Node, []HeadData, []string, error) {
	current := pageDoc
	var heads []HeadData
	var pushed []string
	depth := 0

	layoutPath := LayoutRef(current)
	for layoutPath != "" {
		depth++
		if depth > r.maxDepth() {
			return nil, nil, pushed, &DepthExceededError{Source: pagePath, Depth: depth, Limit: r.maxDepth()}
		}
		if r.Stack.Has(layoutPath) {
			return nil, nil, pushed, &CircularDependencyError{Source: pagePath, Path: layoutPath, Chain: r.Stack.Chain()}
		}
		r.Stack.Push(layoutPath)
		pushed = append(pushed, layoutPath)

		text, err := r.Resolver.Resolve(ctx, layoutPath)
		if err != nil {
			return nil, nil, pushed, fmt.Errorf("layout %q referenced by %s: %w", layoutPath, pagePath, err)
		}
		layoutDoc, err := dom.Parse(text)
		if err != nil {
			return nil, nil, pushed, fmt.Errorf("layout %q referenced by %s: %w", layoutPath, pagePath, err)
		}

		// Read the parent reference before any mutation.
		nextPath := LayoutRef(layoutDoc)

		r.logger().Debug("merging into layout",
			slog.String("layout", layoutPath),
			slog.String("page", pagePath),
			slog.Int("depth", depth))

		// A middle layout's metadata must be visible before the final
		// merge: heads are ordered outermost first.
		heads = append([]HeadData{CollectHead(layoutDoc, layoutPath)}, heads...)

		mergeLevel(layoutDoc, current)
		current = layoutDoc
		layoutPath = nextPath
	}

	return current, heads, pushed, nil
}

// LayoutRef returns the layout path declared on the document root
// (<html>, or <body> when no html element exists), or "".
func LayoutRef(doc *dom.Node) string {
	if htmlEl := dom.FindByTag(doc, "html"); htmlEl != nil {
		if v, ok := htmlEl.GetAttr(RefAttr); ok {
			return v
		}
	}
	if body := dom.FindByTag(doc, "body"); body != nil {
		if v, ok := body.GetAttr(RefAttr); ok {
			return v
		}
	}
	return ""
}

// bodyOf returns the document's <body> element, or the document root
// itself for body-less fragments.
func bodyOf(doc *dom.Node) *dom.Node {
	if body := dom.FindByTag(doc, "body"); body != nil {
		return body
	}
	return doc
}

// mergeLevel merges one page (or previously merged result) into one
// layout. Exactly one placement strategy is active, selected by
// priority area > landmark > ordered fill; the `main` landmark
// exception of MatchLandmarks applies on top of area placement.
func mergeLevel(layoutDoc, pageDoc *dom.Node) {
	layoutBody := bodyOf(layoutDoc)
	pageBody := bodyOf(pageDoc)

	areas := ExtractAreas(pageBody)
	if areas.Len() > 0 {
		// First layout slot per key wins; duplicate layout slots with
		// the same key keep their default content.
		filled := make(map[string]bool)
		for _, slot := range dom.FindByClassPrefix(layoutBody, AreaPrefix) {
			key := dom.ClassWithPrefix(slot, AreaPrefix)
			if filled[key] {
				continue
			}
			if pageArea := areas.Get(key); pageArea != nil {
				MergeElements(slot, pageArea)
				filled[key] = true
			}
		}
		MatchLandmarks(layoutBody, pageBody, true)
		return
	}

	if pageHasLandmarks(pageBody) {
		MatchLandmarks(layoutBody, pageBody, false)
		return
	}

	OrderedFill(layoutBody, pageBody)
}
