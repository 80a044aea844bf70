package cascade

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"git.home.luguber.info/inful/unify/internal/dom"
	"git.home.luguber.info/inful/unify/internal/resolver"
)

// Orchestrator is the top-level composition entry point. It classifies
// the input (no-op, layout-driven, or components-only) and drives the
// pipeline: layout chain walk, body component resolution, one head
// merge, head-scoped placeholder splicing, and marker cleanup.
type Orchestrator struct {
	Resolver      resolver.FileResolver
	MaxDepth      int
	MaxIterations int
	Logger        *slog.Logger
}

// New returns an orchestrator with default ceilings.
func New(res resolver.FileResolver) *Orchestrator {
	return &Orchestrator{Resolver: res}
}

func (o *Orchestrator) logger() *slog.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	return slog.Default()
}

// Compose composes htmlText against its declared layout chain and
// components, returning the final HTML. A document without any
// composition attribute is returned byte-identical.
//
// The stack tracks in-flight paths for one root-to-leaf chain. Pass nil
// for a fresh top-level call; never share one stack across unrelated
// source files.
func (o *Orchestrator) Compose(ctx context.Context, htmlText, sourcePath string, stack *ProcessingStack) (string, error) {
	// Cheap precheck before paying for a parse.
	if !strings.Contains(htmlText, RefAttr) {
		return htmlText, nil
	}

	doc, err := dom.Parse(htmlText)
	if err != nil {
		return "", fmt.Errorf("parse %s: %w", sourcePath, err)
	}
	if !hasRefAttr(doc) {
		// The marker only appeared in text or comments.
		return htmlText, nil
	}

	if stack == nil {
		stack = NewProcessingStack()
	}
	stack.Push(sourcePath)
	defer stack.Pop(sourcePath)

	chain := &ChainResolver{Resolver: o.Resolver, Stack: stack, MaxDepth: o.MaxDepth, Logger: o.Logger}
	importer := &Importer{Resolver: o.Resolver, Stack: stack, MaxIterations: o.MaxIterations, Logger: o.Logger}

	pageHead := CollectHead(doc, sourcePath)
	rootRef := LayoutRef(doc)

	composed := doc
	var layoutHeads []HeadData
	var pushed []string
	defer func() {
		for _, p := range pushed {
			stack.Pop(p)
		}
	}()

	if rootRef != "" {
		composed, layoutHeads, pushed, err = chain.Process(ctx, doc, sourcePath)
		if err != nil {
			return "", err
		}
	} else {
		o.logger().Debug("no layout reference, resolving components only",
			slog.String("source", sourcePath))
	}

	componentHeads, err := importer.ResolveBody(ctx, composed, sourcePath)
	if err != nil {
		return "", err
	}

	// Every head source is collected exactly once and merged exactly
	// once: root layout, intermediate layouts, components, page. The
	// page's own head placeholders force the pass even when nothing
	// else contributed, so a head-only reference still resolves.
	if rootRef != "" || len(componentHeads) > 0 || len(pageHead.Placeholders) > 0 {
		sources := make([]HeadData, 0, len(layoutHeads)+len(componentHeads)+1)
		sources = append(sources, layoutHeads...)
		sources = append(sources, componentHeads...)
		sources = append(sources, pageHead)
		RewriteHead(composed, MergeHeads(sources))

		if head := dom.FindByTag(composed, "head"); head != nil {
			if err := importer.ResolveHead(ctx, head, sourcePath); err != nil {
				return "", err
			}
		}
	}

	stripRefAttrs(composed)
	return dom.Serialize(composed), nil
}

// hasRefAttr reports whether any element in the document carries the
// composition attribute.
func hasRefAttr(doc *dom.Node) bool {
	return dom.FindFirst(doc, func(n *dom.Node) bool {
		if n.Type != dom.ElementNode {
			return false
		}
		_, ok := n.GetAttr(RefAttr)
		return ok
	}) != nil
}

// stripRefAttrs removes leftover composition markers from the final
// tree. Cleanup is the orchestrator's responsibility, not any
// individual merge step's.
func stripRefAttrs(doc *dom.Node) {
	doc.Walk(func(n *dom.Node) bool {
		if n.Type == dom.ElementNode {
			n.DelAttr(RefAttr)
		}
		return true
	})
}
