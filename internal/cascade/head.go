package cascade

import (
	"strings"

	"git.home.luguber.info/inful/unify/internal/dom"
)

// HeadData is the categorized extraction of one head source: the root
// layout, an intermediate layout, a component, or the page. Nodes are
// clones; collecting never mutates the source document.
type HeadData struct {
	// Source is the path the head came from, for diagnostics.
	Source string

	Title   *dom.Node // <title>, nil when absent
	Metas   []*dom.Node
	Styles  []*dom.Node // <style> and <link rel="stylesheet">
	Scripts []*dom.Node
	Others  []*dom.Node // remaining head elements (<base>, icon links, ...)

	// Placeholders are unresolved component references found inside the
	// head. They are carried through the merge, never dropped, and
	// spliced after the head is rebuilt.
	Placeholders []*dom.Node
}

// Empty reports whether the source contributed nothing.
func (h HeadData) Empty() bool {
	return h.Title == nil && len(h.Metas) == 0 && len(h.Styles) == 0 &&
		len(h.Scripts) == 0 && len(h.Others) == 0 && len(h.Placeholders) == 0
}

// CollectHead extracts HeadData from the document's <head>, if any.
func CollectHead(doc *dom.Node, source string) HeadData {
	out := HeadData{Source: source}
	head := dom.FindByTag(doc, "head")
	if head == nil {
		return out
	}
	for _, c := range head.ElementChildren() {
		categorizeHeadElement(&out, c)
	}
	return out
}

// CollectHeadFragment extracts HeadData from head-category elements
// appearing as top-level nodes of a headless fragment (components may
// contribute metadata without a literal <head>). Returns the remaining
// top-level elements that belong to the body context.
func CollectHeadFragment(els []*dom.Node, source string) (HeadData, []*dom.Node) {
	out := HeadData{Source: source}
	var body []*dom.Node
	for _, el := range els {
		if isHeadElement(el) {
			categorizeHeadElement(&out, el)
			continue
		}
		body = append(body, el)
	}
	return out, body
}

func isHeadElement(el *dom.Node) bool {
	switch el.Data {
	case "title", "meta", "style", "link", "script", "base":
		return true
	}
	return false
}

func categorizeHeadElement(out *HeadData, el *dom.Node) {
	if _, ok := el.GetAttr(RefAttr); ok {
		out.Placeholders = append(out.Placeholders, el.Clone())
		return
	}
	switch el.Data {
	case "title":
		out.Title = el.Clone()
	case "meta":
		out.Metas = append(out.Metas, el.Clone())
	case "style":
		out.Styles = append(out.Styles, el.Clone())
	case "link":
		if strings.EqualFold(el.AttrOr("rel", ""), "stylesheet") {
			out.Styles = append(out.Styles, el.Clone())
		} else {
			out.Others = append(out.Others, el.Clone())
		}
	case "script":
		out.Scripts = append(out.Scripts, el.Clone())
	default:
		out.Others = append(out.Others, el.Clone())
	}
}

// MergedHead is the result of merging every head source once.
type MergedHead struct {
	Title        *dom.Node
	Metas        []*dom.Node
	Styles       []*dom.Node
	Others       []*dom.Node
	Scripts      []*dom.Node
	Placeholders []*dom.Node
}

// Empty reports whether the merge produced nothing.
func (m MergedHead) Empty() bool {
	return m.Title == nil && len(m.Metas) == 0 && len(m.Styles) == 0 &&
		len(m.Others) == 0 && len(m.Scripts) == 0 && len(m.Placeholders) == 0
}

// MergeHeads merges head sources in cascade order: root layout first,
// then intermediate layouts outer to inner, then components, then the
// page last. Per-category rules:
//
//   - title: the last source with a title wins, so the page wins when
//     it has one.
//   - meta: dedup key is name|property|http-equiv|charset. The first
//     occurrence keeps its position, but a later source with the same
//     key replaces it in place. Metas without any key pass through.
//   - styles: external stylesheets dedup by href, inline styles by
//     exact trimmed text; order preserved for the CSS cascade.
//   - scripts: external dedup by src, inline by exact trimmed text.
//   - placeholders: carried through unresolved, never dropped.
func MergeHeads(sources []HeadData) MergedHead {
	var out MergedHead

	metaIndex := make(map[string]int)
	styleSeen := make(map[string]bool)
	scriptSeen := make(map[string]bool)
	otherSeen := make(map[string]bool)

	for _, src := range sources {
		if src.Title != nil {
			out.Title = src.Title
		}
		for _, m := range src.Metas {
			key := metaKey(m)
			if key == "" {
				out.Metas = append(out.Metas, m)
				continue
			}
			if idx, ok := metaIndex[key]; ok {
				out.Metas[idx] = m
				continue
			}
			metaIndex[key] = len(out.Metas)
			out.Metas = append(out.Metas, m)
		}
		for _, s := range src.Styles {
			key := styleKey(s)
			if key != "" && styleSeen[key] {
				continue
			}
			if key != "" {
				styleSeen[key] = true
			}
			out.Styles = append(out.Styles, s)
		}
		for _, s := range src.Scripts {
			key := scriptKey(s)
			if key != "" && scriptSeen[key] {
				continue
			}
			if key != "" {
				scriptSeen[key] = true
			}
			out.Scripts = append(out.Scripts, s)
		}
		for _, o := range src.Others {
			key := dom.Serialize(o)
			if otherSeen[key] {
				continue
			}
			otherSeen[key] = true
			out.Others = append(out.Others, o)
		}
		out.Placeholders = append(out.Placeholders, src.Placeholders...)
	}

	return out
}

// metaKey derives the dedup key for a meta element, or "" for keyless
// metas that pass through unconditionally.
func metaKey(m *dom.Node) string {
	for _, attr := range []string{"name", "property", "http-equiv"} {
		if v, ok := m.GetAttr(attr); ok && v != "" {
			return attr + ":" + strings.ToLower(v)
		}
	}
	if _, ok := m.GetAttr("charset"); ok {
		return "charset"
	}
	return ""
}

func styleKey(s *dom.Node) string {
	if s.Data == "link" {
		if href, ok := s.GetAttr("href"); ok && href != "" {
			return "href:" + href
		}
		return ""
	}
	if text := strings.TrimSpace(s.Text()); text != "" {
		return "inline:" + text
	}
	return ""
}

func scriptKey(s *dom.Node) string {
	if src, ok := s.GetAttr("src"); ok && src != "" {
		return "src:" + src
	}
	if text := strings.TrimSpace(s.Text()); text != "" {
		return "inline:" + text
	}
	return ""
}

// RewriteHead clears the document's <head> and rebuilds it from the
// merged result, creating the head element if the document lacks one.
// Unresolved placeholders are emitted last so a later splicing pass can
// find them in place.
func RewriteHead(doc *dom.Node, merged MergedHead) {
	head := dom.FindByTag(doc, "head")
	if head == nil {
		if merged.Empty() {
			return
		}
		head = dom.NewElement("head")
		parent := doc
		if htmlEl := dom.FindByTag(doc, "html"); htmlEl != nil {
			parent = htmlEl
		}
		if body := dom.FindByTag(parent, "body"); body != nil && body.Parent == parent {
			parent.InsertBefore(head, body)
		} else {
			parent.AppendChild(head)
		}
	}

	head.ReplaceChildren()
	appendIndented := func(n *dom.Node) {
		head.AppendChild(dom.NewText("\n  "))
		head.AppendChild(n)
	}
	if merged.Title != nil {
		appendIndented(merged.Title)
	}
	for _, n := range merged.Metas {
		appendIndented(n)
	}
	for _, n := range merged.Styles {
		appendIndented(n)
	}
	for _, n := range merged.Others {
		appendIndented(n)
	}
	for _, n := range merged.Scripts {
		appendIndented(n)
	}
	for _, n := range merged.Placeholders {
		appendIndented(n)
	}
	if len(head.Children) > 0 {
		head.AppendChild(dom.NewText("\n"))
	}
}
