package cascade

import (
	"strings"

	"git.home.luguber.info/inful/unify/internal/dom"
)

// IdMapping records page-id to host-id correspondences discovered at
// matching structural positions during a merge. It is used afterwards
// to rewrite `for` and `aria-*` references in the merged subtree so
// they keep pointing at the surviving host identifiers.
type IdMapping map[string]string

// MergeElements merges page into host in place. The host keeps its own
// tag name; nested nodes matched by position adopt the page's tag.
//
// Attributes: `id` keeps the host's value when present (identifier
// stability), otherwise adopts the page's; `class` becomes the ordered
// union of host tokens then new page tokens; every other page attribute
// overwrites the host's.
//
// Content: host and page element children are walked in parallel by
// position. Where both exist the same rule applies recursively. If the
// page node is a simple leaf (no children, or one text child) its text
// replaces the host's content directly. Element positions present only
// in the page are appended; element positions present only in the host
// are kept, so layout-only trailing children survive. Remaining
// non-empty page text nodes are appended after the indexed pass; other
// host text is replaced by page content.
func MergeElements(host, page *dom.Node) {
	ids := make(IdMapping)
	mergeInto(host, page, ids, false)
	rewriteIDRefs(host, ids)
}

func mergeInto(host, page *dom.Node, ids IdMapping, adoptTag bool) {
	if adoptTag {
		host.Data = page.Data
	}
	mergeAttributes(host, page, ids)

	if isSimpleLeaf(page) {
		children := make([]*dom.Node, 0, len(page.Children))
		for _, c := range page.Children {
			children = append(children, c.Clone())
		}
		host.ReplaceChildren(children...)
		return
	}
	mergeChildren(host, page, ids)
}

func mergeAttributes(host, page *dom.Node, ids IdMapping) {
	for _, a := range page.Attr {
		switch strings.ToLower(a.Key) {
		case "id":
			if hostID, ok := host.GetAttr("id"); ok && hostID != "" {
				if a.Val != "" && a.Val != hostID {
					ids[a.Val] = hostID
				}
			} else {
				host.SetAttr("id", a.Val)
			}
		case "class":
			tokens := host.ClassList()
			seen := make(map[string]bool, len(tokens))
			for _, t := range tokens {
				seen[t] = true
			}
			for _, t := range page.ClassList() {
				if !seen[t] {
					seen[t] = true
					tokens = append(tokens, t)
				}
			}
			host.SetClassList(tokens)
		default:
			host.SetAttr(a.Key, a.Val)
		}
	}
}

func mergeChildren(host, page *dom.Node, ids IdMapping) {
	hostEls := host.ElementChildren()
	pageEls := page.ElementChildren()

	merged := make([]*dom.Node, 0, len(hostEls)+len(pageEls))
	for i := 0; i < len(hostEls) || i < len(pageEls); i++ {
		switch {
		case i < len(hostEls) && i < len(pageEls):
			mergeInto(hostEls[i], pageEls[i], ids, true)
			merged = append(merged, hostEls[i])
		case i < len(pageEls):
			merged = append(merged, pageEls[i].Clone())
		default:
			// Layout-only trailing child: kept.
			merged = append(merged, hostEls[i])
		}
	}

	for _, c := range page.Children {
		if c.Type == dom.TextNode && strings.TrimSpace(c.Data) != "" {
			merged = append(merged, c.Clone())
		}
	}

	host.ReplaceChildren(merged...)
}

// isSimpleLeaf reports whether the page node carries plain text only:
// no children, or exactly one text child.
func isSimpleLeaf(n *dom.Node) bool {
	switch len(n.Children) {
	case 0:
		return true
	case 1:
		return n.Children[0].Type == dom.TextNode
	default:
		return false
	}
}

// rewriteIDRefs rewrites `for` and `aria-*` attribute values in the
// merged subtree wherever they reference a remapped page id. Values are
// treated as whitespace-separated id lists (aria-labelledby and
// friends take several).
func rewriteIDRefs(root *dom.Node, ids IdMapping) {
	if len(ids) == 0 {
		return
	}
	root.Walk(func(n *dom.Node) bool {
		if n.Type != dom.ElementNode {
			return true
		}
		for i, a := range n.Attr {
			key := strings.ToLower(a.Key)
			if key != "for" && !strings.HasPrefix(key, "aria-") {
				continue
			}
			tokens := strings.Fields(a.Val)
			changed := false
			for j, t := range tokens {
				if mapped, ok := ids[t]; ok {
					tokens[j] = mapped
					changed = true
				}
			}
			if changed {
				n.Attr[i].Val = strings.Join(tokens, " ")
			}
		}
		return true
	})
}
