package dom

import "strings"

// FindFirst returns the first node in document order (including n
// itself) for which pred returns true, or nil.
func FindFirst(n *Node, pred func(*Node) bool) *Node {
	var found *Node
	n.Walk(func(c *Node) bool {
		if found != nil {
			return false
		}
		if pred(c) {
			found = c
			return false
		}
		return true
	})
	return found
}

// FindAll returns every node in document order for which pred returns
// true, including n itself.
func FindAll(n *Node, pred func(*Node) bool) []*Node {
	var out []*Node
	n.Walk(func(c *Node) bool {
		if pred(c) {
			out = append(out, c)
		}
		return true
	})
	return out
}

// FindByTag returns the first element with the given tag, or nil.
func FindByTag(n *Node, tag string) *Node {
	return FindFirst(n, func(c *Node) bool { return c.IsElement(tag) })
}

// FindAllByTag returns all elements with the given tag in document order.
func FindAllByTag(n *Node, tag string) []*Node {
	return FindAll(n, func(c *Node) bool { return c.IsElement(tag) })
}

// FindSingleByTag returns the element with the given tag only when it
// is the sole occurrence within the subtree; otherwise nil.
func FindSingleByTag(n *Node, tag string) *Node {
	all := FindAllByTag(n, tag)
	if len(all) == 1 {
		return all[0]
	}
	return nil
}

// FindByClassPrefix returns all elements carrying at least one class
// token with the given prefix, in document order.
func FindByClassPrefix(n *Node, prefix string) []*Node {
	return FindAll(n, func(c *Node) bool {
		return ClassWithPrefix(c, prefix) != ""
	})
}

// ClassWithPrefix returns the element's first class token carrying the
// prefix, in attribute order, or "" when none matches. The first-token
// rule is the deterministic tie-break for elements tagged with more
// than one matching class.
func ClassWithPrefix(n *Node, prefix string) string {
	if n.Type != ElementNode {
		return ""
	}
	for _, c := range n.ClassList() {
		if strings.HasPrefix(c, prefix) {
			return c
		}
	}
	return ""
}

// FindByAttr returns the first element where the named attribute equals
// val, or nil.
func FindByAttr(n *Node, key, val string) *Node {
	return FindFirst(n, func(c *Node) bool {
		if c.Type != ElementNode {
			return false
		}
		v, ok := c.GetAttr(key)
		return ok && v == val
	})
}

// HasNonWhitespaceContent reports whether the node has any element
// child or any text child with non-whitespace content.
func HasNonWhitespaceContent(n *Node) bool {
	for _, c := range n.Children {
		switch c.Type {
		case ElementNode:
			return true
		case TextNode:
			if strings.TrimSpace(c.Data) != "" {
				return true
			}
		}
	}
	return false
}
