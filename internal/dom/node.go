// Package dom provides the minimal HTML tree the composition engine
// operates on: a tagged node type with ordered attributes and ordered
// children, a fragment-faithful parser, and a deterministic serializer.
//
// Unlike html.Parse from golang.org/x/net/html, parsing here never
// synthesizes implied <html>/<head>/<body> elements, so component
// fragments round-trip close to their source text.
package dom

import "strings"

// NodeType discriminates the node variants.
type NodeType int

const (
	DocumentNode NodeType = iota
	ElementNode
	TextNode
	CommentNode
	DoctypeNode
)

// Attribute is a single key/value pair. Order within an element is the
// order of appearance in the source.
type Attribute struct {
	Key string
	Val string
}

// Node is one node in the tree. Data holds the tag name for elements,
// the text for text and comment nodes, and the raw declaration for
// doctype nodes.
type Node struct {
	Type     NodeType
	Data     string
	Attr     []Attribute
	Parent   *Node
	Children []*Node
}

// NewElement creates a detached element node.
func NewElement(tag string, attrs ...Attribute) *Node {
	return &Node{Type: ElementNode, Data: tag, Attr: attrs}
}

// NewText creates a detached text node.
func NewText(text string) *Node {
	return &Node{Type: TextNode, Data: text}
}

// AppendChild adds c as the last child of n.
func (n *Node) AppendChild(c *Node) {
	c.Parent = n
	n.Children = append(n.Children, c)
}

// InsertBefore inserts c immediately before ref among n's children.
// If ref is not a child of n, c is appended.
func (n *Node) InsertBefore(c, ref *Node) {
	for i, ch := range n.Children {
		if ch == ref {
			c.Parent = n
			n.Children = append(n.Children[:i], append([]*Node{c}, n.Children[i:]...)...)
			return
		}
	}
	n.AppendChild(c)
}

// RemoveChild detaches c from n. A no-op when c is not a child of n.
func (n *Node) RemoveChild(c *Node) {
	for i, ch := range n.Children {
		if ch == c {
			n.Children = append(n.Children[:i], n.Children[i+1:]...)
			c.Parent = nil
			return
		}
	}
}

// Detach removes n from its parent, if any.
func (n *Node) Detach() {
	if n.Parent != nil {
		n.Parent.RemoveChild(n)
	}
}

// ReplaceChildren discards n's current children and adopts the given ones.
func (n *Node) ReplaceChildren(children ...*Node) {
	for _, c := range n.Children {
		c.Parent = nil
	}
	n.Children = n.Children[:0]
	for _, c := range children {
		n.AppendChild(c)
	}
}

// Clone returns a deep copy of n with a nil parent.
func (n *Node) Clone() *Node {
	out := &Node{Type: n.Type, Data: n.Data}
	if len(n.Attr) > 0 {
		out.Attr = make([]Attribute, len(n.Attr))
		copy(out.Attr, n.Attr)
	}
	for _, c := range n.Children {
		out.AppendChild(c.Clone())
	}
	return out
}

// Attr lookup helpers. Keys are compared case-insensitively, matching
// how HTML attribute names behave.

// GetAttr returns the value of the named attribute and whether it exists.
func (n *Node) GetAttr(key string) (string, bool) {
	for _, a := range n.Attr {
		if strings.EqualFold(a.Key, key) {
			return a.Val, true
		}
	}
	return "", false
}

// AttrOr returns the named attribute's value or def when absent.
func (n *Node) AttrOr(key, def string) string {
	if v, ok := n.GetAttr(key); ok {
		return v
	}
	return def
}

// SetAttr sets or replaces the named attribute, preserving its position
// if it already exists.
func (n *Node) SetAttr(key, val string) {
	for i, a := range n.Attr {
		if strings.EqualFold(a.Key, key) {
			n.Attr[i].Val = val
			return
		}
	}
	n.Attr = append(n.Attr, Attribute{Key: key, Val: val})
}

// DelAttr removes the named attribute if present.
func (n *Node) DelAttr(key string) {
	for i, a := range n.Attr {
		if strings.EqualFold(a.Key, key) {
			n.Attr = append(n.Attr[:i], n.Attr[i+1:]...)
			return
		}
	}
}

// ClassList returns the whitespace-separated class tokens in order.
func (n *Node) ClassList() []string {
	v, ok := n.GetAttr("class")
	if !ok {
		return nil
	}
	return strings.Fields(v)
}

// HasClass reports whether the element carries the exact class token.
func (n *Node) HasClass(token string) bool {
	for _, c := range n.ClassList() {
		if c == token {
			return true
		}
	}
	return false
}

// SetClassList replaces the class attribute from the given tokens.
// An empty list removes the attribute.
func (n *Node) SetClassList(tokens []string) {
	if len(tokens) == 0 {
		n.DelAttr("class")
		return
	}
	n.SetAttr("class", strings.Join(tokens, " "))
}

// IsElement reports whether n is an element with the given tag name.
func (n *Node) IsElement(tag string) bool {
	return n.Type == ElementNode && strings.EqualFold(n.Data, tag)
}

// ElementChildren returns n's child elements in order, skipping text
// and comment nodes.
func (n *Node) ElementChildren() []*Node {
	var out []*Node
	for _, c := range n.Children {
		if c.Type == ElementNode {
			out = append(out, c)
		}
	}
	return out
}

// Text returns the concatenated text content of the subtree.
func (n *Node) Text() string {
	var b strings.Builder
	n.Walk(func(c *Node) bool {
		if c.Type == TextNode {
			b.WriteString(c.Data)
		}
		return true
	})
	return b.String()
}

// IsWhitespaceText reports whether n is a text node containing only
// whitespace.
func (n *Node) IsWhitespaceText() bool {
	return n.Type == TextNode && strings.TrimSpace(n.Data) == ""
}

// Walk visits n and every descendant in document order. Returning false
// from fn skips the node's children.
func (n *Node) Walk(fn func(*Node) bool) {
	if !fn(n) {
		return
	}
	// Children may be mutated by fn; walk over a snapshot.
	snapshot := make([]*Node, len(n.Children))
	copy(snapshot, n.Children)
	for _, c := range snapshot {
		c.Walk(fn)
	}
}
