package dom

import (
	"strings"

	"golang.org/x/net/html"
)

// rawTextElements hold text that is serialized verbatim, unescaped.
var rawTextElements = map[string]bool{
	"script": true, "style": true,
}

// Serialize renders the tree back to HTML text. Output is fully
// deterministic: attribute and child order are preserved as stored.
func Serialize(n *Node) string {
	var b strings.Builder
	serialize(&b, n, false)
	return b.String()
}

func serialize(b *strings.Builder, n *Node, raw bool) {
	switch n.Type {
	case DocumentNode:
		for _, c := range n.Children {
			serialize(b, c, false)
		}
	case TextNode:
		if raw {
			b.WriteString(n.Data)
		} else {
			b.WriteString(html.EscapeString(n.Data))
		}
	case CommentNode:
		b.WriteString("<!--")
		b.WriteString(n.Data)
		b.WriteString("-->")
	case DoctypeNode:
		b.WriteString("<!DOCTYPE ")
		b.WriteString(n.Data)
		b.WriteString(">")
	case ElementNode:
		b.WriteString("<")
		b.WriteString(n.Data)
		for _, a := range n.Attr {
			b.WriteString(" ")
			b.WriteString(a.Key)
			b.WriteString(`="`)
			b.WriteString(html.EscapeString(a.Val))
			b.WriteString(`"`)
		}
		b.WriteString(">")
		if voidElements[n.Data] {
			return
		}
		childRaw := rawTextElements[n.Data]
		for _, c := range n.Children {
			serialize(b, c, childRaw)
		}
		b.WriteString("</")
		b.WriteString(n.Data)
		b.WriteString(">")
	}
}
