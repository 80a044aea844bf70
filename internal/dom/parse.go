package dom

import (
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html"
)

// ParseError reports a non-recoverable tokenizer failure. Malformed but
// tokenizable markup (stray end tags, unclosed elements) is handled
// leniently without dropping nodes; only genuine tokenizer errors fail.
type ParseError struct {
	Cause error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse HTML: %v", e.Cause)
}

func (e *ParseError) Unwrap() error { return e.Cause }

// voidElements never have children and take no end tag.
var voidElements = map[string]bool{
	"area": true, "base": true, "br": true, "col": true, "embed": true,
	"hr": true, "img": true, "input": true, "link": true, "meta": true,
	"param": true, "source": true, "track": true, "wbr": true,
}

// Parse tokenizes src into a Document node. The tree stays faithful to
// the source: no implied elements are inserted, so fragments (a
// component without <html> or <body>) parse to their literal top-level
// nodes under the document root.
func Parse(src string) (*Node, error) {
	z := html.NewTokenizer(strings.NewReader(src))
	doc := &Node{Type: DocumentNode}
	open := []*Node{doc}

	top := func() *Node { return open[len(open)-1] }

	for {
		switch z.Next() {
		case html.ErrorToken:
			if z.Err() == io.EOF {
				return doc, nil
			}
			return nil, &ParseError{Cause: z.Err()}

		case html.TextToken:
			top().AppendChild(NewText(string(z.Text())))

		case html.StartTagToken:
			el := readTag(z)
			top().AppendChild(el)
			if !voidElements[el.Data] {
				open = append(open, el)
			}

		case html.SelfClosingTagToken:
			top().AppendChild(readTag(z))

		case html.EndTagToken:
			name, _ := z.TagName()
			tag := strings.ToLower(string(name))
			// Pop to the nearest matching open element. A stray end
			// tag with no matching start is ignored rather than
			// corrupting the stack.
			for i := len(open) - 1; i > 0; i-- {
				if open[i].Data == tag {
					open = open[:i]
					break
				}
			}

		case html.CommentToken:
			top().AppendChild(&Node{Type: CommentNode, Data: string(z.Text())})

		case html.DoctypeToken:
			top().AppendChild(&Node{Type: DoctypeNode, Data: string(z.Text())})
		}
	}
}

func readTag(z *html.Tokenizer) *Node {
	name, hasAttr := z.TagName()
	el := NewElement(strings.ToLower(string(name)))
	for hasAttr {
		var key, val []byte
		key, val, hasAttr = z.TagAttr()
		el.Attr = append(el.Attr, Attribute{Key: string(key), Val: string(val)})
	}
	return el
}
