package site

import (
	"time"

	"git.home.luguber.info/inful/unify/internal/dom"
	"git.home.luguber.info/inful/unify/internal/urls"
)

// postProcess applies output-tree concerns to a composed document:
// pretty-URL link rewriting and the last-modified head stamp. It leaves
// the text untouched when neither concern applies.
func postProcess(htmlText string, mapper *urls.Mapper, lastModified time.Time) (string, error) {
	if !mapper.Pretty && lastModified.IsZero() {
		return htmlText, nil
	}

	doc, err := dom.Parse(htmlText)
	if err != nil {
		return "", err
	}

	if mapper.Pretty {
		doc.Walk(func(n *dom.Node) bool {
			if n.IsElement("a") {
				if href, ok := n.GetAttr("href"); ok {
					n.SetAttr("href", mapper.RewriteHref(href))
				}
			}
			return true
		})
	}

	if !lastModified.IsZero() {
		if head := dom.FindByTag(doc, "head"); head != nil {
			stamp := dom.NewElement("meta",
				dom.Attribute{Key: "name", Val: "last-modified"},
				dom.Attribute{Key: "content", Val: lastModified.UTC().Format(time.RFC3339)})
			head.AppendChild(dom.NewText("\n  "))
			head.AppendChild(stamp)
			head.AppendChild(dom.NewText("\n"))
		}
	}

	return dom.Serialize(doc), nil
}
