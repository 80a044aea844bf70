// Package scan inspects final composed HTML for risky patterns. It is
// read-only: findings are reported, output is never mutated.
package scan

import (
	"fmt"
	"strings"

	"golang.org/x/net/html"
)

// Severity ranks a finding.
type Severity string

const (
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// Finding is one detected risky pattern in a scanned document.
type Finding struct {
	Rule     string   `json:"rule"`
	Severity Severity `json:"severity"`
	Message  string   `json:"message"`
	Path     string   `json:"path"`
}

func (f Finding) String() string {
	return fmt.Sprintf("%s: [%s] %s: %s", f.Path, f.Severity, f.Rule, f.Message)
}

// Scan parses htmlText and applies every rule. A document that fails to
// parse yields a single parse finding rather than an error: the scanner
// must never block a build on its own account.
func Scan(htmlText, sourcePath string) []Finding {
	doc, err := html.Parse(strings.NewReader(htmlText))
	if err != nil {
		return []Finding{{
			Rule:     "parse",
			Severity: SeverityError,
			Message:  fmt.Sprintf("output is not parseable HTML: %v", err),
			Path:     sourcePath,
		}}
	}

	var findings []Finding
	report := func(rule string, sev Severity, format string, args ...any) {
		findings = append(findings, Finding{
			Rule:     rule,
			Severity: sev,
			Message:  fmt.Sprintf(format, args...),
			Path:     sourcePath,
		})
	}

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			checkElement(n, report)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	return findings
}

type reportFunc func(rule string, sev Severity, format string, args ...any)

func checkElement(n *html.Node, report reportFunc) {
	for _, a := range n.Attr {
		key := strings.ToLower(a.Key)
		val := strings.TrimSpace(a.Val)

		if strings.HasPrefix(key, "on") && len(key) > 2 {
			report("inline-event-handler", SeverityWarning,
				"<%s> has inline event handler %s", n.Data, key)
		}
		if (key == "href" || key == "src") && strings.HasPrefix(strings.ToLower(val), "javascript:") {
			report("javascript-url", SeverityError,
				"<%s> %s uses a javascript: URL", n.Data, key)
		}
		if (key == "href" || key == "src") && strings.HasPrefix(strings.ToLower(val), "http://") {
			report("mixed-content", SeverityWarning,
				"<%s> loads %q over plain http", n.Data, val)
		}
	}

	switch n.Data {
	case "a":
		checkBlankTarget(n, report)
	case "base":
		if href := attr(n, "href"); href != "" {
			report("base-override", SeverityWarning,
				"<base href=%q> overrides relative URL resolution", href)
		}
	case "script", "iframe":
		if src := attr(n, "src"); strings.HasPrefix(strings.ToLower(src), "data:") {
			report("data-url", SeverityError,
				"<%s> sourced from a data: URL", n.Data)
		}
	}
}

func checkBlankTarget(n *html.Node, report reportFunc) {
	if !strings.EqualFold(attr(n, "target"), "_blank") {
		return
	}
	rel := strings.ToLower(attr(n, "rel"))
	if strings.Contains(rel, "noopener") || strings.Contains(rel, "noreferrer") {
		return
	}
	report("target-blank", SeverityWarning,
		`<a target="_blank"> without rel="noopener" (href=%q)`, attr(n, "href"))
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if strings.EqualFold(a.Key, key) {
			return a.Val
		}
	}
	return ""
}
