package cascade

import (
	"git.home.luguber.info/inful/unify/internal/dom"
)

// OrderedFill is the last-resort placement strategy, used only when the
// page declares neither areas nor matchable landmarks. Page <section>
// children under <main> (or directly under the body when the page has
// no <main>) are paired with the layout's equivalent list by index:
// paired sections are merged with MergeElements, page-only sections are
// appended under the layout's main.
func OrderedFill(layoutRoot, pageBody *dom.Node) {
	pageSections := topLevelSections(pageBody)
	if len(pageSections) == 0 {
		return
	}

	layoutMain := dom.FindByTag(layoutRoot, "main")
	layoutContainer := layoutMain
	if layoutContainer == nil {
		layoutContainer = layoutRoot
	}
	layoutSections := sectionChildren(layoutContainer)

	for i, pageSec := range pageSections {
		if i < len(layoutSections) {
			MergeElements(layoutSections[i], pageSec)
			continue
		}
		// Formatting newline before appended block-level content.
		layoutContainer.AppendChild(dom.NewText("\n"))
		layoutContainer.AppendChild(pageSec.Clone())
	}
}

// topLevelSections collects the page's section list: the <section>
// children of its sole <main>, or of the body itself when no main
// exists. Sections carrying an area class are excluded.
func topLevelSections(pageBody *dom.Node) []*dom.Node {
	container := pageBody
	if m := dom.FindSingleByTag(pageBody, "main"); m != nil {
		container = m
	}
	return sectionChildren(container)
}

func sectionChildren(container *dom.Node) []*dom.Node {
	var out []*dom.Node
	for _, c := range container.ElementChildren() {
		if !c.IsElement("section") {
			continue
		}
		if dom.ClassWithPrefix(c, AreaPrefix) != "" {
			continue
		}
		out = append(out, c)
	}
	return out
}
