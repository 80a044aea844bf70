package cascade

import (
	"git.home.luguber.info/inful/unify/internal/dom"
)

// MatchLandmarks places page content into layout landmarks when no
// explicit areas drive placement. A landmark tag is matchable only if
// it occurs exactly once in the page body and carries no area class.
//
// The `main` landmark is special: it is attempted whenever exactly one
// page <main> exists, even if areas were found elsewhere in the page.
// The other four tags are skipped entirely once any area exists.
//
// Placement is whole-content replacement: the layout landmark's
// children are replaced by clones of the page landmark's children. No
// attribute merge happens in this mode.
//
// Returns the number of landmarks placed.
func MatchLandmarks(layoutRoot, pageBody *dom.Node, pageHasAreas bool) int {
	placed := 0
	for _, tag := range landmarkTags {
		if tag != "main" && pageHasAreas {
			continue
		}
		pageEl := dom.FindSingleByTag(pageBody, tag)
		if pageEl == nil {
			continue
		}
		if dom.ClassWithPrefix(pageEl, AreaPrefix) != "" {
			continue
		}
		layoutEl := dom.FindByTag(layoutRoot, tag)
		if layoutEl == nil {
			continue
		}
		children := make([]*dom.Node, 0, len(pageEl.Children))
		for _, c := range pageEl.Children {
			children = append(children, c.Clone())
		}
		layoutEl.ReplaceChildren(children...)
		placed++
	}
	return placed
}

// pageHasLandmarks reports whether any matchable landmark exists in the
// page body: a sole occurrence of its tag without an area class.
func pageHasLandmarks(pageBody *dom.Node) bool {
	for _, tag := range landmarkTags {
		if el := dom.FindSingleByTag(pageBody, tag); el != nil {
			if dom.ClassWithPrefix(el, AreaPrefix) == "" {
				return true
			}
		}
	}
	return false
}
