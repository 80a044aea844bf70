// Package cascade implements the DOM cascade composition engine: a page
// document is composed against a chain of layout templates and reusable
// components by structural matching (areas, landmarks, ordered fill),
// attribute and head merging, and identifier-stable content replacement.
//
// The engine performs no I/O of its own; every document fetch goes
// through a resolver.FileResolver supplied by the caller.
package cascade

// Reserved vocabulary. These are fixed protocol constants, not
// configuration.
const (
	// RefAttr marks a layout reference (on <html> or <body>) or a
	// component placeholder (on any other element).
	RefAttr = "data-unify"

	// AreaPrefix marks a class token as a composition slot key.
	AreaPrefix = "unify-"

	// ContentKey is the implicit slot for page content that targets no
	// explicit area.
	ContentKey = "unify-content"
)

// landmarkTags are the five semantic sectioning tags used as implicit
// classless areas. The order is the matching order.
var landmarkTags = [...]string{"header", "nav", "main", "aside", "footer"}

// Default ceilings for the chain walk and placeholder resolution.
const (
	DefaultMaxDepth      = 10
	DefaultMaxIterations = 100
)
