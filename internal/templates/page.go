package templates

import "html/template"

// PageTemplate is the single-page documentation layout.
const PageTemplate = "page.tmpl"

// Page is the data PageTemplate expects. HTML fields are trusted fragments
// that were escaped when they were built.
type Page struct {
	Title       string
	Version     string
	BaseURL     string
	Description template.HTML
	IncludeTOC  bool
	Groups      []Group
	Components  template.HTML
	Generated   string
}

// Group is a run of endpoints under one heading, usually a tag.
type Group struct {
	Name        string
	Anchor      string
	Description template.HTML
	Endpoints   []Entry
}

type Entry struct {
	Anchor     string
	Method     string
	Path       string
	Summary    string
	Deprecated bool
	Body       template.HTML
}
