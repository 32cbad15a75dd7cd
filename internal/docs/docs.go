// Package docs writes standalone API documentation for a loaded
// specification, either as one Markdown file or as a single HTML page.
package docs

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/kolah/apilens/internal/document"
	"github.com/kolah/apilens/internal/model"
	"github.com/kolah/apilens/internal/query"
	"github.com/kolah/apilens/internal/templates"
)

type Format string

const (
	FormatMarkdown Format = "markdown"
	FormatHTML     Format = "html"
)

func ParseFormat(name string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "markdown", "md":
		return FormatMarkdown, nil
	case "html", "htm":
		return FormatHTML, nil
	default:
		return "", fmt.Errorf("unknown documentation format %q (valid: markdown, html)", name)
	}
}

func (f Format) Extension() string {
	if f == FormatHTML {
		return ".html"
	}
	return ".md"
}

// Options is built with DefaultOptions and passed by value.
type Options struct {
	Format            Format
	IncludeTOC        bool
	GroupByTag        bool
	IncludeComponents bool
	IncludeExamples   bool
	IncludeSecurity   bool
	// Filename is normalized by Filename; empty means derive it from the title.
	Filename string
}

func DefaultOptions() Options {
	return Options{
		Format:            FormatMarkdown,
		IncludeTOC:        true,
		GroupByTag:        true,
		IncludeComponents: true,
		IncludeExamples:   false,
		IncludeSecurity:   true,
	}
}

type Output struct {
	Filename string
	Content  string
}

type Generator struct {
	engine   templates.Engine
	markdown goldmark.Markdown
	now      func() time.Time
}

type Option func(*Generator)

func WithClock(now func() time.Time) Option {
	return func(g *Generator) {
		if now != nil {
			g.now = now
		}
	}
}

// NewGenerator renders HTML pages through engine. A nil engine only
// supports Markdown output.
func NewGenerator(engine templates.Engine, opts ...Option) *Generator {
	g := &Generator{
		engine:   engine,
		markdown: goldmark.New(goldmark.WithExtensions(extension.GFM)),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Generate builds the document. Only template failures are errors.
func (g *Generator) Generate(spec *document.Spec, info model.SessionInfo, opts Options) (*Output, error) {
	if opts.Format == "" {
		opts.Format = FormatMarkdown
	}
	out := &Output{Filename: Filename(info.Title, opts.Filename, opts.Format)}

	groups := buildGroups(spec, opts)
	switch opts.Format {
	case FormatMarkdown:
		out.Content = g.markdownDoc(spec, info, groups, opts)
	case FormatHTML:
		content, err := g.htmlDoc(spec, info, groups, opts)
		if err != nil {
			return nil, err
		}
		out.Content = content
	default:
		return nil, fmt.Errorf("unknown documentation format %q", opts.Format)
	}
	return out, nil
}

// group is a section of the endpoint listing with its details resolved.
type group struct {
	name        string
	anchor      string
	description string
	endpoints   []*model.EndpointDetail
}

const otherEndpoints = "Other Endpoints"

// buildGroups splits endpoints by tag in tag order, with untagged operations
// last. An operation with several tags appears in each of their groups.
// Without tag grouping everything lands in one group.
func buildGroups(spec *document.Spec, opts Options) []group {
	qopts := query.DefaultOptions()
	qopts.IncludeExamples = opts.IncludeExamples
	qopts.IncludeSecurity = opts.IncludeSecurity

	var details []*model.EndpointDetail
	for _, ep := range query.ListEndpoints(spec, query.Filter{}) {
		if d := query.EndpointDetails(spec, ep.Path, string(ep.Method), qopts); d != nil {
			details = append(details, d)
		}
	}

	if !opts.GroupByTag {
		return []group{{name: "Endpoints", anchor: "endpoints", endpoints: details}}
	}

	descriptions := make(map[string]string)
	for _, t := range spec.Tags() {
		descriptions[t.Name] = t.Description
	}

	var groups []group
	for _, tag := range query.Tags(spec) {
		g := group{name: tag, anchor: "tag-" + anchorSlug(tag), description: descriptions[tag]}
		for _, d := range details {
			if slices.Contains(d.Tags, tag) {
				g.endpoints = append(g.endpoints, d)
			}
		}
		if len(g.endpoints) > 0 {
			groups = append(groups, g)
		}
	}

	other := group{name: otherEndpoints, anchor: "other-endpoints"}
	for _, d := range details {
		if len(d.Tags) == 0 {
			other.endpoints = append(other.endpoints, d)
		}
	}
	if len(other.endpoints) > 0 {
		groups = append(groups, other)
	}
	return groups
}

// endpointAnchor is unique per group so an endpoint listed under two tags
// gets two targets.
func endpointAnchor(g group, d *model.EndpointDetail) string {
	return g.anchor + "-" + anchorSlug(string(d.Method)+" "+d.Path)
}

func anchorSlug(s string) string {
	if slug := Slug(s); slug != "" {
		return slug
	}
	return "section"
}
