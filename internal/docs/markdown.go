package docs

import (
	"fmt"
	"strings"

	"github.com/kolah/apilens/internal/document"
	"github.com/kolah/apilens/internal/model"
	"github.com/kolah/apilens/internal/query"
	"github.com/kolah/apilens/internal/render"
)

func (g *Generator) markdownDoc(spec *document.Spec, info model.SessionInfo, groups []group, opts Options) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# %s\n\n", title(info))
	if info.Version != "" {
		fmt.Fprintf(&b, "**Version:** %s\n\n", info.Version)
	}
	if info.BaseURL != "" {
		fmt.Fprintf(&b, "**Base URL:** `%s`\n\n", info.BaseURL)
	}
	if info.Description != "" {
		b.WriteString(strings.TrimSpace(info.Description) + "\n\n")
	}

	var comps model.Components
	if opts.IncludeComponents {
		comps = query.Components(spec, "")
	}

	if opts.IncludeTOC {
		b.WriteString("## Table of Contents\n\n")
		for _, grp := range groups {
			indent := "  "
			if opts.GroupByTag {
				fmt.Fprintf(&b, "- [%s](#%s)\n", grp.name, grp.anchor)
			} else {
				indent = ""
			}
			for _, d := range grp.endpoints {
				fmt.Fprintf(&b, "%s- [%s %s](#%s)", indent, strings.ToUpper(string(d.Method)), d.Path, endpointAnchor(grp, d))
				if d.Summary != "" {
					b.WriteString(" - " + strings.Join(strings.Fields(d.Summary), " "))
				}
				b.WriteString("\n")
			}
		}
		if comps.Len() > 0 {
			b.WriteString("- [Components](#components)\n")
		}
		b.WriteString("\n")
	}

	if endpointCount(groups) == 0 {
		b.WriteString("## Endpoints\n\nNo endpoints found.\n\n")
	}

	md := render.Markdown{HeadingLevel: 2}
	for _, grp := range groups {
		if len(grp.endpoints) == 0 {
			continue
		}
		fmt.Fprintf(&b, "<a id=\"%s\"></a>\n\n## %s\n\n", grp.anchor, grp.name)
		if grp.description != "" {
			b.WriteString(strings.TrimSpace(grp.description) + "\n\n")
		}
		for _, d := range grp.endpoints {
			fmt.Fprintf(&b, "<a id=\"%s\"></a>\n\n", endpointAnchor(grp, d))
			b.WriteString(md.EndpointDetail(d))
			b.WriteString("\n\n---\n\n")
		}
	}

	if comps.Len() > 0 {
		b.WriteString("<a id=\"components\"></a>\n\n")
		b.WriteString(render.Markdown{HeadingLevel: 2}.Components(comps))
		b.WriteString("\n")
	}

	return strings.TrimRight(b.String(), "\n") + "\n"
}

func endpointCount(groups []group) int {
	n := 0
	for _, grp := range groups {
		n += len(grp.endpoints)
	}
	return n
}

func title(info model.SessionInfo) string {
	if info.Title == "" {
		return "API Documentation"
	}
	return info.Title
}
