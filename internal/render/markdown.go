package render

import (
	"fmt"
	"strings"

	"github.com/kolah/apilens/internal/model"
	"github.com/kolah/apilens/internal/schema"
)

// Markdown prints headings, lists and tables. HeadingLevel shifts every
// heading down so the output can be embedded in a larger document; zero
// means top level.
type Markdown struct {
	HeadingLevel int
}

func (m Markdown) h(n int) string {
	level := max(m.HeadingLevel, 1) + n - 1
	return strings.Repeat("#", min(level, 6)) + " "
}

func (m Markdown) EndpointList(eps []model.EndpointSummary) string {
	if len(eps) == 0 {
		return noEndpoints
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%sEndpoints (%d)\n\n", m.h(1), len(eps))
	b.WriteString("| Method | Path | Summary | Tags |\n")
	b.WriteString("|--------|------|---------|------|\n")
	for _, ep := range eps {
		summary := cell(ep.Summary)
		if ep.Deprecated {
			summary = strings.TrimSpace("~~deprecated~~ " + summary)
		}
		fmt.Fprintf(&b, "| %s | `%s` | %s | %s |\n",
			methodLabel(ep.Method), ep.Path, summary, cell(strings.Join(ep.Tags, ", ")))
	}
	return strings.TrimRight(b.String(), "\n")
}

func (m Markdown) EndpointDetail(d *model.EndpointDetail) string {
	if d == nil {
		return noEndpoints
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%s%s %s\n\n", m.h(2), methodLabel(d.Method), d.Path)
	if d.Deprecated {
		b.WriteString("> **Deprecated**\n\n")
	}
	if d.Summary != "" {
		fmt.Fprintf(&b, "**%s**\n\n", oneLine(d.Summary))
	}
	if d.Description != "" {
		b.WriteString(strings.TrimSpace(d.Description) + "\n\n")
	}
	if d.OperationID != "" {
		fmt.Fprintf(&b, "- **Operation ID:** `%s`\n", d.OperationID)
	}
	if len(d.Tags) > 0 {
		fmt.Fprintf(&b, "- **Tags:** %s\n", strings.Join(d.Tags, ", "))
	}
	if d.OperationID != "" || len(d.Tags) > 0 {
		b.WriteString("\n")
	}

	f := schema.New(d.Resolver, schema.TextEmitter{})

	if len(d.Parameters) > 0 {
		fmt.Fprintf(&b, "%sParameters\n\n", m.h(3))
		b.WriteString("| Name | In | Type | Required | Description |\n")
		b.WriteString("|------|----|------|----------|-------------|\n")
		for _, p := range d.Parameters {
			desc := cell(p.Description)
			if p.Example != nil {
				desc = strings.TrimSpace(desc + " Example: `" + compactJSON(p.Example) + "`")
			}
			fmt.Fprintf(&b, "| `%s` | %s | `%s` | %s | %s |\n", p.Name, p.In, orAny(p.Type), yesNo(p.Required), desc)
		}
		b.WriteString("\n")
	}

	if rb := d.RequestBody; rb != nil {
		fmt.Fprintf(&b, "%sRequest Body\n\n", m.h(3))
		if rb.ContentType != "" {
			fmt.Fprintf(&b, "- **Content-Type:** `%s`\n", rb.ContentType)
		}
		fmt.Fprintf(&b, "- **Required:** %s\n\n", yesNo(rb.Required))
		if rb.Description != "" {
			b.WriteString(strings.TrimSpace(rb.Description) + "\n\n")
		}
		if rb.Schema != nil {
			b.WriteString(f.Format(rb.Schema) + "\n")
		}
		if rb.Examples != nil {
			b.WriteString(jsonFence(indentedJSON(rb.Examples)))
		}
	}

	if len(d.Responses) > 0 {
		fmt.Fprintf(&b, "%sResponses\n\n", m.h(3))
		for _, r := range d.Responses {
			fmt.Fprintf(&b, "%s%s\n\n", m.h(4), r.StatusCode)
			if r.Description != "" {
				b.WriteString(strings.TrimSpace(r.Description) + "\n\n")
			}
			if r.ContentType != "" {
				fmt.Fprintf(&b, "- **Content-Type:** `%s`\n\n", r.ContentType)
			}
			if r.Schema != nil {
				b.WriteString(f.Format(r.Schema) + "\n")
			}
			if r.Examples != nil {
				b.WriteString(jsonFence(indentedJSON(r.Examples)))
			}
		}
	}

	if len(d.Security) > 0 {
		fmt.Fprintf(&b, "%sSecurity\n\n", m.h(3))
		for _, req := range d.Security {
			if len(req.Schemes) == 0 {
				b.WriteString("- none\n")
				continue
			}
			parts := make([]string, len(req.Schemes))
			for i, s := range req.Schemes {
				parts[i] = "`" + s.Name + "`"
				if len(s.Scopes) > 0 {
					parts[i] += " (" + strings.Join(s.Scopes, ", ") + ")"
				}
			}
			b.WriteString("- " + strings.Join(parts, " and ") + "\n")
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

func (m Markdown) SessionInfo(info model.SessionInfo) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s%s\n\n", m.h(1), orUntitled(info.Title))
	if info.Description != "" {
		b.WriteString(strings.TrimSpace(info.Description) + "\n\n")
	}
	writeSessionBullets(&b, info)
	return strings.TrimRight(b.String(), "\n")
}

func writeSessionBullets(b *strings.Builder, info model.SessionInfo) {
	bullet := func(label, value string) {
		if value != "" {
			fmt.Fprintf(b, "- **%s:** %s\n", label, value)
		}
	}
	bullet("Session ID", "`"+info.ID+"`")
	bullet("Version", info.Version)
	bullet("OpenAPI Version", info.OpenAPIVersion)
	bullet("Base URL", info.BaseURL)
	bullet("Source", fmt.Sprintf("%s (%s)", info.Source, info.SourceType))
	bullet("Created", info.CreatedAt.UTC().Format(timeLayout))
	bullet("Last Accessed", info.LastAccessed.UTC().Format(timeLayout))
	bullet("Output Format", info.OutputFormat)
	bullet("Endpoints", fmt.Sprint(info.EndpointCount))
	bullet("Tags", fmt.Sprint(info.TagCount))
	bullet("Schemas", fmt.Sprint(info.SchemaCount))
}

func (m Markdown) SessionList(list model.SessionList) string {
	if len(list.Sessions) == 0 {
		return noSessions
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%sSessions (%d)\n\n", m.h(1), len(list.Sessions))
	b.WriteString("| Session ID | Title | Version | Endpoints | Source |\n")
	b.WriteString("|------------|-------|---------|-----------|--------|\n")
	for _, s := range list.Sessions {
		fmt.Fprintf(&b, "| `%s` | %s | %s | %d | %s |\n",
			s.ID, cell(orUntitled(s.Title)), cell(s.Version), s.EndpointCount, cell(s.Source))
	}
	return strings.TrimRight(b.String(), "\n")
}

func (m Markdown) TagList(tags model.TagList) string {
	if len(tags.Tags) == 0 {
		return noTags
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%sTags (%d)\n\n", m.h(1), len(tags.Tags))
	for _, t := range tags.Tags {
		fmt.Fprintf(&b, "- %s\n", t)
	}
	return strings.TrimRight(b.String(), "\n")
}

func (m Markdown) Components(c model.Components) string {
	if c.Len() == 0 {
		return noComponents
	}
	f := schema.New(c.Resolver, schema.TextEmitter{})
	var b strings.Builder
	fmt.Fprintf(&b, "%sComponents\n\n", m.h(1))
	for _, sec := range c.Sections {
		if len(sec.Entries) == 0 {
			continue
		}
		fmt.Fprintf(&b, "%s%s\n\n", m.h(2), sec.Type)
		for _, e := range sec.Entries {
			fmt.Fprintf(&b, "%s%s\n\n", m.h(3), e.Name)
			if sec.Type == "schemas" {
				if desc := e.Node.Str("description"); desc != "" {
					b.WriteString(strings.TrimSpace(desc) + "\n\n")
				}
				b.WriteString(f.Format(e.Node) + "\n")
				continue
			}
			b.WriteString(jsonFence(indentedJSON(e.Node)))
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

func (Markdown) Success(message string) string {
	return "**Success:** " + message
}

func (Markdown) Error(message string) string {
	return "**Error:** " + message
}

func jsonFence(body string) string {
	if body == "" {
		return ""
	}
	return "```json\n" + strings.TrimRight(body, "\n") + "\n```\n\n"
}

// cell keeps a value inside one table cell.
func cell(s string) string {
	return strings.ReplaceAll(oneLine(s), "|", `\|`)
}
