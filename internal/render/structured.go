package render

import (
	"fmt"
	"strings"

	"github.com/kolah/apilens/internal/model"
	"github.com/kolah/apilens/internal/schema"
)

// Structured prints labeled plain text that keeps nearly every field.
type Structured struct{}

func (Structured) EndpointList(eps []model.EndpointSummary) string {
	if len(eps) == 0 {
		return noEndpoints
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Endpoints (%d):\n", len(eps))
	for _, ep := range eps {
		fmt.Fprintf(&b, "\n%s %s\n", methodLabel(ep.Method), ep.Path)
		field(&b, "  ", "Operation ID", ep.OperationID)
		field(&b, "  ", "Summary", oneLine(ep.Summary))
		if len(ep.Tags) > 0 {
			field(&b, "  ", "Tags", strings.Join(ep.Tags, ", "))
		}
		if ep.Deprecated {
			field(&b, "  ", "Deprecated", "yes")
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

func (Structured) EndpointDetail(d *model.EndpointDetail) string {
	if d == nil {
		return noEndpoints
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Endpoint: %s %s\n", methodLabel(d.Method), d.Path)
	field(&b, "", "Operation ID", d.OperationID)
	field(&b, "", "Summary", oneLine(d.Summary))
	field(&b, "", "Description", d.Description)
	if len(d.Tags) > 0 {
		field(&b, "", "Tags", strings.Join(d.Tags, ", "))
	}
	if d.Deprecated {
		field(&b, "", "Deprecated", "yes")
	}

	f := schema.New(d.Resolver, schema.TextEmitter{})

	if len(d.Parameters) > 0 {
		b.WriteString("\nParameters:\n")
		for _, p := range d.Parameters {
			fmt.Fprintf(&b, "  - %s (%s, %s, required: %s)\n", p.Name, p.In, orAny(p.Type), yesNo(p.Required))
			field(&b, "    ", "Description", oneLine(p.Description))
			if p.Deprecated {
				field(&b, "    ", "Deprecated", "yes")
			}
			if p.Example != nil {
				field(&b, "    ", "Example", compactJSON(p.Example))
			}
		}
	}

	if rb := d.RequestBody; rb != nil {
		b.WriteString("\nRequest Body:\n")
		field(&b, "  ", "Content-Type", rb.ContentType)
		field(&b, "  ", "Required", yesNo(rb.Required))
		field(&b, "  ", "Description", oneLine(rb.Description))
		if rb.Schema != nil {
			b.WriteString("  Schema:\n")
			b.WriteString(indent(f.Format(rb.Schema), "    "))
		}
		if rb.Examples != nil {
			b.WriteString("  Examples:\n")
			b.WriteString(indent(indentedJSON(rb.Examples), "    "))
		}
	}

	if len(d.Responses) > 0 {
		b.WriteString("\nResponses:\n")
		for _, r := range d.Responses {
			fmt.Fprintf(&b, "  %s: %s\n", r.StatusCode, oneLine(r.Description))
			field(&b, "    ", "Content-Type", r.ContentType)
			if r.Schema != nil {
				b.WriteString("    Schema:\n")
				b.WriteString(indent(f.Format(r.Schema), "      "))
			}
			if r.Examples != nil {
				b.WriteString("    Examples:\n")
				b.WriteString(indent(indentedJSON(r.Examples), "      "))
			}
		}
	}

	if len(d.Security) > 0 {
		b.WriteString("\nSecurity:\n")
		for _, req := range d.Security {
			if len(req.Schemes) == 0 {
				b.WriteString("  - (none)\n")
				continue
			}
			for i, s := range req.Schemes {
				prefix := "  - "
				if i > 0 {
					prefix = "    "
				}
				scopes := "(no scopes)"
				if len(s.Scopes) > 0 {
					scopes = strings.Join(s.Scopes, ", ")
				}
				fmt.Fprintf(&b, "%s%s: %s\n", prefix, s.Name, scopes)
			}
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

func (Structured) SessionInfo(info model.SessionInfo) string {
	var b strings.Builder
	writeSessionInfo(&b, "", info)
	return strings.TrimRight(b.String(), "\n")
}

func writeSessionInfo(b *strings.Builder, prefix string, info model.SessionInfo) {
	field(b, prefix, "Session ID", info.ID)
	field(b, prefix, "Title", orUntitled(info.Title))
	field(b, prefix, "Version", info.Version)
	field(b, prefix, "Description", info.Description)
	field(b, prefix, "OpenAPI Version", info.OpenAPIVersion)
	field(b, prefix, "Base URL", info.BaseURL)
	field(b, prefix, "Source", fmt.Sprintf("%s (%s)", info.Source, info.SourceType))
	field(b, prefix, "Created", info.CreatedAt.UTC().Format(timeLayout))
	field(b, prefix, "Last Accessed", info.LastAccessed.UTC().Format(timeLayout))
	field(b, prefix, "Output Format", info.OutputFormat)
	field(b, prefix, "Endpoints", fmt.Sprint(info.EndpointCount))
	field(b, prefix, "Tags", fmt.Sprint(info.TagCount))
	field(b, prefix, "Schemas", fmt.Sprint(info.SchemaCount))
	field(b, prefix, "References Inlined", yesNo(info.Dereferenced))
}

const timeLayout = "2006-01-02 15:04:05 UTC"

func (Structured) SessionList(list model.SessionList) string {
	if len(list.Sessions) == 0 {
		return noSessions
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Sessions (%d):\n", len(list.Sessions))
	for _, s := range list.Sessions {
		b.WriteString("\n")
		writeSessionInfo(&b, "  ", s)
	}
	return strings.TrimRight(b.String(), "\n")
}

func (Structured) TagList(tags model.TagList) string {
	if len(tags.Tags) == 0 {
		return noTags
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Tags (%d):\n", len(tags.Tags))
	for _, t := range tags.Tags {
		fmt.Fprintf(&b, "  - %s\n", t)
	}
	return strings.TrimRight(b.String(), "\n")
}

func (Structured) Components(c model.Components) string {
	if c.Len() == 0 {
		return noComponents
	}
	f := schema.New(c.Resolver, schema.TextEmitter{})
	var b strings.Builder
	for _, sec := range c.Sections {
		if len(sec.Entries) == 0 {
			continue
		}
		fmt.Fprintf(&b, "%s (%d):\n", sec.Type, len(sec.Entries))
		for _, e := range sec.Entries {
			fmt.Fprintf(&b, "  %s:\n", e.Name)
			if sec.Type == "schemas" {
				b.WriteString(indent(f.Format(e.Node), "    "))
			} else {
				b.WriteString(indent(indentedJSON(e.Node), "    "))
			}
		}
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

func (Structured) Success(message string) string {
	return "Success: " + message
}

func (Structured) Error(message string) string {
	return "Error: " + message
}

// field writes "label: value" and skips empty values.
func field(b *strings.Builder, prefix, label, value string) {
	if value == "" {
		return
	}
	fmt.Fprintf(b, "%s%s: %s\n", prefix, label, value)
}

// indent prefixes every non-empty line and guarantees a trailing newline.
func indent(s, prefix string) string {
	s = strings.TrimRight(s, "\n")
	if s == "" {
		return ""
	}
	lines := strings.Split(s, "\n")
	for i, l := range lines {
		if l != "" {
			lines[i] = prefix + l
		}
	}
	return strings.Join(lines, "\n") + "\n"
}
