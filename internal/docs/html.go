package docs

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"html"
	"html/template"
	"regexp"
	"strings"

	"github.com/kolah/apilens/internal/document"
	"github.com/kolah/apilens/internal/model"
	"github.com/kolah/apilens/internal/query"
	"github.com/kolah/apilens/internal/schema"
	"github.com/kolah/apilens/internal/templates"
)

func (g *Generator) htmlDoc(spec *document.Spec, info model.SessionInfo, groups []group, opts Options) (string, error) {
	if g.engine == nil {
		return "", errors.New("html output needs a template engine")
	}

	page := templates.Page{
		Title:       title(info),
		Version:     info.Version,
		BaseURL:     info.BaseURL,
		Description: g.description(info.Description),
		IncludeTOC:  opts.IncludeTOC,
		Generated:   g.now().UTC().Format("2006-01-02 15:04:05 UTC"),
	}
	for _, grp := range groups {
		if len(grp.endpoints) == 0 {
			continue
		}
		tg := templates.Group{
			Name:        grp.name,
			Anchor:      grp.anchor,
			Description: g.description(grp.description),
		}
		for _, d := range grp.endpoints {
			tg.Endpoints = append(tg.Endpoints, templates.Entry{
				Anchor:     endpointAnchor(grp, d),
				Method:     strings.ToUpper(string(d.Method)),
				Path:       d.Path,
				Summary:    d.Summary,
				Deprecated: d.Deprecated,
				Body:       g.endpointHTML(d),
			})
		}
		page.Groups = append(page.Groups, tg)
	}
	if opts.IncludeComponents {
		page.Components = componentsHTML(query.Components(spec, ""))
	}

	out, err := g.engine.Execute(templates.PageTemplate, page)
	if err != nil {
		return "", fmt.Errorf("rendering documentation page: %w", err)
	}
	return out, nil
}

var markdownHint = regexp.MustCompile("[#*_`\\[\\]()]|\n[ \t]*\n")

// description converts free text to HTML. Text that looks like Markdown goes
// through goldmark; anything else is escaped with line breaks kept.
func (g *Generator) description(text string) template.HTML {
	text = strings.TrimSpace(text)
	if text == "" {
		return ""
	}
	if markdownHint.MatchString(text) {
		var buf bytes.Buffer
		if err := g.markdown.Convert([]byte(text), &buf); err == nil {
			return template.HTML(buf.String())
		}
	}
	return template.HTML("<p>" + strings.ReplaceAll(html.EscapeString(text), "\n", "<br>") + "</p>")
}

func (g *Generator) endpointHTML(d *model.EndpointDetail) template.HTML {
	var b strings.Builder
	f := schema.New(d.Resolver, schema.HTMLEmitter{})

	if d.Summary != "" {
		fmt.Fprintf(&b, "<p class=\"summary\"><strong>%s</strong></p>\n", esc(d.Summary))
	}
	b.WriteString(string(g.description(d.Description)))
	if d.OperationID != "" {
		fmt.Fprintf(&b, "<p><strong>Operation ID:</strong> <code>%s</code></p>\n", esc(d.OperationID))
	}

	if len(d.Parameters) > 0 {
		b.WriteString("<h4>Parameters</h4>\n<table>\n<thead><tr><th>Name</th><th>In</th><th>Type</th><th>Required</th><th>Description</th></tr></thead>\n<tbody>\n")
		for _, p := range d.Parameters {
			desc := esc(p.Description)
			if p.Example != nil {
				desc += " <em>Example:</em> <code>" + esc(jsonText(p.Example, false)) + "</code>"
			}
			fmt.Fprintf(&b, "<tr><td><code>%s</code></td><td>%s</td><td><code>%s</code></td><td>%s</td><td>%s</td></tr>\n",
				esc(p.Name), esc(string(p.In)), esc(orAny(p.Type)), yesNo(p.Required), desc)
		}
		b.WriteString("</tbody>\n</table>\n")
	}

	if rb := d.RequestBody; rb != nil {
		b.WriteString("<h4>Request Body</h4>\n")
		if rb.ContentType != "" {
			fmt.Fprintf(&b, "<p><strong>Content-Type:</strong> <code>%s</code></p>\n", esc(rb.ContentType))
		}
		fmt.Fprintf(&b, "<p><strong>Required:</strong> %s</p>\n", yesNo(rb.Required))
		b.WriteString(string(g.description(rb.Description)))
		if rb.Schema != nil {
			b.WriteString(f.Format(rb.Schema))
		}
		if rb.Examples != nil {
			b.WriteString(preJSON(rb.Examples))
		}
	}

	if len(d.Responses) > 0 {
		b.WriteString("<h4>Responses</h4>\n")
		for _, r := range d.Responses {
			fmt.Fprintf(&b, "<h5><code>%s</code></h5>\n", esc(r.StatusCode))
			b.WriteString(string(g.description(r.Description)))
			if r.ContentType != "" {
				fmt.Fprintf(&b, "<p><strong>Content-Type:</strong> <code>%s</code></p>\n", esc(r.ContentType))
			}
			if r.Schema != nil {
				b.WriteString(f.Format(r.Schema))
			}
			if r.Examples != nil {
				b.WriteString(preJSON(r.Examples))
			}
		}
	}

	if len(d.Security) > 0 {
		b.WriteString("<h4>Security</h4>\n<ul>\n")
		for _, req := range d.Security {
			if len(req.Schemes) == 0 {
				b.WriteString("<li>none</li>\n")
				continue
			}
			parts := make([]string, len(req.Schemes))
			for i, s := range req.Schemes {
				parts[i] = "<code>" + esc(s.Name) + "</code>"
				if len(s.Scopes) > 0 {
					parts[i] += " (" + esc(strings.Join(s.Scopes, ", ")) + ")"
				}
			}
			b.WriteString("<li>" + strings.Join(parts, " and ") + "</li>\n")
		}
		b.WriteString("</ul>\n")
	}
	return template.HTML(b.String())
}

func componentsHTML(c model.Components) template.HTML {
	if c.Len() == 0 {
		return ""
	}
	f := schema.New(c.Resolver, schema.HTMLEmitter{})
	var b strings.Builder
	for _, sec := range c.Sections {
		if len(sec.Entries) == 0 {
			continue
		}
		fmt.Fprintf(&b, "<h3>%s</h3>\n", esc(sec.Type))
		for _, e := range sec.Entries {
			fmt.Fprintf(&b, "<h4 id=\"component-%s-%s\">%s</h4>\n", anchorSlug(sec.Type), anchorSlug(e.Name), esc(e.Name))
			if sec.Type == "schemas" {
				if desc := e.Node.Str("description"); desc != "" {
					fmt.Fprintf(&b, "<p>%s</p>\n", esc(desc))
				}
				b.WriteString(f.Format(e.Node))
				continue
			}
			b.WriteString(preJSON(e.Node))
		}
	}
	return template.HTML(b.String())
}

func preJSON(n *document.Node) string {
	return "<pre><code>" + html.EscapeString(jsonText(n, true)) + "</code></pre>\n"
}

func jsonText(n *document.Node, indent bool) string {
	data, err := n.MarshalJSON()
	if err != nil {
		return n.String()
	}
	var buf bytes.Buffer
	if indent {
		err = json.Indent(&buf, data, "", "  ")
	} else {
		err = json.Compact(&buf, data)
	}
	if err != nil {
		return string(data)
	}
	return buf.String()
}

func esc(s string) string {
	return html.EscapeString(strings.Join(strings.Fields(s), " "))
}

func orAny(s string) string {
	if s == "" {
		return "any"
	}
	return s
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
