package schema

import (
	"fmt"
	"html"
	"strings"
)

// TextEmitter writes Markdown: tables for objects, inline code for types.
type TextEmitter struct{}

func (TextEmitter) Simple(typ, description string) string {
	line := fmt.Sprintf("Type: `%s`", typ)
	if description != "" {
		line += " - " + oneLine(description)
	}
	return line + "\n"
}

func (TextEmitter) Truncated(typ string) string {
	return fmt.Sprintf("`%s` (max depth reached)\n", typ)
}

func (TextEmitter) Unresolved(name string) string {
	return fmt.Sprintf("`%s`\n", name)
}

func (TextEmitter) Reference(name, body string) string {
	return fmt.Sprintf("**%s**\n\n%s", name, body)
}

func (TextEmitter) ArrayOf(body string) string {
	return "Array of:\n\n" + body
}

func (TextEmitter) Object(props []Property) string {
	var b strings.Builder
	b.WriteString("| Property | Type | Required | Description |\n")
	b.WriteString("|----------|------|----------|-------------|\n")
	for _, p := range props {
		fmt.Fprintf(&b, "| %s | %s | %s | %s |\n",
			escapeCell(p.Name), escapeCell(p.Type), yesNo(p.Required), escapeCell(p.Description))
	}
	return b.String()
}

func (TextEmitter) Nested(name, body string) string {
	return fmt.Sprintf("\n**%s**:\n\n%s", name, body)
}

// HTMLEmitter writes escaped HTML fragments.
type HTMLEmitter struct{}

func (HTMLEmitter) Simple(typ, description string) string {
	out := `<p class="schema-type"><code>` + html.EscapeString(typ) + `</code>`
	if description != "" {
		out += " " + html.EscapeString(oneLine(description))
	}
	return out + "</p>\n"
}

func (HTMLEmitter) Truncated(typ string) string {
	return `<p class="schema-truncated"><code>` + html.EscapeString(typ) + "</code> (max depth reached)</p>\n"
}

func (HTMLEmitter) Unresolved(name string) string {
	return "<p><code>" + html.EscapeString(name) + "</code></p>\n"
}

func (HTMLEmitter) Reference(name, body string) string {
	return `<div class="schema-ref"><p><strong>` + html.EscapeString(name) + "</strong></p>\n" + body + "</div>\n"
}

func (HTMLEmitter) ArrayOf(body string) string {
	return `<div class="schema-array"><p>Array of:</p>` + "\n" + body + "</div>\n"
}

func (HTMLEmitter) Object(props []Property) string {
	var b strings.Builder
	b.WriteString(`<table class="schema-table">` + "\n")
	b.WriteString("<thead><tr><th>Property</th><th>Type</th><th>Required</th><th>Description</th></tr></thead>\n<tbody>\n")
	for _, p := range props {
		fmt.Fprintf(&b, "<tr><td><code>%s</code></td><td>%s</td><td>%s</td><td>%s</td></tr>\n",
			html.EscapeString(p.Name), html.EscapeString(p.Type), yesNo(p.Required), html.EscapeString(p.Description))
	}
	b.WriteString("</tbody>\n</table>\n")
	return b.String()
}

func (HTMLEmitter) Nested(name, body string) string {
	return `<div class="schema-nested"><p><strong>` + html.EscapeString(name) + "</strong>:</p>\n" + body + "</div>\n"
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// escapeCell keeps a value inside one Markdown table cell.
func escapeCell(s string) string {
	return strings.ReplaceAll(oneLine(s), "|", `\|`)
}
