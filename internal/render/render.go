// Package render turns query results into text. Every format handles the same
// result shapes and prints an explicit sentence for empty collections.
package render

import (
	"fmt"
	"strings"

	"github.com/kolah/apilens/internal/model"
)

type Format string

const (
	FormatRaw        Format = "raw"
	FormatCompact    Format = "compact"
	FormatStructured Format = "structured"
	FormatMarkdown   Format = "markdown"
)

const DefaultFormat = FormatCompact

// Formats lists the canonical format names.
var Formats = []Format{FormatRaw, FormatCompact, FormatStructured, FormatMarkdown}

var aliases = map[string]Format{
	"raw":        FormatRaw,
	"json":       FormatRaw,
	"compact":    FormatCompact,
	"structured": FormatStructured,
	"detailed":   FormatStructured,
	"text":       FormatStructured,
	"markdown":   FormatMarkdown,
	"md":         FormatMarkdown,
}

// ParseFormat accepts canonical names and aliases, case-insensitively.
func ParseFormat(name string) (Format, error) {
	f, ok := aliases[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return "", fmt.Errorf("unknown output format %q (valid: %s)", name, formatNames())
	}
	return f, nil
}

// Normalize maps a name to its canonical format, falling back to compact.
func Normalize(name string) Format {
	f, err := ParseFormat(name)
	if err != nil {
		return DefaultFormat
	}
	return f
}

func formatNames() string {
	names := make([]string, len(Formats))
	for i, f := range Formats {
		names[i] = string(f)
	}
	return strings.Join(names, ", ")
}

const (
	noEndpoints  = "No endpoints found."
	noTags       = "No tags found."
	noComponents = "No components found."
	noSessions   = "No sessions found."
)

// Renderer converts each result shape into text.
type Renderer interface {
	EndpointList(eps []model.EndpointSummary) string
	EndpointDetail(d *model.EndpointDetail) string
	SessionInfo(info model.SessionInfo) string
	SessionList(list model.SessionList) string
	TagList(tags model.TagList) string
	Components(c model.Components) string
	Success(message string) string
	Error(message string) string
}

var renderers = map[Format]Renderer{
	FormatRaw:        Raw{},
	FormatCompact:    Compact{},
	FormatStructured: Structured{},
	FormatMarkdown:   Markdown{},
}

// For returns the renderer for a format name. Unknown and empty names get the
// compact renderer.
func For(name string) Renderer {
	return renderers[Normalize(name)]
}
