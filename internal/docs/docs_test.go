package docs

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kolah/apilens/internal/document"
	"github.com/kolah/apilens/internal/model"
	"github.com/kolah/apilens/internal/templates"
)

const storeDoc = `openapi: 3.0.3
info:
  title: Café Store API
  version: 2.1.0
  description: |
    Sells **coffee**.

    Second paragraph.
servers:
  - url: https://api.example.com
tags:
  - name: orders
    description: Place & track orders
  - name: menu
paths:
  /menu:
    get:
      tags: [menu]
      summary: Show the menu
      responses:
        "200":
          description: The menu
          content:
            application/json:
              schema: {type: array, items: {$ref: '#/components/schemas/Drink'}}
  /orders:
    post:
      tags: [orders, menu]
      summary: Order a drink
      description: "Plain text with a < sign\nand a second line"
      security:
        - key: []
      requestBody:
        required: true
        content:
          application/json:
            schema: {$ref: '#/components/schemas/Drink'}
      responses:
        "201": {description: Created}
  /ping:
    get:
      responses:
        "204": {description: Alive}
components:
  schemas:
    Drink:
      type: object
      required: [name]
      properties:
        name: {type: string}
        size: {type: string}
  securitySchemes:
    key: {type: apiKey, in: header, name: X-Key}
`

func loadSpec(t *testing.T, src string) (*document.Spec, model.SessionInfo) {
	t.Helper()
	root, err := document.Parse([]byte(src))
	require.NoError(t, err)
	spec := document.NewSpec(root, false)
	info := spec.Info()
	return spec, model.SessionInfo{
		Title:       info.Title,
		Version:     info.Version,
		Description: info.Description,
		BaseURL:     spec.BaseURL(),
	}
}

func newGenerator(t *testing.T) *Generator {
	t.Helper()
	engine, err := templates.NewDefault("")
	require.NoError(t, err)
	return NewGenerator(engine, WithClock(func() time.Time {
		return time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)
	}))
}

func TestFilename(t *testing.T) {
	tests := []struct {
		name      string
		title     string
		requested string
		format    Format
		want      string
	}{
		{"title slug markdown", "Café Store API", "", FormatMarkdown, "cafe-store-api.md"},
		{"title slug html", "Café Store API", "", FormatHTML, "cafe-store-api.html"},
		{"empty title", "", "", FormatMarkdown, "api-documentation.md"},
		{"symbols only title", "!!!", "", FormatHTML, "api-documentation.html"},
		{"wrong extension replaced", "x", "guide.md", FormatHTML, "guide.html"},
		{"htm replaced", "x", "guide.htm", FormatHTML, "guide.html"},
		{"upper case extension", "x", "guide.MARKDOWN", FormatMarkdown, "guide.md"},
		{"no extension", "x", "guide", FormatMarkdown, "guide.md"},
		{"other extension kept", "x", "guide.v2", FormatMarkdown, "guide.v2.md"},
		{"path kept", "x", "out/guide.html", FormatMarkdown, "out/guide.md"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Filename(tt.title, tt.requested, tt.format))
		})
	}
}

func TestSlug(t *testing.T) {
	assert.Equal(t, "cafe-store-api", Slug("  Café  Store -- API "))
	assert.Equal(t, "uber-api-v2", Slug("Über API v2"))
	assert.Equal(t, "", Slug("???"))
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat("HTML")
	require.NoError(t, err)
	assert.Equal(t, FormatHTML, f)

	f, err = ParseFormat("")
	require.NoError(t, err)
	assert.Equal(t, FormatMarkdown, f)

	_, err = ParseFormat("pdf")
	assert.Error(t, err)
}

func TestMarkdownDocument(t *testing.T) {
	spec, info := loadSpec(t, storeDoc)
	out, err := newGenerator(t).Generate(spec, info, DefaultOptions())
	require.NoError(t, err)

	assert.Equal(t, "cafe-store-api.md", out.Filename)
	c := out.Content
	assert.True(t, strings.HasPrefix(c, "# Café Store API\n"))
	assert.Contains(t, c, "**Base URL:** `https://api.example.com`")
	assert.Contains(t, c, "## Table of Contents")
	assert.Contains(t, c, "- [orders](#tag-orders)")
	assert.Contains(t, c, "  - [POST /orders](#tag-orders-post-orders) - Order a drink")
	assert.Contains(t, c, "- [Components](#components)")

	// orders, menu, then the untagged bucket
	iOrders := strings.Index(c, "## orders")
	iMenu := strings.Index(c, "## menu")
	iOther := strings.Index(c, "## Other Endpoints")
	iComponents := strings.Index(c, "## Components")
	require.True(t, iOrders > 0 && iMenu > 0 && iOther > 0 && iComponents > 0)
	assert.Less(t, iOrders, iMenu)
	assert.Less(t, iMenu, iOther)
	assert.Less(t, iOther, iComponents)

	assert.Equal(t, 2, strings.Count(c, "### POST /orders"), "listed under both of its tags")
	assert.Contains(t, c, "Place & track orders")
	assert.Contains(t, c, "#### Security")
	assert.Contains(t, c, "| name | string | yes |  |")
	assert.Contains(t, c, "#### Drink")
}

func TestMarkdownWithoutGroupingOrTOC(t *testing.T) {
	spec, info := loadSpec(t, storeDoc)
	opts := DefaultOptions()
	opts.GroupByTag = false
	opts.IncludeTOC = false
	opts.IncludeComponents = false
	opts.IncludeSecurity = false

	out, err := newGenerator(t).Generate(spec, info, opts)
	require.NoError(t, err)
	c := out.Content
	assert.NotContains(t, c, "Table of Contents")
	assert.Contains(t, c, "## Endpoints")
	assert.NotContains(t, c, "Other Endpoints")
	assert.Equal(t, 1, strings.Count(c, "### POST /orders"))
	assert.NotContains(t, c, "## Components")
	assert.NotContains(t, c, "Security")
}

func TestFlatTOC(t *testing.T) {
	spec, info := loadSpec(t, storeDoc)
	opts := DefaultOptions()
	opts.GroupByTag = false

	out, err := newGenerator(t).Generate(spec, info, opts)
	require.NoError(t, err)
	assert.Contains(t, out.Content, "- [GET /menu](#endpoints-get-menu) - Show the menu\n")
}

func TestMarkdownNoEndpoints(t *testing.T) {
	spec, info := loadSpec(t, "openapi: 3.0.0\ninfo: {title: Empty, version: '0'}\npaths: {}\n")
	out, err := newGenerator(t).Generate(spec, info, DefaultOptions())
	require.NoError(t, err)
	assert.Contains(t, out.Content, "No endpoints found.")
	assert.Equal(t, "empty.md", out.Filename)
}

func TestHTMLDocument(t *testing.T) {
	spec, info := loadSpec(t, storeDoc)
	opts := DefaultOptions()
	opts.Format = FormatHTML
	opts.Filename = "store.md"

	out, err := newGenerator(t).Generate(spec, info, opts)
	require.NoError(t, err)
	assert.Equal(t, "store.html", out.Filename)

	c := out.Content
	assert.True(t, strings.HasPrefix(c, "<!DOCTYPE html>"))
	assert.Contains(t, c, `<nav class="sidebar">`)
	assert.Contains(t, c, `id="tag-orders-post-orders"`)
	assert.Contains(t, c, `id="other-endpoints"`)
	assert.Contains(t, c, "<strong>coffee</strong>", "markdown descriptions are converted")
	assert.Contains(t, c, "<p>Plain text with a &lt; sign<br>and a second line</p>", "plain text is escaped")
	assert.Contains(t, c, `<table class="schema-table">`)
	assert.Contains(t, c, `<h4 id="component-schemas-drink">Drink</h4>`)
	assert.Contains(t, c, "Generated 2024-06-01 10:00:00 UTC")
}

func TestHTMLNeedsEngine(t *testing.T) {
	spec, info := loadSpec(t, storeDoc)
	opts := DefaultOptions()
	opts.Format = FormatHTML
	_, err := NewGenerator(nil).Generate(spec, info, opts)
	assert.Error(t, err)
}

func TestDescriptionHeuristic(t *testing.T) {
	g := newGenerator(t)
	tests := []struct {
		in   string
		want string
	}{
		{"plain words", "<p>plain words</p>"},
		{"a & b\nc", "<p>a &amp; b<br>c</p>"},
		{"use `code`", "<p>use <code>code</code></p>\n"},
		{"one\n\ntwo", "<p>one</p>\n<p>two</p>\n"},
		{"", ""},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, string(g.description(tt.in)))
		})
	}
}
