package docs

import (
	"path/filepath"
	"slices"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

const defaultBaseName = "api-documentation"

var docExtensions = []string{".md", ".markdown", ".html", ".htm"}

// Filename picks the output file name. An empty request falls back to a slug
// of the title; a request with a documentation extension has it replaced by
// the one matching f, and any other request gets the extension appended.
func Filename(title, requested string, f Format) string {
	ext := f.Extension()
	name := strings.TrimSpace(requested)
	if name == "" {
		base := Slug(title)
		if base == "" {
			base = defaultBaseName
		}
		return base + ext
	}
	if cur := filepath.Ext(name); slices.Contains(docExtensions, strings.ToLower(cur)) {
		name = strings.TrimSuffix(name, cur)
	}
	return name + ext
}

// Slug folds accents away, lowercases, and joins ASCII letter and digit runs
// with single dashes.
func Slug(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		folded = s
	}
	folded = cases.Lower(language.Und).String(folded)

	var b strings.Builder
	pendingDash := false
	for _, r := range folded {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			if pendingDash && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingDash = false
			b.WriteRune(r)
			continue
		}
		pendingDash = true
	}
	return b.String()
}
