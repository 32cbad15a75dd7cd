// Package schema renders structural summaries of schema graphs that may be
// deeply nested or cyclic.
package schema

import (
	"github.com/kolah/apilens/internal/document"
)

// MaxDepth is the deepest level that is expanded. Anything below it collapses
// into a one-line placeholder, which is also what stops self-referencing
// schemas.
const MaxDepth = 3

// Resolver looks up a named schema by reference string.
type Resolver interface {
	ResolveSchema(ref string) (*document.Node, bool)
}

// Property is one row of an object's property table.
type Property struct {
	Name        string
	Type        string
	Required    bool
	Description string
}

// Emitter decides the concrete syntax of a schema walk.
type Emitter interface {
	Simple(typ, description string) string
	Truncated(typ string) string
	Unresolved(name string) string
	Reference(name, body string) string
	ArrayOf(body string) string
	Object(props []Property) string
	Nested(name, body string) string
}

type Formatter struct {
	resolver Resolver
	emit     Emitter
}

func New(resolver Resolver, emit Emitter) *Formatter {
	return &Formatter{resolver: resolver, emit: emit}
}

// Format renders n starting at depth 0.
func (f *Formatter) Format(n *document.Node) string {
	return f.FormatAt(n, 0)
}

func (f *Formatter) FormatAt(n *document.Node, depth int) string {
	if n == nil {
		return f.emit.Simple("any", "")
	}
	if depth > MaxDepth {
		return f.emit.Truncated(SimpleType(n))
	}

	s := Classify(n)
	switch s.Kind {
	case KindReference:
		name := document.RefName(s.Ref)
		target, ok := f.resolve(s.Ref)
		if !ok {
			return f.emit.Unresolved(name)
		}
		return f.emit.Reference(name, f.FormatAt(target, depth+1))

	case KindArray:
		return f.emit.ArrayOf(f.FormatAt(s.Items, depth+1))

	case KindObject:
		if s.Properties.Len() == 0 {
			return f.emit.Simple(SimpleType(n), s.Description)
		}
		required := make(map[string]bool, len(s.Required))
		for _, r := range s.Required {
			required[r] = true
		}
		var props []Property
		for name, p := range s.Properties.Pairs() {
			props = append(props, Property{
				Name:        name,
				Type:        SimpleType(p),
				Required:    required[name],
				Description: p.Str("description"),
			})
		}
		out := f.emit.Object(props)
		if depth == 0 {
			for name, p := range s.Properties.Pairs() {
				if isRefLike(p) {
					out += f.emit.Nested(name, f.FormatAt(p, depth+1))
				}
			}
		}
		return out
	}

	return f.emit.Simple(SimpleType(n), s.Description)
}

func (f *Formatter) resolve(ref string) (target *document.Node, ok bool) {
	if f.resolver == nil {
		return nil, false
	}
	defer func() {
		// A broken resolver degrades to the bare name.
		if recover() != nil {
			target, ok = nil, false
		}
	}()
	return f.resolver.ResolveSchema(ref)
}

// isRefLike reports a direct reference or an array of references.
func isRefLike(n *document.Node) bool {
	s := Classify(n)
	if s.Kind == KindReference {
		return true
	}
	return s.Kind == KindArray && Classify(s.Items).Kind == KindReference
}
