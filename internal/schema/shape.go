package schema

import (
	"strings"

	"github.com/kolah/apilens/internal/document"
)

type Kind int

const (
	KindUnknown Kind = iota
	KindPrimitive
	KindArray
	KindObject
	KindReference
)

func (k Kind) String() string {
	switch k {
	case KindPrimitive:
		return "primitive"
	case KindArray:
		return "array"
	case KindObject:
		return "object"
	case KindReference:
		return "reference"
	default:
		return "unknown"
	}
}

// Shape is a schema node classified once at traversal entry.
type Shape struct {
	Kind        Kind
	Type        string
	Format      string
	Ref         string
	Items       *document.Node
	Properties  *document.Node
	Required    []string
	Description string
}

// Classify inspects which fields a schema node carries and picks its variant.
func Classify(n *document.Node) Shape {
	s := Shape{
		Type:        typeOf(n),
		Format:      n.Str("format"),
		Description: n.Str("description"),
	}
	switch {
	case n.Str("$ref") != "":
		s.Kind = KindReference
		s.Ref = n.Str("$ref")
	case s.Type == "array" || n.Has("items"):
		s.Kind = KindArray
		s.Items = n.Get("items")
	case n.IsMap() && (n.Get("properties").IsMap() || s.Type == "object"):
		s.Kind = KindObject
		s.Properties = n.Get("properties")
		s.Required = n.Get("required").Strings()
	case s.Type != "":
		s.Kind = KindPrimitive
	default:
		s.Kind = KindUnknown
	}
	return s
}

// typeOf handles both `type: string` and the 3.1 `type: [string, "null"]` form.
func typeOf(n *document.Node) string {
	t := n.Get("type")
	if t.IsSeq() {
		for _, v := range t.Strings() {
			if v != "null" {
				return v
			}
		}
		return ""
	}
	return t.String()
}

// SimpleType renders the one-word shorthand of a schema: Pet, Pet[],
// string(date-time), map[string]Pet, object, any.
func SimpleType(n *document.Node) string {
	return simpleType(n, 0)
}

func simpleType(n *document.Node, depth int) string {
	if n == nil {
		return "any"
	}
	if depth > MaxDepth {
		return "…"
	}
	s := Classify(n)
	switch s.Kind {
	case KindReference:
		return document.RefName(s.Ref)
	case KindArray:
		return simpleType(s.Items, depth+1) + "[]"
	case KindObject:
		if ap := n.Get("additionalProperties"); ap.IsMap() && s.Properties.Len() == 0 {
			return "map[string]" + simpleType(ap, depth+1)
		}
		if title := n.Str("title"); title != "" {
			return title
		}
		return "object"
	case KindPrimitive:
		if s.Format != "" {
			return s.Type + "(" + s.Format + ")"
		}
		return s.Type
	}
	for _, kw := range []struct {
		key string
		sep string
	}{{"allOf", " & "}, {"oneOf", " | "}, {"anyOf", " | "}} {
		if members := n.Get(kw.key); members.Len() > 0 {
			var parts []string
			for _, m := range members.Items() {
				parts = append(parts, simpleType(m, depth+1))
			}
			return strings.Join(parts, kw.sep)
		}
	}
	return "any"
}
