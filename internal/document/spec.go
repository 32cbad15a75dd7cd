package document

import (
	"strconv"
	"strings"

	"go.yaml.in/yaml/v4"
)

// maxRefHops bounds chains of $ref → $ref indirection.
const maxRefHops = 16

// Spec is a loaded OpenAPI 3.x or Swagger 2.0 document.
type Spec struct {
	Root *Node

	// Dereferenced is false when the document is the raw, non-dereferenced
	// fallback and may still carry $ref nodes everywhere.
	Dereferenced bool

	components *Node
}

type Info struct {
	Title       string
	Description string
	Version     string
}

type Tag struct {
	Name        string
	Description string
}

func NewSpec(root *Node, dereferenced bool) *Spec {
	s := &Spec{Root: root, Dereferenced: dereferenced}
	if s.Root.Get("components") == nil && s.IsSwagger2() {
		s.components = s.swagger2Components()
	}
	return s
}

func (s *Spec) Info() Info {
	info := s.Root.Get("info")
	return Info{
		Title:       info.Str("title"),
		Description: info.Str("description"),
		Version:     info.Str("version"),
	}
}

// Version returns the openapi or swagger version string.
func (s *Spec) Version() string {
	if v := s.Root.Str("openapi"); v != "" {
		return v
	}
	return s.Root.Str("swagger")
}

func (s *Spec) IsSwagger2() bool {
	return s.Root.Str("openapi") == "" && strings.HasPrefix(s.Root.Str("swagger"), "2")
}

// BaseURL derives the API base URL from servers (3.x) or
// schemes/host/basePath (2.0).
func (s *Spec) BaseURL() string {
	for _, server := range s.Root.Get("servers").Items() {
		if u := server.Str("url"); u != "" {
			return u
		}
	}
	host := s.Root.Str("host")
	if host == "" {
		return ""
	}
	scheme := "https"
	if schemes := s.Root.Get("schemes").Strings(); len(schemes) > 0 {
		scheme = schemes[0]
	}
	return scheme + "://" + host + s.Root.Str("basePath")
}

func (s *Spec) Paths() *Node {
	return s.Root.Get("paths")
}

// Tags returns the declared global tags in declaration order.
func (s *Spec) Tags() []Tag {
	var tags []Tag
	for _, t := range s.Root.Get("tags").Items() {
		if name := t.Str("name"); name != "" {
			tags = append(tags, Tag{Name: name, Description: t.Str("description")})
		}
	}
	return tags
}

// Security returns the global security requirement list.
func (s *Spec) Security() *Node {
	return s.Root.Get("security")
}

// Components returns the components mapping. Swagger 2.0 documents get one
// synthesized from their top-level definitions, parameters, responses and
// securityDefinitions.
func (s *Spec) Components() *Node {
	if c := s.Root.Get("components"); c != nil {
		return c
	}
	return s.components
}

func (s *Spec) swagger2Components() *Node {
	sections := []struct {
		from string
		to   string
	}{
		{"definitions", "schemas"},
		{"parameters", "parameters"},
		{"responses", "responses"},
		{"securityDefinitions", "securitySchemes"},
	}
	out := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	for _, sec := range sections {
		n := s.Root.Get(sec.from)
		if !n.IsMap() {
			continue
		}
		out.Content = append(out.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: sec.to},
			n.raw(),
		)
	}
	if len(out.Content) == 0 {
		return nil
	}
	return wrap(out)
}

// ResolveSchema looks up a named schema by reference string. Only the final
// path segment is used as the key.
func (s *Spec) ResolveSchema(ref string) (*Node, bool) {
	name := RefName(ref)
	if name == "" {
		return nil, false
	}
	if n := s.Root.Path("components", "schemas", name); n != nil {
		return n, true
	}
	if n := s.Root.Path("definitions", name); n != nil {
		return n, true
	}
	return nil, false
}

// Deref follows local JSON pointer references. Unresolvable references return
// the original node.
func (s *Spec) Deref(n *Node) *Node {
	cur := n
	for range maxRefHops {
		ref := cur.Str("$ref")
		if ref == "" {
			return cur
		}
		target := s.Pointer(ref)
		if target == nil {
			return cur
		}
		cur = target
	}
	return cur
}

// Pointer resolves a local "#/a/b" JSON pointer.
func (s *Spec) Pointer(ref string) *Node {
	if !strings.HasPrefix(ref, "#/") {
		return nil
	}
	cur := s.Root
	for _, tok := range strings.Split(ref[2:], "/") {
		tok = strings.ReplaceAll(strings.ReplaceAll(tok, "~1", "/"), "~0", "~")
		if cur.IsSeq() {
			found := false
			for i, item := range cur.Items() {
				if strconv.Itoa(i) == tok {
					cur, found = item, true
					break
				}
			}
			if !found {
				return nil
			}
			continue
		}
		cur = cur.Get(tok)
		if cur == nil {
			return nil
		}
	}
	return cur
}

// RefName returns the last segment of a reference string.
func RefName(ref string) string {
	parts := strings.Split(ref, "/")
	return parts[len(parts)-1]
}

