// Package query answers structural questions about a loaded specification.
// Missing or malformed optional data never fails a query; it only leaves the
// corresponding part of the result empty.
package query

import (
	"slices"
	"strings"

	"github.com/kolah/apilens/internal/document"
	"github.com/kolah/apilens/internal/model"
)

// Filter narrows ListEndpoints. Empty fields match everything.
type Filter struct {
	Tags    []string
	Methods []string
}

// ListEndpoints enumerates every (path, method) pair in path declaration order
// and canonical method order.
func ListEndpoints(spec *document.Spec, f Filter) []model.EndpointSummary {
	var out []model.EndpointSummary
	for path, item := range spec.Paths().Pairs() {
		item = spec.Deref(item)
		for _, m := range model.Methods {
			op := item.Get(string(m))
			if !op.IsMap() {
				continue
			}
			if !matchMethod(m, f.Methods) {
				continue
			}
			if !matchTags(op.Get("tags").Strings(), f.Tags) {
				continue
			}
			out = append(out, summarize(path, m, op))
		}
	}
	return out
}

func matchMethod(m model.Method, methods []string) bool {
	if len(methods) == 0 {
		return true
	}
	for _, want := range methods {
		if strings.EqualFold(string(m), strings.TrimSpace(want)) {
			return true
		}
	}
	return false
}

func matchTags(tags, want []string) bool {
	if len(want) == 0 {
		return true
	}
	for _, t := range tags {
		if slices.Contains(want, t) {
			return true
		}
	}
	return false
}

func summarize(path string, m model.Method, op *document.Node) model.EndpointSummary {
	return model.EndpointSummary{
		Path:        path,
		Method:      m,
		OperationID: op.Str("operationId"),
		Summary:     op.Str("summary"),
		Description: op.Str("description"),
		Tags:        op.Get("tags").Strings(),
		Deprecated:  op.Get("deprecated").Bool(),
	}
}

// lookupOperation finds the path item and operation for a (path, method)
// pair; the method is matched case-insensitively. The operation is nil when
// absent.
func lookupOperation(spec *document.Spec, path, method string) (*document.Node, *document.Node, model.Method) {
	m := model.Method(strings.ToLower(strings.TrimSpace(method)))
	item := spec.Deref(spec.Paths().Get(path))
	if item == nil || !slices.Contains(model.Methods, m) {
		return item, nil, m
	}
	op := item.Get(string(m))
	if !op.IsMap() {
		return item, nil, m
	}
	return item, op, m
}

// Tags returns the declared global tags in declaration order followed by tags
// that only appear on operations, in first-seen order.
func Tags(spec *document.Spec) []string {
	seen := make(map[string]bool)
	var out []string
	add := func(name string) {
		if name == "" || seen[name] {
			return
		}
		seen[name] = true
		out = append(out, name)
	}
	for _, t := range spec.Tags() {
		add(t.Name)
	}
	for _, ep := range ListEndpoints(spec, Filter{}) {
		for _, t := range ep.Tags {
			add(t)
		}
	}
	return out
}

// Components returns the whole components mapping or one section of it. An
// absent section is an empty result.
func Components(spec *document.Spec, typ string) model.Components {
	res := model.Components{Type: typ, Resolver: spec}
	all := spec.Components()
	if typ == "" {
		res.Node = all
		for name, section := range all.Pairs() {
			res.Sections = append(res.Sections, componentSection(name, section))
		}
		return res
	}
	section := all.Get(typ)
	if !section.IsMap() {
		return res
	}
	res.Node = section
	res.Sections = []model.ComponentSection{componentSection(typ, section)}
	return res
}

func componentSection(typ string, section *document.Node) model.ComponentSection {
	cs := model.ComponentSection{Type: typ}
	for name, def := range section.Pairs() {
		cs.Entries = append(cs.Entries, model.ComponentEntry{Name: name, Node: def})
	}
	return cs
}

// Stats are the counts reported with session info.
type Stats struct {
	Endpoints int
	Tags      int
	Schemas   int
}

func Count(spec *document.Spec) Stats {
	return Stats{
		Endpoints: len(ListEndpoints(spec, Filter{})),
		Tags:      len(Tags(spec)),
		Schemas:   spec.Components().Get("schemas").Len(),
	}
}
