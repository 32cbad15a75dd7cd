package document

import (
	"bytes"
	"encoding/json"
	"fmt"
	"iter"
	"strconv"

	"go.yaml.in/yaml/v4"
)

// Node is a read-only view over a decoded YAML or JSON value. Mapping keys keep
// their declaration order. All accessors are nil-safe.
type Node yaml.Node

// Parse decodes a YAML or JSON document into its root node.
func Parse(data []byte) (*Node, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	if doc.Kind == 0 || (doc.Kind == yaml.DocumentNode && len(doc.Content) == 0) {
		return nil, fmt.Errorf("empty document")
	}
	if doc.Kind == yaml.DocumentNode {
		return wrap(doc.Content[0]), nil
	}
	return wrap(&doc), nil
}

// FromValue encodes an arbitrary Go value into a Node. Used for synthesized
// sections and by tests.
func FromValue(v any) (*Node, error) {
	var n yaml.Node
	if err := n.Encode(v); err != nil {
		return nil, err
	}
	return wrap(&n), nil
}

func wrap(n *yaml.Node) *Node {
	for n != nil && n.Kind == yaml.AliasNode {
		n = n.Alias
	}
	return (*Node)(n)
}

func (n *Node) raw() *yaml.Node {
	return (*yaml.Node)(n)
}

func (n *Node) IsMap() bool {
	return n != nil && n.Kind == yaml.MappingNode
}

func (n *Node) IsSeq() bool {
	return n != nil && n.Kind == yaml.SequenceNode
}

func (n *Node) IsScalar() bool {
	return n != nil && n.Kind == yaml.ScalarNode
}

func (n *Node) IsNull() bool {
	return n == nil || (n.Kind == yaml.ScalarNode && n.Tag == "!!null")
}

// Get returns the value stored under key, or nil when n is not a mapping or
// the key is absent.
func (n *Node) Get(key string) *Node {
	if !n.IsMap() {
		return nil
	}
	for i := 0; i+1 < len(n.Content); i += 2 {
		if n.Content[i].Value == key {
			return wrap(n.Content[i+1])
		}
	}
	return nil
}

// Path walks nested mappings.
func (n *Node) Path(keys ...string) *Node {
	cur := n
	for _, k := range keys {
		cur = cur.Get(k)
		if cur == nil {
			return nil
		}
	}
	return cur
}

func (n *Node) Has(key string) bool {
	return n.Get(key) != nil
}

// Pairs iterates mapping entries in declaration order.
func (n *Node) Pairs() iter.Seq2[string, *Node] {
	return func(yield func(string, *Node) bool) {
		if !n.IsMap() {
			return
		}
		for i := 0; i+1 < len(n.Content); i += 2 {
			if !yield(n.Content[i].Value, wrap(n.Content[i+1])) {
				return
			}
		}
	}
}

// Keys returns the mapping keys in declaration order.
func (n *Node) Keys() []string {
	var keys []string
	for k := range n.Pairs() {
		keys = append(keys, k)
	}
	return keys
}

// Items iterates sequence elements.
func (n *Node) Items() iter.Seq2[int, *Node] {
	return func(yield func(int, *Node) bool) {
		if !n.IsSeq() {
			return
		}
		for i, c := range n.Content {
			if !yield(i, wrap(c)) {
				return
			}
		}
	}
}

// Len is the number of entries of a mapping or elements of a sequence.
func (n *Node) Len() int {
	switch {
	case n.IsMap():
		return len(n.Content) / 2
	case n.IsSeq():
		return len(n.Content)
	}
	return 0
}

// String returns the scalar value, or "" for anything else.
func (n *Node) String() string {
	if !n.IsScalar() || n.IsNull() {
		return ""
	}
	return n.Value
}

// Str is shorthand for n.Get(key).String().
func (n *Node) Str(key string) string {
	return n.Get(key).String()
}

// Bool reports whether the scalar is a YAML true.
func (n *Node) Bool() bool {
	if !n.IsScalar() {
		return false
	}
	b, err := strconv.ParseBool(n.Value)
	return err == nil && b
}

// Strings returns the scalar elements of a sequence.
func (n *Node) Strings() []string {
	var out []string
	for _, item := range n.Items() {
		if item.IsScalar() {
			out = append(out, item.Value)
		}
	}
	return out
}

// Decode decodes the node into v.
func (n *Node) Decode(v any) error {
	if n == nil {
		return fmt.Errorf("decode of nil node")
	}
	return n.raw().Decode(v)
}

// Interface converts the node into plain Go values. Mapping order is lost;
// use MarshalJSON when order matters.
func (n *Node) Interface() any {
	if n == nil {
		return nil
	}
	var v any
	if err := n.Decode(&v); err != nil {
		return n.Value
	}
	return v
}

// MarshalJSON writes the node as JSON, keeping mapping order.
func (n *Node) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	if err := n.writeJSON(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (n *Node) writeJSON(buf *bytes.Buffer) error {
	switch {
	case n == nil || n.IsNull():
		buf.WriteString("null")
	case n.IsMap():
		buf.WriteByte('{')
		first := true
		for k, v := range n.Pairs() {
			if !first {
				buf.WriteByte(',')
			}
			first = false
			key, _ := json.Marshal(k)
			buf.Write(key)
			buf.WriteByte(':')
			if err := v.writeJSON(buf); err != nil {
				return err
			}
		}
		buf.WriteByte('}')
	case n.IsSeq():
		buf.WriteByte('[')
		for i, v := range n.Items() {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := v.writeJSON(buf); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
	default:
		data, err := json.Marshal(n.Interface())
		if err != nil {
			// .inf, .nan and friends have no JSON form.
			data, _ = json.Marshal(n.Value)
		}
		buf.Write(data)
	}
	return nil
}
