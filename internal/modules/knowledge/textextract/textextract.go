// Package textextract flattens an editor document tree into plain text.
package textextract

import (
	"encoding/json"
	"strings"
)

// Node is one element of a document tree: a Text leaf, a Container or an Opaque node.
type Node interface {
	isNode()
}

type Text struct {
	Value string
}

type Container struct {
	Type     string
	Children []Node
}

// Opaque covers images, rules and any node type without text.
type Opaque struct {
	Type string
}

func (Text) isNode()      {}
func (Container) isNode() {}
func (Opaque) isNode()    {}

// Parse decodes raw editor JSON. Malformed input yields an empty tree.
func Parse(raw []byte) Node {
	var v any
	if len(raw) == 0 || json.Unmarshal(raw, &v) != nil {
		return Container{}
	}
	return FromValue(v)
}

// FromValue classifies an already decoded JSON value.
func FromValue(v any) Node {
	switch t := v.(type) {
	case string:
		return Text{Value: t}
	case []any:
		out := Container{Children: make([]Node, 0, len(t))}
		for _, child := range t {
			out.Children = append(out.Children, FromValue(child))
		}
		return out
	case map[string]any:
		typ, _ := t["type"].(string)
		if typ == "text" {
			s, _ := t["text"].(string)
			return Text{Value: s}
		}
		if children, ok := t["content"].([]any); ok {
			out := Container{Type: typ, Children: make([]Node, 0, len(children))}
			for _, child := range children {
				out.Children = append(out.Children, FromValue(child))
			}
			return out
		}
		return Opaque{Type: typ}
	default:
		return Opaque{}
	}
}

// Extract walks the tree depth-first and joins non-empty text with single spaces.
func Extract(n Node) string {
	switch t := n.(type) {
	case Text:
		return t.Value
	case Container:
		parts := make([]string, 0, len(t.Children))
		for _, child := range t.Children {
			if s := Extract(child); s != "" {
				parts = append(parts, s)
			}
		}
		return strings.Join(parts, " ")
	default:
		return ""
	}
}

func ExtractJSON(raw []byte) string {
	return Extract(Parse(raw))
}

// WordCount counts whitespace separated tokens.
func WordCount(text string) int {
	return len(strings.Fields(text))
}
