package outline

import (
	"strconv"
	"strings"
)

// NoName labels function literals that are not bound to any name.
const NoName = "no name"

// Kind tells how a node was recognised.
type Kind string

const (
	KindFunction    Kind = "function"
	KindMethod      Kind = "method"
	KindConstructor Kind = "constructor"
	KindLiteral     Kind = "literal"
)

// FunctionNode is one function-like construct and the functions nested in it.
// Nodes are immutable once returned from Build.
type FunctionNode struct {
	Name     string          `json:"name"`
	Kind     Kind            `json:"kind"`
	Span     Span            `json:"span"`
	Comment  string          `json:"comment,omitempty"`
	Children []*FunctionNode `json:"children,omitempty"`
}

// Walk visits n and its descendants depth-first in document order. Returning
// false from fn skips the subtree.
func (n *FunctionNode) Walk(fn func(node *FunctionNode, depth int) bool) {
	n.walk(fn, 0)
}

func (n *FunctionNode) walk(fn func(*FunctionNode, int) bool, depth int) {
	if !fn(n, depth) {
		return
	}
	for _, c := range n.Children {
		c.walk(fn, depth+1)
	}
}

// Descendants returns every node strictly below n in pre-order.
func (n *FunctionNode) Descendants() []*FunctionNode {
	var out []*FunctionNode
	n.Walk(func(node *FunctionNode, depth int) bool {
		if depth > 0 {
			out = append(out, node)
		}
		return true
	})
	return out
}

// Forest is the outline of one document version.
type Forest struct {
	URI        string          `json:"uri"`
	Version    int32           `json:"version"`
	LanguageID string          `json:"languageId"`
	Roots      []*FunctionNode `json:"roots"`
}

// Flatten returns all nodes in pre-order.
func (f *Forest) Flatten() []*FunctionNode {
	if f == nil {
		return nil
	}
	var out []*FunctionNode
	for _, r := range f.Roots {
		r.Walk(func(node *FunctionNode, _ int) bool {
			out = append(out, node)
			return true
		})
	}
	return out
}

// Node resolves a path of child indexes from the roots.
func (f *Forest) Node(path []int) *FunctionNode {
	if f == nil || len(path) == 0 {
		return nil
	}
	level := f.Roots
	var node *FunctionNode
	for _, i := range path {
		if i < 0 || i >= len(level) {
			return nil
		}
		node = level[i]
		level = node.Children
	}
	return node
}

// NodeID renders a path as a stable dotted identifier, e.g. "0.2.1".
func NodeID(path []int) string {
	parts := make([]string, len(path))
	for i, p := range path {
		parts[i] = strconv.Itoa(p)
	}
	return strings.Join(parts, ".")
}

// ParseNodeID is the inverse of NodeID.
func ParseNodeID(id string) ([]int, bool) {
	if id == "" {
		return nil, false
	}
	parts := strings.Split(id, ".")
	path := make([]int, len(parts))
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil || n < 0 {
			return nil, false
		}
		path[i] = n
	}
	return path, true
}
