package treesitterhelper

import (
	"slices"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"
)

// Pattern defines a pattern that can be matched against a tree-sitter node
type Pattern interface {
	Matches(node *tree_sitter.Node, content []byte) bool
}

// FuncPattern adapts a plain function to a Pattern
type FuncPattern func(node *tree_sitter.Node, content []byte) bool

func (f FuncPattern) Matches(node *tree_sitter.Node, content []byte) bool {
	return node != nil && f(node, content)
}

// Never matches nothing. Used where a dialect has no construct for a slot.
var Never Pattern = FuncPattern(func(*tree_sitter.Node, []byte) bool { return false })

// And matches when every pattern matches
func And(patterns ...Pattern) Pattern {
	return FuncPattern(func(node *tree_sitter.Node, content []byte) bool {
		for _, p := range patterns {
			if !p.Matches(node, content) {
				return false
			}
		}
		return true
	})
}

// Or matches when any pattern matches
func Or(patterns ...Pattern) Pattern {
	return FuncPattern(func(node *tree_sitter.Node, content []byte) bool {
		for _, p := range patterns {
			if p.Matches(node, content) {
				return true
			}
		}
		return false
	})
}

func Not(pattern Pattern) Pattern {
	return FuncPattern(func(node *tree_sitter.Node, content []byte) bool {
		return !pattern.Matches(node, content)
	})
}

// NodeKind matches a node's kind
func NodeKind(kind string) Pattern {
	return FuncPattern(func(node *tree_sitter.Node, _ []byte) bool {
		return node.Kind() == kind
	})
}

// AnyNodeKind matches any of the given kinds. An empty list never matches.
func AnyNodeKind(kinds ...string) Pattern {
	if len(kinds) == 0 {
		return Never
	}
	return FuncPattern(func(node *tree_sitter.Node, _ []byte) bool {
		return slices.Contains(kinds, node.Kind())
	})
}

// FindAll returns every named node matching pattern in pre-order (document order)
func FindAll(root *tree_sitter.Node, pattern Pattern, content []byte) []*tree_sitter.Node {
	var results []*tree_sitter.Node

	var visit func(node *tree_sitter.Node)
	visit = func(node *tree_sitter.Node) {
		if pattern.Matches(node, content) {
			results = append(results, node)
		}
		for i := uint(0); i < node.NamedChildCount(); i++ {
			visit(node.NamedChild(i))
		}
	}

	if root != nil {
		visit(root)
	}
	return results
}
