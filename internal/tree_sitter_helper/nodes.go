package treesitterhelper

import (
	"slices"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"
)

// FieldOrFirstNamed returns the child stored under field, falling back to the
// first named child when the grammar does not expose the field.
func FieldOrFirstNamed(node *tree_sitter.Node, field string) *tree_sitter.Node {
	if node == nil {
		return nil
	}
	if field != "" {
		if child := node.ChildByFieldName(field); child != nil {
			return child
		}
	}
	if node.NamedChildCount() == 0 {
		return nil
	}
	return node.NamedChild(0)
}

// SkipWrappers walks up from node through parents whose kind is in wrappers
// and returns the first parent that is not one of them, or nil at the root.
func SkipWrappers(node *tree_sitter.Node, wrappers []string) *tree_sitter.Node {
	parent := node.Parent()
	for parent != nil && slices.Contains(wrappers, parent.Kind()) {
		parent = parent.Parent()
	}
	return parent
}

// NamedChildrenOfKind counts named children with the given kind
func NamedChildrenOfKind(node *tree_sitter.Node, kind string) int {
	n := 0
	for i := uint(0); i < node.NamedChildCount(); i++ {
		if node.NamedChild(i).Kind() == kind {
			n++
		}
	}
	return n
}
