package outline

import (
	"context"
	"errors"
	"slices"

	treesitterhelper "github.com/function-map/function-map-lsp/internal/tree_sitter_helper"
	tree_sitter "github.com/tree-sitter/go-tree-sitter"
)

var ErrNoTree = errors.New("outline: parser returned no tree")

// Extract returns the unnested candidates of a parsed tree in document order.
func (d *Dialect) Extract(root *tree_sitter.Node, content []byte) []*FunctionNode {
	li := NewLineIndex(content)
	var out []*FunctionNode
	for _, node := range treesitterhelper.FindAll(root, d.candidate, content) {
		if fn := d.classify(node, content, li); fn != nil {
			out = append(out, fn)
		}
	}
	return out
}

// FromTree builds the containment forest of an already parsed tree.
func (d *Dialect) FromTree(root *tree_sitter.Node, content []byte) []*FunctionNode {
	return Build(d.Extract(root, content))
}

// Parse parses content with a fresh parser. The caller closes the tree.
func (d *Dialect) Parse(ctx context.Context, content []byte) (*tree_sitter.Tree, error) {
	parser, err := d.NewParser()
	if err != nil {
		return nil, err
	}
	defer parser.Close()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	tree := parser.Parse(content, nil)
	if tree == nil {
		return nil, ErrNoTree
	}
	return tree, nil
}

// Outline parses content and returns its function forest.
func (d *Dialect) Outline(ctx context.Context, content []byte) ([]*FunctionNode, error) {
	tree, err := d.Parse(ctx, content)
	if err != nil {
		return nil, err
	}
	defer tree.Close()
	return d.FromTree(tree.RootNode(), content), nil
}

// CommentAt returns the formatted comment directly preceding the outermost
// syntax node that starts at offset. Symbol providers report ranges, not
// nodes, so this is how their candidates get documentation.
func (d *Dialect) CommentAt(root *tree_sitter.Node, content []byte, offset int) string {
	if root == nil || offset < 0 || offset >= len(content) {
		return ""
	}
	li := NewLineIndex(content)
	line := li.Position(offset).Line
	point := tree_sitter.Point{Row: uint(line), Column: uint(offset - li.starts[line])}

	node := root.NamedDescendantForPointRange(point, point)
	if node == nil {
		return ""
	}
	for parent := node.Parent(); parent != nil && parent.StartByte() == node.StartByte() && parent.Id() != root.Id(); parent = node.Parent() {
		node = parent
	}
	// a declarator reported without its `const` keyword
	if parent := node.Parent(); parent != nil && slices.Contains(d.EnclosingKinds, parent.Kind()) {
		node = parent
	}
	if slices.Contains(d.CommentKinds, node.Kind()) {
		return ""
	}
	return d.precedingComment(node, content)
}
