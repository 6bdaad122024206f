package outline

import (
	"slices"
	"strings"

	treesitterhelper "github.com/function-map/function-map-lsp/internal/tree_sitter_helper"
	tree_sitter "github.com/tree-sitter/go-tree-sitter"
)

// IsCandidate reports whether node is a function-like construct the outline
// shows. Anonymous callbacks passed straight into a call are not.
func (d *Dialect) IsCandidate(node *tree_sitter.Node, content []byte) bool {
	return d.candidate.Matches(node, content)
}

// classify turns a candidate syntax node into a FunctionNode without
// children. It returns nil for non-candidates.
func (d *Dialect) classify(node *tree_sitter.Node, content []byte, li *LineIndex) *FunctionNode {
	switch {
	case d.declaration.Matches(node, content):
		name := nodeName(treesitterhelper.FieldOrFirstNamed(node, "name"), content)
		kind := KindFunction
		if slices.Contains(d.MethodKinds, node.Kind()) {
			kind = KindMethod
			if slices.Contains(d.Constructors, name) {
				kind = KindConstructor
			}
		}
		return &FunctionNode{
			Name:    name,
			Kind:    kind,
			Span:    nodeSpan(li, node),
			Comment: d.precedingComment(node, content),
		}

	case d.literal.Matches(node, content):
		if d.callback.Matches(node, content) {
			return nil
		}
		spanNode, name := d.recoverDeclaration(node, content)
		kind := KindFunction
		if name == "" {
			name, kind = NoName, KindLiteral
		}
		return &FunctionNode{
			Name:    name,
			Kind:    kind,
			Span:    nodeSpan(li, spanNode),
			Comment: d.precedingComment(spanNode, content),
		}
	}
	return nil
}

// recoverDeclaration finds the node whose span represents a function literal
// and the name it is bound to. Without a binding it returns the literal
// itself and an empty name.
func (d *Dialect) recoverDeclaration(literal *tree_sitter.Node, content []byte) (*tree_sitter.Node, string) {
	binding := treesitterhelper.SkipWrappers(literal, d.WrapperKinds)
	if binding == nil {
		return literal, ""
	}
	binder, ok := d.Bindings[binding.Kind()]
	if !ok || !bindsValue(binding, binder.ValueField, literal) {
		return literal, ""
	}

	name := nodeName(treesitterhelper.FieldOrFirstNamed(binding, binder.NameField), content)

	// `const a = () => {}` spans the whole statement, `let a = () => {}, b = 1`
	// only the declarator.
	enclosing := binding.Parent()
	if enclosing != nil && slices.Contains(d.EnclosingKinds, enclosing.Kind()) &&
		treesitterhelper.NamedChildrenOfKind(enclosing, binding.Kind()) == 1 {
		return enclosing, name
	}
	return binding, name
}

func bindsValue(binding *tree_sitter.Node, valueField string, literal *tree_sitter.Node) bool {
	if valueField == "" {
		return true
	}
	value := binding.ChildByFieldName(valueField)
	return value != nil && value.StartByte() <= literal.StartByte() && literal.EndByte() <= value.EndByte()
}

// precedingComment returns the formatted comment token directly before node.
// A node wrapped in an export statement takes the comment before the export.
func (d *Dialect) precedingComment(node *tree_sitter.Node, content []byte) string {
	for parent := node.Parent(); parent != nil && slices.Contains(d.ExportKinds, parent.Kind()); parent = parent.Parent() {
		node = parent
	}
	prev := node.PrevSibling()
	if prev == nil || !slices.Contains(d.CommentKinds, prev.Kind()) {
		return ""
	}
	return FormatComment(prev.Utf8Text(content))
}

func nodeName(node *tree_sitter.Node, content []byte) string {
	if node == nil {
		return ""
	}
	return strings.Join(strings.Fields(node.Utf8Text(content)), " ")
}

func nodeSpan(li *LineIndex, node *tree_sitter.Node) Span {
	return li.Span(int(node.StartByte()), int(node.EndByte()))
}
