package treesitterhelper

import (
	"fmt"
	"io"
	"strings"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"
)

// PrintAllNodes writes an indented dump of the named nodes below node. Leaf
// nodes show their source text, truncated to one line.
func PrintAllNodes(w io.Writer, node *tree_sitter.Node, content []byte, indent string) {
	start := node.StartPosition()
	end := node.EndPosition()

	label := node.Kind()
	if parent := node.Parent(); parent != nil {
		for i := uint(0); i < parent.ChildCount(); i++ {
			if c := parent.Child(i); c != nil && c.Id() == node.Id() {
				if field := parent.FieldNameForChild(uint32(i)); field != "" {
					label = field + ": " + label
				}
				break
			}
		}
	}

	line := fmt.Sprintf("%s%s [%d:%d-%d:%d]", indent, label, start.Row, start.Column, end.Row, end.Column)
	if node.NamedChildCount() == 0 {
		text := node.Utf8Text(content)
		if i := strings.IndexByte(text, '\n'); i >= 0 {
			text = text[:i] + "..."
		}
		line += " " + fmt.Sprintf("%q", text)
	}
	fmt.Fprintln(w, line)

	for i := uint(0); i < node.NamedChildCount(); i++ {
		PrintAllNodes(w, node.NamedChild(i), content, indent+"  ")
	}
}
