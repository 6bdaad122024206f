package outline

import "slices"

// Build nests candidates into a containment forest. Candidates are ordered by
// start offset (stable for ties, so an outer node listed first stays the
// parent) and placed with a single pass over an ancestor stack.
//
// The input slice is not modified. The returned nodes are fresh copies whose
// Children hold only the nesting computed here. Candidates that overlap
// without nesting become siblings of the node they overlap.
func Build(candidates []*FunctionNode) []*FunctionNode {
	nodes := make([]*FunctionNode, 0, len(candidates))
	for _, c := range candidates {
		if c == nil {
			continue
		}
		nodes = append(nodes, &FunctionNode{Name: c.Name, Kind: c.Kind, Span: c.Span, Comment: c.Comment})
	}
	slices.SortStableFunc(nodes, func(a, b *FunctionNode) int {
		if a.Span.StartOffset != b.Span.StartOffset {
			return a.Span.StartOffset - b.Span.StartOffset
		}
		// same start: the wider node encloses the narrower one
		return b.Span.EndOffset - a.Span.EndOffset
	})

	var roots []*FunctionNode
	stack := make([]*FunctionNode, 0, 8)
	for _, n := range nodes {
		for len(stack) > 0 && !stack[len(stack)-1].Span.Contains(n.Span) {
			stack = stack[:len(stack)-1]
		}
		if len(stack) == 0 {
			roots = append(roots, n)
		} else {
			top := stack[len(stack)-1]
			top.Children = append(top.Children, n)
		}
		stack = append(stack, n)
	}
	return roots
}
