package outline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fn(name string, startLine, endLine, start, end int) *FunctionNode {
	return &FunctionNode{
		Name: name,
		Kind: KindFunction,
		Span: Span{StartLine: startLine, StartOffset: start, EndLine: endLine, EndOffset: end},
	}
}

func names(nodes []*FunctionNode) []string {
	out := make([]string, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, n.Name)
	}
	return out
}

func TestBuildOuterInnerSibling(t *testing.T) {
	candidates := []*FunctionNode{
		fn("outer", 0, 10, 0, 200),
		fn("inner", 2, 5, 40, 100),
		fn("sibling", 11, 13, 210, 260),
	}

	roots := Build(candidates)

	require.Equal(t, []string{"outer", "sibling"}, names(roots))
	assert.Equal(t, []string{"inner"}, names(roots[0].Children))
	assert.Empty(t, roots[0].Children[0].Children)
	assert.Empty(t, roots[1].Children)
}

func TestBuildSortsAndPicksMinimalParent(t *testing.T) {
	candidates := []*FunctionNode{
		fn("c", 3, 4, 60, 80),
		fn("a", 0, 9, 0, 200),
		fn("d", 6, 7, 120, 150),
		fn("b", 2, 5, 40, 100),
	}

	roots := Build(candidates)

	require.Equal(t, []string{"a"}, names(roots))
	a := roots[0]
	require.Equal(t, []string{"b", "d"}, names(a.Children))
	assert.Equal(t, []string{"c"}, names(a.Children[0].Children))
}

func TestBuildSameStartWiderEncloses(t *testing.T) {
	roots := Build([]*FunctionNode{
		fn("narrow", 0, 1, 0, 10),
		fn("wide", 0, 5, 0, 90),
	})

	require.Equal(t, []string{"wide"}, names(roots))
	assert.Equal(t, []string{"narrow"}, names(roots[0].Children))
}

func TestBuildDoesNotMutateInput(t *testing.T) {
	outer := fn("outer", 0, 10, 0, 200)
	inner := fn("inner", 2, 5, 40, 100)

	first := Build([]*FunctionNode{outer, inner})
	second := Build([]*FunctionNode{outer, inner})

	assert.Empty(t, outer.Children)
	assert.Equal(t, first, second)
}

func TestBuildOverlappingDoesNotPanic(t *testing.T) {
	assert.NotPanics(t, func() {
		roots := Build([]*FunctionNode{
			fn("a", 0, 5, 0, 50),
			fn("b", 3, 8, 30, 80),
			nil,
		})
		assert.Equal(t, []string{"a", "b"}, names(roots))
	})
}

func TestBuildEmpty(t *testing.T) {
	assert.Empty(t, Build(nil))
}

func TestForestNodeAndIDs(t *testing.T) {
	forest := &Forest{Roots: Build([]*FunctionNode{
		fn("outer", 0, 10, 0, 200),
		fn("inner", 2, 5, 40, 100),
		fn("sibling", 11, 13, 210, 260),
	})}

	assert.Equal(t, "inner", forest.Node([]int{0, 0}).Name)
	assert.Equal(t, "sibling", forest.Node([]int{1}).Name)
	assert.Nil(t, forest.Node([]int{2}))
	assert.Nil(t, forest.Node([]int{0, 1}))
	assert.Nil(t, forest.Node(nil))
	assert.Nil(t, (*Forest)(nil).Node([]int{0}))

	assert.Equal(t, []string{"outer", "inner", "sibling"}, names(forest.Flatten()))
	assert.Equal(t, []string{"inner"}, names(forest.Roots[0].Descendants()))

	assert.Equal(t, "0.2.1", NodeID([]int{0, 2, 1}))
	path, ok := ParseNodeID("0.2.1")
	require.True(t, ok)
	assert.Equal(t, []int{0, 2, 1}, path)

	for _, bad := range []string{"", "a", "1..2", "-1"} {
		_, ok := ParseNodeID(bad)
		assert.False(t, ok, bad)
	}
}
