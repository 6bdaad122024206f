package view

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/function-map/function-map-lsp/internal/outline"
)

type staticForests map[string]*outline.Forest

func (s staticForests) Current(uri string) *outline.Forest { return s[uri] }

const uri = "file:///src/cart.js"

func testProvider() (*Provider, *ViewportStore) {
	inner := &outline.FunctionNode{
		Name: "inner", Kind: outline.KindFunction,
		Span: outline.Span{StartLine: 2, EndLine: 5, EndColumn: 3},
	}
	outer := &outline.FunctionNode{
		Name: "outer", Kind: outline.KindFunction, Comment: "entry point",
		Span:     outline.Span{StartLine: 0, EndLine: 10, EndColumn: 1},
		Children: []*outline.FunctionNode{inner},
	}
	tiny := &outline.FunctionNode{
		Name: "tiny", Kind: outline.KindMethod,
		Span: outline.Span{StartLine: 12, StartColumn: 2, EndLine: 12, EndColumn: 20},
	}
	forests := staticForests{uri: {URI: uri, Roots: []*outline.FunctionNode{outer, tiny}}}
	viewports := NewViewportStore()
	return NewProvider(forests, viewports), viewports
}

func TestRootsAndChildren(t *testing.T) {
	p, viewports := testProvider()
	viewports.Set(uri, []outline.Range{{Start: outline.Position{Line: 0}, End: outline.Position{Line: 40}}})

	roots := p.Roots(uri)
	require.Len(t, roots, 2)

	outer := roots[0]
	assert.Equal(t, "0", outer.ID)
	assert.Equal(t, "outer", outer.Label)
	assert.Equal(t, "entry point", outer.Description)
	assert.Equal(t, "outer (lines 1-11)\nentry point", outer.Tooltip)
	assert.True(t, outer.HasChildren)
	assert.False(t, outer.IsLeaf)
	assert.Equal(t, "unfolded", outer.FoldState)
	assert.Equal(t, "symbol-function", outer.Icon)
	require.NotNil(t, outer.Command)
	assert.Equal(t, JumpCommand, outer.Command.Command)
	assert.Equal(t, []any{uri, "0"}, outer.Command.Arguments)

	tiny := roots[1]
	assert.Equal(t, "1", tiny.ID)
	assert.Equal(t, "singleLine", tiny.FoldState)
	assert.Equal(t, "symbol-method", tiny.Icon)
	assert.True(t, tiny.IsLeaf)

	children := p.Children(uri, outer.ID)
	require.Len(t, children, 1)
	assert.Equal(t, "0.0", children[0].ID)
	assert.Equal(t, "inner", children[0].Label)

	assert.Empty(t, p.Children(uri, "0.0"))
	assert.Empty(t, p.Children(uri, "7"))
	assert.Empty(t, p.Children(uri, "bogus"))
}

func TestFoldStateFollowsLiveViewport(t *testing.T) {
	p, viewports := testProvider()

	assert.Equal(t, "folded", p.Roots(uri)[0].FoldState, "no viewport reported yet")

	viewports.Set(uri, []outline.Range{
		{Start: outline.Position{Line: 0}, End: outline.Position{Line: 2, Character: 30}},
		{Start: outline.Position{Line: 6}, End: outline.Position{Line: 40}},
	})
	assert.Equal(t, "folded", p.Roots(uri)[0].FoldState)
	assert.Equal(t, "folded", p.Children(uri, "0")[0].FoldState)

	viewports.Set(uri, []outline.Range{{Start: outline.Position{Line: 0}, End: outline.Position{Line: 40}}})
	assert.Equal(t, "unfolded", p.Roots(uri)[0].FoldState)
}

func TestUnknownDocument(t *testing.T) {
	p, _ := testProvider()

	assert.Empty(t, p.Roots("file:///other.js"))
	assert.Empty(t, p.Children("file:///other.js", "0"))
	_, ok := p.Jump("file:///other.js", "0")
	assert.False(t, ok)
}

func TestJump(t *testing.T) {
	p, _ := testProvider()

	r, ok := p.Jump(uri, "0.0")
	require.True(t, ok)
	assert.Equal(t, outline.Range{
		Start: outline.Position{Line: 2},
		End:   outline.Position{Line: 5, Character: 3},
	}, r)

	node, ok := p.Resolve(uri, "1")
	require.True(t, ok)
	assert.Equal(t, "tiny", node.Name)
}

func TestIndicator(t *testing.T) {
	p, _ := testProvider()

	assert.Equal(t, IndicatorUnknown, p.Indicator())
	assert.False(t, p.Indicator().ContextValue())

	assert.Equal(t, IndicatorAllFolded, p.SetIndicator(true))
	assert.True(t, p.Indicator().ContextValue())
	assert.Equal(t, "allFolded", p.Indicator().String())

	assert.Equal(t, IndicatorAllUnfolded, p.SetIndicator(false))
	assert.Equal(t, "allUnfolded", p.Indicator().String())

	p.ResetIndicator()
	assert.Equal(t, "unknown", p.Indicator().String())
}

func TestViewportStoreCopies(t *testing.T) {
	s := NewViewportStore()
	ranges := []outline.Range{{End: outline.Position{Line: 3}}}
	s.Set(uri, ranges)
	ranges[0].End.Line = 99

	got, ok := s.Get(uri)
	require.True(t, ok)
	assert.Equal(t, 3, got[0].End.Line)

	s.Forget(uri)
	_, ok = s.Get(uri)
	assert.False(t, ok)
}
