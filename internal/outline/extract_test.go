package outline

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func outlineOf(t *testing.T, languageID, code string) []*FunctionNode {
	t.Helper()
	d, ok := Lookup(languageID)
	require.True(t, ok, languageID)
	roots, err := d.Outline(context.Background(), []byte(code))
	require.NoError(t, err)
	return roots
}

func TestOutlineNesting(t *testing.T) {
	code := `function outer() {
  // helper
  function inner() {
    return 1;
  }
}

function sibling() {}
`
	roots := outlineOf(t, "javascript", code)

	require.Equal(t, []string{"outer", "sibling"}, names(roots))
	require.Equal(t, []string{"inner"}, names(roots[0].Children))

	inner := roots[0].Children[0]
	assert.Equal(t, "helper", inner.Comment)
	assert.Equal(t, 2, inner.Span.StartLine)
	assert.Equal(t, 4, inner.Span.EndLine)
	assert.Equal(t, KindFunction, inner.Kind)

	assert.Equal(t, 0, roots[0].Span.StartLine)
	assert.Equal(t, 5, roots[0].Span.EndLine)
	assert.True(t, roots[1].Span.SingleLine())
}

func TestOutlineAdjacentComment(t *testing.T) {
	code := `// compute total
function sum(a, b) {
  return a + b;
}

// not attached
const limit = 10;
function clamp(v) {
  return Math.min(v, limit);
}
`
	roots := outlineOf(t, "javascript", code)

	require.Equal(t, []string{"sum", "clamp"}, names(roots))
	assert.Equal(t, "compute total", roots[0].Comment)
	assert.Empty(t, roots[1].Comment)
}

func TestOutlineHandleClick(t *testing.T) {
	code := `const handleClick = () => {
  console.log('clicked');
};

render(<button onClick={() => {
  console.log('inline');
}} />);

items.forEach((item) => {
  console.log(item);
});
`
	roots := outlineOf(t, "javascriptreact", code)

	require.Len(t, roots, 1)
	handleClick := roots[0]
	assert.Equal(t, "handleClick", handleClick.Name)
	assert.Equal(t, 0, handleClick.Span.StartOffset)
	assert.Equal(t, strings.Index(code, "};")+2, handleClick.Span.EndOffset, "spans the whole const statement")
	assert.Equal(t, 2, handleClick.Span.EndLine)
}

func TestOutlineLiteralBindings(t *testing.T) {
	code := `/** Runs the job */
export const run = () => {
  return 1;
};

let a = () => {
  return 2;
}, b = 3;

(function () {
  setup();
})();

const handlers = {
  onSave: function () {
    save();
  },
};
`
	roots := outlineOf(t, "javascript", code)

	require.Equal(t, []string{"run", "a", NoName, "onSave"}, names(roots))

	run := roots[0]
	assert.Equal(t, "Runs the job", run.Comment)
	assert.Equal(t, strings.Index(code, "const run"), run.Span.StartOffset)

	a := roots[1]
	assert.Equal(t, strings.Index(code, "a = "), a.Span.StartOffset, "multi-binding declaration keeps the declarator span")

	iife := roots[2]
	assert.Equal(t, KindLiteral, iife.Kind)
	assert.Equal(t, strings.Index(code, "function () {\n  setup"), iife.Span.StartOffset)
}

func TestOutlineTypeScriptClass(t *testing.T) {
	code := `class Cart {
  /** Creates a cart */
  constructor() {}

  // totals
  total(): number {
    return 0;
  }

  handler = () => {
    this.total();
  };
}
`
	roots := outlineOf(t, "typescript", code)

	require.Equal(t, []string{"constructor", "total", "handler"}, names(roots))
	assert.Equal(t, KindConstructor, roots[0].Kind)
	assert.Equal(t, "Creates a cart", roots[0].Comment)
	assert.Equal(t, KindMethod, roots[1].Kind)
	assert.Equal(t, "totals", roots[1].Comment)
	assert.Equal(t, KindFunction, roots[2].Kind)
}

func TestOutlineTSXComponent(t *testing.T) {
	code := `export const Button = ({ label }: { label: string }) => {
  return <button onClick={() => alert(label)}>{label}</button>;
};
`
	roots := outlineOf(t, "typescriptreact", code)

	require.Equal(t, []string{"Button"}, names(roots))
	assert.Empty(t, roots[0].Children)
}

func TestOutlinePHP(t *testing.T) {
	code := `<?php
/**
 * Totals the cart
 */
function total($items) {
    return array_sum(array_map(fn($i) => $i->price, $items));
}

class Cart {
    public function __construct() {}

    // adds an item
    public function add($item) {
        $this->items[] = $item;
    }
}

$square = function ($x) {
    return $x * $x;
};
`
	roots := outlineOf(t, "php", code)

	require.Equal(t, []string{"total", "__construct", "add", "$square"}, names(roots))
	assert.Equal(t, "Totals the cart", roots[0].Comment)
	assert.Empty(t, roots[0].Children)
	assert.Equal(t, KindConstructor, roots[1].Kind)
	assert.Equal(t, KindMethod, roots[2].Kind)
	assert.Equal(t, "adds an item", roots[2].Comment)
	assert.Equal(t, strings.Index(code, "$square"), roots[3].Span.StartOffset)
	assert.Equal(t, len(code)-1, roots[3].Span.EndOffset)
}

func TestOutlineIdempotent(t *testing.T) {
	code := `function a() {
  const b = () => {
    const c = function () {};
    return c;
  };
}
`
	first := outlineOf(t, "javascript", code)
	second := outlineOf(t, "javascript", code)
	assert.Equal(t, first, second)
	require.Len(t, first, 1)
	require.Equal(t, []string{"b"}, names(first[0].Children))
	assert.Equal(t, []string{"c"}, names(first[0].Children[0].Children))
}

func TestDialectLookup(t *testing.T) {
	_, ok := Lookup("python")
	assert.False(t, ok)

	d, ok := ForPath("file:///src/App.TSX")
	require.True(t, ok)
	assert.Equal(t, "typescriptreact", d.ID)
	assert.True(t, d.React)

	d, ok = ForPath("/src/index.php")
	require.True(t, ok)
	assert.Equal(t, "php", d.ID)

	_, ok = ForPath("/src/readme.md")
	assert.False(t, ok)

	assert.Contains(t, Extensions(), ".mjs")
	assert.Len(t, Dialects(), 5)
}

func TestCommentAt(t *testing.T) {
	code := `// compute total
const sum = (a, b) => a + b;

function plain() {}
`
	d, _ := Lookup("javascript")
	tree, err := d.Parse(context.Background(), []byte(code))
	require.NoError(t, err)
	defer tree.Close()
	root := tree.RootNode()

	assert.Equal(t, "compute total", d.CommentAt(root, []byte(code), strings.Index(code, "sum")))
	assert.Equal(t, "compute total", d.CommentAt(root, []byte(code), strings.Index(code, "const")))
	assert.Empty(t, d.CommentAt(root, []byte(code), strings.Index(code, "function")))
	assert.Empty(t, d.CommentAt(root, []byte(code), len(code)+5))
	assert.Empty(t, d.CommentAt(nil, []byte(code), 0))
}

func TestIsCandidate(t *testing.T) {
	code := `function a() {}
const b = () => 1;
items.map((x) => x);
`
	d, _ := Lookup("javascript")
	content := []byte(code)
	tree, err := d.Parse(context.Background(), content)
	require.NoError(t, err)
	defer tree.Close()

	found := map[string]bool{}
	for _, fn := range d.Extract(tree.RootNode(), content) {
		found[fn.Name] = true
	}
	assert.Equal(t, map[string]bool{"a": true, "b": true}, found)

	root := tree.RootNode()
	callback := root.NamedDescendantForByteRange(uint(strings.Index(code, "(x)")), uint(strings.Index(code, "x);")+1))
	for callback != nil && callback.Kind() != "arrow_function" {
		callback = callback.Parent()
	}
	require.NotNil(t, callback)
	assert.False(t, d.IsCandidate(callback, content))
	assert.False(t, d.IsCandidate(root, content))
}
