// Package view maps outline forests to the items an editor tree view shows.
// Items are derived on every request from the current forest and the live
// viewport; nothing about fold state is cached.
package view

import (
	"fmt"
	"strings"
	"sync"

	"github.com/function-map/function-map-lsp/internal/outline"
)

// JumpCommand is the command id an item runs when selected.
const JumpCommand = "functionMap.jump"

// ForestSource returns the current forest of a document, or nil.
type ForestSource interface {
	Current(uri string) *outline.Forest
}

type Command struct {
	Title     string `json:"title"`
	Command   string `json:"command"`
	Arguments []any  `json:"arguments,omitempty"`
}

// Item is one row of the function tree view.
type Item struct {
	ID          string        `json:"id"`
	Label       string        `json:"label"`
	Description string        `json:"description,omitempty"`
	Tooltip     string        `json:"tooltip,omitempty"`
	HasChildren bool          `json:"hasChildren"`
	IsLeaf      bool          `json:"isLeaf"`
	Range       outline.Range `json:"range"`
	FoldState   string        `json:"foldState"`
	Icon        string        `json:"icon"`
	Command     *Command      `json:"command,omitempty"`
}

// Indicator is the best-effort "everything is folded" flag behind the
// toggle-all button.
type Indicator int

const (
	IndicatorUnknown Indicator = iota
	IndicatorAllFolded
	IndicatorAllUnfolded
)

func (i Indicator) String() string {
	switch i {
	case IndicatorAllFolded:
		return "allFolded"
	case IndicatorAllUnfolded:
		return "allUnfolded"
	}
	return "unknown"
}

// ContextValue is the value published under the editor context key. Unknown
// reads as not folded so the button offers to fold.
func (i Indicator) ContextValue() bool {
	return i == IndicatorAllFolded
}

type Provider struct {
	forests   ForestSource
	viewports *ViewportStore

	mu        sync.Mutex
	indicator Indicator
}

func NewProvider(forests ForestSource, viewports *ViewportStore) *Provider {
	return &Provider{forests: forests, viewports: viewports}
}

// Roots returns the top-level items of uri. A document without a forest has
// no items.
func (p *Provider) Roots(uri string) []Item {
	forest := p.forests.Current(uri)
	if forest == nil {
		return []Item{}
	}
	return p.items(uri, nil, forest.Roots)
}

// Children returns the items below the item with the given id.
func (p *Provider) Children(uri, id string) []Item {
	path, node := p.lookup(uri, id)
	if node == nil {
		return []Item{}
	}
	return p.items(uri, path, node.Children)
}

// Resolve returns the node behind an item id in the current forest.
func (p *Provider) Resolve(uri, id string) (*outline.FunctionNode, bool) {
	_, node := p.lookup(uri, id)
	return node, node != nil
}

// Jump returns the range to reveal and select for an item.
func (p *Provider) Jump(uri, id string) (outline.Range, bool) {
	node, ok := p.Resolve(uri, id)
	if !ok {
		return outline.Range{}, false
	}
	return node.Span.Range(), true
}

func (p *Provider) Indicator() Indicator {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.indicator
}

func (p *Provider) SetIndicator(allFolded bool) Indicator {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.indicator = IndicatorAllUnfolded
	if allFolded {
		p.indicator = IndicatorAllFolded
	}
	return p.indicator
}

// ResetIndicator forgets the flag, e.g. when another editor becomes active.
func (p *Provider) ResetIndicator() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.indicator = IndicatorUnknown
}

func (p *Provider) lookup(uri, id string) ([]int, *outline.FunctionNode) {
	path, ok := outline.ParseNodeID(id)
	if !ok {
		return nil, nil
	}
	return path, p.forests.Current(uri).Node(path)
}

func (p *Provider) items(uri string, parent []int, nodes []*outline.FunctionNode) []Item {
	visible, _ := p.viewports.Get(uri)

	out := make([]Item, 0, len(nodes))
	for i, n := range nodes {
		path := append(append(make([]int, 0, len(parent)+1), parent...), i)
		out = append(out, newItem(uri, path, n, outline.ComputeVisibility(n.Span, visible)))
	}
	return out
}

func newItem(uri string, path []int, n *outline.FunctionNode, state outline.Visibility) Item {
	id := outline.NodeID(path)
	return Item{
		ID:          id,
		Label:       n.Name,
		Description: n.Comment,
		Tooltip:     tooltip(n),
		HasChildren: len(n.Children) > 0,
		IsLeaf:      len(n.Children) == 0,
		Range:       n.Span.Range(),
		FoldState:   state.String(),
		Icon:        icon(n.Kind),
		Command: &Command{
			Title:     "Go to " + n.Name,
			Command:   JumpCommand,
			Arguments: []any{uri, id},
		},
	}
}

func tooltip(n *outline.FunctionNode) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s (lines %d-%d)", n.Name, n.Span.StartLine+1, n.Span.EndLine+1)
	if n.Comment != "" {
		b.WriteString("\n")
		b.WriteString(n.Comment)
	}
	return b.String()
}

func icon(k outline.Kind) string {
	switch k {
	case outline.KindMethod:
		return "symbol-method"
	case outline.KindConstructor:
		return "symbol-constructor"
	}
	return "symbol-function"
}
