// Package fold toggles editor folds for outline nodes. The editor is the only
// source of truth for what is folded; state is always re-read from it.
package fold

import (
	"context"
	"fmt"
	"slices"

	"github.com/function-map/function-map-lsp/internal/outline"
)

// Editor is the set of fold primitives the editor host exposes. Lines are
// zero-based and inclusive.
type Editor interface {
	VisibleRanges(ctx context.Context) ([]outline.Range, error)
	Fold(ctx context.Context, startLine, endLine int) error
	Unfold(ctx context.Context, startLine, endLine int) error
	FoldAll(ctx context.Context) error
	UnfoldAll(ctx context.Context) error
}

// ToggleFold flips the fold state of node. ok is false when there is no
// editor to act on. folded reports the node's state after the toggle.
//
// A folded node is unfolded together with every descendant that was folded
// before the toggle. An unfolded node is folded on its own span only, so the
// fold state of its descendants is preserved underneath.
func ToggleFold(ctx context.Context, editor Editor, node *outline.FunctionNode) (folded bool, ok bool, err error) {
	if editor == nil || node == nil {
		return false, false, nil
	}
	if node.Span.SingleLine() {
		return false, true, nil
	}

	visible, err := editor.VisibleRanges(ctx)
	if err != nil {
		return false, true, fmt.Errorf("read visible ranges: %w", err)
	}

	switch outline.ComputeVisibility(node.Span, visible) {
	case outline.Unfolded:
		if err := editor.Fold(ctx, node.Span.StartLine, node.Span.EndLine); err != nil {
			return false, true, fmt.Errorf("fold %s: %w", node.Name, err)
		}
		return true, true, nil

	default:
		targets := []*outline.FunctionNode{node}
		for _, d := range node.Descendants() {
			if outline.ComputeVisibility(d.Span, visible) == outline.Folded {
				targets = append(targets, d)
			}
		}
		for _, n := range targets {
			if err := editor.Unfold(ctx, n.Span.StartLine, n.Span.EndLine); err != nil {
				return true, true, fmt.Errorf("unfold %s: %w", n.Name, err)
			}
		}
		return false, true, nil
	}
}

// ToggleAllFold folds everything unless that changes nothing, in which case
// everything was already folded and it unfolds everything instead. It
// reports whether the document ends up fully folded.
func ToggleAllFold(ctx context.Context, editor Editor) (allFolded bool, ok bool, err error) {
	if editor == nil {
		return false, false, nil
	}

	before, err := editor.VisibleRanges(ctx)
	if err != nil {
		return false, true, fmt.Errorf("read visible ranges: %w", err)
	}
	if err := editor.FoldAll(ctx); err != nil {
		return false, true, fmt.Errorf("fold all: %w", err)
	}
	after, err := editor.VisibleRanges(ctx)
	if err != nil {
		return true, true, fmt.Errorf("read visible ranges: %w", err)
	}

	if slices.Equal(before, after) {
		if err := editor.UnfoldAll(ctx); err != nil {
			return true, true, fmt.Errorf("unfold all: %w", err)
		}
		return false, true, nil
	}
	return true, true, nil
}
