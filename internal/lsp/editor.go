package lsp

import (
	"context"

	"github.com/sourcegraph/jsonrpc2"

	"github.com/function-map/function-map-lsp/internal/fold"
	"github.com/function-map/function-map-lsp/internal/lsp/protocol"
	"github.com/function-map/function-map-lsp/internal/outline"
	"github.com/function-map/function-map-lsp/internal/view"
)

// Client requests behind fold.Editor. The client answers them for the
// editor showing the given document.
const (
	methodVisibleRanges = "functionMap/visibleRanges"
	methodFold          = "functionMap/fold"
	methodUnfold        = "functionMap/unfold"
	methodFoldAll       = "functionMap/foldAll"
	methodUnfoldAll     = "functionMap/unfoldAll"
)

// clientEditor drives the folds of one document through the client.
type clientEditor struct {
	conn      *jsonrpc2.Conn
	uri       string
	viewports *view.ViewportStore
}

var _ fold.Editor = (*clientEditor)(nil)

func (e *clientEditor) document() protocol.TextDocumentIdentifier {
	return protocol.TextDocumentIdentifier{URI: e.uri}
}

// VisibleRanges asks the client for the live viewport and remembers it, so
// the tree view reflects the state the toggle saw.
func (e *clientEditor) VisibleRanges(ctx context.Context) ([]outline.Range, error) {
	var result protocol.VisibleRangesParams
	if err := e.conn.Call(ctx, methodVisibleRanges, protocol.VisibleRangesParams{TextDocument: e.document()}, &result); err != nil {
		return nil, err
	}
	ranges := fromProtocolRanges(result.Ranges)
	e.viewports.Set(e.uri, ranges)
	return ranges, nil
}

func (e *clientEditor) Fold(ctx context.Context, startLine, endLine int) error {
	return e.conn.Call(ctx, methodFold, protocol.FoldRangeParams{TextDocument: e.document(), StartLine: startLine, EndLine: endLine}, nil)
}

func (e *clientEditor) Unfold(ctx context.Context, startLine, endLine int) error {
	return e.conn.Call(ctx, methodUnfold, protocol.FoldRangeParams{TextDocument: e.document(), StartLine: startLine, EndLine: endLine}, nil)
}

func (e *clientEditor) FoldAll(ctx context.Context) error {
	return e.conn.Call(ctx, methodFoldAll, protocol.OutlineParams{TextDocument: &protocol.TextDocumentIdentifier{URI: e.uri}}, nil)
}

func (e *clientEditor) UnfoldAll(ctx context.Context) error {
	return e.conn.Call(ctx, methodUnfoldAll, protocol.OutlineParams{TextDocument: &protocol.TextDocumentIdentifier{URI: e.uri}}, nil)
}

func toProtocolRange(r outline.Range) protocol.Range {
	return protocol.Range{
		Start: protocol.Position{Line: r.Start.Line, Character: r.Start.Character},
		End:   protocol.Position{Line: r.End.Line, Character: r.End.Character},
	}
}

func fromProtocolRanges(ranges []protocol.Range) []outline.Range {
	out := make([]outline.Range, 0, len(ranges))
	for _, r := range ranges {
		out = append(out, outline.Range{
			Start: outline.Position{Line: r.Start.Line, Character: r.Start.Character},
			End:   outline.Position{Line: r.End.Line, Character: r.End.Character},
		})
	}
	return out
}
