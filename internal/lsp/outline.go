package lsp

import (
	"context"
	"errors"

	"github.com/rs/zerolog/log"

	"github.com/function-map/function-map-lsp/internal/config"
	"github.com/function-map/function-map-lsp/internal/fileuri"
	"github.com/function-map/function-map-lsp/internal/lsp/protocol"
	"github.com/function-map/function-map-lsp/internal/outline"
	"github.com/function-map/function-map-lsp/internal/symbolsource"
	"github.com/function-map/function-map-lsp/internal/tracker"
	"github.com/function-map/function-map-lsp/internal/view"
)

// Notifications sent to the client.
const (
	methodOutlineChanged    = "functionMap/outlineChanged"
	methodSetContext        = "functionMap/setContext"
	methodIndexingStarted   = "functionMap/indexingStarted"
	methodIndexingCompleted = "functionMap/indexingCompleted"
	methodIndexUpdated      = "functionMap/indexUpdated"
)

const workspaceSymbolLimit = 200

// buildOutline computes the roots of one snapshot from the configured source.
// A language without a dialect yields an empty outline, not an error.
func (s *Server) buildOutline(ctx context.Context, snap tracker.Snapshot) ([]*outline.FunctionNode, error) {
	if s.cfg.Outline.Source == config.SourceSymbols {
		src := s.symbolSource()
		if src == nil {
			return nil, symbolsource.ErrUnavailable
		}
		ctx, cancel := context.WithTimeout(ctx, symbolTimeout)
		defer cancel()

		symbols, err := src.DocumentSymbols(ctx, snap.URI, snap.LanguageID, snap.Version, string(snap.Text))
		if err != nil {
			return nil, err
		}
		return outline.FromSymbols(ctx, snap.LanguageID, symbols, snap.Text), nil
	}

	dialect, ok := outline.Lookup(snap.LanguageID)
	if !ok {
		return nil, nil
	}
	return dialect.Outline(ctx, snap.Text)
}

func (s *Server) rebuild(ctx context.Context, snap tracker.Snapshot) {
	_, err := s.tracker.RebuildNow(ctx, snap)
	if err == nil || errors.Is(err, tracker.ErrSuperseded) || errors.Is(err, tracker.ErrClosed) {
		return
	}
	log.Warn().Err(err).Str("uri", snap.URI).Int32("version", snap.Version).Msg("lsp: rebuild failed, keeping previous outline")
}

func (s *Server) notify(ctx context.Context, method string, params any) {
	conn := s.conn.Load()
	if conn == nil {
		return
	}
	if err := conn.Notify(ctx, method, params); err != nil {
		log.Debug().Err(err).Str("method", method).Msg("lsp: notification not delivered")
	}
}

func (s *Server) outlineChanged(forest *outline.Forest) {
	s.notify(s.ctx, methodOutlineChanged, protocol.OutlineChangedParams{URI: forest.URI, Version: forest.Version})
}

func (s *Server) closeDocument(ctx context.Context, uri string) {
	s.documentManager.CloseDocument(uri)
	s.tracker.Forget(uri)
	s.viewports.Forget(uri)

	s.activeMu.Lock()
	if s.activeURI == uri {
		s.activeURI = ""
	}
	s.activeMu.Unlock()

	if src := s.symbolSource(); src != nil {
		ctx, cancel := context.WithTimeout(ctx, symbolTimeout)
		defer cancel()
		if err := src.CloseDocument(ctx, uri); err != nil {
			log.Debug().Err(err).Str("uri", uri).Msg("lsp: symbol provider did not close document")
		}
	}
}

func (s *Server) setActive(uri string) {
	s.activeMu.Lock()
	defer s.activeMu.Unlock()
	s.activeURI = uri
}

func (s *Server) activeDocument() string {
	s.activeMu.RLock()
	defer s.activeMu.RUnlock()
	return s.activeURI
}

// documentURI falls back to the active editor when no document is named.
func (s *Server) documentURI(doc *protocol.TextDocumentIdentifier) string {
	if doc != nil && doc.URI != "" {
		return doc.URI
	}
	return s.activeDocument()
}

func symbolKind(k outline.Kind) int {
	switch k {
	case outline.KindMethod:
		return int(outline.SymbolMethod)
	case outline.KindConstructor:
		return int(outline.SymbolConstructor)
	}
	return int(outline.SymbolFunction)
}

func toDocumentSymbols(nodes []*outline.FunctionNode) []protocol.DocumentSymbol {
	out := make([]protocol.DocumentSymbol, 0, len(nodes))
	for _, n := range nodes {
		r := toProtocolRange(n.Span.Range())
		out = append(out, protocol.DocumentSymbol{
			Name:           n.Name,
			Detail:         n.Comment,
			Kind:           symbolKind(n.Kind),
			Range:          r,
			SelectionRange: r,
			Children:       toDocumentSymbols(n.Children),
		})
	}
	return out
}

func (s *Server) documentSymbols(uri string) []protocol.DocumentSymbol {
	forest := s.tracker.Current(uri)
	if forest == nil {
		return []protocol.DocumentSymbol{}
	}
	return toDocumentSymbols(forest.Roots)
}

// foldingRanges offers one region per multi-line function.
func (s *Server) foldingRanges(uri string) []protocol.FoldingRange {
	ranges := []protocol.FoldingRange{}
	for _, n := range s.tracker.Current(uri).Flatten() {
		if n.Span.SingleLine() {
			continue
		}
		ranges = append(ranges, protocol.FoldingRange{
			StartLine: n.Span.StartLine,
			EndLine:   n.Span.EndLine,
			Kind:      protocol.FoldingRangeKindRegion,
		})
	}
	return ranges
}

func (s *Server) workspaceSymbols(query string) []protocol.SymbolInformation {
	symbols := []protocol.SymbolInformation{}
	if s.functions == nil {
		return symbols
	}

	entries, err := s.functions.Search(query, workspaceSymbolLimit)
	if err != nil {
		log.Error().Err(err).Str("query", query).Msg("lsp: function search failed")
		return symbols
	}

	for _, e := range entries {
		symbols = append(symbols, protocol.SymbolInformation{
			Name: e.Name,
			Kind: symbolKind(e.Kind),
			Location: protocol.Location{
				URI:   fileuri.FromPath(e.Path),
				Range: toProtocolRange(e.Range),
			},
			ContainerName: e.Container,
		})
	}
	return symbols
}

func (s *Server) outline(doc *protocol.TextDocumentIdentifier) OutlineResult {
	uri := s.documentURI(doc)
	result := OutlineResult{
		URI:       uri,
		Items:     []view.Item{},
		AllFolded: s.view.Indicator().String(),
	}
	if uri == "" {
		return result
	}

	if forest := s.tracker.Current(uri); forest != nil {
		result.Version = forest.Version
	}
	result.Items = s.view.Roots(uri)
	return result
}

// visibleRangesChanged stores the viewport and asks the client to redraw,
// since fold states are derived from it.
func (s *Server) visibleRangesChanged(ctx context.Context, params *protocol.VisibleRangesParams) {
	uri := params.TextDocument.URI
	s.viewports.Set(uri, fromProtocolRanges(params.Ranges))

	if forest := s.tracker.Current(uri); forest != nil {
		s.notify(ctx, methodOutlineChanged, protocol.OutlineChangedParams{URI: uri, Version: forest.Version})
	}
}

func (s *Server) activeEditorChanged(ctx context.Context, params *protocol.ActiveEditorParams) {
	uri := ""
	if params.TextDocument != nil {
		uri = params.TextDocument.URI
	}
	s.setActive(uri)
	if uri != "" && params.VisibleRanges != nil {
		s.viewports.Set(uri, fromProtocolRanges(params.VisibleRanges))
	}

	s.view.ResetIndicator()
	s.notify(ctx, methodSetContext, protocol.SetContextParams{
		Key:   protocol.ContextAllFolded,
		Value: s.view.Indicator().ContextValue(),
	})

	if forest := s.tracker.Current(uri); forest != nil {
		s.notify(ctx, methodOutlineChanged, protocol.OutlineChangedParams{URI: uri, Version: forest.Version})
	}
}
