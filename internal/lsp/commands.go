package lsp

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/sourcegraph/jsonrpc2"

	"github.com/function-map/function-map-lsp/internal/fold"
	"github.com/function-map/function-map-lsp/internal/lsp/protocol"
)

const commandTimeout = 30 * time.Second

func stringArguments(args []json.RawMessage) ([]string, error) {
	out := make([]string, len(args))
	for i, raw := range args {
		if err := json.Unmarshal(raw, &out[i]); err != nil {
			return nil, fmt.Errorf("argument %d is not a string: %w", i, err)
		}
	}
	return out, nil
}

// nodeArguments accepts [uri, id], or [id] for the active editor.
func (s *Server) nodeArguments(args []string) (uri, id string, ok bool) {
	switch len(args) {
	case 1:
		return s.activeDocument(), args[0], args[0] != ""
	case 2:
		return s.documentURI(&protocol.TextDocumentIdentifier{URI: args[0]}), args[1], args[1] != ""
	}
	return "", "", false
}

func (s *Server) documentArgument(args []string) string {
	if len(args) > 0 {
		return s.documentURI(&protocol.TextDocumentIdentifier{URI: args[0]})
	}
	return s.activeDocument()
}

// editor returns nil when there is no client or the document is not open.
func (s *Server) editor(conn *jsonrpc2.Conn, uri string) fold.Editor {
	if conn == nil || uri == "" {
		return nil
	}
	if _, ok := s.documentManager.GetDocument(uri); !ok {
		return nil
	}
	return &clientEditor{conn: conn, uri: uri, viewports: s.viewports}
}

// executeCommand runs a workspace command. Failures the user can act on are
// reported as a CommandError result; only malformed requests are JSON-RPC
// errors.
func (s *Server) executeCommand(ctx context.Context, conn *jsonrpc2.Conn, params *protocol.ExecuteCommandParams) (interface{}, error) {
	args, err := stringArguments(params.Arguments)
	if err != nil {
		return protocol.NewLspError(err.Error(), protocol.ErrorCodeInvalidArguments), nil
	}

	ctx, cancel := context.WithTimeout(ctx, commandTimeout)
	defer cancel()

	log.Debug().Str("command", params.Command).Strs("arguments", args).Msg("lsp: executing command")

	switch params.Command {
	case protocol.CommandToggleFold:
		return s.toggleFold(ctx, conn, args), nil
	case protocol.CommandToggleAllFold:
		return s.toggleAllFold(ctx, conn, args), nil
	case protocol.CommandJump:
		return s.jump(ctx, conn, args), nil
	case protocol.CommandRefresh:
		return s.refresh(ctx, args), nil
	case protocol.CommandReindex:
		return s.reindex(), nil
	default:
		return nil, &jsonrpc2.Error{Code: jsonrpc2.CodeInvalidParams, Message: "unknown command: " + params.Command}
	}
}

func (s *Server) toggleFold(ctx context.Context, conn *jsonrpc2.Conn, args []string) any {
	uri, id, ok := s.nodeArguments(args)
	if !ok {
		return protocol.NewLspError("expected [uri, id] or [id]", protocol.ErrorCodeInvalidArguments)
	}
	if s.tracker.Current(uri) == nil {
		return nil
	}
	node, ok := s.view.Resolve(uri, id)
	if !ok {
		return protocol.NewLspError(fmt.Sprintf("no function %q in %s", id, uri), protocol.ErrorCodeNodeNotFound)
	}

	folded, ok, err := fold.ToggleFold(ctx, s.editor(conn, uri), node)
	if err != nil {
		log.Warn().Err(err).Str("uri", uri).Str("id", id).Msg("lsp: toggle fold failed")
		return protocol.NewLspError(err.Error(), protocol.ErrorCodeEditorFailed)
	}
	if !ok {
		return protocol.NewLspError("no editor for "+uri, protocol.ErrorCodeEditorUnavailable)
	}

	if forest := s.tracker.Current(uri); forest != nil {
		s.outlineChanged(forest)
	}
	return ToggleFoldResult{ID: id, Folded: folded}
}

func (s *Server) toggleAllFold(ctx context.Context, conn *jsonrpc2.Conn, args []string) any {
	uri := s.documentArgument(args)
	if _, ok := s.documentManager.GetDocument(uri); !ok {
		return nil
	}

	allFolded, ok, err := fold.ToggleAllFold(ctx, s.editor(conn, uri))
	if err != nil {
		log.Warn().Err(err).Str("uri", uri).Msg("lsp: toggle all folds failed")
		return protocol.NewLspError(err.Error(), protocol.ErrorCodeEditorFailed)
	}
	if !ok {
		return protocol.NewLspError("no editor for "+uri, protocol.ErrorCodeEditorUnavailable)
	}

	indicator := s.view.SetIndicator(allFolded)
	s.notify(ctx, methodSetContext, protocol.SetContextParams{
		Key:   protocol.ContextAllFolded,
		Value: indicator.ContextValue(),
	})
	if forest := s.tracker.Current(uri); forest != nil {
		s.outlineChanged(forest)
	}
	return ToggleAllFoldResult{AllFolded: allFolded}
}

// jump asks the client to reveal and select a function.
func (s *Server) jump(ctx context.Context, conn *jsonrpc2.Conn, args []string) any {
	uri, id, ok := s.nodeArguments(args)
	if !ok {
		return protocol.NewLspError("expected [uri, id] or [id]", protocol.ErrorCodeInvalidArguments)
	}
	if s.tracker.Current(uri) == nil {
		return nil
	}
	rng, ok := s.view.Jump(uri, id)
	if !ok {
		return protocol.NewLspError(fmt.Sprintf("no function %q in %s", id, uri), protocol.ErrorCodeNodeNotFound)
	}
	if conn == nil {
		return protocol.NewLspError("no client connection", protocol.ErrorCodeEditorUnavailable)
	}

	selection := toProtocolRange(rng)
	var result protocol.ShowDocumentResult
	err := conn.Call(ctx, "window/showDocument", protocol.ShowDocumentParams{
		URI:       uri,
		TakeFocus: true,
		Selection: &selection,
	}, &result)
	if err != nil {
		log.Warn().Err(err).Str("uri", uri).Str("id", id).Msg("lsp: show document failed")
		return protocol.NewLspError(err.Error(), protocol.ErrorCodeEditorFailed)
	}
	return result
}

// refresh rebuilds a document right away, skipping the debounce.
func (s *Server) refresh(ctx context.Context, args []string) any {
	doc, ok := s.documentManager.GetDocument(s.documentArgument(args))
	if !ok {
		return nil
	}

	s.rebuild(ctx, doc.Snapshot())

	result := RefreshResult{URI: doc.URI}
	if forest := s.tracker.Current(doc.URI); forest != nil {
		result.Version = forest.Version
		result.Roots = len(forest.Roots)
	}
	return result
}

func (s *Server) reindex() any {
	if s.FileScanner == nil {
		return nil
	}
	s.goBackground(func(ctx context.Context) {
		if err := s.indexAll(ctx, true); err != nil {
			log.Error().Err(err).Msg("lsp: error force reindexing")
		}
	})
	return map[string]interface{}{
		"message": "Reindexing started",
	}
}
