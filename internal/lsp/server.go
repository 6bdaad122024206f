package lsp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/sourcegraph/jsonrpc2"

	"github.com/function-map/function-map-lsp/internal/config"
	"github.com/function-map/function-map-lsp/internal/fileuri"
	"github.com/function-map/function-map-lsp/internal/indexer"
	"github.com/function-map/function-map-lsp/internal/lsp/protocol"
	"github.com/function-map/function-map-lsp/internal/outline"
	"github.com/function-map/function-map-lsp/internal/symbolsource"
	"github.com/function-map/function-map-lsp/internal/tracker"
	"github.com/function-map/function-map-lsp/internal/view"
)

const ServerName = "function-map-lsp"

// Version is set at build time.
var Version = "dev"

// symbolTimeout bounds one round trip to the external symbol provider.
const symbolTimeout = 5 * time.Second

type Options struct {
	Config      *config.Config
	FileScanner *indexer.FileScanner
	Functions   FunctionSearcher
	// Symbols is used instead of spawning the configured provider.
	Symbols SymbolSource
}

// Server represents the LSP server
type Server struct {
	cfg             *config.Config
	rootPath        string
	conn            atomic.Pointer[jsonrpc2.Conn]
	documentManager *DocumentManager
	tracker         *tracker.Tracker
	viewports       *view.ViewportStore
	view            *view.Provider
	functions       FunctionSearcher
	FileScanner     *indexer.FileScanner

	symbolsMu sync.RWMutex
	symbols   SymbolSource

	activeMu  sync.RWMutex
	activeURI string

	ctx        context.Context
	cancel     context.CancelFunc
	background sync.WaitGroup
	closeOnce  sync.Once
	closeErr   error
}

// NewServer creates a new LSP server
func NewServer(opts Options) (*Server, error) {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.Default()
	}

	s := &Server{
		cfg:             cfg,
		documentManager: NewDocumentManager(),
		viewports:       view.NewViewportStore(),
		functions:       opts.Functions,
		FileScanner:     opts.FileScanner,
		symbols:         opts.Symbols,
	}
	s.ctx, s.cancel = context.WithCancel(context.Background())

	t, err := tracker.New(tracker.Options{
		Debounce: cfg.Outline.Debounce,
		MemoSize: cfg.Outline.MemoSize,
		Build:    s.buildOutline,
		OnUpdate: s.outlineChanged,
	})
	if err != nil {
		return nil, fmt.Errorf("lsp: create tracker: %w", err)
	}
	s.tracker = t
	s.view = view.NewProvider(t, s.viewports)

	if s.FileScanner != nil {
		s.FileScanner.SetOnUpdate(func() {
			s.notify(s.ctx, methodIndexUpdated, map[string]interface{}{
				"message": "Index updated",
			})
		})
	}

	return s, nil
}

func (s *Server) Start(in io.Reader, out io.Writer) error {
	stream := jsonrpc2.NewBufferedStream(rwc{in, out}, jsonrpc2.VSCodeObjectCodec{})
	rpcLogger := log.With().Str("component", "jsonrpc2").Logger()
	conn := jsonrpc2.NewConn(context.Background(), stream, &handler{
		server: s,
		sync:   jsonrpc2.HandlerWithError(s.handle),
	}, jsonrpc2.SetLogger(&rpcLogger))
	s.conn.Store(conn)

	<-conn.DisconnectNotify()

	return s.CloseAll()
}

// rwc combines a reader and writer into a single ReadWriteCloser
type rwc struct {
	io.Reader
	io.Writer
}

// Close implements io.Closer
func (rwc) Close() error {
	return nil
}

// handler answers requests on the read loop, except commands: they call back
// into the client and would otherwise block the reply they wait for.
type handler struct {
	server *Server
	sync   *jsonrpc2.HandlerWithErrorConfigurer
}

func (h *handler) Handle(ctx context.Context, conn *jsonrpc2.Conn, req *jsonrpc2.Request) {
	h.server.conn.Store(conn)

	if req.Method == "workspace/executeCommand" && !req.Notif {
		h.server.goBackground(func(bg context.Context) {
			h.sync.Handle(bg, conn, req)
		})
		return
	}

	h.sync.Handle(ctx, conn, req)
}

// goBackground runs fn with the server context until CloseAll.
func (s *Server) goBackground(fn func(ctx context.Context)) {
	if s.ctx.Err() != nil {
		return
	}
	s.background.Add(1)
	go func() {
		defer s.background.Done()
		fn(s.ctx)
	}()
}

func decodeParams(req *jsonrpc2.Request, v any) error {
	if req.Params == nil {
		return &jsonrpc2.Error{Code: jsonrpc2.CodeInvalidParams, Message: "missing params for " + req.Method}
	}
	if err := json.Unmarshal(*req.Params, v); err != nil {
		return &jsonrpc2.Error{Code: jsonrpc2.CodeInvalidParams, Message: err.Error()}
	}
	return nil
}

// handle processes incoming JSON-RPC requests and notifications
func (s *Server) handle(ctx context.Context, conn *jsonrpc2.Conn, req *jsonrpc2.Request) (interface{}, error) {
	// Handle exit notification after shutdown
	if req.Method == "exit" {
		log.Info().Msg("lsp: received exit notification, exiting")
		if err := conn.Close(); err != nil {
			log.Warn().Err(err).Msg("lsp: error closing connection")
		}
		return nil, nil
	}

	switch req.Method {
	case "initialize":
		var params protocol.InitializeParams
		if err := decodeParams(req, &params); err != nil {
			return nil, err
		}
		return s.initialize(&params), nil

	case "initialized":
		s.initialized()
		return nil, nil

	case "shutdown":
		if err := s.CloseAll(); err != nil {
			log.Error().Err(err).Msg("lsp: error closing resources")
		}
		log.Info().Msg("lsp: received shutdown request, waiting for exit notification")
		return nil, nil

	case "textDocument/didOpen":
		var params protocol.DidOpenTextDocumentParams
		if err := decodeParams(req, &params); err != nil {
			return nil, err
		}
		doc := params.TextDocument
		s.rebuild(ctx, s.documentManager.OpenDocument(doc.URI, doc.LanguageID, doc.Text, doc.Version))
		return nil, nil

	case "textDocument/didChange":
		var params protocol.DidChangeTextDocumentParams
		if err := decodeParams(req, &params); err != nil {
			return nil, err
		}
		if len(params.ContentChanges) == 0 {
			return nil, nil
		}
		// full sync: the last change holds the whole text
		text := params.ContentChanges[len(params.ContentChanges)-1].Text
		snap := s.documentManager.UpdateDocument(params.TextDocument.URI, text, params.TextDocument.Version)
		if s.cfg.Outline.RebuildOnChange {
			s.tracker.Schedule(snap)
		}
		return nil, nil

	case "textDocument/didSave":
		var params protocol.DidSaveTextDocumentParams
		if err := decodeParams(req, &params); err != nil {
			return nil, err
		}
		uri := params.TextDocument.URI
		doc, ok := s.documentManager.GetDocument(uri)
		if params.Text != nil {
			s.rebuild(ctx, s.documentManager.UpdateDocument(uri, *params.Text, doc.Version))
		} else if ok {
			s.rebuild(ctx, doc.Snapshot())
		}
		return nil, nil

	case "textDocument/didClose":
		var params protocol.DidCloseTextDocumentParams
		if err := decodeParams(req, &params); err != nil {
			return nil, err
		}
		s.closeDocument(ctx, params.TextDocument.URI)
		return nil, nil

	case "textDocument/documentSymbol":
		var params protocol.DocumentSymbolParams
		if err := decodeParams(req, &params); err != nil {
			return nil, err
		}
		return s.documentSymbols(params.TextDocument.URI), nil

	case "textDocument/foldingRange":
		var params protocol.FoldingRangeParams
		if err := decodeParams(req, &params); err != nil {
			return nil, err
		}
		return s.foldingRanges(params.TextDocument.URI), nil

	case "workspace/symbol":
		var params protocol.WorkspaceSymbolParams
		if err := decodeParams(req, &params); err != nil {
			return nil, err
		}
		return s.workspaceSymbols(params.Query), nil

	case "workspace/executeCommand":
		var params protocol.ExecuteCommandParams
		if err := decodeParams(req, &params); err != nil {
			return nil, err
		}
		return s.executeCommand(ctx, conn, &params)

	case "functionMap/outline":
		var params protocol.OutlineParams
		if req.Params != nil {
			if err := decodeParams(req, &params); err != nil {
				return nil, err
			}
		}
		return s.outline(params.TextDocument), nil

	case "functionMap/children":
		var params protocol.ChildrenParams
		if err := decodeParams(req, &params); err != nil {
			return nil, err
		}
		return s.view.Children(s.documentURI(params.TextDocument), params.ID), nil

	case "functionMap/didChangeVisibleRanges":
		var params protocol.VisibleRangesParams
		if err := decodeParams(req, &params); err != nil {
			return nil, err
		}
		s.visibleRangesChanged(ctx, &params)
		return nil, nil

	case "functionMap/didChangeActiveEditor":
		var params protocol.ActiveEditorParams
		if err := decodeParams(req, &params); err != nil {
			return nil, err
		}
		s.activeEditorChanged(ctx, &params)
		return nil, nil

	case "functionMap/forceReindex":
		return s.reindex(), nil

	case "workspace/didCreateFiles":
		var params protocol.CreateFilesParams
		if err := decodeParams(req, &params); err != nil {
			return nil, err
		}
		files := make([]string, len(params.Files))
		for i, file := range params.Files {
			files[i] = file.URI
		}
		s.indexFiles(ctx, files)
		return nil, nil

	case "workspace/didRenameFiles":
		var params protocol.RenameFilesParams
		if err := decodeParams(req, &params); err != nil {
			return nil, err
		}
		oldFiles := make([]string, len(params.Files))
		newFiles := make([]string, len(params.Files))
		for i, file := range params.Files {
			oldFiles[i] = file.OldURI
			newFiles[i] = file.NewURI
		}
		s.indexFiles(ctx, newFiles)
		s.removeFiles(ctx, oldFiles)
		return nil, nil

	case "workspace/didDeleteFiles":
		var params protocol.DeleteFilesParams
		if err := decodeParams(req, &params); err != nil {
			return nil, err
		}
		files := make([]string, len(params.Files))
		for i, file := range params.Files {
			files[i] = file.URI
		}
		s.removeFiles(ctx, files)
		return nil, nil

	case "workspace/didChangeWatchedFiles":
		var params protocol.DidChangeWatchedFilesParams
		if err := decodeParams(req, &params); err != nil {
			return nil, err
		}
		s.watchedFilesChanged(ctx, &params)
		return nil, nil

	default:
		if req.Notif {
			return nil, nil
		}
		return nil, &jsonrpc2.Error{Code: jsonrpc2.CodeMethodNotFound, Message: "Method not implemented: " + req.Method}
	}
}

// initialize handles the LSP initialize request
func (s *Server) initialize(params *protocol.InitializeParams) *protocol.InitializeResult {
	s.extractRootPath(params)
	log.Info().Str("root", s.rootPath).Msg("lsp: initializing")

	return &protocol.InitializeResult{
		Capabilities: protocol.ServerCapabilities{
			TextDocumentSync: protocol.TextDocumentSyncOptions{
				OpenClose: true,
				Change:    protocol.TextDocumentSyncFull,
				Save:      &protocol.SaveOptions{IncludeText: true},
			},
			DocumentSymbolProvider:  true,
			FoldingRangeProvider:    true,
			WorkspaceSymbolProvider: s.functions != nil,
			ExecuteCommandProvider:  &protocol.ExecuteCommandOptions{Commands: protocol.Commands},
			Workspace: &protocol.WorkspaceServerCapabilities{
				FileOperations: protocol.NewFileOperationOptions(sourceGlobs()),
			},
		},
		ServerInfo: &protocol.ServerInfo{Name: ServerName, Version: Version},
	}
}

// sourceGlobs matches every file a dialect can outline.
func sourceGlobs() []string {
	exts := outline.Extensions()
	names := make([]string, len(exts))
	for i, ext := range exts {
		names[i] = strings.TrimPrefix(ext, ".")
	}
	return []string{"**/*.{" + strings.Join(names, ",") + "}"}
}

func (s *Server) initialized() {
	if s.FileScanner != nil && s.cfg.Workspace.Index {
		s.goBackground(func(ctx context.Context) {
			if err := s.indexAll(ctx, false); err != nil && !errors.Is(err, context.Canceled) {
				log.Error().Err(err).Msg("lsp: error indexing")
			}
		})
	}

	if s.cfg.Outline.Source == config.SourceSymbols && s.symbolSource() == nil {
		s.goBackground(s.startSymbolSource)
	}
}

// startSymbolSource spawns the configured provider and rebuilds the open
// documents, whose outlines were empty while it was unavailable.
func (s *Server) startSymbolSource(ctx context.Context) {
	client, err := symbolsource.Start(ctx, symbolsource.Config{
		Command: s.cfg.Symbols.Command,
		Args:    s.cfg.Symbols.Args,
		RootDir: s.rootPath,
	})
	if err != nil {
		log.Error().Err(err).Str("command", s.cfg.Symbols.Command).Msg("lsp: symbol provider unavailable")
		return
	}
	s.symbolsMu.Lock()
	s.symbols = client
	s.symbolsMu.Unlock()
	log.Info().Str("command", s.cfg.Symbols.Command).Msg("lsp: symbol provider started")

	for _, uri := range s.documentManager.URIs() {
		if doc, ok := s.documentManager.GetDocument(uri); ok {
			s.tracker.Schedule(doc.Snapshot())
		}
	}
}

func (s *Server) symbolSource() SymbolSource {
	s.symbolsMu.RLock()
	defer s.symbolsMu.RUnlock()
	return s.symbols
}

// CloseAll stops background work and releases every resource. It is safe to
// call more than once.
func (s *Server) CloseAll() error {
	s.closeOnce.Do(func() {
		s.cancel()
		s.background.Wait()
		s.tracker.Close()

		var errs []error
		if src := s.symbolSource(); src != nil {
			errs = append(errs, src.Close())
		}
		s.documentManager.Close()
		if s.FileScanner != nil {
			errs = append(errs, s.FileScanner.Close())
		}
		s.closeErr = errors.Join(errs...)
	})
	return s.closeErr
}

// extractRootPath extracts the root path from the initialize params
func (s *Server) extractRootPath(params *protocol.InitializeParams) {
	if params.RootURI != "" {
		s.rootPath = fileuri.ToPath(params.RootURI)
		return
	}

	if params.RootPath != "" {
		s.rootPath = params.RootPath
		return
	}

	if len(params.WorkspaceFolders) > 0 {
		s.rootPath = fileuri.ToPath(params.WorkspaceFolders[0].URI)
		return
	}

	// Fall back to current directory
	s.rootPath, _ = os.Getwd()
}

