// Package symbolsource talks to an external language server and turns its
// document symbols into outline candidates.
package symbolsource

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/sourcegraph/jsonrpc2"
	"go.lsp.dev/protocol"

	"github.com/function-map/function-map-lsp/internal/fileuri"
	"github.com/function-map/function-map-lsp/internal/outline"
)

var ErrUnavailable = errors.New("symbolsource: provider unavailable")

// shutdownTimeout bounds the shutdown/exit exchange in Close.
const shutdownTimeout = 2 * time.Second

// Config describes the language server process to spawn.
type Config struct {
	Command string
	Args    []string
	RootDir string
}

// Client is a connection to one document-symbol provider. It keeps the
// provider's copy of each document in sync before asking for symbols.
type Client struct {
	conn   *jsonrpc2.Conn
	cmd    *exec.Cmd
	cancel context.CancelFunc

	mu       sync.Mutex
	versions map[string]int32
	closed   bool
}

// Start spawns the provider process and performs the LSP handshake.
func Start(ctx context.Context, cfg Config) (*Client, error) {
	if cfg.Command == "" {
		return nil, fmt.Errorf("%w: no command configured", ErrUnavailable)
	}
	root, err := filepath.Abs(cfg.RootDir)
	if err != nil {
		return nil, err
	}

	procCtx, cancel := context.WithCancel(context.Background())
	cmd := exec.CommandContext(procCtx, cfg.Command, cfg.Args...)
	cmd.Dir = root

	stdin, err := cmd.StdinPipe()
	if err != nil {
		cancel()
		return nil, err
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		cancel()
		return nil, err
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		cancel()
		return nil, err
	}
	if err := cmd.Start(); err != nil {
		cancel()
		return nil, fmt.Errorf("%w: start %s: %w", ErrUnavailable, cfg.Command, err)
	}
	go logStderr(cfg.Command, stderr)

	client, err := NewClient(ctx, &stdioReadWriteCloser{reader: stdout, writer: stdin}, root)
	if err != nil {
		cancel()
		_ = cmd.Wait()
		return nil, err
	}
	client.cmd = cmd
	client.cancel = cancel

	log.Info().Str("command", cfg.Command).Strs("args", cfg.Args).Msg("symbolsource: provider started")
	return client, nil
}

// NewClient performs the handshake over an established stream.
func NewClient(ctx context.Context, rwc io.ReadWriteCloser, rootDir string) (*Client, error) {
	stream := jsonrpc2.NewBufferedStream(rwc, jsonrpc2.VSCodeObjectCodec{})
	conn := jsonrpc2.NewConn(context.Background(), stream, jsonrpc2.HandlerWithError(handleProviderRequest))

	c := &Client{conn: conn, versions: make(map[string]int32)}
	if err := c.initialize(ctx, rootDir); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("%w: initialize: %w", ErrUnavailable, err)
	}
	return c, nil
}

// handleProviderRequest answers the few server-to-client requests providers
// send during startup. Notifications are dropped.
func handleProviderRequest(_ context.Context, _ *jsonrpc2.Conn, req *jsonrpc2.Request) (any, error) {
	if req.Notif {
		return nil, nil
	}
	switch req.Method {
	case "window/workDoneProgress/create", "client/registerCapability", "workspace/configuration":
		return nil, nil
	}
	return nil, &jsonrpc2.Error{Code: jsonrpc2.CodeMethodNotFound, Message: "method not handled: " + req.Method}
}

func (c *Client) initialize(ctx context.Context, root string) error {
	params := &protocol.InitializeParams{
		ProcessID: int32(os.Getpid()),
		RootURI:   protocol.DocumentURI(fileuri.FromPath(root)),
		ClientInfo: &protocol.ClientInfo{
			Name: "function-map",
		},
		Capabilities: protocol.ClientCapabilities{
			TextDocument: &protocol.TextDocumentClientCapabilities{
				DocumentSymbol: &protocol.DocumentSymbolClientCapabilities{
					HierarchicalDocumentSymbolSupport: true,
				},
			},
		},
	}
	var result protocol.InitializeResult
	if err := c.conn.Call(ctx, "initialize", params, &result); err != nil {
		return err
	}
	return c.conn.Notify(ctx, "initialized", &protocol.InitializedParams{})
}

// fullTextChange replaces the whole document. protocol.TextDocumentContentChangeEvent
// always serialises a range, which providers read as an incremental edit.
type fullTextChange struct {
	Text string `json:"text"`
}

type didChangeParams struct {
	TextDocument   protocol.VersionedTextDocumentIdentifier `json:"textDocument"`
	ContentChanges []fullTextChange                         `json:"contentChanges"`
}

func (c *Client) sync(ctx context.Context, uri, languageID string, version int32, text string) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrUnavailable
	}
	known, open := c.versions[uri]
	if open && known == version {
		c.mu.Unlock()
		return nil
	}
	c.versions[uri] = version
	c.mu.Unlock()

	if !open {
		return c.conn.Notify(ctx, "textDocument/didOpen", protocol.DidOpenTextDocumentParams{
			TextDocument: protocol.TextDocumentItem{
				URI:        protocol.DocumentURI(uri),
				LanguageID: protocol.LanguageIdentifier(languageID),
				Version:    version,
				Text:       text,
			},
		})
	}
	return c.conn.Notify(ctx, "textDocument/didChange", didChangeParams{
		TextDocument: protocol.VersionedTextDocumentIdentifier{
			TextDocumentIdentifier: protocol.TextDocumentIdentifier{URI: protocol.DocumentURI(uri)},
			Version:                version,
		},
		ContentChanges: []fullTextChange{{Text: text}},
	})
}

// DocumentSymbols syncs the document and returns the provider's symbols for it.
func (c *Client) DocumentSymbols(ctx context.Context, uri, languageID string, version int32, text string) ([]outline.Symbol, error) {
	if err := c.sync(ctx, uri, languageID, version, text); err != nil {
		return nil, fmt.Errorf("sync %s: %w", uri, err)
	}

	var raw json.RawMessage
	params := protocol.DocumentSymbolParams{
		TextDocument: protocol.TextDocumentIdentifier{URI: protocol.DocumentURI(uri)},
	}
	if err := c.conn.Call(ctx, "textDocument/documentSymbol", params, &raw); err != nil {
		return nil, fmt.Errorf("documentSymbol %s: %w", uri, err)
	}
	return decodeSymbols(raw)
}

// CloseDocument tells the provider the document is gone.
func (c *Client) CloseDocument(ctx context.Context, uri string) error {
	c.mu.Lock()
	_, open := c.versions[uri]
	delete(c.versions, uri)
	c.mu.Unlock()
	if !open {
		return nil
	}
	return c.conn.Notify(ctx, "textDocument/didClose", protocol.DidCloseTextDocumentParams{
		TextDocument: protocol.TextDocumentIdentifier{URI: protocol.DocumentURI(uri)},
	})
}

// Close shuts the provider down. It is safe to call more than once.
func (c *Client) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	c.mu.Unlock()

	if c.cmd != nil {
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		if err := c.conn.Call(ctx, "shutdown", nil, nil); err == nil {
			_ = c.conn.Notify(ctx, "exit", nil)
		}
		cancel()
	}
	err := c.conn.Close()
	if c.cancel != nil {
		c.cancel()
	}
	if c.cmd != nil {
		_ = c.cmd.Wait()
	}
	if err != nil && !errors.Is(err, jsonrpc2.ErrClosed) {
		return err
	}
	return nil
}

func logStderr(command string, r io.Reader) {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		log.Debug().Str("provider", command).Msg(scanner.Text())
	}
}

type stdioReadWriteCloser struct {
	reader io.ReadCloser
	writer io.WriteCloser
}

func (s *stdioReadWriteCloser) Read(p []byte) (int, error)  { return s.reader.Read(p) }
func (s *stdioReadWriteCloser) Write(p []byte) (int, error) { return s.writer.Write(p) }
func (s *stdioReadWriteCloser) Close() error {
	_ = s.reader.Close()
	return s.writer.Close()
}
