package symbolsource

import (
	"context"
	"encoding/json"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/sourcegraph/jsonrpc2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/function-map/function-map-lsp/internal/outline"
)

// fakeProvider is an in-process language server answering documentSymbol
// with a canned reply.
type fakeProvider struct {
	reply string

	mu      sync.Mutex
	methods []string
	changes []json.RawMessage
}

func (f *fakeProvider) handle(_ context.Context, _ *jsonrpc2.Conn, req *jsonrpc2.Request) (any, error) {
	f.mu.Lock()
	f.methods = append(f.methods, req.Method)
	if req.Method == "textDocument/didChange" && req.Params != nil {
		f.changes = append(f.changes, *req.Params)
	}
	f.mu.Unlock()

	switch req.Method {
	case "initialize":
		return map[string]any{"capabilities": map[string]any{"documentSymbolProvider": true}}, nil
	case "textDocument/documentSymbol":
		return json.RawMessage(f.reply), nil
	}
	return nil, nil
}

func (f *fakeProvider) seen() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.methods...)
}

func connect(t *testing.T, provider *fakeProvider) *Client {
	t.Helper()
	clientSide, serverSide := net.Pipe()

	serverConn := jsonrpc2.NewConn(context.Background(),
		jsonrpc2.NewBufferedStream(serverSide, jsonrpc2.VSCodeObjectCodec{}),
		jsonrpc2.HandlerWithError(provider.handle))
	t.Cleanup(func() { _ = serverConn.Close() })

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	client, err := NewClient(ctx, clientSide, "/workspace")
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	return client
}

const hierarchicalReply = `[
  {"name": "outer", "kind": 12,
   "range": {"start": {"line": 0, "character": 0}, "end": {"line": 4, "character": 1}},
   "selectionRange": {"start": {"line": 0, "character": 9}, "end": {"line": 0, "character": 14}},
   "children": [
     {"name": "inner", "kind": 12,
      "range": {"start": {"line": 1, "character": 2}, "end": {"line": 3, "character": 3}},
      "selectionRange": {"start": {"line": 1, "character": 11}, "end": {"line": 1, "character": 16}}}
   ]}
]`

const flatReply = `[
  {"name": "sum", "kind": 13,
   "location": {"uri": "file:///src/app.js",
     "range": {"start": {"line": 1, "character": 6}, "end": {"line": 3, "character": 1}}}}
]`

func TestDocumentSymbolsHierarchical(t *testing.T) {
	provider := &fakeProvider{reply: hierarchicalReply}
	client := connect(t, provider)

	symbols, err := client.DocumentSymbols(context.Background(), "file:///src/app.js", "javascript", 1, "function outer() {}")
	require.NoError(t, err)

	require.Len(t, symbols, 1)
	assert.Equal(t, "outer", symbols[0].Name)
	assert.Equal(t, outline.SymbolFunction, symbols[0].Kind)
	assert.Equal(t, outline.Range{End: outline.Position{Line: 4, Character: 1}}, symbols[0].Range)
	require.Len(t, symbols[0].Children, 1)
	assert.Equal(t, "inner", symbols[0].Children[0].Name)

	assert.Equal(t, []string{"initialize", "initialized", "textDocument/didOpen", "textDocument/documentSymbol"}, provider.seen())
}

func TestDocumentSymbolsFlat(t *testing.T) {
	provider := &fakeProvider{reply: flatReply}
	client := connect(t, provider)

	symbols, err := client.DocumentSymbols(context.Background(), "file:///src/app.js", "javascript", 1, "")
	require.NoError(t, err)

	require.Len(t, symbols, 1)
	assert.Equal(t, "sum", symbols[0].Name)
	assert.Equal(t, outline.SymbolVariable, symbols[0].Kind)
	assert.Equal(t, 6, symbols[0].Range.Start.Character)
	assert.Empty(t, symbols[0].Children)
}

func TestDocumentSymbolsSyncsChanges(t *testing.T) {
	provider := &fakeProvider{reply: `[]`}
	client := connect(t, provider)
	ctx := context.Background()
	uri := "file:///src/app.js"

	_, err := client.DocumentSymbols(ctx, uri, "javascript", 1, "a")
	require.NoError(t, err)
	_, err = client.DocumentSymbols(ctx, uri, "javascript", 1, "a")
	require.NoError(t, err)
	_, err = client.DocumentSymbols(ctx, uri, "javascript", 2, "b")
	require.NoError(t, err)
	require.NoError(t, client.CloseDocument(ctx, uri))
	require.NoError(t, client.CloseDocument(ctx, uri))

	// notifications are not ordered against the last reply, wait for them
	require.Eventually(t, func() bool {
		seen := provider.seen()
		return len(seen) > 0 && seen[len(seen)-1] == "textDocument/didClose"
	}, time.Second, 5*time.Millisecond)

	assert.Equal(t, []string{
		"initialize", "initialized",
		"textDocument/didOpen", "textDocument/documentSymbol",
		"textDocument/documentSymbol",
		"textDocument/didChange", "textDocument/documentSymbol",
		"textDocument/didClose",
	}, provider.seen())

	provider.mu.Lock()
	defer provider.mu.Unlock()
	require.Len(t, provider.changes, 1)
	assert.JSONEq(t, `{"textDocument": {"uri": "file:///src/app.js", "version": 2}, "contentChanges": [{"text": "b"}]}`, string(provider.changes[0]))
}

func TestDecodeSymbolsEmpty(t *testing.T) {
	for _, raw := range []string{``, `null`, `[]`} {
		symbols, err := decodeSymbols(json.RawMessage(raw))
		assert.NoError(t, err, raw)
		assert.Empty(t, symbols, raw)
	}

	_, err := decodeSymbols(json.RawMessage(`{"bogus": true}`))
	assert.Error(t, err)
}

func TestStartWithoutCommand(t *testing.T) {
	_, err := Start(context.Background(), Config{})
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestClosedClientRefusesWork(t *testing.T) {
	client := connect(t, &fakeProvider{reply: `[]`})
	require.NoError(t, client.Close())
	require.NoError(t, client.Close())

	_, err := client.DocumentSymbols(context.Background(), "file:///a.js", "javascript", 1, "")
	assert.ErrorIs(t, err, ErrUnavailable)
}
