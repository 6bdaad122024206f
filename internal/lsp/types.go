package lsp

import (
	"context"

	"github.com/function-map/function-map-lsp/internal/funcindex"
	"github.com/function-map/function-map-lsp/internal/outline"
	"github.com/function-map/function-map-lsp/internal/view"
)

// SymbolSource supplies document symbols from an external language server
type SymbolSource interface {
	DocumentSymbols(ctx context.Context, uri, languageID string, version int32, text string) ([]outline.Symbol, error)
	CloseDocument(ctx context.Context, uri string) error
	Close() error
}

// FunctionSearcher answers workspace/symbol queries
type FunctionSearcher interface {
	Search(query string, limit int) ([]funcindex.Entry, error)
}

// OutlineResult is the reply of functionMap/outline
type OutlineResult struct {
	URI       string      `json:"uri"`
	Version   int32       `json:"version"`
	Items     []view.Item `json:"items"`
	AllFolded string      `json:"allFolded"`
}

// ToggleFoldResult is the result of the toggleFold command
type ToggleFoldResult struct {
	ID     string `json:"id"`
	Folded bool   `json:"folded"`
}

// ToggleAllFoldResult is the result of the toggleAllFold command
type ToggleAllFoldResult struct {
	AllFolded bool `json:"allFolded"`
}

// RefreshResult is the result of the refresh command
type RefreshResult struct {
	URI     string `json:"uri"`
	Version int32  `json:"version"`
	Roots   int    `json:"roots"`
}
