package funcindex

import (
	"path/filepath"
	"strings"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/function-map/function-map-lsp/internal/indexer"
	"github.com/function-map/function-map-lsp/internal/outline"
)

// Entry is one function of a workspace file.
type Entry struct {
	Name      string
	Container string
	Path      string
	Kind      outline.Kind
	Comment   string
	Range     outline.Range
}

// FunctionIndexer keeps every function of the workspace searchable by name.
type FunctionIndexer struct {
	index *indexer.DataIndexer[Entry]
}

func NewFunctionIndexer(configDir string) (*FunctionIndexer, error) {
	index, err := indexer.NewDataIndexer[Entry](filepath.Join(configDir, "functions.db"))
	if err != nil {
		return nil, err
	}

	return &FunctionIndexer{index: index}, nil
}

func (f *FunctionIndexer) ID() string {
	return "function.indexer"
}

func (f *FunctionIndexer) Index(path string, node *tree_sitter.Node, fileContent []byte) error {
	dialect, ok := outline.ForPath(path)
	if !ok {
		return nil
	}

	var items []indexer.Item[Entry]
	var walk func(nodes []*outline.FunctionNode, container string)
	walk = func(nodes []*outline.FunctionNode, container string) {
		for _, fn := range nodes {
			items = append(items, indexer.Item[Entry]{
				Key: strings.ToLower(fn.Name),
				Value: Entry{
					Name:      fn.Name,
					Container: container,
					Path:      path,
					Kind:      fn.Kind,
					Comment:   fn.Comment,
					Range:     fn.Span.Range(),
				},
			})
			walk(fn.Children, fn.Name)
		}
	}
	walk(dialect.FromTree(node, fileContent), "")

	return f.index.BatchSaveItems(map[string][]indexer.Item[Entry]{path: items})
}

// Search returns up to limit functions whose name contains query, case
// insensitively.
func (f *FunctionIndexer) Search(query string, limit int) ([]Entry, error) {
	return f.index.SearchValues(strings.ToLower(query), limit)
}

// Lookup returns the functions named exactly name, ignoring case.
func (f *FunctionIndexer) Lookup(name string) ([]Entry, error) {
	return f.index.GetValues(strings.ToLower(name))
}

// Count returns the number of indexed functions.
func (f *FunctionIndexer) Count() (int, error) {
	return f.index.Count()
}

func (f *FunctionIndexer) RemovedFiles(paths []string) error {
	return f.index.BatchDeleteByFilePaths(paths)
}

func (f *FunctionIndexer) Clear() error {
	return f.index.Clear()
}

func (f *FunctionIndexer) Close() error {
	return f.index.Close()
}
