package lsp

import (
	"sort"
	"sync"

	"github.com/function-map/function-map-lsp/internal/outline"
	"github.com/function-map/function-map-lsp/internal/tracker"
)

// TextDocument represents a document open in the editor
type TextDocument struct {
	URI        string
	LanguageID string
	Text       []byte
	Version    int32
}

// Snapshot returns the rebuild input for the current text.
func (d *TextDocument) Snapshot() tracker.Snapshot {
	return tracker.Snapshot{
		URI:        d.URI,
		Version:    d.Version,
		LanguageID: d.LanguageID,
		Text:       d.Text,
	}
}

// DocumentManager manages text documents
type DocumentManager struct {
	documents map[string]*TextDocument
	mu        sync.RWMutex
}

// NewDocumentManager creates a new document manager
func NewDocumentManager() *DocumentManager {
	return &DocumentManager{
		documents: make(map[string]*TextDocument),
	}
}

// resolveLanguage keeps a language id the outline understands and otherwise
// falls back to the file extension, so an unrecognised id on a .tsx file
// still gets the TSX grammar.
func resolveLanguage(uri, languageID string) string {
	if _, ok := outline.Lookup(languageID); ok {
		return languageID
	}
	if d, ok := outline.ForPath(uri); ok {
		return d.ID
	}
	return languageID
}

// OpenDocument adds or replaces a document and returns its snapshot
func (m *DocumentManager) OpenDocument(uri, languageID, text string, version int32) tracker.Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	doc := &TextDocument{
		URI:        uri,
		LanguageID: resolveLanguage(uri, languageID),
		Text:       []byte(text),
		Version:    version,
	}
	m.documents[uri] = doc

	return doc.Snapshot()
}

// UpdateDocument replaces the text of a document. Unknown documents are
// opened with a language derived from the URI.
func (m *DocumentManager) UpdateDocument(uri, text string, version int32) tracker.Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	doc, ok := m.documents[uri]
	if !ok {
		doc = &TextDocument{URI: uri, LanguageID: resolveLanguage(uri, "")}
	}
	// snapshots share the old slice, so replace instead of mutating
	updated := *doc
	updated.Text = []byte(text)
	updated.Version = version
	m.documents[uri] = &updated

	return updated.Snapshot()
}

// CloseDocument removes a document
func (m *DocumentManager) CloseDocument(uri string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.documents, uri)
}

// GetDocument returns a copy of a document by URI
func (m *DocumentManager) GetDocument(uri string) (TextDocument, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	doc, ok := m.documents[uri]
	if !ok {
		return TextDocument{}, false
	}
	return *doc, true
}

// URIs returns the open documents in a stable order
func (m *DocumentManager) URIs() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	uris := make([]string, 0, len(m.documents))
	for uri := range m.documents {
		uris = append(uris, uri)
	}
	sort.Strings(uris)
	return uris
}

// Close drops all documents
func (m *DocumentManager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.documents = make(map[string]*TextDocument)
}
