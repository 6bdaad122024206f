package lsp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveLanguage(t *testing.T) {
	tests := []struct {
		uri, languageID, want string
	}{
		{"file:///a.js", "javascript", "javascript"},
		{"file:///a.tsx", "typescriptreact", "typescriptreact"},
		{"file:///a.tsx", "", "typescriptreact"},
		{"file:///a.php", "plaintext", "php"},
		{"file:///a.txt", "plaintext", "plaintext"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, resolveLanguage(tt.uri, tt.languageID), tt.uri)
	}
}

func TestDocumentManager(t *testing.T) {
	m := NewDocumentManager()

	snap := m.OpenDocument("file:///b.ts", "typescript", "function b() {}", 1)
	assert.Equal(t, int32(1), snap.Version)
	assert.Equal(t, "typescript", snap.LanguageID)

	updated := m.UpdateDocument("file:///b.ts", "function c() {}", 2)
	assert.Equal(t, "function c() {}", string(updated.Text))
	// earlier snapshots keep their text
	assert.Equal(t, "function b() {}", string(snap.Text))

	m.OpenDocument("file:///a.js", "javascript", "", 1)
	assert.Equal(t, []string{"file:///a.js", "file:///b.ts"}, m.URIs())

	doc, ok := m.GetDocument("file:///b.ts")
	require.True(t, ok)
	assert.Equal(t, int32(2), doc.Version)

	m.CloseDocument("file:///b.ts")
	_, ok = m.GetDocument("file:///b.ts")
	assert.False(t, ok)

	// a change for a document that was never opened opens it
	snap = m.UpdateDocument("file:///c.php", "<?php", 3)
	assert.Equal(t, "php", snap.LanguageID)

	m.Close()
	assert.Empty(t, m.URIs())
}
