package indexer

import (
	"fmt"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testStruct struct {
	Name  string
	Value int
}

func setupTestDB[T any](t *testing.T) *DataIndexer[T] {
	t.Helper()
	indexer, err := NewDataIndexer[T](filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err, "Failed to create new data indexer")

	t.Cleanup(func() {
		if err := indexer.Close(); err != nil {
			t.Logf("Warning: error closing test database: %v", err)
		}
	})

	return indexer
}

func TestDataIndexer_SaveAndDelete(t *testing.T) {
	indexer := setupTestDB[testStruct](t)

	assert.NoError(t, indexer.BatchSaveItems(map[string][]Item[testStruct]{
		"src/a.js": {{Key: "render", Value: testStruct{Name: "a"}}},
	}))
	assert.NoError(t, indexer.BatchSaveItems(map[string][]Item[testStruct]{
		"src/b.js": {{Key: "render", Value: testStruct{Name: "b"}}},
	}))

	values, err := indexer.GetValues("render")
	assert.NoError(t, err)
	assert.Equal(t, []testStruct{{Name: "a"}, {Name: "b"}}, values)

	assert.NoError(t, indexer.BatchDeleteByFilePaths([]string{"src/a.js"}))

	values, err = indexer.GetValues("render")
	assert.NoError(t, err)
	assert.Equal(t, []testStruct{{Name: "b"}}, values)

	assert.NoError(t, indexer.BatchDeleteByFilePaths([]string{"src/b.js"}))

	values, err = indexer.GetValues("render")
	assert.NoError(t, err)
	assert.Empty(t, values)
}

func TestDataIndexer_BatchSaveItems_KeepsDuplicateKeys(t *testing.T) {
	indexer := setupTestDB[testStruct](t)

	err := indexer.BatchSaveItems(map[string][]Item[testStruct]{
		"file1.js": {
			{Key: "handler", Value: testStruct{Name: "first", Value: 1}},
			{Key: "handler", Value: testStruct{Name: "second", Value: 2}},
		},
		"file2.js": {
			{Key: "other", Value: testStruct{Name: "third", Value: 3}},
		},
	})
	require.NoError(t, err)

	values, err := indexer.GetValues("handler")
	require.NoError(t, err)
	assert.Equal(t, []testStruct{{Name: "first", Value: 1}, {Name: "second", Value: 2}}, values)

	n, err := indexer.Count()
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}

func TestDataIndexer_BatchSaveItems_ReplacesFileEntries(t *testing.T) {
	indexer := setupTestDB[testStruct](t)

	require.NoError(t, indexer.BatchSaveItems(map[string][]Item[testStruct]{
		"file1.js": {{Key: "keyA", Value: testStruct{Name: "ItemA"}}},
	}))
	require.NoError(t, indexer.BatchSaveItems(map[string][]Item[testStruct]{
		"file1.js": {{Key: "keyA", Value: testStruct{Name: "ItemB"}}},
	}))

	values, err := indexer.GetValues("keyA")
	require.NoError(t, err)
	require.Len(t, values, 1, "second save should replace, not duplicate")
	assert.Equal(t, "ItemB", values[0].Name)

	require.NoError(t, indexer.BatchSaveItems(map[string][]Item[testStruct]{
		"file1.js": {{Key: "keyB", Value: testStruct{Name: "ItemC"}}},
	}))

	valuesA, err := indexer.GetValues("keyA")
	require.NoError(t, err)
	assert.Empty(t, valuesA)

	valuesB, err := indexer.GetValues("keyB")
	require.NoError(t, err)
	require.Len(t, valuesB, 1)
	assert.Equal(t, "ItemC", valuesB[0].Name)
}

func TestDataIndexer_SearchValues(t *testing.T) {
	indexer := setupTestDB[testStruct](t)

	require.NoError(t, indexer.BatchSaveItems(map[string][]Item[testStruct]{
		"a.js": {
			{Key: "handleclick", Value: testStruct{Name: "handleClick"}},
			{Key: "click", Value: testStruct{Name: "click"}},
			{Key: "onclickoutside", Value: testStruct{Name: "onClickOutside"}},
			{Key: "render", Value: testStruct{Name: "render"}},
			{Key: "snake_case", Value: testStruct{Name: "snake_case"}},
			{Key: "snakexcase", Value: testStruct{Name: "snakexcase"}},
		},
	}))

	tests := []struct {
		name  string
		query string
		limit int
		want  []string
	}{
		{"exact first then prefix then rest", "click", 0, []string{"click", "handleClick", "onClickOutside"}},
		{"limit", "click", 2, []string{"click", "handleClick"}},
		{"no match", "missing", 10, nil},
		{"underscore is literal", "snake_", 0, []string{"snake_case"}},
		{"empty matches all", "", 0, []string{"click", "handleClick", "onClickOutside", "render", "snake_case", "snakexcase"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			values, err := indexer.SearchValues(tt.query, tt.limit)
			require.NoError(t, err)

			var names []string
			for _, v := range values {
				names = append(names, v.Name)
			}
			assert.Equal(t, tt.want, names)
		})
	}
}

func TestDataIndexer_Clear(t *testing.T) {
	indexer := setupTestDB[testStruct](t)

	require.NoError(t, indexer.BatchSaveItems(map[string][]Item[testStruct]{
		"a.js": {{Key: "a", Value: testStruct{Name: "a"}}},
	}))
	require.NoError(t, indexer.Clear())

	n, err := indexer.Count()
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestDataIndexer_ConcurrentAccess(t *testing.T) {
	indexer := setupTestDB[testStruct](t)

	var wg sync.WaitGroup
	errChan := make(chan error, 3)

	for w := 0; w < 2; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < 10; i++ {
				file := filepath.Join("dir", fmt.Sprintf("%c%d.js", 'a'+w, i))
				err := indexer.BatchSaveItems(map[string][]Item[testStruct]{
					file: {{Key: "key", Value: testStruct{Value: i}}},
				})
				if err != nil {
					errChan <- err
					return
				}
			}
		}(w)
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 10; i++ {
			if _, err := indexer.SearchValues("ke", 5); err != nil {
				errChan <- err
				return
			}
		}
	}()

	wg.Wait()
	close(errChan)

	for err := range errChan {
		t.Errorf("Concurrent operation failed: %v", err)
	}

	n, err := indexer.Count()
	require.NoError(t, err)
	assert.Equal(t, 20, n)
}
