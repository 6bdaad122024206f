package indexer

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/vmihailenco/msgpack/v5"
	_ "modernc.org/sqlite"
)

// Item is one keyed value saved for a file.
type Item[T any] struct {
	Key   string
	Value T
}

// DataIndexer stores msgpack encoded values in SQLite, keyed by a lookup
// key and associated with the file they came from.
type DataIndexer[T any] struct {
	db     *sql.DB
	mu     sync.RWMutex
	dbPath string
}

// NewDataIndexer opens or creates the database at dbPath
func NewDataIndexer[T any](dbPath string) (*DataIndexer[T], error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_txlock=immediate")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// one writer, the mutex orders readers against it
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=OFF",
		"PRAGMA foreign_keys=ON",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to set pragma %s: %w", pragma, err)
		}
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS data (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			key TEXT NOT NULL,
			file_path TEXT NOT NULL,
			value BLOB NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_data_key ON data(key);
		CREATE INDEX IF NOT EXISTS idx_data_file_path ON data(file_path);
	`)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize tables: %w", err)
	}

	return &DataIndexer[T]{
		db:     db,
		dbPath: dbPath,
	}, nil
}

// BatchSaveItems replaces the items of several files in a single transaction
func (idx *DataIndexer[T]) BatchSaveItems(items map[string][]Item[T]) error {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	tx, err := idx.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.Prepare("INSERT INTO data (key, file_path, value) VALUES (?, ?, ?)")
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for filePath, fileItems := range items {
		if _, err := tx.Exec("DELETE FROM data WHERE file_path = ?", filePath); err != nil {
			return fmt.Errorf("failed to delete data: %w", err)
		}
		for _, item := range fileItems {
			data, err := msgpack.Marshal(item.Value)
			if err != nil {
				return fmt.Errorf("failed to marshal item: %w", err)
			}

			if _, err := stmt.Exec(item.Key, filePath, data); err != nil {
				return fmt.Errorf("failed to save item: %w", err)
			}
		}
	}

	return tx.Commit()
}

// GetValues returns all items saved under key, in insertion order
func (idx *DataIndexer[T]) GetValues(key string) ([]T, error) {
	return idx.query("SELECT value FROM data WHERE key = ? ORDER BY id", key)
}

// SearchValues returns up to limit items whose key contains substr.
// Exact matches come first, then prefix matches. A limit <= 0 means no limit.
func (idx *DataIndexer[T]) SearchValues(substr string, limit int) ([]T, error) {
	if limit <= 0 {
		limit = -1
	}
	pattern := "%" + escapeLike(substr) + "%"
	prefix := escapeLike(substr) + "%"
	return idx.query(`
		SELECT value FROM data
		WHERE key LIKE ? ESCAPE '\'
		ORDER BY (key = ?) DESC, (key LIKE ? ESCAPE '\') DESC, key, id
		LIMIT ?
	`, pattern, substr, prefix, limit)
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

func (idx *DataIndexer[T]) query(query string, args ...any) ([]T, error) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	rows, err := idx.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query data: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var items []T
	for rows.Next() {
		var data []byte
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		if len(data) == 0 {
			continue
		}

		var item T
		if err := msgpack.Unmarshal(data, &item); err != nil {
			return nil, fmt.Errorf("failed to unmarshal item: %w", err)
		}
		items = append(items, item)
	}

	return items, rows.Err()
}

// Count returns the number of stored items
func (idx *DataIndexer[T]) Count() (int, error) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	var n int
	if err := idx.db.QueryRow("SELECT COUNT(*) FROM data").Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count data: %w", err)
	}
	return n, nil
}

// BatchDeleteByFilePaths deletes all items of the given files in a single transaction
func (idx *DataIndexer[T]) BatchDeleteByFilePaths(filePaths []string) error {
	if len(filePaths) == 0 {
		return nil
	}

	idx.mu.Lock()
	defer idx.mu.Unlock()

	tx, err := idx.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, filePath := range filePaths {
		if _, err := tx.Exec("DELETE FROM data WHERE file_path = ?", filePath); err != nil {
			return fmt.Errorf("failed to delete data: %w", err)
		}
	}

	return tx.Commit()
}

func (idx *DataIndexer[T]) Clear() error {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	_, err := idx.db.Exec("DELETE FROM data")
	return err
}

// Close closes the database
func (idx *DataIndexer[T]) Close() error {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	_, _ = idx.db.Exec("PRAGMA wal_checkpoint(TRUNCATE)")

	return idx.db.Close()
}
