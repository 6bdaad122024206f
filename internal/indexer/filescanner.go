package indexer

import (
	"context"
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/gobwas/glob"
	"github.com/rs/zerolog/log"
	"go.etcd.io/bbolt"
)

var defaultSkipDirs = map[string]bool{
	"node_modules":     true,
	"vendor":           true,
	"bower_components": true,
	"dist":             true,
	"build":            true,
	"coverage":         true,
	"out":              true,
	".next":            true,
	".nuxt":            true,
	".cache":           true,
	".git":             true,
	".github":          true,
	".gitlab":          true,
	".idea":            true,
	".vscode":          true,
	".function-map":    true,
}

const (
	fileStatesBucket = "file_states"
	watchDebounce    = 200 * time.Millisecond
)

// FileScanner scans the project for files and tracks changes
type FileScanner struct {
	projectRoot string
	db          *bbolt.DB
	indexer     []Indexer
	ignore      []glob.Glob
	watcher     *fsnotify.Watcher
	watcherCtx  context.Context
	cancel      context.CancelFunc
	watcherWg   sync.WaitGroup
	onUpdate    func()
}

// NewFileScanner creates a new file scanner. ignore holds glob patterns
// matched against slash separated paths relative to projectRoot.
func NewFileScanner(projectRoot string, dbPath string, ignore ...string) (*FileScanner, error) {
	patterns := make([]glob.Glob, 0, len(ignore))
	for _, pattern := range ignore {
		g, err := glob.Compile(pattern, '/')
		if err != nil {
			return nil, fmt.Errorf("invalid ignore pattern %q: %w", pattern, err)
		}
		patterns = append(patterns, g)
	}

	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create db directory: %w", err)
	}

	db, err := bbolt.Open(dbPath, 0600, &bbolt.Options{
		Timeout:      time.Second,
		NoSync:       true,
		FreelistType: bbolt.FreelistMapType,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists([]byte(fileStatesBucket)); err != nil {
			return fmt.Errorf("failed to create file states bucket: %w", err)
		}
		return nil
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize buckets: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &FileScanner{
		projectRoot: projectRoot,
		db:          db,
		indexer:     []Indexer{},
		ignore:      patterns,
		watcherCtx:  ctx,
		cancel:      cancel,
	}, nil
}

func (fs *FileScanner) SetOnUpdate(onUpdate func()) {
	fs.onUpdate = onUpdate
}

func (fs *FileScanner) AddIndexer(indexer Indexer) {
	fs.indexer = append(fs.indexer, indexer)
}

// skipped reports whether path lies in a skipped directory or matches an
// ignore pattern. Paths outside the project are never skipped.
func (fs *FileScanner) skipped(path string) bool {
	relPath, err := filepath.Rel(fs.projectRoot, path)
	if err != nil || strings.HasPrefix(relPath, "..") {
		return false
	}
	if relPath == "." {
		return false
	}

	for _, part := range strings.Split(relPath, string(os.PathSeparator)) {
		if defaultSkipDirs[part] {
			return true
		}
	}

	slashPath := filepath.ToSlash(relPath)
	for _, g := range fs.ignore {
		if g.Match(slashPath) {
			return true
		}
	}
	return false
}

func scanned(path string) bool {
	return slices.Contains(scannedFileTypes, strings.ToLower(filepath.Ext(path)))
}

// StartWatcher starts watching for file changes in the project directory
func (fs *FileScanner) StartWatcher() error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}

	fs.watcher = watcher
	fs.watcherWg.Add(1)

	go func() {
		defer fs.watcherWg.Done()
		defer func() {
			_ = watcher.Close()
		}()

		pendingAdds := make(map[string]bool)
		pendingRemoves := make(map[string]bool)
		debounceTimer := time.NewTimer(time.Hour)
		debounceTimer.Stop()

		resetTimer := func() {
			if !debounceTimer.Stop() {
				select {
				case <-debounceTimer.C:
				default:
				}
			}
			debounceTimer.Reset(watchDebounce)
		}

		processChanges := func() {
			if len(pendingAdds) > 0 {
				filesToAdd := make([]string, 0, len(pendingAdds))
				for file := range pendingAdds {
					filesToAdd = append(filesToAdd, file)
				}
				pendingAdds = make(map[string]bool)

				log.Debug().Int("files", len(filesToAdd)).Msg("indexer: processing changed files")
				if err := fs.IndexFiles(context.Background(), filesToAdd); err != nil {
					log.Error().Err(err).Msg("indexer: index changed files")
				}
			}

			if len(pendingRemoves) > 0 {
				filesToRemove := make([]string, 0, len(pendingRemoves))
				for file := range pendingRemoves {
					filesToRemove = append(filesToRemove, file)
				}
				pendingRemoves = make(map[string]bool)

				log.Debug().Int("files", len(filesToRemove)).Msg("indexer: processing deleted files")
				if err := fs.RemoveFiles(context.Background(), filesToRemove); err != nil {
					log.Error().Err(err).Msg("indexer: remove deleted files")
				}
			}
		}

		for {
			select {
			case <-fs.watcherCtx.Done():
				processChanges()
				return

			case event, ok := <-watcher.Events:
				if !ok {
					return
				}

				if fs.skipped(event.Name) {
					continue
				}

				fileInfo, err := os.Stat(event.Name)
				if err != nil {
					// gone already, only removals matter
					if event.Op&(fsnotify.Remove|fsnotify.Rename) != 0 && scanned(event.Name) {
						pendingRemoves[event.Name] = true
						delete(pendingAdds, event.Name)
						resetTimer()
					}
					continue
				}

				if fileInfo.IsDir() {
					if event.Op&fsnotify.Create != 0 {
						if err := fs.addDirectoryToWatcher(event.Name); err != nil {
							log.Warn().Err(err).Str("dir", event.Name).Msg("indexer: watch new directory")
						}
					}
					continue
				}

				if !scanned(event.Name) {
					continue
				}

				if event.Op&(fsnotify.Create|fsnotify.Write) != 0 {
					log.Debug().Str("file", event.Name).Stringer("op", event.Op).Msg("indexer: file changed")
					pendingAdds[event.Name] = true
					delete(pendingRemoves, event.Name)
				} else if event.Op&(fsnotify.Remove|fsnotify.Rename) != 0 {
					log.Debug().Str("file", event.Name).Stringer("op", event.Op).Msg("indexer: file removed")
					pendingRemoves[event.Name] = true
					delete(pendingAdds, event.Name)
				}
				resetTimer()

			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				log.Warn().Err(err).Msg("indexer: file watcher error")

			case <-debounceTimer.C:
				processChanges()
			}
		}
	}()

	return fs.addDirectoryToWatcher(fs.projectRoot)
}

// StopWatcher stops the file watcher
func (fs *FileScanner) StopWatcher() {
	if fs.watcher != nil {
		fs.cancel()
		fs.watcherWg.Wait()
		fs.watcher = nil
	}
}

// addDirectoryToWatcher recursively adds a directory and its subdirectories to the watcher
func (fs *FileScanner) addDirectoryToWatcher(dir string) error {
	return filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil
		}

		if !info.IsDir() {
			return nil
		}

		if fs.skipped(path) {
			return filepath.SkipDir
		}

		if err := fs.watcher.Add(path); err != nil {
			log.Warn().Err(err).Str("dir", path).Msg("indexer: watch directory")
		}

		return nil
	})
}

// Close stops the file watcher and closes the indexers and the database
func (fs *FileScanner) Close() error {
	fs.StopWatcher()

	var firstErr error
	for _, indexer := range fs.indexer {
		if err := indexer.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}

	if fs.db != nil {
		if err := fs.db.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}

	return firstErr
}

// IndexAll walks the project and indexes every changed file
func (fs *FileScanner) IndexAll(ctx context.Context) error {
	var files []string

	err := filepath.Walk(fs.projectRoot, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}

		if info.IsDir() {
			if fs.skipped(path) {
				return filepath.SkipDir
			}
			return nil
		}

		if scanned(path) && !fs.skipped(path) {
			files = append(files, path)
		}

		return nil
	})

	if err != nil {
		return fmt.Errorf("failed to walk project directory: %w", err)
	}

	log.Info().Int("files", len(files)).Msg("indexer: found files to index")

	startTime := time.Now()

	if err := fs.IndexFiles(ctx, files); err != nil {
		return fmt.Errorf("failed to index files: %w", err)
	}

	log.Info().Dur("took", time.Since(startTime)).Msg("indexer: indexing finished")

	return nil
}

// fileNeedsIndexing compares the stored size and mtime of a file
func (fs *FileScanner) fileNeedsIndexing(path string) (bool, []byte, os.FileInfo, error) {
	info, err := os.Stat(path)
	if err != nil {
		return false, nil, nil, err
	}

	var fileChanged bool
	err = fs.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(fileStatesBucket))
		if b == nil {
			fileChanged = true
			return nil
		}

		stateBytes := b.Get([]byte(path))
		if len(stateBytes) != 16 {
			fileChanged = true
			return nil
		}

		storedSize := binary.LittleEndian.Uint64(stateBytes[:8])
		storedMtime := binary.LittleEndian.Uint64(stateBytes[8:])
		fileChanged = storedSize != uint64(info.Size()) || storedMtime != uint64(info.ModTime().UnixNano())
		return nil
	})
	if err != nil {
		fileChanged = true
	}

	if !fileChanged {
		return false, nil, info, nil
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return false, nil, info, err
	}

	return true, content, info, nil
}

// RemoveFiles removes multiple files from the indexers and the file states
func (fs *FileScanner) RemoveFiles(ctx context.Context, paths []string) error {
	if len(paths) == 0 {
		return nil
	}

	if err := fs.removeFilesFromIndexers(paths); err != nil {
		return err
	}

	err := fs.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(fileStatesBucket))
		for _, path := range paths {
			if err := b.Delete([]byte(path)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to forget file states: %w", err)
	}

	if fs.onUpdate != nil {
		fs.onUpdate()
	}

	return nil
}

func (fs *FileScanner) removeFilesFromIndexers(paths []string) error {
	for _, indexer := range fs.indexer {
		if err := indexer.RemovedFiles(paths); err != nil {
			return fmt.Errorf("%s: %w", indexer.ID(), err)
		}
	}
	return nil
}

func (fs *FileScanner) updateFileStates(files []fileState) error {
	return fs.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(fileStatesBucket))
		for _, file := range files {
			stateBytes := make([]byte, 16)
			binary.LittleEndian.PutUint64(stateBytes[:8], uint64(file.info.Size()))
			binary.LittleEndian.PutUint64(stateBytes[8:], uint64(file.info.ModTime().UnixNano()))
			if err := b.Put([]byte(file.path), stateBytes); err != nil {
				return err
			}
		}
		return nil
	})
}

type fileState struct {
	path string
	info os.FileInfo
}

type fileWork struct {
	path    string
	content []byte
	info    os.FileInfo
}

// IndexFiles parses and indexes the changed files among files in parallel
func (fs *FileScanner) IndexFiles(ctx context.Context, files []string) error {
	filtered := make([]string, 0, len(files))
	for _, path := range files {
		if scanned(path) && !fs.skipped(path) {
			filtered = append(filtered, path)
		}
	}
	files = filtered
	if len(files) == 0 {
		return nil
	}

	workerCount := min(runtime.NumCPU()+2, 16)

	fileChan := make(chan string, 100)
	errChan := make(chan error, len(files))

	var wg sync.WaitGroup

	for i := 0; i < workerCount; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			parsers := CreateTreesitterParsers()
			defer CloseTreesitterParsers(parsers)

			const batchSize = 50
			batch := make([]fileWork, 0, batchSize)

			processBatch := func(items []fileWork) {
				if len(items) == 0 {
					return
				}

				paths := make([]string, 0, len(items))
				for _, item := range items {
					paths = append(paths, item.path)
				}

				if err := fs.removeFilesFromIndexers(paths); err != nil {
					errChan <- err
					return
				}

				for _, item := range items {
					parser := parsers[strings.ToLower(filepath.Ext(item.path))]
					if parser == nil {
						continue
					}

					tree := parser.Parse(item.content, nil)
					if tree == nil {
						errChan <- fmt.Errorf("parse %s: no tree", item.path)
						continue
					}

					for _, indexer := range fs.indexer {
						if err := indexer.Index(item.path, tree.RootNode(), item.content); err != nil {
							errChan <- fmt.Errorf("%s: %w", indexer.ID(), err)
						}
					}

					tree.Close()
				}

				fileStates := make([]fileState, 0, len(items))
				for _, item := range items {
					fileStates = append(fileStates, fileState{path: item.path, info: item.info})
				}

				if err := fs.updateFileStates(fileStates); err != nil {
					errChan <- err
				}
			}

			for path := range fileChan {
				if ctx.Err() != nil {
					continue
				}

				needsIndexing, content, info, err := fs.fileNeedsIndexing(path)
				if err != nil || !needsIndexing {
					continue
				}

				batch = append(batch, fileWork{path: path, content: content, info: info})
				if len(batch) >= batchSize {
					processBatch(batch)
					batch = batch[:0]
				}
			}

			processBatch(batch)
		}()
	}

	for _, path := range files {
		fileChan <- path
	}
	close(fileChan)

	wg.Wait()
	close(errChan)

	for err := range errChan {
		log.Warn().Err(err).Msg("indexer: processing file")
	}

	if fs.onUpdate != nil {
		fs.onUpdate()
	}

	return ctx.Err()
}

// ClearHashes clears all indexers and file states, forcing a full reindex
func (fs *FileScanner) ClearHashes() error {
	for _, indexer := range fs.indexer {
		if err := indexer.Clear(); err != nil {
			return err
		}
	}

	return fs.db.Update(func(tx *bbolt.Tx) error {
		if err := tx.DeleteBucket([]byte(fileStatesBucket)); err != nil {
			return fmt.Errorf("failed to delete file states bucket: %w", err)
		}
		if _, err := tx.CreateBucket([]byte(fileStatesBucket)); err != nil {
			return fmt.Errorf("failed to create file states bucket: %w", err)
		}
		return nil
	})
}
