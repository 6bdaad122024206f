package lsp

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/function-map/function-map-lsp/internal/fileuri"
	"github.com/function-map/function-map-lsp/internal/lsp/protocol"
)

// indexAll builds or updates the workspace function index
// If forceReindex is true, every file is indexed again
func (s *Server) indexAll(ctx context.Context, forceReindex bool) error {
	startTime := time.Now()

	s.notify(ctx, methodIndexingStarted, map[string]interface{}{
		"message": "Indexing started",
	})

	if forceReindex {
		if err := s.FileScanner.ClearHashes(); err != nil {
			return err
		}
	}

	if err := s.FileScanner.IndexAll(ctx); err != nil {
		return err
	}

	elapsedTime := time.Since(startTime)
	log.Info().Dur("elapsed", elapsedTime).Msg("lsp: indexing completed")

	s.notify(ctx, methodIndexingCompleted, map[string]interface{}{
		"message":       "Indexing completed",
		"timeInSeconds": elapsedTime.Seconds(),
	})

	return nil
}

func toPaths(uris []string) []string {
	paths := make([]string, len(uris))
	for i, uri := range uris {
		paths[i] = fileuri.ToPath(uri)
	}
	return paths
}

func (s *Server) indexFiles(ctx context.Context, uris []string) {
	if s.FileScanner == nil || len(uris) == 0 {
		return
	}
	if err := s.FileScanner.IndexFiles(ctx, toPaths(uris)); err != nil {
		log.Error().Err(err).Int("files", len(uris)).Msg("lsp: error indexing files")
	}
}

func (s *Server) removeFiles(ctx context.Context, uris []string) {
	if s.FileScanner == nil || len(uris) == 0 {
		return
	}
	if err := s.FileScanner.RemoveFiles(ctx, toPaths(uris)); err != nil {
		log.Error().Err(err).Int("files", len(uris)).Msg("lsp: error removing files")
	}
}

func (s *Server) watchedFilesChanged(ctx context.Context, params *protocol.DidChangeWatchedFilesParams) {
	var changed, deleted []string
	for _, change := range params.Changes {
		switch change.Type {
		case protocol.FileCreated, protocol.FileChanged:
			changed = append(changed, change.URI)
		case protocol.FileDeleted:
			deleted = append(deleted, change.URI)
		}
	}

	s.indexFiles(ctx, changed)
	s.removeFiles(ctx, deleted)
}
