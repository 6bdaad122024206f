package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/function-map/function-map-lsp/internal/config"
	"github.com/function-map/function-map-lsp/internal/funcindex"
	"github.com/function-map/function-map-lsp/internal/indexer"
	"github.com/function-map/function-map-lsp/internal/lsp"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the language server on stdin/stdout",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	root, cfg, err := loadConfig("")
	if err != nil {
		return err
	}

	opts := lsp.Options{Config: cfg}

	if cfg.Workspace.Index {
		sessionDir, cleanup, err := newSessionDir(root)
		if err != nil {
			log.Warn().Err(err).Msg("cli: workspace index disabled")
		} else {
			defer cleanup()

			scanner, functions, err := openWorkspaceIndex(root, sessionDir, cfg)
			if err != nil {
				log.Warn().Err(err).Msg("cli: workspace index disabled")
			} else {
				opts.FileScanner = scanner
				opts.Functions = functions
				if err := scanner.StartWatcher(); err != nil {
					log.Warn().Err(err).Msg("cli: file watcher unavailable")
				}
			}
		}
	}

	server, err := lsp.NewServer(opts)
	if err != nil {
		return err
	}

	log.Info().Str("root", root).Str("version", lsp.Version).Str("source", cfg.Outline.Source).Msg("cli: starting language server")

	if err := server.Start(os.Stdin, os.Stdout); err != nil {
		return fmt.Errorf("LSP server error: %w", err)
	}
	return nil
}

// openWorkspaceIndex wires the function indexer into a file scanner whose
// databases live in dir.
func openWorkspaceIndex(root, dir string, cfg *config.Config) (*indexer.FileScanner, *funcindex.FunctionIndexer, error) {
	scanner, err := indexer.NewFileScanner(root, filepath.Join(dir, "files.db"), cfg.Workspace.Ignore...)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create file scanner: %w", err)
	}

	functions, err := funcindex.NewFunctionIndexer(dir)
	if err != nil {
		_ = scanner.Close()
		return nil, nil, fmt.Errorf("failed to create function indexer: %w", err)
	}
	scanner.AddIndexer(functions)

	return scanner, functions, nil
}
