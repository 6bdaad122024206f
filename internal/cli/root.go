package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/function-map/function-map-lsp/internal/config"
)

var (
	cfgFile  string
	logLevel string
	rootDir  string
)

// rootCmd serves the language server when called without a subcommand
var rootCmd = &cobra.Command{
	Use:   "function-map",
	Short: "Function outline language server",
	Long: `function-map keeps a live outline of the functions in the file being edited
and tracks which of them are folded in the editor.

Without a subcommand it runs the language server on stdin/stdout.`,
	Args:          cobra.NoArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runServe,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is <root>/.function-map/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level, overrides log.level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&rootDir, "root", "", "project root (default is the working directory)")
}

// loadConfig resolves the project root, loads its configuration and sets up
// logging. A non-empty root overrides the --root flag.
func loadConfig(root string) (string, *config.Config, error) {
	if root == "" {
		root = rootDir
	}
	if root == "" {
		wd, err := os.Getwd()
		if err != nil {
			return "", nil, fmt.Errorf("failed to get working directory: %w", err)
		}
		root = wd
	}
	root, err := filepath.Abs(root)
	if err != nil {
		return "", nil, err
	}

	loader := config.NewLoader(root)
	if cfgFile != "" {
		loader = config.NewFileLoader(cfgFile)
	}
	cfg, err := loader.Load()
	if err != nil {
		return "", nil, err
	}

	if logLevel != "" {
		cfg.Log.Level = logLevel
		if err := config.Validate(cfg); err != nil {
			return "", nil, fmt.Errorf("invalid --log-level: %w", err)
		}
	}
	if err := setupLogging(cfg.Log.Level); err != nil {
		return "", nil, err
	}

	return root, cfg, nil
}
