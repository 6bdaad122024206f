package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/function-map/function-map-lsp/internal/funcindex"
)

var (
	queryFlag string
	limitFlag int
	exactFlag bool
)

var indexCmd = &cobra.Command{
	Use:   "index [dir]",
	Short: "Scan a workspace and search its functions",
	Long: `Index walks a directory once, the same way the language server does on
startup, and reports how many functions it found.

Examples:
  # Index the current directory
  function-map index

  # Find functions whose name contains "total"
  function-map index ./src --query total

  # Find functions named exactly "total"
  function-map index ./src --query total --exact
`,
	Args: cobra.MaximumNArgs(1),
	RunE: runIndex,
}

func init() {
	rootCmd.AddCommand(indexCmd)
	indexCmd.Flags().StringVarP(&queryFlag, "query", "q", "", "list functions whose name contains the query")
	indexCmd.Flags().IntVarP(&limitFlag, "limit", "n", 50, "maximum number of results, 0 for all")
	indexCmd.Flags().BoolVar(&exactFlag, "exact", false, "match the whole name instead of a substring")
}

func runIndex(cmd *cobra.Command, args []string) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	root := ""
	if len(args) == 1 {
		root = args[0]
	}
	root, cfg, err := loadConfig(root)
	if err != nil {
		return err
	}

	dir, cleanup, err := newSessionDir(root)
	if err != nil {
		return err
	}
	defer cleanup()

	scanner, functions, err := openWorkspaceIndex(root, dir, cfg)
	if err != nil {
		return err
	}
	defer scanner.Close()

	start := time.Now()
	if err := scanner.IndexAll(ctx); err != nil {
		return fmt.Errorf("indexing failed: %w", err)
	}
	count, err := functions.Count()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Indexed %d functions in %s\n", count, time.Since(start).Round(time.Millisecond))

	if queryFlag == "" {
		return nil
	}
	var entries []funcindex.Entry
	if exactFlag {
		entries, err = functions.Lookup(queryFlag)
	} else {
		entries, err = functions.Search(queryFlag, limitFlag)
	}
	if err != nil {
		return err
	}
	return printEntries(cmd, entries)
}

func printEntries(cmd *cobra.Command, entries []funcindex.Entry) error {
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	for _, e := range entries {
		name := e.Name
		if e.Container != "" {
			name = e.Container + " > " + e.Name
		}
		fmt.Fprintf(w, "%s:%d\t%s\t%s\t%s\n", e.Path, e.Range.Start.Line+1, name, e.Kind, e.Comment)
	}
	return w.Flush()
}
