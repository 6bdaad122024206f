package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/tree"
	"github.com/spf13/cobra"
	"github.com/tidwall/pretty"
	"github.com/tidwall/sjson"

	"github.com/function-map/function-map-lsp/internal/fileuri"
	"github.com/function-map/function-map-lsp/internal/outline"
)

var jsonFlag bool

var (
	titleStyle   = lipgloss.NewStyle().Bold(true)
	enumStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	nameStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#00AA00"))
	lineStyle    = lipgloss.NewStyle().Faint(true)
	commentStyle = lipgloss.NewStyle().Italic(true).Foreground(lipgloss.Color("8"))
	noNameStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#888888"))
)

var outlineCmd = &cobra.Command{
	Use:   "outline <file>",
	Short: "Print the function outline of a file",
	Args:  cobra.ExactArgs(1),
	RunE:  runOutline,
}

func init() {
	rootCmd.AddCommand(outlineCmd)
	outlineCmd.Flags().BoolVar(&jsonFlag, "json", false, "print the outline as JSON")
}

func runOutline(cmd *cobra.Command, args []string) error {
	path := args[0]
	dialect, ok := outline.ForPath(path)
	if !ok {
		return fmt.Errorf("no outline support for %s", filepath.Base(path))
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	roots, err := dialect.Outline(cmd.Context(), content)
	if err != nil {
		return fmt.Errorf("failed to parse %s: %w", path, err)
	}

	forest := &outline.Forest{
		URI:        fileuri.FromPath(path),
		LanguageID: dialect.ID,
		Roots:      roots,
	}

	out := cmd.OutOrStdout()
	if jsonFlag {
		data, err := outlineJSON(forest)
		if err != nil {
			return err
		}
		_, err = out.Write(data)
		return err
	}

	_, err = fmt.Fprintln(out, renderOutline(filepath.Base(path), forest.Roots))
	return err
}

func outlineJSON(forest *outline.Forest) ([]byte, error) {
	data, err := json.Marshal(forest)
	if err != nil {
		return nil, err
	}
	data, err = sjson.SetBytes(data, "functions", len(forest.Flatten()))
	if err != nil {
		return nil, err
	}
	return pretty.Pretty(data), nil
}

func renderOutline(title string, roots []*outline.FunctionNode) string {
	t := tree.Root(titleStyle.Render(title)).
		Enumerator(tree.RoundedEnumerator).
		EnumeratorStyle(enumStyle)
	for _, n := range roots {
		t.Child(outlineNode(n))
	}
	return t.String()
}

func outlineNode(n *outline.FunctionNode) any {
	name := nameStyle.Render(n.Name)
	if n.Kind == outline.KindLiteral {
		name = noNameStyle.Render(n.Name)
	}
	label := fmt.Sprintf("%s %s", name, lineStyle.Render(fmt.Sprintf("L%d-%d", n.Span.StartLine+1, n.Span.EndLine+1)))
	if n.Comment != "" {
		label += " " + commentStyle.Render(n.Comment)
	}
	if len(n.Children) == 0 {
		return label
	}

	sub := tree.Root(label).
		Enumerator(tree.RoundedEnumerator).
		EnumeratorStyle(enumStyle)
	for _, c := range n.Children {
		sub.Child(outlineNode(c))
	}
	return sub
}
