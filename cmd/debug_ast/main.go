package main

import (
	"context"
	"fmt"
	"os"

	"github.com/function-map/function-map-lsp/internal/outline"
	treesitterhelper "github.com/function-map/function-map-lsp/internal/tree_sitter_helper"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Println("Usage: go run cmd/debug_ast/main.go <source_file_path> [node_kind]")
		os.Exit(1)
	}

	filePath := os.Args[1]
	dialect, ok := outline.ForPath(filePath)
	if !ok {
		fmt.Printf("No dialect for %s\n", filePath)
		os.Exit(1)
	}

	content, err := os.ReadFile(filePath)
	if err != nil {
		fmt.Printf("Error reading file: %v\n", err)
		os.Exit(1)
	}

	tree, err := dialect.Parse(context.Background(), content)
	if err != nil {
		fmt.Printf("Error parsing file: %v\n", err)
		os.Exit(1)
	}
	defer tree.Close()

	fmt.Printf("Analyzing AST for file: %s (%s)\n\n", filePath, dialect.ID)
	if len(os.Args) > 2 {
		// only the subtrees of one node kind
		for _, node := range treesitterhelper.FindAll(tree.RootNode(), treesitterhelper.NodeKind(os.Args[2]), content) {
			fmt.Printf("candidate=%t\n", dialect.IsCandidate(node, content))
			treesitterhelper.PrintAllNodes(os.Stdout, node, content, "  ")
		}
	} else {
		treesitterhelper.PrintAllNodes(os.Stdout, tree.RootNode(), content, "")
	}

	fmt.Println("\nCandidates:")
	for _, fn := range dialect.Extract(tree.RootNode(), content) {
		fmt.Printf("  %-30s %-12s [%d:%d-%d:%d] %q\n",
			fn.Name, fn.Kind,
			fn.Span.StartLine, fn.Span.StartColumn, fn.Span.EndLine, fn.Span.EndColumn,
			fn.Comment)
	}
}
