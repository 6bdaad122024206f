package main

import "github.com/function-map/function-map-lsp/internal/cli"

func main() {
	cli.Execute()
}
