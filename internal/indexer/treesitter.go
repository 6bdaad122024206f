package indexer

import (
	"github.com/rs/zerolog/log"
	tree_sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/function-map/function-map-lsp/internal/outline"
)

var scannedFileTypes = outline.Extensions()

// CreateTreesitterParsers returns one parser per scanned file extension.
// Parsers are not safe for concurrent use, every worker creates its own set.
func CreateTreesitterParsers() map[string]*tree_sitter.Parser {
	parsers := make(map[string]*tree_sitter.Parser)

	for _, dialect := range outline.Dialects() {
		for _, ext := range dialect.Extensions {
			parser, err := dialect.NewParser()
			if err != nil {
				log.Warn().Err(err).Str("ext", ext).Msg("indexer: no parser for extension")
				continue
			}
			parsers[ext] = parser
		}
	}

	return parsers
}

func CloseTreesitterParsers(parsers map[string]*tree_sitter.Parser) {
	for _, parser := range parsers {
		parser.Close()
	}
}
