package symbolsource

import (
	"bytes"
	"encoding/json"
	"fmt"

	"go.lsp.dev/protocol"

	"github.com/function-map/function-map-lsp/internal/outline"
)

// decodeSymbols accepts both documentSymbol reply shapes. Flat
// SymbolInformation entries carry a location, hierarchical DocumentSymbol
// entries a range.
func decodeSymbols(raw json.RawMessage) ([]outline.Symbol, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, nil
	}

	var probe []map[string]json.RawMessage
	if err := json.Unmarshal(raw, &probe); err != nil {
		return nil, fmt.Errorf("decode document symbols: %w", err)
	}
	if len(probe) == 0 {
		return nil, nil
	}

	if _, flat := probe[0]["location"]; flat {
		var infos []protocol.SymbolInformation
		if err := json.Unmarshal(raw, &infos); err != nil {
			return nil, fmt.Errorf("decode symbol information: %w", err)
		}
		out := make([]outline.Symbol, 0, len(infos))
		for _, s := range infos {
			out = append(out, outline.Symbol{
				Name:  s.Name,
				Kind:  outline.SymbolKind(s.Kind),
				Range: toRange(s.Location.Range),
			})
		}
		return out, nil
	}

	var docs []protocol.DocumentSymbol
	if err := json.Unmarshal(raw, &docs); err != nil {
		return nil, fmt.Errorf("decode document symbols: %w", err)
	}
	return convertDocumentSymbols(docs), nil
}

func convertDocumentSymbols(docs []protocol.DocumentSymbol) []outline.Symbol {
	if len(docs) == 0 {
		return nil
	}
	out := make([]outline.Symbol, 0, len(docs))
	for _, d := range docs {
		out = append(out, outline.Symbol{
			Name:     d.Name,
			Kind:     outline.SymbolKind(d.Kind),
			Range:    toRange(d.Range),
			Children: convertDocumentSymbols(d.Children),
		})
	}
	return out
}

func toRange(r protocol.Range) outline.Range {
	return outline.Range{
		Start: outline.Position{Line: int(r.Start.Line), Character: int(r.Start.Character)},
		End:   outline.Position{Line: int(r.End.Line), Character: int(r.End.Character)},
	}
}
