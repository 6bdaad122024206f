package outline

import (
	"context"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/rs/zerolog/log"
)

// SymbolKind mirrors the LSP SymbolKind numbering.
type SymbolKind int

const (
	SymbolMethod      SymbolKind = 6
	SymbolProperty    SymbolKind = 7
	SymbolField       SymbolKind = 8
	SymbolConstructor SymbolKind = 9
	SymbolFunction    SymbolKind = 12
	SymbolVariable    SymbolKind = 13
	SymbolConstant    SymbolKind = 14
)

// Symbol is a document symbol reported by an external language server.
type Symbol struct {
	Name     string
	Kind     SymbolKind
	Range    Range
	Children []Symbol
}

var functionTextPattern = regexp.MustCompile(`\b\w+\s*=\s*(\([^)]*\)|\w+)\s*=>\s*\{?|function\s*\([^)]*\)\s*\{?`)

// IsFunctionText is the textual heuristic for symbols the provider reports
// as variables or properties: an arrow function or function expression
// assigned to a name.
func IsFunctionText(text string) bool {
	return functionTextPattern.MatchString(text)
}

// IsReactComponent reports whether a binding looks like a function component:
// a capitalised name bound to a function whose body contains JSX.
func IsReactComponent(name, text string) bool {
	r, _ := utf8.DecodeRuneInString(name)
	if !unicode.IsUpper(r) {
		return false
	}
	if !strings.Contains(text, "=>") && !strings.Contains(text, "function") {
		return false
	}
	return strings.Contains(text, "</") || strings.Contains(text, "/>")
}

func symbolCandidate(s Symbol, text string, react bool) bool {
	switch s.Kind {
	case SymbolFunction, SymbolMethod, SymbolConstructor:
		return true
	case SymbolVariable, SymbolConstant, SymbolField, SymbolProperty:
		return IsFunctionText(text) || (react && IsReactComponent(s.Name, text))
	}
	return false
}

func symbolNodeKind(k SymbolKind) Kind {
	switch k {
	case SymbolMethod:
		return KindMethod
	case SymbolConstructor:
		return KindConstructor
	}
	return KindFunction
}

// FromSymbols builds a forest from provider symbols. Hierarchy reported by
// the provider is discarded and recomputed from spans. When languageID has a
// dialect the text is parsed once to attach preceding comments.
func FromSymbols(ctx context.Context, languageID string, symbols []Symbol, content []byte) []*FunctionNode {
	li := NewLineIndex(content)
	dialect, ok := Lookup(languageID)

	comments := func(int) string { return "" }
	if ok {
		tree, err := dialect.Parse(ctx, content)
		if err != nil {
			log.Debug().Err(err).Str("language", languageID).Msg("outline: comment probe unavailable")
		} else {
			defer tree.Close()
			root := tree.RootNode()
			comments = func(offset int) string { return dialect.CommentAt(root, content, offset) }
		}
	}
	react := ok && dialect.React

	var candidates []*FunctionNode
	var visit func(list []Symbol)
	visit = func(list []Symbol) {
		for _, s := range list {
			if symbolCandidate(s, li.Text(s.Range), react) {
				span := li.SpanOf(s.Range)
				candidates = append(candidates, &FunctionNode{
					Name:    s.Name,
					Kind:    symbolNodeKind(s.Kind),
					Span:    span,
					Comment: comments(span.StartOffset),
				})
			}
			visit(s.Children)
		}
	}
	visit(symbols)

	return Build(candidates)
}
