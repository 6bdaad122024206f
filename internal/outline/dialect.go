package outline

import (
	"fmt"
	"path/filepath"
	"slices"
	"strings"
	"unsafe"

	treesitterhelper "github.com/function-map/function-map-lsp/internal/tree_sitter_helper"
	tree_sitter "github.com/tree-sitter/go-tree-sitter"
	tree_sitter_javascript "github.com/tree-sitter/tree-sitter-javascript/bindings/go"
	tree_sitter_php "github.com/tree-sitter/tree-sitter-php/bindings/go"
	tree_sitter_typescript "github.com/tree-sitter/tree-sitter-typescript/bindings/go"
)

// Binding describes a node kind that gives a function literal its name.
type Binding struct {
	// NameField holds the name; the first named child is used when empty
	// or absent.
	NameField string
	// ValueField holds the bound value. Literals found elsewhere (for
	// example inside a default parameter) are not bound by this node.
	ValueField string
}

// Dialect is the data that drives classification for one editor language id.
type Dialect struct {
	ID         string
	Extensions []string
	// React enables function-component recognition on the symbol path.
	React    bool
	language func() unsafe.Pointer

	DeclarationKinds []string
	LiteralKinds     []string
	ArgumentKinds    []string
	WrapperKinds     []string
	CommentKinds     []string
	// ExportKinds wrap a declaration without owning its comment.
	ExportKinds []string
	// EnclosingKinds are statements whose span replaces a sole binding's span.
	EnclosingKinds []string
	Bindings       map[string]Binding
	MethodKinds    []string
	Constructors   []string

	declaration treesitterhelper.Pattern
	literal     treesitterhelper.Pattern
	callback    treesitterhelper.Pattern
	candidate   treesitterhelper.Pattern
}

func (d *Dialect) compile() *Dialect {
	d.declaration = treesitterhelper.AnyNodeKind(d.DeclarationKinds...)
	d.literal = treesitterhelper.AnyNodeKind(d.LiteralKinds...)
	d.callback = treesitterhelper.CallbackPattern(d.literal, d.WrapperKinds, d.ArgumentKinds...)
	d.candidate = treesitterhelper.Or(
		d.declaration,
		treesitterhelper.And(d.literal, treesitterhelper.Not(d.callback)),
	)
	return d
}

// Language returns the tree-sitter grammar for the dialect.
func (d *Dialect) Language() *tree_sitter.Language {
	return tree_sitter.NewLanguage(d.language())
}

// NewParser returns a parser configured for the dialect. The caller owns it.
func (d *Dialect) NewParser() (*tree_sitter.Parser, error) {
	parser := tree_sitter.NewParser()
	if err := parser.SetLanguage(d.Language()); err != nil {
		parser.Close()
		return nil, fmt.Errorf("set %s language: %w", d.ID, err)
	}
	return parser, nil
}

func jsDialect(id string, exts []string, react bool, lang func() unsafe.Pointer) *Dialect {
	return (&Dialect{
		ID:               id,
		Extensions:       exts,
		React:            react,
		language:         lang,
		DeclarationKinds: treesitterhelper.JSFunctionDeclarationKinds,
		LiteralKinds:     treesitterhelper.JSFunctionLiteralKinds,
		ArgumentKinds:    treesitterhelper.JSArgumentKinds,
		WrapperKinds:     treesitterhelper.JSWrapperKinds,
		CommentKinds:     treesitterhelper.JSCommentKinds,
		ExportKinds:      []string{"export_statement"},
		EnclosingKinds:   []string{"lexical_declaration", "variable_declaration"},
		Bindings: map[string]Binding{
			"variable_declarator":     {NameField: "name", ValueField: "value"},
			"field_definition":        {NameField: "property", ValueField: "value"},
			"public_field_definition": {NameField: "name", ValueField: "value"},
			"pair":                    {NameField: "key", ValueField: "value"},
			"assignment_expression":   {NameField: "left", ValueField: "right"},
		},
		MethodKinds:  []string{"method_definition"},
		Constructors: []string{"constructor"},
	}).compile()
}

var dialects = []*Dialect{
	jsDialect("javascript", []string{".js", ".mjs", ".cjs"}, false, tree_sitter_javascript.Language),
	jsDialect("javascriptreact", []string{".jsx"}, true, tree_sitter_javascript.Language),
	jsDialect("typescript", []string{".ts", ".mts", ".cts"}, false, tree_sitter_typescript.LanguageTypescript),
	jsDialect("typescriptreact", []string{".tsx"}, true, tree_sitter_typescript.LanguageTSX),
	(&Dialect{
		ID:               "php",
		Extensions:       []string{".php"},
		language:         tree_sitter_php.LanguagePHP,
		DeclarationKinds: treesitterhelper.PHPFunctionDeclarationKinds,
		LiteralKinds:     treesitterhelper.PHPFunctionLiteralKinds,
		ArgumentKinds:    treesitterhelper.PHPArgumentKinds,
		WrapperKinds:     treesitterhelper.PHPWrapperKinds,
		CommentKinds:     treesitterhelper.PHPCommentKinds,
		EnclosingKinds:   []string{"expression_statement"},
		Bindings: map[string]Binding{
			"assignment_expression": {NameField: "left", ValueField: "right"},
		},
		MethodKinds:  []string{"method_declaration"},
		Constructors: []string{"__construct"},
	}).compile(),
}

// Lookup returns the dialect for an editor language id.
func Lookup(languageID string) (*Dialect, bool) {
	for _, d := range dialects {
		if d.ID == languageID {
			return d, true
		}
	}
	return nil, false
}

// ForPath returns the dialect for a file path or URI by extension.
func ForPath(path string) (*Dialect, bool) {
	ext := strings.ToLower(filepath.Ext(path))
	for _, d := range dialects {
		if slices.Contains(d.Extensions, ext) {
			return d, true
		}
	}
	return nil, false
}

// Dialects returns every supported dialect.
func Dialects() []*Dialect {
	return slices.Clone(dialects)
}

// Extensions returns all file extensions with a dialect.
func Extensions() []string {
	var exts []string
	for _, d := range dialects {
		exts = append(exts, d.Extensions...)
	}
	return exts
}
