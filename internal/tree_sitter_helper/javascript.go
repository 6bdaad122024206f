package treesitterhelper

import tree_sitter "github.com/tree-sitter/go-tree-sitter"

// Node kinds shared by the JavaScript and TypeScript grammars
var (
	JSFunctionDeclarationKinds = []string{"function_declaration", "generator_function_declaration", "method_definition"}
	JSFunctionLiteralKinds     = []string{"arrow_function", "function_expression", "generator_function"}
	JSArgumentKinds            = []string{"arguments", "jsx_expression"}
	JSWrapperKinds             = []string{"parenthesized_expression", "as_expression", "satisfies_expression", "non_null_expression", "type_assertion"}
	JSCommentKinds             = []string{"comment"}
)

// CallbackPattern matches a literal whose first non-wrapper parent is one of
// argumentKinds, e.g. the arrow in items.map(x => x * 2).
func CallbackPattern(literal Pattern, wrappers []string, argumentKinds ...string) Pattern {
	args := AnyNodeKind(argumentKinds...)
	return And(
		literal,
		FuncPattern(func(node *tree_sitter.Node, content []byte) bool {
			parent := SkipWrappers(node, wrappers)
			return parent != nil && args.Matches(parent, content)
		}),
	)
}
