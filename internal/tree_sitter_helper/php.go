package treesitterhelper

// Node kinds of the PHP grammar that carry function-shaped constructs
var (
	PHPFunctionDeclarationKinds = []string{"function_definition", "method_declaration"}
	PHPFunctionLiteralKinds     = []string{"anonymous_function", "anonymous_function_creation_expression", "arrow_function"}
	PHPArgumentKinds            = []string{"argument", "arguments"}
	PHPWrapperKinds             = []string{"parenthesized_expression"}
	PHPCommentKinds             = []string{"comment"}
)
