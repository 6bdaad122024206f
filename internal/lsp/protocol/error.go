package protocol

// CommandError is returned as the result of a command that could not run.
// It is not a JSON-RPC error; the request itself succeeded.
type CommandError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func NewLspError(message string, code string) *CommandError {
	return &CommandError{
		Code:    code,
		Message: message,
	}
}

const (
	ErrorCodeEditorUnavailable = "editor.unavailable"
	ErrorCodeEditorFailed      = "editor.failed"
	ErrorCodeNodeNotFound      = "node.not_found"
	ErrorCodeInvalidArguments  = "command.invalid_arguments"
)
