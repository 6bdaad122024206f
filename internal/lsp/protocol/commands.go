package protocol

import "encoding/json"

// ExecuteCommandParams represents a workspace/executeCommand request
type ExecuteCommandParams struct {
	Command   string            `json:"command"`
	Arguments []json.RawMessage `json:"arguments,omitempty"`
}

const (
	CommandToggleFold    = "functionMap.toggleFold"
	CommandToggleAllFold = "functionMap.toggleAllFold"
	CommandJump          = "functionMap.jump"
	CommandRefresh       = "functionMap.refresh"
	CommandReindex       = "functionMap.reindex"
)

// Commands lists every command the server executes
var Commands = []string{
	CommandToggleFold,
	CommandToggleAllFold,
	CommandJump,
	CommandRefresh,
	CommandReindex,
}

// ContextAllFolded is the editor context key behind the toggle-all button
const ContextAllFolded = "functionMapView.isAllFolded"
