package protocol

// InitializeParams represents the parameters for the 'initialize' request
type InitializeParams struct {
	ProcessID        *int              `json:"processId,omitempty"`
	RootPath         string            `json:"rootPath,omitempty"`
	RootURI          string            `json:"rootUri,omitempty"`
	WorkspaceFolders []WorkspaceFolder `json:"workspaceFolders,omitempty"`
	ClientInfo       *ClientInfo       `json:"clientInfo,omitempty"`
}

// WorkspaceFolder represents a workspace folder
type WorkspaceFolder struct {
	URI  string `json:"uri"`
	Name string `json:"name"`
}

type ClientInfo struct {
	Name    string `json:"name"`
	Version string `json:"version,omitempty"`
}

type ServerInfo struct {
	Name    string `json:"name"`
	Version string `json:"version,omitempty"`
}

// TextDocumentSyncKind 1 is full-text sync
const TextDocumentSyncFull = 1

type TextDocumentSyncOptions struct {
	OpenClose bool         `json:"openClose"`
	Change    int          `json:"change"`
	Save      *SaveOptions `json:"save,omitempty"`
}

type SaveOptions struct {
	IncludeText bool `json:"includeText"`
}

type ExecuteCommandOptions struct {
	Commands []string `json:"commands"`
}

type WorkspaceServerCapabilities struct {
	FileOperations *FileOperationOptions `json:"fileOperations,omitempty"`
}

type ServerCapabilities struct {
	TextDocumentSync        TextDocumentSyncOptions      `json:"textDocumentSync"`
	DocumentSymbolProvider  bool                         `json:"documentSymbolProvider"`
	FoldingRangeProvider    bool                         `json:"foldingRangeProvider"`
	WorkspaceSymbolProvider bool                         `json:"workspaceSymbolProvider"`
	ExecuteCommandProvider  *ExecuteCommandOptions       `json:"executeCommandProvider,omitempty"`
	Workspace               *WorkspaceServerCapabilities `json:"workspace,omitempty"`
}

type InitializeResult struct {
	Capabilities ServerCapabilities `json:"capabilities"`
	ServerInfo   *ServerInfo        `json:"serverInfo,omitempty"`
}
