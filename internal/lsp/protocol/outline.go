package protocol

// DocumentSymbol is one entry of a hierarchical textDocument/documentSymbol reply
type DocumentSymbol struct {
	Name           string           `json:"name"`
	Detail         string           `json:"detail,omitempty"`
	Kind           int              `json:"kind"`
	Range          Range            `json:"range"`
	SelectionRange Range            `json:"selectionRange"`
	Children       []DocumentSymbol `json:"children,omitempty"`
}

type DocumentSymbolParams struct {
	TextDocument TextDocumentIdentifier `json:"textDocument"`
}

const FoldingRangeKindRegion = "region"

// FoldingRange is one textDocument/foldingRange entry, lines are zero-based
type FoldingRange struct {
	StartLine      int    `json:"startLine"`
	StartCharacter *int   `json:"startCharacter,omitempty"`
	EndLine        int    `json:"endLine"`
	EndCharacter   *int   `json:"endCharacter,omitempty"`
	Kind           string `json:"kind,omitempty"`
}

type FoldingRangeParams struct {
	TextDocument TextDocumentIdentifier `json:"textDocument"`
}

type WorkspaceSymbolParams struct {
	Query string `json:"query"`
}

// SymbolInformation is one workspace/symbol result
type SymbolInformation struct {
	Name          string   `json:"name"`
	Kind          int      `json:"kind"`
	Location      Location `json:"location"`
	ContainerName string   `json:"containerName,omitempty"`
}

// OutlineParams are the parameters of functionMap/outline. An empty
// document means the active editor.
type OutlineParams struct {
	TextDocument *TextDocumentIdentifier `json:"textDocument,omitempty"`
}

// ChildrenParams are the parameters of functionMap/children
type ChildrenParams struct {
	TextDocument *TextDocumentIdentifier `json:"textDocument,omitempty"`
	ID           string                  `json:"id"`
}

// VisibleRangesParams is sent by the client whenever the visible ranges of
// an editor change, and returned by the functionMap/visibleRanges request
type VisibleRangesParams struct {
	TextDocument TextDocumentIdentifier `json:"textDocument"`
	Ranges       []Range                `json:"ranges"`
}

// ActiveEditorParams is sent when the active editor changes. A nil document
// means no editor is active.
type ActiveEditorParams struct {
	TextDocument  *TextDocumentIdentifier `json:"textDocument,omitempty"`
	VisibleRanges []Range                 `json:"visibleRanges,omitempty"`
}

// OutlineChangedParams tells the client to refresh its tree view
type OutlineChangedParams struct {
	URI     string `json:"uri"`
	Version int32  `json:"version"`
}

// FoldRangeParams asks the client to fold or unfold lines, both inclusive
type FoldRangeParams struct {
	TextDocument TextDocumentIdentifier `json:"textDocument"`
	StartLine    int                    `json:"startLine"`
	EndLine      int                    `json:"endLine"`
}

// SetContextParams sets an editor context key, e.g. to switch a button icon
type SetContextParams struct {
	Key   string `json:"key"`
	Value any    `json:"value"`
}

type ShowDocumentParams struct {
	URI       string `json:"uri"`
	External  bool   `json:"external,omitempty"`
	TakeFocus bool   `json:"takeFocus,omitempty"`
	Selection *Range `json:"selection,omitempty"`
}

type ShowDocumentResult struct {
	Success bool `json:"success"`
}
