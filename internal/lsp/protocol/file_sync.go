package protocol

// FileOperationRegistrationOptions lists the files a workspace file operation
// notification is sent for
type FileOperationRegistrationOptions struct {
	Filters []FileOperationFilter `json:"filters"`
}

type FileOperationFilter struct {
	Scheme  string               `json:"scheme,omitempty"`
	Pattern FileOperationPattern `json:"pattern"`
}

type FileOperationPattern struct {
	Glob string `json:"glob"`
}

// FileOperationOptions is the workspace.fileOperations server capability
type FileOperationOptions struct {
	DidCreate *FileOperationRegistrationOptions `json:"didCreate,omitempty"`
	DidRename *FileOperationRegistrationOptions `json:"didRename,omitempty"`
	DidDelete *FileOperationRegistrationOptions `json:"didDelete,omitempty"`
}

// NewFileOperationOptions registers create/rename/delete for the given globs
func NewFileOperationOptions(globs []string) *FileOperationOptions {
	filters := make([]FileOperationFilter, 0, len(globs))
	for _, g := range globs {
		filters = append(filters, FileOperationFilter{Scheme: "file", Pattern: FileOperationPattern{Glob: g}})
	}
	opts := &FileOperationRegistrationOptions{Filters: filters}
	return &FileOperationOptions{DidCreate: opts, DidRename: opts, DidDelete: opts}
}

// FileEvent is one entry of workspace/didChangeWatchedFiles
type FileEvent struct {
	URI  string         `json:"uri"`
	Type FileChangeType `json:"type"`
}

type FileChangeType int

const (
	FileCreated FileChangeType = 1
	FileChanged FileChangeType = 2
	FileDeleted FileChangeType = 3
)

type DidChangeWatchedFilesParams struct {
	Changes []FileEvent `json:"changes"`
}

// CreateFilesParams are the parameters of workspace/didCreateFiles
type CreateFilesParams struct {
	Files []FileCreate `json:"files"`
}

type FileCreate struct {
	URI string `json:"uri"`
}

// RenameFilesParams are the parameters of workspace/didRenameFiles
type RenameFilesParams struct {
	Files []FileRename `json:"files"`
}

type FileRename struct {
	OldURI string `json:"oldUri"`
	NewURI string `json:"newUri"`
}

// DeleteFilesParams are the parameters of workspace/didDeleteFiles
type DeleteFilesParams struct {
	Files []FileDelete `json:"files"`
}

type FileDelete struct {
	URI string `json:"uri"`
}
