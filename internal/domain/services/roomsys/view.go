package roomsys

import (
	"context"
	"io"

	"pinroom/internal/domain/models/roomsys"
)

// ViewState is the load state of a room view
type ViewState string

const (
	StateUnloaded  ViewState = "unloaded"
	StateLoading   ViewState = "loading"
	StateLoaded    ViewState = "loaded"
	StateNotFound  ViewState = "not_found"
	StateLoadError ViewState = "load_error"
)

// ViewSession identifies who is looking at a room. SessionID scopes the PIN cache
// (one browser tab); UserID is empty for anonymous visitors.
type ViewSession struct {
	UserID    string
	SessionID string
}

// RoomView holds the loaded snapshot of one room for the life of a room view and
// mediates every mutation against the gateway.
type RoomView interface {
	Load(ctx context.Context, key string) error
	VerifyPin(ctx context.Context, key, pin string) (bool, error)

	CreateFolder(ctx context.Context, name string, parentID *string) (*roomsys.Folder, error)
	DeleteFolder(ctx context.Context, folderID string) error
	MoveFolder(ctx context.Context, folderID string, targetID *string) (*roomsys.Folder, error)

	UploadFiles(ctx context.Context, uploads []Upload, folderID *string) (*UploadResult, error)
	DeleteFile(ctx context.Context, fileID string) (*DeleteFileResult, error)
	MoveFile(ctx context.Context, fileID string, targetID *string) error
	MoveFiles(ctx context.Context, fileIDs []string, targetID *string) error

	ToggleFileSelection(fileID string) bool
	ToggleFolderSelection(folderID string) bool
	ClearSelection()
	SelectedFiles() []string
	SelectedFolders() []string
	DeleteSelected(ctx context.Context) (*BulkResult, error)
	MoveSelected(ctx context.Context, targetID *string) error

	State() ViewState
	Locked() bool
	IsOwner() bool
	Room() *roomsys.Room
	Tree() *roomsys.Tree
	Close()
}

// ViewOpener creates room views; OpenView also loads the room.
type ViewOpener interface {
	NewView(session ViewSession) RoomView
	OpenView(ctx context.Context, session ViewSession, key string) (RoomView, error)
}

// Upload is one file handed to UploadFiles
type Upload struct {
	Name        string
	ContentType string
	Size        int64
	Body        io.Reader
}

// UploadItem is the outcome for one Upload, in input order
type UploadItem struct {
	Name   string            `json:"name"`
	File   *roomsys.FileItem `json:"file,omitempty"`
	Reason string            `json:"reason,omitempty"` // set when the file was not stored
}

// UploadResult itemizes an UploadFiles call
type UploadResult struct {
	Items    []UploadItem `json:"items"`
	Uploaded int          `json:"uploaded"`
	Rejected int          `json:"rejected"`
}

// DeleteFileResult reports a file deletion. StorageWarning is set when the metadata
// row was deleted but the blob could not be removed.
type DeleteFileResult struct {
	FileID         string `json:"file_id"`
	StorageWarning string `json:"storage_warning,omitempty"`
}

// BulkItem is the outcome for one selected item of a bulk action
type BulkItem struct {
	ID      string `json:"id"`
	Kind    string `json:"kind"` // "file" or "folder"
	Error   string `json:"error,omitempty"`
	Warning string `json:"warning,omitempty"`
}

// BulkResult itemizes a bulk action over the selection
type BulkResult struct {
	Items     []BulkItem `json:"items"`
	Succeeded int        `json:"succeeded"`
	Failed    int        `json:"failed"`
}
