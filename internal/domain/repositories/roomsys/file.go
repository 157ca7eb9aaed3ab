package roomsys

import (
	"context"

	"pinroom/internal/domain/models/roomsys"
)

// FileRepository defines data access operations for file metadata rows
type FileRepository interface {
	// Create inserts a file row and fills in the generated ID and uploaded_at
	Create(ctx context.Context, file *roomsys.FileItem) error

	// ListByRoom returns every file in a room, uploaded_at ascending
	ListByRoom(ctx context.Context, roomID string) ([]roomsys.FileItem, error)

	// UpdateFolder moves files (all or none) into folderID (nil = root)
	UpdateFolder(ctx context.Context, roomID string, fileIDs []string, folderID *string) error

	// ReparentFolder points every file in folderID at newFolderID
	ReparentFolder(ctx context.Context, roomID, folderID string, newFolderID *string) (int64, error)

	// Delete deletes one file row
	Delete(ctx context.Context, roomID, fileID string) error
}
