package roomsys

import (
	"context"

	"pinroom/internal/domain/models/roomsys"
)

// FolderRepository defines data access operations for folders
type FolderRepository interface {
	// Create inserts a folder and fills in the generated ID and created_at
	Create(ctx context.Context, folder *roomsys.Folder) error

	// ListByRoom returns every folder in a room, created_at ascending
	ListByRoom(ctx context.Context, roomID string) ([]roomsys.Folder, error)

	// UpdateParent moves a folder under parentID (nil = root)
	UpdateParent(ctx context.Context, roomID, folderID string, parentID *string) error

	// ReparentChildren points every direct child folder of folderID at newParentID
	ReparentChildren(ctx context.Context, roomID, folderID string, newParentID *string) (int64, error)

	// Delete deletes one folder
	Delete(ctx context.Context, roomID, folderID string) error
}
