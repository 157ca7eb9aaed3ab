package roomsys

import (
	"context"
	"fmt"
	"strings"

	"pinroom/internal/domain"
	models "pinroom/internal/domain/models/roomsys"
)

// CreateFolder creates a folder at parentID (nil = root) in the loaded room
func (v *roomView) CreateFolder(ctx context.Context, name string, parentID *string) (*models.Folder, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if err := v.requireWritable(); err != nil {
		return nil, err
	}

	name = strings.TrimSpace(name)
	if err := validateFolderName(name, v.deps.Limits.Names.MaxFolderNameLength); err != nil {
		return nil, err
	}

	parentID = normalizeID(parentID)
	if err := v.checkTarget(parentID); err != nil {
		return nil, err
	}

	folder := &models.Folder{
		RoomID:         v.room.ID,
		Name:           name,
		ParentFolderID: parentID,
		CreatedBy:      v.session.UserID,
		CreatedAt:      v.deps.Now(),
	}
	if err := v.deps.Folders.Create(ctx, folder); err != nil {
		return nil, domain.NewRemoteError("create folder", name, err)
	}

	v.folderRows = append(v.folderRows, *folder)
	v.rebuild()

	v.deps.Logger.Info("folder created",
		"id", folder.ID,
		"name", folder.Name,
		"room_key", v.room.Key,
		"parent_folder_id", folder.ParentFolderID,
	)

	out := *folder
	return &out, nil
}

// DeleteFolder deletes a folder and promotes its contents one level up: child folders
// and files move to the deleted folder's parent (or the root).
func (v *roomView) DeleteFolder(ctx context.Context, folderID string) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if err := v.requireWritable(); err != nil {
		return err
	}
	return v.deleteFolder(ctx, folderID)
}

func (v *roomView) deleteFolder(ctx context.Context, folderID string) error {
	folder := v.folderByID(folderID)
	if folder == nil {
		return &domain.NotFoundError{Message: fmt.Sprintf("folder %s not found in room %s", folderID, v.room.Key)}
	}
	name := folder.Name
	roomID, roomKey := v.room.ID, v.room.Key
	newParent := copyID(folder.ParentFolderID)

	// Step 1: reparent contents atomically. On failure nothing changed.
	var movedFiles, movedFolders int64
	err := v.deps.TxManager.ExecTx(ctx, func(txCtx context.Context) error {
		var err error
		if movedFiles, err = v.deps.Files.ReparentFolder(txCtx, roomID, folderID, newParent); err != nil {
			return fmt.Errorf("move files out of folder: %w", err)
		}
		if movedFolders, err = v.deps.Folders.ReparentChildren(txCtx, roomID, folderID, newParent); err != nil {
			return fmt.Errorf("move subfolders out of folder: %w", err)
		}
		return nil
	})
	if err != nil {
		return domain.NewRemoteError("delete folder", name, err)
	}

	// Step 2: delete the now-empty folder. The contents have already moved, so on
	// failure the snapshot is re-fetched to match the store.
	if err := v.deps.Folders.Delete(ctx, roomID, folderID); err != nil {
		v.deps.Logger.Warn("folder delete failed after reparenting, reloading room",
			"folder_id", folderID,
			"room_key", roomKey,
			"error", err,
		)
		if reloadErr := v.load(ctx, roomKey); reloadErr != nil {
			v.deps.Logger.Error("reload after failed folder delete", "room_key", roomKey, "error", reloadErr)
		}
		return domain.NewRemoteError("delete folder", name, err)
	}

	for i := range v.fileRows {
		if v.fileRows[i].FolderID != nil && *v.fileRows[i].FolderID == folderID {
			v.fileRows[i].FolderID = copyID(newParent)
		}
	}
	kept := v.folderRows[:0]
	for _, f := range v.folderRows {
		if f.ID == folderID {
			continue
		}
		if f.ParentFolderID != nil && *f.ParentFolderID == folderID {
			f.ParentFolderID = copyID(newParent)
		}
		kept = append(kept, f)
	}
	v.folderRows = kept
	delete(v.selectedFolders, folderID)
	v.rebuild()

	v.deps.Logger.Info("folder deleted",
		"id", folderID,
		"name", name,
		"room_key", roomKey,
		"files_promoted", movedFiles,
		"folders_promoted", movedFolders,
	)

	return nil
}

// MoveFolder moves a folder under targetID (nil = root). A folder cannot move into
// itself or any of its descendants.
func (v *roomView) MoveFolder(ctx context.Context, folderID string, targetID *string) (*models.Folder, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if err := v.requireWritable(); err != nil {
		return nil, err
	}

	targetID = normalizeID(targetID)
	if err := v.checkFolderMove(folderID, targetID); err != nil {
		return nil, err
	}
	if err := v.moveFolder(ctx, folderID, targetID); err != nil {
		return nil, err
	}

	out := *v.folderByID(folderID)
	return &out, nil
}

func (v *roomView) checkFolderMove(folderID string, targetID *string) error {
	if v.folderByID(folderID) == nil {
		return &domain.NotFoundError{Message: fmt.Sprintf("folder %s not found in room %s", folderID, v.room.Key)}
	}
	if targetID == nil {
		return nil
	}
	if *targetID == folderID {
		return fmt.Errorf("%w: cannot move folder to be its own parent", domain.ErrValidation)
	}
	if err := v.checkTarget(targetID); err != nil {
		return err
	}
	if v.isDescendant(*targetID, folderID) {
		return fmt.Errorf("%w: cannot move folder to be a child of its own descendant", domain.ErrValidation)
	}
	return nil
}

func (v *roomView) moveFolder(ctx context.Context, folderID string, targetID *string) error {
	folder := v.folderByID(folderID)
	if err := v.deps.Folders.UpdateParent(ctx, v.room.ID, folderID, targetID); err != nil {
		return domain.NewRemoteError("move folder", folder.Name, err)
	}

	folder.ParentFolderID = copyID(targetID)
	v.rebuild()

	v.deps.Logger.Info("folder moved",
		"id", folderID,
		"room_key", v.room.Key,
		"parent_folder_id", targetID,
	)
	return nil
}

// isDescendant reports whether candidate sits somewhere below ancestor in the
// snapshot. The walk stops on repeated nodes.
func (v *roomView) isDescendant(candidate, ancestor string) bool {
	seen := make(map[string]bool)
	current := candidate
	for !seen[current] {
		seen[current] = true
		folder := v.folderByID(current)
		if folder == nil || folder.ParentFolderID == nil {
			return false
		}
		if *folder.ParentFolderID == ancestor {
			return true
		}
		current = *folder.ParentFolderID
	}
	return false
}
