package roomsys

import (
	"context"
	"fmt"

	"pinroom/internal/domain"
	roomsysSvc "pinroom/internal/domain/services/roomsys"
)

// ToggleFileSelection flips a file in or out of the selection and returns whether it
// is now selected. Ids outside the loaded room are ignored.
func (v *roomView) ToggleFileSelection(fileID string) bool {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.fileByID(fileID) == nil {
		return false
	}
	return toggle(v.selectedFiles, fileID)
}

// ToggleFolderSelection flips a folder in or out of the selection
func (v *roomView) ToggleFolderSelection(folderID string) bool {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.folderByID(folderID) == nil {
		return false
	}
	return toggle(v.selectedFolders, folderID)
}

func toggle(set map[string]struct{}, id string) bool {
	if _, ok := set[id]; ok {
		delete(set, id)
		return false
	}
	set[id] = struct{}{}
	return true
}

func (v *roomView) ClearSelection() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.clearSelection()
}

func (v *roomView) clearSelection() {
	clear(v.selectedFiles)
	clear(v.selectedFolders)
}

// SelectedFiles returns the selected file ids in snapshot order
func (v *roomView) SelectedFiles() []string {
	v.mu.Lock()
	defer v.mu.Unlock()

	ids := make([]string, 0, len(v.selectedFiles))
	for _, f := range v.fileRows {
		if _, ok := v.selectedFiles[f.ID]; ok {
			ids = append(ids, f.ID)
		}
	}
	return ids
}

// SelectedFolders returns the selected folder ids in snapshot order
func (v *roomView) SelectedFolders() []string {
	v.mu.Lock()
	defer v.mu.Unlock()

	ids := make([]string, 0, len(v.selectedFolders))
	for _, f := range v.folderRows {
		if _, ok := v.selectedFolders[f.ID]; ok {
			ids = append(ids, f.ID)
		}
	}
	return ids
}

// DeleteSelected deletes every selected file, then every selected folder, one item at a
// time. Items that fail stay selected; the rest leave the selection. Any failure
// returns the itemized result with a *domain.PartialFailureError.
func (v *roomView) DeleteSelected(ctx context.Context) (*roomsysSvc.BulkResult, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if err := v.requireWritable(); err != nil {
		return nil, err
	}

	fileIDs := v.selectedInOrder(v.selectedFiles, true)
	folderIDs := v.selectedInOrder(v.selectedFolders, false)
	result := &roomsysSvc.BulkResult{Items: make([]roomsysSvc.BulkItem, 0, len(fileIDs)+len(folderIDs))}
	var failures []domain.ItemError

	for _, id := range fileIDs {
		item := roomsysSvc.BulkItem{ID: id, Kind: "file"}
		name := v.fileByID(id).Name
		res, err := v.deleteFile(ctx, id)
		if err != nil {
			item.Error = err.Error()
			failures = append(failures, domain.ItemError{Name: name, ID: id, Reason: err.Error(), Err: err})
		} else {
			item.Warning = res.StorageWarning
		}
		result.Items = append(result.Items, item)
	}

	for _, id := range folderIDs {
		item := roomsysSvc.BulkItem{ID: id, Kind: "folder"}
		if v.room == nil {
			// A failed folder delete reloaded the room and the reload failed too
			item.Error = "room is no longer loaded"
			failures = append(failures, domain.ItemError{ID: id, Reason: item.Error})
			result.Items = append(result.Items, item)
			continue
		}
		folder := v.folderByID(id)
		if folder == nil {
			item.Error = "folder not found"
			failures = append(failures, domain.ItemError{ID: id, Reason: item.Error})
			result.Items = append(result.Items, item)
			continue
		}
		name := folder.Name
		if err := v.deleteFolder(ctx, id); err != nil {
			item.Error = err.Error()
			failures = append(failures, domain.ItemError{Name: name, ID: id, Reason: err.Error(), Err: err})
		}
		result.Items = append(result.Items, item)
	}

	result.Failed = len(failures)
	result.Succeeded = len(result.Items) - result.Failed

	v.clearSelection()
	for _, item := range result.Items {
		if item.Error == "" {
			continue
		}
		if item.Kind == "file" && v.fileByID(item.ID) != nil {
			v.selectedFiles[item.ID] = struct{}{}
		}
		if item.Kind == "folder" && v.folderByID(item.ID) != nil {
			v.selectedFolders[item.ID] = struct{}{}
		}
	}

	if v.room != nil {
		v.deps.Logger.Info("selection deleted",
			"room_key", v.room.Key,
			"succeeded", result.Succeeded,
			"failed", result.Failed,
		)
	}

	if len(failures) > 0 {
		return result, &domain.PartialFailureError{
			Op:        "delete selection",
			Succeeded: result.Succeeded,
			Items:     failures,
		}
	}
	return result, nil
}

// MoveSelected moves every selected file and folder into targetID (nil = root). All
// items are checked before anything moves, and the moves share one transaction: either
// everything lands in the target or nothing changes. The selection is cleared on success.
func (v *roomView) MoveSelected(ctx context.Context, targetID *string) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if err := v.requireWritable(); err != nil {
		return err
	}

	targetID = normalizeID(targetID)
	fileIDs := v.selectedInOrder(v.selectedFiles, true)
	folderIDs := v.selectedInOrder(v.selectedFolders, false)

	if len(fileIDs) > 0 {
		ids, err := v.checkFileMove(fileIDs, targetID)
		if err != nil {
			return err
		}
		fileIDs = ids
	} else if err := v.checkTarget(targetID); err != nil {
		return err
	}
	for _, id := range folderIDs {
		if err := v.checkFolderMove(id, targetID); err != nil {
			return err
		}
	}

	roomID, roomKey := v.room.ID, v.room.Key
	err := v.deps.TxManager.ExecTx(ctx, func(txCtx context.Context) error {
		if len(fileIDs) > 0 {
			if err := v.deps.Files.UpdateFolder(txCtx, roomID, fileIDs, targetID); err != nil {
				return fmt.Errorf("move %d files: %w", len(fileIDs), err)
			}
		}
		for _, id := range folderIDs {
			if err := v.deps.Folders.UpdateParent(txCtx, roomID, id, targetID); err != nil {
				return fmt.Errorf("move folder %q: %w", v.folderByID(id).Name, err)
			}
		}
		return nil
	})
	if err != nil {
		return domain.NewRemoteError("move selection", roomKey, err)
	}

	for _, id := range fileIDs {
		v.fileByID(id).FolderID = copyID(targetID)
	}
	for _, id := range folderIDs {
		v.folderByID(id).ParentFolderID = copyID(targetID)
	}
	v.rebuild()
	v.clearSelection()

	v.deps.Logger.Info("selection moved",
		"room_key", roomKey,
		"files", len(fileIDs),
		"folders", len(folderIDs),
		"parent_folder_id", targetID,
	)
	return nil
}

// selectedInOrder lists selected ids that still exist, in snapshot order
func (v *roomView) selectedInOrder(set map[string]struct{}, files bool) []string {
	var ids []string
	if files {
		for _, f := range v.fileRows {
			if _, ok := set[f.ID]; ok {
				ids = append(ids, f.ID)
			}
		}
		return ids
	}
	for _, f := range v.folderRows {
		if _, ok := set[f.ID]; ok {
			ids = append(ids, f.ID)
		}
	}
	return ids
}
