package roomsys

import (
	models "pinroom/internal/domain/models/roomsys"
)

// BuildTree converts the flat folder and file rows of one room into a folder forest.
//
// Every folder appears exactly once (nested under its parent or as a root) and every
// file appears exactly once (in its folder or in the root file list). References that
// do not resolve, and folders whose ancestor chain loops back to themselves, are
// placed at the root. Input order is preserved. The input slices are not modified.
func BuildTree(folders []models.Folder, files []models.FileItem) *models.Tree {
	tree := &models.Tree{
		Folders: make([]*models.FolderNode, 0),
		Files:   make([]models.FileItem, 0),
	}

	// First pass: create all folder nodes
	folderMap := make(map[string]*models.FolderNode, len(folders))
	parentOf := make(map[string]string, len(folders))
	for _, folder := range folders {
		if _, dup := folderMap[folder.ID]; dup {
			continue
		}
		folderMap[folder.ID] = &models.FolderNode{
			ID:             folder.ID,
			RoomID:         folder.RoomID,
			Name:           folder.Name,
			ParentFolderID: copyID(folder.ParentFolderID),
			CreatedBy:      folder.CreatedBy,
			CreatedAt:      folder.CreatedAt,
			Folders:        []*models.FolderNode{},
			Files:          []models.FileItem{},
		}
		if folder.ParentFolderID != nil {
			parentOf[folder.ID] = *folder.ParentFolderID
		}
	}

	// Second pass: files into their folders, dangling references to the root
	for _, file := range files {
		file.FolderID = copyID(file.FolderID)
		if file.FolderID != nil {
			if parent, exists := folderMap[*file.FolderID]; exists {
				parent.Files = append(parent.Files, file)
				continue
			}
		}
		tree.Files = append(tree.Files, file)
	}

	// Third pass: nest folders, in input order so siblings stay stable
	placed := make(map[string]bool, len(folders))
	for _, folder := range folders {
		if placed[folder.ID] {
			continue
		}
		placed[folder.ID] = true
		node := folderMap[folder.ID]

		parentID, hasParent := parentOf[folder.ID]
		parent, exists := folderMap[parentID]
		if !hasParent || !exists || inCycle(folder.ID, parentOf) {
			tree.Folders = append(tree.Folders, node)
			continue
		}
		parent.Folders = append(parent.Folders, node)
	}

	return tree
}

// inCycle reports whether walking parent pointers from id leads back to id.
// The walk stops at the first repeated node, so any loop terminates.
func inCycle(id string, parentOf map[string]string) bool {
	seen := map[string]bool{id: true}
	current := id
	for {
		next, ok := parentOf[current]
		if !ok {
			return false
		}
		if next == id {
			return true
		}
		if seen[next] {
			// Loop above us that does not include id
			return false
		}
		seen[next] = true
		current = next
	}
}

func copyID(id *string) *string {
	if id == nil {
		return nil
	}
	v := *id
	return &v
}
