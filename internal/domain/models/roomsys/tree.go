package roomsys

import "time"

// Tree is the folder forest of one room plus its unfoldered files
type Tree struct {
	Folders []*FolderNode `json:"folders"`
	Files   []FileItem    `json:"files"`
}

// FolderNode is a folder with its direct children
type FolderNode struct {
	ID             string        `json:"id"`
	RoomID         string        `json:"room_id"`
	Name           string        `json:"name"`
	ParentFolderID *string       `json:"parent_folder_id"`
	CreatedBy      string        `json:"created_by"`
	CreatedAt      time.Time     `json:"created_at"`
	Folders        []*FolderNode `json:"folders"` // Pointers for proper nesting
	Files          []FileItem    `json:"files"`
}

// FolderCount returns the number of folder nodes in the tree
func (t *Tree) FolderCount() int {
	n := 0
	t.Walk(func(*FolderNode) { n++ })
	return n
}

// FileCount returns root files plus every file nested in a folder
func (t *Tree) FileCount() int {
	n := len(t.Files)
	t.Walk(func(node *FolderNode) { n += len(node.Files) })
	return n
}

// FindFolder returns the node with the given id, or nil
func (t *Tree) FindFolder(id string) *FolderNode {
	var found *FolderNode
	t.Walk(func(node *FolderNode) {
		if found == nil && node.ID == id {
			found = node
		}
	})
	return found
}

// Walk visits every folder node depth-first in display order
func (t *Tree) Walk(fn func(*FolderNode)) {
	var visit func(nodes []*FolderNode)
	visit = func(nodes []*FolderNode) {
		for _, node := range nodes {
			fn(node)
			visit(node.Folders)
		}
	}
	visit(t.Folders)
}
