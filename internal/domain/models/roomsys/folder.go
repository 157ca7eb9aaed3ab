package roomsys

import (
	"time"
)

type Folder struct {
	ID             string    `json:"id" db:"id"`
	RoomID         string    `json:"room_id" db:"room_id"`
	Name           string    `json:"name" db:"name"`
	ParentFolderID *string   `json:"parent_folder_id" db:"parent_folder_id"` // NULL = root level
	CreatedBy      string    `json:"created_by" db:"created_by"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
}
