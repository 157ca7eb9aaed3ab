package roomsys

import (
	"time"
)

type FileItem struct {
	ID         string    `json:"id" db:"id"`
	RoomID     string    `json:"room_id" db:"room_id"`
	Name       string    `json:"name" db:"name"` // original upload name
	Type       string    `json:"type" db:"type"` // MIME type
	Size       int64     `json:"size" db:"size"`
	URL        string    `json:"url" db:"url"` // public object URL
	UploadedAt time.Time `json:"uploaded_at" db:"uploaded_at"`
	FolderID   *string   `json:"folder_id" db:"folder_id"` // NULL = root level
}
