package roomsys

import (
	"time"
)

// Room is a PIN-protected namespace owned by one user.
type Room struct {
	ID        string    `json:"id" db:"id"`
	Key       string    `json:"key" db:"key"` // unique URL-safe slug, immutable
	Name      string    `json:"name" db:"name"`
	Pin       string    `json:"-" db:"pin"` // never serialized to clients
	CreatedBy string    `json:"created_by" db:"created_by"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// IsOwner reports whether userID may mutate the room's contents.
func (r *Room) IsOwner(userID string) bool {
	return userID != "" && r.CreatedBy == userID
}

// RoomSummary is a room with its storage totals, used on the owner's profile.
type RoomSummary struct {
	Room
	FileCount   int   `json:"file_count"`
	FolderCount int   `json:"folder_count"`
	TotalBytes  int64 `json:"total_bytes"`
}

// Profile aggregates an owner's rooms.
type Profile struct {
	UserID       string        `json:"id"`
	Email        string        `json:"email"`
	Rooms        []RoomSummary `json:"rooms"`
	TotalFiles   int           `json:"total_files"`
	TotalStorage int64         `json:"total_storage"`
}
