package roomsys

import (
	"context"

	"pinroom/internal/domain/models/roomsys"
)

// CreateRoomRequest represents a room creation request
type CreateRoomRequest struct {
	UserID    string `json:"-"`
	SessionID string `json:"-"`
	Key       string `json:"key"`
	Name      string `json:"name"`
	Pin       string `json:"pin"`
}

// RoomService handles room lifecycle outside a room view
type RoomService interface {
	// CreateRoom creates a room owned by req.UserID and caches its PIN for the session
	CreateRoom(ctx context.Context, req *CreateRoomRequest) (*roomsys.Room, error)

	// ListRooms returns the user's rooms with storage totals, newest first
	ListRooms(ctx context.Context, userID string) ([]roomsys.RoomSummary, error)

	// GetProfile returns the user's rooms and totals
	GetProfile(ctx context.Context, userID, email string) (*roomsys.Profile, error)

	// DeleteRoom purges the room's blobs, then deletes the room (cascade)
	DeleteRoom(ctx context.Context, userID, roomID string) error
}
