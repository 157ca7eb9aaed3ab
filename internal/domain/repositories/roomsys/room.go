package roomsys

import (
	"context"

	"pinroom/internal/domain/models/roomsys"
)

// RoomRepository defines data access operations for rooms
type RoomRepository interface {
	// Create inserts a room and fills in the generated ID and created_at.
	// Returns a *domain.ConflictError if the key is taken.
	Create(ctx context.Context, room *roomsys.Room) error

	// GetByKey retrieves a room (including its PIN) by key
	GetByKey(ctx context.Context, key string) (*roomsys.Room, error)

	// GetByID retrieves a room by ID
	GetByID(ctx context.Context, id string) (*roomsys.Room, error)

	// ListByOwner retrieves a user's rooms with file totals, newest first
	ListByOwner(ctx context.Context, userID string) ([]roomsys.RoomSummary, error)

	// Delete deletes a room; folders and files cascade
	Delete(ctx context.Context, id string) error
}
