package roomsys

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"pinroom/internal/domain"
	models "pinroom/internal/domain/models/roomsys"
	roomsysSvc "pinroom/internal/domain/services/roomsys"
)

type roomService struct {
	deps *Dependencies
}

// NewRoomService creates the room lifecycle service
func NewRoomService(deps *Dependencies) roomsysSvc.RoomService {
	return &roomService{deps: deps.withDefaults()}
}

// CreateRoom creates a room and caches its PIN for the creating session so the owner
// enters without a prompt
func (s *roomService) CreateRoom(ctx context.Context, req *roomsysSvc.CreateRoomRequest) (*models.Room, error) {
	if req.UserID == "" {
		return nil, &domain.UnauthorizedError{Message: "sign in to create a room"}
	}
	req.Key = normalizeKey(req.Key)
	req.Name = strings.TrimSpace(req.Name)

	if err := validateCreateRoom(req, s.deps.Limits); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	existing, err := s.deps.Rooms.GetByKey(ctx, req.Key)
	if err == nil {
		return nil, &domain.ConflictError{
			Message:      fmt.Sprintf("room key %q is already taken", req.Key),
			ResourceType: "room",
			ResourceID:   existing.Key,
		}
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, domain.NewRemoteError("check room key", req.Key, err)
	}

	room := &models.Room{
		Key:       req.Key,
		Name:      req.Name,
		Pin:       req.Pin,
		CreatedBy: req.UserID,
		CreatedAt: s.deps.Now(),
	}
	if err := s.deps.Rooms.Create(ctx, room); err != nil {
		return nil, domain.NewRemoteError("create room", req.Key, err)
	}

	if req.SessionID != "" {
		if err := s.deps.Pins.Set(ctx, req.SessionID, room.Key, room.Pin); err != nil {
			s.deps.Logger.Warn("pin cache write failed", "room_key", room.Key, "error", err)
		}
	}

	s.deps.Logger.Info("room created",
		"id", room.ID,
		"room_key", room.Key,
		"user_id", req.UserID,
	)

	return room, nil
}

// ListRooms returns the user's rooms, newest first
func (s *roomService) ListRooms(ctx context.Context, userID string) ([]models.RoomSummary, error) {
	if userID == "" {
		return nil, &domain.UnauthorizedError{Message: "sign in to list rooms"}
	}
	rooms, err := s.deps.Rooms.ListByOwner(ctx, userID)
	if err != nil {
		return nil, domain.NewRemoteError("list rooms", userID, err)
	}
	if rooms == nil {
		rooms = []models.RoomSummary{}
	}
	return rooms, nil
}

// GetProfile aggregates the user's rooms
func (s *roomService) GetProfile(ctx context.Context, userID, email string) (*models.Profile, error) {
	rooms, err := s.ListRooms(ctx, userID)
	if err != nil {
		return nil, err
	}

	profile := &models.Profile{
		UserID: userID,
		Email:  email,
		Rooms:  rooms,
	}
	for _, room := range rooms {
		profile.TotalFiles += room.FileCount
		profile.TotalStorage += room.TotalBytes
	}
	return profile, nil
}

// DeleteRoom purges the room's blobs and then deletes the room row; folders and files
// cascade in the database. A failed purge leaves the room in place.
func (s *roomService) DeleteRoom(ctx context.Context, userID, roomID string) error {
	room, err := s.deps.Rooms.GetByID(ctx, roomID)
	if err != nil {
		return domain.NewRemoteError("get room", roomID, err)
	}
	if !room.IsOwner(userID) {
		return &domain.ForbiddenError{Message: "only the room owner can delete this room"}
	}

	removed, err := s.purgeBlobs(ctx, room.Key)
	if err != nil {
		return err
	}

	if err := s.deps.Rooms.Delete(ctx, room.ID); err != nil {
		return domain.NewRemoteError("delete room", room.Key, err)
	}

	s.deps.Logger.Info("room deleted",
		"id", room.ID,
		"room_key", room.Key,
		"blobs_removed", removed,
	)
	return nil
}

func (s *roomService) purgeBlobs(ctx context.Context, roomKey string) (int, error) {
	removed, err := s.deps.Blobs.DeletePrefix(ctx, roomKey+"/")
	if err != nil {
		return removed, domain.NewRemoteError("purge room files", roomKey, err)
	}
	return removed, nil
}
