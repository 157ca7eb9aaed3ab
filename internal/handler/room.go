package handler

import (
	"log/slog"
	"net/http"

	roomsysSvc "pinroom/internal/domain/services/roomsys"
	"pinroom/internal/httputil"
)

// RoomHandler handles room lifecycle requests of the signed-in owner
type RoomHandler struct {
	roomService roomsysSvc.RoomService
	logger      *slog.Logger
}

// NewRoomHandler creates a new room handler
func NewRoomHandler(roomService roomsysSvc.RoomService, logger *slog.Logger) *RoomHandler {
	return &RoomHandler{
		roomService: roomService,
		logger:      logger,
	}
}

// ListRooms returns the user's rooms with totals
// GET /api/rooms
func (h *RoomHandler) ListRooms(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	rooms, err := h.roomService.ListRooms(r.Context(), userID)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, rooms)
}

// CreateRoom creates a room and unlocks it for the calling session
// POST /api/rooms
func (h *RoomHandler) CreateRoom(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req roomsysSvc.CreateRoomRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		handleError(w, err)
		return
	}
	req.UserID = userID
	req.SessionID = httputil.GetSessionID(r)

	room, err := h.roomService.CreateRoom(r.Context(), &req)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusCreated, room)
}

// DeleteRoom deletes a room and its stored files
// DELETE /api/rooms/{id}
func (h *RoomHandler) DeleteRoom(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	if err := h.roomService.DeleteRoom(r.Context(), userID, r.PathValue("id")); err != nil {
		handleError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
