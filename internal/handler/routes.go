package handler

import "net/http"

// Handlers groups every HTTP handler the server mounts
type Handlers struct {
	Auth *AuthHandler
	User *UserHandler
	Room *RoomHandler
	View *ViewHandler
}

// Register mounts all routes on mux (Go 1.22+ method patterns). wrap, when non-nil,
// decorates every route except /health with its pattern, e.g. for per-route spans.
func (h *Handlers) Register(mux *http.ServeMux, wrap func(pattern string, next http.Handler) http.Handler) {
	handle := func(pattern string, fn http.HandlerFunc) {
		if wrap == nil {
			mux.Handle(pattern, fn)
			return
		}
		mux.Handle(pattern, wrap(pattern, fn))
	}

	// Health check (no tracing needed)
	mux.HandleFunc("GET /health", HealthCheck)

	// Auth routes
	handle("POST /api/auth/signup", h.Auth.SignUp)
	handle("POST /api/auth/signin", h.Auth.SignIn)
	handle("POST /api/auth/signout", h.Auth.SignOut)

	// Profile routes
	handle("GET /api/users/me", h.User.GetProfile)
	handle("DELETE /api/users/me", h.User.DeleteAccount)

	// Room lifecycle routes
	handle("GET /api/rooms", h.Room.ListRooms)
	handle("POST /api/rooms", h.Room.CreateRoom)
	handle("DELETE /api/rooms/{id}", h.Room.DeleteRoom)

	// Room view routes, addressed by key
	handle("GET /api/rooms/{key}", h.View.GetRoom)
	handle("POST /api/rooms/{key}/verify-pin", h.View.VerifyPin)
	handle("POST /api/rooms/{key}/folders", h.View.CreateFolder)
	handle("PATCH /api/rooms/{key}/folders/{id}", h.View.MoveFolder)
	handle("DELETE /api/rooms/{key}/folders/{id}", h.View.DeleteFolder)
	handle("POST /api/rooms/{key}/files", h.View.UploadFiles)
	handle("POST /api/rooms/{key}/files/move", h.View.MoveFiles)
	handle("PATCH /api/rooms/{key}/files/{id}", h.View.MoveFile)
	handle("DELETE /api/rooms/{key}/files/{id}", h.View.DeleteFile)
	handle("POST /api/rooms/{key}/items/delete", h.View.DeleteItems)
	handle("POST /api/rooms/{key}/items/move", h.View.MoveItems)
}
