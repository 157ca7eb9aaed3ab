package roomsys

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"pinroom/internal/config"
	"pinroom/internal/domain"
	models "pinroom/internal/domain/models/roomsys"
	"pinroom/internal/domain/repositories"
	roomsysRepo "pinroom/internal/domain/repositories/roomsys"
	roomsysSvc "pinroom/internal/domain/services/roomsys"
)

// Dependencies are the gateway collaborators shared by every room view and the room
// service. Now and NewSuffix default to the wall clock and a random hex suffix.
type Dependencies struct {
	Rooms     roomsysRepo.RoomRepository
	Folders   roomsysRepo.FolderRepository
	Files     roomsysRepo.FileRepository
	Blobs     repositories.BlobStore
	Pins      repositories.PinCache
	TxManager repositories.TransactionManager
	Limits    *config.Limits
	Logger    *slog.Logger

	Now       func() time.Time
	NewSuffix func() string
}

func (d *Dependencies) withDefaults() *Dependencies {
	out := *d
	if out.Limits == nil {
		out.Limits = config.DefaultLimits()
	}
	if out.Logger == nil {
		out.Logger = slog.Default()
	}
	if out.Now == nil {
		out.Now = time.Now
	}
	if out.NewSuffix == nil {
		out.NewSuffix = randomSuffix
	}
	return &out
}

// roomView implements roomsysSvc.RoomView. All fields below mu are guarded by it.
type roomView struct {
	deps    *Dependencies
	session roomsysSvc.ViewSession

	mu         sync.Mutex
	state      roomsysSvc.ViewState
	locked     bool
	room       *models.Room
	folderRows []models.Folder
	fileRows   []models.FileItem
	tree       *models.Tree

	selectedFiles   map[string]struct{}
	selectedFolders map[string]struct{}
}

// NewRoomView creates an unloaded view for one visitor session
func NewRoomView(deps *Dependencies, session roomsysSvc.ViewSession) roomsysSvc.RoomView {
	return &roomView{
		deps:            deps.withDefaults(),
		session:         session,
		state:           roomsysSvc.StateUnloaded,
		locked:          true,
		tree:            BuildTree(nil, nil),
		selectedFiles:   make(map[string]struct{}),
		selectedFolders: make(map[string]struct{}),
	}
}

type viewOpener struct {
	deps *Dependencies
}

// NewViewOpener returns a factory for room views sharing deps
func NewViewOpener(deps *Dependencies) roomsysSvc.ViewOpener {
	return &viewOpener{deps: deps.withDefaults()}
}

func (o *viewOpener) NewView(session roomsysSvc.ViewSession) roomsysSvc.RoomView {
	return NewRoomView(o.deps, session)
}

// OpenView creates a view and loads the room. The view is returned only on success.
func (o *viewOpener) OpenView(ctx context.Context, session roomsysSvc.ViewSession, key string) (roomsysSvc.RoomView, error) {
	view := NewRoomView(o.deps, session)
	if err := view.Load(ctx, key); err != nil {
		return nil, err
	}
	return view, nil
}

// Load fetches the room, its folders and its files and rebuilds the tree.
// The view stays unlocked across reloads of the same room as long as the PIN has not
// changed; otherwise the session PIN cache decides.
func (v *roomView) Load(ctx context.Context, key string) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.load(ctx, key)
}

func (v *roomView) load(ctx context.Context, key string) error {
	key = normalizeKey(key)

	var unlockedPin string
	if v.room != nil && v.room.Key == key && !v.locked {
		unlockedPin = v.room.Pin
	}

	v.state = roomsysSvc.StateLoading
	v.clearSelection()

	room, folders, files, err := v.fetch(ctx, key)
	if err != nil {
		v.reset()
		if errors.Is(err, domain.ErrNotFound) {
			v.state = roomsysSvc.StateNotFound
			return err
		}
		v.state = roomsysSvc.StateLoadError
		return err
	}

	v.room = room
	v.folderRows = folders
	v.fileRows = files
	v.rebuild()

	if unlockedPin != "" && pinsEqual(unlockedPin, room.Pin) {
		v.locked = false
	} else {
		v.locked = !v.cachedPinMatches(ctx, room)
	}
	v.state = roomsysSvc.StateLoaded

	v.deps.Logger.Debug("room loaded",
		"room_key", room.Key,
		"folder_count", len(folders),
		"file_count", len(files),
		"locked", v.locked,
	)

	return nil
}

func (v *roomView) fetch(ctx context.Context, key string) (*models.Room, []models.Folder, []models.FileItem, error) {
	room, err := v.deps.Rooms.GetByKey(ctx, key)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, nil, nil, roomNotFound(key)
		}
		return nil, nil, nil, domain.NewRemoteError("load room", key, err)
	}

	folders, err := v.deps.Folders.ListByRoom(ctx, room.ID)
	if err != nil {
		return nil, nil, nil, domain.NewRemoteError("load folders", key, err)
	}

	files, err := v.deps.Files.ListByRoom(ctx, room.ID)
	if err != nil {
		return nil, nil, nil, domain.NewRemoteError("load files", key, err)
	}

	return room, folders, files, nil
}

// cachedPinMatches consults the session PIN cache. A cached PIN that no longer matches
// is deleted so it cannot grant access later.
func (v *roomView) cachedPinMatches(ctx context.Context, room *models.Room) bool {
	if v.session.SessionID == "" {
		return false
	}

	cached, ok, err := v.deps.Pins.Get(ctx, v.session.SessionID, room.Key)
	if err != nil {
		v.deps.Logger.Warn("pin cache read failed", "room_key", room.Key, "error", err)
		return false
	}
	if !ok {
		return false
	}
	if pinsEqual(cached, room.Pin) {
		return true
	}

	v.forgetPin(ctx, room.Key)
	return false
}

// VerifyPin checks a candidate PIN against the stored one. A match is cached for the
// session and unlocks this view if it holds that room; a mismatch clears the cache
// entry and writes nothing.
func (v *roomView) VerifyPin(ctx context.Context, key, pin string) (bool, error) {
	key = normalizeKey(key)
	if err := validatePin(pin, v.deps.Limits.PIN.Length); err != nil {
		return false, err
	}

	room, err := v.deps.Rooms.GetByKey(ctx, key)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return false, roomNotFound(key)
		}
		return false, domain.NewRemoteError("verify pin", key, err)
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	if !pinsEqual(pin, room.Pin) {
		v.forgetPin(ctx, key)
		v.deps.Logger.Info("pin rejected", "room_key", key)
		return false, nil
	}

	if v.session.SessionID != "" {
		if err := v.deps.Pins.Set(ctx, v.session.SessionID, key, pin); err != nil {
			v.deps.Logger.Warn("pin cache write failed", "room_key", key, "error", err)
		}
	}

	if v.room != nil && v.room.Key == key {
		v.room.Pin = room.Pin
		v.locked = false
	}

	v.deps.Logger.Info("pin verified", "room_key", key)
	return true, nil
}

func (v *roomView) forgetPin(ctx context.Context, key string) {
	if v.session.SessionID == "" {
		return
	}
	if err := v.deps.Pins.Delete(ctx, v.session.SessionID, key); err != nil {
		v.deps.Logger.Warn("pin cache delete failed", "room_key", key, "error", err)
	}
}

// requireWritable gates every mutation: the room must be loaded, unlocked, and the
// caller must be its owner.
func (v *roomView) requireWritable() error {
	if v.state != roomsysSvc.StateLoaded || v.room == nil {
		return &domain.ValidationError{Message: "no room is loaded"}
	}
	if v.locked {
		return &domain.ForbiddenError{Message: "room is locked: verify the PIN first"}
	}
	if !v.room.IsOwner(v.session.UserID) {
		return &domain.ForbiddenError{Message: "only the room owner can modify this room"}
	}
	return nil
}

func (v *roomView) State() roomsysSvc.ViewState {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.state
}

func (v *roomView) Locked() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.locked
}

func (v *roomView) IsOwner() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.room != nil && v.room.IsOwner(v.session.UserID)
}

// Room returns a copy of the loaded room, or nil
func (v *roomView) Room() *models.Room {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.room == nil {
		return nil
	}
	room := *v.room
	return &room
}

// Tree returns the current folder tree. Callers must treat it as read-only; every
// mutation replaces it with a freshly built tree.
func (v *roomView) Tree() *models.Tree {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.tree
}

// Close tears the view down on navigation
func (v *roomView) Close() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.reset()
	v.clearSelection()
	v.state = roomsysSvc.StateUnloaded
}

func (v *roomView) reset() {
	v.room = nil
	v.folderRows = nil
	v.fileRows = nil
	v.locked = true
	v.tree = BuildTree(nil, nil)
}

func (v *roomView) rebuild() {
	v.tree = BuildTree(v.folderRows, v.fileRows)
}

func (v *roomView) folderByID(id string) *models.Folder {
	for i := range v.folderRows {
		if v.folderRows[i].ID == id {
			return &v.folderRows[i]
		}
	}
	return nil
}

func (v *roomView) fileByID(id string) *models.FileItem {
	for i := range v.fileRows {
		if v.fileRows[i].ID == id {
			return &v.fileRows[i]
		}
	}
	return nil
}

// checkTarget validates a destination folder: nil is the root, anything else must be a
// folder of the loaded room.
func (v *roomView) checkTarget(targetID *string) error {
	if targetID == nil {
		return nil
	}
	if v.folderByID(*targetID) == nil {
		return &domain.ValidationError{
			Message: fmt.Sprintf("folder %s does not belong to room %s", *targetID, v.room.Key),
		}
	}
	return nil
}

func roomNotFound(key string) error {
	return &domain.NotFoundError{Message: fmt.Sprintf("room %q not found", key)}
}

func pinsEqual(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}
