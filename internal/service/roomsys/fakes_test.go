package roomsys

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"pinroom/internal/config"
	"pinroom/internal/domain"
	"pinroom/internal/domain/models"
	roomModels "pinroom/internal/domain/models/roomsys"
	"pinroom/internal/domain/repositories"
	roomsysSvc "pinroom/internal/domain/services/roomsys"
)

var errBoom = errors.New("boom")

// store is an in-memory gateway shared by the fake room, folder and file repositories
type store struct {
	mu      sync.Mutex
	seq     int
	rooms   map[string]*roomModels.Room
	folders []roomModels.Folder
	files   []roomModels.FileItem

	failFolderDelete   bool
	failFolderReparent bool
	failFileCreate     bool
	failFileDelete     bool
	failFileUpdate     bool
	failListFiles      bool
	failFolderMoveN    int // fail the n-th UpdateParent (1-based), 0 = never
	folderMoveCalls    int
	updateFolderCalls  int
}

func newStore() *store {
	return &store{rooms: make(map[string]*roomModels.Room)}
}

func (s *store) nextID(prefix string) string {
	s.seq++
	return fmt.Sprintf("%s-%d", prefix, s.seq)
}

func (s *store) addRoom(key, pin, owner string) *roomModels.Room {
	s.mu.Lock()
	defer s.mu.Unlock()
	room := &roomModels.Room{ID: s.nextID("room"), Key: key, Name: key, Pin: pin, CreatedBy: owner}
	s.rooms[room.ID] = room
	return room
}

func (s *store) addFolder(roomID, name string, parentID *string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextID("folder")
	s.folders = append(s.folders, roomModels.Folder{ID: id, RoomID: roomID, Name: name, ParentFolderID: parentID})
	return id
}

func (s *store) addFile(roomID, name string, folderID *string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextID("file")
	s.files = append(s.files, roomModels.FileItem{
		ID:       id,
		RoomID:   roomID,
		Name:     name,
		Size:     1,
		URL:      "https://cdn.test/room-files/" + roomID + "/" + id + ".bin",
		FolderID: folderID,
	})
	return id
}

func (s *store) file(id string) *roomModels.FileItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.files {
		if s.files[i].ID == id {
			f := s.files[i]
			return &f
		}
	}
	return nil
}

func (s *store) folder(id string) *roomModels.Folder {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.folders {
		if s.folders[i].ID == id {
			f := s.folders[i]
			return &f
		}
	}
	return nil
}

type fakeRooms struct{ s *store }

func (r fakeRooms) Create(_ context.Context, room *roomModels.Room) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, existing := range r.s.rooms {
		if existing.Key == room.Key {
			return &domain.ConflictError{Message: "duplicate key", ResourceType: "room", ResourceID: room.Key}
		}
	}
	room.ID = r.s.nextID("room")
	stored := *room
	r.s.rooms[room.ID] = &stored
	return nil
}

func (r fakeRooms) GetByKey(_ context.Context, key string) (*roomModels.Room, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, room := range r.s.rooms {
		if room.Key == key {
			out := *room
			return &out, nil
		}
	}
	return nil, fmt.Errorf("room %s: %w", key, domain.ErrNotFound)
}

func (r fakeRooms) GetByID(_ context.Context, id string) (*roomModels.Room, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	room, ok := r.s.rooms[id]
	if !ok {
		return nil, fmt.Errorf("room %s: %w", id, domain.ErrNotFound)
	}
	out := *room
	return &out, nil
}

func (r fakeRooms) ListByOwner(_ context.Context, userID string) ([]roomModels.RoomSummary, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []roomModels.RoomSummary
	for _, room := range r.s.rooms {
		if room.CreatedBy != userID {
			continue
		}
		summary := roomModels.RoomSummary{Room: *room}
		for _, f := range r.s.files {
			if f.RoomID == room.ID {
				summary.FileCount++
				summary.TotalBytes += f.Size
			}
		}
		out = append(out, summary)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}

func (r fakeRooms) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	delete(r.s.rooms, id)
	return nil
}

type fakeFolders struct{ s *store }

func (r fakeFolders) Create(_ context.Context, folder *roomModels.Folder) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	folder.ID = r.s.nextID("folder")
	r.s.folders = append(r.s.folders, *folder)
	return nil
}

func (r fakeFolders) ListByRoom(_ context.Context, roomID string) ([]roomModels.Folder, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []roomModels.Folder
	for _, f := range r.s.folders {
		if f.RoomID == roomID {
			out = append(out, f)
		}
	}
	return out, nil
}

func (r fakeFolders) UpdateParent(_ context.Context, roomID, folderID string, parentID *string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.folderMoveCalls++
	if r.s.failFolderMoveN != 0 && r.s.folderMoveCalls == r.s.failFolderMoveN {
		return errBoom
	}
	for i := range r.s.folders {
		if r.s.folders[i].ID == folderID && r.s.folders[i].RoomID == roomID {
			r.s.folders[i].ParentFolderID = copyID(parentID)
			return nil
		}
	}
	return domain.ErrNotFound
}

func (r fakeFolders) ReparentChildren(_ context.Context, roomID, folderID string, newParentID *string) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.failFolderReparent {
		return 0, errBoom
	}
	var n int64
	for i := range r.s.folders {
		f := &r.s.folders[i]
		if f.RoomID == roomID && f.ParentFolderID != nil && *f.ParentFolderID == folderID {
			f.ParentFolderID = copyID(newParentID)
			n++
		}
	}
	return n, nil
}

func (r fakeFolders) Delete(_ context.Context, roomID, folderID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.failFolderDelete {
		return errBoom
	}
	for i := range r.s.folders {
		if r.s.folders[i].ID == folderID && r.s.folders[i].RoomID == roomID {
			r.s.folders = append(r.s.folders[:i], r.s.folders[i+1:]...)
			return nil
		}
	}
	return domain.ErrNotFound
}

type fakeFiles struct{ s *store }

func (r fakeFiles) Create(_ context.Context, file *roomModels.FileItem) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.failFileCreate {
		return errBoom
	}
	file.ID = r.s.nextID("file")
	r.s.files = append(r.s.files, *file)
	return nil
}

func (r fakeFiles) ListByRoom(_ context.Context, roomID string) ([]roomModels.FileItem, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.failListFiles {
		return nil, errBoom
	}
	var out []roomModels.FileItem
	for _, f := range r.s.files {
		if f.RoomID == roomID {
			out = append(out, f)
		}
	}
	return out, nil
}

func (r fakeFiles) UpdateFolder(_ context.Context, roomID string, fileIDs []string, folderID *string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.updateFolderCalls++
	if r.s.failFileUpdate {
		return errBoom
	}
	ids := make(map[string]bool, len(fileIDs))
	for _, id := range fileIDs {
		ids[id] = true
	}
	for i := range r.s.files {
		if r.s.files[i].RoomID == roomID && ids[r.s.files[i].ID] {
			r.s.files[i].FolderID = copyID(folderID)
		}
	}
	return nil
}

func (r fakeFiles) ReparentFolder(_ context.Context, roomID, folderID string, newFolderID *string) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var n int64
	for i := range r.s.files {
		f := &r.s.files[i]
		if f.RoomID == roomID && f.FolderID != nil && *f.FolderID == folderID {
			f.FolderID = copyID(newFolderID)
			n++
		}
	}
	return n, nil
}

func (r fakeFiles) Delete(_ context.Context, roomID, fileID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.failFileDelete {
		return errBoom
	}
	for i := range r.s.files {
		if r.s.files[i].ID == fileID && r.s.files[i].RoomID == roomID {
			r.s.files = append(r.s.files[:i], r.s.files[i+1:]...)
			return nil
		}
	}
	return domain.ErrNotFound
}

// fakeTx restores the store's folder and file rows when fn fails
type fakeTx struct{ s *store }

func (t fakeTx) ExecTx(ctx context.Context, fn repositories.TxFn) error {
	t.s.mu.Lock()
	folders := append([]roomModels.Folder(nil), t.s.folders...)
	files := append([]roomModels.FileItem(nil), t.s.files...)
	t.s.mu.Unlock()

	if err := fn(ctx); err != nil {
		t.s.mu.Lock()
		t.s.folders, t.s.files = folders, files
		t.s.mu.Unlock()
		return err
	}
	return nil
}

type fakeBlobs struct {
	mu         sync.Mutex
	objects    map[string]int64
	putCalls   int
	failPutN   int // fail the n-th Put (1-based), 0 = never
	failDelete bool
	failPrefix bool
	deleted    []string
}

func newFakeBlobs() *fakeBlobs {
	return &fakeBlobs{objects: make(map[string]int64)}
}

func (b *fakeBlobs) Put(_ context.Context, path string, r io.Reader, size int64, _ string) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.putCalls++
	if b.failPutN != 0 && b.putCalls == b.failPutN {
		return "", errBoom
	}
	if _, err := io.Copy(io.Discard, r); err != nil {
		return "", err
	}
	b.objects[path] = size
	return "https://cdn.test/room-files/" + path, nil
}

func (b *fakeBlobs) Delete(_ context.Context, path string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.failDelete {
		return errBoom
	}
	delete(b.objects, path)
	b.deleted = append(b.deleted, path)
	return nil
}

func (b *fakeBlobs) DeletePrefix(_ context.Context, prefix string) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.failPrefix {
		return 0, errBoom
	}
	n := 0
	for path := range b.objects {
		if strings.HasPrefix(path, prefix) {
			delete(b.objects, path)
			n++
		}
	}
	return n, nil
}

type fakePins struct {
	mu      sync.Mutex
	entries map[string]string
	sets    int
}

func newFakePins() *fakePins {
	return &fakePins{entries: make(map[string]string)}
}

func (p *fakePins) Get(_ context.Context, sessionID, roomKey string) (string, bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	pin, ok := p.entries[sessionID+"|"+roomKey]
	return pin, ok, nil
}

func (p *fakePins) Set(_ context.Context, sessionID, roomKey, pin string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sets++
	p.entries[sessionID+"|"+roomKey] = pin
	return nil
}

func (p *fakePins) Delete(_ context.Context, sessionID, roomKey string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.entries, sessionID+"|"+roomKey)
	return nil
}

type fakeIdentity struct {
	deleted      []string
	confirmEmail bool
	failDelete   bool
}

func (f *fakeIdentity) SignUp(_ context.Context, email, _ string) (*models.AuthSession, error) {
	if f.confirmEmail {
		return nil, nil
	}
	return &models.AuthSession{User: models.AuthUser{ID: "user-new", Email: email}, AccessToken: "token"}, nil
}

func (f *fakeIdentity) SignIn(_ context.Context, email, password string) (*models.AuthSession, error) {
	if password != "secret123" {
		return nil, &domain.UnauthorizedError{Message: "invalid login credentials"}
	}
	return &models.AuthSession{User: models.AuthUser{ID: "user-1", Email: email}, AccessToken: "token"}, nil
}

func (f *fakeIdentity) SignOut(_ context.Context, _ string) error { return nil }

func (f *fakeIdentity) DeleteUser(_ context.Context, userID string) error {
	if f.failDelete {
		return errBoom
	}
	f.deleted = append(f.deleted, userID)
	return nil
}

// harness wires a view against the fakes
type harness struct {
	store *store
	blobs *fakeBlobs
	pins  *fakePins
	deps  *Dependencies
}

func newHarness() *harness {
	s := newStore()
	blobs := newFakeBlobs()
	pins := newFakePins()
	return &harness{
		store: s,
		blobs: blobs,
		pins:  pins,
		deps: &Dependencies{
			Rooms:     fakeRooms{s},
			Folders:   fakeFolders{s},
			Files:     fakeFiles{s},
			Blobs:     blobs,
			Pins:      pins,
			TxManager: fakeTx{s},
			Limits:    config.DefaultLimits(),
			Logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
			Now:       func() time.Time { return time.UnixMilli(1700000000000) },
			NewSuffix: func() string { return "abc123" },
		},
	}
}

func (h *harness) view(userID, sessionID string) *roomView {
	return NewRoomView(h.deps, roomsysSvc.ViewSession{UserID: userID, SessionID: sessionID}).(*roomView)
}

func strPtr(s string) *string { return &s }
