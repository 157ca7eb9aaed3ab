package roomsys

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"
	"time"

	"pinroom/internal/domain"
	models "pinroom/internal/domain/models/roomsys"
	roomsysSvc "pinroom/internal/domain/services/roomsys"
)

const (
	testKey   = "project-alpha"
	testPin   = "1234"
	ownerID   = "owner-1"
	sessionID = "tab-1"
)

// openOwned loads the test room as its owner with the PIN already cached
func openOwned(t *testing.T, h *harness) (*roomView, *models.Room) {
	t.Helper()
	room := h.store.addRoom(testKey, testPin, ownerID)
	h.pins.entries[sessionID+"|"+testKey] = testPin

	view := h.view(ownerID, sessionID)
	if err := view.Load(context.Background(), testKey); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if view.Locked() {
		t.Fatal("expected view to be unlocked by cached PIN")
	}
	return view, room
}

func upload(name string, size int64) roomsysSvc.Upload {
	return roomsysSvc.Upload{
		Name:        name,
		ContentType: "application/pdf",
		Size:        size,
		Body:        strings.NewReader(strings.Repeat("x", int(min(size, 16)))),
	}
}

func TestVerifyPin(t *testing.T) {
	ctx := context.Background()
	h := newHarness()
	h.store.addRoom(testKey, testPin, ownerID)
	view := h.view("", sessionID)

	if err := view.Load(ctx, testKey); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if !view.Locked() {
		t.Fatal("room without cached PIN should be locked")
	}

	ok, err := view.VerifyPin(ctx, testKey, "0000")
	if err != nil || ok {
		t.Fatalf("VerifyPin(wrong) = %v, %v; want false, nil", ok, err)
	}
	if h.pins.sets != 0 || len(h.pins.entries) != 0 {
		t.Errorf("wrong PIN wrote the cache: %v", h.pins.entries)
	}
	if !view.Locked() {
		t.Error("wrong PIN unlocked the view")
	}

	ok, err = view.VerifyPin(ctx, "Project-Alpha", testPin)
	if err != nil || !ok {
		t.Fatalf("VerifyPin(correct) = %v, %v; want true, nil", ok, err)
	}
	if got := h.pins.entries[sessionID+"|"+testKey]; got != testPin {
		t.Errorf("cached pin = %q, want %q", got, testPin)
	}
	if view.Locked() {
		t.Error("correct PIN should unlock the view")
	}
}

func TestVerifyPinErrors(t *testing.T) {
	ctx := context.Background()
	h := newHarness()
	h.store.addRoom(testKey, testPin, ownerID)
	view := h.view("", sessionID)

	tests := []struct {
		name string
		key  string
		pin  string
		want error
	}{
		{name: "letters", key: testKey, pin: "12a4", want: domain.ErrValidation},
		{name: "too short", key: testKey, pin: "123", want: domain.ErrValidation},
		{name: "empty", key: testKey, pin: "", want: domain.ErrValidation},
		{name: "unknown room", key: "nope", pin: "1234", want: domain.ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ok, err := view.VerifyPin(ctx, tt.key, tt.pin)
			if ok || !errors.Is(err, tt.want) {
				t.Errorf("VerifyPin() = %v, %v; want false, %v", ok, err, tt.want)
			}
		})
	}
}

func TestVerifyPinClearsStaleCache(t *testing.T) {
	ctx := context.Background()
	h := newHarness()
	h.store.addRoom(testKey, testPin, ownerID)
	h.pins.entries[sessionID+"|"+testKey] = "9999"

	view := h.view("", sessionID)
	if err := view.Load(ctx, testKey); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if !view.Locked() {
		t.Error("stale cached PIN must not unlock")
	}
	if _, ok := h.pins.entries[sessionID+"|"+testKey]; ok {
		t.Error("stale cache entry was not removed")
	}
}

func TestLoadStates(t *testing.T) {
	ctx := context.Background()

	t.Run("not found", func(t *testing.T) {
		h := newHarness()
		view := h.view("", sessionID)
		err := view.Load(ctx, "missing")
		if !errors.Is(err, domain.ErrNotFound) {
			t.Fatalf("Load() error = %v, want not found", err)
		}
		if view.State() != roomsysSvc.StateNotFound {
			t.Errorf("state = %s, want %s", view.State(), roomsysSvc.StateNotFound)
		}
	})

	t.Run("remote failure", func(t *testing.T) {
		h := newHarness()
		h.store.addRoom(testKey, testPin, ownerID)
		h.store.failListFiles = true
		view := h.view("", sessionID)
		err := view.Load(ctx, testKey)
		if !errors.Is(err, domain.ErrRemote) {
			t.Fatalf("Load() error = %v, want remote failure", err)
		}
		if view.State() != roomsysSvc.StateLoadError || view.Room() != nil {
			t.Errorf("state = %s room = %v, want load_error and no room", view.State(), view.Room())
		}
	})

	t.Run("close resets", func(t *testing.T) {
		h := newHarness()
		view, _ := openOwned(t, h)
		view.Close()
		if view.State() != roomsysSvc.StateUnloaded || view.Room() != nil || view.Tree().FolderCount() != 0 {
			t.Error("Close() should return the view to unloaded")
		}
	})
}

func TestMutationsRequireUnlockedOwner(t *testing.T) {
	ctx := context.Background()
	h := newHarness()
	h.store.addRoom(testKey, testPin, ownerID)

	locked := h.view(ownerID, "")
	if err := locked.Load(ctx, testKey); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if _, err := locked.CreateFolder(ctx, "Docs", nil); !errors.Is(err, domain.ErrForbidden) {
		t.Errorf("locked CreateFolder() error = %v, want forbidden", err)
	}

	h.pins.entries["tab-2|"+testKey] = testPin
	visitor := h.view("someone-else", "tab-2")
	if err := visitor.Load(ctx, testKey); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if visitor.Locked() || visitor.IsOwner() {
		t.Fatal("visitor should be unlocked but not owner")
	}
	if _, err := visitor.CreateFolder(ctx, "Docs", nil); !errors.Is(err, domain.ErrForbidden) {
		t.Errorf("non-owner CreateFolder() error = %v, want forbidden", err)
	}
	if _, err := visitor.UploadFiles(ctx, []roomsysSvc.Upload{upload("a.pdf", 10)}, nil); !errors.Is(err, domain.ErrForbidden) {
		t.Errorf("non-owner UploadFiles() error = %v, want forbidden", err)
	}
	if len(h.blobs.objects) != 0 {
		t.Error("rejected upload reached storage")
	}
}

func TestCreateFolder(t *testing.T) {
	ctx := context.Background()
	h := newHarness()
	view, room := openOwned(t, h)

	parent, err := view.CreateFolder(ctx, "  Docs  ", nil)
	if err != nil {
		t.Fatalf("CreateFolder() error = %v", err)
	}
	if parent.ID == "" || parent.Name != "Docs" || parent.RoomID != room.ID || parent.CreatedBy != ownerID {
		t.Errorf("unexpected folder %+v", parent)
	}

	child, err := view.CreateFolder(ctx, "Drafts", &parent.ID)
	if err != nil {
		t.Fatalf("CreateFolder(child) error = %v", err)
	}
	node := view.Tree().FindFolder(parent.ID)
	if node == nil || len(node.Folders) != 1 || node.Folders[0].ID != child.ID {
		t.Errorf("child not nested under parent: %+v", node)
	}

	invalid := []struct {
		name   string
		parent *string
	}{
		{name: "   "},
		{name: "a/b"},
		{name: strings.Repeat("x", 256)},
		{name: "ok", parent: strPtr("folder-in-another-room")},
	}
	for _, tt := range invalid {
		if _, err := view.CreateFolder(ctx, tt.name, tt.parent); !errors.Is(err, domain.ErrValidation) {
			t.Errorf("CreateFolder(%q) error = %v, want validation", tt.name, err)
		}
	}
}

func TestCreateThenDeleteFolderRestoresTree(t *testing.T) {
	ctx := context.Background()
	h := newHarness()
	room := h.store.addRoom(testKey, testPin, ownerID)
	docs := h.store.addFolder(room.ID, "Docs", nil)
	h.store.addFile(room.ID, "a.txt", &docs)
	h.store.addFile(room.ID, "b.txt", nil)
	h.pins.entries[sessionID+"|"+testKey] = testPin

	view := h.view(ownerID, sessionID)
	if err := view.Load(ctx, testKey); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	before := view.Tree()

	folder, err := view.CreateFolder(ctx, "Scratch", &docs)
	if err != nil {
		t.Fatalf("CreateFolder() error = %v", err)
	}
	if err := view.DeleteFolder(ctx, folder.ID); err != nil {
		t.Fatalf("DeleteFolder() error = %v", err)
	}

	if !reflect.DeepEqual(view.Tree(), before) {
		t.Errorf("tree after round trip differs:\n got %+v\nwant %+v", view.Tree(), before)
	}
}

func TestDeleteFolderPromotesChildren(t *testing.T) {
	ctx := context.Background()
	h := newHarness()
	room := h.store.addRoom(testKey, testPin, ownerID)
	top := h.store.addFolder(room.ID, "Top", nil)
	mid := h.store.addFolder(room.ID, "Mid", &top)
	leaf := h.store.addFolder(room.ID, "Leaf", &mid)
	inMid := h.store.addFile(room.ID, "in-mid.txt", &mid)
	h.pins.entries[sessionID+"|"+testKey] = testPin

	view := h.view(ownerID, sessionID)
	if err := view.Load(ctx, testKey); err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if err := view.DeleteFolder(ctx, mid); err != nil {
		t.Fatalf("DeleteFolder() error = %v", err)
	}

	topNode := view.Tree().FindFolder(top)
	if len(topNode.Folders) != 1 || topNode.Folders[0].ID != leaf {
		t.Errorf("leaf should now sit under top, got %+v", topNode.Folders)
	}
	if len(topNode.Files) != 1 || topNode.Files[0].ID != inMid {
		t.Errorf("file should now sit under top, got %+v", topNode.Files)
	}
	if view.Tree().FindFolder(mid) != nil || h.store.folder(mid) != nil {
		t.Error("deleted folder still present")
	}
	if got := h.store.file(inMid).FolderID; got == nil || *got != top {
		t.Errorf("stored file folder = %v, want %s", got, top)
	}

	if err := view.DeleteFolder(ctx, mid); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("second DeleteFolder() error = %v, want not found", err)
	}
}

func TestDeleteFolderFailureAfterReparentReloads(t *testing.T) {
	ctx := context.Background()
	h := newHarness()
	room := h.store.addRoom(testKey, testPin, ownerID)
	parent := h.store.addFolder(room.ID, "Parent", nil)
	file := h.store.addFile(room.ID, "a.txt", &parent)
	h.pins.entries[sessionID+"|"+testKey] = testPin

	view := h.view(ownerID, sessionID)
	if err := view.Load(ctx, testKey); err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	h.store.failFolderDelete = true
	err := view.DeleteFolder(ctx, parent)
	var remote *domain.RemoteError
	if !errors.As(err, &remote) {
		t.Fatalf("DeleteFolder() error = %v, want *domain.RemoteError", err)
	}

	// The snapshot was re-fetched: folder still exists, file promoted to root
	if view.Tree().FindFolder(parent) == nil {
		t.Error("folder should still exist after failed delete")
	}
	if len(view.Tree().Files) != 1 || view.Tree().Files[0].ID != file {
		t.Errorf("reloaded tree should show the file at root, got %+v", view.Tree().Files)
	}
	if view.State() != roomsysSvc.StateLoaded || view.Locked() {
		t.Error("view should stay loaded and unlocked after reload")
	}
}

func TestDeleteFolderReparentFailureLeavesSnapshot(t *testing.T) {
	ctx := context.Background()
	h := newHarness()
	view, _ := openOwned(t, h)
	h.store.failFolderReparent = true

	folder, err := view.CreateFolder(ctx, "Docs", nil)
	if err != nil {
		t.Fatalf("CreateFolder() error = %v", err)
	}
	if err := view.DeleteFolder(ctx, folder.ID); !errors.Is(err, domain.ErrRemote) {
		t.Fatalf("DeleteFolder() error = %v, want remote failure", err)
	}
	if view.Tree().FindFolder(folder.ID) == nil {
		t.Error("folder should remain after failed reparent")
	}
}

func TestMoveFolder(t *testing.T) {
	ctx := context.Background()
	h := newHarness()
	room := h.store.addRoom(testKey, testPin, ownerID)
	a := h.store.addFolder(room.ID, "A", nil)
	b := h.store.addFolder(room.ID, "B", &a)
	c := h.store.addFolder(room.ID, "C", nil)
	h.pins.entries[sessionID+"|"+testKey] = testPin

	view := h.view(ownerID, sessionID)
	if err := view.Load(ctx, testKey); err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	tests := []struct {
		name   string
		folder string
		target *string
		want   error
	}{
		{name: "into itself", folder: a, target: &a, want: domain.ErrValidation},
		{name: "into descendant", folder: a, target: &b, want: domain.ErrValidation},
		{name: "into unknown folder", folder: a, target: strPtr("elsewhere"), want: domain.ErrValidation},
		{name: "unknown folder", folder: "ghost", target: nil, want: domain.ErrNotFound},
		{name: "into sibling", folder: a, target: &c},
		{name: "back to root", folder: a, target: nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			moved, err := view.MoveFolder(ctx, tt.folder, tt.target)
			if tt.want != nil {
				if !errors.Is(err, tt.want) {
					t.Fatalf("MoveFolder() error = %v, want %v", err, tt.want)
				}
				return
			}
			if err != nil {
				t.Fatalf("MoveFolder() error = %v", err)
			}
			if !reflect.DeepEqual(moved.ParentFolderID, tt.target) {
				t.Errorf("parent = %v, want %v", moved.ParentFolderID, tt.target)
			}
			if !reflect.DeepEqual(h.store.folder(tt.folder).ParentFolderID, tt.target) {
				t.Error("store not updated")
			}
		})
	}
}

func TestUploadFilesLimits(t *testing.T) {
	ctx := context.Background()
	h := newHarness()
	room := h.store.addRoom(testKey, testPin, ownerID)
	for i := 0; i < 9; i++ {
		h.store.addFile(room.ID, "existing.txt", nil)
	}
	h.pins.entries[sessionID+"|"+testKey] = testPin

	view := h.view(ownerID, sessionID)
	if err := view.Load(ctx, testKey); err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	const mib = 1 << 20
	result, err := view.UploadFiles(ctx, []roomsysSvc.Upload{
		upload("big.pdf", 11*mib),
		upload("small.pdf", 1*mib),
		upload("extra.pdf", 1*mib),
	}, nil)

	var partial *domain.PartialFailureError
	if !errors.As(err, &partial) {
		t.Fatalf("UploadFiles() error = %v, want *domain.PartialFailureError", err)
	}
	if result.Uploaded != 1 || result.Rejected != 2 || partial.Succeeded != 1 || len(partial.Items) != 2 {
		t.Fatalf("result = %+v partial = %+v", result, partial)
	}

	if !strings.Contains(result.Items[0].Reason, "too large") {
		t.Errorf("big.pdf reason = %q, want too large", result.Items[0].Reason)
	}
	if result.Items[1].File == nil || result.Items[1].Reason != "" {
		t.Errorf("small.pdf should be stored, got %+v", result.Items[1])
	}
	if !strings.Contains(result.Items[2].Reason, "room file limit reached") {
		t.Errorf("extra.pdf reason = %q, want file limit", result.Items[2].Reason)
	}

	wantPath := testKey + "/1700000000000-abc123.pdf"
	if _, ok := h.blobs.objects[wantPath]; !ok || len(h.blobs.objects) != 1 {
		t.Errorf("stored blobs = %v, want only %s", h.blobs.objects, wantPath)
	}
	if got := result.Items[1].File.URL; !strings.HasSuffix(got, wantPath) {
		t.Errorf("file url = %s", got)
	}
	if view.Tree().FileCount() != 10 {
		t.Errorf("tree file count = %d, want 10", view.Tree().FileCount())
	}
}

func TestUploadFilesRejectsEmptyAndBadTarget(t *testing.T) {
	ctx := context.Background()
	h := newHarness()
	view, _ := openOwned(t, h)

	result, err := view.UploadFiles(ctx, []roomsysSvc.Upload{upload("empty.txt", 0)}, nil)
	if !errors.Is(err, domain.ErrPartialFailure) || result.Items[0].Reason != "empty file" {
		t.Errorf("empty upload = %+v, %v", result, err)
	}

	if _, err := view.UploadFiles(ctx, []roomsysSvc.Upload{upload("a.pdf", 10)}, strPtr("other-room-folder")); !errors.Is(err, domain.ErrValidation) {
		t.Errorf("bad target error = %v, want validation", err)
	}
	if _, err := view.UploadFiles(ctx, nil, nil); !errors.Is(err, domain.ErrValidation) {
		t.Errorf("no files error = %v, want validation", err)
	}
	if h.blobs.putCalls != 0 {
		t.Errorf("rejected uploads reached storage %d times", h.blobs.putCalls)
	}
}

func TestUploadFilesCompensatesFailedInsert(t *testing.T) {
	ctx := context.Background()
	h := newHarness()
	view, _ := openOwned(t, h)
	h.store.failFileCreate = true

	result, err := view.UploadFiles(ctx, []roomsysSvc.Upload{upload("report.pdf", 100)}, nil)
	if !errors.Is(err, domain.ErrPartialFailure) {
		t.Fatalf("UploadFiles() error = %v, want partial failure", err)
	}
	if result.Uploaded != 0 || !strings.Contains(result.Items[0].Reason, "save failed") {
		t.Errorf("result = %+v", result)
	}
	if len(h.blobs.objects) != 0 || len(h.blobs.deleted) != 1 {
		t.Errorf("blob not compensated: objects=%v deleted=%v", h.blobs.objects, h.blobs.deleted)
	}
}

func TestUploadFilesContinuesAfterStorageFailure(t *testing.T) {
	ctx := context.Background()
	h := newHarness()
	view, _ := openOwned(t, h)
	h.blobs.failPutN = 1
	suffixes := []string{"one", "two"}
	view.deps.NewSuffix = func() string {
		s := suffixes[0]
		suffixes = suffixes[1:]
		return s
	}

	result, err := view.UploadFiles(ctx, []roomsysSvc.Upload{upload("a.txt", 5), upload("b.txt", 5)}, nil)
	if !errors.Is(err, domain.ErrPartialFailure) {
		t.Fatalf("UploadFiles() error = %v", err)
	}
	if result.Items[0].File != nil || result.Items[1].File == nil {
		t.Errorf("want first failed and second stored, got %+v", result.Items)
	}
	if _, ok := h.blobs.objects[testKey+"/1700000000000-two.txt"]; !ok {
		t.Errorf("second blob missing: %v", h.blobs.objects)
	}
}

func TestDeleteFile(t *testing.T) {
	ctx := context.Background()

	t.Run("removes blob and row", func(t *testing.T) {
		h := newHarness()
		view, _ := openOwned(t, h)
		result, _ := view.UploadFiles(ctx, []roomsysSvc.Upload{upload("a.pdf", 10)}, nil)
		id := result.Items[0].File.ID

		res, err := view.DeleteFile(ctx, id)
		if err != nil || res.StorageWarning != "" {
			t.Fatalf("DeleteFile() = %+v, %v", res, err)
		}
		if len(h.blobs.objects) != 0 || h.store.file(id) != nil || view.Tree().FileCount() != 0 {
			t.Error("file not fully removed")
		}
	})

	t.Run("storage failure is a warning", func(t *testing.T) {
		h := newHarness()
		view, _ := openOwned(t, h)
		result, _ := view.UploadFiles(ctx, []roomsysSvc.Upload{upload("a.pdf", 10)}, nil)
		id := result.Items[0].File.ID
		h.blobs.failDelete = true

		res, err := view.DeleteFile(ctx, id)
		if err != nil {
			t.Fatalf("DeleteFile() error = %v", err)
		}
		if res.StorageWarning == "" {
			t.Error("expected a storage warning")
		}
		if h.store.file(id) != nil {
			t.Error("metadata row should be deleted despite storage failure")
		}
	})

	t.Run("metadata failure is an error", func(t *testing.T) {
		h := newHarness()
		view, _ := openOwned(t, h)
		result, _ := view.UploadFiles(ctx, []roomsysSvc.Upload{upload("a.pdf", 10)}, nil)
		id := result.Items[0].File.ID
		h.store.failFileDelete = true

		if _, err := view.DeleteFile(ctx, id); !errors.Is(err, domain.ErrRemote) {
			t.Fatalf("DeleteFile() error = %v, want remote failure", err)
		}
		if view.Tree().FileCount() != 1 {
			t.Error("snapshot should keep the file")
		}
	})
}

func TestMoveFileAcrossRoomsRejected(t *testing.T) {
	ctx := context.Background()
	h := newHarness()
	room := h.store.addRoom(testKey, testPin, ownerID)
	other := h.store.addRoom("other-room", "5678", ownerID)
	foreign := h.store.addFolder(other.ID, "Foreign", nil)
	file := h.store.addFile(room.ID, "a.txt", nil)
	h.pins.entries[sessionID+"|"+testKey] = testPin

	view := h.view(ownerID, sessionID)
	if err := view.Load(ctx, testKey); err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if err := view.MoveFile(ctx, file, &foreign); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("MoveFile() error = %v, want validation", err)
	}
	if h.store.file(file).FolderID != nil || h.store.updateFolderCalls != 0 {
		t.Error("file should be unchanged and no update issued")
	}
	if len(view.Tree().Files) != 1 {
		t.Error("file should stay at root in the snapshot")
	}
}

func TestMoveFilesIsOneUpdate(t *testing.T) {
	ctx := context.Background()
	h := newHarness()
	room := h.store.addRoom(testKey, testPin, ownerID)
	docs := h.store.addFolder(room.ID, "Docs", nil)
	f1 := h.store.addFile(room.ID, "1.txt", nil)
	f2 := h.store.addFile(room.ID, "2.txt", nil)
	h.pins.entries[sessionID+"|"+testKey] = testPin

	view := h.view(ownerID, sessionID)
	if err := view.Load(ctx, testKey); err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if err := view.MoveFiles(ctx, []string{f1, "ghost"}, &docs); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("MoveFiles(with unknown) error = %v, want not found", err)
	}
	if h.store.updateFolderCalls != 0 {
		t.Fatal("invalid batch should not reach the gateway")
	}

	if err := view.MoveFiles(ctx, []string{f1, f2, f1}, &docs); err != nil {
		t.Fatalf("MoveFiles() error = %v", err)
	}
	if h.store.updateFolderCalls != 1 {
		t.Errorf("update calls = %d, want 1", h.store.updateFolderCalls)
	}
	if n := view.Tree().FindFolder(docs); len(n.Files) != 2 {
		t.Errorf("docs holds %d files, want 2", len(n.Files))
	}
}

func TestSelection(t *testing.T) {
	ctx := context.Background()
	h := newHarness()
	room := h.store.addRoom(testKey, testPin, ownerID)
	docs := h.store.addFolder(room.ID, "Docs", nil)
	old := h.store.addFolder(room.ID, "Old", nil)
	f1 := h.store.addFile(room.ID, "1.txt", nil)
	f2 := h.store.addFile(room.ID, "2.txt", nil)
	h.pins.entries[sessionID+"|"+testKey] = testPin

	view := h.view(ownerID, sessionID)
	if err := view.Load(ctx, testKey); err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if view.ToggleFileSelection("ghost") {
		t.Error("unknown ids should not be selectable")
	}
	if !view.ToggleFileSelection(f2) || !view.ToggleFileSelection(f1) {
		t.Fatal("toggle should select")
	}
	if view.ToggleFileSelection(f2) {
		t.Fatal("second toggle should deselect")
	}
	view.ToggleFileSelection(f2)
	if got := view.SelectedFiles(); !reflect.DeepEqual(got, []string{f1, f2}) {
		t.Errorf("SelectedFiles() = %v, want snapshot order", got)
	}

	view.ToggleFolderSelection(old)
	if err := view.MoveSelected(ctx, &docs); err != nil {
		t.Fatalf("MoveSelected() error = %v", err)
	}
	node := view.Tree().FindFolder(docs)
	if len(node.Files) != 2 || len(node.Folders) != 1 {
		t.Errorf("docs = %+v, want two files and one folder", node)
	}
	if len(view.SelectedFiles())+len(view.SelectedFolders()) != 0 {
		t.Error("selection should clear after a successful bulk move")
	}

	view.ToggleFileSelection(f1)
	view.ToggleFolderSelection(docs)
	if err := view.MoveSelected(ctx, &docs); !errors.Is(err, domain.ErrValidation) {
		t.Errorf("moving a folder into itself should fail validation, got %v", err)
	}
	if got := h.store.file(f1).FolderID; got == nil || *got != docs {
		t.Error("failed validation must not move any file")
	}
	view.ClearSelection()
	if len(view.SelectedFiles()) != 0 || len(view.SelectedFolders()) != 0 {
		t.Error("ClearSelection() left items selected")
	}
}

func TestMoveSelectedRollsBackOnFailure(t *testing.T) {
	ctx := context.Background()
	h := newHarness()
	room := h.store.addRoom(testKey, testPin, ownerID)
	target := h.store.addFolder(room.ID, "Target", nil)
	a := h.store.addFolder(room.ID, "A", nil)
	b := h.store.addFolder(room.ID, "B", nil)
	f := h.store.addFile(room.ID, "notes.txt", nil)
	h.pins.entries[sessionID+"|"+testKey] = testPin

	view := h.view(ownerID, sessionID)
	if err := view.Load(ctx, testKey); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	view.ToggleFileSelection(f)
	view.ToggleFolderSelection(a)
	view.ToggleFolderSelection(b)
	h.store.failFolderMoveN = 2

	err := view.MoveSelected(ctx, &target)
	if !errors.Is(err, domain.ErrRemote) {
		t.Fatalf("MoveSelected() error = %v, want remote failure", err)
	}

	if got := h.store.file(f).FolderID; got != nil {
		t.Errorf("store file folder = %v, want root", *got)
	}
	for _, id := range []string{a, b} {
		if got := h.store.folder(id).ParentFolderID; got != nil {
			t.Errorf("store folder %s parent = %v, want root", id, *got)
		}
	}

	tree := view.Tree()
	if len(tree.Files) != 1 || tree.FindFolder(target) == nil || len(tree.FindFolder(target).Folders) != 0 {
		t.Errorf("snapshot changed after failed move: %+v", tree)
	}
	if len(view.SelectedFiles()) != 1 || len(view.SelectedFolders()) != 2 {
		t.Error("selection should survive a failed move")
	}

	h.store.failFolderMoveN = 0
	if err := view.MoveSelected(ctx, &target); err != nil {
		t.Fatalf("retry MoveSelected() error = %v", err)
	}
	node := view.Tree().FindFolder(target)
	if len(node.Files) != 1 || len(node.Folders) != 2 {
		t.Errorf("target = %+v, want one file and two folders", node)
	}
}

func TestDeleteSelectedItemizes(t *testing.T) {
	ctx := context.Background()
	h := newHarness()
	room := h.store.addRoom(testKey, testPin, ownerID)
	docs := h.store.addFolder(room.ID, "Docs", nil)
	inDocs := h.store.addFile(room.ID, "in-docs.txt", &docs)
	loose := h.store.addFile(room.ID, "loose.txt", nil)
	h.pins.entries[sessionID+"|"+testKey] = testPin

	view := h.view(ownerID, sessionID)
	if err := view.Load(ctx, testKey); err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	view.ToggleFileSelection(loose)
	view.ToggleFolderSelection(docs)
	h.store.failFolderDelete = true

	result, err := view.DeleteSelected(ctx)
	if !errors.Is(err, domain.ErrPartialFailure) {
		t.Fatalf("DeleteSelected() error = %v, want partial failure", err)
	}
	if result.Succeeded != 1 || result.Failed != 1 {
		t.Fatalf("result = %+v", result)
	}
	if result.Items[0].ID != loose || result.Items[0].Error != "" {
		t.Errorf("file item = %+v", result.Items[0])
	}
	if result.Items[1].ID != docs || result.Items[1].Error == "" {
		t.Errorf("folder item = %+v", result.Items[1])
	}
	if got := view.SelectedFolders(); !reflect.DeepEqual(got, []string{docs}) {
		t.Errorf("failed folder should stay selected, got %v", got)
	}
	if h.store.file(loose) != nil {
		t.Error("loose file should be deleted")
	}
	if got := h.store.file(inDocs).FolderID; got != nil {
		t.Errorf("file in docs should have been promoted before the failed delete, got %v", *got)
	}
}

func TestBlobPathFromURL(t *testing.T) {
	tests := []struct {
		url     string
		want    string
		wantErr bool
	}{
		{url: "https://cdn.test/storage/v1/object/public/room-files/project-alpha/1700-abc.pdf", want: "project-alpha/1700-abc.pdf"},
		{url: "http://localhost:9000/room-files/r/x.bin/", want: "r/x.bin"},
		{url: "https://cdn.test/onlyone", wantErr: true},
		{url: "::not a url", wantErr: true},
	}
	for _, tt := range tests {
		got, err := BlobPathFromURL(tt.url)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("BlobPathFromURL(%q) = %q, %v; want %q, err=%v", tt.url, got, err, tt.want, tt.wantErr)
		}
	}
}

func TestBlobName(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{name: "report.PDF", want: "42-s.PDF"},
		{name: "archive.tar.gz", want: "42-s.gz"},
		{name: "no-extension", want: "42-s"},
		{name: "weird.ex t", want: "42-s"},
	}
	for _, tt := range tests {
		if got := blobName(tt.name, time.UnixMilli(42), "s"); got != tt.want {
			t.Errorf("blobName(%q) = %q, want %q", tt.name, got, tt.want)
		}
	}
}
