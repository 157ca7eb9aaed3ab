package handler

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"pinroom/internal/config"
	"pinroom/internal/domain"
	"pinroom/internal/domain/models/roomsys"
	roomsysSvc "pinroom/internal/domain/services/roomsys"
	"pinroom/internal/httputil"
)

// multipartMemory is how much of a multipart body stays in memory; the rest spills
// to temporary files
const multipartMemory = 8 << 20

// ViewHandler serves everything under /api/rooms/{key}. Each request opens a room view
// for the caller's session, so a PIN verified once unlocks later requests through
// the PIN cache.
type ViewHandler struct {
	opener roomsysSvc.ViewOpener
	limits *config.Limits
	logger *slog.Logger
}

// NewViewHandler creates a new room view handler
func NewViewHandler(opener roomsysSvc.ViewOpener, limits *config.Limits, logger *slog.Logger) *ViewHandler {
	return &ViewHandler{
		opener: opener,
		limits: limits,
		logger: logger,
	}
}

type roomViewResponse struct {
	Room    *roomsys.Room        `json:"room"`
	State   roomsysSvc.ViewState `json:"state"`
	Locked  bool                 `json:"locked"`
	IsOwner bool                 `json:"is_owner"`
	Tree    *roomsys.Tree        `json:"tree,omitempty"`
}

type verifyPinRequest struct {
	Pin string `json:"pin"`
}

type createFolderRequest struct {
	Name           string  `json:"name"`
	ParentFolderID *string `json:"parent_folder_id"`
}

type moveFolderRequest struct {
	ParentFolderID httputil.OptionalString `json:"parent_folder_id"`
}

type moveFileRequest struct {
	FolderID httputil.OptionalString `json:"folder_id"`
}

type moveFilesRequest struct {
	FileIDs  []string                `json:"file_ids"`
	FolderID httputil.OptionalString `json:"folder_id"`
}

type itemsRequest struct {
	FileIDs   []string                `json:"file_ids"`
	FolderIDs []string                `json:"folder_ids"`
	FolderID  httputil.OptionalString `json:"folder_id"` // move target
}

func session(r *http.Request) roomsysSvc.ViewSession {
	return roomsysSvc.ViewSession{
		UserID:    httputil.GetUserID(r),
		SessionID: httputil.GetSessionID(r),
	}
}

// open loads the room named by the {key} path value, or writes the error
func (h *ViewHandler) open(w http.ResponseWriter, r *http.Request) (roomsysSvc.RoomView, bool) {
	view, err := h.opener.OpenView(r.Context(), session(r), r.PathValue("key"))
	if err != nil {
		handleError(w, err)
		return nil, false
	}
	return view, true
}

// GetRoom returns the room and, once unlocked, its tree
// GET /api/rooms/{key}
func (h *ViewHandler) GetRoom(w http.ResponseWriter, r *http.Request) {
	view, ok := h.open(w, r)
	if !ok {
		return
	}
	defer view.Close()

	resp := roomViewResponse{
		Room:    view.Room(),
		State:   view.State(),
		Locked:  view.Locked(),
		IsOwner: view.IsOwner(),
	}
	if !resp.Locked {
		resp.Tree = view.Tree()
	}

	httputil.RespondJSON(w, http.StatusOK, resp)
}

// VerifyPin checks a PIN and remembers it for the session when it matches
// POST /api/rooms/{key}/verify-pin
func (h *ViewHandler) VerifyPin(w http.ResponseWriter, r *http.Request) {
	var req verifyPinRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		handleError(w, err)
		return
	}

	view := h.opener.NewView(session(r))
	defer view.Close()

	valid, err := view.VerifyPin(r.Context(), r.PathValue("key"), req.Pin)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, map[string]bool{"valid": valid})
}

// CreateFolder creates a folder under parent_folder_id (null = root)
// POST /api/rooms/{key}/folders
func (h *ViewHandler) CreateFolder(w http.ResponseWriter, r *http.Request) {
	var req createFolderRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		handleError(w, err)
		return
	}

	view, ok := h.open(w, r)
	if !ok {
		return
	}
	defer view.Close()

	folder, err := view.CreateFolder(r.Context(), req.Name, req.ParentFolderID)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusCreated, folder)
}

// MoveFolder re-parents a folder. parent_folder_id must be present; null moves to root.
// PATCH /api/rooms/{key}/folders/{id}
func (h *ViewHandler) MoveFolder(w http.ResponseWriter, r *http.Request) {
	var req moveFolderRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		handleError(w, err)
		return
	}
	if !req.ParentFolderID.Present {
		httputil.RespondError(w, http.StatusBadRequest, "parent_folder_id is required")
		return
	}

	view, ok := h.open(w, r)
	if !ok {
		return
	}
	defer view.Close()

	folder, err := view.MoveFolder(r.Context(), r.PathValue("id"), req.ParentFolderID.Value)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, folder)
}

// DeleteFolder deletes a folder and promotes its contents to its parent
// DELETE /api/rooms/{key}/folders/{id}
func (h *ViewHandler) DeleteFolder(w http.ResponseWriter, r *http.Request) {
	view, ok := h.open(w, r)
	if !ok {
		return
	}
	defer view.Close()

	if err := view.DeleteFolder(r.Context(), r.PathValue("id")); err != nil {
		handleError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// UploadFiles stores the multipart "files" parts in form field folder_id (empty = root)
// POST /api/rooms/{key}/files
func (h *ViewHandler) UploadFiles(w http.ResponseWriter, r *http.Request) {
	// Oversized single files are rejected per item; this only bounds the request
	maxBody := h.limits.Upload.MaxFileSizeBytes*int64(h.limits.Upload.MaxFilesPerRoom) + multipartMemory
	r.Body = http.MaxBytesReader(w, r.Body, maxBody)

	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			handleError(w, err)
			return
		}
		httputil.RespondError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	var folderID *string
	if id := r.FormValue("folder_id"); id != "" {
		folderID = &id
	}

	headers := r.MultipartForm.File["files"]
	uploads := make([]roomsysSvc.Upload, 0, len(headers))
	for _, fh := range headers {
		f, err := fh.Open()
		if err != nil {
			httputil.RespondError(w, http.StatusBadRequest, fmt.Sprintf("cannot read %s", fh.Filename))
			return
		}
		defer f.Close()
		uploads = append(uploads, roomsysSvc.Upload{
			Name:        fh.Filename,
			ContentType: fh.Header.Get("Content-Type"),
			Size:        fh.Size,
			Body:        f,
		})
	}

	view, ok := h.open(w, r)
	if !ok {
		return
	}
	defer view.Close()

	result, err := view.UploadFiles(r.Context(), uploads, folderID)
	respondItemized(w, http.StatusCreated, result, err)
}

// MoveFile moves one file. folder_id must be present; null moves to root.
// PATCH /api/rooms/{key}/files/{id}
func (h *ViewHandler) MoveFile(w http.ResponseWriter, r *http.Request) {
	var req moveFileRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		handleError(w, err)
		return
	}
	if !req.FolderID.Present {
		httputil.RespondError(w, http.StatusBadRequest, "folder_id is required")
		return
	}

	view, ok := h.open(w, r)
	if !ok {
		return
	}
	defer view.Close()

	if err := view.MoveFile(r.Context(), r.PathValue("id"), req.FolderID.Value); err != nil {
		handleError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// DeleteFile deletes a file. A blob that could not be removed is reported as
// storage_warning on an otherwise successful response.
// DELETE /api/rooms/{key}/files/{id}
func (h *ViewHandler) DeleteFile(w http.ResponseWriter, r *http.Request) {
	view, ok := h.open(w, r)
	if !ok {
		return
	}
	defer view.Close()

	result, err := view.DeleteFile(r.Context(), r.PathValue("id"))
	if err != nil {
		handleError(w, err)
		return
	}
	if result.StorageWarning != "" {
		h.logger.Warn("file deleted with storage warning",
			"room_key", r.PathValue("key"),
			"file_id", result.FileID,
			"warning", result.StorageWarning,
		)
	}

	httputil.RespondJSON(w, http.StatusOK, result)
}

// MoveFiles moves several files in one all-or-nothing update
// POST /api/rooms/{key}/files/move
func (h *ViewHandler) MoveFiles(w http.ResponseWriter, r *http.Request) {
	var req moveFilesRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		handleError(w, err)
		return
	}
	if !req.FolderID.Present {
		httputil.RespondError(w, http.StatusBadRequest, "folder_id is required")
		return
	}

	view, ok := h.open(w, r)
	if !ok {
		return
	}
	defer view.Close()

	if err := view.MoveFiles(r.Context(), req.FileIDs, req.FolderID.Value); err != nil {
		handleError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// DeleteItems deletes the listed files and folders as one itemized bulk action
// POST /api/rooms/{key}/items/delete
func (h *ViewHandler) DeleteItems(w http.ResponseWriter, r *http.Request) {
	var req itemsRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		handleError(w, err)
		return
	}

	view, ok := h.open(w, r)
	if !ok {
		return
	}
	defer view.Close()

	if err := selectItems(view, &req); err != nil {
		handleError(w, err)
		return
	}

	result, err := view.DeleteSelected(r.Context())
	respondItemized(w, http.StatusOK, result, err)
}

// MoveItems moves the listed files and folders to folder_id (null = root). Every move
// is checked before the first one is written.
// POST /api/rooms/{key}/items/move
func (h *ViewHandler) MoveItems(w http.ResponseWriter, r *http.Request) {
	var req itemsRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		handleError(w, err)
		return
	}
	if !req.FolderID.Present {
		httputil.RespondError(w, http.StatusBadRequest, "folder_id is required")
		return
	}

	view, ok := h.open(w, r)
	if !ok {
		return
	}
	defer view.Close()

	if err := selectItems(view, &req); err != nil {
		handleError(w, err)
		return
	}

	if err := view.MoveSelected(r.Context(), req.FolderID.Value); err != nil {
		handleError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// selectItems puts the request's ids into the view's selection. Unknown ids are a
// NotFoundError; duplicates are ignored.
func selectItems(view roomsysSvc.RoomView, req *itemsRequest) error {
	if len(req.FileIDs) == 0 && len(req.FolderIDs) == 0 {
		return &domain.ValidationError{Message: "no items selected"}
	}

	seen := make(map[string]bool, len(req.FileIDs)+len(req.FolderIDs))
	for _, id := range req.FileIDs {
		if seen["file:"+id] {
			continue
		}
		seen["file:"+id] = true
		if !view.ToggleFileSelection(id) {
			return &domain.NotFoundError{Message: fmt.Sprintf("file %s not found", id)}
		}
	}
	for _, id := range req.FolderIDs {
		if seen["folder:"+id] {
			continue
		}
		seen["folder:"+id] = true
		if !view.ToggleFolderSelection(id) {
			return &domain.NotFoundError{Message: fmt.Sprintf("folder %s not found", id)}
		}
	}
	return nil
}
