package roomsys

import (
	"context"
	"fmt"
	"net/url"
	"path"
	"regexp"
	"strings"
	"time"

	"pinroom/internal/domain"
	models "pinroom/internal/domain/models/roomsys"
	roomsysSvc "pinroom/internal/domain/services/roomsys"

	"github.com/google/uuid"
)

const defaultContentType = "application/octet-stream"

var extPattern = regexp.MustCompile(`^\.[A-Za-z0-9]{1,16}$`)

// UploadFiles stores each upload as a blob plus a metadata row in folderID (nil = root).
//
// Files are checked first (name, size, the room's file ceiling) and rejected ones never
// reach storage. The rest are uploaded one at a time; a failure on one file does not
// stop the others. When the metadata insert fails the blob that was just written is
// removed again. Any rejection or failure returns the full result together with a
// *domain.PartialFailureError.
func (v *roomView) UploadFiles(ctx context.Context, uploads []roomsysSvc.Upload, folderID *string) (*roomsysSvc.UploadResult, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if err := v.requireWritable(); err != nil {
		return nil, err
	}
	if len(uploads) == 0 {
		return nil, fmt.Errorf("%w: no files provided", domain.ErrValidation)
	}

	folderID = normalizeID(folderID)
	if err := v.checkTarget(folderID); err != nil {
		return nil, err
	}

	limits := v.deps.Limits
	result := &roomsysSvc.UploadResult{Items: make([]roomsysSvc.UploadItem, len(uploads))}
	var failures []domain.ItemError

	reject := func(i int, reason string) {
		result.Items[i].Reason = reason
		result.Rejected++
		failures = append(failures, domain.ItemError{Name: uploads[i].Name, Reason: reason})
	}

	// Plan: validate everything before any remote call
	accepted := make([]int, 0, len(uploads))
	existing := len(v.fileRows)
	for i, upload := range uploads {
		result.Items[i].Name = upload.Name
		if reason := uploadRejection(upload, limits); reason != "" {
			reject(i, reason)
			continue
		}
		if existing+len(accepted) >= limits.Upload.MaxFilesPerRoom {
			reject(i, fmt.Sprintf("room file limit reached (%d files)", limits.Upload.MaxFilesPerRoom))
			continue
		}
		accepted = append(accepted, i)
	}

	for _, i := range accepted {
		file, reason := v.storeUpload(ctx, uploads[i], folderID)
		if reason != "" {
			reject(i, reason)
			continue
		}
		result.Items[i].File = file
		result.Uploaded++
	}

	if result.Uploaded > 0 {
		v.rebuild()
	}

	v.deps.Logger.Info("files uploaded",
		"room_key", v.room.Key,
		"folder_id", folderID,
		"uploaded", result.Uploaded,
		"rejected", result.Rejected,
	)

	if len(failures) > 0 {
		return result, &domain.PartialFailureError{
			Op:        "upload files",
			Succeeded: result.Uploaded,
			Items:     failures,
		}
	}
	return result, nil
}

// storeUpload writes one blob and its metadata row. It returns the stored file or the
// reason it was not stored.
func (v *roomView) storeUpload(ctx context.Context, upload roomsysSvc.Upload, folderID *string) (*models.FileItem, string) {
	contentType := upload.ContentType
	if contentType == "" {
		contentType = defaultContentType
	}
	blobPath := v.room.Key + "/" + blobName(upload.Name, v.deps.Now(), v.deps.NewSuffix())

	publicURL, err := v.deps.Blobs.Put(ctx, blobPath, upload.Body, upload.Size, contentType)
	if err != nil {
		v.deps.Logger.Warn("blob upload failed", "name", upload.Name, "path", blobPath, "error", err)
		return nil, fmt.Sprintf("upload failed: %v", err)
	}

	file := &models.FileItem{
		RoomID:     v.room.ID,
		Name:       upload.Name,
		Type:       contentType,
		Size:       upload.Size,
		URL:        publicURL,
		UploadedAt: v.deps.Now(),
		FolderID:   copyID(folderID),
	}
	if err := v.deps.Files.Create(ctx, file); err != nil {
		v.deps.Logger.Warn("file metadata insert failed, removing blob", "name", upload.Name, "path", blobPath, "error", err)
		if delErr := v.deps.Blobs.Delete(ctx, blobPath); delErr != nil {
			v.deps.Logger.Error("orphaned blob", "path", blobPath, "error", delErr)
		}
		return nil, fmt.Sprintf("save failed: %v", err)
	}

	v.fileRows = append(v.fileRows, *file)
	out := *file
	return &out, ""
}

// DeleteFile removes a file's blob, then its metadata row. A blob that cannot be
// removed does not block the row deletion; it is reported as a storage warning.
func (v *roomView) DeleteFile(ctx context.Context, fileID string) (*roomsysSvc.DeleteFileResult, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if err := v.requireWritable(); err != nil {
		return nil, err
	}
	return v.deleteFile(ctx, fileID)
}

func (v *roomView) deleteFile(ctx context.Context, fileID string) (*roomsysSvc.DeleteFileResult, error) {
	file := v.fileByID(fileID)
	if file == nil {
		return nil, &domain.NotFoundError{Message: fmt.Sprintf("file %s not found in room %s", fileID, v.room.Key)}
	}
	name := file.Name
	result := &roomsysSvc.DeleteFileResult{FileID: fileID}

	blobPath, err := BlobPathFromURL(file.URL)
	if err == nil {
		err = v.deps.Blobs.Delete(ctx, blobPath)
	}
	if err != nil {
		result.StorageWarning = fmt.Sprintf("stored bytes could not be removed: %v", err)
		v.deps.Logger.Warn("blob delete failed", "file_id", fileID, "url", file.URL, "error", err)
	}

	if err := v.deps.Files.Delete(ctx, v.room.ID, fileID); err != nil {
		return nil, domain.NewRemoteError("delete file", name, err)
	}

	kept := v.fileRows[:0]
	for _, f := range v.fileRows {
		if f.ID != fileID {
			kept = append(kept, f)
		}
	}
	v.fileRows = kept
	delete(v.selectedFiles, fileID)
	v.rebuild()

	v.deps.Logger.Info("file deleted", "id", fileID, "name", name, "room_key", v.room.Key)
	return result, nil
}

// MoveFile moves one file into targetID (nil = root)
func (v *roomView) MoveFile(ctx context.Context, fileID string, targetID *string) error {
	return v.MoveFiles(ctx, []string{fileID}, targetID)
}

// MoveFiles moves files into targetID (nil = root) with a single update. Every file and
// the target are checked against the loaded room first; one bad id rejects the batch.
func (v *roomView) MoveFiles(ctx context.Context, fileIDs []string, targetID *string) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if err := v.requireWritable(); err != nil {
		return err
	}

	targetID = normalizeID(targetID)
	ids, err := v.checkFileMove(fileIDs, targetID)
	if err != nil {
		return err
	}
	return v.moveFiles(ctx, ids, targetID)
}

// checkFileMove validates a batch move and returns the ids de-duplicated
func (v *roomView) checkFileMove(fileIDs []string, targetID *string) ([]string, error) {
	if len(fileIDs) == 0 {
		return nil, fmt.Errorf("%w: no files to move", domain.ErrValidation)
	}
	if err := v.checkTarget(targetID); err != nil {
		return nil, err
	}

	seen := make(map[string]bool, len(fileIDs))
	ids := make([]string, 0, len(fileIDs))
	for _, id := range fileIDs {
		if seen[id] {
			continue
		}
		seen[id] = true
		if v.fileByID(id) == nil {
			return nil, &domain.NotFoundError{Message: fmt.Sprintf("file %s not found in room %s", id, v.room.Key)}
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func (v *roomView) moveFiles(ctx context.Context, ids []string, targetID *string) error {
	if err := v.deps.Files.UpdateFolder(ctx, v.room.ID, ids, targetID); err != nil {
		return domain.NewRemoteError("move files", strings.Join(ids, ","), err)
	}

	for _, id := range ids {
		v.fileByID(id).FolderID = copyID(targetID)
	}
	v.rebuild()

	v.deps.Logger.Info("files moved",
		"count", len(ids),
		"room_key", v.room.Key,
		"folder_id", targetID,
	)
	return nil
}

// blobName builds a collision-resistant object name: "<unix millis>-<suffix><.ext>".
// The extension of the original name is kept when it is plain alphanumeric.
func blobName(original string, now time.Time, suffix string) string {
	ext := path.Ext(original)
	if !extPattern.MatchString(ext) {
		ext = ""
	}
	return fmt.Sprintf("%d-%s%s", now.UnixMilli(), suffix, ext)
}

func randomSuffix() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
}

// BlobPathFromURL recovers the "<room key>/<object name>" storage path from a public
// object URL: the last two path segments.
func BlobPathFromURL(raw string) (string, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("parse file url: %w", err)
	}
	segments := strings.Split(strings.Trim(u.Path, "/"), "/")
	if len(segments) < 2 || segments[len(segments)-2] == "" || segments[len(segments)-1] == "" {
		return "", fmt.Errorf("file url %q has no storage path", raw)
	}
	return segments[len(segments)-2] + "/" + segments[len(segments)-1], nil
}
