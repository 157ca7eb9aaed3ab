package roomsys

import (
	"context"
	"fmt"

	"pinroom/internal/domain"
	models "pinroom/internal/domain/models/roomsys"
	roomsysRepo "pinroom/internal/domain/repositories/roomsys"
	"pinroom/internal/repository/postgres"

	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresFileRepository implements the FileRepository interface
type PostgresFileRepository struct {
	pool   *pgxpool.Pool
	tables *postgres.TableNames
}

// NewFileRepository creates a new file metadata repository
func NewFileRepository(config *postgres.RepositoryConfig) roomsysRepo.FileRepository {
	return &PostgresFileRepository{
		pool:   config.Pool,
		tables: config.Tables,
	}
}

// Create inserts a file row
func (r *PostgresFileRepository) Create(ctx context.Context, file *models.FileItem) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (room_id, name, type, size, url, folder_id, uploaded_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, uploaded_at
	`, r.tables.Files)

	executor := postgres.GetExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query,
		file.RoomID,
		file.Name,
		file.Type,
		file.Size,
		file.URL,
		file.FolderID,
		file.UploadedAt,
	).Scan(&file.ID, &file.UploadedAt)

	if err != nil {
		if postgres.IsPgForeignKeyError(err) {
			return fmt.Errorf("%w: target folder no longer exists", domain.ErrValidation)
		}
		return fmt.Errorf("create file: %w", err)
	}

	return nil
}

// ListByRoom returns every file of a room in upload order
func (r *PostgresFileRepository) ListByRoom(ctx context.Context, roomID string) ([]models.FileItem, error) {
	query := fmt.Sprintf(`
		SELECT id, room_id, name, type, size, url, uploaded_at, folder_id
		FROM %s
		WHERE room_id = $1
		ORDER BY uploaded_at ASC
	`, r.tables.Files)

	executor := postgres.GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, query, roomID)
	if err != nil {
		return nil, fmt.Errorf("list files: %w", err)
	}
	defer rows.Close()

	var files []models.FileItem
	for rows.Next() {
		var file models.FileItem
		err := rows.Scan(
			&file.ID,
			&file.RoomID,
			&file.Name,
			&file.Type,
			&file.Size,
			&file.URL,
			&file.UploadedAt,
			&file.FolderID,
		)
		if err != nil {
			return nil, fmt.Errorf("scan file: %w", err)
		}
		files = append(files, file)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate files: %w", err)
	}

	if files == nil {
		files = []models.FileItem{}
	}

	return files, nil
}

// UpdateFolder moves all fileIDs in one statement. If any id is not a file of the room
// nothing is changed.
func (r *PostgresFileRepository) UpdateFolder(ctx context.Context, roomID string, fileIDs []string, folderID *string) error {
	if len(fileIDs) == 0 {
		return nil
	}

	query := fmt.Sprintf(`
		WITH targets AS (
			SELECT id FROM %[1]s WHERE room_id = $3 AND id = ANY($2::uuid[])
		)
		UPDATE %[1]s
		SET folder_id = $1
		WHERE id IN (SELECT id FROM targets)
			AND (SELECT COUNT(*) FROM targets) = $4
	`, r.tables.Files)

	executor := postgres.GetExecutor(ctx, r.pool)
	result, err := executor.Exec(ctx, query, folderID, fileIDs, roomID, len(fileIDs))
	if err != nil {
		if postgres.IsPgForeignKeyError(err) {
			return fmt.Errorf("%w: target folder no longer exists", domain.ErrValidation)
		}
		if postgres.IsPgInvalidTextError(err) {
			return fmt.Errorf("%w: malformed file id", domain.ErrValidation)
		}
		return fmt.Errorf("move files: %w", err)
	}

	if result.RowsAffected() != int64(len(fileIDs)) {
		return fmt.Errorf("files not in room %s: %w", roomID, domain.ErrNotFound)
	}

	return nil
}

// ReparentFolder points every file in folderID at newFolderID
func (r *PostgresFileRepository) ReparentFolder(ctx context.Context, roomID, folderID string, newFolderID *string) (int64, error) {
	query := fmt.Sprintf(`
		UPDATE %s
		SET folder_id = $1
		WHERE folder_id = $2 AND room_id = $3
	`, r.tables.Files)

	executor := postgres.GetExecutor(ctx, r.pool)
	result, err := executor.Exec(ctx, query, newFolderID, folderID, roomID)
	if err != nil {
		return 0, fmt.Errorf("reparent files: %w", err)
	}

	return result.RowsAffected(), nil
}

// Delete deletes one file row
func (r *PostgresFileRepository) Delete(ctx context.Context, roomID, fileID string) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE id = $1 AND room_id = $2`, r.tables.Files)

	executor := postgres.GetExecutor(ctx, r.pool)
	result, err := executor.Exec(ctx, query, fileID, roomID)
	if err != nil {
		return fmt.Errorf("delete file: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("file %s: %w", fileID, domain.ErrNotFound)
	}

	return nil
}
