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

// PostgresFolderRepository implements the FolderRepository interface
type PostgresFolderRepository struct {
	pool   *pgxpool.Pool
	tables *postgres.TableNames
}

// NewFolderRepository creates a new folder repository
func NewFolderRepository(config *postgres.RepositoryConfig) roomsysRepo.FolderRepository {
	return &PostgresFolderRepository{
		pool:   config.Pool,
		tables: config.Tables,
	}
}

// Create inserts a folder
func (r *PostgresFolderRepository) Create(ctx context.Context, folder *models.Folder) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (room_id, name, parent_folder_id, created_by, created_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`, r.tables.Folders)

	executor := postgres.GetExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query,
		folder.RoomID,
		folder.Name,
		folder.ParentFolderID,
		folder.CreatedBy,
		folder.CreatedAt,
	).Scan(&folder.ID, &folder.CreatedAt)

	if err != nil {
		if postgres.IsPgForeignKeyError(err) {
			return fmt.Errorf("%w: parent folder no longer exists", domain.ErrValidation)
		}
		return fmt.Errorf("create folder: %w", err)
	}

	return nil
}

// ListByRoom returns every folder of a room, oldest first
func (r *PostgresFolderRepository) ListByRoom(ctx context.Context, roomID string) ([]models.Folder, error) {
	query := fmt.Sprintf(`
		SELECT id, room_id, name, parent_folder_id, created_by, created_at
		FROM %s
		WHERE room_id = $1
		ORDER BY created_at ASC
	`, r.tables.Folders)

	executor := postgres.GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, query, roomID)
	if err != nil {
		return nil, fmt.Errorf("list folders: %w", err)
	}
	defer rows.Close()

	var folders []models.Folder
	for rows.Next() {
		var folder models.Folder
		err := rows.Scan(
			&folder.ID,
			&folder.RoomID,
			&folder.Name,
			&folder.ParentFolderID,
			&folder.CreatedBy,
			&folder.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan folder: %w", err)
		}
		folders = append(folders, folder)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate folders: %w", err)
	}

	if folders == nil {
		folders = []models.Folder{}
	}

	return folders, nil
}

// UpdateParent moves a folder; nil parentID moves it to the root
func (r *PostgresFolderRepository) UpdateParent(ctx context.Context, roomID, folderID string, parentID *string) error {
	query := fmt.Sprintf(`
		UPDATE %s
		SET parent_folder_id = $1
		WHERE id = $2 AND room_id = $3
	`, r.tables.Folders)

	executor := postgres.GetExecutor(ctx, r.pool)
	result, err := executor.Exec(ctx, query, parentID, folderID, roomID)
	if err != nil {
		if postgres.IsPgForeignKeyError(err) {
			return fmt.Errorf("%w: target folder no longer exists", domain.ErrValidation)
		}
		return fmt.Errorf("move folder: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("folder %s: %w", folderID, domain.ErrNotFound)
	}

	return nil
}

// ReparentChildren points every direct child of folderID at newParentID
func (r *PostgresFolderRepository) ReparentChildren(ctx context.Context, roomID, folderID string, newParentID *string) (int64, error) {
	query := fmt.Sprintf(`
		UPDATE %s
		SET parent_folder_id = $1
		WHERE parent_folder_id = $2 AND room_id = $3
	`, r.tables.Folders)

	executor := postgres.GetExecutor(ctx, r.pool)
	result, err := executor.Exec(ctx, query, newParentID, folderID, roomID)
	if err != nil {
		return 0, fmt.Errorf("reparent child folders: %w", err)
	}

	return result.RowsAffected(), nil
}

// Delete deletes one folder
func (r *PostgresFolderRepository) Delete(ctx context.Context, roomID, folderID string) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE id = $1 AND room_id = $2`, r.tables.Folders)

	executor := postgres.GetExecutor(ctx, r.pool)
	result, err := executor.Exec(ctx, query, folderID, roomID)
	if err != nil {
		return fmt.Errorf("delete folder: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("folder %s: %w", folderID, domain.ErrNotFound)
	}

	return nil
}
