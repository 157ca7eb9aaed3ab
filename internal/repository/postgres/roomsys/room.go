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

// PostgresRoomRepository implements the RoomRepository interface
type PostgresRoomRepository struct {
	pool   *pgxpool.Pool
	tables *postgres.TableNames
}

// NewRoomRepository creates a new room repository
func NewRoomRepository(config *postgres.RepositoryConfig) roomsysRepo.RoomRepository {
	return &PostgresRoomRepository{
		pool:   config.Pool,
		tables: config.Tables,
	}
}

// Create inserts a room; a duplicate key becomes a ConflictError
func (r *PostgresRoomRepository) Create(ctx context.Context, room *models.Room) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (key, name, pin, created_by, created_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`, r.tables.Rooms)

	executor := postgres.GetExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query,
		room.Key,
		room.Name,
		room.Pin,
		room.CreatedBy,
		room.CreatedAt,
	).Scan(&room.ID, &room.CreatedAt)

	if err != nil {
		if postgres.IsPgDuplicateError(err) {
			return &domain.ConflictError{
				Message:      fmt.Sprintf("room key %q is already taken", room.Key),
				ResourceType: "room",
				ResourceID:   room.Key,
			}
		}
		return fmt.Errorf("create room: %w", err)
	}

	return nil
}

// GetByKey retrieves a room by its key
func (r *PostgresRoomRepository) GetByKey(ctx context.Context, key string) (*models.Room, error) {
	query := fmt.Sprintf(`
		SELECT id, key, name, pin, created_by, created_at
		FROM %s
		WHERE key = $1
	`, r.tables.Rooms)

	return r.getOne(ctx, query, key)
}

// GetByID retrieves a room by ID
func (r *PostgresRoomRepository) GetByID(ctx context.Context, id string) (*models.Room, error) {
	query := fmt.Sprintf(`
		SELECT id, key, name, pin, created_by, created_at
		FROM %s
		WHERE id = $1
	`, r.tables.Rooms)

	return r.getOne(ctx, query, id)
}

func (r *PostgresRoomRepository) getOne(ctx context.Context, query, arg string) (*models.Room, error) {
	var room models.Room
	executor := postgres.GetExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query, arg).Scan(
		&room.ID,
		&room.Key,
		&room.Name,
		&room.Pin,
		&room.CreatedBy,
		&room.CreatedAt,
	)

	if err != nil {
		if postgres.IsPgNoRowsError(err) || postgres.IsPgInvalidTextError(err) {
			return nil, fmt.Errorf("room %s: %w", arg, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get room: %w", err)
	}

	return &room, nil
}

// ListByOwner retrieves a user's rooms with file and folder totals, newest first
func (r *PostgresRoomRepository) ListByOwner(ctx context.Context, userID string) ([]models.RoomSummary, error) {
	query := fmt.Sprintf(`
		SELECT r.id, r.key, r.name, r.pin, r.created_by, r.created_at,
			(SELECT COUNT(*) FROM %[2]s f WHERE f.room_id = r.id),
			(SELECT COUNT(*) FROM %[3]s d WHERE d.room_id = r.id),
			(SELECT COALESCE(SUM(f.size), 0) FROM %[2]s f WHERE f.room_id = r.id)
		FROM %[1]s r
		WHERE r.created_by = $1
		ORDER BY r.created_at DESC
	`, r.tables.Rooms, r.tables.Files, r.tables.Folders)

	executor := postgres.GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list rooms: %w", err)
	}
	defer rows.Close()

	var rooms []models.RoomSummary
	for rows.Next() {
		var room models.RoomSummary
		err := rows.Scan(
			&room.ID,
			&room.Key,
			&room.Name,
			&room.Pin,
			&room.CreatedBy,
			&room.CreatedAt,
			&room.FileCount,
			&room.FolderCount,
			&room.TotalBytes,
		)
		if err != nil {
			return nil, fmt.Errorf("scan room: %w", err)
		}
		rooms = append(rooms, room)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rooms: %w", err)
	}

	if rooms == nil {
		rooms = []models.RoomSummary{}
	}

	return rooms, nil
}

// Delete deletes a room; folders and files go with it via ON DELETE CASCADE
func (r *PostgresRoomRepository) Delete(ctx context.Context, id string) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE id = $1`, r.tables.Rooms)

	executor := postgres.GetExecutor(ctx, r.pool)
	result, err := executor.Exec(ctx, query, id)
	if err != nil {
		if postgres.IsPgInvalidTextError(err) {
			return fmt.Errorf("room %s: %w", id, domain.ErrNotFound)
		}
		return fmt.Errorf("delete room: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("room %s: %w", id, domain.ErrNotFound)
	}

	return nil
}
