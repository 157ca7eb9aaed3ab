package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// EnsureSchema creates the rooms, folders and files tables if they don't exist.
//
// On Supabase rooms.created_by references auth.users with ON DELETE CASCADE, so
// deleting a user removes their rooms and everything in them. Plain Postgres has no
// auth schema and gets the column without the foreign key.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool, tables *TableNames, tablePrefix string) error {
	if _, err := pool.Exec(ctx, `CREATE EXTENSION IF NOT EXISTS "pgcrypto"`); err != nil {
		return fmt.Errorf("enable pgcrypto: %w", err)
	}

	var hasAuthUsers bool
	if err := pool.QueryRow(ctx, `SELECT to_regclass('auth.users') IS NOT NULL`).Scan(&hasAuthUsers); err != nil {
		return fmt.Errorf("detect auth schema: %w", err)
	}
	ownerRef := ""
	if hasAuthUsers {
		ownerRef = " REFERENCES auth.users(id) ON DELETE CASCADE"
	}

	statements := []string{
		`CREATE TABLE IF NOT EXISTS ` + tables.Rooms + ` (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			key TEXT NOT NULL UNIQUE,
			name TEXT NOT NULL,
			pin TEXT NOT NULL,
			created_by UUID NOT NULL` + ownerRef + `,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS ` + tables.Folders + ` (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			room_id UUID NOT NULL REFERENCES ` + tables.Rooms + `(id) ON DELETE CASCADE,
			name TEXT NOT NULL,
			parent_folder_id UUID REFERENCES ` + tables.Folders + `(id) ON DELETE SET NULL,
			created_by UUID NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS ` + tables.Files + ` (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			room_id UUID NOT NULL REFERENCES ` + tables.Rooms + `(id) ON DELETE CASCADE,
			name TEXT NOT NULL,
			type TEXT NOT NULL,
			size BIGINT NOT NULL,
			url TEXT NOT NULL,
			folder_id UUID REFERENCES ` + tables.Folders + `(id) ON DELETE SET NULL,
			uploaded_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_` + tablePrefix + `rooms_created_by ON ` + tables.Rooms + `(created_by)`,
		`CREATE INDEX IF NOT EXISTS idx_` + tablePrefix + `folders_room_parent ON ` + tables.Folders + `(room_id, parent_folder_id)`,
		`CREATE INDEX IF NOT EXISTS idx_` + tablePrefix + `files_room_folder ON ` + tables.Files + `(room_id, folder_id)`,
	}

	for _, stmt := range statements {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("run schema: %w", err)
		}
	}

	return nil
}

// DropTables drops the tables in reverse dependency order
func DropTables(ctx context.Context, pool *pgxpool.Pool, tables *TableNames) error {
	for _, table := range []string{tables.Files, tables.Folders, tables.Rooms} {
		if _, err := pool.Exec(ctx, "DROP TABLE IF EXISTS "+table+" CASCADE"); err != nil {
			return fmt.Errorf("drop %s: %w", table, err)
		}
	}
	return nil
}
