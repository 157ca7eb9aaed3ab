package postgres

import (
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

func hasPgCode(err error, code string) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == code
}

// IsPgDuplicateError checks if error is a unique constraint violation (23505)
func IsPgDuplicateError(err error) bool {
	return hasPgCode(err, "23505")
}

// IsPgNoRowsError checks if error is a "no rows" error
func IsPgNoRowsError(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}

// IsPgForeignKeyError checks if error is a foreign key violation (23503), e.g. a
// folder_id pointing at a deleted folder
func IsPgForeignKeyError(err error) bool {
	return hasPgCode(err, "23503")
}

// IsPgInvalidTextError checks for 22P02, which Postgres returns when an id is not a
// valid uuid
func IsPgInvalidTextError(err error) bool {
	return hasPgCode(err, "22P02")
}
