package postgres

import (
	"context"
	"fmt"
	"log/slog"

	"pinroom/internal/domain/repositories"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// RepositoryConfig holds configuration for repository implementations
type RepositoryConfig struct {
	Pool   *pgxpool.Pool
	Tables *TableNames
	Logger *slog.Logger
}

// TableNames holds dynamically prefixed table names
type TableNames struct {
	Rooms   string
	Folders string
	Files   string
}

// NewTableNames creates table names with the given prefix
func NewTableNames(prefix string) *TableNames {
	return &TableNames{
		Rooms:   fmt.Sprintf("%srooms", prefix),
		Folders: fmt.Sprintf("%sfolders", prefix),
		Files:   fmt.Sprintf("%sfiles", prefix),
	}
}

// CreateConnectionPool creates a pgx pool and pings it.
//
// Supabase's transaction pooler (port 6543) does not support prepared statements, so
// for that port the pool switches to QueryExecModeCacheDescribe unless the connection
// string already sets default_query_exec_mode. Direct connections (5432) keep the
// default statement cache.
//
// Table names are interpolated with fmt.Sprintf before the statement is sent, so each
// prefix (dev_, test_, prod_) gets its own cached statements.
func CreateConnectionPool(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	config, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse connection string: %w", err)
	}

	config.MaxConns = 10
	config.MinConns = 2

	if config.ConnConfig.Port == 6543 && config.ConnConfig.DefaultQueryExecMode == pgx.QueryExecModeCacheStatement {
		config.ConnConfig.DefaultQueryExecMode = pgx.QueryExecModeCacheDescribe
		slog.Debug("auto-configured cache_describe mode for PgBouncer compatibility", "port", 6543)
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return pool, nil
}

// GetExecutor returns the transaction stored in ctx, or the pool when there is none,
// so repositories join an ExecTx transaction automatically.
func GetExecutor(ctx context.Context, pool *pgxpool.Pool) repositories.DBTX {
	if tx := repositories.GetTx(ctx); tx != nil {
		return tx
	}
	return pool
}
