package main

import (
	"database/sql"
	"fmt"
	"log"

	"pinroom/internal/config"
	"pinroom/internal/repository/postgres"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	if cfg.SupabaseDBURL == "" {
		log.Fatal("SUPABASE_DB_URL environment variable is required")
	}
	if cfg.Environment == "prod" {
		log.Fatal("refusing to drop tables in the prod environment")
	}

	db, err := sql.Open("pgx", cfg.SupabaseDBURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer func() { _ = db.Close() }() // Error ignored: script exiting

	// Children first so foreign keys never block a drop
	tables := postgres.NewTableNames(cfg.TablePrefix)
	dropSQL := fmt.Sprintf(`
		DROP TABLE IF EXISTS %s CASCADE;
		DROP TABLE IF EXISTS %s CASCADE;
		DROP TABLE IF EXISTS %s CASCADE;
	`, tables.Files, tables.Folders, tables.Rooms)

	if _, err := db.Exec(dropSQL); err != nil {
		log.Fatalf("Failed to drop tables: %v", err)
	}

	fmt.Printf("All tables dropped successfully (prefix: %s)\n", cfg.TablePrefix)
}
