package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"os"
	"strings"

	"pinroom/internal/auth"
	"pinroom/internal/cache"
	"pinroom/internal/config"
	"pinroom/internal/domain"
	roomsysSvc "pinroom/internal/domain/services/roomsys"
	"pinroom/internal/repository/postgres"
	postgresRoomsys "pinroom/internal/repository/postgres/roomsys"
	serviceRoomsys "pinroom/internal/service/roomsys"
	"pinroom/internal/storage"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
)

const (
	demoRoomKey  = "project-alpha"
	demoRoomName = "Project Alpha"
	demoRoomPin  = "1234"
	seedSession  = "seed"
)

// seedFolder is created under parent (empty = root) and filled with files
type seedFolder struct {
	name   string
	parent string
	files  map[string]string
}

var seedFolders = []seedFolder{
	{name: "Designs", files: map[string]string{"brief.txt": "Landing page refresh, first round.\n"}},
	{name: "Drafts", parent: "Designs", files: map[string]string{"notes.md": "# Drafts\n\n- hero copy\n- pricing table\n"}},
	{name: "Documents", files: map[string]string{"contract.txt": "Statement of work, v2.\n"}},
}

var seedRootFiles = map[string]string{
	"readme.txt": "Welcome to Project Alpha. The PIN is 1234.\n",
}

func main() {
	dropTables := flag.Bool("drop-tables", false, "Drop all tables before seeding (fresh start)")
	schemaOnly := flag.Bool("schema-only", false, "Only set up schema, don't seed rooms")
	clearData := flag.Bool("clear-data", false, "Delete all rooms and stored files (keep schema)")
	flag.Parse()

	_ = godotenv.Load()
	cfg := config.Load()

	// SAFETY: Prevent destructive operations in production
	if cfg.Environment == "prod" && (*dropTables || *clearData) {
		log.Fatalf("🚫 BLOCKED: Cannot run destructive operations (--drop-tables or --clear-data) in production environment")
	}

	logger, closeLog, err := config.NewLogger(cfg)
	if err != nil {
		log.Fatalf("Failed to set up logging: %v", err)
	}
	defer closeLog()

	if *clearData {
		log.Printf("🧹 Clearing data only (environment: %s, prefix: %s)", cfg.Environment, cfg.TablePrefix)
	} else if *schemaOnly {
		log.Printf("🏗️  Setting up schema only (environment: %s, prefix: %s)", cfg.Environment, cfg.TablePrefix)
	} else {
		log.Printf("🌱 Seeding database (environment: %s, prefix: %s)", cfg.Environment, cfg.TablePrefix)
	}

	ctx := context.Background()
	pool, err := postgres.CreateConnectionPool(ctx, cfg.SupabaseDBURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer pool.Close()

	tables := postgres.NewTableNames(cfg.TablePrefix)

	if *dropTables {
		log.Println("🗑️  Dropping all tables...")
		if err := postgres.DropTables(ctx, pool, tables); err != nil {
			log.Fatalf("Failed to drop tables: %v", err)
		}
		log.Println("✅ Tables dropped")
	}

	log.Println("📋 Ensuring database schema is up to date...")
	if err := postgres.EnsureSchema(ctx, pool, tables, cfg.TablePrefix); err != nil {
		log.Fatalf("Failed to run schema: %v", err)
	}
	log.Println("✅ Schema ready")

	if *schemaOnly {
		log.Println("✅ Schema setup complete (schema-only mode)")
		return
	}

	blobs, err := storage.NewMinioBlobStore(ctx, storage.MinioOptions{
		Endpoint:  cfg.StorageEndpoint,
		AccessKey: cfg.StorageAccessKey,
		SecretKey: cfg.StorageSecretKey,
		Bucket:    cfg.StorageBucket,
		Region:    cfg.StorageRegion,
		UseSSL:    cfg.StorageUseSSL,
		PublicURL: cfg.StoragePublicURL,
	}, logger)
	if err != nil {
		log.Fatalf("Failed to connect to object storage: %v", err)
	}

	if *clearData {
		log.Println("🧹 Deleting all rooms and stored files...")
		if err := clearAllData(ctx, pool, tables, blobs); err != nil {
			log.Fatalf("Failed to clear data: %v", err)
		}
		log.Println("✅ Data cleared successfully")
		return
	}

	repoConfig := &postgres.RepositoryConfig{
		Pool:   pool,
		Tables: tables,
		Logger: logger,
	}
	deps := &serviceRoomsys.Dependencies{
		Rooms:     postgresRoomsys.NewRoomRepository(repoConfig),
		Folders:   postgresRoomsys.NewFolderRepository(repoConfig),
		Files:     postgresRoomsys.NewFileRepository(repoConfig),
		Blobs:     blobs,
		Pins:      cache.NewMemoryPinCache(cfg.Limits.PIN.CacheTTL),
		TxManager: postgres.NewTransactionManager(pool, logger),
		Limits:    cfg.Limits,
		Logger:    logger,
	}
	roomService := serviceRoomsys.NewRoomService(deps)

	// Replace an earlier demo room so reruns start clean. This runs before the demo
	// user is recreated, whose deletion would cascade the room rows and strand the blobs.
	if existing, err := deps.Rooms.GetByKey(ctx, demoRoomKey); err == nil {
		log.Println("⚠️  Replacing existing demo room...")
		if err := roomService.DeleteRoom(ctx, existing.CreatedBy, existing.ID); err != nil {
			log.Fatalf("Failed to delete existing demo room: %v", err)
		}
	} else if !errors.Is(err, domain.ErrNotFound) {
		log.Fatalf("Failed to look up demo room: %v", err)
	}

	userID, err := ensureDemoUser(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to ensure demo user: %v", err)
	}
	log.Printf("👤 Demo user: %s", userID)

	room, err := roomService.CreateRoom(ctx, &roomsysSvc.CreateRoomRequest{
		UserID:    userID,
		SessionID: seedSession,
		Key:       demoRoomKey,
		Name:      demoRoomName,
		Pin:       demoRoomPin,
	})
	if err != nil {
		log.Fatalf("Failed to create demo room: %v", err)
	}
	log.Printf("✅ Created room %s (PIN %s)", room.Key, demoRoomPin)

	// CreateRoom cached the PIN for the seed session, so the view opens unlocked
	view, err := serviceRoomsys.NewViewOpener(deps).OpenView(ctx, roomsysSvc.ViewSession{UserID: userID, SessionID: seedSession}, room.Key)
	if err != nil {
		log.Fatalf("Failed to open demo room: %v", err)
	}
	defer view.Close()

	if err := uploadSeedFiles(ctx, view, seedRootFiles, nil); err != nil {
		log.Printf("❌ Root files: %v", err)
	}

	folderIDs := make(map[string]string, len(seedFolders))
	for _, sf := range seedFolders {
		var parent *string
		if sf.parent != "" {
			id := folderIDs[sf.parent]
			parent = &id
		}

		folder, err := view.CreateFolder(ctx, sf.name, parent)
		if err != nil {
			log.Printf("❌ Failed to create folder '%s': %v", sf.name, err)
			continue
		}
		folderIDs[sf.name] = folder.ID
		log.Printf("📁 Created folder %s (ID: %s)", sf.name, folder.ID)

		if err := uploadSeedFiles(ctx, view, sf.files, &folder.ID); err != nil {
			log.Printf("❌ Files in '%s': %v", sf.name, err)
		}
	}

	tree := view.Tree()
	log.Printf("🎉 Seeding complete! %d folders, %d files", tree.FolderCount(), tree.FileCount())
}

func uploadSeedFiles(ctx context.Context, view roomsysSvc.RoomView, files map[string]string, folderID *string) error {
	uploads := make([]roomsysSvc.Upload, 0, len(files))
	for name, content := range files {
		uploads = append(uploads, roomsysSvc.Upload{
			Name:        name,
			ContentType: "text/plain",
			Size:        int64(len(content)),
			Body:        strings.NewReader(content),
		})
	}

	result, err := view.UploadFiles(ctx, uploads, folderID)
	if result != nil {
		for _, item := range result.Items {
			if item.File != nil {
				log.Printf("  ✓ Uploaded %s", item.Name)
			}
		}
	}
	return err
}

// ensureDemoUser recreates the demo account through the admin API, or falls back
// to SEED_USER_ID when no service role key is configured.
func ensureDemoUser(ctx context.Context, cfg *config.Config) (string, error) {
	if cfg.ServiceRoleKey == "" {
		userID := os.Getenv("SEED_USER_ID")
		if userID == "" {
			return "", errors.New("set SUPABASE_SERVICE_ROLE_KEY or SEED_USER_ID")
		}
		return userID, nil
	}

	email := getEnv("SEED_USER_EMAIL", "demo@pinroom.dev")
	password := getEnv("SEED_USER_PASSWORD", "demo-password")

	admin := auth.NewAdminClient(cfg.SupabaseURL, cfg.ServiceRoleKey)
	if err := admin.DeleteUserByEmail(ctx, email); err != nil {
		return "", err
	}
	return admin.CreateUser(ctx, email, password)
}

// clearAllData deletes every room row (folders and files cascade) and every stored
// object in the bucket
func clearAllData(ctx context.Context, pool *pgxpool.Pool, tables *postgres.TableNames, blobs *storage.MinioBlobStore) error {
	if _, err := pool.Exec(ctx, "DELETE FROM "+tables.Rooms); err != nil {
		return err
	}
	removed, err := blobs.DeletePrefix(ctx, "")
	log.Printf("  ✓ Removed %d stored objects", removed)
	return err
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
