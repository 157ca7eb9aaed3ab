package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"pinroom/internal/auth"
	"pinroom/internal/cache"
	"pinroom/internal/config"
	"pinroom/internal/domain/repositories"
	"pinroom/internal/handler"
	"pinroom/internal/middleware"
	"pinroom/internal/repository/postgres"
	postgresRoomsys "pinroom/internal/repository/postgres/roomsys"
	serviceRoomsys "pinroom/internal/service/roomsys"
	"pinroom/internal/storage"
	"pinroom/internal/tracing"

	"github.com/joho/godotenv"
	"github.com/rs/cors"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const serviceVersion = "1.0.0"

func main() {
	// Load .env file (silently ignore if it doesn't exist - for production)
	_ = godotenv.Load()

	cfg := config.Load()

	logger, closeLog, err := config.NewLogger(cfg)
	if err != nil {
		log.Fatalf("Failed to set up logging: %v", err)
	}
	defer closeLog()

	logger.Info("server starting",
		"environment", cfg.Environment,
		"port", cfg.Port,
		"table_prefix", cfg.TablePrefix,
		"max_file_size_bytes", cfg.Limits.Upload.MaxFileSizeBytes,
		"max_files_per_room", cfg.Limits.Upload.MaxFilesPerRoom,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracer, err := tracing.InitTracer(ctx, cfg.ServiceName, serviceVersion, cfg.OTelEndpoint, logger)
	if err != nil {
		log.Fatalf("Failed to initialize tracer: %v", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracer(shutdownCtx); err != nil {
			logger.Warn("tracer shutdown failed", "error", err)
		}
	}()

	// Create JWT verifier for Supabase authentication
	jwtVerifier, err := auth.NewJWTVerifier(ctx, cfg.SupabaseJWKSURL, logger)
	if err != nil {
		log.Fatalf("Failed to create JWT verifier: %v", err)
	}
	defer jwtVerifier.Close()

	// Create pgx connection pool
	pool, err := postgres.CreateConnectionPool(ctx, cfg.SupabaseDBURL)
	if err != nil {
		log.Fatalf("Failed to create connection pool: %v", err)
	}
	defer pool.Close()

	tables := postgres.NewTableNames(cfg.TablePrefix)
	if err := postgres.EnsureSchema(ctx, pool, tables, cfg.TablePrefix); err != nil {
		log.Fatalf("Failed to ensure schema: %v", err)
	}
	logger.Info("database connected", "rooms_table", tables.Rooms)

	repoConfig := &postgres.RepositoryConfig{
		Pool:   pool,
		Tables: tables,
		Logger: logger,
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
	logger.Info("object storage connected", "bucket", cfg.StorageBucket, "public_url", cfg.StoragePublicURL)

	var pins repositories.PinCache
	if cfg.RedisAddr != "" {
		redisPins, err := cache.NewRedisPinCache(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, cfg.Limits.PIN.CacheTTL)
		if err != nil {
			log.Fatalf("Failed to connect to Redis: %v", err)
		}
		defer redisPins.Close()
		pins = redisPins
		logger.Info("pin cache: redis", "addr", cfg.RedisAddr)
	} else {
		pins = cache.NewMemoryPinCache(cfg.Limits.PIN.CacheTTL)
		logger.Warn("pin cache: in-process, verified PINs are lost on restart and not shared between instances")
	}

	deps := &serviceRoomsys.Dependencies{
		Rooms:     postgresRoomsys.NewRoomRepository(repoConfig),
		Folders:   postgresRoomsys.NewFolderRepository(repoConfig),
		Files:     postgresRoomsys.NewFileRepository(repoConfig),
		Blobs:     blobs,
		Pins:      pins,
		TxManager: postgres.NewTransactionManager(pool, logger),
		Limits:    cfg.Limits,
		Logger:    logger,
	}

	var admin *auth.AdminClient
	if cfg.ServiceRoleKey != "" {
		admin = auth.NewAdminClient(cfg.SupabaseURL, cfg.ServiceRoleKey)
	} else {
		logger.Warn("SUPABASE_SERVICE_ROLE_KEY not set, account deletion is disabled")
	}
	identity := auth.NewGoTrueClient(cfg.SupabaseURL, cfg.SupabaseKey, admin)

	roomService := serviceRoomsys.NewRoomService(deps)
	accountService := serviceRoomsys.NewAccountService(identity, deps)
	viewOpener := serviceRoomsys.NewViewOpener(deps)

	handlers := &handler.Handlers{
		Auth: handler.NewAuthHandler(accountService, logger),
		User: handler.NewUserHandler(roomService, accountService, logger),
		Room: handler.NewRoomHandler(roomService, logger),
		View: handler.NewViewHandler(viewOpener, cfg.Limits, logger),
	}

	logger.Info("services initialized")

	mux := http.NewServeMux()
	handlers.Register(mux, func(pattern string, next http.Handler) http.Handler {
		return otelhttp.NewHandler(next, pattern)
	})

	// Build middleware chain
	var h http.Handler = mux

	// Order: CORS → Recovery → Auth → Routes
	h = middleware.OptionalAuth(jwtVerifier, logger)(h)
	h = middleware.Recovery(logger)(h)

	// CORS - Must be outermost to handle OPTIONS pre-flight requests
	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   strings.Split(cfg.CORSOrigins, ","),
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Session-ID"},
		AllowCredentials: true,
	})
	h = corsHandler.Handler(h)

	server := &http.Server{
		Addr:        ":" + cfg.Port,
		Handler:     h,
		ReadTimeout: 60 * time.Second, // multipart uploads
		IdleTimeout: 60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "port", cfg.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server failed", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
	}

	logger.Info("server exited")
}
