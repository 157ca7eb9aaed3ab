package config

import (
	"os"
	"strconv"
	"strings"
)

type Config struct {
	Port            string
	Environment     string
	SupabaseURL     string
	SupabaseKey     string // anon key, sent with GoTrue requests
	SupabaseDBURL   string
	SupabaseJWKSURL string // Constructed from SupabaseURL + /auth/v1/.well-known/jwks.json
	ServiceRoleKey  string // admin API (account deletion, seeding)
	CORSOrigins     string
	TablePrefix     string

	// Object storage (S3 API)
	StorageEndpoint  string
	StorageAccessKey string
	StorageSecretKey string
	StorageBucket    string
	StorageRegion    string
	StorageUseSSL    bool
	StoragePublicURL string // base URL that public object URLs are built from

	// PIN session cache. Empty RedisAddr selects the in-process cache.
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// Tracing. Empty endpoint disables the exporter.
	OTelEndpoint string
	ServiceName  string

	// Optional log file
	LogDir      string
	LogMaxFiles int

	Limits *Limits
}

func Load() *Config {
	env := getEnv("ENVIRONMENT", "dev")
	tablePrefix := getTablePrefix(env)
	supabaseURL := strings.TrimRight(getEnv("SUPABASE_URL", ""), "/")

	// Construct JWKS URL from Supabase URL
	jwksURL := supabaseURL + "/auth/v1/.well-known/jwks.json"

	storageEndpoint := getEnv("STORAGE_ENDPOINT", "localhost:9000")
	storageUseSSL := getEnvAsBool("STORAGE_USE_SSL", false)
	storageBucket := getEnv("STORAGE_BUCKET", "room-files")

	return &Config{
		Port:            getEnv("PORT", "8080"),
		Environment:     env,
		SupabaseURL:     supabaseURL,
		SupabaseKey:     getEnv("SUPABASE_KEY", ""),
		SupabaseDBURL:   getEnv("SUPABASE_DB_URL", ""),
		SupabaseJWKSURL: jwksURL,
		ServiceRoleKey:  getEnv("SUPABASE_SERVICE_ROLE_KEY", ""),
		CORSOrigins:     getEnv("CORS_ORIGINS", "http://localhost:3000"),
		TablePrefix:     tablePrefix,

		StorageEndpoint:  storageEndpoint,
		StorageAccessKey: getEnv("STORAGE_ACCESS_KEY", "minioadmin"),
		StorageSecretKey: getEnv("STORAGE_SECRET_KEY", "minioadmin"),
		StorageBucket:    storageBucket,
		StorageRegion:    getEnv("STORAGE_REGION", ""),
		StorageUseSSL:    storageUseSSL,
		StoragePublicURL: getEnv("STORAGE_PUBLIC_URL", defaultPublicURL(storageEndpoint, storageBucket, storageUseSSL)),

		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvAsInt("REDIS_DB", 0),

		OTelEndpoint: getEnv("OTEL_EXPORTER_ENDPOINT", ""),
		ServiceName:  getEnv("SERVICE_NAME", "pinroom"),

		LogDir:      getEnv("LOG_DIR", ""),
		LogMaxFiles: getEnvAsInt("LOG_MAX_FILES", 10),

		Limits: LoadLimits(),
	}
}

// defaultPublicURL mirrors the path-style URLs an S3 endpoint serves public objects on.
func defaultPublicURL(endpoint, bucket string, useSSL bool) string {
	scheme := "http"
	if useSSL {
		scheme = "https"
	}
	return scheme + "://" + endpoint + "/" + bucket
}

// getTablePrefix returns the table prefix based on environment
func getTablePrefix(env string) string {
	// Allow manual override via TABLE_PREFIX env var
	if prefix := os.Getenv("TABLE_PREFIX"); prefix != "" {
		return prefix
	}

	switch env {
	case "prod":
		return "prod_"
	case "test":
		return "test_"
	default:
		return "dev_"
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value, err := strconv.Atoi(os.Getenv(key)); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value, err := strconv.ParseBool(os.Getenv(key)); err == nil {
		return value
	}
	return defaultValue
}
