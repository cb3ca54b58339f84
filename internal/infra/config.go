package infra

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config represents application configuration loaded from environment variables.
type Config struct {
	AppEnv      string
	Port        string
	DatabaseURL string
	JWTSecret   string

	RedisAddr     string
	RedisPassword string

	CORSAllowedOrigins []string

	// Object storage. When MinioEndpoint is empty the service falls
	// back to a local file store rooted at StoragePath.
	MinioEndpoint  string
	MinioAccessKey string
	MinioSecretKey string
	MinioBucket    string
	MinioUseSSL    bool
	StoragePath    string
	StorageBaseURL string

	// Vendor credentials.
	StoryboardAPIKey  string
	StoryboardModel   string
	StoryboardBaseURL string
	ImageAPIKey       string
	ImageModel        string
	ImageBaseURL      string
	VideoAPIKey       string
	VideoModel        string
	VideoBaseURL      string

	HTTPReadTimeout  time.Duration
	HTTPWriteTimeout time.Duration
	HTTPIdleTimeout  time.Duration
	RateLimitPerMin  int

	ReconcileInterval time.Duration
	ReconcileCeiling  time.Duration
	WorkerConcurrency int
}

// LoadConfig loads configuration from environment variables and applies defaults where needed.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		AppEnv:      getEnv("APP_ENV", "development"),
		Port:        getEnv("PORT", "8080"),
		DatabaseURL: os.Getenv("DATABASE_URL"),
		JWTSecret:   os.Getenv("JWT_SECRET"),

		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),

		CORSAllowedOrigins: splitCSV(getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:3000")),

		MinioEndpoint:  os.Getenv("MINIO_ENDPOINT"),
		MinioAccessKey: os.Getenv("MINIO_ACCESS_KEY"),
		MinioSecretKey: os.Getenv("MINIO_SECRET_KEY"),
		MinioBucket:    getEnv("MINIO_BUCKET", "storyreel-media"),
		MinioUseSSL:    getEnvBool("MINIO_USE_SSL", false),
		StoragePath:    getEnv("STORAGE_PATH", "./storage"),
		StorageBaseURL: getEnv("STORAGE_BASE_URL", "http://localhost:8080/static"),

		StoryboardAPIKey:  os.Getenv("STORYBOARD_API_KEY"),
		StoryboardModel:   os.Getenv("STORYBOARD_MODEL"),
		StoryboardBaseURL: os.Getenv("STORYBOARD_BASE_URL"),
		ImageAPIKey:       os.Getenv("IMAGE_API_KEY"),
		ImageModel:        os.Getenv("IMAGE_MODEL"),
		ImageBaseURL:      os.Getenv("IMAGE_BASE_URL"),
		VideoAPIKey:       os.Getenv("VIDEO_API_KEY"),
		VideoModel:        os.Getenv("VIDEO_MODEL"),
		VideoBaseURL:      os.Getenv("VIDEO_BASE_URL"),

		HTTPReadTimeout:  time.Second * time.Duration(getEnvInt("HTTP_READ_TIMEOUT_SECONDS", 15)),
		HTTPWriteTimeout: time.Second * time.Duration(getEnvInt("HTTP_WRITE_TIMEOUT_SECONDS", 30)),
		HTTPIdleTimeout:  time.Second * time.Duration(getEnvInt("HTTP_IDLE_TIMEOUT_SECONDS", 60)),
		RateLimitPerMin:  getEnvInt("RATE_LIMIT_PER_MINUTE", 30),

		ReconcileInterval: time.Second * time.Duration(getEnvInt("RECONCILE_INTERVAL_SECONDS", 5)),
		ReconcileCeiling:  time.Second * time.Duration(getEnvInt("RECONCILE_CEILING_SECONDS", 600)),
		WorkerConcurrency: getEnvInt("WORKER_CONCURRENCY", 4),
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}

	return cfg, nil
}

func splitCSV(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}
