package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config хранит все конфигурационные параметры приложения.
type Config struct {
	DatabaseURL  string
	JWTSecretKey string
	ServerPort   int

	// RedisURL пустой: guard работает только в памяти процесса.
	RedisURL       string
	StatusGuardTTL time.Duration

	S3Endpoint        string
	S3Region          string
	S3AccessKeyID     string
	S3SecretAccessKey string
	S3BucketName      string
	S3PublicBaseURL   string
	S3UsePathStyle    bool

	CORSAllowedOrigins []string

	TransitionScheduleEnabled bool
	TransitionRunOnStart      bool

	// ExportLocation используется только для форматирования дат в выгрузке.
	ExportLocation *time.Location
}

// StorageEnabled reports whether photo uploads are configured.
func (c *Config) StorageEnabled() bool {
	return c.S3BucketName != "" && c.S3AccessKeyID != "" && c.S3SecretAccessKey != ""
}

// Load загружает конфигурацию из переменных окружения.
// Опционально подгружает .env файл (полезно для локальной разработки).
func Load() (*Config, error) {
	_ = godotenv.Load()

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		return nil, fmt.Errorf("DATABASE_URL environment variable is not set")
	}

	jwtKey := os.Getenv("JWT_SECRET_KEY")
	if jwtKey == "" {
		return nil, fmt.Errorf("JWT_SECRET_KEY environment variable is not set")
	}

	port, err := strconv.Atoi(getEnv("SERVER_PORT", "8080"))
	if err != nil {
		return nil, fmt.Errorf("invalid SERVER_PORT environment variable: %w", err)
	}
	if port <= 0 || port > 65535 {
		return nil, fmt.Errorf("SERVER_PORT must be between 1 and 65535, got %d", port)
	}

	guardTTL, err := time.ParseDuration(getEnv("STATUS_GUARD_TTL", "30s"))
	if err != nil || guardTTL <= 0 {
		return nil, fmt.Errorf("invalid STATUS_GUARD_TTL environment variable: %q", os.Getenv("STATUS_GUARD_TTL"))
	}

	pathStyle, err := getBool("S3_USE_PATH_STYLE", false)
	if err != nil {
		return nil, err
	}
	scheduleEnabled, err := getBool("TRANSITION_SCHEDULE_ENABLED", true)
	if err != nil {
		return nil, err
	}
	runOnStart, err := getBool("TRANSITION_RUN_ON_START", false)
	if err != nil {
		return nil, err
	}

	loc, err := time.LoadLocation(getEnv("EXPORT_TIMEZONE", "UTC"))
	if err != nil {
		return nil, fmt.Errorf("invalid EXPORT_TIMEZONE environment variable: %w", err)
	}

	cfg := &Config{
		DatabaseURL:               dbURL,
		JWTSecretKey:              jwtKey,
		ServerPort:                port,
		RedisURL:                  os.Getenv("REDIS_URL"),
		StatusGuardTTL:            guardTTL,
		S3Endpoint:                os.Getenv("S3_ENDPOINT"),
		S3Region:                  getEnv("S3_REGION", "auto"),
		S3AccessKeyID:             os.Getenv("S3_ACCESS_KEY_ID"),
		S3SecretAccessKey:         os.Getenv("S3_SECRET_ACCESS_KEY"),
		S3BucketName:              os.Getenv("S3_BUCKET"),
		S3PublicBaseURL:           os.Getenv("S3_PUBLIC_BASE_URL"),
		S3UsePathStyle:            pathStyle,
		CORSAllowedOrigins:        splitList(getEnv("CORS_ALLOWED_ORIGINS", "*")),
		TransitionScheduleEnabled: scheduleEnabled,
		TransitionRunOnStart:      runOnStart,
		ExportLocation:            loc,
	}

	if cfg.S3BucketName != "" && cfg.S3PublicBaseURL == "" {
		return nil, fmt.Errorf("S3_PUBLIC_BASE_URL must be set when S3_BUCKET is set")
	}

	return cfg, nil
}

func getEnv(key, def string) string {
	if v, ok := os.LookupEnv(key); ok && strings.TrimSpace(v) != "" {
		return strings.TrimSpace(v)
	}
	return def
}

func getBool(key string, def bool) (bool, error) {
	raw, ok := os.LookupEnv(key)
	if !ok || strings.TrimSpace(raw) == "" {
		return def, nil
	}
	v, err := strconv.ParseBool(strings.TrimSpace(raw))
	if err != nil {
		return false, fmt.Errorf("invalid %s environment variable: %w", key, err)
	}
	return v, nil
}

func splitList(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
