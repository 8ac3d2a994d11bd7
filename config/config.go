package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	BackendMemory = "memory"
	BackendMongo  = "mongo"
)

type Config struct {
	Port        string
	Environment string
	Domain      string
	LogLevel    string
	JWTSecret   string
	TokenTTL    time.Duration
	CORSOrigins []string

	StoreBackend  string
	MongoURI      string
	MongoDatabase string
	SeedFile      string
	SeedOnStart   bool
	AdminEmail    string
	AdminPassword string
	SubmitDelay   time.Duration
	MaxPhotoBytes int64
	MapboxToken   string

	RedisAddress    string
	RedisPassword   string
	RateLimitPrefix string
	IssueDailyLimit int

	MinioEndpoint   string
	MinioAccessKey  string
	MinioSecretKey  string
	MinioBucket     string
	MinioUseSSL     bool
	MinioInsecure   bool
	MinioPublicBase string
}

func (c Config) Production() bool {
	return c.Environment == "production"
}

func (c Config) RateLimitEnabled() bool {
	return c.RedisAddress != "" && c.RateLimitPrefix != "" && c.IssueDailyLimit > 0
}

func (c Config) PhotosEnabled() bool {
	return c.MinioEndpoint != ""
}

// LoadConfig reads settings from the environment, after loading a .env file
// when one is present.
func LoadConfig() (Config, error) {
	_ = godotenv.Load()

	cfg := Config{
		Port:        getEnv("PORT", "8080"),
		Environment: getEnv("GO_ENV", "development"),
		Domain:      getEnv("DOMAIN", ""),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		JWTSecret:   getEnv("JWT_SECRET", ""),
		CORSOrigins: splitList(getEnv("CORS_ORIGINS", "http://localhost:5173")),

		StoreBackend:  strings.ToLower(getEnv("STORE_BACKEND", BackendMemory)),
		MongoURI:      getEnv("MONGODB_URI", ""),
		MongoDatabase: getEnv("MONGODB_DATABASE", "mytown"),
		SeedFile:      getEnv("SEED_FILE", ""),
		AdminEmail:    getEnv("ADMIN_EMAIL", ""),
		AdminPassword: getEnv("ADMIN_PASSWORD", ""),
		MapboxToken:   getEnv("MAPBOX_TOKEN", ""),

		RedisAddress:    getEnv("REDIS_ADDRESS", ""),
		RedisPassword:   getEnv("REDIS_PASSWORD", ""),
		RateLimitPrefix: getEnv("REDIS_QUEUE_FOR_ISSUE_LIMIT", "issue-limit"),

		MinioEndpoint:   getEnv("MINIO_ENDPOINT", ""),
		MinioAccessKey:  getEnv("MINIO_ACCESS_KEY", ""),
		MinioSecretKey:  getEnv("MINIO_SECRET_KEY", ""),
		MinioBucket:     getEnv("MINIO_BUCKET", "issue-photos"),
		MinioPublicBase: getEnv("MINIO_PUBLIC_URL", ""),
	}

	var err error
	if cfg.TokenTTL, err = time.ParseDuration(getEnv("TOKEN_TTL", "72h")); err != nil {
		return Config{}, fmt.Errorf("TOKEN_TTL: %w", err)
	}
	if cfg.SubmitDelay, err = time.ParseDuration(getEnv("SUBMIT_DELAY", "0s")); err != nil {
		return Config{}, fmt.Errorf("SUBMIT_DELAY: %w", err)
	}
	if cfg.SeedOnStart, err = strconv.ParseBool(getEnv("SEED_ON_START", "true")); err != nil {
		return Config{}, fmt.Errorf("SEED_ON_START: %w", err)
	}
	if cfg.IssueDailyLimit, err = strconv.Atoi(getEnv("ISSUE_DAILY_LIMIT", "10")); err != nil {
		return Config{}, fmt.Errorf("ISSUE_DAILY_LIMIT: %w", err)
	}
	if cfg.MaxPhotoBytes, err = strconv.ParseInt(getEnv("MAX_PHOTO_BYTES", "10485760"), 10, 64); err != nil {
		return Config{}, fmt.Errorf("MAX_PHOTO_BYTES: %w", err)
	}
	if cfg.MinioUseSSL, err = strconv.ParseBool(getEnv("MINIO_USE_SSL", "true")); err != nil {
		return Config{}, fmt.Errorf("MINIO_USE_SSL: %w", err)
	}
	if cfg.MinioInsecure, err = strconv.ParseBool(getEnv("MINIO_INSECURE", "false")); err != nil {
		return Config{}, fmt.Errorf("MINIO_INSECURE: %w", err)
	}

	return cfg, cfg.Validate()
}

// Validate reports settings that cannot work together.
func (c Config) Validate() error {
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET environment variable is not set")
	}
	switch c.StoreBackend {
	case BackendMemory:
	case BackendMongo:
		if c.MongoURI == "" {
			return fmt.Errorf("please define the MONGODB_URI environment variable")
		}
	default:
		return fmt.Errorf("unknown STORE_BACKEND %q", c.StoreBackend)
	}
	return nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
