// Package config reads the server settings from the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	DriverMongo  = "mongo"
	DriverMySQL  = "mysql"
	DriverMemory = "memory"

	UploadLocal = "local"
	UploadS3    = "s3"
)

type Config struct {
	Port    string
	BaseURL string
	GinMode string

	Database struct {
		Driver   string
		MongoURI string
		MongoDB  string
		MySQLDSN string
	}

	JWT struct {
		Secret string
		TTL    time.Duration
	}

	Upload struct {
		Backend  string
		Dir      string
		MaxBytes int64
	}

	S3 struct {
		Bucket    string
		Region    string
		Endpoint  string
		AccessKey string
		SecretKey string
		PublicURL string
	}

	CORSOrigin  string
	FrontendDir string

	Log struct {
		Level  string
		Format string
	}
}

// Load builds a Config from the environment. It should be called after
// godotenv.Load so .env values are visible.
func Load() (*Config, error) {
	cfg := &Config{}

	cfg.Port = getEnv("PORT", "5000")
	cfg.BaseURL = strings.TrimSuffix(getEnv("BASE_URL", "http://localhost:"+cfg.Port), "/")
	cfg.GinMode = getEnv("GIN_MODE", "")

	// --- Database ---
	cfg.Database.Driver = getEnv("DB_DRIVER", DriverMongo)
	cfg.Database.MongoURI = getEnv("MONGO_URI", "mongodb://localhost:27017")
	cfg.Database.MongoDB = getEnv("MONGO_DB", "pixelpulse")
	cfg.Database.MySQLDSN = getEnv("MYSQL_DSN", "root:root@tcp(127.0.0.1:3306)/pixelpulse?parseTime=true")

	switch cfg.Database.Driver {
	case DriverMongo, DriverMySQL, DriverMemory:
	default:
		return nil, fmt.Errorf("DB_DRIVER: unknown driver %q", cfg.Database.Driver)
	}

	// --- Auth ---
	cfg.JWT.Secret = getEnv("JWT_SECRET", "")
	if cfg.JWT.Secret == "" {
		if cfg.Database.Driver != DriverMemory {
			return nil, errors.New("JWT_SECRET is not set")
		}
		cfg.JWT.Secret = "dev-secret"
	}
	ttl, err := time.ParseDuration(getEnv("JWT_TTL", "720h"))
	if err != nil {
		return nil, fmt.Errorf("JWT_TTL: %w", err)
	}
	cfg.JWT.TTL = ttl

	// --- Uploads ---
	cfg.Upload.Backend = getEnv("UPLOAD_BACKEND", UploadLocal)
	cfg.Upload.Dir = getEnv("UPLOAD_DIR", "./uploads")
	maxBytes, err := strconv.ParseInt(getEnv("UPLOAD_MAX_BYTES", "5242880"), 10, 64)
	if err != nil || maxBytes <= 0 {
		return nil, fmt.Errorf("UPLOAD_MAX_BYTES: invalid value %q", os.Getenv("UPLOAD_MAX_BYTES"))
	}
	cfg.Upload.MaxBytes = maxBytes

	cfg.S3.Bucket = getEnv("S3_BUCKET", "")
	cfg.S3.Region = getEnv("S3_REGION", "us-east-1")
	cfg.S3.Endpoint = getEnv("S3_ENDPOINT", "")
	cfg.S3.AccessKey = getEnv("S3_ACCESS_KEY", "")
	cfg.S3.SecretKey = getEnv("S3_SECRET_KEY", "")
	cfg.S3.PublicURL = strings.TrimSuffix(getEnv("S3_PUBLIC_URL", ""), "/")

	switch cfg.Upload.Backend {
	case UploadLocal:
	case UploadS3:
		if cfg.S3.Bucket == "" {
			return nil, errors.New("S3_BUCKET is required when UPLOAD_BACKEND=s3")
		}
	default:
		return nil, fmt.Errorf("UPLOAD_BACKEND: unknown backend %q", cfg.Upload.Backend)
	}

	// --- HTTP ---
	cfg.CORSOrigin = getEnv("CORS_ORIGIN", "*")
	cfg.FrontendDir = getEnv("FRONTEND_DIR", "")

	// --- Logging ---
	cfg.Log.Level = getEnv("LOG_LEVEL", "info")
	cfg.Log.Format = getEnv("LOG_FORMAT", "text")

	return cfg, nil
}

// Addr is the listen address for the HTTP server.
func (c *Config) Addr() string {
	return ":" + c.Port
}

// getEnv returns the value of key, or fallback when it is unset or empty.
func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return fallback
}
