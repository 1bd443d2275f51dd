package utils

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Env         string
	EnvFile     bool
	Addr        string
	DatabaseURL string
	RedisURL    string
	LogLevel    string
	SessionTTL  time.Duration

	SendGridAPIKey string
	MailFrom       string
	PublicURL      string

	S3 S3Config
}

// LoadConfig reads configuration from the environment. Outside production
// a .env file is loaded first when present; it never overrides variables
// that are already set.
func LoadConfig() (Config, error) {
	envLoaded := false
	if os.Getenv("APP_ENV") != "production" {
		envLoaded = godotenv.Load() == nil
	}

	cfg := Config{
		Env:            getenv("APP_ENV", "development"),
		EnvFile:        envLoaded,
		Addr:           getenv("ADDR", ":8080"),
		DatabaseURL:    os.Getenv("DATABASE_URL"),
		RedisURL:       getenv("REDIS_URL", "redis://localhost:6379/0"),
		LogLevel:       getenv("LOG_LEVEL", "info"),
		SendGridAPIKey: os.Getenv("SENDGRID_API_KEY"),
		MailFrom:       getenv("MAIL_FROM", "donotreply@rango.local"),
		PublicURL:      getenv("PUBLIC_URL", "http://localhost:8080"),
		S3: S3Config{
			Endpoint:  os.Getenv("S3_ENDPOINT"),
			AccessKey: os.Getenv("S3_ACCESS_KEY"),
			SecretKey: os.Getenv("S3_SECRET_KEY"),
			Bucket:    getenv("S3_BUCKET", "rango-profile-images"),
		},
	}

	ttl, err := time.ParseDuration(getenv("SESSION_TTL", "336h"))
	if err != nil || ttl <= 0 {
		return Config{}, fmt.Errorf("invalid SESSION_TTL %q", os.Getenv("SESSION_TTL"))
	}
	cfg.SessionTTL = ttl

	if raw := os.Getenv("S3_USE_SSL"); raw != "" {
		useSSL, err := strconv.ParseBool(raw)
		if err != nil {
			return Config{}, fmt.Errorf("invalid S3_USE_SSL %q: %w", raw, err)
		}
		cfg.S3.UseSSL = useSSL
	}

	if cfg.DatabaseURL == "" {
		return Config{}, fmt.Errorf("DATABASE_URL is required")
	}
	return cfg, nil
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
