// Package config loads service configuration from the environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config is the full service configuration.
type Config struct {
	Port        int
	DatabaseURL string

	JWTSecret  string
	SessionTTL time.Duration

	AWSRegion        string
	CognitoClientID  string
	CognitoPoolID    string
	IconBucket       string
	IconUploadExpiry time.Duration

	AdminEmails    []string
	AllowedOrigins []string

	LogLevel string
}

// Load reads the configuration from the environment. Only the database URL
// and the JWT secret are mandatory; AWS settings may stay empty in
// development, which disables signup and icon uploads.
func Load() (Config, error) {
	cfg := Config{
		Port:             getInt("PORT", 8080),
		DatabaseURL:      os.Getenv("DATABASE_URL"),
		JWTSecret:        os.Getenv("JWT_SECRET"),
		SessionTTL:       getDuration("SESSION_TTL", 12*time.Hour),
		AWSRegion:        getString("AWS_REGION", "us-east-1"),
		CognitoClientID:  os.Getenv("COGNITO_CLIENT_ID"),
		CognitoPoolID:    os.Getenv("COGNITO_USER_POOL_ID"),
		IconBucket:       os.Getenv("ICON_BUCKET"),
		IconUploadExpiry: getDuration("ICON_UPLOAD_EXPIRY", 15*time.Minute),
		AdminEmails:      getList("ADMIN_EMAILS"),
		AllowedOrigins:   getList("ALLOWED_ORIGINS"),
		LogLevel:         getString("LOG_LEVEL", "info"),
	}
	if len(cfg.AllowedOrigins) == 0 {
		cfg.AllowedOrigins = []string{"*"}
	}

	if cfg.DatabaseURL == "" {
		return Config{}, fmt.Errorf("DATABASE_URL is required")
	}
	if cfg.JWTSecret == "" {
		return Config{}, fmt.Errorf("JWT_SECRET is required")
	}
	return cfg, nil
}

func getString(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func getList(key string) []string {
	raw := os.Getenv(key)
	if raw == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
