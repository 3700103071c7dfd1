// Package config reads server settings from the environment and an optional .env file.
package config

import (
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Environments
const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

// Config holds every setting of the server process.
type Config struct {
	Addr   string
	DBPath string
	Env    string

	LogLevel slog.Level

	AdminEmail    string
	AdminPassword string

	ResendKey      string
	EmailFrom      string
	AdminRecipient string // moderation e-mails; empty disables them

	CSRFKey []byte // nil outside production means a random key per start

	UploadDir       string
	UploadPublicURL string

	SlowRequestMs  int
	SlowQueryMs    int
	OutboxInterval time.Duration
}

// IsProduction reports whether the server runs in production.
func (c Config) IsProduction() bool {
	return c.Env == EnvProduction
}

// Load reads .env files (if any) then the process environment.
// Variables already set in the environment win over .env values.
// PRE: none
// POST: Returns a Config with defaults applied, or an error for malformed values
func Load(envFiles ...string) (Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, os.ErrNotExist) {
			return Config{}, fmt.Errorf("load %s: %w", f, err)
		}
	}

	cfg := Config{
		Addr:            envOrDefault("FORMATIONS_ADDR", ":8080"),
		DBPath:          envOrDefault("FORMATIONS_DB", "formations.db"),
		Env:             envOrDefault("FORMATIONS_ENV", EnvDevelopment),
		AdminEmail:      os.Getenv("FORMATIONS_ADMIN_EMAIL"),
		AdminPassword:   os.Getenv("FORMATIONS_ADMIN_PASSWORD"),
		ResendKey:       os.Getenv("FORMATIONS_RESEND_KEY"),
		EmailFrom:       envOrDefault("FORMATIONS_EMAIL_FROM", "Formations <noreply@formations.local>"),
		AdminRecipient:  os.Getenv("FORMATIONS_ADMIN_RECIPIENT"),
		UploadDir:       envOrDefault("FORMATIONS_UPLOAD_DIR", "uploads"),
		UploadPublicURL: envOrDefault("FORMATIONS_UPLOAD_URL", "/uploads"),
	}

	var err error
	if cfg.LogLevel, err = parseLevel(envOrDefault("FORMATIONS_LOG_LEVEL", "info")); err != nil {
		return Config{}, err
	}
	if cfg.SlowRequestMs, err = envInt("FORMATIONS_SLOW_REQUEST_MS", 500); err != nil {
		return Config{}, err
	}
	if cfg.SlowQueryMs, err = envInt("FORMATIONS_SLOW_QUERY_MS", 50); err != nil {
		return Config{}, err
	}
	if cfg.OutboxInterval, err = time.ParseDuration(envOrDefault("FORMATIONS_OUTBOX_INTERVAL", "1m")); err != nil {
		return Config{}, fmt.Errorf("FORMATIONS_OUTBOX_INTERVAL: %w", err)
	}

	if keyHex := os.Getenv("FORMATIONS_CSRF_KEY"); keyHex != "" {
		key, err := hex.DecodeString(keyHex)
		if err != nil || len(key) != 32 {
			return Config{}, errors.New("FORMATIONS_CSRF_KEY must be 64 hex characters (32 bytes)")
		}
		cfg.CSRFKey = key
	} else if cfg.IsProduction() {
		return Config{}, errors.New("FORMATIONS_CSRF_KEY is required in production")
	}
	return cfg, nil
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}

func parseLevel(raw string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(raw))); err != nil {
		return 0, fmt.Errorf("FORMATIONS_LOG_LEVEL: %w", err)
	}
	return level, nil
}
