package config

import (
	"fmt"
	"log"
	"net/url"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config carries everything the server needs at startup. Values come from the
// environment, with a .env file loaded first when present.
type Config struct {
	DbUri          string
	LocalStorePath string
	DemoMode       bool

	AdminName     string
	AdminEmail    string
	AdminPassword string

	LogDir string
	Port   int
}

func Load() Config {
	// Missing .env is fine; the environment may be set directly.
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("skipping .env file: %v", err)
	}

	return Config{
		DbUri:          os.Getenv("DATABASE_URI"),
		LocalStorePath: envOr("LOCAL_STORE_PATH", "data/records.json"),
		DemoMode:       envBool("DEMO_MODE"),

		AdminName:     envOr("ADMIN_NAME", "Admin User"),
		AdminEmail:    envOr("ADMIN_EMAIL", "admin@example.com"),
		AdminPassword: envOr("ADMIN_PASSWORD", "admin123"),

		LogDir: envOr("LOG_DIR", "logs"),
		Port:   envInt("PORT", 8000),
	}
}

func envOr(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func envBool(key string) bool {
	value, err := strconv.ParseBool(os.Getenv(key))
	return err == nil && value
}

func envInt(key string, fallback int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		log.Panicf("invalid value %q for %v: %v", raw, key, err)
	}
	return value
}

// PostgresDsn converts a postgres:// uri into the keyword form the gorm
// driver expects.
func PostgresDsn(uri string) (string, error) {
	parts, err := url.Parse(uri)
	if err != nil {
		return "", fmt.Errorf("error parsing db uri: %w", err)
	}
	pwd, _ := parts.User.Password()
	dbname := strings.TrimPrefix(parts.Path, "/")
	return fmt.Sprintf(
		"host=%v user=%v password=%v dbname=%v port=%v",
		parts.Hostname(), parts.User.Username(), pwd, dbname, parts.Port(),
	), nil
}
