package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
)

// Config holds the application configuration.
type Config struct {
	// Database connection string (DSN). SQLite file path or postgres:// URL.
	DatabaseURL string

	// Server bind address (host:port).
	ServerAddr string

	// Enable debug logging.
	Debug bool

	// Bootstrap admin account, seeded at server startup when the teachers
	// table is empty.
	AdminUsername string
	AdminPassword string
	AdminEmail    string
}

// Load reads configuration from the environment with fallback defaults. A
// .env file in the working directory is merged in first when present, which
// keeps local development setups out of shell profiles.
func Load() (*Config, error) {
	// Ignore a missing .env; the environment may be fully provisioned.
	_ = godotenv.Load()

	cfg := &Config{
		DatabaseURL:   getEnv("DATABASE_URL", "attendance.db"),
		ServerAddr:    getEnv("SERVER_ADDR", "localhost:8080"),
		Debug:         getEnvBool("DEBUG", false),
		AdminUsername: getEnv("ADMIN_USERNAME", "admin"),
		AdminPassword: getEnv("ADMIN_PASSWORD", "admin123"),
		AdminEmail:    getEnv("ADMIN_EMAIL", "admin@school.local"),
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	if cfg.ServerAddr == "" {
		return nil, fmt.Errorf("SERVER_ADDR is required")
	}

	return cfg, nil
}

// getEnv retrieves an environment variable or returns a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvBool retrieves a boolean environment variable or returns a default value.
func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return value == "true" || value == "1" || value == "yes"
	}
	return defaultValue
}
