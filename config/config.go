/*
Package config loads server configuration from the environment.

PURPOSE:
  Central place for runtime settings. A .env file in the working
  directory is loaded first (via godotenv) so local development doesn't
  need exported variables; real environment variables win over the file.

VARIABLES:
  PORT             HTTP server port (default 8080)
  DB_PATH          SQLite database path (default school.db, ":memory:" works)
  ALLOWED_ORIGINS  Comma-separated CORS origins for the frontend

Command-line flags in cmd/server override everything here.
*/
package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds the server's runtime settings.
type Config struct {
	Port           int
	DBPath         string
	AllowedOrigins []string
}

// Load reads configuration from .env (if present) and the environment.
func Load() Config {
	// Missing .env is the normal case in production.
	_ = godotenv.Load()

	cfg := Config{
		Port:   8080,
		DBPath: "school.db",
		AllowedOrigins: []string{
			"http://localhost:5173",
			"http://localhost:8080",
		},
	}

	if v := os.Getenv("PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Port = port
		}
	}
	if v := os.Getenv("DB_PATH"); v != "" {
		cfg.DBPath = v
	}
	if v := os.Getenv("ALLOWED_ORIGINS"); v != "" {
		origins := strings.Split(v, ",")
		cfg.AllowedOrigins = cfg.AllowedOrigins[:0]
		for _, o := range origins {
			if o = strings.TrimSpace(o); o != "" {
				cfg.AllowedOrigins = append(cfg.AllowedOrigins, o)
			}
		}
	}

	return cfg
}
