package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
)

// Config holds everything the service reads from the environment.
type Config struct {
	DatabaseURL        string
	DatabaseServiceKey string
	TMDBAPIKey         string
	Port               string
}

// Load reads configuration from a .env file (if present) and the process
// environment. The TMDB credential is mandatory: without it every pipeline
// run would fail mid-flight, so we refuse to start instead.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		DatabaseURL:        os.Getenv("DATABASE_URL"),
		DatabaseServiceKey: os.Getenv("DATABASE_SERVICE_KEY"),
		TMDBAPIKey:         os.Getenv("TMDB_API_KEY"),
		Port:               getEnv("PORT", "8080"),
	}

	if cfg.TMDBAPIKey == "" {
		return nil, fmt.Errorf("TMDB_API_KEY not configured")
	}

	return cfg, nil
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
