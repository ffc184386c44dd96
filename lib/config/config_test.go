package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadRequiresTMDBKey(t *testing.T) {
	t.Setenv("TMDB_API_KEY", "")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "TMDB_API_KEY")
}

func TestLoadReadsEnvironment(t *testing.T) {
	t.Setenv("TMDB_API_KEY", "eyJtoken")
	t.Setenv("DATABASE_URL", "postgres://localhost/rec")
	t.Setenv("PORT", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "eyJtoken", cfg.TMDBAPIKey)
	assert.Equal(t, "postgres://localhost/rec", cfg.DatabaseURL)
	assert.Equal(t, "8080", cfg.Port, "port falls back to the default")
}
