package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearEnv blanks every variable the loader reads so the host
// environment does not leak into a test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"APP_ENV", "STORAGE_DRIVER", "DATABASE_URL", "DB_HOST", "DB_USER",
		"REDIS_ENABLED", "REDIS_PORT", "LEADERBOARD_CACHE_TTL",
		"TOURNAMENT_SCORE_POLICY", "SCHEDULER_LEADERBOARD_INTERVAL",
		"SCHEDULER_MAX_CONCURRENT", "LOG_LEVEL", "LOG_FORMAT",
	} {
		t.Setenv(key, "")
	}
}

func TestFromEnv_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, StorageMemory, cfg.Storage.Driver)
	assert.False(t, cfg.UsesPostgres())
	assert.Equal(t, ScorePolicyAdditive, cfg.Tournament.ScorePolicy)
	assert.False(t, cfg.Redis.Enabled)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr())
	assert.Equal(t, 5*time.Minute, cfg.Redis.LeaderboardTTL)
	assert.Equal(t, time.Minute, cfg.Scheduler.RebuildLeaderboardInterval)
	assert.Equal(t, "json", cfg.Observability.LogFormat)
	assert.True(t, cfg.IsDevelopment())
}

func TestFromEnv_Overrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("STORAGE_DRIVER", "Postgres")
	t.Setenv("DATABASE_URL", "postgres://u:p@localhost:5432/tournaments")
	t.Setenv("TOURNAMENT_SCORE_POLICY", "replace")
	t.Setenv("REDIS_ENABLED", "true")
	t.Setenv("LEADERBOARD_CACHE_TTL", "30s")
	t.Setenv("LOG_FORMAT", "console")

	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.True(t, cfg.UsesPostgres())
	assert.Equal(t, ScorePolicyReplace, cfg.Tournament.ScorePolicy)
	assert.True(t, cfg.Redis.Enabled)
	assert.Equal(t, 30*time.Second, cfg.Redis.LeaderboardTTL)
}

func TestFromEnv_DatabaseURLFromParts(t *testing.T) {
	clearEnv(t)
	t.Setenv("DB_HOST", "db")
	t.Setenv("DB_USER", "hub")

	cfg, err := FromEnv()
	require.NoError(t, err)
	assert.Equal(t, "postgres://hub:@db:5432/postgres?sslmode=disable", cfg.Database.URL)
}

func TestValidate_Errors(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		want string
	}{
		{"postgres without url", map[string]string{"STORAGE_DRIVER": "postgres"}, "DATABASE_URL is required"},
		{"unknown driver", map[string]string{"STORAGE_DRIVER": "mongo"}, "STORAGE_DRIVER must be"},
		{"unknown policy", map[string]string{"TOURNAMENT_SCORE_POLICY": "max"}, "TOURNAMENT_SCORE_POLICY must be"},
		{"bad log format", map[string]string{"LOG_FORMAT": "xml"}, "LOG_FORMAT must be"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			_, err := FromEnv()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoadFiles(t *testing.T) {
	clearEnv(t)
	// godotenv never overrides a variable that is present, even if empty.
	require.NoError(t, os.Unsetenv("TOURNAMENT_SCORE_POLICY"))
	path := filepath.Join(t.TempDir(), "test.env")
	require.NoError(t, os.WriteFile(path, []byte("TOURNAMENT_SCORE_POLICY=replace\n"), 0o600))

	cfg, err := LoadFiles(path)
	require.NoError(t, err)
	assert.Equal(t, ScorePolicyReplace, cfg.Tournament.ScorePolicy)

	_, err = LoadFiles(filepath.Join(t.TempDir(), "missing.env"))
	assert.Error(t, err)
}
