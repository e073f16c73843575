package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/justestif/moodtunes/internal/clustering"
	"github.com/justestif/moodtunes/internal/mood"
	"github.com/justestif/moodtunes/internal/spotify"
)

// setBase sets every variable Load reads so the host environment cannot leak in.
func setBase(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"ENVIRONMENT", "ADDR", "REDIRECT_URI", "PIPELINE", "RECOMMENDATION_SIZE",
		"COOLDOWN", "LASTFM_API_KEY", "STORAGE_DRIVER", "DATABASE_URL", "SQLITE_PATH",
		"DEEPFACE_URL", "CAMERA_SNAPSHOT_URL", "SENTRY_DSN", "PROFILE_CLUSTERS",
		"PROFILE_MIN_CLUSTER_SIZE", "FEATURE_CONCURRENCY",
	} {
		t.Setenv(key, "")
	}
	t.Setenv("SPOTIFY_ID", "client-id")
	t.Setenv("SPOTIFY_SECRET", "client-secret")
}

func TestLoad_Defaults(t *testing.T) {
	setBase(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, "127.0.0.1:8080", cfg.Addr)
	assert.Equal(t, "http://127.0.0.1:8080/callback", cfg.RedirectURI)
	assert.Equal(t, mood.Features, cfg.Taxonomy)
	assert.False(t, cfg.UsesTags())
	assert.Equal(t, 5, cfg.RecommendationSize)
	assert.Equal(t, 30*time.Second, cfg.CoolDown)
	assert.Equal(t, StorageNone, cfg.StorageDriver)
	assert.Equal(t, "http://localhost:5000", cfg.DeepFaceURL)
	assert.Empty(t, cfg.CameraSnapshotURL)
	assert.Equal(t, clustering.DefaultConfig(), cfg.Profile)
	assert.Equal(t, spotify.DefaultFeatureConcurrency, cfg.FeatureConcurrency)
}

func TestLoad_TagsPipeline(t *testing.T) {
	setBase(t)
	t.Setenv("PIPELINE", "Tags")
	t.Setenv("LASTFM_API_KEY", "lfm")
	t.Setenv("STORAGE_DRIVER", "SQLite")

	cfg, err := Load()
	require.NoError(t, err)

	assert.True(t, cfg.UsesTags())
	assert.Equal(t, 3, cfg.RecommendationSize)
	assert.Equal(t, StorageSQLite, cfg.StorageDriver)
	assert.Equal(t, "moodtunes.db", cfg.SQLitePath)
}

func TestLoad_Overrides(t *testing.T) {
	setBase(t)
	t.Setenv("RECOMMENDATION_SIZE", "8")
	t.Setenv("COOLDOWN", "45s")
	t.Setenv("STORAGE_DRIVER", "postgres")
	t.Setenv("DATABASE_URL", "postgres://localhost/moodtunes")
	t.Setenv("PROFILE_CLUSTERS", "5")
	t.Setenv("PROFILE_MIN_CLUSTER_SIZE", "2")
	t.Setenv("FEATURE_CONCURRENCY", "8")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, clustering.Config{NumClusters: 5, MinClusterSize: 2, MaxTags: 50}, cfg.Profile)
	assert.Equal(t, 8, cfg.FeatureConcurrency)

	assert.Equal(t, 8, cfg.RecommendationSize)
	assert.Equal(t, 45*time.Second, cfg.CoolDown)
	assert.Equal(t, StoragePostgres, cfg.StorageDriver)
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		wantErr error
		wantMsg string
	}{
		{"missing client id", map[string]string{"SPOTIFY_ID": ""}, ErrMissingCredentials, ""},
		{"missing client secret", map[string]string{"SPOTIFY_SECRET": ""}, ErrMissingCredentials, ""},
		{"tags without api key", map[string]string{"PIPELINE": "tags"}, ErrMissingAPIKey, ""},
		{"unknown pipeline", map[string]string{"PIPELINE": "vibes"}, nil, "PIPELINE"},
		{"bad size", map[string]string{"RECOMMENDATION_SIZE": "lots"}, nil, "RECOMMENDATION_SIZE"},
		{"zero size", map[string]string{"RECOMMENDATION_SIZE": "0"}, nil, "RECOMMENDATION_SIZE"},
		{"bad profile clusters", map[string]string{"PROFILE_CLUSTERS": "-2"}, nil, "PROFILE_CLUSTERS"},
		{"bad feature concurrency", map[string]string{"FEATURE_CONCURRENCY": "many"}, nil, "FEATURE_CONCURRENCY"},
		{"bad cooldown", map[string]string{"COOLDOWN": "30"}, nil, "COOLDOWN"},
		{"unknown storage", map[string]string{"STORAGE_DRIVER": "redis"}, nil, "STORAGE_DRIVER"},
		{"postgres without url", map[string]string{"STORAGE_DRIVER": "postgres"}, nil, "DATABASE_URL"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setBase(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			cfg, err := Load()

			assert.Nil(t, cfg)
			require.Error(t, err)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			}
			if tt.wantMsg != "" {
				assert.ErrorContains(t, err, tt.wantMsg)
			}
		})
	}
}
