// Package config loads runtime settings from the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/justestif/moodtunes/internal/auth"
	"github.com/justestif/moodtunes/internal/clustering"
	"github.com/justestif/moodtunes/internal/mood"
	"github.com/justestif/moodtunes/internal/recommend"
	"github.com/justestif/moodtunes/internal/spotify"
)

var (
	// ErrMissingCredentials is returned when SPOTIFY_ID or SPOTIFY_SECRET is not set.
	ErrMissingCredentials = auth.ErrMissingCredentials

	// ErrMissingAPIKey is returned when the tags pipeline runs without LASTFM_API_KEY.
	ErrMissingAPIKey = errors.New("missing LASTFM_API_KEY environment variable (required for PIPELINE=tags)")
)

// Storage drivers for the tag cache.
const (
	StorageNone     = "none"
	StoragePostgres = "postgres"
	StorageSQLite   = "sqlite"
)

// Config holds the application configuration.
type Config struct {
	// Environment
	Environment string
	Addr        string

	// Spotify
	ClientID     string
	ClientSecret string
	RedirectURI  string

	// Pipeline
	Taxonomy           mood.Taxonomy
	RecommendationSize int
	CoolDown           time.Duration
	Profile            clustering.Config // Vibe profile clustering
	FeatureConcurrency int               // Parallel audio-feature batches

	// Tags pipeline
	LastfmAPIKey  string
	StorageDriver string
	DatabaseURL   string
	SQLitePath    string

	// Live sampling
	DeepFaceURL       string
	CameraSnapshotURL string // Empty means frames come from the browser

	// Observability
	SentryDSN string
}

// Load reads the configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{
		Environment:       getEnv("ENVIRONMENT", "development"),
		Addr:              getEnv("ADDR", "127.0.0.1:8080"),
		ClientID:          getEnv("SPOTIFY_ID", ""),
		ClientSecret:      getEnv("SPOTIFY_SECRET", ""),
		RedirectURI:       getEnv("REDIRECT_URI", "http://127.0.0.1:8080/callback"),
		LastfmAPIKey:      getEnv("LASTFM_API_KEY", ""),
		StorageDriver:     strings.ToLower(getEnv("STORAGE_DRIVER", StorageNone)),
		DatabaseURL:       getEnv("DATABASE_URL", ""),
		SQLitePath:        getEnv("SQLITE_PATH", "moodtunes.db"),
		DeepFaceURL:       getEnv("DEEPFACE_URL", "http://localhost:5000"),
		CameraSnapshotURL: getEnv("CAMERA_SNAPSHOT_URL", ""),
		SentryDSN:         getEnv("SENTRY_DSN", ""),
	}

	if cfg.ClientID == "" || cfg.ClientSecret == "" {
		return nil, ErrMissingCredentials
	}

	taxonomy, err := mood.ByName(getEnv("PIPELINE", mood.Features.Name()))
	if err != nil {
		return nil, fmt.Errorf("PIPELINE: %w", err)
	}
	cfg.Taxonomy = taxonomy

	if taxonomy == mood.Tags && cfg.LastfmAPIKey == "" {
		return nil, ErrMissingAPIKey
	}

	defaults := clustering.DefaultConfig()
	for _, setting := range []struct {
		key  string
		into *int
		def  int
	}{
		{"RECOMMENDATION_SIZE", &cfg.RecommendationSize, recommend.DefaultSize(taxonomy)},
		{"PROFILE_CLUSTERS", &cfg.Profile.NumClusters, defaults.NumClusters},
		{"PROFILE_MIN_CLUSTER_SIZE", &cfg.Profile.MinClusterSize, defaults.MinClusterSize},
		{"FEATURE_CONCURRENCY", &cfg.FeatureConcurrency, spotify.DefaultFeatureConcurrency},
	} {
		n, err := positiveInt(setting.key, setting.def)
		if err != nil {
			return nil, err
		}
		*setting.into = n
	}
	cfg.Profile.MaxTags = defaults.MaxTags

	cfg.CoolDown = recommend.DefaultCoolDown
	if v := getEnv("COOLDOWN", ""); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			return nil, fmt.Errorf("COOLDOWN must be a positive duration, got %q", v)
		}
		cfg.CoolDown = d
	}

	switch cfg.StorageDriver {
	case StorageNone, StorageSQLite:
	case StoragePostgres:
		if cfg.DatabaseURL == "" {
			return nil, errors.New("DATABASE_URL is required for STORAGE_DRIVER=postgres")
		}
	default:
		return nil, fmt.Errorf("unknown STORAGE_DRIVER %q", cfg.StorageDriver)
	}

	return cfg, nil
}

func positiveInt(key string, defaultValue int) (int, error) {
	v := getEnv(key, "")
	if v == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("%s must be a positive integer, got %q", key, v)
	}
	return n, nil
}

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value != "" {
		return value
	}
	return defaultValue
}

// UsesTags returns true when tracks are classified from descriptive tags.
func (c *Config) UsesTags() bool {
	return c.Taxonomy == mood.Tags
}
