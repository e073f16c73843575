// Command moodtunes runs the MoodTunes web application.
package main

import (
	"context"
	"fmt"
	"io/fs"
	"log"
	"os"
	"strings"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/joho/godotenv"
	"golang.org/x/oauth2"

	"github.com/justestif/moodtunes/internal/auth"
	"github.com/justestif/moodtunes/internal/capture"
	"github.com/justestif/moodtunes/internal/config"
	"github.com/justestif/moodtunes/internal/db"
	"github.com/justestif/moodtunes/internal/db/sqlite"
	"github.com/justestif/moodtunes/internal/deepface"
	"github.com/justestif/moodtunes/internal/emotion"
	"github.com/justestif/moodtunes/internal/lastfm"
	"github.com/justestif/moodtunes/internal/recommend"
	"github.com/justestif/moodtunes/internal/spotify"
	"github.com/justestif/moodtunes/internal/tags"
	"github.com/justestif/moodtunes/internal/web"
	webfs "github.com/justestif/moodtunes/web"
)

const (
	sentryFlushTimeout    = 2 * time.Second
	environmentProduction = "production"
	startupTimeout        = 30 * time.Second
)

// releaseVersion is set via ldflags during build
var releaseVersion = "dev"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	if cfg.SentryDSN != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:         cfg.SentryDSN,
			Environment: cfg.Environment,
			Release:     "moodtunes@" + releaseVersion,
			Debug:       cfg.Environment != environmentProduction,
			BeforeSend: func(event *sentry.Event, _ *sentry.EventHint) *sentry.Event {
				if event.Request != nil {
					event.Request.Headers = filterSensitiveHeaders(event.Request.Headers)
					event.Request.Cookies = ""
				}
				return event
			},
		}); err != nil {
			log.Printf("WARN: failed to initialize Sentry: %v", err)
		} else {
			log.Printf("Sentry initialized (environment: %s, release: %s)", cfg.Environment, releaseVersion)
			defer sentry.Flush(sentryFlushTimeout)
		}
	}

	authenticator, err := auth.New(cfg.ClientID, cfg.ClientSecret, cfg.RedirectURI)
	if err != nil {
		return fmt.Errorf("creating authenticator: %w", err)
	}

	var tagger tags.TagService
	if cfg.UsesTags() {
		service, closeStore, err := newTagService(cfg)
		if err != nil {
			return err
		}
		defer closeStore()
		tagger = service
	}

	var camera capture.Source
	if cfg.CameraSnapshotURL != "" {
		camera = capture.NewSnapshot(cfg.CameraSnapshotURL)
		log.Printf("Sampling frames from server camera %s", cfg.CameraSnapshotURL)
	}

	templates, err := fs.Sub(webfs.TemplatesFS, "templates")
	if err != nil {
		return fmt.Errorf("creating templates filesystem: %w", err)
	}

	static, err := fs.Sub(webfs.StaticFS, "static")
	if err != nil {
		return fmt.Errorf("creating static filesystem: %w", err)
	}

	server, err := web.NewServer(web.ServerConfig{
		Addr:        cfg.Addr,
		TemplatesFS: templates,
		StaticFS:    static,
		Auth:        authenticator,
		Connect: func(ctx context.Context, token *oauth2.Token) web.Catalog {
			return spotify.New(authenticator.Client(ctx, token),
				spotify.WithFeatureConcurrency(cfg.FeatureConcurrency))
		},
		Taxonomy:           cfg.Taxonomy,
		Tagger:             tagger,
		Sampler:            emotion.NewSampler(deepface.NewClient(cfg.DeepFaceURL), cfg.Taxonomy),
		Selector:           recommend.NewSelector(nil),
		RecommendationSize: cfg.RecommendationSize,
		CoolDown:           cfg.CoolDown,
		Profile:            cfg.Profile,
		Camera:             camera,
		ReportErrors:       cfg.SentryDSN != "",
	})
	if err != nil {
		return fmt.Errorf("creating server: %w", err)
	}

	log.Printf("MoodTunes %s: %s pipeline, %d tracks per recommendation, %s cool-down",
		releaseVersion, cfg.Taxonomy.Name(), cfg.RecommendationSize, cfg.CoolDown)

	return server.Run()
}

// newTagService builds the Last.fm tag service, fronted by a persistent cache
// when a storage driver is configured. The returned func releases the store.
func newTagService(cfg *config.Config) (tags.TagService, func(), error) {
	client := lastfm.NewClient(&lastfm.Config{
		APIKey:    cfg.LastfmAPIKey,
		CacheSize: lastfm.DefaultCacheSize,
	})
	service := tags.NewService(client)

	ctx, cancel := context.WithTimeout(context.Background(), startupTimeout)
	defer cancel()

	staleBefore := time.Now().Add(-tags.CacheTTL)

	switch cfg.StorageDriver {
	case config.StoragePostgres:
		database, err := db.New(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, fmt.Errorf("connecting to database: %w", err)
		}
		if err := database.Migrate(ctx); err != nil {
			database.Close()
			return nil, nil, fmt.Errorf("migrating database: %w", err)
		}
		pruneStale(database.Tags().DeleteStale(ctx, staleBefore))
		log.Println("Tag cache: postgres")
		return tags.NewCachedTagFetcher(database.Tags(), service), database.Close, nil

	case config.StorageSQLite:
		store, err := sqlite.New(cfg.SQLitePath)
		if err != nil {
			return nil, nil, fmt.Errorf("opening sqlite tag cache: %w", err)
		}
		pruneStale(store.DeleteStale(ctx, staleBefore))
		log.Printf("Tag cache: sqlite (%s)", cfg.SQLitePath)
		closeStore := func() {
			if err := store.Close(); err != nil {
				log.Printf("WARN: closing sqlite tag cache: %v", err)
			}
		}
		return tags.NewCachedTagFetcher(store, service), closeStore, nil

	default:
		log.Println("Tag cache: in-memory only")
		return service, func() {}, nil
	}
}

func pruneStale(n int64, err error) {
	if err != nil {
		log.Printf("WARN: pruning stale tags: %v", err)
		return
	}
	if n > 0 {
		log.Printf("Pruned %d stale cached tags", n)
	}
}

func filterSensitiveHeaders(headers map[string]string) map[string]string {
	filtered := make(map[string]string, len(headers))
	sensitiveKeys := map[string]bool{
		"authorization": true,
		"cookie":        true,
		"set-cookie":    true,
	}

	for k, v := range headers {
		if sensitiveKeys[strings.ToLower(k)] {
			filtered[k] = "[REDACTED]"
		} else {
			filtered[k] = v
		}
	}
	return filtered
}
