package recommend

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"
)

// ErrNothingToSave is returned when no track of a set could be resolved.
var ErrNothingToSave = errors.New("no tracks to save")

// PlaylistWriter creates playlists in the catalog. *spotify.Client
// implements it.
type PlaylistWriter interface {
	CreatePlaylist(ctx context.Context, name, description string, public bool) (string, error)
	AddTracksToPlaylist(ctx context.Context, playlistID string, trackIDs []string) error
	SearchTrack(ctx context.Context, title, artist string) (string, bool, error)
}

// Persister saves recommendation sets as catalog playlists.
type Persister struct {
	writer PlaylistWriter
}

// NewPersister creates a persister writing through w.
func NewPersister(w PlaylistWriter) *Persister {
	return &Persister{writer: w}
}

// SaveResult describes a saved playlist.
type SaveResult struct {
	PlaylistID string
	Added      int
	Skipped    int // Entries that could not be resolved to a catalog track
}

// DefaultPlaylistName names a playlist after the set's mood and draw time.
func DefaultPlaylistName(s Set) string {
	return fmt.Sprintf("MoodTunes: %s (%s)", s.Mood, s.DrawnAt.Format("Jan 2 15:04"))
}

// Save creates a playlist holding the set's tracks. Entries without a catalog
// ID (local files) are looked up by title and artist; entries that cannot be
// found are skipped.
func (p *Persister) Save(ctx context.Context, name string, s Set, public bool) (*SaveResult, error) {
	ids := make([]string, 0, len(s.Tracks))
	var skipped int

	for _, e := range s.Tracks {
		if e.TrackID != "" {
			ids = append(ids, e.TrackID)
			continue
		}

		id, ok, err := p.writer.SearchTrack(ctx, e.Title, e.Artist)
		if err != nil {
			log.Printf("WARN: searching for %q: %v", e.String(), err)
		}
		if err != nil || !ok {
			skipped++
			continue
		}
		ids = append(ids, id)
	}

	if len(ids) == 0 {
		return nil, fmt.Errorf("%w: %d of %d tracks unresolved", ErrNothingToSave, skipped, len(s.Tracks))
	}

	if name == "" {
		name = DefaultPlaylistName(s)
	}
	description := fmt.Sprintf("Tracks for a %s mood, picked by MoodTunes on %s.", s.Mood, s.DrawnAt.Format(time.DateOnly))

	playlistID, err := p.writer.CreatePlaylist(ctx, name, description, public)
	if err != nil {
		return nil, fmt.Errorf("creating playlist: %w", err)
	}

	if err := p.writer.AddTracksToPlaylist(ctx, playlistID, ids); err != nil {
		return nil, fmt.Errorf("adding tracks to playlist %s: %w", playlistID, err)
	}

	return &SaveResult{PlaylistID: playlistID, Added: len(ids), Skipped: skipped}, nil
}
