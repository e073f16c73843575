package spotify

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/zmb3/spotify/v2"

	"github.com/justestif/moodtunes/internal/mood"
)

// FetchPlaylistTracks retrieves every track of a playlist, in playlist order.
// Entries whose track was removed from the catalog, and podcast episodes, are
// skipped. Only a failure on the first page is returned as an error; a later
// page failure ends paging and returns what was fetched so far.
func (c *Client) FetchPlaylistTracks(ctx context.Context, playlistID string) ([]mood.Track, error) {
	page, err := c.api.GetPlaylistItems(ctx, spotify.ID(playlistID), spotify.Limit(maxTracksPerRequest))
	if err != nil {
		return nil, fmt.Errorf("fetching playlist items: %w", err)
	}

	var tracks []mood.Track
	skipped := 0
	for {
		converted, n := convertItems(page.Items)
		tracks = append(tracks, converted...)
		skipped += n

		err = c.api.NextPage(ctx, page)
		if errors.Is(err, spotify.ErrNoMorePages) {
			break
		}
		if err != nil {
			log.Printf("WARN spotify: stopped paging playlist %s after %d tracks: %v", playlistID, len(tracks), err)
			break
		}
	}

	log.Printf("Fetched %d tracks from playlist %s (%d unavailable skipped).", len(tracks), playlistID, skipped)
	return tracks, nil
}

// convertItems converts playlist items to tracks and reports how many were skipped.
func convertItems(items []spotify.PlaylistItem) ([]mood.Track, int) {
	tracks := make([]mood.Track, 0, len(items))
	skipped := 0
	for _, item := range items {
		if item.Track.Track == nil {
			skipped++
			continue
		}
		tracks = append(tracks, convertTrack(item.Track.Track))
	}
	return tracks, skipped
}

// convertTrack converts a Spotify FullTrack to mood.Track.
func convertTrack(ft *spotify.FullTrack) mood.Track {
	// Join artist names
	artists := make([]string, len(ft.Artists))
	for i, a := range ft.Artists {
		artists[i] = a.Name
	}

	return mood.Track{
		ID:     ft.ID.String(),
		URI:    string(ft.URI),
		Name:   ft.Name,
		Artist: strings.Join(artists, ", "),
	}
}
