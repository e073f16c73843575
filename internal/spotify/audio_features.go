package spotify

import (
	"context"
	"log"

	"github.com/zmb3/spotify/v2"
	"golang.org/x/sync/errgroup"

	"github.com/justestif/moodtunes/internal/mood"
)

// DefaultFeatureConcurrency is how many audio-feature batches are fetched at once.
const DefaultFeatureConcurrency = 4

// FetchAudioFeatures retrieves audio features for the given tracks.
// Updates tracks in-place with their audio features.
// Batches requests to max 100 tracks per request per Spotify API limits and
// fetches up to featureConcurrency batches at once. Results are matched back
// by position, so track order is unaffected.
//
// Tracks without available audio features keep nil Features: local files, null
// entries in the response, and every track of a batch whose request failed.
// Only context cancellation is returned as an error.
func (c *Client) FetchAudioFeatures(ctx context.Context, tracks []mood.Track) error {
	// Positions of tracks that exist in the catalog
	var positions []int
	for i, t := range tracks {
		if t.ID != "" {
			positions = append(positions, i)
		}
	}
	if len(positions) == 0 {
		return nil
	}

	total := len(positions)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.featureConcurrency)

	for start := 0; start < total; start += maxTracksPerRequest {
		end := min(start+maxTracksPerRequest, total)
		batch := positions[start:end]

		g.Go(func() error {
			ids := make([]spotify.ID, len(batch))
			for j, pos := range batch {
				ids[j] = spotify.ID(tracks[pos].ID)
			}

			features, err := c.api.GetAudioFeatures(gctx, ids...)
			if err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				log.Printf("WARN spotify: audio features batch %d-%d of %d failed: %v", start+1, end, total, err)
				return nil
			}

			// Map features back to tracks by position
			for j, f := range features {
				if j >= len(batch) || f == nil {
					continue
				}
				applyAudioFeatures(&tracks[batch[j]], f)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}

	log.Printf("Fetched audio features for %d tracks.", total)
	return nil
}

// applyAudioFeatures copies audio feature values to a track.
func applyAudioFeatures(t *mood.Track, f *spotify.AudioFeatures) {
	t.Features = &mood.AudioFeatures{
		Valence:      float64(f.Valence),
		Energy:       float64(f.Energy),
		Danceability: float64(f.Danceability),
		Acousticness: float64(f.Acousticness),
		Tempo:        float64(f.Tempo),
		Mode:         int(f.Mode),
	}
}
