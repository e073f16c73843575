package clustering

import (
	"log"

	"github.com/muesli/clusters"

	"github.com/justestif/moodtunes/internal/mood"
)

// featureNames defines the audio features used for clustering.
var featureNames = []string{"energy", "valence", "danceability", "acousticness"}

// ProfileByFeatures groups tracks by audio feature similarity using k-means.
// Tracks without audio features count as outliers.
func ProfileByFeatures(tracks []mood.Track, cfg Config) Profile {
	cfg = cfg.withDefaults()

	var valid []*mood.Track
	var missing int
	for i := range tracks {
		if tracks[i].Features != nil {
			valid = append(valid, &tracks[i])
		} else {
			missing++
		}
	}

	// Too few tracks to form the requested number of clusters
	if len(valid) < cfg.NumClusters {
		return Profile{Outliers: len(tracks)}
	}

	observations := make([]trackObservation, len(valid))
	for i, t := range valid {
		observations[i] = trackObservation{track: t, coords: extractFeatures(t.Features)}
	}

	groups, outliers, err := partition(observations, cfg)
	if err != nil {
		log.Printf("WARN: feature profile: %v", err)
		return Profile{Outliers: len(tracks)}
	}

	profile := Profile{Outliers: outliers + missing}
	for _, g := range groups {
		centroid := make(map[string]float64, len(featureNames))
		for i, name := range featureNames {
			centroid[name] = g.center[i]
		}

		category := GetMoodCategory(centroid)
		profile.Clusters = append(profile.Clusters, Cluster{
			Name:        category.Name,
			Description: category.Description,
			Size:        len(g.tracks),
			Samples:     samplesOf(g.tracks),
			Centroid:    centroid,
		})
	}
	sortClusters(profile.Clusters)

	return profile
}

// extractFeatures returns the clustering features as a coordinate vector.
func extractFeatures(f *mood.AudioFeatures) clusters.Coordinates {
	return clusters.Coordinates{
		f.Energy,
		f.Valence,
		f.Danceability,
		f.Acousticness,
	}
}
