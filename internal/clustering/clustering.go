// Package clustering builds a playlist "vibe profile": k-means groups of
// tracks by audio features or tag similarity, each with a descriptive name.
package clustering

import (
	"cmp"
	"fmt"
	"slices"

	"github.com/muesli/clusters"
	"github.com/muesli/kmeans"

	"github.com/justestif/moodtunes/internal/mood"
)

const sampleTrackCount = 3

// Config holds clustering parameters.
type Config struct {
	NumClusters    int // Number of clusters to create (default: 3)
	MinClusterSize int // Minimum tracks per cluster (smaller clusters become outliers)
	MaxTags        int // Maximum tags to use in vectors, tags only (default: 50)
}

// DefaultConfig returns the recommended default configuration.
func DefaultConfig() Config {
	return Config{
		NumClusters:    3,
		MinClusterSize: 3,
		MaxTags:        50,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.NumClusters <= 0 {
		c.NumClusters = d.NumClusters
	}
	if c.MinClusterSize <= 0 {
		c.MinClusterSize = d.MinClusterSize
	}
	if c.MaxTags <= 0 {
		c.MaxTags = d.MaxTags
	}
	return c
}

// Cluster is one group of similar tracks.
type Cluster struct {
	Name        string
	Description string
	Size        int
	Samples     []mood.Entry       // First few tracks in playlist order
	TopTags     []string           // Dominant tags (tag profiles only)
	Centroid    map[string]float64 // Average feature values (feature profiles only)
}

// Profile summarizes a playlist as a handful of clusters.
type Profile struct {
	Clusters []Cluster // Largest first
	Outliers int       // Tracks that fit no cluster or lacked data
}

// String returns a one-line summary, e.g. "2 vibes from 40 tracks (3 outliers)".
func (p Profile) String() string {
	total := p.Outliers
	for _, c := range p.Clusters {
		total += c.Size
	}

	word := "vibes"
	if len(p.Clusters) == 1 {
		word = "vibe"
	}

	s := fmt.Sprintf("%d %s from %d tracks", len(p.Clusters), word, total)
	if p.Outliers > 0 {
		s += fmt.Sprintf(" (%d outliers)", p.Outliers)
	}
	return s
}

// trackObservation wraps a track to implement clusters.Observation.
type trackObservation struct {
	track  *mood.Track
	coords clusters.Coordinates
}

func (o trackObservation) Coordinates() clusters.Coordinates {
	return o.coords
}

func (o trackObservation) Distance(point clusters.Coordinates) float64 {
	return o.coords.Distance(point)
}

// group is a k-means cluster resolved back to tracks.
type group struct {
	tracks []*mood.Track
	center clusters.Coordinates
}

// partition runs k-means and splits the result into groups that meet the
// minimum size and a count of tracks left over.
func partition(observations []trackObservation, cfg Config) ([]group, int, error) {
	obs := make(clusters.Observations, len(observations))
	for i, o := range observations {
		obs[i] = o
	}

	result, err := kmeans.New().Partition(obs, cfg.NumClusters)
	if err != nil {
		return nil, 0, fmt.Errorf("k-means partition: %w", err)
	}

	var groups []group
	var outliers int
	for _, c := range result {
		var tracks []*mood.Track
		for _, o := range c.Observations {
			if to, ok := o.(trackObservation); ok {
				tracks = append(tracks, to.track)
			}
		}

		if len(tracks) < cfg.MinClusterSize {
			outliers += len(tracks)
			continue
		}
		groups = append(groups, group{tracks: tracks, center: c.Center})
	}
	return groups, outliers, nil
}

func samplesOf(tracks []*mood.Track) []mood.Entry {
	n := min(sampleTrackCount, len(tracks))
	samples := make([]mood.Entry, n)
	for i := range n {
		samples[i] = tracks[i].Entry()
	}
	return samples
}

func sortClusters(cs []Cluster) {
	slices.SortStableFunc(cs, func(a, b Cluster) int {
		if c := cmp.Compare(b.Size, a.Size); c != 0 {
			return c
		}
		return cmp.Compare(a.Name, b.Name)
	})
}
