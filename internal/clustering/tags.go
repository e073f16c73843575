package clustering

import (
	"cmp"
	"fmt"
	"log"
	"slices"
	"strings"

	"github.com/muesli/clusters"

	"github.com/justestif/moodtunes/internal/mood"
)

const topTagCount = 3

// ProfileByTags groups tracks by tag similarity using k-means.
// Tracks without tags count as outliers.
func ProfileByTags(tracks []mood.Track, cfg Config) Profile {
	cfg = cfg.withDefaults()

	var valid []*mood.Track
	var noTags int
	for i := range tracks {
		if len(tracks[i].Tags) > 0 {
			valid = append(valid, &tracks[i])
		} else {
			noTags++
		}
	}

	if len(valid) < cfg.NumClusters {
		return Profile{Outliers: len(tracks)}
	}

	vocabulary := buildTagVocabulary(valid, cfg.MaxTags)
	if len(vocabulary) == 0 {
		return Profile{Outliers: len(tracks)}
	}

	observations := make([]trackObservation, len(valid))
	for i, t := range valid {
		observations[i] = trackObservation{track: t, coords: buildTagVector(t.Tags, vocabulary)}
	}

	groups, outliers, err := partition(observations, cfg)
	if err != nil {
		log.Printf("WARN: tag profile: %v", err)
		return Profile{Outliers: len(tracks)}
	}

	profile := Profile{Outliers: outliers + noTags}
	for _, g := range groups {
		topTags := extractTopTags(g.center, vocabulary, topTagCount)
		profile.Clusters = append(profile.Clusters, Cluster{
			Name:        tagClusterName(topTags),
			Description: fmt.Sprintf("%d tracks tagged alike", len(g.tracks)),
			Size:        len(g.tracks),
			Samples:     samplesOf(g.tracks),
			TopTags:     topTags,
		})
	}
	sortClusters(profile.Clusters)

	return profile
}

// tagWeight returns the weight of the tag at position i of n. Tags are
// ordered most applied first, so earlier tags weigh more.
func tagWeight(i, n int) float64 {
	return 1 - float64(i)/float64(n)
}

// buildTagVocabulary collects all tags and returns the maxTags with the
// highest total weight, ties broken alphabetically.
func buildTagVocabulary(tracks []*mood.Track, maxTags int) []string {
	weights := make(map[string]float64)
	for _, t := range tracks {
		for i, tag := range t.Tags {
			weights[strings.ToLower(tag)] += tagWeight(i, len(t.Tags))
		}
	}

	names := make([]string, 0, len(weights))
	for name := range weights {
		names = append(names, name)
	}
	slices.SortFunc(names, func(a, b string) int {
		if c := cmp.Compare(weights[b], weights[a]); c != 0 {
			return c
		}
		return cmp.Compare(a, b)
	})

	return names[:min(maxTags, len(names))]
}

// buildTagVector creates a feature vector for a track's tags over the
// vocabulary. Values are rank weights in (0, 1].
func buildTagVector(tags []string, vocabulary []string) clusters.Coordinates {
	vocabIndex := make(map[string]int, len(vocabulary))
	for i, tag := range vocabulary {
		vocabIndex[tag] = i
	}

	vector := make(clusters.Coordinates, len(vocabulary))
	for i, tag := range tags {
		if idx, ok := vocabIndex[strings.ToLower(tag)]; ok {
			vector[idx] = max(vector[idx], tagWeight(i, len(tags)))
		}
	}
	return vector
}

// extractTopTags returns up to n tags with positive weight in a centroid.
func extractTopTags(centroid clusters.Coordinates, vocabulary []string, n int) []string {
	if len(centroid) == 0 || len(vocabulary) == 0 {
		return nil
	}

	type weighted struct {
		name   string
		weight float64
	}
	ws := make([]weighted, len(vocabulary))
	for i, name := range vocabulary {
		var w float64
		if i < len(centroid) {
			w = centroid[i]
		}
		ws[i] = weighted{name: name, weight: w}
	}

	slices.SortStableFunc(ws, func(a, b weighted) int {
		return cmp.Compare(b.weight, a.weight)
	})

	result := make([]string, 0, n)
	for _, w := range ws {
		if len(result) == n || w.weight <= 0 {
			break
		}
		result = append(result, w.name)
	}
	return result
}

// tagClusterName joins the top tags, e.g. "rock & indie & pop".
func tagClusterName(topTags []string) string {
	if len(topTags) == 0 {
		return "Mixed"
	}
	return strings.Join(topTags, " & ")
}
