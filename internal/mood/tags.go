package mood

import "strings"

// tagKeywords lists the keyword set of each tag-taxonomy mood in priority
// order. Ties on score go to the earlier entry.
var tagKeywords = []struct {
	mood     Mood
	keywords map[string]struct{}
}{
	{Happy, keywordSet("happy", "fun", "upbeat", "joy", "sunshine", "cheerful", "feel good")},
	{Sad, keywordSet("sad", "melancholy", "melancholic", "depressing", "heartbreak", "lonely", "sorrow")},
	{Angry, keywordSet("angry", "rage", "aggressive", "dark", "hate", "furious", "metal")},
	{Energetic, keywordSet("energetic", "party", "dance", "workout", "hype", "edm", "pump up")},
	{Calm, keywordSet("calm", "chill", "relaxing", "mellow", "ambient", "peaceful", "soft")},
}

func keywordSet(words ...string) map[string]struct{} {
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[w] = struct{}{}
	}
	return set
}

// ClassifyTags assigns a mood from descriptive tags.
// Each mood scores the number of distinct input tags found in its keyword set.
// The highest score wins, ties go to the declared priority order
// (happy, sad, angry, energetic, calm), and a best score of zero is neutral.
func ClassifyTags(tags []string) Mood {
	if len(tags) == 0 {
		return Neutral
	}

	seen := make(map[string]struct{}, len(tags))
	for _, tag := range tags {
		seen[strings.ToLower(strings.TrimSpace(tag))] = struct{}{}
	}

	best, bestScore := Neutral, 0
	for _, candidate := range tagKeywords {
		score := 0
		for tag := range seen {
			if _, ok := candidate.keywords[tag]; ok {
				score++
			}
		}
		if score > bestScore {
			best, bestScore = candidate.mood, score
		}
	}

	return best
}
