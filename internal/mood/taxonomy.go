package mood

import (
	"fmt"
	"strings"
)

// Mood is a discrete emotional label.
type Mood string

// Labels shared by both taxonomies.
const (
	Happy   Mood = "happy"
	Sad     Mood = "sad"
	Angry   Mood = "angry"
	Neutral Mood = "neutral"
)

// Labels only in the audio-feature taxonomy.
const (
	Fear      Mood = "fear"
	Surprised Mood = "surprised"
	Disgust   Mood = "disgust"
)

// Labels only in the tag taxonomy.
const (
	Energetic Mood = "energetic"
	Calm      Mood = "calm"
)

// Taxonomy is a fixed set of mood labels together with the rules that assign
// them. A deployment picks one taxonomy and uses it for both playlist
// classification and live sampling.
type Taxonomy interface {
	// Name identifies the taxonomy ("features" or "tags").
	Name() string
	// Labels returns every label in declaration order.
	Labels() []Mood
	// Classify assigns a mood to a track. ok is false when the track cannot be
	// classified and must be kept out of every bucket.
	Classify(t Track) (m Mood, ok bool)
	// Normalize maps a raw recognizer label onto the taxonomy.
	Normalize(raw string) Mood
}

var (
	// Features is the 7-label taxonomy driven by audio features.
	Features Taxonomy = featureTaxonomy{}

	// Tags is the 6-label taxonomy driven by descriptive tags.
	Tags Taxonomy = tagTaxonomy{}
)

// ByName returns the taxonomy with the given name.
func ByName(name string) (Taxonomy, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case Features.Name():
		return Features, nil
	case Tags.Name():
		return Tags, nil
	default:
		return nil, fmt.Errorf("unknown taxonomy %q", name)
	}
}

type featureTaxonomy struct{}

var featureLabels = []Mood{Happy, Sad, Angry, Neutral, Fear, Surprised, Disgust}

func (featureTaxonomy) Name() string { return "features" }

func (featureTaxonomy) Labels() []Mood {
	return append([]Mood(nil), featureLabels...)
}

func (featureTaxonomy) Classify(t Track) (Mood, bool) {
	if t.Features == nil {
		return "", false
	}
	return ClassifyFeatures(t.Features), true
}

func (featureTaxonomy) Normalize(raw string) Mood {
	switch label := cleanLabel(raw); label {
	case "surprise":
		return Surprised
	default:
		m := Mood(label)
		for _, l := range featureLabels {
			if l == m {
				return m
			}
		}
		return Neutral
	}
}

type tagTaxonomy struct{}

var tagLabels = []Mood{Happy, Sad, Angry, Energetic, Calm, Neutral}

// liveCollapse maps the recognizer's richer label set onto the tag taxonomy.
var liveCollapse = map[string]Mood{
	"happy":     Happy,
	"sad":       Sad,
	"angry":     Angry,
	"neutral":   Neutral,
	"fear":      Angry,
	"disgust":   Angry,
	"surprise":  Energetic,
	"surprised": Energetic,
}

func (tagTaxonomy) Name() string { return "tags" }

func (tagTaxonomy) Labels() []Mood {
	return append([]Mood(nil), tagLabels...)
}

func (tagTaxonomy) Classify(t Track) (Mood, bool) {
	return ClassifyTags(t.Tags), true
}

func (tagTaxonomy) Normalize(raw string) Mood {
	if m, ok := liveCollapse[cleanLabel(raw)]; ok {
		return m
	}
	return Neutral
}

func cleanLabel(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}
