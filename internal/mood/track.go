// Package mood classifies tracks and facial-expression labels into moods and
// indexes a playlist by mood.
package mood

import (
	"fmt"
	"time"
)

// AudioFeatures holds the catalog's audio analysis for a track.
type AudioFeatures struct {
	Valence      float64
	Energy       float64
	Danceability float64
	Acousticness float64
	Tempo        float64 // BPM
	Mode         int     // 1 = major, 0 = minor
}

// Track represents a playlist track with the metadata used for classification.
type Track struct {
	ID     string // empty for local files
	URI    string
	Name   string
	Artist string // Comma-separated artist names
	// Features is nil if not fetched or unavailable.
	Features *AudioFeatures
	// Tags are free-text descriptive tags, compared case-insensitively.
	Tags []string
}

// Entry returns the index entry for the track.
func (t Track) Entry() Entry {
	return Entry{
		TrackID: t.ID,
		URI:     t.URI,
		Title:   t.Name,
		Artist:  t.Artist,
	}
}

// Entry is a classified track as stored in an Index.
type Entry struct {
	TrackID string
	URI     string
	Title   string
	Artist  string
}

// String returns the display string "title by artist".
func (e Entry) String() string {
	if e.Artist == "" {
		return e.Title
	}
	return fmt.Sprintf("%s by %s", e.Title, e.Artist)
}

// Detection is the dominant facial expression a recognizer found in a frame.
type Detection struct {
	Label      string  // Recognizer label, e.g. "happy" or "surprise"
	Confidence float64 // 0-1
}

// Reading is one live emotion reading.
type Reading struct {
	Mood       Mood
	Raw        string  // Label as reported by the recognizer
	Confidence float64 // 0-1, zero when nothing was detected
	Detected   bool    // False when the recognizer missed or failed
	At         time.Time
}
