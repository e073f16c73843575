package db

import "time"

// TrackTag represents a Last.fm tag cached for a track. TrackID holds the
// cache key, which is the catalog ID or a "local:" key for local files.
// Rank is the tag's position in the Last.fm response.
type TrackTag struct {
	TrackID   string
	TagName   string
	TagCount  int
	Rank      int
	Source    string // "track" or "artist"
	FetchedAt time.Time
}
