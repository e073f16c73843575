// Package lastfm provides Last.fm API integration for fetching track tags.
package lastfm

// DefaultCacheSize is the number of tag lookups kept in memory.
const DefaultCacheSize = 4096

// Config holds Last.fm API configuration.
type Config struct {
	APIKey    string
	CacheSize int // Zero uses DefaultCacheSize
}
