package spotify

import (
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

// ErrInvalidReference is returned when a playlist reference has no usable
// playlist ID.
var ErrInvalidReference = errors.New("invalid playlist reference")

const (
	playlistSegment   = "playlist"
	playlistURIPrefix = "spotify:playlist:"
)

var playlistIDPattern = regexp.MustCompile(`^[A-Za-z0-9]+$`)

// ResolvePlaylistID extracts the playlist ID from a playlist URL or URI.
//
// Accepted forms:
//   - https://open.spotify.com/playlist/<id>?si=... (any host, any prefix path)
//   - open.spotify.com/playlist/<id>
//   - spotify:playlist:<id>
//
// It never performs network calls.
func ResolvePlaylistID(ref string) (string, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return "", fmt.Errorf("%w: empty reference", ErrInvalidReference)
	}

	if id, ok := strings.CutPrefix(ref, playlistURIPrefix); ok {
		return validatePlaylistID(ref, id)
	}

	raw := ref
	if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}

	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return "", fmt.Errorf("%w: %q is not a URL", ErrInvalidReference, ref)
	}

	segments := strings.Split(strings.Trim(u.Path, "/"), "/")
	for i, seg := range segments {
		if seg == playlistSegment && i+1 < len(segments) {
			return validatePlaylistID(ref, segments[i+1])
		}
	}

	return "", fmt.Errorf("%w: %q has no /%s/ segment", ErrInvalidReference, ref, playlistSegment)
}

func validatePlaylistID(ref, id string) (string, error) {
	if !playlistIDPattern.MatchString(id) {
		return "", fmt.Errorf("%w: malformed playlist ID in %q", ErrInvalidReference, ref)
	}
	return id, nil
}
