package spotify

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolvePlaylistID(t *testing.T) {
	tests := []struct {
		name    string
		ref     string
		want    string
		wantErr bool
	}{
		{"plain URL", "https://open.catalog.example/playlist/4F2z", "4F2z", false},
		{"spotify URL with share params", "https://open.spotify.com/playlist/37i9dQZF1DXcBWIGoYBM5M?si=abc123", "37i9dQZF1DXcBWIGoYBM5M", false},
		{"trailing slash", "https://open.spotify.com/playlist/4F2z/", "4F2z", false},
		{"fragment ignored", "https://open.spotify.com/playlist/4F2z#top", "4F2z", false},
		{"localized path prefix", "https://open.spotify.com/intl-de/playlist/4F2z", "4F2z", false},
		{"legacy user path", "https://open.spotify.com/user/someone/playlist/4F2z", "4F2z", false},
		{"missing scheme", "open.spotify.com/playlist/4F2z", "4F2z", false},
		{"surrounding whitespace", "  https://open.spotify.com/playlist/4F2z\n", "4F2z", false},
		{"spotify URI", "spotify:playlist:4F2z", "4F2z", false},
		{"not a URL", "not-a-url", "", true},
		{"empty", "", "", true},
		{"whitespace only", "   ", "", true},
		{"album URL", "https://open.spotify.com/album/4F2z", "", true},
		{"segment without ID", "https://open.spotify.com/playlist/", "", true},
		{"malformed ID", "https://open.spotify.com/playlist/4F2z%20x", "", true},
		{"URI without ID", "spotify:playlist:", "", true},
		{"URI with bad characters", "spotify:playlist:ab-cd", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ResolvePlaylistID(tt.ref)

			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidReference)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
