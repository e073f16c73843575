package deepface

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/justestif/moodtunes/internal/capture"
)

var testFrame = capture.Frame{Data: []byte{0xff, 0xd8, 0xff}, ContentType: "image/jpeg"}

func TestDetectEmotion(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		body       string
		wantOK     bool
		wantLabel  string
		wantConf   float64
		wantErr    error
		wantAnyErr bool
	}{
		{
			name:      "dominant emotion",
			status:    http.StatusOK,
			body:      `{"results":[{"dominant_emotion":"surprise","emotion":{"surprise":87.5,"happy":10,"neutral":2.5}}]}`,
			wantOK:    true,
			wantLabel: "surprise",
			wantConf:  0.875,
		},
		{
			name:   "no face",
			status: http.StatusBadRequest,
			body:   `{"error":"Exception while analyzing: Face could not be detected in numpy array."}`,
		},
		{
			name:   "empty results",
			status: http.StatusOK,
			body:   `{"results":[]}`,
		},
		{
			name:    "server error",
			status:  http.StatusInternalServerError,
			body:    `{"error":"model not loaded"}`,
			wantErr: ErrUnexpectedResponse,
		},
		{
			name:       "malformed body",
			status:     http.StatusOK,
			body:       `not json`,
			wantAnyErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer server.Close()

			det, ok, err := NewClient(server.URL).DetectEmotion(context.Background(), testFrame)

			switch {
			case tt.wantErr != nil:
				assert.ErrorIs(t, err, tt.wantErr)
				return
			case tt.wantAnyErr:
				assert.Error(t, err)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.wantLabel, det.Label)
			assert.InDelta(t, tt.wantConf, det.Confidence, 1e-9)
		})
	}
}

func TestDetectEmotion_Request(t *testing.T) {
	var got analyzeRequest
	var path, contentType string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		contentType = r.Header.Get("Content-Type")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Write([]byte(`{"results":[{"dominant_emotion":"happy","emotion":{"happy":99}}]}`))
	}))
	defer server.Close()

	_, _, err := NewClient(server.URL+"/").DetectEmotion(context.Background(), testFrame)
	require.NoError(t, err)

	assert.Equal(t, "/analyze", path)
	assert.Equal(t, "application/json", contentType)
	assert.Equal(t, []string{"emotion"}, got.Actions)
	assert.True(t, got.EnforceDetection)
	assert.True(t, strings.HasPrefix(got.Img, "data:image/jpeg;base64,"), "img = %q", got.Img)
}

func TestDetectEmotion_Unreachable(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	_, ok, err := NewClient(url).DetectEmotion(context.Background(), testFrame)
	assert.Error(t, err)
	assert.False(t, ok)
}
