package capture

import (
	"bytes"
	"context"
	"encoding/base64"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pngFrame(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	img.Set(0, 0, color.RGBA{R: 255, A: 255})

	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestUpload_ReadsOnce(t *testing.T) {
	data := pngFrame(t, 4, 3)
	dev, err := NewUpload(data).Open(context.Background())
	require.NoError(t, err)
	defer dev.Close()

	frame, err := dev.ReadFrame(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "image/png", frame.ContentType)
	assert.Equal(t, 4, frame.Width)
	assert.Equal(t, 3, frame.Height)
	assert.Equal(t, data, frame.Data)

	_, err = dev.ReadFrame(context.Background())
	assert.ErrorIs(t, err, ErrReadFailed)
}

func TestUpload_OpenErrors(t *testing.T) {
	_, err := NewUpload(nil).Open(context.Background())
	assert.ErrorIs(t, err, ErrDeviceUnavailable)

	var nilUpload *Upload
	_, err = nilUpload.Open(context.Background())
	assert.ErrorIs(t, err, ErrDeviceUnavailable)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = NewUpload([]byte("x")).Open(ctx)
	assert.ErrorIs(t, err, ErrDeviceUnavailable)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestUpload_GarbageFrame(t *testing.T) {
	dev, err := NewUpload([]byte("definitely not an image")).Open(context.Background())
	require.NoError(t, err)

	_, err = dev.ReadFrame(context.Background())
	assert.ErrorIs(t, err, ErrReadFailed)
}

func TestParseDataURL(t *testing.T) {
	data := pngFrame(t, 2, 2)

	tests := []struct {
		name    string
		input   string
		wantErr error
	}{
		{"png data URL", "data:image/png;base64," + base64.StdEncoding.EncodeToString(data), nil},
		{"not a data URL", "https://example.com/cat.png", ErrDeviceUnavailable},
		{"wrong media type", "data:text/plain;base64,aGVsbG8=", ErrDeviceUnavailable},
		{"bad base64", "data:image/jpeg;base64,!!!", ErrReadFailed},
		{"empty", "", ErrDeviceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			up, err := ParseDataURL(tt.input)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, data, up.data)
		})
	}
}

func TestSnapshot(t *testing.T) {
	data := pngFrame(t, 8, 8)

	tests := []struct {
		name    string
		handler http.HandlerFunc
		wantErr error
	}{
		{
			name: "returns frame",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "image/png")
				w.Write(data)
			},
		},
		{
			name: "camera error status",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusServiceUnavailable)
			},
			wantErr: ErrReadFailed,
		},
		{
			name: "camera returns html",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte("<html>login required</html>"))
			},
			wantErr: ErrReadFailed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(tt.handler)
			defer server.Close()

			dev, err := NewSnapshot(server.URL + "/snapshot.jpg").Open(context.Background())
			require.NoError(t, err)
			defer dev.Close()

			frame, err := dev.ReadFrame(context.Background())
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "image/png", frame.ContentType)
			assert.Equal(t, 8, frame.Width)
		})
	}
}

func TestSnapshot_Unreachable(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	dev, err := NewSnapshot(url).Open(context.Background())
	require.NoError(t, err)

	_, err = dev.ReadFrame(context.Background())
	assert.ErrorIs(t, err, ErrDeviceUnavailable)
}

func TestSnapshot_NoURL(t *testing.T) {
	_, err := NewSnapshot("").Open(context.Background())
	assert.ErrorIs(t, err, ErrDeviceUnavailable)
}
