package capture

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"
)

// MaxUploadSize bounds a single uploaded frame.
const MaxUploadSize = 5 << 20 // 5 MiB

// Upload is a Source holding one frame captured by the browser's webcam.
type Upload struct {
	data []byte
}

// NewUpload wraps raw image bytes posted by the browser.
func NewUpload(data []byte) *Upload {
	return &Upload{data: data}
}

// ParseDataURL builds an Upload from a "data:image/...;base64," URL as
// produced by canvas.toDataURL.
func ParseDataURL(dataURL string) (*Upload, error) {
	header, payload, ok := strings.Cut(strings.TrimSpace(dataURL), ",")
	if !ok || !strings.HasPrefix(header, "data:image/") || !strings.HasSuffix(header, ";base64") {
		return nil, fmt.Errorf("%w: not an image data URL", ErrDeviceUnavailable)
	}

	if base64.StdEncoding.DecodedLen(len(payload)) > MaxUploadSize {
		return nil, fmt.Errorf("%w: frame exceeds %d bytes", ErrReadFailed, MaxUploadSize)
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: decoding base64 frame: %w", ErrReadFailed, err)
	}
	return NewUpload(data), nil
}

// Open returns a device that yields the uploaded frame once.
func (u *Upload) Open(ctx context.Context) (Device, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDeviceUnavailable, err)
	}
	if u == nil || len(u.data) == 0 {
		return nil, fmt.Errorf("%w: no frame was uploaded", ErrDeviceUnavailable)
	}
	return &uploadDevice{data: u.data}, nil
}

type uploadDevice struct {
	data []byte
	read bool
}

func (d *uploadDevice) ReadFrame(ctx context.Context) (Frame, error) {
	if err := ctx.Err(); err != nil {
		return Frame{}, fmt.Errorf("%w: %w", ErrReadFailed, err)
	}
	if d.read {
		return Frame{}, fmt.Errorf("%w: upload already consumed", ErrReadFailed)
	}
	d.read = true
	return decodeFrame(d.data)
}

func (d *uploadDevice) Close() error {
	d.data = nil
	return nil
}
