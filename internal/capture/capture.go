// Package capture provides camera frame sources for emotion sampling.
package capture

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg" // Register decoders for DecodeConfig
	_ "image/png"
)

// Sentinel errors.
var (
	// ErrDeviceUnavailable is returned when a capture device cannot be opened.
	ErrDeviceUnavailable = errors.New("capture device unavailable")

	// ErrReadFailed is returned when an open device yields no usable frame.
	ErrReadFailed = errors.New("frame read failed")
)

// Frame is one still image from a capture device.
type Frame struct {
	Data        []byte
	ContentType string // "image/jpeg" or "image/png"
	Width       int
	Height      int
}

// Source opens capture devices.
type Source interface {
	Open(ctx context.Context) (Device, error)
}

// Device yields frames until closed.
type Device interface {
	ReadFrame(ctx context.Context) (Frame, error)
	Close() error
}

// decodeFrame checks that data is a supported, non-empty image.
func decodeFrame(data []byte) (Frame, error) {
	if len(data) == 0 {
		return Frame{}, fmt.Errorf("%w: empty frame", ErrReadFailed)
	}

	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return Frame{}, fmt.Errorf("%w: decoding frame: %w", ErrReadFailed, err)
	}
	if cfg.Width == 0 || cfg.Height == 0 {
		return Frame{}, fmt.Errorf("%w: frame has no pixels", ErrReadFailed)
	}

	return Frame{
		Data:        data,
		ContentType: "image/" + format,
		Width:       cfg.Width,
		Height:      cfg.Height,
	}, nil
}
