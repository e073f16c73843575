package capture

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

const snapshotTimeout = 10 * time.Second

// Snapshot is a Source backed by an IP camera's still-image URL.
type Snapshot struct {
	url        string
	httpClient *http.Client
}

// NewSnapshot creates a snapshot source for the given URL.
func NewSnapshot(url string) *Snapshot {
	return &Snapshot{
		url:        url,
		httpClient: &http.Client{Timeout: snapshotTimeout},
	}
}

// Open returns a device reading from the snapshot URL. The camera is not
// contacted until the first read.
func (s *Snapshot) Open(ctx context.Context) (Device, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDeviceUnavailable, err)
	}
	if s.url == "" {
		return nil, fmt.Errorf("%w: no snapshot URL configured", ErrDeviceUnavailable)
	}
	return &snapshotDevice{src: s}, nil
}

type snapshotDevice struct {
	src *Snapshot
}

func (d *snapshotDevice) ReadFrame(ctx context.Context) (Frame, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, d.src.url, nil)
	if err != nil {
		return Frame{}, fmt.Errorf("%w: creating request: %w", ErrDeviceUnavailable, err)
	}

	resp, err := d.src.httpClient.Do(req)
	if err != nil {
		return Frame{}, fmt.Errorf("%w: requesting snapshot: %w", ErrDeviceUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Frame{}, fmt.Errorf("%w: camera returned %s", ErrReadFailed, resp.Status)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, MaxUploadSize+1))
	if err != nil {
		return Frame{}, fmt.Errorf("%w: reading snapshot: %w", ErrReadFailed, err)
	}
	if len(data) > MaxUploadSize {
		return Frame{}, fmt.Errorf("%w: snapshot exceeds %d bytes", ErrReadFailed, MaxUploadSize)
	}

	return decodeFrame(data)
}

func (d *snapshotDevice) Close() error { return nil }
