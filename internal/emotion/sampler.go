// Package emotion samples the listener's facial expression and maps it onto
// the deployment's mood taxonomy.
package emotion

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/justestif/moodtunes/internal/capture"
	"github.com/justestif/moodtunes/internal/mood"
)

// ErrCaptureUnavailable is returned when no frame could be captured. The
// error also matches the underlying capture sentinel.
var ErrCaptureUnavailable = errors.New("capture unavailable")

// Recognizer finds the dominant facial expression in a frame. ok is false
// when no face was found.
type Recognizer interface {
	DetectEmotion(ctx context.Context, frame capture.Frame) (d mood.Detection, ok bool, err error)
}

// Sampler takes one emotion reading per call.
type Sampler struct {
	recognizer Recognizer
	taxonomy   mood.Taxonomy
	now        func() time.Time
}

// NewSampler creates a sampler that normalizes readings onto taxonomy.
func NewSampler(recognizer Recognizer, taxonomy mood.Taxonomy) *Sampler {
	return &Sampler{
		recognizer: recognizer,
		taxonomy:   taxonomy,
		now:        time.Now,
	}
}

// Sample captures one frame from src and classifies it.
//
// A device that cannot be opened or read fails with ErrCaptureUnavailable and
// is not retried. A recognizer failure or a frame without a face is not an
// error: the reading is neutral with Detected false.
func (s *Sampler) Sample(ctx context.Context, src capture.Source) (mood.Reading, error) {
	frame, err := grab(ctx, src)
	if err != nil {
		return mood.Reading{}, fmt.Errorf("%w: %w", ErrCaptureUnavailable, err)
	}

	det, ok, err := s.recognizer.DetectEmotion(ctx, frame)
	at := s.now()
	if err != nil {
		log.Printf("WARN: emotion recognition failed: %v", err)
		return s.neutral(at), nil
	}
	if !ok {
		log.Printf("WARN: no face detected in %dx%d frame", frame.Width, frame.Height)
		return s.neutral(at), nil
	}

	return mood.Reading{
		Mood:       s.taxonomy.Normalize(det.Label),
		Raw:        det.Label,
		Confidence: det.Confidence,
		Detected:   true,
		At:         at,
	}, nil
}

func (s *Sampler) neutral(at time.Time) mood.Reading {
	return mood.Reading{
		Mood: s.taxonomy.Normalize(""),
		At:   at,
	}
}

// grab opens src, reads one frame and releases the device.
func grab(ctx context.Context, src capture.Source) (capture.Frame, error) {
	dev, err := src.Open(ctx)
	if err != nil {
		return capture.Frame{}, err
	}
	defer func() {
		if err := dev.Close(); err != nil {
			log.Printf("WARN: closing capture device: %v", err)
		}
	}()

	return dev.ReadFrame(ctx)
}
