// Package deepface is a client for the emotion action of a DeepFace REST
// service (POST /analyze).
package deepface

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/justestif/moodtunes/internal/capture"
	"github.com/justestif/moodtunes/internal/mood"
)

const (
	requestTimeout = 10 * time.Second
	analyzePath    = "/analyze"
)

// ErrUnexpectedResponse is returned for non-success responses other than a
// missing face.
var ErrUnexpectedResponse = errors.New("unexpected deepface response")

// Client calls a DeepFace service.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a client for the service at baseURL.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{Timeout: requestTimeout},
	}
}

type analyzeRequest struct {
	Img              string   `json:"img"`
	Actions          []string `json:"actions"`
	EnforceDetection bool     `json:"enforce_detection"`
}

type analyzeResponse struct {
	Results []struct {
		DominantEmotion string             `json:"dominant_emotion"`
		Emotion         map[string]float64 `json:"emotion"`
		FaceConfidence  float64            `json:"face_confidence"`
	} `json:"results"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// DetectEmotion returns the dominant emotion of the first face in the frame.
// ok is false when the service found no face.
func (c *Client) DetectEmotion(ctx context.Context, frame capture.Frame) (mood.Detection, bool, error) {
	body, err := json.Marshal(analyzeRequest{
		Img:              "data:" + frame.ContentType + ";base64," + base64.StdEncoding.EncodeToString(frame.Data),
		Actions:          []string{"emotion"},
		EnforceDetection: true,
	})
	if err != nil {
		return mood.Detection{}, false, fmt.Errorf("encoding request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+analyzePath, bytes.NewReader(body))
	if err != nil {
		return mood.Detection{}, false, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return mood.Detection{}, false, fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return mood.Detection{}, false, fmt.Errorf("reading response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var e errorResponse
		_ = json.Unmarshal(data, &e)
		// enforce_detection makes DeepFace reject frames without a face
		if resp.StatusCode == http.StatusBadRequest && isNoFace(e.Error) {
			return mood.Detection{}, false, nil
		}
		return mood.Detection{}, false, fmt.Errorf("%w: status %d: %s", ErrUnexpectedResponse, resp.StatusCode, e.Error)
	}

	var ar analyzeResponse
	if err := json.Unmarshal(data, &ar); err != nil {
		return mood.Detection{}, false, fmt.Errorf("parsing analyze response: %w", err)
	}
	if len(ar.Results) == 0 || ar.Results[0].DominantEmotion == "" {
		return mood.Detection{}, false, nil
	}

	first := ar.Results[0]
	return mood.Detection{
		Label:      first.DominantEmotion,
		Confidence: first.Emotion[first.DominantEmotion] / 100,
	}, true, nil
}

func isNoFace(msg string) bool {
	msg = strings.ToLower(msg)
	return strings.Contains(msg, "face could not be detected") || strings.Contains(msg, "no face")
}
