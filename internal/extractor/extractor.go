// Package extractor turns raw video frames into keypoint groups by calling
// an external landmark extraction sidecar over HTTP.
package extractor

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/gestureconnect/signd/internal/httputil"
	"github.com/gestureconnect/signd/internal/keypoint"
)

const UserAgent = "SIGND/0.1"

// Extractor produces keypoint groups from an encoded image.
type Extractor interface {
	Extract(ctx context.Context, image []byte) (keypoint.Frame, error)
}

type request struct {
	Image string `json:"image"`
}

type response struct {
	Groups map[string][]float64 `json:"groups"`
}

type Remote struct {
	url     string
	timeout time.Duration
	client  *http.Client
}

func New(cfg *Config) (*Remote, error) {
	link, err := url.Parse(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("url parsing error: %w", err)
	}
	client, err := httputil.NewClientFromConfig(cfg.HTTPConfig, false)
	if err != nil {
		return nil, fmt.Errorf("unable create extractor client: %w", err)
	}
	return &Remote{
		url:     link.String(),
		timeout: cfg.RequestTimeout,
		client:  client,
	}, nil
}

// Extract posts the base64-encoded image to the sidecar. Groups the sidecar
// did not detect are simply absent from the returned frame and flatten to
// zeros downstream.
func (r *Remote) Extract(ctx context.Context, image []byte) (keypoint.Frame, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	body, err := json.Marshal(&request{Image: base64.StdEncoding.EncodeToString(image)})
	if err != nil {
		return keypoint.Frame{}, fmt.Errorf("unable encode extract request: %w", err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, r.url, bytes.NewReader(body))
	if err != nil {
		return keypoint.Frame{}, fmt.Errorf("creating request error: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Add("User-Agent", UserAgent)

	resp, err := r.client.Do(httpReq)
	if err != nil {
		return keypoint.Frame{}, fmt.Errorf("sending request error: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return keypoint.Frame{}, fmt.Errorf("failed to read response body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return keypoint.Frame{}, fmt.Errorf("response was not 200 OK: %s", raw)
	}

	var out response
	if err := json.Unmarshal(raw, &out); err != nil {
		return keypoint.Frame{}, fmt.Errorf("decoding response error: %w", err)
	}
	frame := keypoint.Frame{Groups: map[string]keypoint.Group{}}
	for name, values := range out.Groups {
		frame.Groups[name] = keypoint.Group{Present: true, Values: values}
	}
	return frame, nil
}
