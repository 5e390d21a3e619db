// Package remote implements the sidecar classifier deployment: windows are
// posted to an external inference service that hosts the trained network.
package remote

import (
	"bytes"
	"context"
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

type Config struct {
	URL            string        `envconfig:"SIGND_CLASSIFIER_URL"`
	RequestTimeout time.Duration `envconfig:"SIGND_CLASSIFIER_REQUEST_TIMEOUT" default:"10s"`

	HTTPConfig httputil.HTTPClientConfig `envconfig:"-"`
}

type request struct {
	Window [][]float64 `json:"window"`
}

type response struct {
	Scores []float64 `json:"scores"`
}

type Classifier struct {
	url        string
	timeout    time.Duration
	numClasses int
	client     *http.Client
}

// New builds a classifier client for the inference sidecar. numClasses is the
// manifest's class count; a response of a different width is rejected as a
// configuration error rather than surfaced as scores.
func New(cfg *Config, numClasses int) (*Classifier, error) {
	link, err := url.Parse(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("url parsing error: %w", err)
	}
	client, err := httputil.NewClientFromConfig(cfg.HTTPConfig, false)
	if err != nil {
		return nil, fmt.Errorf("unable create inference client: %w", err)
	}
	return &Classifier{
		url:        link.String(),
		timeout:    cfg.RequestTimeout,
		numClasses: numClasses,
		client:     client,
	}, nil
}

func (c *Classifier) Classify(ctx context.Context, window []keypoint.Vector) ([]float64, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req := request{Window: make([][]float64, len(window))}
	for i := range window {
		req.Window[i] = window[i]
	}
	body, err := json.Marshal(&req)
	if err != nil {
		return nil, fmt.Errorf("unable encode inference request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating request error: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Add("User-Agent", UserAgent)

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("sending request error: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("response was not 200 OK: %s", raw)
	}

	var out response
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("decoding response error: %w", err)
	}
	if len(out.Scores) != c.numClasses {
		return nil, fmt.Errorf("inference service returned %d scores, manifest has %d classes", len(out.Scores), c.numClasses)
	}
	return out.Scores, nil
}
