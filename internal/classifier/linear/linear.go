// Package linear implements the in-process classifier deployment: an affine
// head with softmax over the flattened window, loaded from a weights file
// exported by the training pipeline.
package linear

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"os"

	"github.com/gestureconnect/signd/internal/keypoint"
	"gonum.org/v1/gonum/floats"
)

type artifact struct {
	// Weights is numClasses rows of sequenceLength*dimensions columns.
	Weights [][]float64 `json:"weights"`
	Bias    []float64   `json:"bias"`
}

type Classifier struct {
	weights  [][]float64
	bias     []float64
	inputLen int
}

// New loads a weights artifact and validates its shape against the manifest:
// the number of weight rows must equal the number of known classes and every
// row must cover one flattened window. A mismatch is a configuration error
// and fails the load rather than producing misaligned scores at runtime.
func New(path string, numClasses, sequenceLength, dimensions int) (*Classifier, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("unable read weights %s: %w", path, err)
	}
	var a artifact
	if err := json.Unmarshal(raw, &a); err != nil {
		return nil, fmt.Errorf("unable decode weights %s: %w", path, err)
	}

	inputLen := sequenceLength * dimensions
	if len(a.Weights) != numClasses {
		return nil, fmt.Errorf("weights %s: %d output rows, manifest has %d classes", path, len(a.Weights), numClasses)
	}
	for i := range a.Weights {
		if len(a.Weights[i]) != inputLen {
			return nil, fmt.Errorf("weights %s: row %d has %d columns, window is %d", path, i, len(a.Weights[i]), inputLen)
		}
	}
	if len(a.Bias) != 0 && len(a.Bias) != numClasses {
		return nil, fmt.Errorf("weights %s: bias length %d, manifest has %d classes", path, len(a.Bias), numClasses)
	}
	if len(a.Bias) == 0 {
		a.Bias = make([]float64, numClasses)
	}

	return &Classifier{weights: a.Weights, bias: a.Bias, inputLen: inputLen}, nil
}

func (c *Classifier) Classify(_ context.Context, window []keypoint.Vector) ([]float64, error) {
	flat := make([]float64, 0, c.inputLen)
	for i := range window {
		flat = append(flat, window[i]...)
	}
	if len(flat) != c.inputLen {
		return nil, fmt.Errorf("window flattens to %d values, model wants %d", len(flat), c.inputLen)
	}

	logits := make([]float64, len(c.weights))
	for i := range c.weights {
		logits[i] = c.bias[i] + floats.Dot(c.weights[i], flat)
	}
	softmax(logits)
	return logits, nil
}

// softmax converts logits to a probability distribution in place, shifting by
// the max logit for numeric stability.
func softmax(v []float64) {
	max := floats.Max(v)
	var sum float64
	for i := range v {
		v[i] = math.Exp(v[i] - max)
		sum += v[i]
	}
	for i := range v {
		v[i] /= sum
	}
}
