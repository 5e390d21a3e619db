package model

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/gestureconnect/signd/internal/keypoint"
)

// DefaultEpsilon guards the division when a feature had zero variance in
// training.
const DefaultEpsilon = 1e-8

// Params holds the mean/std captured at training time. Mean and Std are
// either length 1 (a global scalar fit) or per-feature of the model's
// dimensionality. Params are immutable after load and shared read-only across
// sessions; re-fitting from live data is deliberately not supported since it
// would silently break classification accuracy.
type Params struct {
	Mean scalarOrVector `json:"mean"`
	Std  scalarOrVector `json:"std"`

	// Epsilon is added to std before dividing. Zero means DefaultEpsilon.
	Epsilon float64 `json:"-"`
}

// Identity returns parameters that leave windows unchanged (mean=0, std=1).
// Used when no normalization file was shipped with the model: prediction
// still runs, degraded.
func Identity() *Params {
	return &Params{Mean: scalarOrVector{0}, Std: scalarOrVector{1}, Epsilon: DefaultEpsilon}
}

// LoadParams reads serialized normalization parameters and validates them
// against the model dimensionality. A missing file is not an error: identity
// parameters are returned instead. A mean or std vector whose length is
// neither 1 nor dims is a configuration error, rejected here so it can never
// misalign features at predict time.
func LoadParams(path string, dims int, epsilon float64) (*Params, error) {
	if epsilon <= 0 {
		epsilon = DefaultEpsilon
	}
	if path == "" {
		p := Identity()
		p.Epsilon = epsilon
		return p, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			p := Identity()
			p.Epsilon = epsilon
			return p, nil
		}
		return nil, fmt.Errorf("unable read normalization params %s: %w", path, err)
	}
	var p Params
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("unable decode normalization params %s: %w", path, err)
	}
	if len(p.Mean) == 0 || len(p.Std) == 0 {
		return nil, fmt.Errorf("normalization params %s: mean and std must not be empty", path)
	}
	if len(p.Mean) != 1 && len(p.Mean) != dims {
		return nil, fmt.Errorf("normalization params %s: mean has %d values, want 1 or %d", path, len(p.Mean), dims)
	}
	if len(p.Std) != 1 && len(p.Std) != dims {
		return nil, fmt.Errorf("normalization params %s: std has %d values, want 1 or %d", path, len(p.Std), dims)
	}
	p.Epsilon = epsilon
	return &p, nil
}

// Normalize applies (x - mean) / (std + epsilon) element-wise to every vector
// of the window and returns a new window; the input is not mutated.
func (p *Params) Normalize(window []keypoint.Vector) []keypoint.Vector {
	eps := p.epsilon()
	out := make([]keypoint.Vector, len(window))
	for i, vec := range window {
		nv := make(keypoint.Vector, len(vec))
		for j := range vec {
			nv[j] = (vec[j] - p.mean(j)) / (p.std(j) + eps)
		}
		out[i] = nv
	}
	return out
}

func (p *Params) epsilon() float64 {
	if p.Epsilon <= 0 {
		return DefaultEpsilon
	}
	return p.Epsilon
}

func (p *Params) mean(idx int) float64 {
	if len(p.Mean) == 1 {
		return p.Mean[0]
	}
	return p.Mean[idx]
}

func (p *Params) std(idx int) float64 {
	if len(p.Std) == 1 {
		return p.Std[0]
	}
	return p.Std[idx]
}

// scalarOrVector accepts both a bare JSON number (scalar fit) and an array
// (per-feature fit); the training exporter has produced both shapes.
type scalarOrVector []float64

func (s *scalarOrVector) UnmarshalJSON(b []byte) error {
	var scalar float64
	if err := json.Unmarshal(b, &scalar); err == nil {
		*s = scalarOrVector{scalar}
		return nil
	}
	var vec []float64
	if err := json.Unmarshal(b, &vec); err != nil {
		return fmt.Errorf("mean/std must be a number or an array of numbers")
	}
	*s = vec
	return nil
}
