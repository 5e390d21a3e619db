package linear

import (
	"context"
	"encoding/json"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/gestureconnect/signd/internal/keypoint"
)

func writeArtifact(t *testing.T, a artifact) string {
	t.Helper()
	raw, err := json.Marshal(a)
	if err != nil {
		t.Fatalf("unable marshal artifact: %v", err)
	}
	path := filepath.Join(t.TempDir(), "weights.json")
	if err := os.WriteFile(path, raw, 0o600); err != nil {
		t.Fatalf("unable write artifact: %v", err)
	}
	return path
}

func TestNewShapeValidation(t *testing.T) {
	tests := []struct {
		name        string
		artifact    artifact
		numClasses  int
		seqLen      int
		dims        int
		expectedErr bool
	}{
		{
			name: "valid",
			artifact: artifact{
				Weights: [][]float64{{1, 0, 0, 0}, {0, 1, 0, 0}},
				Bias:    []float64{0, 0},
			},
			numClasses: 2,
			seqLen:     2,
			dims:       2,
		},
		{
			name: "valid_without_bias",
			artifact: artifact{
				Weights: [][]float64{{1, 0, 0, 0}, {0, 1, 0, 0}},
			},
			numClasses: 2,
			seqLen:     2,
			dims:       2,
		},
		{
			name: "row_count_mismatch",
			artifact: artifact{
				Weights: [][]float64{{1, 0, 0, 0}},
			},
			numClasses:  2,
			seqLen:      2,
			dims:        2,
			expectedErr: true,
		},
		{
			name: "row_width_mismatch",
			artifact: artifact{
				Weights: [][]float64{{1, 0}, {0, 1}},
			},
			numClasses:  2,
			seqLen:      2,
			dims:        2,
			expectedErr: true,
		},
		{
			name: "bias_length_mismatch",
			artifact: artifact{
				Weights: [][]float64{{1, 0, 0, 0}, {0, 1, 0, 0}},
				Bias:    []float64{1},
			},
			numClasses:  2,
			seqLen:      2,
			dims:        2,
			expectedErr: true,
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			path := writeArtifact(t, test.artifact)
			_, err := New(path, test.numClasses, test.seqLen, test.dims)
			if test.expectedErr && err == nil {
				t.Errorf("calling New, got: nil, expected error")
			}
			if !test.expectedErr && err != nil {
				t.Errorf("calling New, got: %v, expected: nil", err)
			}
		})
	}
}

func TestNewMissingFile(t *testing.T) {
	if _, err := New(filepath.Join(t.TempDir(), "nope.json"), 1, 1, 1); err == nil {
		t.Errorf("calling New with missing file, got: nil, expected error")
	}
}

func TestClassify(t *testing.T) {
	path := writeArtifact(t, artifact{
		Weights: [][]float64{
			{10, 0, 0, 0},
			{0, 0, 0, 10},
		},
		Bias: []float64{0, 0},
	})
	c, err := New(path, 2, 2, 2)
	if err != nil {
		t.Fatalf("calling New, got: %v, expected: nil", err)
	}

	scores, err := c.Classify(context.Background(), []keypoint.Vector{{1, 0}, {0, 0}})
	if err != nil {
		t.Fatalf("calling Classify, got: %v, expected: nil", err)
	}
	if len(scores) != 2 {
		t.Fatalf("scores length got: %v, expected: 2", len(scores))
	}
	if scores[0] <= scores[1] {
		t.Errorf("scores order got: %v, expected first class dominant", scores)
	}

	var sum float64
	for _, s := range scores {
		sum += s
	}
	if math.Abs(sum-1) > 1e-9 {
		t.Errorf("scores sum got: %v, expected: 1", sum)
	}
}

func TestClassifyWrongWindowSize(t *testing.T) {
	path := writeArtifact(t, artifact{Weights: [][]float64{{1, 1, 1, 1}}})
	c, err := New(path, 1, 2, 2)
	if err != nil {
		t.Fatalf("calling New, got: %v, expected: nil", err)
	}

	if _, err := c.Classify(context.Background(), []keypoint.Vector{{1, 0}}); err == nil {
		t.Errorf("calling Classify with short window, got: nil, expected error")
	}
}
