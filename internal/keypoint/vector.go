// Package keypoint defines the per-frame feature vector produced by landmark
// extraction and consumed by the sequence classifier.
package keypoint

import (
	"gonum.org/v1/gonum/floats"
)

// Vector is an ordered, fixed-dimensionality encoding of the landmark
// positions detected in a single frame.
type Vector []float64

func New(vec []float64) Vector {
	return vec
}

// Zeros returns an all-zero vector of dimensionality n. An all-zero vector is
// the conventional encoding for "no landmarks detected".
func Zeros(n int) Vector {
	return make(Vector, n)
}

func (v Vector) Dimensions() int {
	return len(v)
}

func (v Vector) Points() []float64 {
	return v
}

func (v Vector) Copy() Vector {
	v1 := make(Vector, len(v))
	copy(v1, v)
	return v1
}

func (v Vector) SizeEqual(vec Vector) bool {
	return len(v) == len(vec)
}

func (v Vector) Equal(vec Vector) bool {
	if len(v) != len(vec) {
		return false
	}
	return floats.Equal(v, vec)
}

// IsZero reports whether every feature is exactly zero, i.e. the extractor
// found no landmarks in the frame.
func (v Vector) IsZero() bool {
	for i := range v {
		if v[i] != 0 {
			return false
		}
	}
	return true
}

// ArgMax returns the index of the largest element, or -1 for an empty vector.
func (v Vector) ArgMax() int {
	if len(v) == 0 {
		return -1
	}
	return floats.MaxIdx(v)
}

func (v Vector) Sum() float64 {
	return floats.Sum(v)
}
