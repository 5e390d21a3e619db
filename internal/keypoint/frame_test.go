package keypoint

import (
	"testing"
)

var testLayout = Layout{
	{Name: "left_hand", Len: 4},
	{Name: "right_hand", Len: 4},
}

func TestFrameFlatten(t *testing.T) {
	tests := []struct {
		name     string
		frame    Frame
		expected Vector
	}{
		{
			name: "all_groups_present",
			frame: Frame{Groups: map[string]Group{
				"left_hand":  {Present: true, Values: []float64{1, 2, 3, 4}},
				"right_hand": {Present: true, Values: []float64{5, 6, 7, 8}},
			}},
			expected: Vector{1, 2, 3, 4, 5, 6, 7, 8},
		},
		{
			name: "absent_group_zero_filled",
			frame: Frame{Groups: map[string]Group{
				"left_hand": {Present: true, Values: []float64{1, 2, 3, 4}},
			}},
			expected: Vector{1, 2, 3, 4, 0, 0, 0, 0},
		},
		{
			name: "present_false_zero_filled",
			frame: Frame{Groups: map[string]Group{
				"left_hand":  {Present: false, Values: []float64{1, 2, 3, 4}},
				"right_hand": {Present: true, Values: []float64{5, 6, 7, 8}},
			}},
			expected: Vector{0, 0, 0, 0, 5, 6, 7, 8},
		},
		{
			name:     "empty_frame",
			frame:    Frame{},
			expected: Zeros(8),
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			got, err := test.frame.Flatten(testLayout)
			if err != nil {
				t.Fatalf("calling Flatten, got: %v, expected: nil", err)
			}
			if !got.Equal(test.expected) {
				t.Errorf("calling Flatten, got: %v, expected: %v", got, test.expected)
			}
		})
	}
}

func TestFrameFlattenWrongSubLength(t *testing.T) {
	frame := Frame{Groups: map[string]Group{
		"left_hand": {Present: true, Values: []float64{1, 2}},
	}}
	if _, err := frame.Flatten(testLayout); err == nil {
		t.Errorf("calling Flatten with short group, got: nil, expected error")
	}
}

func TestLayoutDimensions(t *testing.T) {
	tests := []struct {
		name     string
		layout   Layout
		expected int
	}{
		{name: "hands", layout: LayoutHands, expected: 84},
		{name: "holistic", layout: LayoutHolistic, expected: 1662},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if got := test.layout.Dimensions(); got != test.expected {
				t.Errorf("calling Dimensions, got: %v, expected: %v", got, test.expected)
			}
		})
	}
}

func TestVectorArgMax(t *testing.T) {
	tests := []struct {
		name     string
		vec      Vector
		expected int
	}{
		{name: "first", vec: Vector{0.9, 0.05, 0.05}, expected: 0},
		{name: "middle", vec: Vector{0.1, 0.8, 0.1}, expected: 1},
		{name: "empty", vec: Vector{}, expected: -1},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if got := test.vec.ArgMax(); got != test.expected {
				t.Errorf("calling ArgMax, got: %v, expected: %v", got, test.expected)
			}
		})
	}
}
