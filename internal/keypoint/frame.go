package keypoint

import (
	"fmt"
)

// Group is one landmark group of a single frame. A group that the detector
// did not find is carried with Present=false and contributes an all-zero
// sub-vector of its fixed length, preserving positional feature alignment.
type Group struct {
	Present bool      `json:"present"`
	Values  []float64 `json:"values,omitempty"`
}

// GroupSpec names one landmark group and fixes its flattened length.
type GroupSpec struct {
	Name string
	Len  int
}

// Layout fixes the order and sub-lengths of the landmark groups that are
// concatenated into a frame vector.
type Layout []GroupSpec

// Well known layouts of the upstream landmark detectors. The holistic layout
// concatenates pose (33 landmarks x 4 values), face (468 x 3) and both hands
// (21 x 3 each). The hands-only layout carries x,y for 21 landmarks per hand.
var (
	LayoutHolistic = Layout{
		{Name: "pose", Len: 33 * 4},
		{Name: "face", Len: 468 * 3},
		{Name: "left_hand", Len: 21 * 3},
		{Name: "right_hand", Len: 21 * 3},
	}
	LayoutHands = Layout{
		{Name: "left_hand", Len: 21 * 2},
		{Name: "right_hand", Len: 21 * 2},
	}
)

// LayoutFor resolves a layout by name.
func LayoutFor(name string) (Layout, error) {
	switch name {
	case "HOLISTIC":
		return LayoutHolistic, nil
	case "HANDS":
		return LayoutHands, nil
	default:
		return nil, fmt.Errorf("unknown keypoint layout: %s", name)
	}
}

// Dimensions is the total flattened vector length of the layout.
func (l Layout) Dimensions() int {
	var n int
	for i := range l {
		n += l[i].Len
	}
	return n
}

// Frame is the tagged extractor output for one video frame: one Group per
// layout entry, keyed by group name.
type Frame struct {
	Groups map[string]Group `json:"groups"`
}

// Flatten concatenates the frame's groups in layout order into a single
// vector. Absent groups are zero-filled at their fixed sub-length. A present
// group whose value length differs from the layout's sub-length is a
// data-integrity error.
func (f Frame) Flatten(layout Layout) (Vector, error) {
	out := make(Vector, 0, layout.Dimensions())
	for _, spec := range layout {
		g, ok := f.Groups[spec.Name]
		if !ok || !g.Present {
			out = append(out, Zeros(spec.Len)...)
			continue
		}
		if len(g.Values) != spec.Len {
			return nil, fmt.Errorf("group %s: got %d values, layout wants %d", spec.Name, len(g.Values), spec.Len)
		}
		out = append(out, g.Values...)
	}
	return out, nil
}
