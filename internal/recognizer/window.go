package recognizer

import (
	"fmt"

	"github.com/gestureconnect/signd/internal/keypoint"
)

// ErrDimensionMismatch is returned when an ingested vector's length differs
// from the model's feature dimensionality. Silently storing such a vector
// would corrupt the positional feature alignment the classifier was trained
// on, so the push is rejected and the window is left unchanged.
var ErrDimensionMismatch = fmt.Errorf("keypoint vector dimensionality mismatch")

// window is a bounded FIFO of the most recent keypoint vectors in arrival
// order. It is not safe for concurrent use; the owning session serializes
// access.
type window struct {
	size  int
	dims  int
	items []keypoint.Vector
}

func newWindow(size, dims int) *window {
	return &window{size: size, dims: dims, items: make([]keypoint.Vector, 0, size)}
}

// push appends vec, evicting from the front when the window is over capacity.
func (w *window) push(vec keypoint.Vector) error {
	if vec.Dimensions() != w.dims {
		return fmt.Errorf("%w: got %d, want %d", ErrDimensionMismatch, vec.Dimensions(), w.dims)
	}
	w.items = append(w.items, vec)
	if len(w.items) > w.size {
		w.items = w.items[len(w.items)-w.size:]
	}
	return nil
}

func (w *window) len() int {
	return len(w.items)
}

func (w *window) isFull() bool {
	return len(w.items) == w.size
}

// snapshot returns the current contents as an independent copy, so callers
// never observe mutation mid-read.
func (w *window) snapshot() []keypoint.Vector {
	out := make([]keypoint.Vector, len(w.items))
	for i := range w.items {
		out[i] = w.items[i].Copy()
	}
	return out
}

func (w *window) clear() {
	w.items = w.items[:0]
}
