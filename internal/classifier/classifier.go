// Package classifier defines the boundary to the trained sequence model. The
// model itself is an opaque function from a normalized window to a
// probability distribution over the known classes.
package classifier

import (
	"context"
	"errors"
	"sync"

	"github.com/gestureconnect/signd/internal/keypoint"
)

// ErrNoModel marks the expected, recoverable condition of no model artifact
// being deployed yet. Callers surface it as a structured result rather than a
// failure.
var ErrNoModel = errors.New("no classifier model available")

// ProvideFn is the contract for returning a Classifier instance.
type ProvideFn func() (Classifier, error)

// Classifier maps a normalized window of L keypoint vectors to class scores.
// The returned slice has exactly one score per known class, aligned with the
// manifest's ordered class list.
type Classifier interface {
	Classify(ctx context.Context, window []keypoint.Vector) ([]float64, error)
}

type AlgType string

const (
	AlgTypeLinear AlgType = "LINEAR"
	AlgTypeRemote AlgType = "REMOTE"
)

type Config struct {
	Type AlgType `envconfig:"SIGND_CLASSIFIER_TYPE" default:"LINEAR"`
}

func (c Config) ClassifierType() AlgType {
	return c.Type
}

// Loader holds the optional classifier. A failed startup load is not fatal:
// the load is retried on demand, one attempt at a time, and callers receive
// the error as a value until a load succeeds.
type Loader struct {
	mtx       sync.Mutex
	provideFn ProvideFn
	loaded    Classifier
}

func NewLoader(provideFn ProvideFn) *Loader {
	return &Loader{provideFn: provideFn}
}

// Get returns the loaded classifier, attempting a load if none is present.
// Concurrent callers serialize on the load attempt.
func (l *Loader) Get() (Classifier, error) {
	l.mtx.Lock()
	defer l.mtx.Unlock()
	if l.loaded != nil {
		return l.loaded, nil
	}
	c, err := l.provideFn()
	if err != nil {
		return nil, err
	}
	l.loaded = c
	return c, nil
}

// Loaded reports whether a classifier is currently available without
// triggering a load attempt.
func (l *Loader) Loaded() bool {
	l.mtx.Lock()
	defer l.mtx.Unlock()
	return l.loaded != nil
}
