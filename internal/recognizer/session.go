package recognizer

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/gestureconnect/signd/internal/classifier"
	"github.com/gestureconnect/signd/internal/keypoint"
	"github.com/gestureconnect/signd/internal/model"
)

// Reserved result labels. They share the label namespace with class names,
// mirroring the wire format the mobile clients already consume.
const (
	// LabelInsufficientData: the window has fewer than L frames.
	LabelInsufficientData = "insufficient_data"
	// LabelUnknown: single-shot variant, confidence below threshold or argmax
	// out of range of the known label set.
	LabelUnknown = "unknown"
	// LabelNoModel: no model artifact is deployed.
	LabelNoModel = "no_model"
	// LabelModelError: the model artifact failed to load.
	LabelModelError = "model_error"
	// LabelPredictionError: the classifier call itself failed.
	LabelPredictionError = "prediction_error"
	// LabelPending: stabilized variant, no stable emission this tick. Distinct
	// from unknown: the classifier may be confident, just not yet stable.
	LabelPending = "pending"
)

// Result is the well-formed value every predict call returns; per-request
// failures are folded into it so the transport layer never sees a raw error.
type Result struct {
	Label      string             `json:"label"`
	Confidence float64            `json:"confidence"`
	Scores     map[string]float64 `json:"all_scores"`
	Stable     bool               `json:"stable,omitempty"`
	Error      string             `json:"error,omitempty"`
}

// Status is the observable state of one session.
type Status struct {
	BufferLength   int      `json:"buffer_length"`
	SequenceLength int      `json:"sequence_length"`
	ModelLoaded    bool     `json:"model_loaded"`
	Classes        []string `json:"classes"`
	Threshold      float64  `json:"threshold"`
	Stabilized     bool     `json:"stabilized"`
	LastCandidate  string   `json:"last_candidate,omitempty"`
	Matches        int      `json:"matches,omitempty"`
	Cooldown       int      `json:"cooldown,omitempty"`
}

type SessionOption func(*Session)

func WithStabilizer(s *Stabilizer) SessionOption {
	return func(sess *Session) {
		sess.stab = s
	}
}

func WithConfidence(t float64) SessionOption {
	return func(sess *Session) {
		sess.confidenceThreshold = t
	}
}

// Session owns all mutable state for one logical recognition stream: the
// bounded window and, in the stabilized variant, the stabilizer counters. The
// manifest, normalization parameters and classifier loader are shared
// read-only across sessions.
type Session struct {
	mtx sync.Mutex

	classes             []string
	dims                int
	confidenceThreshold float64

	window *window
	stab   *Stabilizer
	params *model.Params
	loader *classifier.Loader

	lastActive time.Time
}

func NewSession(manifest *model.Manifest, params *model.Params, loader *classifier.Loader, opts ...SessionOption) *Session {
	s := &Session{
		classes:             manifest.Classes,
		dims:                manifest.Dimensions(),
		confidenceThreshold: 0.7,
		window:              newWindow(manifest.SequenceLength, manifest.Dimensions()),
		params:              params,
		loader:              loader,
		lastActive:          time.Now(),
	}
	for _, f := range opts {
		f(s)
	}
	return s
}

// Ingest pushes one keypoint vector and returns the resulting buffer length.
// It never blocks waiting for a full window. A vector of the wrong
// dimensionality is rejected with ErrDimensionMismatch and leaves the window
// unchanged.
func (s *Session) Ingest(vec keypoint.Vector) (int, error) {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	s.lastActive = time.Now()
	if err := s.window.push(vec); err != nil {
		return s.window.len(), err
	}
	return s.window.len(), nil
}

// Predict runs one inference tick over the current window. All failure modes
// are returned as structured results.
func (s *Session) Predict(ctx context.Context) Result {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	s.lastActive = time.Now()

	if !s.window.isFull() {
		return Result{Label: LabelInsufficientData, Confidence: 0.0, Scores: map[string]float64{}}
	}

	clf, err := s.loader.Get()
	if err != nil {
		label := LabelModelError
		if errors.Is(err, classifier.ErrNoModel) {
			label = LabelNoModel
		}
		return Result{Label: label, Confidence: 0.0, Scores: map[string]float64{}, Error: err.Error()}
	}

	normalized := s.params.Normalize(s.window.snapshot())
	scores, err := clf.Classify(ctx, normalized)
	if err != nil {
		return Result{Label: LabelPredictionError, Confidence: 0.0, Scores: map[string]float64{}, Error: err.Error()}
	}

	all := make(map[string]float64, len(s.classes))
	for i := range scores {
		if i < len(s.classes) {
			all[s.classes[i]] = scores[i]
		}
	}

	idx := keypoint.Vector(scores).ArgMax()
	if idx < 0 || idx >= len(s.classes) {
		return Result{Label: LabelUnknown, Confidence: 0.0, Scores: all}
	}
	confidence := scores[idx]

	if s.stab == nil {
		label := LabelUnknown
		if confidence >= s.confidenceThreshold {
			label = s.classes[idx]
		}
		return Result{Label: label, Confidence: confidence, Scores: all}
	}

	if em, ok := s.stab.Update(s.classes[idx], confidence); ok {
		return Result{Label: em.Label, Confidence: em.Confidence, Scores: all, Stable: true}
	}
	return Result{Label: LabelPending, Confidence: 0.0, Scores: all}
}

// Reset clears the window and the stabilizer counters. Idempotent.
func (s *Session) Reset() {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	s.lastActive = time.Now()
	s.window.clear()
	if s.stab != nil {
		s.stab.Reset()
	}
}

// Status reports the session's observable state.
func (s *Session) Status() Status {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	st := Status{
		BufferLength:   s.window.len(),
		SequenceLength: s.window.size,
		ModelLoaded:    s.loader.Loaded(),
		Classes:        s.classes,
		Threshold:      s.confidenceThreshold,
		Stabilized:     s.stab != nil,
	}
	if s.stab != nil {
		st.LastCandidate, st.Matches, st.Cooldown = s.stab.State()
	}
	return st
}

// Classes returns the ordered known label set.
func (s *Session) Classes() []string {
	return s.classes
}

// Dimensions returns the feature dimensionality the session accepts.
func (s *Session) Dimensions() int {
	return s.dims
}

// LastActive returns the time of the last ingest, predict or reset; the
// registry uses it for idle eviction.
func (s *Session) LastActive() time.Time {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	return s.lastActive
}
