package registry

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/gestureconnect/signd/internal/classifier"
	"github.com/gestureconnect/signd/internal/keypoint"
	"github.com/gestureconnect/signd/internal/model"
	"github.com/gestureconnect/signd/internal/notify"
	"github.com/gestureconnect/signd/internal/recognizer"
)

type fakeNotifier struct {
	mtx    sync.Mutex
	events []notify.Event
}

func (f *fakeNotifier) Notify(events ...notify.Event) {
	f.mtx.Lock()
	f.events = append(f.events, events...)
	f.mtx.Unlock()
}

func (f *fakeNotifier) Run(context.Context) error { return nil }
func (f *fakeNotifier) Stop()                     {}

func (f *fakeNotifier) Events() []notify.Event {
	f.mtx.Lock()
	defer f.mtx.Unlock()
	out := make([]notify.Event, len(f.events))
	copy(out, f.events)
	return out
}

type fakeClassifier struct {
	scores []float64
}

func (f *fakeClassifier) Classify(context.Context, []keypoint.Vector) ([]float64, error) {
	return f.scores, nil
}

func testManifest() *model.Manifest {
	return &model.Manifest{
		Name:           "test-model",
		Classes:        []string{"hello", "thanks"},
		SequenceLength: 2,
		Layout:         "HANDS",
	}
}

func newTestManager(t *testing.T, scores []float64, opts ...Option) (*manager, *fakeNotifier) {
	t.Helper()
	notifier := &fakeNotifier{}
	loader := classifier.NewLoader(func() (classifier.Classifier, error) {
		return &fakeClassifier{scores: scores}, nil
	})
	m, err := New(testManifest(), model.Identity(), loader, notifier, nil, make(chan error, 4), opts...)
	if err != nil {
		t.Fatalf("calling New, got: %v, expected: nil", err)
	}
	return m, notifier
}

func TestManagerSessionIsolation(t *testing.T) {
	m, _ := newTestManager(t, []float64{0.9, 0.1})
	dims := testManifest().Dimensions()

	if _, err := m.Ingest("session-a", keypoint.Zeros(dims)); err != nil {
		t.Fatalf("calling Ingest, got: %v, expected: nil", err)
	}
	if _, err := m.Ingest("session-a", keypoint.Zeros(dims)); err != nil {
		t.Fatalf("calling Ingest, got: %v, expected: nil", err)
	}

	if got := m.Status("session-a").BufferLength; got != 2 {
		t.Errorf("session-a buffer length got: %v, expected: 2", got)
	}
	if got := m.Status("session-b").BufferLength; got != 0 {
		t.Errorf("session-b buffer length got: %v, expected: 0", got)
	}
}

func TestManagerIngestDimensionMismatch(t *testing.T) {
	m, _ := newTestManager(t, []float64{0.9, 0.1})

	_, err := m.Ingest("session-a", keypoint.Vector{1, 2, 3})
	if !errors.Is(err, recognizer.ErrDimensionMismatch) {
		t.Errorf("calling Ingest with wrong dims, got: %v, expected: %v", err, recognizer.ErrDimensionMismatch)
	}
}

func TestManagerPredictNotifiesOnStableEmission(t *testing.T) {
	m, notifier := newTestManager(t, []float64{0.9, 0.1}, WithStabilityThreshold(2))
	dims := testManifest().Dimensions()

	m.Ingest("session-a", keypoint.Zeros(dims))
	m.Ingest("session-a", keypoint.Zeros(dims))

	first := m.Predict(context.Background(), "session-a")
	if first.Stable {
		t.Fatalf("first tick got stable, expected pending")
	}
	second := m.Predict(context.Background(), "session-a")
	if !second.Stable || second.Label != "hello" {
		t.Fatalf("second tick got: %v/%v, expected stable hello", second.Label, second.Stable)
	}

	events := notifier.Events()
	if len(events) != 1 {
		t.Fatalf("notified events got: %v, expected: 1", len(events))
	}
	if events[0].SessionID != "session-a" || events[0].Label != "hello" {
		t.Errorf("notified event got: %+v, expected session-a/hello", events[0])
	}
}

func TestManagerPredictSingleShot(t *testing.T) {
	m, notifier := newTestManager(t, []float64{0.1, 0.85}, WithStabilized(false))
	dims := testManifest().Dimensions()

	m.Ingest("session-a", keypoint.Zeros(dims))
	m.Ingest("session-a", keypoint.Zeros(dims))

	result := m.Predict(context.Background(), "session-a")
	if result.Label != "thanks" {
		t.Errorf("calling Predict, got: %v, expected: thanks", result.Label)
	}
	if result.Stable {
		t.Errorf("single-shot result marked stable")
	}
	if len(notifier.Events()) != 0 {
		t.Errorf("single-shot predict notified, expected no events")
	}
}

func TestManagerReset(t *testing.T) {
	m, _ := newTestManager(t, []float64{0.9, 0.1})
	dims := testManifest().Dimensions()

	m.Ingest("session-a", keypoint.Zeros(dims))
	m.Reset("session-a")

	if got := m.Status("session-a").BufferLength; got != 0 {
		t.Errorf("buffer length after reset got: %v, expected: 0", got)
	}
}

func TestManagerSessions(t *testing.T) {
	m, _ := newTestManager(t, []float64{0.9, 0.1})
	dims := testManifest().Dimensions()

	m.Ingest("session-a", keypoint.Zeros(dims))
	m.Ingest("session-b", keypoint.Zeros(dims))

	sessions := m.Sessions()
	if len(sessions) != 2 {
		t.Fatalf("sessions snapshot got: %v, expected: 2", len(sessions))
	}
	if _, ok := sessions["session-a"]; !ok {
		t.Errorf("sessions snapshot missing session-a")
	}
}

func TestManagerRunAttemptsStartupLoad(t *testing.T) {
	var attempts int32
	loader := classifier.NewLoader(func() (classifier.Classifier, error) {
		atomic.AddInt32(&attempts, 1)
		return nil, classifier.ErrNoModel
	})
	m, err := New(testManifest(), model.Identity(), loader, &fakeNotifier{}, nil, make(chan error, 4))
	if err != nil {
		t.Fatalf("calling New, got: %v, expected: nil", err)
	}

	if err := m.Run(context.Background()); err != nil {
		t.Fatalf("calling Run with unavailable classifier, got: %v, expected: nil", err)
	}
	defer m.Stop()

	if got := atomic.LoadInt32(&attempts); got != 1 {
		t.Fatalf("startup load attempts got: %v, expected: 1", got)
	}

	dims := testManifest().Dimensions()
	m.Ingest("session-a", keypoint.Zeros(dims))
	m.Ingest("session-a", keypoint.Zeros(dims))

	result := m.Predict(context.Background(), "session-a")
	if result.Label != recognizer.LabelNoModel {
		t.Errorf("predict label got: %v, expected: %v", result.Label, recognizer.LabelNoModel)
	}
	if got := atomic.LoadInt32(&attempts); got != 2 {
		t.Errorf("load attempts after predict got: %v, expected: 2", got)
	}
}

func TestManagerIngestFrameWithoutExtractor(t *testing.T) {
	m, _ := newTestManager(t, []float64{0.9, 0.1})

	if err := m.IngestFrame("session-a", []byte{0x1}); err == nil {
		t.Errorf("calling IngestFrame without extractor, got: nil, expected error")
	}
}
