// Package registry manages the live recognition sessions: it creates them on
// first use, routes vectors and raw frames to them, runs inference ticks, and
// evicts sessions that have gone idle.
package registry

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/gestureconnect/signd/internal/classifier"
	"github.com/gestureconnect/signd/internal/extractor"
	"github.com/gestureconnect/signd/internal/history"
	historyModel "github.com/gestureconnect/signd/internal/history/model"
	"github.com/gestureconnect/signd/internal/keypoint"
	"github.com/gestureconnect/signd/internal/logging"
	"github.com/gestureconnect/signd/internal/metrics"
	"github.com/gestureconnect/signd/internal/model"
	"github.com/gestureconnect/signd/internal/notify"
	"github.com/gestureconnect/signd/internal/recognizer"
	"go.opencensus.io/stats"
)

// ProvideFn is the contract for returning the Manager instance.
type ProvideFn func(notify.Manager, *history.Manager, chan<- error) (Manager, error)

// Ingester accepts recognition input: pre-extracted keypoint vectors
// synchronously, raw frames asynchronously through the extraction queue.
type Ingester interface {
	Ingest(sessionID string, vec keypoint.Vector) (int, error)
	IngestFrame(sessionID string, image []byte) error
}

// Predictor runs inference ticks and exposes per-session state.
type Predictor interface {
	Predict(ctx context.Context, sessionID string) recognizer.Result
	Reset(sessionID string)
	Status(sessionID string) recognizer.Status
}

type Manager interface {
	Ingester
	Predictor
	Classes() []string
	Sessions() map[string]recognizer.Status
	Run(context.Context) error
	Stop()
}

type Options struct {
	idleTimeout         time.Duration
	evictInterval       time.Duration
	confidenceThreshold float64
	stabilityThreshold  int
	cooldownThreshold   int
	stabilized          bool
}

type Option func(*manager)

func WithIdleTimeout(t time.Duration) Option {
	return func(o *manager) {
		o.opts.idleTimeout = t
	}
}

func WithEvictInterval(t time.Duration) Option {
	return func(o *manager) {
		o.opts.evictInterval = t
	}
}

func WithConfidenceThreshold(t float64) Option {
	return func(o *manager) {
		o.opts.confidenceThreshold = t
	}
}

func WithStabilityThreshold(n int) Option {
	return func(o *manager) {
		o.opts.stabilityThreshold = n
	}
}

func WithCooldownThreshold(n int) Option {
	return func(o *manager) {
		o.opts.cooldownThreshold = n
	}
}

func WithStabilized(t bool) Option {
	return func(o *manager) {
		o.opts.stabilized = t
	}
}

// WithExtractor wires the keypoint extraction sidecar; without it raw frame
// ingest is rejected.
func WithExtractor(e extractor.Extractor) Option {
	return func(o *manager) {
		o.extractor = e
	}
}

func New(
	manifest *model.Manifest,
	params *model.Params,
	loader *classifier.Loader,
	notifier notify.Manager,
	transcript *history.Manager,
	shutdownCh chan<- error,
	opts ...Option,
) (*manager, error) {
	if manifest == nil {
		return nil, fmt.Errorf("manifest is not defined")
	}
	if loader == nil {
		return nil, fmt.Errorf("classifier loader is not defined")
	}
	if notifier == nil {
		return nil, fmt.Errorf("notifier instance is not created")
	}
	layout, err := keypoint.LayoutFor(manifest.Layout)
	if err != nil {
		return nil, fmt.Errorf("unable resolve manifest layout: %w", err)
	}
	m := &manager{
		manifest:   manifest,
		params:     params,
		layout:     layout,
		loader:     loader,
		notifier:   notifier,
		transcript: transcript,
		shutdownCh: shutdownCh,
		sessions:   map[string]*recognizer.Session{},
		queues:     map[string]*frameQueue{},
		frameCh:    make(chan frameTask, 1),
		opts: Options{
			idleTimeout:         10 * time.Minute,
			evictInterval:       time.Minute,
			confidenceThreshold: 0.7,
			stabilityThreshold:  5,
			cooldownThreshold:   10,
			stabilized:          true,
		},
	}
	for _, f := range opts {
		f(m)
	}
	return m, nil
}

type manager struct {
	mtx sync.RWMutex

	opts Options

	manifest *model.Manifest
	params   *model.Params
	layout   keypoint.Layout
	loader   *classifier.Loader

	extractor  extractor.Extractor
	notifier   notify.Manager
	transcript *history.Manager

	// Live sessions.
	sessions map[string]*recognizer.Session

	// Raw frame queues, one per session. Guarded by their own mutex: mtx is
	// held across frameCh sends, so taking it in the collector would wedge
	// against a blocked sender.
	qmtx   sync.RWMutex
	queues map[string]*frameQueue

	frameCh    chan frameTask
	shutdownCh chan<- error

	closed bool

	cancelNotifier func()
	cancel         func()
}

// Run starts the frame collector, the idle eviction loop, the transcript
// manager and the notification manager. It also makes one best-effort
// classifier load so a broken or absent artifact shows up in startup logs;
// the load is retried on first prediction either way.
func (m *manager) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	m.cancel = cancel
	c, cancel := context.WithCancel(context.Background())
	m.cancelNotifier = cancel

	if _, err := m.loader.Get(); err != nil {
		logging.FromContext(ctx).Warnf("classifier unavailable at startup, retrying on first prediction: %v", err)
	}

	go m.collector(ctx)
	go m.evictLoop(ctx)
	if m.transcript != nil {
		go m.transcript.Run(ctx)
	}
	if err := m.notifier.Run(c); err != nil {
		return fmt.Errorf("notify.Run: %w", err)
	}
	return nil
}

func (m *manager) Stop() {
	m.cancel()
}

// session returns the session for the id, creating it on first use.
func (m *manager) session(sessionID string) *recognizer.Session {
	m.mtx.RLock()
	sess, ok := m.sessions[sessionID]
	m.mtx.RUnlock()
	if ok {
		return sess
	}

	m.mtx.Lock()
	defer m.mtx.Unlock()
	if sess, ok := m.sessions[sessionID]; ok {
		return sess
	}
	sessOpts := []recognizer.SessionOption{
		recognizer.WithConfidence(m.opts.confidenceThreshold),
	}
	if m.opts.stabilized {
		sessOpts = append(sessOpts, recognizer.WithStabilizer(recognizer.NewStabilizer(
			recognizer.WithConfidenceThreshold(m.opts.confidenceThreshold),
			recognizer.WithStabilityThreshold(m.opts.stabilityThreshold),
			recognizer.WithCooldownThreshold(m.opts.cooldownThreshold),
		)))
	}
	sess = recognizer.NewSession(m.manifest, m.params, m.loader, sessOpts...)
	m.sessions[sessionID] = sess
	return sess
}

// Ingest pushes one pre-extracted vector into the session window and returns
// the resulting buffer length. Vectors are applied synchronously so the
// caller observes them in submission order.
func (m *manager) Ingest(sessionID string, vec keypoint.Vector) (int, error) {
	m.mtx.RLock()
	if m.closed {
		m.mtx.RUnlock()
		return 0, fmt.Errorf("error ingesting, shutting down")
	}
	m.mtx.RUnlock()

	n, err := m.session(sessionID).Ingest(vec)
	if err != nil {
		stats.Record(context.Background(), metrics.MDimensionMismatches.M(1))
		return n, err
	}
	stats.Record(context.Background(), metrics.MFramesIngested.M(1))
	return n, nil
}

// IngestFrame queues one raw frame for keypoint extraction. Delivery into the
// session window is asynchronous but order-preserving per session. The lock
// is held across the send so the collector cannot close frameCh between the
// closed check and the send.
func (m *manager) IngestFrame(sessionID string, image []byte) error {
	if m.extractor == nil {
		return fmt.Errorf("keypoint extractor is not configured")
	}
	m.mtx.RLock()
	if m.closed {
		m.mtx.RUnlock()
		return fmt.Errorf("error ingesting frame, shutting down")
	}
	m.frameCh <- frameTask{sessionID: sessionID, image: image}
	m.mtx.RUnlock()
	stats.Record(context.Background(), metrics.MFramesQueued.M(1))
	return nil
}

// Predict runs one inference tick for the session. A stable emission is
// persisted to the transcript and fanned out to the notifier.
func (m *manager) Predict(ctx context.Context, sessionID string) recognizer.Result {
	result := m.session(sessionID).Predict(ctx)
	stats.Record(context.Background(), metrics.MPredictions.M(1))
	if result.Stable {
		m.emit(ctx, sessionID, result)
	}
	return result
}

func (m *manager) emit(ctx context.Context, sessionID string, result recognizer.Result) {
	stats.Record(context.Background(), metrics.MStableEmissions.M(1))
	if m.transcript != nil {
		m.transcript.Append(ctx, historyModel.NewRecord(sessionID, result.Label, result.Confidence, time.Now()))
	}
	m.mtx.RLock()
	closed := m.closed
	m.mtx.RUnlock()
	if !closed {
		m.notifier.Notify(notify.Event{
			SessionID:  sessionID,
			Label:      result.Label,
			Confidence: result.Confidence,
			At:         time.Now(),
		})
	}
}

func (m *manager) Reset(sessionID string) {
	m.session(sessionID).Reset()
}

func (m *manager) Status(sessionID string) recognizer.Status {
	return m.session(sessionID).Status()
}

func (m *manager) Classes() []string {
	return m.manifest.Classes
}

// Sessions snapshots the status of every live session, keyed by session id.
func (m *manager) Sessions() map[string]recognizer.Status {
	m.mtx.RLock()
	ids := make([]string, 0, len(m.sessions))
	for id := range m.sessions {
		ids = append(ids, id)
	}
	m.mtx.RUnlock()

	out := make(map[string]recognizer.Status, len(ids))
	for _, id := range ids {
		m.mtx.RLock()
		sess, ok := m.sessions[id]
		m.mtx.RUnlock()
		if ok {
			out[id] = sess.Status()
		}
	}
	return out
}

// process extracts keypoints from one queued frame and pushes the flattened
// vector into the session window.
func (m *manager) process(ctx context.Context, task frameTask) error {
	frame, err := m.extractor.Extract(ctx, task.image)
	if err != nil {
		stats.Record(context.Background(), metrics.MExtractionErrors.M(1))
		return fmt.Errorf("unable extract keypoints: %w", err)
	}
	vec, err := frame.Flatten(m.layout)
	if err != nil {
		stats.Record(context.Background(), metrics.MExtractionErrors.M(1))
		return fmt.Errorf("unable flatten keypoints: %w", err)
	}
	if _, err := m.Ingest(task.sessionID, vec); err != nil {
		return fmt.Errorf("unable ingest extracted vector: %w", err)
	}
	return nil
}

// receive drains one session's frame queue. Exactly one receiver runs per
// queue so extracted vectors reach the window in arrival order.
func (m *manager) receive(ctx context.Context, q *frameQueue) {
	logger := logging.FromContext(ctx)
	defer func() {
		m.shutdownCh <- m.shutdown(ctx, q)
	}()

	for {
		select {
		case task := <-q.Receive():
			if err := m.process(ctx, task); err != nil {
				logger.Errorf("unable process frame: %v", err)
			}
		case <-ctx.Done():
			return
		}
	}
}

// shutdown drains the remaining queued frames synchronously, then releases
// the notifier once every queue is empty.
func (m *manager) shutdown(ctx context.Context, q *frameQueue) error {
	for {
		front := q.Queue().Front()
		if front == nil {
			if m.recvShutdown() {
				m.cancelNotifier()
			}
			break
		}
		if err := m.process(ctx, front.Value.(frameTask)); err != nil {
			return fmt.Errorf("registry shutdown: unable process frame: %w", err)
		}
		q.Queue().Remove(front)
	}
	return nil
}

func (m *manager) recvShutdown() bool {
	m.qmtx.RLock()
	defer m.qmtx.RUnlock()
	finishedNum, queuesNum := 0, len(m.queues)
	for _, q := range m.queues {
		if q.Queue().Len() == 0 {
			finishedNum++
		}
	}
	return finishedNum == queuesNum
}

func (m *manager) collector(ctx context.Context) {
	defer close(m.frameCh)
	for {
		select {
		case task := <-m.frameCh:
			m.qmtx.Lock()
			q, ok := m.queues[task.sessionID]
			if !ok {
				queue := newFrameQueue()
				go queue.Loop()
				go m.receive(ctx, queue)
				m.queues[task.sessionID] = queue
				q = queue
			}
			m.qmtx.Unlock()
			q.Send(task)
		case <-ctx.Done():
			m.mtx.Lock()
			m.closed = true
			m.mtx.Unlock()
			m.qmtx.RLock()
			queuesNum := len(m.queues)
			m.qmtx.RUnlock()
			if queuesNum == 0 {
				m.cancelNotifier()
				m.shutdownCh <- nil
			}
			return
		}
	}
}

// evictLoop removes sessions with no activity past the idle timeout and drops
// their persisted transcripts.
func (m *manager) evictLoop(ctx context.Context) {
	if m.opts.idleTimeout <= 0 {
		return
	}
	logger := logging.FromContext(ctx)
	ticker := time.NewTicker(m.opts.evictInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			for _, id := range m.idleSessions() {
				m.mtx.Lock()
				delete(m.sessions, id)
				m.mtx.Unlock()
				if m.transcript != nil {
					if err := m.transcript.DeleteSession(ctx, id); err != nil {
						logger.Errorf("unable delete transcript for evicted session %s: %v", id, err)
					}
				}
				logger.Infof("evicted idle session %s", id)
			}
		case <-ctx.Done():
			return
		}
	}
}

func (m *manager) idleSessions() []string {
	m.mtx.RLock()
	defer m.mtx.RUnlock()
	var idle []string
	for id, sess := range m.sessions {
		if time.Since(sess.LastActive()) > m.opts.idleTimeout {
			idle = append(idle, id)
		}
	}
	return idle
}
