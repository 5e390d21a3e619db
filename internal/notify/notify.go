// Package notify delivers stable recognition emissions to downstream
// consumers: configured webhook targets and, optionally, a redis channel.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/gestureconnect/signd/internal/httputil"
	"github.com/gestureconnect/signd/internal/logging"
	"github.com/gestureconnect/signd/pkg/rworker"
	"github.com/go-redis/redis/v8"
)

type ProvideFn = func(chan<- error) (Manager, error)

const UserAgent = "SIGND/0.1"

// Event is a single stable emission produced by a recognition session.
type Event struct {
	SessionID  string    `json:"session"`
	Label      string    `json:"label"`
	Confidence float64   `json:"confidence"`
	At         time.Time `json:"at"`
}

type Options struct {
	maxConcurrentRequest int
	requestTimeout       time.Duration
	notifyInterval       time.Duration
	redisAddr            string
	redisChannel         string
}

type Option func(*manager)

func WithMaxConcurrentRequest(n int) Option {
	return func(o *manager) {
		o.opts.maxConcurrentRequest = n
	}
}

func WithInterval(t time.Duration) Option {
	return func(o *manager) {
		o.opts.notifyInterval = t
	}
}

func WithRequestTimeout(t time.Duration) Option {
	return func(o *manager) {
		o.opts.requestTimeout = t
	}
}

func WithTargets(ts Targets) Option {
	return func(o *manager) {
		o.targets = ts
	}
}

func WithRedis(addr, channel string) Option {
	return func(o *manager) {
		o.opts.redisAddr = addr
		o.opts.redisChannel = channel
	}
}

type Notifier interface {
	Notify(events ...Event)
}

type Manager interface {
	Notifier
	Run(context.Context) error
	Stop()
}

type request struct {
	SessionID string  `json:"session"`
	Data      []Event `json:"data"`
}

func New(shutdownCh chan<- error, opts ...Option) (*manager, error) {
	m := &manager{
		shutdownCh: shutdownCh,
		targets:    Targets{},
		clients:    map[string]*http.Client{},
		pending:    map[string][]Event{},
	}
	for _, opt := range opts {
		opt(m)
	}
	for _, target := range m.targets {
		if _, ok := m.clients[target.Name]; !ok {
			client, err := httputil.NewClientFromConfig(target.HTTPConfig, true)
			if err != nil {
				return nil, fmt.Errorf("unable create client for target %s: %v", target.Name, err)
			}
			m.clients[target.Name] = client
		}
	}
	if m.opts.redisAddr != "" {
		m.redis = redis.NewClient(&redis.Options{Addr: m.opts.redisAddr})
	}
	return m, nil
}

type manager struct {
	mtx        sync.Mutex
	opts       Options
	targets    Targets
	clients    map[string]*http.Client
	redis      *redis.Client
	pending    map[string][]Event
	shutdownCh chan<- error
	cancel     func()
}

func (m *manager) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	m.cancel = cancel
	if m.redis != nil {
		if err := m.redis.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("unable reach redis at %s: %v", m.opts.redisAddr, err)
		}
	}
	go m.notifier(ctx)
	return nil
}

func (m *manager) Stop() {
	m.cancel()
}

func (m *manager) Notify(events ...Event) {
	m.mtx.Lock()
	for i := range events {
		m.pending[events[i].SessionID] = append(m.pending[events[i].SessionID], events[i])
	}
	m.mtx.Unlock()
}

// drain takes ownership of everything buffered so far.
func (m *manager) drain() map[string][]Event {
	m.mtx.Lock()
	defer m.mtx.Unlock()
	if len(m.pending) == 0 {
		return nil
	}
	batch := m.pending
	m.pending = map[string][]Event{}
	return batch
}

func (m *manager) notifier(ctx context.Context) {
	logger := logging.FromContext(ctx)
	errCh := make(chan error, 1)
	rateCh := make(chan struct{}, m.opts.maxConcurrentRequest)
	go func() {
		for err := range errCh {
			logger.Errorf("notify error: %v", err)
		}
	}()
	defer func() {
		m.shutdownCh <- m.shutdown()
		close(errCh)
		close(rateCh)
	}()
	wg := sync.WaitGroup{}
	ticker := time.NewTicker(m.opts.notifyInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			m.deliver(ctx, &wg, rateCh, errCh)
			wg.Wait()
		case <-ctx.Done():
			return
		}
	}
}

func (m *manager) deliver(ctx context.Context, wg *sync.WaitGroup, rateCh chan struct{}, errCh chan error) {
	batch := m.drain()
	if batch == nil {
		return
	}
	for sessionID, events := range batch {
		sessionID, events := sessionID, events
		if m.redis != nil {
			rworker.Job(wg, func() error {
				return m.publish(ctx, events)
			}, rateCh, errCh)
		}
		for _, target := range m.targets {
			target := target
			rworker.Job(wg, func() error {
				if err := m.do(ctx, target, request{SessionID: sessionID, Data: events}); err != nil {
					return fmt.Errorf("notify target %s: %v", target.Name, err)
				}
				return nil
			}, rateCh, errCh)
		}
	}
}

func (m *manager) publish(ctx context.Context, events []Event) error {
	for i := range events {
		payload, err := json.Marshal(&events[i])
		if err != nil {
			return fmt.Errorf("unable encode event: %w", err)
		}
		if err := m.redis.Publish(ctx, m.opts.redisChannel, payload).Err(); err != nil {
			return fmt.Errorf("redis publish error: %w", err)
		}
	}
	return nil
}

// shutdown makes one last synchronous delivery attempt for buffered events.
func (m *manager) shutdown() error {
	batch := m.drain()
	if batch == nil {
		return nil
	}
	ctx := context.Background()
	for sessionID, events := range batch {
		if m.redis != nil {
			if err := m.publish(ctx, events); err != nil {
				return fmt.Errorf("notify shutdown: %v", err)
			}
		}
		for _, target := range m.targets {
			if err := m.do(ctx, target, request{SessionID: sessionID, Data: events}); err != nil {
				return fmt.Errorf("notify shutdown: %v", err)
			}
		}
	}
	return nil
}

func (m *manager) do(ctx context.Context, target Target, req request) error {
	ctx, cancel := context.WithTimeout(ctx, m.opts.requestTimeout)
	defer cancel()
	body, err := json.Marshal(&req)
	if err != nil {
		return fmt.Errorf("unable encode json data: %w", err)
	}
	link, err := url.Parse(target.URL)
	if err != nil {
		return fmt.Errorf("url parsing error: %w", err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, link.String(), bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("creating request error: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Add("User-Agent", UserAgent)
	client, ok := m.clients[target.Name]
	if !ok {
		return fmt.Errorf("client for target %s not defined", target.Name)
	}
	resp, err := client.Do(httpReq)
	if err != nil {
		return fmt.Errorf("sending request error: %w", err)
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("response was not 200 OK: %s", raw)
	}
	return nil
}
