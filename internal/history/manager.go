package history

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/gestureconnect/signd/internal/database"
	historyDB "github.com/gestureconnect/signd/internal/history/database"
	"github.com/gestureconnect/signd/internal/history/model"
)

// ProvideFn is the contract for returning the Manager instance.
type ProvideFn = func(chan<- error) *Manager

// Option configures the transcript manager.
type Option func(*Manager)

func WithFlushSize(size int) Option {
	return func(m *Manager) {
		m.txExecutor.opts.dbFlushSize = size
	}
}

func WithFlushTime(t time.Duration) Option {
	return func(m *Manager) {
		m.txExecutor.opts.dbFlushTime = t
	}
}

func WithMaxItemsStored(max int) Option {
	return func(m *Manager) {
		m.scheduler.opts.maxItemsStored = max
	}
}

func WithMaxStorageTime(t time.Duration) Option {
	return func(m *Manager) {
		m.scheduler.opts.maxStorageTime = t
	}
}

func WithRebuildDBTime(t time.Duration) Option {
	return func(m *Manager) {
		m.scheduler.opts.rebuildDBTime = t
	}
}

// Manager owns the transcript store: emissions are buffered through a
// batching tx executor and pruned by a retention scheduler.
type Manager struct {
	db         *historyDB.DB
	txExecutor *dbTxExecutor
	scheduler  *dbScheduler
	shutdownCh chan<- error
}

func New(db *database.DB, shutdownCh chan<- error, opts ...Option) *Manager {
	store := historyDB.New(db)
	m := &Manager{
		db:         store,
		shutdownCh: shutdownCh,
	}
	m.txExecutor = newDBTxExecutor(dbTxExecutorOptions{
		dbFlushSize: defaultFlushSize,
		dbFlushTime: defaultFlushTime,
	}, shutdownCh)
	m.scheduler = newDBScheduler(dbSchedulerConfig{
		maxItemsStored: defaultMaxItemsStored,
		maxStorageTime: defaultMaxStorageTime,
		rebuildDBTime:  defaultRebuildDBTime,
		deps: dbSchedulerDeps{
			fetchBySession: func(sessionID string, filter func(model.Record) bool) ([]model.Record, error) {
				return store.FindBySession(sessionID, filter)
			},
			deleteRecords:  store.DeleteMany,
			fetchKeys:      store.Keys,
			countBySession: store.CountBySession,
		},
	})
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Run starts the flusher and retention loops. It blocks until ctx is done,
// then drains the write buffer to disk.
func (m *Manager) Run(ctx context.Context) {
	go m.scheduler.schedule(ctx)
	m.txExecutor.flusher(ctx, m.db.AppendMany)
}

// Append buffers an emission record for batched persistence.
func (m *Manager) Append(ctx context.Context, record model.Record) {
	m.txExecutor.append(ctx, record, m.db.AppendMany)
}

// Recent returns up to n most recent records for the session, newest first.
func (m *Manager) Recent(sessionID string, n int) ([]model.Record, error) {
	records, err := m.db.FindBySession(sessionID, nil)
	if err != nil {
		return nil, fmt.Errorf("unable find records by session %s: %w", sessionID, err)
	}
	sort.Slice(records, func(i, j int) bool {
		return records[i].CreatedAt.After(records[j].CreatedAt)
	})
	if n > 0 && len(records) > n {
		records = records[:n]
	}
	return records, nil
}

// DeleteSession removes every persisted record for the session.
func (m *Manager) DeleteSession(ctx context.Context, sessionID string) error {
	return m.db.DeleteSession(ctx, sessionID)
}
