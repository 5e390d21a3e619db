package history

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/gestureconnect/signd/internal/history/model"
	"github.com/gestureconnect/signd/internal/logging"
)

type (
	fetchRecordsBySessionFn func(string, func(model.Record) bool) ([]model.Record, error)
	deleteRecordsFn         func(context.Context, []model.Record) error
	fetchKeysFn             func() ([]string, error)
	countBySessionFn        func(string) (int, error)
)

type dbSchedulerDeps struct {
	fetchBySession fetchRecordsBySessionFn
	deleteRecords  deleteRecordsFn
	fetchKeys      fetchKeysFn
	countBySession countBySessionFn
}

type dbSchedulerConfig struct {
	maxItemsStored int
	maxStorageTime time.Duration
	rebuildDBTime  time.Duration
	deps           dbSchedulerDeps
}

// dbScheduler prunes transcripts on a timer: records past the retention
// period and sessions holding more than the configured maximum.
type dbScheduler struct {
	opts dbSchedulerConfig
}

func newDBScheduler(config dbSchedulerConfig) *dbScheduler {
	return &dbScheduler{opts: config}
}

func (s *dbScheduler) processOutdatedRecords(sessionID string) error {
	records, err := s.opts.deps.fetchBySession(sessionID, func(record model.Record) bool {
		return time.Since(record.CreatedAt) > s.opts.maxStorageTime
	})
	if err != nil {
		return fmt.Errorf("unable find records by session %s: %v", sessionID, err)
	}
	if err := s.opts.deps.deleteRecords(context.Background(), records); err != nil {
		return fmt.Errorf("unable delete outdated records session %s: %v", sessionID, err)
	}
	return nil
}

func (s *dbScheduler) processOverSizeRecords(sessionID string) error {
	records, err := s.opts.deps.fetchBySession(sessionID, nil)
	if err != nil {
		return fmt.Errorf("unable find records by session %s: %v", sessionID, err)
	}
	if len(records) <= s.opts.maxItemsStored {
		return nil
	}
	sort.Slice(records, func(i, j int) bool {
		return records[i].CreatedAt.UnixNano() < records[j].CreatedAt.UnixNano()
	})
	if err := s.opts.deps.deleteRecords(context.Background(), records[:len(records)-s.opts.maxItemsStored]); err != nil {
		return fmt.Errorf("unable delete oversize records session %s: %v", sessionID, err)
	}
	return nil
}

func (s *dbScheduler) rebuildOutdated() error {
	keys, err := s.opts.deps.fetchKeys()
	if err != nil {
		return fmt.Errorf("unable to fetch transcript keys: %v", err)
	}
	for i := range keys {
		if err := s.processOutdatedRecords(keys[i]); err != nil {
			return fmt.Errorf("unable process records: %v", err)
		}
	}
	return nil
}

func (s *dbScheduler) rebuildSize() error {
	keys, err := s.opts.deps.fetchKeys()
	if err != nil {
		return fmt.Errorf("unable fetch keys: %v", err)
	}
	for i := range keys {
		length, err := s.opts.deps.countBySession(keys[i])
		if err != nil {
			return fmt.Errorf("unable count by session %s: %v", keys[i], err)
		}
		if length > s.opts.maxItemsStored {
			if err := s.processOverSizeRecords(keys[i]); err != nil {
				return fmt.Errorf("unable process records: %v", err)
			}
		}
	}

	return nil
}

func (s *dbScheduler) schedule(ctx context.Context) {
	logger := logging.FromContext(ctx)
	ticker := time.NewTicker(s.opts.rebuildDBTime)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if s.opts.maxItemsStored > 0 {
				if err := s.rebuildSize(); err != nil {
					logger.Errorf("unable db rebuild size: %v", err)
				}
			}
			if s.opts.maxStorageTime > 0 {
				if err := s.rebuildOutdated(); err != nil {
					logger.Errorf("unable db rebuild outdated: %v", err)
				}
			}
		case <-ctx.Done():
			return
		}
	}
}
