package history

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/gestureconnect/signd/internal/history/model"
	"github.com/gestureconnect/signd/internal/logging"
	"github.com/valyala/fastrand"
)

type appendRecordsFn func(context.Context, []model.Record) error

type dbTxExecutorOptions struct {
	dbFlushSize int
	dbFlushTime time.Duration
}

// dbTxExecutor accumulates transcript records and inserts them in bulk into
// persistent storage, on a size trigger or on a timer.
type dbTxExecutor struct {
	mtx sync.Mutex

	opts       dbTxExecutorOptions
	buf        []model.Record
	shutdownCh chan<- error
}

func newDBTxExecutor(opts dbTxExecutorOptions, shutdownCh chan<- error) *dbTxExecutor {
	return &dbTxExecutor{opts: opts, shutdownCh: shutdownCh}
}

// shutdown urgently inserts all buffered records into persistent storage.
func (tx *dbTxExecutor) shutdown(appendFn appendRecordsFn) error {
	tx.mtx.Lock()
	defer tx.mtx.Unlock()
	if err := appendFn(context.Background(), tx.buf); err != nil {
		return fmt.Errorf("txExecutor: append many operation failed: %v", err)
	}
	tx.buf = tx.buf[:0]
	return nil
}

// append adds one record to the buffer; a full buffer triggers bulkAppend.
func (tx *dbTxExecutor) append(ctx context.Context, record model.Record, appendFn appendRecordsFn) {
	tx.mtx.Lock()
	if tx.buf == nil {
		tx.buf = []model.Record{}
	}

	tx.buf = append(tx.buf, record)
	bufLen := len(tx.buf)
	tx.mtx.Unlock()

	if bufLen >= tx.opts.dbFlushSize {
		go tx.bulkAppend(ctx, appendFn)
	}
}

// bulkAppend drains the buffer into persistent storage.
func (tx *dbTxExecutor) bulkAppend(ctx context.Context, appendFn appendRecordsFn) {
	logger := logging.FromContext(ctx)

	tx.mtx.Lock()
	tmpBuf := make([]model.Record, len(tx.buf))
	copy(tmpBuf, tx.buf)
	tx.buf = tx.buf[:0]
	tx.mtx.Unlock()

	if err := appendFn(context.Background(), tmpBuf); err != nil {
		logger.Errorf("txExecutor: append many operation failed: %v", err)
	}
}

// flusher drains the buffer every flush interval. The interval is jittered so
// that several processes sharing one disk do not flush in lockstep.
func (tx *dbTxExecutor) flusher(ctx context.Context, appendFn appendRecordsFn) {
	defer func() {
		tx.shutdownCh <- tx.shutdown(appendFn)
	}()
	ticker := time.NewTicker(tx.opts.dbFlushTime + jitter(tx.opts.dbFlushTime/4))
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			tx.bulkAppend(ctx, appendFn)
		case <-ctx.Done():
			return
		}
	}
}

func jitter(max time.Duration) time.Duration {
	if max <= 0 {
		return 0
	}
	return time.Duration(fastrand.Uint32n(uint32(max)))
}
