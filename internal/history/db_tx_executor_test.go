package history

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gestureconnect/signd/internal/history/model"
)

func testRecords(n int) []model.Record {
	records := make([]model.Record, 0, n)
	for i := 0; i < n; i++ {
		records = append(records, model.NewRecord("test-session", "hello", 0.9, time.Now()))
	}
	return records
}

func TestDbTxExecutorFlusher(t *testing.T) {
	tests := []struct {
		name           string
		waitingTime    time.Duration
		batch          []model.Record
		expectedLen    int
		expectedBufLen int
	}{
		{
			name:           "positive_flusher",
			waitingTime:    1 * time.Second,
			batch:          testRecords(5),
			expectedLen:    5,
			expectedBufLen: 0,
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			shutdownCh := make(chan error, 1)
			txExecutor := newDBTxExecutor(dbTxExecutorOptions{dbFlushTime: 500 * time.Millisecond}, shutdownCh)
			length := 0
			bit := int64(0)
			ctx, cancel := context.WithCancel(context.TODO())
			txExecutor.buf = test.batch
			go txExecutor.flusher(ctx, func(ctx context.Context, records []model.Record) error {
				if atomic.LoadInt64(&bit) == 0 {
					length = len(records)
					atomic.StoreInt64(&bit, 1)
				}
				return nil
			})

			time.Sleep(test.waitingTime * 2)
			cancel()
			<-shutdownCh

			if length != test.expectedLen {
				t.Errorf(
					"calling the flusher method, the length of the inserted data got: %v, expected: %v",
					length,
					test.expectedLen,
				)
			}

			if len(txExecutor.buf) != test.expectedBufLen {
				t.Errorf(
					"calling the flusher method, the length of buffer got: %v, expected: %v",
					len(txExecutor.buf),
					test.expectedBufLen,
				)
			}
		})
	}
}

func TestDbTxExecutorAppend(t *testing.T) {
	tests := []struct {
		name        string
		items       []model.Record
		expectedLen int
	}{
		{
			name:        "append_one",
			items:       testRecords(1),
			expectedLen: 1,
		},
		{
			name:        "append_two",
			items:       testRecords(2),
			expectedLen: 2,
		},
		{
			name:        "append_three",
			items:       testRecords(3),
			expectedLen: 3,
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			txExecutor := newDBTxExecutor(dbTxExecutorOptions{dbFlushSize: 100}, make(chan error, 1))
			for _, item := range test.items {
				txExecutor.append(context.Background(), item, func(ctx context.Context, records []model.Record) error {
					return nil
				})
			}
			if len(txExecutor.buf) != test.expectedLen {
				t.Errorf(
					"calling the append method, the length of buffer got: %v, expected: %v",
					len(txExecutor.buf),
					test.expectedLen,
				)
			}
		})
	}
}

func TestDbTxExecutorBulkAppend(t *testing.T) {
	txExecutor := newDBTxExecutor(dbTxExecutorOptions{dbFlushSize: 100}, make(chan error, 1))
	txExecutor.buf = testRecords(4)

	var inserted int
	txExecutor.bulkAppend(context.Background(), func(ctx context.Context, records []model.Record) error {
		inserted = len(records)
		return nil
	})

	if inserted != 4 {
		t.Errorf("calling the bulkAppend method, the length of the inserted data got: %v, expected: 4", inserted)
	}
	if len(txExecutor.buf) != 0 {
		t.Errorf("calling the bulkAppend method, the length of buffer got: %v, expected: 0", len(txExecutor.buf))
	}
}

func TestDbTxExecutorShutdown(t *testing.T) {
	txExecutor := newDBTxExecutor(dbTxExecutorOptions{}, make(chan error, 1))
	txExecutor.buf = testRecords(3)

	var inserted int
	if err := txExecutor.shutdown(func(ctx context.Context, records []model.Record) error {
		inserted = len(records)
		return nil
	}); err != nil {
		t.Fatalf("calling the shutdown method, got: %v, expected: nil", err)
	}

	if inserted != 3 {
		t.Errorf("calling the shutdown method, the length of the inserted data got: %v, expected: 3", inserted)
	}
	if len(txExecutor.buf) != 0 {
		t.Errorf("calling the shutdown method, the length of buffer got: %v, expected: 0", len(txExecutor.buf))
	}
}
