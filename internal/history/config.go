package history

import (
	"time"
)

const (
	defaultFlushSize      = 16
	defaultFlushTime      = 5 * time.Second
	defaultRebuildDBTime  = 15 * time.Second
	defaultMaxItemsStored = 1000
	defaultMaxStorageTime = 24 * time.Hour
)

type Config struct {
	// Critical buffer size at which pending records are flushed to disk.
	FlushSize int `envconfig:"SIGND_HISTORY_FLUSH_SIZE" default:"16"`
	// Critical age of the buffer at which pending records are flushed to disk.
	FlushTime time.Duration `envconfig:"SIGND_HISTORY_FLUSH_TIME" default:"5s"`
	// Timer for performing transcript retention passes.
	RebuildDBTime time.Duration `envconfig:"SIGND_HISTORY_REBUILD_DB_TIME" default:"15s"`
	// Maximum number of transcript records kept per session.
	MaxItemsStored int `envconfig:"SIGND_HISTORY_MAX_ITEMS_STORED" default:"1000"`
	// Maximum retention period for transcript records.
	MaxStorageTime time.Duration `envconfig:"SIGND_HISTORY_MAX_STORAGE_TIME" default:"24h"`
}
