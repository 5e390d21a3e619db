package ingest

import "time"

type Config struct {
	RequestTimeout  time.Duration `envconfig:"SIGND_INGEST_REQUEST_TIMEOUT" default:"60s"`
	MaxDataItemsLen int           `envconfig:"SIGND_INGEST_MAX_DATA_ITEMS_LEN" default:"64"`
}
