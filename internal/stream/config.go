package stream

import "time"

type Config struct {
	PredictTimeout time.Duration `envconfig:"SIGND_STREAM_PREDICT_TIMEOUT" default:"10s"`
	// Maximum size of a single websocket message.
	MaxMessageBytes int64 `envconfig:"SIGND_STREAM_MAX_MESSAGE_BYTES" default:"16777216"`
}
