package predict

import "time"

type Config struct {
	RequestTimeout time.Duration `envconfig:"SIGND_PREDICT_REQUEST_TIMEOUT" default:"30s"`
	// Number of transcript records included in a status response.
	TranscriptLen int `envconfig:"SIGND_PREDICT_TRANSCRIPT_LEN" default:"10"`
}
