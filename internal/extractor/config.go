package extractor

import (
	"time"

	"github.com/gestureconnect/signd/internal/httputil"
)

type Config struct {
	// Address of the keypoint extraction sidecar. Empty disables raw frame
	// ingest: clients must send pre-extracted vectors.
	URL            string        `envconfig:"SIGND_EXTRACTOR_URL"`
	RequestTimeout time.Duration `envconfig:"SIGND_EXTRACTOR_REQUEST_TIMEOUT" default:"10s"`

	HTTPConfig httputil.HTTPClientConfig `envconfig:"-"`
}
