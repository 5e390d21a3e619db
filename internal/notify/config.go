package notify

import (
	"encoding/json"
	"time"

	"github.com/gestureconnect/signd/internal/httputil"
)

type Config struct {
	AllowNotify          bool          `envconfig:"SIGND_ALLOW_NOTIFY" default:"true"`
	Targets              Targets       `envconfig:"SIGND_NOTIFY_TARGETS"`
	Interval             time.Duration `envconfig:"SIGND_NOTIFY_INTERVAL" default:"5s"`
	RequestTimeout       time.Duration `envconfig:"SIGND_NOTIFY_REQUEST_TIMEOUT" default:"10s"`
	MaxConcurrentRequest int           `envconfig:"SIGND_NOTIFY_MAX_CONCURRENT_REQUEST" default:"64"`
	// Optional redis pub/sub fan-out for stable emissions. Empty disables it.
	RedisAddr    string `envconfig:"SIGND_NOTIFY_REDIS_ADDR"`
	RedisChannel string `envconfig:"SIGND_NOTIFY_REDIS_CHANNEL" default:"signd:emissions"`
}

type Targets []Target

func (ts *Targets) Decode(value string) error {
	targets := []Target{}
	if err := json.Unmarshal([]byte(value), &targets); err != nil {
		return err
	}
	*ts = targets
	return nil
}

type Target struct {
	Name       string                    `json:"name"`
	URL        string                    `json:"url"`
	HTTPConfig httputil.HTTPClientConfig `json:"httpConfig"`
}
