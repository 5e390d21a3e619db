package registry

import (
	"time"
)

type Config struct {
	// Sessions idle for longer than this are evicted together with their
	// persisted transcript.
	IdleTimeout time.Duration `envconfig:"SIGND_SESSION_IDLE_TIMEOUT" default:"10m"`
	// Timer for idle eviction passes.
	EvictInterval time.Duration `envconfig:"SIGND_SESSION_EVICT_INTERVAL" default:"1m"`
}
