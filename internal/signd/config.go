package signd

import (
	"github.com/gestureconnect/signd/internal/classifier"
	"github.com/gestureconnect/signd/internal/classifier/remote"
	"github.com/gestureconnect/signd/internal/database"
	"github.com/gestureconnect/signd/internal/extractor"
	"github.com/gestureconnect/signd/internal/history"
	"github.com/gestureconnect/signd/internal/ingest"
	"github.com/gestureconnect/signd/internal/notify"
	"github.com/gestureconnect/signd/internal/predict"
	"github.com/gestureconnect/signd/internal/recognizer"
	"github.com/gestureconnect/signd/internal/registry"
	"github.com/gestureconnect/signd/internal/setup"
	"github.com/gestureconnect/signd/internal/stream"
)

var (
	_ setup.DatabaseConfigProvider   = (*Config)(nil)
	_ setup.NotifierConfigProvider   = (*Config)(nil)
	_ setup.RecognizerConfigProvider = (*Config)(nil)
	_ setup.RegistryConfigProvider   = (*Config)(nil)
	_ setup.ClassifierConfigProvider = (*Config)(nil)
	_ setup.ExtractorConfigProvider  = (*Config)(nil)
	_ setup.HistoryConfigProvider    = (*Config)(nil)
)

type Config struct {
	SrvAddr   string `envconfig:"SIGND_ADDR" default:":8787"`
	DebugAddr string `envconfig:"SIGND_DEBUG_ADDR" default:":8080"`

	Recognizer       recognizer.Config
	Registry         registry.Config
	Classifier       classifier.Config
	RemoteClassifier remote.Config
	Extractor        extractor.Config
	Ingest           ingest.Config
	Predict          predict.Config
	Stream           stream.Config
	Database         database.Config
	History          history.Config
	Notify           notify.Config
}

func (c Config) RecognizerConfig() *recognizer.Config {
	return &c.Recognizer
}

func (c Config) RegistryConfig() *registry.Config {
	return &c.Registry
}

func (c Config) ClassifierConfig() *classifier.Config {
	return &c.Classifier
}

func (c Config) RemoteClassifierConfig() *remote.Config {
	return &c.RemoteClassifier
}

func (c Config) ExtractorConfig() *extractor.Config {
	return &c.Extractor
}

func (c Config) NotifyConfig() *notify.Config {
	return &c.Notify
}

func (c Config) DatabaseConfig() *database.Config {
	return &c.Database
}

func (c Config) HistoryConfig() *history.Config {
	return &c.History
}
