package setup

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gestureconnect/signd/internal/classifier"
	"github.com/gestureconnect/signd/internal/classifier/linear"
	"github.com/gestureconnect/signd/internal/classifier/remote"
	"github.com/gestureconnect/signd/internal/database"
	"github.com/gestureconnect/signd/internal/extractor"
	"github.com/gestureconnect/signd/internal/history"
	"github.com/gestureconnect/signd/internal/logging"
	"github.com/gestureconnect/signd/internal/model"
	"github.com/gestureconnect/signd/internal/notify"
	"github.com/gestureconnect/signd/internal/recognizer"
	"github.com/gestureconnect/signd/internal/registry"
	"github.com/gestureconnect/signd/internal/srvenv"
	"github.com/kelseyhightower/envconfig"
)

type DatabaseConfigProvider interface {
	DatabaseConfig() *database.Config
}

type NotifierConfigProvider interface {
	NotifyConfig() *notify.Config
}

type RecognizerConfigProvider interface {
	RecognizerConfig() *recognizer.Config
}

type RegistryConfigProvider interface {
	RegistryConfig() *registry.Config
}

type ClassifierConfigProvider interface {
	ClassifierConfig() *classifier.Config
	RemoteClassifierConfig() *remote.Config
}

type ExtractorConfigProvider interface {
	ExtractorConfig() *extractor.Config
}

type HistoryConfigProvider interface {
	HistoryConfig() *history.Config
}

func Setup(ctx context.Context, config interface{}) (*srvenv.SrvEnv, error) {
	logger := logging.FromContext(ctx)
	var serverEnvOpts []srvenv.Option
	if err := envconfig.Process("", config); err != nil {
		return nil, fmt.Errorf("error loading environment variables: %w", err)
	}

	var db *database.DB
	if dbConfigProvider, ok := config.(DatabaseConfigProvider); ok {
		logger.Info("Configuring db")
		dbFromEnv, err := database.NewFromEnv(ctx, dbConfigProvider.DatabaseConfig())
		if err != nil {
			return nil, fmt.Errorf("unable to connect to database: %v", err)
		}
		db = dbFromEnv
		serverEnvOpts = append(serverEnvOpts, srvenv.WithDatabase(db))
	}

	if historyConfigProvider, ok := config.(HistoryConfigProvider); ok && db != nil {
		logger.Info("Configuring transcript store")
		provideFn := ProvideTranscriptFor(historyConfigProvider, db)
		serverEnvOpts = append(serverEnvOpts, srvenv.WithTranscript(provideFn))
	}

	if notifyConfigProvider, ok := config.(NotifierConfigProvider); ok {
		logger.Info("Configuring notifier")
		provideFn, err := ProvideNotifierFor(notifyConfigProvider)
		if err != nil {
			return nil, fmt.Errorf("unable create notifier provide function: %v", err)
		}
		serverEnvOpts = append(serverEnvOpts, srvenv.WithNotifier(provideFn))
	}

	if recognizerConfigProvider, ok := config.(RecognizerConfigProvider); ok {
		logger.Info("Configuring recognition registry")
		provideFn, err := ProvideRegistryFor(ctx, config, recognizerConfigProvider)
		if err != nil {
			return nil, fmt.Errorf("unable create registry provide function: %v", err)
		}
		serverEnvOpts = append(serverEnvOpts, srvenv.WithRegistry(provideFn))
	}

	return srvenv.New(serverEnvOpts...), nil
}

func ProvideTranscriptFor(provider HistoryConfigProvider, db *database.DB) history.ProvideFn {
	cfg := provider.HistoryConfig()
	return func(shutdownCh chan<- error) *history.Manager {
		return history.New(
			db,
			shutdownCh,
			history.WithFlushSize(cfg.FlushSize),
			history.WithFlushTime(cfg.FlushTime),
			history.WithRebuildDBTime(cfg.RebuildDBTime),
			history.WithMaxItemsStored(cfg.MaxItemsStored),
			history.WithMaxStorageTime(cfg.MaxStorageTime),
		)
	}
}

func ProvideNotifierFor(provider NotifierConfigProvider) (notify.ProvideFn, error) {
	cfg := provider.NotifyConfig()
	return func(shutdownCh chan<- error) (notify.Manager, error) {
		opts := []notify.Option{
			notify.WithMaxConcurrentRequest(cfg.MaxConcurrentRequest),
			notify.WithInterval(cfg.Interval),
			notify.WithRequestTimeout(cfg.RequestTimeout),
		}
		if cfg.AllowNotify {
			opts = append(opts, notify.WithTargets(cfg.Targets))
			if cfg.RedisAddr != "" {
				opts = append(opts, notify.WithRedis(cfg.RedisAddr, cfg.RedisChannel))
			}
		}
		return notify.New(shutdownCh, opts...)
	}, nil
}

func ProvideRegistryFor(ctx context.Context, config interface{}, provider RecognizerConfigProvider) (registry.ProvideFn, error) {
	logger := logging.FromContext(ctx)
	cfg := provider.RecognizerConfig()

	manifest, err := model.LoadManifest(cfg.ManifestFile)
	if err != nil {
		return nil, fmt.Errorf("unable load model manifest: %w", err)
	}
	logger.Infof("Loaded model %q: %d classes, sequence length %d, layout %s",
		manifest.Name, len(manifest.Classes), manifest.SequenceLength, manifest.Layout)

	params, err := model.LoadParams(
		resolveArtifact(cfg.ManifestFile, manifest.Files.Normalization),
		manifest.Dimensions(),
		cfg.NormalizationEpsilon,
	)
	if err != nil {
		return nil, fmt.Errorf("unable load normalization params: %w", err)
	}

	clfConfigProvider, ok := config.(ClassifierConfigProvider)
	if !ok {
		return nil, fmt.Errorf("unable read classifier config")
	}
	clfProvideFn, err := ProvideClassifierFor(clfConfigProvider, cfg, manifest)
	if err != nil {
		return nil, fmt.Errorf("unable create classifier provide function: %v", err)
	}

	var ext extractor.Extractor
	if extractorConfigProvider, ok := config.(ExtractorConfigProvider); ok {
		extCfg := extractorConfigProvider.ExtractorConfig()
		if extCfg.URL != "" {
			remoteExt, err := extractor.New(extCfg)
			if err != nil {
				return nil, fmt.Errorf("unable create extractor: %v", err)
			}
			ext = remoteExt
		}
	}

	regCfg := &registry.Config{}
	if registryConfigProvider, ok := config.(RegistryConfigProvider); ok {
		regCfg = registryConfigProvider.RegistryConfig()
	}

	return func(notifier notify.Manager, transcript *history.Manager, shutdownCh chan<- error) (registry.Manager, error) {
		opts := []registry.Option{
			registry.WithConfidenceThreshold(cfg.ConfidenceThreshold),
			registry.WithStabilityThreshold(cfg.StabilityThreshold),
			registry.WithCooldownThreshold(cfg.CooldownThreshold),
			registry.WithStabilized(cfg.Stabilized),
			registry.WithIdleTimeout(regCfg.IdleTimeout),
			registry.WithEvictInterval(regCfg.EvictInterval),
		}
		if ext != nil {
			opts = append(opts, registry.WithExtractor(ext))
		}
		return registry.New(
			manifest,
			params,
			classifier.NewLoader(clfProvideFn),
			notifier,
			transcript,
			shutdownCh,
			opts...,
		)
	}, nil
}

// ProvideClassifierFor builds the classifier factory the loader retries on
// demand. A missing artifact is reported as classifier.ErrNoModel so sessions
// answer with the no_model label instead of failing.
func ProvideClassifierFor(provider ClassifierConfigProvider, recognizerCfg *recognizer.Config, manifest *model.Manifest) (classifier.ProvideFn, error) {
	cfg := provider.ClassifierConfig()
	switch cfg.ClassifierType() {
	case classifier.AlgTypeLinear:
		weights := resolveArtifact(recognizerCfg.ManifestFile, manifest.Files.Weights)
		return func() (classifier.Classifier, error) {
			if weights == "" {
				return nil, fmt.Errorf("manifest names no weights file: %w", classifier.ErrNoModel)
			}
			if _, err := os.Stat(weights); os.IsNotExist(err) {
				return nil, fmt.Errorf("weights file %s: %w", weights, classifier.ErrNoModel)
			}
			c, err := linear.New(weights, len(manifest.Classes), manifest.SequenceLength, manifest.Dimensions())
			if err != nil {
				return nil, fmt.Errorf("unable create linear classifier: %v", err)
			}
			return c, nil
		}, nil
	case classifier.AlgTypeRemote:
		remoteCfg := provider.RemoteClassifierConfig()
		return func() (classifier.Classifier, error) {
			if remoteCfg.URL == "" {
				return nil, fmt.Errorf("remote classifier url is not configured: %w", classifier.ErrNoModel)
			}
			c, err := remote.New(remoteCfg, len(manifest.Classes))
			if err != nil {
				return nil, fmt.Errorf("unable create remote classifier: %v", err)
			}
			return c, nil
		}, nil
	default:
		return nil, fmt.Errorf("unknown classifier type: %s", cfg.ClassifierType())
	}
}

// resolveArtifact resolves a manifest-relative artifact path.
func resolveArtifact(manifestPath, artifact string) string {
	if artifact == "" || filepath.IsAbs(artifact) {
		return artifact
	}
	return filepath.Join(filepath.Dir(manifestPath), artifact)
}
