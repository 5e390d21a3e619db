package recognizer

type Config struct {
	// Path to the model manifest written by the training pipeline.
	ManifestFile string `envconfig:"SIGND_MODEL_MANIFEST" default:"models/manifest.toml"`
	// Minimum classifier probability to accept a prediction as non-unknown.
	ConfidenceThreshold float64 `envconfig:"SIGND_CONFIDENCE_THRESHOLD" default:"0.7"`
	// Consecutive agreeing high-confidence ticks required before a label is emitted.
	StabilityThreshold int `envconfig:"SIGND_STABILITY_THRESHOLD" default:"5"`
	// Ticks the cooldown counter is armed with after an emission.
	CooldownThreshold int `envconfig:"SIGND_COOLDOWN_THRESHOLD" default:"10"`
	// Added to std before dividing during normalization, guarding features
	// with zero training variance.
	NormalizationEpsilon float64 `envconfig:"SIGND_NORMALIZATION_EPSILON" default:"1e-8"`
	// Stabilized selects the debounced continuous variant; false selects the
	// single-shot variant where every full-window predict returns a label.
	Stabilized bool `envconfig:"SIGND_STABILIZED" default:"true"`
}
