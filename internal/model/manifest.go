// Package model loads the frozen artifacts produced by offline training: the
// model manifest, the classifier weights, and the normalization parameters.
package model

import (
	"fmt"

	"github.com/BurntSushi/toml"
	"github.com/gestureconnect/signd/internal/keypoint"
)

// Manifest describes one trained model deployment. It is written by the
// training pipeline next to the weight artifacts and is read once at startup.
// The class list is ordered: index i names the i-th classifier output.
type Manifest struct {
	Name           string   `toml:"name"`
	Classes        []string `toml:"classes"`
	SequenceLength int      `toml:"sequence_length"`
	Layout         string   `toml:"layout"`

	Files ManifestFiles `toml:"files"`
}

type ManifestFiles struct {
	Weights       string `toml:"weights"`
	Normalization string `toml:"normalization"`
}

// LoadManifest reads and validates a manifest file. Validation failures here
// are configuration errors and fatal to startup: serving with a misaligned
// class list would silently mislabel every prediction.
func LoadManifest(path string) (*Manifest, error) {
	var m Manifest
	if _, err := toml.DecodeFile(path, &m); err != nil {
		return nil, fmt.Errorf("unable decode manifest %s: %w", path, err)
	}
	if err := m.Validate(); err != nil {
		return nil, fmt.Errorf("invalid manifest %s: %w", path, err)
	}
	return &m, nil
}

func (m *Manifest) Validate() error {
	if len(m.Classes) == 0 {
		return fmt.Errorf("manifest has no classes")
	}
	seen := map[string]struct{}{}
	for _, c := range m.Classes {
		if _, ok := seen[c]; ok {
			return fmt.Errorf("duplicate class %q", c)
		}
		seen[c] = struct{}{}
	}
	if m.SequenceLength <= 0 {
		return fmt.Errorf("sequence_length must be > 0, got %d", m.SequenceLength)
	}
	if _, err := keypoint.LayoutFor(m.Layout); err != nil {
		return err
	}
	return nil
}

// Dimensions is the feature dimensionality implied by the manifest layout.
func (m *Manifest) Dimensions() int {
	layout, err := keypoint.LayoutFor(m.Layout)
	if err != nil {
		return 0
	}
	return layout.Dimensions()
}
