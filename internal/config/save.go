package config

import (
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Save writes the config to the user's config directory.
func (c *Config) Save() error {
	dir := ConfigDir()

	// Create directory if needed
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	return c.SaveTo(filepath.Join(dir, configFileName))
}

// SaveTo writes the config to a specific path, after marshal normalizes
// it through clampDomain so a config built up programmatically (rather
// than loaded from disk) can't serialize planet/scheduler values the
// core packages would reject on the next Load.
func (c *Config) SaveTo(path string) error {
	// Create parent directory if needed
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	data, err := marshal(c)
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// marshal is the serialization hook Save/SaveTo funnel through: it
// normalizes domain values before handing off to yaml so every on-disk
// config.yaml this package writes satisfies clampDomain, independent of
// whether the in-memory Config came from Load or was built by hand.
func marshal(c *Config) ([]byte, error) {
	normalized := *c
	normalized.clampDomain()
	return yaml.Marshal(&normalized)
}
