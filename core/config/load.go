package config

import (
	_ "embed"

	"github.com/spf13/afero"
	"sigs.k8s.io/yaml"
)

//go:embed default/config.yaml
var defaultConfigData []byte

// ConfigurationName is the conventional file name for a configuration.
const ConfigurationName = "websh.yaml"

// Default returns the built-in configuration.
func Default() *Configuration {
	var out Configuration
	// The embedded default is validated by tests; a failure here is a
	// build defect.
	if err := yaml.UnmarshalStrict(defaultConfigData, &out); err != nil {
		panic(err)
	}
	return &out
}

// Load reads and validates a configuration file. Unknown keys are rejected
// so typos don't silently fall back to defaults.
func Load(fs afero.Fs, path string) (*Configuration, error) {
	contents, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, err
	}

	var out Configuration
	if err := yaml.UnmarshalStrict(contents, &out); err != nil {
		return nil, err
	}
	if err := out.Validate(); err != nil {
		return nil, err
	}
	return &out, nil
}

// Save writes the configuration to the given path.
func Save(fs afero.Fs, path string, c *Configuration) error {
	contents, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return afero.WriteFile(fs, path, contents, 0644)
}
