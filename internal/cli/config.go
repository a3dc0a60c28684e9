package cli

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// PrintConfig writes the effective configuration as YAML.
func PrintConfig(opts Options) error {
	cfg, err := opts.load()
	if err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	_, err = opts.out().Write(data)
	return err
}
