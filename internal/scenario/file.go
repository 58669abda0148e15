package scenario

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// LoadFile reads a custom scenario from a YAML file:
//
//	id: my-experiment
//	title: My Experiment
//	description: ...
//	params:
//	  immigration_rate: 8
//	  min_lease_length: 2
//	  max_lease_length: 12
//	  max_wealth: 30
//	  vacancy_decay: true
//	  environment_weight: 1.0
//	  community_weight: 1.5
//
// The params are validated the same way model construction validates them.
func LoadFile(path string) (Scenario, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Scenario{}, fmt.Errorf("read scenario file: %w", err)
	}

	var s Scenario
	if err := yaml.Unmarshal(raw, &s); err != nil {
		return Scenario{}, fmt.Errorf("parse scenario file %s: %w", path, err)
	}
	if s.ID == "" {
		return Scenario{}, fmt.Errorf("scenario file %s: missing id", path)
	}
	if err := s.Params.Validate(); err != nil {
		return Scenario{}, fmt.Errorf("scenario file %s: %w", path, err)
	}
	return s, nil
}
