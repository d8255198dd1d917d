package director

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// WritePlan writes a merge plan to a YAML file. Invalid plans are
// refused so that every saved plan can be replayed.
func WritePlan(plan *Plan, path string) error {
	if err := plan.Validate(); err != nil {
		return err
	}
	data, err := yaml.Marshal(plan)
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// ReadPlan reads a merge plan from a YAML file and validates it
func ReadPlan(path string) (*Plan, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var plan Plan
	if err := yaml.Unmarshal(data, &plan); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if plan.Version == 0 {
		return nil, fmt.Errorf("%s: plan has no recipe version", path)
	}
	if err := plan.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return &plan, nil
}
