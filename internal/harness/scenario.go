package harness

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/roach88/rolodex/internal/contact"
)

// Scenario is one merge test case.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// ViaStore routes the observations through a store before merging.
	ViaStore bool `yaml:"via_store,omitempty"`

	// Observations is the merge input, in order.
	Observations []contact.Observation `yaml:"observations"`

	// Assertions validate the merge output.
	Assertions []Assertion `yaml:"assertions"`
}

// Assertion checks one property of the merge output.
type Assertion struct {
	// Type is one of the Assert* constants.
	Type string `yaml:"type"`

	// Count is the expected identity count (group_count).
	Count int `yaml:"count,omitempty"`

	// Keys are provenance keys "source.id" (same_group, separate_groups,
	// identity).
	Keys []string `yaml:"keys,omitempty"`

	// DisplayName and Emails are expected identity fields (identity).
	DisplayName string   `yaml:"display_name,omitempty"`
	Emails      []string `yaml:"emails,omitempty"`
}

// Assertion type constants.
const (
	AssertGroupCount     = "group_count"
	AssertSameGroup      = "same_group"
	AssertSeparateGroups = "separate_groups"
	AssertIdentity       = "identity"
)

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	// Strict field validation catches typos like "assertion:" vs "assertions:"
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	if len(s.Observations) == 0 {
		return fmt.Errorf("observations list is required and must be non-empty")
	}

	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}

	seen := make(map[string]bool)
	for i, o := range s.Observations {
		if len(o.Sources) > 0 {
			return fmt.Errorf("observations[%d]: sources are produced by the merge, not written in scenarios", i)
		}
		if err := o.Validate(); err != nil {
			return fmt.Errorf("observations[%d]: %w", i, err)
		}
		if seen[o.Key()] {
			return fmt.Errorf("observations[%d]: duplicate key %s", i, o.Key())
		}
		seen[o.Key()] = true
	}

	for i, a := range s.Assertions {
		if err := validateAssertion(i, a, seen); err != nil {
			return err
		}
	}

	return nil
}

// validateAssertion validates a single assertion based on its type. Keys
// must name observations of the scenario.
func validateAssertion(index int, a Assertion, known map[string]bool) error {
	switch a.Type {
	case "":
		return fmt.Errorf("assertions[%d]: type is required", index)
	case AssertGroupCount:
		if a.Count < 1 {
			return fmt.Errorf("assertions[%d]: group_count requires count >= 1", index)
		}
		return nil
	case AssertSameGroup, AssertSeparateGroups:
		if len(a.Keys) < 2 {
			return fmt.Errorf("assertions[%d]: %s requires at least 2 keys", index, a.Type)
		}
	case AssertIdentity:
		if len(a.Keys) == 0 {
			return fmt.Errorf("assertions[%d]: identity requires keys", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown type %q (valid: %v)", index, a.Type,
			[]string{AssertGroupCount, AssertSameGroup, AssertSeparateGroups, AssertIdentity})
	}

	for _, k := range a.Keys {
		if !known[k] {
			return fmt.Errorf("assertions[%d]: key %q matches no observation", index, k)
		}
	}
	return nil
}
