package harness

import (
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/rolodex/internal/contact"
)

// MergeSnapshot captures a scenario's merge output for golden comparison.
type MergeSnapshot struct {
	Scenario   string                  `json:"scenario"`
	Identities []contact.MergedContact `json:"identities"`
}

// RunWithGolden runs a scenario and compares its merge output against
// testdata/golden/{scenario.Name}.golden, in canonical JSON.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Returns the result so callers can also check Pass; a golden mismatch
// fails t through goldie.
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return nil, err
	}
	if err := AssertGolden(t, scenario.Name, result); err != nil {
		return nil, err
	}
	return result, nil
}

// AssertGolden compares an existing result against the golden file for
// name without re-running the scenario.
func AssertGolden(t *testing.T, name string, result *Result) error {
	t.Helper()

	data, err := contact.MarshalCanonical(MergeSnapshot{
		Scenario:   name,
		Identities: result.Merged,
	})
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, name, data)

	return nil
}
