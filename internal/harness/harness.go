package harness

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/google/go-cmp/cmp"

	"github.com/roach88/rolodex/internal/contact"
	"github.com/roach88/rolodex/internal/merge"
	"github.com/roach88/rolodex/internal/store"
	"github.com/roach88/rolodex/internal/testutil"
)

// Run merges the scenario's observations and evaluates its assertions and
// the merge laws. Failed checks are reported in the result; the error is
// only for runs that could not complete.
func Run(scenario *Scenario) (*Result, error) {
	merged, err := mergeScenario(scenario)
	if err != nil {
		return nil, fmt.Errorf("scenario %s: %w", scenario.Name, err)
	}
	again, err := mergeScenario(scenario)
	if err != nil {
		return nil, fmt.Errorf("scenario %s: %w", scenario.Name, err)
	}

	result := NewResult()
	result.Merged = merged

	if diff := cmp.Diff(merged, again); diff != "" {
		result.AddError((&LawError{LawDeterministic, "second run differs (-first +second):\n" + diff}).Error())
	}

	for i, a := range scenario.Assertions {
		if err := evaluate(result, a); err != nil {
			result.AddError(fmt.Sprintf("assertions[%d]: %v", i, err))
		}
	}
	for _, err := range CheckLaws(scenario.Observations, merged) {
		result.AddError(err.Error())
	}

	return result, nil
}

func mergeScenario(scenario *Scenario) ([]contact.MergedContact, error) {
	if scenario.ViaStore {
		return mergeViaStore(context.Background(), scenario.Observations)
	}
	return merge.MergeContactList(scenario.Observations)
}

// mergeViaStore writes obs to a fresh in-memory store and merges every
// record it reads back.
func mergeViaStore(ctx context.Context, obs []contact.Observation) ([]contact.MergedContact, error) {
	st, err := store.Open(ctx, ":memory:", store.Options{
		Clock:  testutil.NewDeterministicClock(),
		IDs:    testutil.NewSequenceIDs("c"),
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	recs := make([]contact.Record, len(obs))
	for i, o := range obs {
		recs[i] = contact.RecordFromObservation(o)
	}
	if _, err := st.PutAll(ctx, recs); err != nil {
		return nil, err
	}

	stored, err := st.All(ctx)
	if err != nil {
		return nil, err
	}
	return merge.MergeRecords(stored)
}
