package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/roach88/rolodex/internal/contact"
	"github.com/roach88/rolodex/internal/testutil"
)

// createTestStore creates a fresh store with a deterministic clock and ids.
func createTestStore(t *testing.T) (*Store, *testutil.DeterministicClock) {
	t.Helper()
	clock := testutil.NewDeterministicClock()
	s := openTestStore(t, filepath.Join(t.TempDir(), "test.db"), Options{
		Clock: clock,
		IDs:   testutil.NewSequenceIDs("c"),
	})
	return s, clock
}

func openTestStore(t *testing.T, path string, opts Options) *Store {
	t.Helper()
	s, err := Open(context.Background(), path, opts)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// janeDoe returns a record with the common fields populated.
func janeDoe() contact.Record {
	return contact.Record{
		Properties: contact.Properties{
			Name: contact.Name{GivenName: "Jane", FamilyName: "Doe"},
			Emails: []contact.Entry{
				{Type: contact.TypeHome, Value: "jane@example.com", Preferred: true},
				{Type: contact.TypeWork, Value: ""},
			},
			PhoneNumbers: []contact.Entry{{Type: contact.TypeMobile, Value: "+1 555 0100"}},
		},
	}
}

func named(given, family string) contact.Record {
	return contact.Record{
		Properties: contact.Properties{
			Name: contact.Name{GivenName: given, FamilyName: family},
		},
	}
}

var allFields = []string{contact.FieldDisplayName}
