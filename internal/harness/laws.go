package harness

import (
	"fmt"
	"maps"
	"slices"

	"github.com/roach88/rolodex/internal/contact"
)

// LawError reports a violated merge law.
type LawError struct {
	Law     string
	Message string
}

func (e *LawError) Error() string {
	return fmt.Sprintf("law %s violated: %s", e.Law, e.Message)
}

// Law names.
const (
	LawPartition     = "partition"
	LawClosure       = "closure"
	LawDeterministic = "deterministic"
)

// CheckLaws checks merge output against the laws every merge must obey:
//
//   - partition: each input key appears in exactly one identity, and no
//     identity holds a key that was not in the input
//   - closure: no two identities share an email address or an account
//
// Display names are not covered by closure; they only join contacts with
// no other witness, so the result depends on input order.
func CheckLaws(obs []contact.Observation, merged []contact.MergedContact) []error {
	var errs []error
	errs = append(errs, checkPartition(obs, merged)...)
	errs = append(errs, checkClosure(merged)...)
	return errs
}

func checkPartition(obs []contact.Observation, merged []contact.MergedContact) []error {
	var errs []error

	owner := make(map[string]int)
	for i, m := range merged {
		if len(m.Sources) == 0 {
			errs = append(errs, &LawError{LawPartition, fmt.Sprintf("identity %d has no sources", i+1)})
		}
		for _, s := range m.Sources {
			if prev, ok := owner[s]; ok {
				errs = append(errs, &LawError{LawPartition,
					fmt.Sprintf("%s is in identities %d and %d", s, prev+1, i+1)})
				continue
			}
			owner[s] = i
		}
	}

	input := make(map[string]bool)
	for _, o := range obs {
		for _, k := range o.Keys() {
			input[k] = true
			if _, ok := owner[k]; !ok {
				errs = append(errs, &LawError{LawPartition, fmt.Sprintf("%s is in no identity", k)})
			}
		}
	}
	for _, s := range slices.Sorted(maps.Keys(owner)) {
		if !input[s] {
			errs = append(errs, &LawError{LawPartition, fmt.Sprintf("%s was not in the input", s)})
		}
	}
	return errs
}

func checkClosure(merged []contact.MergedContact) []error {
	var errs []error
	witnesses := make(map[string]int)
	claim := func(kind, key string, i int) {
		w := kind + " " + key
		if prev, ok := witnesses[w]; ok && prev != i {
			errs = append(errs, &LawError{LawClosure,
				fmt.Sprintf("identities %d and %d share %s", prev+1, i+1, w)})
			return
		}
		witnesses[w] = i
	}

	for i, m := range merged {
		for _, e := range m.EmailValues() {
			claim("email", e, i)
		}
		for _, a := range m.Accounts {
			if a.Domain == "" || a.UserID == "" {
				continue
			}
			claim("account", a.Key(), i)
		}
	}
	return errs
}
