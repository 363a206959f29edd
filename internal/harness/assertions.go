package harness

import (
	"fmt"
	"slices"
	"strings"
)

// AssertionError is returned when an assertion fails.
type AssertionError struct {
	Type     string // Assertion type for categorization
	Expected string // Human-readable expected outcome
	Actual   string // Human-readable actual outcome
	Groups   []string
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	fmt.Fprintf(&buf, "\nIdentities:\n")
	for i, g := range e.Groups {
		fmt.Fprintf(&buf, "  [%d] %s\n", i+1, g)
	}

	return buf.String()
}

func evaluate(r *Result, a Assertion) error {
	switch a.Type {
	case AssertGroupCount:
		return assertGroupCount(r, a)
	case AssertSameGroup:
		return assertSameGroup(r, a)
	case AssertSeparateGroups:
		return assertSeparateGroups(r, a)
	case AssertIdentity:
		return assertIdentity(r, a)
	default:
		return fmt.Errorf("unknown assertion type %q", a.Type)
	}
}

func fail(r *Result, typ, expected, actual string) *AssertionError {
	groups := make([]string, len(r.Merged))
	for i, m := range r.Merged {
		groups[i] = strings.Join(m.Sources, ", ")
	}
	return &AssertionError{Type: typ, Expected: expected, Actual: actual, Groups: groups}
}

func assertGroupCount(r *Result, a Assertion) error {
	if len(r.Merged) != a.Count {
		return fail(r, AssertGroupCount,
			fmt.Sprintf("%d identities", a.Count),
			fmt.Sprintf("%d identities", len(r.Merged)))
	}
	return nil
}

func assertSameGroup(r *Result, a Assertion) error {
	want := r.groupOf(a.Keys[0])
	for _, k := range a.Keys[1:] {
		if got := r.groupOf(k); got != want {
			return fail(r, AssertSameGroup,
				fmt.Sprintf("%s and %s in one identity", a.Keys[0], k),
				fmt.Sprintf("identities %d and %d", want+1, got+1))
		}
	}
	return nil
}

func assertSeparateGroups(r *Result, a Assertion) error {
	owner := make(map[int]string)
	for _, k := range a.Keys {
		g := r.groupOf(k)
		if other, ok := owner[g]; ok {
			return fail(r, AssertSeparateGroups,
				fmt.Sprintf("%s and %s in different identities", other, k),
				fmt.Sprintf("both in identity %d", g+1))
		}
		owner[g] = k
	}
	return nil
}

func assertIdentity(r *Result, a Assertion) error {
	g := r.groupOf(a.Keys[0])
	if g < 0 {
		return fail(r, AssertIdentity, fmt.Sprintf("an identity holding %s", a.Keys[0]), "none")
	}
	m := r.Merged[g]

	if !sameSet(m.Sources, a.Keys) {
		return fail(r, AssertIdentity,
			fmt.Sprintf("sources %v", a.Keys),
			fmt.Sprintf("sources %v", m.Sources))
	}
	if a.DisplayName != "" && m.DisplayName != a.DisplayName {
		return fail(r, AssertIdentity,
			fmt.Sprintf("displayName %q", a.DisplayName),
			fmt.Sprintf("displayName %q", m.DisplayName))
	}
	if len(a.Emails) > 0 && !slices.Equal(m.EmailValues(), a.Emails) {
		return fail(r, AssertIdentity,
			fmt.Sprintf("emails %v", a.Emails),
			fmt.Sprintf("emails %v", m.EmailValues()))
	}
	return nil
}

func sameSet(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	return slices.Equal(slices.Sorted(slices.Values(a)), slices.Sorted(slices.Values(b)))
}
