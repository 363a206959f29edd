package query

import (
	"fmt"
	"strings"

	"github.com/roach88/rolodex/internal/contact"
)

// Cond is one exact-match filter term.
type Cond struct {
	Field string `json:"field"`
	Value string `json:"value"`
}

// Filter is an ordered list of exact-match terms joined by AND.
// Order matters: the first term picks the index.
type Filter []Cond

// Search is a case-insensitive substring match. A record matches when any of
// Fields contains Query.
type Search struct {
	Query  string   `json:"query"`
	Fields []string `json:"fields"`
}

// Options carries at most one of Filter and Search.
type Options struct {
	Filter Filter  `json:"filter,omitempty"`
	Search *Search `json:"search,omitempty"`
}

// IsZero reports whether o selects every record.
func (o Options) IsZero() bool {
	return len(o.Filter) == 0 && o.Search == nil
}

// Validate checks that o names known fields and does not mix filter and
// search.
func (o Options) Validate() error {
	if len(o.Filter) > 0 && o.Search != nil {
		return contact.Errorf(contact.InvalidArgument, "find", "filter and search are mutually exclusive")
	}
	for i, c := range o.Filter {
		if _, ok := contact.CanonicalField(c.Field); !ok {
			return contact.Errorf(contact.InvalidArgument, "find", "filter[%d]: unknown field %q", i, c.Field)
		}
	}
	if o.Search != nil {
		if len(o.Search.Fields) == 0 {
			return contact.Errorf(contact.InvalidArgument, "find", "search needs at least one field")
		}
		for _, f := range o.Search.Fields {
			if _, ok := contact.CanonicalField(f); !ok {
				return contact.Errorf(contact.InvalidArgument, "find", "search: unknown field %q", f)
			}
		}
	}
	return nil
}

// ValidateFields checks the projection list passed to find. It must be
// non-empty and name only contact fields.
func ValidateFields(fields []string) error {
	if len(fields) == 0 {
		return contact.Errorf(contact.InvalidArgument, "find", "no fields requested")
	}
	for _, f := range fields {
		if _, ok := contact.CanonicalField(f); !ok {
			return contact.Errorf(contact.InvalidArgument, "find", "unknown field %q", f)
		}
	}
	return nil
}

// Match reports whether r satisfies o.
func (o Options) Match(r contact.Record) bool {
	if !o.Filter.Match(r) {
		return false
	}
	if o.Search != nil {
		return o.Search.Match(r)
	}
	return true
}

// Match reports whether every term matches r. An empty filter matches.
func (f Filter) Match(r contact.Record) bool {
	for _, c := range f {
		if !c.Match(r) {
			return false
		}
	}
	return true
}

// Match reports whether any value of c.Field on r equals c.Value.
func (c Cond) Match(r contact.Record) bool {
	values, _ := r.Values(c.Field)
	for _, v := range values {
		if v == c.Value {
			return true
		}
	}
	return false
}

// Match reports whether any requested field of r contains the query,
// ignoring case. Repeated-value fields are joined into one string first.
func (s Search) Match(r contact.Record) bool {
	q := strings.ToLower(s.Query)
	for _, f := range s.Fields {
		values, _ := r.Values(f)
		if len(values) == 0 {
			continue
		}
		if strings.Contains(strings.ToLower(strings.Join(values, " ")), q) {
			return true
		}
	}
	return false
}

// Apply returns the records of in that match o, preserving order.
func Apply(in []contact.Record, o Options) []contact.Record {
	var out []contact.Record
	for _, r := range in {
		if o.Match(r) {
			out = append(out, r)
		}
	}
	return out
}

// ParseFilter parses "field=value" terms in order.
func ParseFilter(terms []string) (Filter, error) {
	var f Filter
	for _, t := range terms {
		field, value, ok := strings.Cut(t, "=")
		if !ok || field == "" {
			return nil, contact.E(contact.InvalidArgument, "parse filter", fmt.Errorf("expected field=value, got %q", t))
		}
		f = append(f, Cond{Field: field, Value: value})
	}
	return f, nil
}
