// Package frecency scores contacts by how often they appear as the author of
// an activity.
package frecency

import (
	"github.com/roach88/rolodex/internal/contact"
)

// Score recomputes frecency for records from activities.
//
// Every record starts at zero and gains one point per activity whose author
// equals one of its email addresses. When two records share an address the
// later one in records gets the point. Only records that end with a positive
// score are returned, in records order; the inputs are not modified.
func Score(records []contact.Record, activities []contact.Activity) []contact.Record {
	scored := make([]contact.Record, len(records))
	byEmail := make(map[string]int)
	for i, r := range records {
		scored[i] = r.Clone()
		scored[i].Frecency = 0
		for _, email := range r.Properties.EmailValues() {
			byEmail[email] = i
		}
	}

	for _, a := range activities {
		if a.Author == "" {
			continue
		}
		if i, ok := byEmail[a.Author]; ok {
			scored[i].Frecency++
		}
	}

	var out []contact.Record
	for _, r := range scored {
		if r.Frecency > 0 {
			out = append(out, r)
		}
	}
	return out
}

// Scores returns the positive scores of Score keyed by record id.
func Scores(records []contact.Record, activities []contact.Activity) map[string]int64 {
	out := make(map[string]int64)
	for _, r := range Score(records, activities) {
		out[r.ID] = r.Frecency
	}
	return out
}
