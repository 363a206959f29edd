package harness

import (
	"github.com/roach88/rolodex/internal/contact"
)

// Result is the outcome of a scenario run.
type Result struct {
	// Pass is true when every assertion and law held.
	Pass bool `json:"pass"`

	// Merged is the merge output, in identity creation order.
	Merged []contact.MergedContact `json:"merged"`

	// Errors contains one message per failed assertion or law.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Merged: []contact.MergedContact{},
		Errors: []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// groupOf returns the index of the identity holding key, or -1.
func (r *Result) groupOf(key string) int {
	for i, m := range r.Merged {
		for _, s := range m.Sources {
			if s == key {
				return i
			}
		}
	}
	return -1
}
