// Package merge folds per-source contact observations into unified
// identities.
//
// Observations are processed in input order. Each one is matched against
// the identities built so far through three witness indexes: email address,
// account ("domain:userid") and, only when neither of those matched,
// displayName. No match starts a new identity; one match merges into it;
// several matches merge into the first and collapse the others into it. The
// collapse is recorded in a union-find forest, so a key registered against
// an identity that was later absorbed still resolves to the survivor.
//
// The result is a partition: every input key appears in the Sources of
// exactly one output identity. The same input in the same order always
// yields the same output. Different orders may group differently when a
// displayName match is shadowed by an email or account match.
package merge
