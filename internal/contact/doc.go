// Package contact provides the domain types shared by every rolodex package.
//
// This package contains types, normalization and the error taxonomy only.
// All other internal packages import contact; contact imports nothing internal.
//
// Key design constraints:
//   - Numbers are int64 (frecency is a count, never a float)
//   - Repeated-value fields are {type, value, preferred} triples
//   - JSON tags use the camelCase names of the portable-contacts format
//   - Errors crossing a package boundary are *Error values carrying a Kind
package contact
