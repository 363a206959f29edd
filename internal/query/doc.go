// Package query turns find options into a storage plan.
//
// A find carries either an ordered Filter (exact matches) or a Search
// (case-insensitive substring over a list of fields), never both. The first
// filter term on an indexed field becomes a parameterized SQL equality scan;
// every other term, and any search, is evaluated in memory over the
// candidate rows. Predicates read records and never modify them. A field
// that is absent on a record never matches.
package query
