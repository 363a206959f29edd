// Package harness runs merge scenarios: observation lists written in YAML
// together with assertions about how they must group into identities.
//
// # Scenario Format
//
//	name: transitive_bridge
//	description: "A and C share nothing but are joined through B"
//	via_store: true
//	observations:
//	  - source: gmail
//	    id: "1"
//	    emails: [{value: a@example.com}]
//	  - source: work
//	    id: "7"
//	    emails: [{value: a@example.com}]
//	    accounts: [{domain: twitter.com, userid: ann}]
//	assertions:
//	  - type: group_count
//	    count: 1
//	  - type: same_group
//	    keys: [gmail.1, work.7]
//
// # Assertion Types
//
//   - group_count: the merge produced exactly Count identities
//   - same_group: every key in Keys ended in one identity
//   - separate_groups: no two keys in Keys share an identity
//   - identity: the identity holding Keys[0] has exactly Keys as sources,
//     and the DisplayName and Emails given
//
// Every scenario is also checked against the merge laws (see CheckLaws),
// whatever its assertions say.
//
// # Deterministic Testing
//
// With via_store the observations are written to a fresh in-memory store
// with a deterministic clock and sequential ids, and the merge runs over
// what the store returns. Otherwise they are merged in file order. Either
// way repeated runs produce identical output, which RunWithGolden compares
// against testdata/golden/<name>.golden.
package harness
