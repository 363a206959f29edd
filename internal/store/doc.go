// Package store provides SQLite-backed durable storage for contact records
// and activity events.
//
// Each named database lives in its own file, <dataDir>/<name>.db, with two
// tables:
//   - contacts: one row per record, keyed by id, with indexed copies of
//     display_name, family_name and given_name for filter lookups
//   - activities: timestamped events keyed by (date, title)
//
// # Schema Versions
//
// The schema version is kept in PRAGMA user_version and upgraded by a linear
// chain of migrations, one step per version:
//
//	0 - empty file
//	1 - contacts table and name indexes
//	2 - activities table and date index
//	3 - published/updated indexes, frecency and provenance columns
//
// Opening a database at a version the chain cannot reach, or one written by
// a newer build, fails with contact.NotSupported.
//
// # Transactions
//
// Every operation runs in exactly one transaction. Success is reported only
// after commit; any failure rolls back and surfaces one *contact.Error. A
// context that is already done aborts before the transaction begins. Once
// begun, a transaction runs to commit or rollback regardless of the caller's
// context.
//
// # Deterministic Results
//
// Contact queries order by id COLLATE BINARY and activity queries by date,
// so two reads with no intervening write return the same sequence.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - Single open connection: SQLite allows one writer
package store
