// Package storage implements the device's persistence layer on a
// single local SQLite file.
//
// Two tables exist: the single-row local user and the single-row
// vehicle profile. The store enforces the single-tenant invariant
// (user count is 0 or 1) at write time, and provides the atomic
// Unlink operation that removes both rows inside one transaction so
// partial identity teardown is never observable.
//
// Connections come from a fixed-size sqlitex pool with WAL enabled;
// the schema is applied idempotently as each connection is prepared.
// The store is safe for concurrent use: each operation takes its own
// connection and returns it when done.
package storage
