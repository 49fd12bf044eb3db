// Package jobstore persists synthesis and edit jobs in SQLite keyed by
// request fingerprint.
//
// The Store is the single source of truth for job lifecycle: a fingerprint
// maps to at most one WorkItem, created atomically with the database's
// unique-key insert so concurrent requests for the same content never spawn
// duplicate background tasks. Status moves strictly forward
// (queued → processing → completed|failed); transitions are enforced in SQL
// so a stale writer cannot regress a record. Records are never deleted by
// this core; retention is an operator concern.
//
// Schema changes bump the version in schema.go; users clear the database to
// adopt the new schema.
package jobstore
