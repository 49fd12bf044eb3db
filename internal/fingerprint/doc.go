// Package fingerprint derives the deterministic digest that identifies a
// synthesis or edit request.
//
// The digest is the sole deduplication mechanism: it is the job store's
// primary key, so identical logical requests always resolve to the same
// record. Times are normalized to whole seconds before hashing so float
// jitter in a request cannot produce a second job for the same window.
package fingerprint
