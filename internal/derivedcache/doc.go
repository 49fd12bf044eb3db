// Package derivedcache caches, per parent asset, the list of completed
// edits derived from it. Entries are served stale past their TTL while a
// single coalesced refresh per key runs in the background; correctness
// depends on availability and eventual consistency, not freshness.
package derivedcache
