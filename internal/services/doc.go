// Package services defines the shared error taxonomy and context carriers
// used across clipforge components.
//
// Errors produced by orchestrators, extraction strategies, and the render
// engine are tagged with one of the exported sentinels so boundary code can
// classify failures (validation vs transient vs resource exhaustion) with
// errors.Is instead of string matching. Context carriers propagate the job
// fingerprint and correlation id to structured logging.
package services
