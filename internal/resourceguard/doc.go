// Package resourceguard tracks in-flight jobs, registered temporary files,
// and process memory, and enforces admission and cleanup policy.
//
// A Guard is an owned object passed by handle to every background task, not
// a module-level singleton. Register/Unregister pairs are the only mutation
// surface: a task registers itself and its temp files when it starts and
// removes them in its exit path, success or failure. The periodic sweep only
// ever deletes files whose owning task is gone or that have outlived the
// configured age.
package resourceguard
