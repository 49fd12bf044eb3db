// Package daemon ties the orchestrators, resource guard sweeper, and HTTP
// API into a single lifecycle with flock-based locking to prevent multiple
// instances from sharing one staging directory.
package daemon
