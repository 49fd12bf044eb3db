// Package api defines the wire types shared by the daemon's HTTP surface
// and its clients, plus a thin HTTP client used by the CLI.
package api
