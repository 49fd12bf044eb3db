// Package storage defines the object-store boundary the pipeline uploads
// through, plus the key layout that groups derived assets under their parent.
//
// The network object store itself is an external collaborator; this package
// holds only its narrow contract (Put/Get/Delete) and a filesystem-backed
// client used by the daemon's local mode and by tests.
package storage
