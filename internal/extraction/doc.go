// Package extraction cuts a requested time window out of a remote source
// asset. It picks between seeking directly into the remote file and
// downloading the whole source first, and owns the local working files for
// either path.
package extraction
