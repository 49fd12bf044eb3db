// Command clipforge is the operator CLI for the clipforge daemon: submit
// synthesis and edit requests, poll fingerprints, and inspect the job queue.
package main
