// Package history keeps snapshots of scan outputs and diffs them.
//
// Output files carry signed media URLs and timestamps that change on
// every scan, so files are scrubbed before comparison (see Scrub).
package history
