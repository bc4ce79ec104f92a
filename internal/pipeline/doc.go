// Package pipeline runs a scan in the background and feeds its results to a
// consumer while it runs.
//
// A Controller starts the scan on its own goroutine and exposes its
// completion as a single-shot future. A Poller wakes on a fixed delay,
// drains the scanner's queue, reports progress to a Sink, and performs one
// last drain after the scan completes.
//
// Design decision: The poller reads the completion flag before draining.
// A drain that follows an observed completion therefore sees every result
// the scan will ever publish, so the loop can stop after it without losing
// results that were queued between the last drain and completion.
//
// Design decision: Panics on the scan goroutine are recovered and turned
// into ErrScanPanicked. Without this the consumer would wait forever for a
// completion that never arrives, or the process would die without a summary.
package pipeline
