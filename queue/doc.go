// Package queue provides the pluggable job-queue abstraction the depgraph
// engine dispatches build work through, along with three reference
// implementations: Inline (runs jobs on the submitting goroutine), Pool (a
// fixed-size FIFO worker pool), and Priority (a fixed-size pool with
// strict high/low priority tiers).
//
// RegisterJob must be thread-safe and non-blocking: it enqueues work and
// returns without waiting for that work to finish. A job's panic is
// recovered and logged; it never propagates to the submitter. Failures
// belong in the node state the job operates on, not in the queue.
package queue
