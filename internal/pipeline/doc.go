// Package pipeline implements the staged, bounded-concurrency processing
// engine at the heart of LedgerFlow.
//
// A Stage wraps one transform behind a fixed-capacity queue and a worker
// pool: submission blocks when the queue is full (backpressure), transient
// transform failures are recovered through an optional fallback, and
// unprocessable items are dropped with a diagnostic instead of aborting the
// run. The Orchestrator links stages so each one's output feeds the next,
// propagates completion downstream only after full drain, and races overall
// completion against a deadline. The terminal Sink batches items and flushes
// on a size-or-time trigger with a guaranteed, idempotent final flush.
//
// The engine is generic over the item type; LedgerFlow instantiates it with
// txn.Transaction in the runner package. Items must be values that are safe
// to copy: exactly one worker owns an item at a time and ownership moves to
// the next stage when the item is handed to its queue.
//
// Admission order into a stage is FIFO, but with more than one worker the
// completion order is deliberately unspecified; downstream stages must not
// assume source order.
package pipeline
