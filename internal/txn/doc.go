// Package txn defines the transaction value that flows through the
// enrichment pipeline.
//
// A Transaction is immutable: every mutator returns a fresh copy so no two
// pipeline workers ever observe shared mutable state. The Status enum tracks
// how far a transaction has progressed and only moves forward; a failure at
// any point diverts the item to the terminal failed state without erasing the
// enrichment it has already accumulated.
//
// Keep lifecycle semantics here; stage code should advance items exclusively
// through the With*/Mark* constructors rather than assembling Transactions by
// hand.
package txn
