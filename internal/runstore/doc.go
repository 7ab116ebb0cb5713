// Package runstore persists pipeline run history and diagnostics in a
// SQLite database under the data directory. Each completed run is
// recorded with its counters and artifact path so the history command
// can report on past imports.
package runstore
