// Package ingest reads bank transaction exports and feeds them into the
// pipeline as fetched transactions.
//
// The CSV source expects date, amount, description columns (a header row is
// detected and skipped). Rows with unparseable dates or amounts are reported
// as fatal item errors so the orchestrator can record a diagnostic and keep
// reading; only I/O failures abort the feed.
package ingest
