// Package runner assembles the import pipeline from configuration and
// executes one run end to end: CSV ingest, description cleaning,
// optional email enrichment, categorization with keyword fallback, and
// the buffered CSV export sink. Each run is guarded by a data-directory
// lock and recorded in the run history store.
package runner
