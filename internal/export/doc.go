// Package export writes categorized transactions to per-run CSV
// artifacts. Each flush rewrites the artifact with every row emitted so
// far, using a temp-file rename so readers never observe a partial
// batch.
package export
