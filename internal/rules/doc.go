// Package rules provides the deterministic keyword categorizer used as the
// local fallback when the AI categorization collaborator is unavailable.
//
// The category label set is closed: every result, fallback or AI, must be one
// of the labels returned by Categories. Keyword matching is intentionally
// simple substring matching over the cleaned description; it exists to keep
// items moving through the pipeline, not to compete with the AI on accuracy.
package rules
