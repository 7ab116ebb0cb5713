// Package services defines shared utilities consumed by the pipeline stages
// and the external collaborator clients.
//
// Key responsibilities:
//   - Context helpers that stamp run IDs, transaction IDs, and stage names
//     for logging and tracing.
//   - Structured error markers plus the Wrap helper that classify failures
//     as transient (recoverable via fallback), fatal to the item, or fatal
//     to the whole run (configuration, timeout).
//
// Use these helpers when wiring new stage logic so operational behaviour
// (error handling, observability, retries) stays uniform across the pipeline.
package services
