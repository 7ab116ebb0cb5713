// Package categorizer assigns spending categories to transactions via
// an OpenRouter-compatible chat completion API. Responses are JSON-only
// and validated against the closed category set; anything the model
// gets wrong surfaces as a transient error so callers can fall back to
// keyword rules.
package categorizer
