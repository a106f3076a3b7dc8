// Package services defines shared utilities consumed by the pipeline stages
// and external integrations.
//
// Key responsibilities:
//   - Context helpers that stamp game IDs and stage names for logging.
//   - Structured error markers plus the Wrap helper that tag failures with a
//     classification other layers can branch on (skip vs fail vs retry).
//   - A Retry helper with bounded exponential backoff for transport failures.
//
// Use these helpers when wiring new stage logic so operational behaviour
// (error handling, observability, retries) stays uniform across the pipeline.
package services
