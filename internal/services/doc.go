// Package services defines shared helpers consumed by the override manager,
// the HTTP API, and the CLI.
//
// Key responsibilities:
//   - Context helpers that stamp track names, task IDs, and request
//     identifiers for logging.
//   - Structured error markers plus the Wrap helper so callers can classify
//     failures into exit codes, HTTP statuses, and operator hints.
package services
