// Package settings persists group-scoped string key/value pairs.
//
// SQLiteStore is the durable implementation used by the CLI and serve mode.
// MemoryStore backs tests and embedding hosts that keep their own persistence.
// Both are safe for concurrent use.
package settings
