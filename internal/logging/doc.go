// Package logging builds the slog loggers used across musicreplacer.
//
// Console output renders "component [track]: message key=value" lines; JSON
// output uses ts/level/msg keys for log shippers. Field names shared by every
// package live in fields.go so log queries stay stable.
package logging
