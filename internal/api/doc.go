// Package api serves the override operations over HTTP for `musicreplacer
// serve`.
//
// Mutating routes answer 202 with the work pool task IDs; callers poll
// /api/tasks/:id for the outcome. Errors are JSON objects with an "error"
// field and, when known, a "hint".
package api
