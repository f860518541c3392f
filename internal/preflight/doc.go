// Package preflight provides readiness checks for the filesystem locations
// and remote services musicreplacer depends on.
//
// The doctor command prints every result; serve logs failures at startup
// so an unwritable overrides directory surfaces before the first request.
package preflight
