// Package logs tails the musicreplacer log file with bounded memory.
//
// A negative offset returns the last Limit lines; a non-negative offset
// continues from a previous TailResult. Follow mode polls until new lines
// arrive, the wait elapses, or the context ends. Both `musicreplacer logs`
// and the API's log route read through Tail.
package logs
