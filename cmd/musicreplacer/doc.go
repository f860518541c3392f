// Package main implements the musicreplacer command-line interface.
//
// Commands operate on the local override directory and settings database
// directly: tracks and override manage replacement music, search queries
// YouTube through yt-dlp, doctor checks external tools, and serve exposes
// the same operations over the HTTP API until interrupted.
package main
