// Package media resolves video pages into audio streams through the yt-dlp
// command line tool.
//
// Search lists candidate videos for a free-text query, Fetch loads the full
// format list for one page, and BestAudio picks the audio-only stream a
// conversion request should use. All process execution goes through the
// Executor interface so tests never spawn yt-dlp.
package media
