// Package overrides manages replacement audio for game music tracks.
//
// An override pairs a track name with a WAV file staged under the overrides
// directory and a JSON record in the settings store. Creation and removal run
// on the shared work pool; reads are synchronous. A record is only written
// after its file has been fully staged, and a record whose file has gone
// missing is deleted the next time it is read.
package overrides
