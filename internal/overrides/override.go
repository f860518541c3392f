package overrides

import (
	"path/filepath"
	"strings"

	"musicreplacer/internal/catalog"
)

const (
	// KeyPrefix prefixes every override key in the settings group.
	KeyPrefix = "track_"
	// Extension is the only audio container the game client can play.
	Extension = ".wav"
)

// AdditionalInfo keys.
const (
	InfoURL         = "Url"
	InfoName        = "Name"
	InfoDuration    = "Duration"
	InfoUploader    = "Uploader"
	InfoUploaderURL = "Uploader url"
	InfoFile        = "File"
)

// TrackOverride is the persisted record of one replaced track.
type TrackOverride struct {
	Name           string            `json:"name"`
	OriginalPath   string            `json:"originalPath"`
	FromLocal      bool              `json:"fromLocal"`
	AdditionalInfo map[string]string `json:"additionalInfo"`
}

// Path returns the staged audio location for the override inside dir.
func (o *TrackOverride) Path(dir string) string {
	return TrackPath(dir, o.Name)
}

// TrackPath returns <dir>/<name>.wav.
func TrackPath(dir, name string) string {
	return filepath.Join(dir, name+Extension)
}

// Key returns the settings key for a track name.
func Key(name string) string {
	return KeyPrefix + name
}

// TrackNameFromFile derives a track name from a file name by dropping
// everything from the first dot of the base name that is followed by at
// least one character.
func TrackNameFromFile(path string) string {
	base := filepath.Base(path)
	if i := strings.Index(base, "."); i >= 0 && i < len(base)-1 {
		base = base[:i]
	}
	return catalog.Normalize(base)
}

// HasAudioExtension reports whether path ends in .wav, ignoring case.
func HasAudioExtension(path string) bool {
	return strings.EqualFold(filepath.Ext(path), Extension)
}

func safeName(name string) bool {
	if name == "" || name == "." || name == ".." {
		return false
	}
	return !strings.ContainsAny(name, `/\`) && !strings.ContainsRune(name, 0)
}
