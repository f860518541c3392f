package overrides

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/dhowden/tag"
)

// localInfo describes a local source file. Embedded tags contribute the
// title and artist when the file carries a format the tag reader knows.
func localInfo(path string) map[string]string {
	info := map[string]string{InfoFile: filepath.Base(path)}
	file, err := os.Open(path)
	if err != nil {
		return info
	}
	defer file.Close()

	meta, err := tag.ReadFrom(file)
	if err != nil {
		return info
	}
	if title := strings.TrimSpace(meta.Title()); title != "" {
		info[InfoName] = title
	}
	if artist := strings.TrimSpace(meta.Artist()); artist != "" {
		info[InfoUploader] = artist
	}
	return info
}
