package media

import (
	"strconv"
	"strings"
	"time"
)

// StreamItem is a lightweight description of a video page, as returned by a
// search or supplied by a caller that already knows the URL.
type StreamItem struct {
	URL          string        `json:"url"`
	Name         string        `json:"name"`
	Duration     time.Duration `json:"duration"`
	UploaderName string        `json:"uploaderName"`
	UploaderURL  string        `json:"uploaderUrl"`
}

// AudioStream is one downloadable audio-only rendition of a page.
type AudioStream struct {
	URL      string  `json:"url"`
	FormatID string  `json:"formatId"`
	Format   string  `json:"format"`
	Codec    string  `json:"codec"`
	Bitrate  float64 `json:"bitrate"`
	Size     int64   `json:"size"`
}

// StreamInfo is the resolved page with every audio-only stream it offers.
type StreamInfo struct {
	URL          string
	Title        string
	Duration     time.Duration
	UploaderName string
	UploaderURL  string
	AudioStreams []AudioStream
}

// Item returns the StreamItem view of the resolved page.
func (i *StreamInfo) Item() StreamItem {
	return StreamItem{
		URL:          i.URL,
		Name:         i.Title,
		Duration:     i.Duration,
		UploaderName: i.UploaderName,
		UploaderURL:  i.UploaderURL,
	}
}

// FormatISODuration renders d as an ISO-8601 duration ("PT3M25S"), truncated
// to whole seconds. Zero renders as "PT0S".
func FormatISODuration(d time.Duration) string {
	secs := int64(d / time.Second)
	if secs == 0 {
		return "PT0S"
	}
	var b strings.Builder
	b.WriteString("PT")
	negative := secs < 0
	if negative {
		secs = -secs
	}
	hours, rem := secs/3600, secs%3600
	minutes, seconds := rem/60, rem%60
	sign := ""
	if negative {
		sign = "-"
	}
	if hours != 0 {
		b.WriteString(sign + strconv.FormatInt(hours, 10) + "H")
	}
	if minutes != 0 {
		b.WriteString(sign + strconv.FormatInt(minutes, 10) + "M")
	}
	if seconds != 0 {
		b.WriteString(sign + strconv.FormatInt(seconds, 10) + "S")
	}
	return b.String()
}
