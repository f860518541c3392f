package main

import (
	"io"
	"time"

	"github.com/schollz/progressbar/v3"

	"musicreplacer/internal/overrides"
)

// newProgressFunc renders one byte-counting bar per staged file on w.
// Unknown sizes render as a spinner.
func newProgressFunc(w io.Writer) overrides.ProgressFunc {
	return func(name string, total int64) io.Writer {
		if total <= 0 {
			total = -1
		}
		return progressbar.NewOptions64(total,
			progressbar.OptionSetWriter(w),
			progressbar.OptionSetDescription(name),
			progressbar.OptionShowBytes(true),
			progressbar.OptionSetWidth(30),
			progressbar.OptionThrottle(100*time.Millisecond),
			progressbar.OptionOnCompletion(func() { _, _ = io.WriteString(w, "\n") }),
			progressbar.OptionClearOnFinish(),
		)
	}
}
