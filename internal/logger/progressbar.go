package logger

import (
	"io"
	"os"

	"github.com/schollz/progressbar/v3"
	"golang.org/x/term"
)

// ProgressBar wraps schollz/progressbar/v3 for the scan command's
// files-processed indicator, replacing the teacher's hand-rolled ASCII bar
// (internal/logger/progressbar.go) with the library the wider pack already
// depends on.
type ProgressBar struct {
	bar *progressbar.ProgressBar
}

// NewProgressBar builds a ProgressBar over total files, writing to w. The
// bar renders to w whether or not w is a terminal; it does no TTY check of
// its own. When w is an *os.File whose terminal size can be read, the bar
// width is set to half the terminal's current width instead of
// progressbar's fixed default.
func NewProgressBar(total int, w io.Writer, description string) *ProgressBar {
	opts := []progressbar.Option{
		progressbar.OptionSetDescription(description),
		progressbar.OptionSetWriter(w),
		progressbar.OptionShowCount(),
		progressbar.OptionClearOnFinish(),
	}
	if f, ok := w.(*os.File); ok {
		if width, _, err := term.GetSize(int(f.Fd())); err == nil && width > 0 {
			opts = append(opts, progressbar.OptionSetWidth(width/2))
		}
	}
	bar := progressbar.NewOptions(total, opts...)
	return &ProgressBar{bar: bar}
}

// Add advances the bar by n.
func (pb *ProgressBar) Add(n int) {
	_ = pb.bar.Add(n)
}

// Finish completes the bar, clearing it from the terminal.
func (pb *ProgressBar) Finish() {
	_ = pb.bar.Finish()
}
