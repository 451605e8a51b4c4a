package progress

import (
	"os"

	"github.com/schollz/progressbar/v3"
)

// Tracker renders pipeline progress as a percentage bar on stderr. It is
// driven by the engine's progress notifications, which only move forward.
type Tracker struct {
	bar  *progressbar.ProgressBar
	last int
}

// NewTracker creates a 0-100 progress bar with the given label.
func NewTracker(label string) *Tracker {
	bar := progressbar.NewOptions(100,
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionSetWidth(30),
		progressbar.OptionSetDescription(label),
		progressbar.OptionUseANSICodes(true),
		progressbar.OptionSetElapsedTime(false),
		progressbar.OptionSetPredictTime(false),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "=",
			SaucerHead:    ">",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
	)
	return &Tracker{bar: bar}
}

// SetPercent advances the bar. Regressions are ignored.
func (t *Tracker) SetPercent(percent int) {
	if percent <= t.last {
		return
	}
	t.last = percent
	_ = t.bar.Set(percent)
}

// FinishSuccess clears the bar completely (no output).
func (t *Tracker) FinishSuccess() {
	_ = t.bar.Finish()
	_ = t.bar.Clear()
}
