package busy

import (
	"io"
	"time"

	"github.com/briandowns/spinner"
)

// SpinnerIndicator renders a terminal spinner while calls are in flight
type SpinnerIndicator struct {
	s *spinner.Spinner
}

// NewSpinnerIndicator creates a spinner writing to w (usually stderr)
func NewSpinnerIndicator(w io.Writer, suffix string) *SpinnerIndicator {
	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriter(w))
	s.Suffix = suffix
	return &SpinnerIndicator{s: s}
}

func (i *SpinnerIndicator) Show() {
	i.s.Start()
}

func (i *SpinnerIndicator) Hide() {
	i.s.Stop()
}
