// Package progress shows a busy indicator on the terminal while a generation
// runs. The workflow only exposes a busy flag, so there is no percentage.
package progress

import (
	"io"
	"os"
	"sync"
	"time"

	"github.com/schollz/progressbar/v3"
	"golang.org/x/term"
)

const spinInterval = 100 * time.Millisecond

// Spinner is an indeterminate progress indicator. On a non-terminal writer it
// prints nothing.
type Spinner struct {
	bar    *progressbar.ProgressBar
	active bool

	mu      sync.Mutex
	stop    chan struct{}
	stopped chan struct{}
}

// NewSpinner creates a spinner writing to out. It is only active when out is
// a terminal; on pipes, files and buffers it prints nothing.
func NewSpinner(out io.Writer, description string) *Spinner {
	f, ok := out.(*os.File)
	return newSpinner(out, description, ok && IsTerminal(f))
}

func newSpinner(w io.Writer, description string, active bool) *Spinner {
	s := &Spinner{active: active}
	if !active {
		return s
	}
	if f, ok := w.(*os.File); ok {
		enableWindowsANSI(f)
	}
	s.bar = progressbar.NewOptions64(-1,
		progressbar.OptionSetDescription(description),
		progressbar.OptionSetWriter(w),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionThrottle(spinInterval),
		progressbar.OptionSetElapsedTime(true),
		progressbar.OptionShowCount(),
		progressbar.OptionClearOnFinish(),
		progressbar.OptionSetRenderBlankState(true),
	)
	return s
}

// IsTerminal reports whether f is attached to a terminal.
func IsTerminal(f *os.File) bool {
	if f == nil {
		return false
	}
	return term.IsTerminal(int(f.Fd()))
}

// Start begins animating. Calling Start twice has no effect.
func (s *Spinner) Start() {
	if !s.active {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stop != nil {
		return
	}
	s.stop = make(chan struct{})
	s.stopped = make(chan struct{})

	go func(stop, stopped chan struct{}) {
		defer close(stopped)
		ticker := time.NewTicker(spinInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				_ = s.bar.Add(1)
			case <-stop:
				return
			}
		}
	}(s.stop, s.stopped)
}

// Stop halts the animation and clears the line.
func (s *Spinner) Stop() {
	if !s.active {
		return
	}
	s.mu.Lock()
	stop, stopped := s.stop, s.stopped
	s.stop, s.stopped = nil, nil
	s.mu.Unlock()

	if stop != nil {
		close(stop)
		<-stopped
	}
	_ = s.bar.Finish()
}
