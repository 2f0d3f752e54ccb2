// Package spinner renders a one-line busy indicator while a round runs.
package spinner

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/mattn/go-runewidth"
)

var frames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

// Spinner animates a message on one terminal line. The message can be
// swapped while the spinner runs, so callers can narrate progress
// (provider finished, scoring started) without printing extra lines.
type Spinner struct {
	w        io.Writer
	done     chan struct{}
	cleared  chan struct{}
	stopOnce sync.Once

	mu       sync.Mutex
	message  string
	maxWidth int
}

// Start displays an animated spinner with the given message on w.
func Start(w io.Writer, message string) *Spinner {
	s := &Spinner{
		w:        w,
		done:     make(chan struct{}),
		cleared:  make(chan struct{}),
		message:  message,
		maxWidth: runewidth.StringWidth(message) + 2,
	}
	go s.run()
	return s
}

func (s *Spinner) run() {
	i := 0
	for {
		select {
		case <-s.done:
			s.mu.Lock()
			width := s.maxWidth
			s.mu.Unlock()
			fmt.Fprintf(s.w, "\r%s\r", strings.Repeat(" ", width)) //nolint:errcheck
			close(s.cleared)
			return
		case <-time.After(80 * time.Millisecond):
			s.mu.Lock()
			msg := s.message
			width := runewidth.StringWidth(msg) + 2
			if width > s.maxWidth {
				s.maxWidth = width
			}
			// Pad to the widest line seen so a shorter message fully
			// overwrites its predecessor.
			pad := s.maxWidth - width
			s.mu.Unlock()
			fmt.Fprintf(s.w, "\r%s %s%s", frames[i%len(frames)], msg, strings.Repeat(" ", pad)) //nolint:errcheck
			i++
		}
	}
}

// Update replaces the spinner message starting with the next frame.
func (s *Spinner) Update(message string) {
	s.mu.Lock()
	s.message = message
	s.mu.Unlock()
}

// Stop halts the animation and clears the line. Safe to call more than once.
func (s *Spinner) Stop() {
	s.stopOnce.Do(func() {
		close(s.done)
	})
	<-s.cleared
}
