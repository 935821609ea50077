package util

import (
	"fmt"
	"io"
	"time"

	"github.com/jonboulle/clockwork"
)

// progressInterval is how often the printer emits a dot.
const progressInterval = 2 * time.Second

// ProgressPrinter prints a message followed by a slow trickle of dots so
// that long-running operations don't look stalled.
type ProgressPrinter struct {
	out     io.Writer
	message string
	clock   clockwork.Clock

	stop    chan struct{}
	stopped chan struct{}
}

// NewProgressPrinter creates a ProgressPrinter that writes to `out`.
func NewProgressPrinter(out io.Writer, message string) *ProgressPrinter {
	return &ProgressPrinter{
		out:     out,
		message: message,
		clock:   clockwork.NewRealClock(),
		stop:    make(chan struct{}),
		stopped: make(chan struct{}),
	}
}

// Run prints the message, then a dot every couple of seconds until Stop is
// called. It's meant to be run in a goroutine.
func (pp *ProgressPrinter) Run() {
	defer close(pp.stopped)

	fmt.Fprint(pp.out, pp.message)
	ticker := pp.clock.NewTicker(progressInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.Chan():
			fmt.Fprint(pp.out, ".")
		case <-pp.stop:
			fmt.Fprintln(pp.out)
			return
		}
	}
}

// Stop ends the printing and blocks until Run has returned.
func (pp *ProgressPrinter) Stop() {
	close(pp.stop)
	<-pp.stopped
}
