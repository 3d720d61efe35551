package output

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/mattn/go-isatty"
)

// writerIsTTY returns true if the given writer exposes an Fd() method
// (e.g. *os.File) and that fd is a terminal. Falls back to false for
// plain io.Writer values such as *bytes.Buffer.
func writerIsTTY(w io.Writer) bool {
	type fder interface {
		Fd() uintptr
	}
	if f, ok := w.(fder); ok {
		return isatty.IsTerminal(f.Fd())
	}
	return false
}

// spinnerFrames are drawn in turn while a spinner runs on a terminal.
const spinnerFrames = `|/-\`

// spinnerInterval is the redraw period of the terminal animation.
const spinnerInterval = 100 * time.Millisecond

// Spinner reports progress of a multi-stage operation on one status line:
//
//	/  Reading dump.yaml (2s)
//
// On a terminal the line is redrawn in place. Any other writer gets one
// "stage..." line per stage and no animation.
type Spinner struct {
	mu      sync.Mutex
	w       io.Writer
	stage   string
	tty     bool
	started time.Time
	width   int // printed width of the last frame, cleared on stop

	quit chan struct{}
	wg   sync.WaitGroup
}

// NewSpinner returns a stopped spinner for the first stage. It writes to
// stderr so tables rendered on stdout stay clean when piped.
func NewSpinner(stage string) *Spinner {
	return &Spinner{w: os.Stderr, stage: stage}
}

// SetWriter redirects the spinner. Call it before Start.
func (s *Spinner) SetWriter(w io.Writer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.w = w
}

// Start shows the current stage. Starting a running spinner is a no-op.
func (s *Spinner) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.quit != nil {
		return
	}
	s.quit = make(chan struct{})
	s.started = time.Now()
	s.tty = writerIsTTY(s.w)

	if !s.tty {
		fmt.Fprintf(s.w, "%s...\n", s.stage)
		return
	}

	s.wg.Add(1)
	go s.animate(s.quit)
}

func (s *Spinner) animate(quit <-chan struct{}) {
	defer s.wg.Done()

	tick := time.NewTicker(spinnerInterval)
	defer tick.Stop()

	for frame := 0; ; frame++ {
		select {
		case <-quit:
			return
		case <-tick.C:
			s.mu.Lock()
			s.draw(spinnerFrames[frame%len(spinnerFrames)])
			s.mu.Unlock()
		}
	}
}

// draw must be called with mu held.
func (s *Spinner) draw(frame byte) {
	line := fmt.Sprintf("%c  %s (%ds)", frame, s.stage, int(time.Since(s.started).Seconds()))
	pad := ""
	if n := utf8.RuneCountInString(line); n < s.width {
		pad = strings.Repeat(" ", s.width-n)
	} else {
		s.width = n
	}
	fmt.Fprintf(s.w, "\r%s%s", line, pad)
}

// UpdateMessage moves the spinner to the next stage.
func (s *Spinner) UpdateMessage(stage string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stage = stage
	if s.quit != nil && !s.tty {
		fmt.Fprintf(s.w, "%s...\n", stage)
	}
}

// Stop ends the animation and erases the status line. It returns once the
// animation goroutine has exited.
func (s *Spinner) Stop() {
	s.mu.Lock()
	quit := s.quit
	s.quit = nil
	s.mu.Unlock()

	if quit == nil {
		return
	}
	close(quit)
	s.wg.Wait()

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.tty && s.width > 0 {
		fmt.Fprintf(s.w, "\r%s\r", strings.Repeat(" ", s.width))
		s.width = 0
	}
}

// StopWithMessage stops the spinner and prints a closing line in its place.
func (s *Spinner) StopWithMessage(message string) {
	s.Stop()
	s.mu.Lock()
	defer s.mu.Unlock()
	fmt.Fprintln(s.w, message)
}
